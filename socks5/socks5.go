// Package socks5 implements the client side of the SOCKS5 wire protocol.
package socks5

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
)

const (
	VersionCode = 0x05

	// AuthVersionCode is the version of the username/password subnegotiation.
	AuthVersionCode = 0x01
)

const (
	addrTypeIPv4   = 0x01
	addrTypeDomain = 0x03
	addrTypeIPv6   = 0x04
)

var (
	ErrTooManyAuthMethods   = errors.New("too many auth methods")
	ErrHostnameTooLong      = errors.New("hostname too long")
	ErrCredentialsTooLong   = errors.New("credentials too long")
	ErrInvalidVersion       = errors.New("invalid version")
	ErrInvalidAddrType      = errors.New("invalid address type")
	ErrNonZeroReservedField = errors.New("reserved field has a non-zero value")
)

type hexByte byte

func (b hexByte) String() string {
	return fmt.Sprintf("%#02x", byte(b))
}

func checkVersion(r *bufio.Reader, version byte) error {
	versionByte, err := r.ReadByte()
	if err != nil {
		return err
	}
	if versionByte != version {
		return fmt.Errorf("%w (%v)", ErrInvalidVersion, hexByte(versionByte))
	}
	return nil
}

func checkReserved(r *bufio.Reader) error {
	reserved, err := r.ReadByte()
	if err != nil {
		return err
	}
	if reserved != 0 {
		return fmt.Errorf("%w (%v)", ErrNonZeroReservedField, hexByte(reserved))
	}
	return nil
}

func encodeAddr(host string, port uint16) ([]byte, error) {
	var bytes []byte

	if ip := net.ParseIP(host); ip != nil {
		if ip4 := ip.To4(); ip4 != nil {
			bytes = append(bytes, addrTypeIPv4)
			bytes = append(bytes, ip4...)
		} else {
			bytes = append(bytes, addrTypeIPv6)
			bytes = append(bytes, ip.To16()...)
		}
	} else {
		if len(host) > 255 {
			return nil, ErrHostnameTooLong
		}
		bytes = append(bytes, addrTypeDomain, byte(len(host)))
		bytes = append(bytes, []byte(host)...)
	}

	return binary.BigEndian.AppendUint16(bytes, port), nil
}

func readAddr(r *bufio.Reader) (host string, port uint16, err error) {
	addrType, err := r.ReadByte()
	if err != nil {
		return "", 0, err
	}

	switch addrType {
	case addrTypeIPv4:
		var ip [4]byte
		if _, err := io.ReadFull(r, ip[:]); err != nil {
			return "", 0, err
		}
		host = net.IP(ip[:]).String()
	case addrTypeIPv6:
		var ip [16]byte
		if _, err := io.ReadFull(r, ip[:]); err != nil {
			return "", 0, err
		}
		host = net.IP(ip[:]).String()
	case addrTypeDomain:
		hostLen, err := r.ReadByte()
		if err != nil {
			return "", 0, err
		}

		hostBytes := make([]byte, hostLen)
		if _, err := io.ReadFull(r, hostBytes); err != nil {
			return "", 0, err
		}
		host = string(hostBytes)
	default:
		return "", 0, fmt.Errorf("%w (%v)", ErrInvalidAddrType, hexByte(addrType))
	}

	var portBytes [2]byte
	if _, err := io.ReadFull(r, portBytes[:]); err != nil {
		return "", 0, err
	}
	return host, binary.BigEndian.Uint16(portBytes[:]), nil
}
