// Package socks4 implements the client side of the SOCKS4 and SOCKS4a wire protocol.
package socks4

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
)

const VersionCode = 0x04

var (
	ErrInvalidVersion = errors.New("invalid version")
	ErrNotIPv4        = errors.New("not an IPv4 address")
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

func readPort(r *bufio.Reader) (uint16, error) {
	var port [2]byte
	if _, err := io.ReadFull(r, port[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(port[:]), nil
}

// encodeAddr encodes a destination as a port and an IPv4 address. A host that
// is not an IPv4 literal is encoded as the invalid address 0.0.0.1 followed by
// the hostname, as SOCKS4a prescribes.
func encodeAddr(host string, port uint16) (addr []byte, hostname []byte, err error) {
	portBytes := binary.BigEndian.AppendUint16(nil, port)

	if host == "" {
		return append(portBytes, 0, 0, 0, 0), nil, nil
	}

	if ip := net.ParseIP(host); ip != nil {
		ip4 := ip.To4()
		if ip4 == nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrNotIPv4, ip)
		}
		return append(portBytes, ip4...), nil, nil
	}
	return append(portBytes, 0, 0, 0, 1), []byte(host), nil
}
