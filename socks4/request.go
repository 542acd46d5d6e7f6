package socks4

import (
	"fmt"
	"io"
)

type Request struct {
	Command Command
	DstHost string
	DstPort uint16
	UserID  string
}

func (r *Request) Write(w io.Writer) error {
	bytes := []byte{VersionCode, byte(r.Command)}

	dstAddr, dstHostname, err := encodeAddr(r.DstHost, r.DstPort)
	if err != nil {
		return fmt.Errorf("encode destination address: %w", err)
	}
	bytes = append(bytes, dstAddr...)

	// Append the user ID
	bytes = append(bytes, []byte(r.UserID)...)
	bytes = append(bytes, 0)

	// Append the destination hostname, if it could not be encoded as an IPv4 address
	if len(dstHostname) > 0 {
		bytes = append(bytes, dstHostname...)
		bytes = append(bytes, 0)
	}

	_, err = w.Write(bytes)
	return err
}
