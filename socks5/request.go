package socks5

import (
	"fmt"
	"io"
)

type Request struct {
	Command Command
	DstHost string
	DstPort uint16
}

func (r *Request) Write(w io.Writer) error {
	// Version, command and the reserved field
	bytes := []byte{VersionCode, byte(r.Command), 0}

	addr, err := encodeAddr(r.DstHost, r.DstPort)
	if err != nil {
		return fmt.Errorf("encode destination address: %w", err)
	}
	bytes = append(bytes, addr...)

	_, err = w.Write(bytes)
	return err
}
