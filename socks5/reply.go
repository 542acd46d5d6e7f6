package socks5

import (
	"bufio"
	"fmt"
)

func ReadReply(r *bufio.Reader) (*Reply, error) {
	if err := checkVersion(r, VersionCode); err != nil {
		return nil, fmt.Errorf("decode version: %w", err)
	}

	statusByte, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}

	if err := checkReserved(r); err != nil {
		return nil, fmt.Errorf("decode reserved field: %w", err)
	}

	bindHost, bindPort, err := readAddr(r)
	if err != nil {
		return nil, fmt.Errorf("decode bind address: %w", err)
	}

	return &Reply{
		Status:   Status(statusByte),
		BindHost: bindHost,
		BindPort: bindPort,
	}, nil
}

type Reply struct {
	Status   Status
	BindHost string
	BindPort uint16
}
