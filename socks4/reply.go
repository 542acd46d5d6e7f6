package socks4

import (
	"bufio"
	"fmt"
	"io"
	"net"
)

func ReadReply(r *bufio.Reader) (*Reply, error) {
	// SOCKS4 replies carry a version code of 0
	if err := checkVersion(r, 0); err != nil {
		return nil, fmt.Errorf("decode version: %w", err)
	}

	statusByte, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}

	bindPort, err := readPort(r)
	if err != nil {
		return nil, fmt.Errorf("decode bind port: %w", err)
	}

	var bindIP [4]byte
	if _, err := io.ReadFull(r, bindIP[:]); err != nil {
		return nil, fmt.Errorf("decode bind address: %w", err)
	}

	return &Reply{
		Status:   Status(statusByte),
		BindHost: net.IP(bindIP[:]).String(),
		BindPort: bindPort,
	}, nil
}

type Reply struct {
	Status   Status
	BindHost string
	BindPort uint16
}
