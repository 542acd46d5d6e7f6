package socks5

import (
	"bufio"
	"fmt"
	"io"
)

type Greeting struct {
	AuthMethods []AuthMethod
}

func (g *Greeting) Write(w io.Writer) error {
	if len(g.AuthMethods) > 255 {
		return ErrTooManyAuthMethods
	}

	bytes := []byte{VersionCode, byte(len(g.AuthMethods))}
	for _, m := range g.AuthMethods {
		bytes = append(bytes, byte(m))
	}

	_, err := w.Write(bytes)
	return err
}

func ReadGreetingReply(r *bufio.Reader) (*GreetingReply, error) {
	if err := checkVersion(r, VersionCode); err != nil {
		return nil, fmt.Errorf("decode version: %w", err)
	}

	authByte, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("decode auth method: %w", err)
	}

	return &GreetingReply{AuthMethod(authByte)}, nil
}

type GreetingReply struct {
	AuthMethod AuthMethod
}
