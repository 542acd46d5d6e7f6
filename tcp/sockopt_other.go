//go:build !linux

package tcp

import (
	"errors"
	"syscall"
)

func (c *Connector) setSockopts(conn syscall.RawConn) error {
	return errors.ErrUnsupported
}
