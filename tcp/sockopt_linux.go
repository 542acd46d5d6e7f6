package tcp

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

func (c *Connector) setSockopts(conn syscall.RawConn) error {
	var optErr error
	err := conn.Control(func(fd uintptr) {
		if c.iface != "" {
			if err := unix.SetsockoptString(int(fd), unix.SOL_SOCKET, unix.SO_BINDTODEVICE, c.iface); err != nil {
				optErr = fmt.Errorf("bind to interface %v: %w", c.iface, err)
				return
			}
		}
		if c.userTimeout > 0 {
			ms := int(c.userTimeout.Milliseconds())
			if err := unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_USER_TIMEOUT, ms); err != nil {
				optErr = fmt.Errorf("set TCP_USER_TIMEOUT: %w", err)
				return
			}
		}
	})
	if err != nil {
		return err
	}
	return optErr
}
