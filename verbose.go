package httpdial

import (
	"fmt"
	"math/rand/v2"
	"net"

	"github.com/cerfical/httpdial/log"
)

// newVerboseConn decorates conn so that every read and write is traced to l
// at the debug level. The decorator assigns the connection a random id to
// tell interleaved traces apart.
func newVerboseConn(conn net.Conn, l *log.Logger) *verboseConn {
	return &verboseConn{
		Conn: conn,
		log:  l.With(log.Fields{"conn_id": rand.Uint32()}),
	}
}

type verboseConn struct {
	net.Conn

	log *log.Logger
}

func (c *verboseConn) Read(p []byte) (int, error) {
	n, err := c.Conn.Read(p)
	if n > 0 {
		c.log.Debug("read", log.Fields{"data": fmt.Sprintf("%q", p[:n])})
	}
	return n, err
}

func (c *verboseConn) Write(p []byte) (int, error) {
	n, err := c.Conn.Write(p)
	if n > 0 {
		c.log.Debug("write", log.Fields{"data": fmt.Sprintf("%q", p[:n])})
	}
	return n, err
}

func (c *verboseConn) Unwrap() net.Conn {
	return c.Conn
}
