package httpdial

import (
	"net"

	"github.com/cerfical/httpdial/tlsdial"
)

func newConn(stream net.Conn, isProxy, tlsInfo bool) *Conn {
	return &Conn{Conn: stream, isProxy: isProxy, tlsInfo: tlsInfo}
}

// Conn is the uniform connection handle produced by all connect paths. It
// behaves identically whether the underlying transport is raw TCP, TLS over
// TCP, a SOCKS-tunneled stream, or a TLS stream inside a CONNECT tunnel.
type Conn struct {
	net.Conn

	isProxy bool
	tlsInfo bool
}

// WriteBuffers writes the contents of bufs to the connection. When the
// transport stack allows it, the buffers reach the kernel as a single
// vectored write.
func (c *Conn) WriteBuffers(bufs net.Buffers) (int64, error) {
	if t := vectoredTarget(c.Conn); t != nil {
		return bufs.WriteTo(t)
	}
	return bufs.WriteTo(c.Conn)
}

// VectoredWrites reports whether [Conn.WriteBuffers] can hand multiple
// buffers to the kernel in one write.
func (c *Conn) VectoredWrites() bool {
	return vectoredTarget(c.Conn) != nil
}

// Unwrap returns the wrapped transport stack.
func (c *Conn) Unwrap() net.Conn {
	return c.Conn
}

// Connected describes the established connection to the HTTP engine
// consuming it.
func (c *Conn) Connected() *Connected {
	desc := Connected{
		LocalAddr:  c.LocalAddr(),
		RemoteAddr: c.RemoteAddr(),
		Proxy:      c.isProxy,
	}

	if proto := negotiatedProtocol(c.Conn); proto == "h2" {
		desc.NegotiatedH2 = true
	}
	if c.tlsInfo {
		desc.TLS = lookupTLSInfo(c.Conn)
	}
	return &desc
}

// Connected describes an established connection.
type Connected struct {
	LocalAddr  net.Addr
	RemoteAddr net.Addr

	// Proxy is set when the connection goes through a plaintext proxy
	// without tunneling, so the HTTP engine must write request targets in
	// absolute form.
	Proxy bool

	// NegotiatedH2 is set when ALPN selected HTTP/2 during the TLS handshake.
	NegotiatedH2 bool

	// TLS carries TLS details of the connection, if available and requested.
	TLS *tlsdial.Info
}

// lookupTLSInfo queries a transport stack for TLS details, delegating
// through every wrapping layer. Plain transports and layers lacking the
// capability yield nil.
func lookupTLSInfo(conn net.Conn) *tlsdial.Info {
	for conn != nil {
		if src, ok := conn.(interface{ TLSInfo() *tlsdial.Info }); ok {
			if info := src.TLSInfo(); info != nil {
				return info
			}
		}

		inner, ok := conn.(interface{ Unwrap() net.Conn })
		if !ok {
			return nil
		}
		conn = inner.Unwrap()
	}
	return nil
}

func negotiatedProtocol(conn net.Conn) string {
	for conn != nil {
		if src, ok := conn.(interface{ NegotiatedProtocol() string }); ok {
			if proto := src.NegotiatedProtocol(); proto != "" {
				return proto
			}
		}

		inner, ok := conn.(interface{ Unwrap() net.Conn })
		if !ok {
			return ""
		}
		conn = inner.Unwrap()
	}
	return ""
}

// vectoredTarget locates the raw socket beneath pass-through layers, or
// returns nil if an intermediate layer has to observe the byte stream.
func vectoredTarget(conn net.Conn) *net.TCPConn {
	for {
		switch c := conn.(type) {
		case *net.TCPConn:
			return c
		case *tlsdial.MaybeTLS:
			if c.TLS() != nil {
				return nil
			}
			conn = c.Unwrap()
		default:
			return nil
		}
	}
}
