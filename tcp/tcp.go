// Package tcp establishes plaintext TCP connections with configurable socket options.
package tcp

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"slices"
	"strconv"
	"syscall"
	"time"
)

// Resolver resolves hostnames to candidate addresses. Satisfied by [net.Resolver].
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

func NewConnector(ops ...Option) *Connector {
	defaults := []Option{
		WithResolver(net.DefaultResolver),
	}

	var c Connector
	for _, op := range slices.Concat(defaults, ops) {
		op(&c)
	}
	return &c
}

func WithResolver(r Resolver) Option {
	return func(c *Connector) {
		c.resolver = r
	}
}

// WithKeepAlive configures TCP keep-alive probes on established connections.
func WithKeepAlive(cfg net.KeepAliveConfig) Option {
	return func(c *Connector) {
		c.keepAlive = &cfg
	}
}

// WithNoDelay controls the TCP_NODELAY option. When disabled, small writes
// are coalesced by Nagle's algorithm.
func WithNoDelay(enabled bool) Option {
	return func(c *Connector) {
		c.noDelay = enabled
	}
}

// WithUserTimeout sets the TCP_USER_TIMEOUT option, bounding how long
// transmitted data may remain unacknowledged. Linux only.
func WithUserTimeout(d time.Duration) Option {
	return func(c *Connector) {
		c.userTimeout = d
	}
}

// WithInterface binds sockets to the named network interface. Linux only.
func WithInterface(name string) Option {
	return func(c *Connector) {
		c.iface = name
	}
}

// WithLocalAddrs binds sockets to the given local IPv4 or IPv6 address,
// depending on the address family of the destination.
func WithLocalAddrs(ipv4, ipv6 netip.Addr) Option {
	return func(c *Connector) {
		c.local4 = ipv4
		c.local6 = ipv6
	}
}

// WithConnectTimeout bounds each connection attempt. When a hostname
// resolves to multiple addresses, the timeout is divided evenly across them.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Connector) {
		c.connectTimeout = d
	}
}

type Option func(*Connector)

// Connector dials TCP connections. Safe for concurrent use.
type Connector struct {
	resolver Resolver

	keepAlive *net.KeepAliveConfig
	noDelay   bool

	userTimeout    time.Duration
	iface          string
	local4, local6 netip.Addr

	connectTimeout time.Duration
}

// Dial connects to host:port, trying every resolved address in order and
// returning the first established connection.
func (c *Connector) Dial(ctx context.Context, host string, port uint16) (*net.TCPConn, error) {
	ips, err := c.resolve(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("resolve %v: %w", host, err)
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("resolve %v: no addresses", host)
	}

	timeout := c.connectTimeout
	if timeout > 0 {
		timeout /= time.Duration(len(ips))
	}

	var lastErr error
	for _, ip := range ips {
		conn, err := c.dialAddr(ctx, ip, port, timeout)
		if err != nil {
			lastErr = err
			continue
		}
		return conn, nil
	}
	return nil, lastErr
}

func (c *Connector) resolve(ctx context.Context, host string) ([]net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []net.IP{ip}, nil
	}

	addrs, err := c.resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, err
	}

	ips := make([]net.IP, len(addrs))
	for i, a := range addrs {
		ips[i] = a.IP
	}
	return ips, nil
}

func (c *Connector) dialAddr(ctx context.Context, ip net.IP, port uint16, timeout time.Duration) (*net.TCPConn, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	dialer := net.Dialer{
		LocalAddr: c.localAddr(ip),
		Control:   c.control,
	}
	if c.keepAlive != nil {
		dialer.KeepAliveConfig = *c.keepAlive
	}

	addr := net.JoinHostPort(ip.String(), strconv.Itoa(int(port)))
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	tcpConn := conn.(*net.TCPConn)
	if !c.noDelay {
		if err := tcpConn.SetNoDelay(false); err != nil {
			tcpConn.Close()
			return nil, fmt.Errorf("disable TCP_NODELAY: %w", err)
		}
	}
	return tcpConn, nil
}

func (c *Connector) localAddr(dstIP net.IP) net.Addr {
	local := c.local4
	if dstIP.To4() == nil {
		local = c.local6
	}

	if !local.IsValid() {
		return nil
	}
	return &net.TCPAddr{IP: local.AsSlice()}
}

func (c *Connector) control(network, address string, conn syscall.RawConn) error {
	if c.iface == "" && c.userTimeout == 0 {
		return nil
	}
	return c.setSockopts(conn)
}
