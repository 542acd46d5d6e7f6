package httpdial

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/cerfical/httpdial/log"
	"github.com/cerfical/httpdial/proxy"
	"github.com/cerfical/httpdial/socks"
	"github.com/cerfical/httpdial/tcp"
	"github.com/cerfical/httpdial/tlsdial"
	"github.com/cerfical/httpdial/tunnel"
)

// Service establishes connections to destinations. A [Layer] wraps one
// Service in another to observe or alter connection attempts.
type Service interface {
	// Ready reports whether the service can accept a call. Always true for
	// the built-in dispatcher, which tracks no backpressure state.
	Ready() bool

	// Dial establishes a connection to the wrapped destination.
	Dial(ctx context.Context, req *Request) (*Conn, error)
}

// Layer wraps a connection establishment service with additional behavior.
// Layers are applied at build time, in the order supplied, the first being
// the outermost.
type Layer func(Service) Service

// Request carries a destination through the layer pipeline. Requests are
// made by the [Connector] only, so layers cannot bypass the pipeline or
// depend on the destination representation.
type Request struct {
	dst *Dst
}

// dispatcher drives a single connection attempt: it classifies the
// destination, picks the proxy/tunnel/TLS sequence to run, and wraps the
// result into a [Conn]. Its configuration is immutable after construction,
// so concurrent attempts share it freely.
type dispatcher struct {
	tcp *tcp.Connector
	tls *tlsdial.Connector

	proxies  []proxy.Matcher
	resolver tcp.Resolver

	// timeout bounds a whole attempt. Applied inline unless the Connector
	// hoisted it into a pipeline layer.
	timeout time.Duration

	noDelay bool
	tlsInfo bool
	verbose bool

	log *log.Logger
}

func (d *dispatcher) Ready() bool {
	return true
}

func (d *dispatcher) Dial(ctx context.Context, req *Request) (*Conn, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	conn, err := d.dial(ctx, req.dst)
	if err != nil {
		return nil, classifyError(err)
	}
	return conn, nil
}

func (d *dispatcher) dial(ctx context.Context, dst *Dst) (*Conn, error) {
	intercepted := dst.takeProxy()
	if intercepted == nil {
		intercepted = d.intercept(dst.URL())
	}

	if intercepted == nil {
		return d.dialDirect(ctx, dst, false)
	}

	proxyURL := intercepted.URL()
	if proxyURL == nil {
		return nil, newError(KindBadDst, fmt.Errorf("no proxy address for destination %v", dst.URL().Redacted()))
	}

	d.log.Info("Connecting via a proxy", log.Fields{
		"proxy": proxyURL.Redacted(),
		"dst":   dst.URL().Redacted(),
	})

	if proto, err := socks.ParseProto(proxyURL.Scheme); err == nil {
		return d.dialSOCKS(ctx, dst, intercepted, proto)
	}

	if dst.URL().Scheme == "https" {
		return d.dialTunnel(ctx, dst, intercepted)
	}

	// A plaintext destination goes through the proxy untunneled: connect the
	// transport to the proxy address and let the HTTP engine address the
	// original target in absolute form.
	dst.SetURL(proxyURL)
	return d.dialDirect(ctx, dst, true)
}

func (d *dispatcher) intercept(dstURL *url.URL) *proxy.Intercepted {
	for _, m := range d.proxies {
		if p := m.Intercept(dstURL); p != nil {
			return p
		}
	}
	return nil
}

func (d *dispatcher) dialDirect(ctx context.Context, dst *Dst, isProxy bool) (*Conn, error) {
	tcpConn, err := d.tcp.Dial(ctx, dst.host(), dst.port())
	if err != nil {
		return nil, newError(KindTransport, err)
	}

	var maybeTLS *tlsdial.MaybeTLS
	err = d.withHandshakeNoDelay(tcpConn, dst.URL().Scheme == "https", func() error {
		var err error
		maybeTLS, err = d.tls.Connect(ctx, tcpConn, dst.URL())
		return err
	})
	if err != nil {
		return nil, newError(KindTLS, err)
	}

	return newConn(d.decorate(maybeTLS), isProxy, d.tlsInfo), nil
}

func (d *dispatcher) dialSOCKS(ctx context.Context, dst *Dst, intercepted *proxy.Intercepted, proto socks.Proto) (*Conn, error) {
	if dst.host() == "" {
		return nil, errNoHost(dst.URL())
	}

	tcpConn, err := d.dialProxy(ctx, intercepted.URL())
	if err != nil {
		return nil, err
	}

	user, password, _ := intercepted.RawAuth()
	client := socks.Client{
		Proto:    proto,
		User:     user,
		Password: password,
		Resolver: d.resolver,
	}

	if err := client.Connect(ctx, tcpConn, dst.host(), dst.port()); err != nil {
		tcpConn.Close()
		return nil, newError(KindTunnel, fmt.Errorf("%v tunnel: %w", proto, err))
	}

	// Past negotiation the tunnel is transparent, so the connection is never
	// proxy-form.
	if dst.URL().Scheme != "https" {
		return newConn(d.decorate(tcpConn), false, false), nil
	}

	tlsStream, err := d.handshake(ctx, tcpConn, dst.host())
	if err != nil {
		return nil, err
	}
	return newConn(d.decorate(tlsStream), false, d.tlsInfo), nil
}

func (d *dispatcher) dialTunnel(ctx context.Context, dst *Dst, intercepted *proxy.Intercepted) (*Conn, error) {
	if dst.host() == "" {
		return nil, errNoHost(dst.URL())
	}

	tcpConn, err := d.dialProxy(ctx, intercepted.URL())
	if err != nil {
		return nil, err
	}

	var ops []tunnel.Option
	if user, password, ok := intercepted.BasicAuth(); ok {
		ops = append(ops, tunnel.WithBasicAuth(user, password))
	}
	if headers := intercepted.Headers(); headers != nil {
		ops = append(ops, tunnel.WithHeaders(headers))
	}

	if err := tunnel.NewClient(ops...).Connect(ctx, tcpConn, dst.host(), dst.port()); err != nil {
		tcpConn.Close()
		return nil, newError(KindTunnel, err)
	}

	tlsStream, err := d.handshake(ctx, tcpConn, dst.host())
	if err != nil {
		return nil, err
	}
	return newConn(d.decorate(tlsStream), false, d.tlsInfo), nil
}

// dialProxy connects the plaintext transport to the proxy address.
func (d *dispatcher) dialProxy(ctx context.Context, proxyURL *url.URL) (*net.TCPConn, error) {
	tcpConn, err := d.tcp.Dial(ctx, proxyURL.Hostname(), urlPort(proxyURL))
	if err != nil {
		return nil, newError(KindTransport, fmt.Errorf("connect to proxy %v: %w", proxyURL.Host, err))
	}
	return tcpConn, nil
}

func (d *dispatcher) handshake(ctx context.Context, tcpConn *net.TCPConn, serverName string) (*tlsdial.Stream, error) {
	var tlsStream *tlsdial.Stream
	err := d.withHandshakeNoDelay(tcpConn, true, func() error {
		var err error
		tlsStream, err = d.tls.Handshake(ctx, tcpConn, serverName)
		return err
	})
	if err != nil {
		return nil, newError(KindTLS, err)
	}
	return tlsStream, nil
}

// withHandshakeNoDelay disables the Nagle delay on the socket for the
// duration of a TLS handshake, so that the handshake's small packets are not
// held back, and restores the requested setting afterwards.
func (d *dispatcher) withHandshakeNoDelay(tcpConn *net.TCPConn, encrypted bool, handshake func() error) error {
	toggle := encrypted && !d.noDelay
	if toggle {
		if err := tcpConn.SetNoDelay(true); err != nil {
			tcpConn.Close()
			return fmt.Errorf("enable TCP_NODELAY: %w", err)
		}
	}

	if err := handshake(); err != nil {
		return err
	}

	if toggle {
		if err := tcpConn.SetNoDelay(false); err != nil {
			tcpConn.Close()
			return fmt.Errorf("restore TCP_NODELAY: %w", err)
		}
	}
	return nil
}

func (d *dispatcher) decorate(conn net.Conn) net.Conn {
	if !d.verbose {
		return conn
	}
	return newVerboseConn(conn, d.log)
}

func errNoHost(u *url.URL) error {
	return newError(KindBadDst, fmt.Errorf("destination %v has no host", u.Redacted()))
}
