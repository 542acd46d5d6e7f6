package httpdial

import (
	"context"
	"net"
	"net/url"
	"slices"
	"time"

	"github.com/cerfical/httpdial/log"
	"github.com/cerfical/httpdial/proxy"
	"github.com/cerfical/httpdial/tcp"
	"github.com/cerfical/httpdial/tlsdial"
)

// New builds a [Connector] from the accumulated options.
//
// When no layers are configured, the connector invokes the dispatcher
// directly, with the optional timeout applied inline. Otherwise the
// dispatcher is wrapped into the layer pipeline, with the timeout applied
// outside the layers and error classification outermost, so both shapes
// report identical errors.
func New(ops ...Option) *Connector {
	defaults := []Option{
		WithLog(log.Discard),
		WithResolver(net.DefaultResolver),
	}

	var c Connector
	for _, op := range slices.Concat(defaults, ops) {
		op(&c)
	}

	tcpOps := slices.Concat(c.tcpOps, []tcp.Option{
		tcp.WithResolver(c.resolver),
		tcp.WithNoDelay(c.noDelay),
		tcp.WithConnectTimeout(c.timeout),
	})

	d := &dispatcher{
		tcp: tcp.NewConnector(tcpOps...),
		tls: tlsdial.NewConnector(c.tlsOps...),

		proxies:  c.proxies,
		resolver: c.resolver,

		noDelay: c.noDelay,
		tlsInfo: c.tlsInfo,
		verbose: c.verbose,

		log: c.log,
	}

	if len(c.layers) == 0 {
		d.timeout = c.timeout
		c.simple = d
		return &c
	}

	svc := Service(d)
	for _, l := range slices.Backward(c.layers) {
		svc = l(svc)
	}
	if c.timeout > 0 {
		svc = &timeoutService{next: svc, timeout: c.timeout}
	}
	c.layered = &classifyService{next: svc}
	return &c
}

// WithProxy appends a proxy matcher consulted on every connection attempt.
// Matchers are evaluated in the order configured, first match wins.
func WithProxy(m proxy.Matcher) Option {
	return func(c *Connector) {
		c.proxies = append(c.proxies, m)
	}
}

// WithLayer appends a middleware layer wrapped around the dispatcher.
// Layers apply in the order configured, the first being the outermost.
func WithLayer(l Layer) Option {
	return func(c *Connector) {
		c.layers = append(c.layers, l)
	}
}

// WithConnectTimeout bounds every connection attempt. When a hostname
// resolves to multiple addresses, the transport divides the timeout evenly
// across them.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Connector) {
		c.timeout = d
	}
}

// WithResolver overrides the resolver used for direct connections and for
// SOCKS variants that resolve destination names on the client.
func WithResolver(r tcp.Resolver) Option {
	return func(c *Connector) {
		c.resolver = r
	}
}

// WithTCPOptions configures the plaintext transport.
func WithTCPOptions(ops ...tcp.Option) Option {
	return func(c *Connector) {
		c.tcpOps = append(c.tcpOps, ops...)
	}
}

// WithTLSOptions configures the TLS handshake.
func WithTLSOptions(ops ...tlsdial.Option) Option {
	return func(c *Connector) {
		c.tlsOps = append(c.tlsOps, ops...)
	}
}

// WithNoDelay controls the TCP_NODELAY option on established connections.
func WithNoDelay(enabled bool) Option {
	return func(c *Connector) {
		c.noDelay = enabled
	}
}

// WithTLSInfo makes established connections report the peer certificate via
// [Conn.Connected].
func WithTLSInfo(enabled bool) Option {
	return func(c *Connector) {
		c.tlsInfo = enabled
	}
}

// WithVerbose traces all connection I/O at the debug log level.
func WithVerbose(enabled bool) Option {
	return func(c *Connector) {
		c.verbose = enabled
	}
}

// WithLog sets the logger for connection events and I/O traces.
func WithLog(l *log.Logger) Option {
	return func(c *Connector) {
		c.log = l
	}
}

type Option func(*Connector)

// Connector establishes connections to destinations submitted by an HTTP
// engine. Safe for concurrent use: all configuration is immutable after [New].
type Connector struct {
	proxies []proxy.Matcher
	layers  []Layer

	timeout  time.Duration
	resolver tcp.Resolver

	tcpOps []tcp.Option
	tlsOps []tlsdial.Option

	noDelay bool
	tlsInfo bool
	verbose bool

	log *log.Logger

	simple  *dispatcher
	layered Service
}

func (c *Connector) Ready() bool {
	return true
}

// Dial establishes a connection to dst. Failures are reported as [Error].
func (c *Connector) Dial(ctx context.Context, dst *Dst) (*Conn, error) {
	req := Request{dst: dst}
	if c.simple != nil {
		return c.simple.Dial(ctx, &req)
	}
	return c.layered.Dial(ctx, &req)
}

// DialURL establishes a connection to the destination URI u.
func (c *Connector) DialURL(ctx context.Context, u *url.URL) (*Conn, error) {
	return c.Dial(ctx, NewDst(u))
}

// timeoutService bounds calls to the wrapped service, abandoning attempts
// that outlive the timeout.
type timeoutService struct {
	next    Service
	timeout time.Duration
}

func (s *timeoutService) Ready() bool {
	return s.next.Ready()
}

func (s *timeoutService) Dial(ctx context.Context, req *Request) (*Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.next.Dial(ctx, req)
}

// classifyService maps any error coming out of the pipeline, including
// layer-originated ones, into the classified [Error] shape.
type classifyService struct {
	next Service
}

func (s *classifyService) Ready() bool {
	return s.next.Ready()
}

func (s *classifyService) Dial(ctx context.Context, req *Request) (*Conn, error) {
	conn, err := s.next.Dial(ctx, req)
	if err != nil {
		return nil, classifyError(err)
	}
	return conn, nil
}
