// Package tlsdial upgrades established connections to TLS.
package tlsdial

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net"
	"net/url"
	"slices"
)

func NewConnector(ops ...Option) *Connector {
	defaults := []Option{
		WithSNI(true),
		WithALPNProtos("h2", "http/1.1"),
	}

	var c Connector
	for _, op := range slices.Concat(defaults, ops) {
		op(&c)
	}
	return &c
}

// WithMinVersion sets the minimum accepted TLS version, e.g. [tls.VersionTLS12].
func WithMinVersion(v uint16) Option {
	return func(c *Connector) {
		c.minVersion = v
	}
}

// WithMaxVersion sets the maximum accepted TLS version.
func WithMaxVersion(v uint16) Option {
	return func(c *Connector) {
		c.maxVersion = v
	}
}

// WithRootCAs sets the certificate store used to verify server certificates.
func WithRootCAs(pool *x509.CertPool) Option {
	return func(c *Connector) {
		c.rootCAs = pool
	}
}

// WithIdentity sets the certificate presented for client authentication.
func WithIdentity(cert tls.Certificate) Option {
	return func(c *Connector) {
		c.identity = &cert
	}
}

// WithInsecureSkipVerify disables certificate and hostname verification.
func WithInsecureSkipVerify(enabled bool) Option {
	return func(c *Connector) {
		c.insecureSkipVerify = enabled
	}
}

// WithKeyLog writes pre-master secrets to w in NSS key log format.
func WithKeyLog(w io.Writer) Option {
	return func(c *Connector) {
		c.keyLog = w
	}
}

// WithSNI controls whether the server name is sent in the handshake.
func WithSNI(enabled bool) Option {
	return func(c *Connector) {
		c.sni = enabled
	}
}

// WithALPNProtos sets the application protocols to offer, in preference order.
func WithALPNProtos(protos ...string) Option {
	return func(c *Connector) {
		c.alpnProtos = protos
	}
}

type Option func(*Connector)

// Connector performs TLS client handshakes with a fixed configuration.
// Safe for concurrent use.
type Connector struct {
	minVersion uint16
	maxVersion uint16

	rootCAs  *x509.CertPool
	identity *tls.Certificate

	insecureSkipVerify bool
	keyLog             io.Writer
	sni                bool
	alpnProtos         []string
}

// Connect upgrades conn to TLS when the destination scheme requires it,
// returning a tagged maybe-TLS stream.
func (c *Connector) Connect(ctx context.Context, conn net.Conn, dst *url.URL) (*MaybeTLS, error) {
	if dst.Scheme != "https" {
		return &MaybeTLS{Conn: conn}, nil
	}

	stream, err := c.Handshake(ctx, conn, dst.Hostname())
	if err != nil {
		return nil, err
	}
	return &MaybeTLS{Conn: stream, tls: stream}, nil
}

// Handshake performs a TLS client handshake over conn, verifying the server
// as serverName. On failure the connection is closed.
func (c *Connector) Handshake(ctx context.Context, conn net.Conn, serverName string) (*Stream, error) {
	tlsConn := tls.Client(conn, c.config(serverName))
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("TLS handshake with %v: %w", serverName, err)
	}
	return &Stream{tlsConn}, nil
}

func (c *Connector) config(serverName string) *tls.Config {
	cfg := tls.Config{
		MinVersion: c.minVersion,
		MaxVersion: c.maxVersion,

		RootCAs:            c.rootCAs,
		InsecureSkipVerify: c.insecureSkipVerify,
		KeyLogWriter:       c.keyLog,
		NextProtos:         c.alpnProtos,
	}

	if c.sni {
		cfg.ServerName = serverName
	}
	if c.identity != nil {
		cfg.Certificates = []tls.Certificate{*c.identity}
	}
	return &cfg
}

// Stream is an established TLS connection.
type Stream struct {
	*tls.Conn
}

// TLSInfo returns the DER-encoded certificate presented by the peer, if any.
func (s *Stream) TLSInfo() *Info {
	state := s.ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return nil
	}
	return &Info{PeerCertificate: state.PeerCertificates[0].Raw}
}

// NegotiatedProtocol returns the application protocol selected via ALPN.
func (s *Stream) NegotiatedProtocol() string {
	return s.ConnectionState().NegotiatedProtocol
}

// Info carries TLS details of an established connection.
type Info struct {
	// PeerCertificate is the DER-encoded leaf certificate of the peer.
	PeerCertificate []byte
}

// MaybeTLS is a stream that may or may not have been upgraded to TLS,
// depending on the destination scheme.
type MaybeTLS struct {
	net.Conn

	tls *Stream
}

// TLS returns the TLS stream, or nil if the connection is plaintext.
func (m *MaybeTLS) TLS() *Stream {
	return m.tls
}

// TLSInfo returns TLS details of the underlying stream, or nil for plaintext.
func (m *MaybeTLS) TLSInfo() *Info {
	if m.tls == nil {
		return nil
	}
	return m.tls.TLSInfo()
}

// NegotiatedProtocol returns the protocol selected via ALPN, or an empty
// string for plaintext connections.
func (m *MaybeTLS) NegotiatedProtocol() string {
	if m.tls == nil {
		return ""
	}
	return m.tls.NegotiatedProtocol()
}

// Unwrap returns the wrapped stream.
func (m *MaybeTLS) Unwrap() net.Conn {
	return m.Conn
}
