// Package tunnel negotiates HTTP CONNECT tunnels over established proxy connections.
package tunnel

import (
	"bufio"
	"context"
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

func NewClient(ops ...Option) *Client {
	var c Client
	for _, op := range ops {
		op(&c)
	}
	return &c
}

// WithBasicAuth attaches a Proxy-Authorization header with Basic credentials
// to every CONNECT request.
func WithBasicAuth(user, password string) Option {
	return func(c *Client) {
		c.user = user
		c.password = password
		c.hasAuth = true
	}
}

// WithHeaders attaches extra headers to every CONNECT request.
func WithHeaders(h http.Header) Option {
	return func(c *Client) {
		c.headers = h
	}
}

type Option func(*Client)

// Client requests proxy servers to open tunnels to destination hosts.
type Client struct {
	user     string
	password string
	hasAuth  bool

	headers http.Header
}

// Connect asks the proxy on the other end of proxyConn to open a tunnel to
// host:port. On success the connection carries an opaque byte stream to the
// destination.
func (c *Client) Connect(ctx context.Context, proxyConn net.Conn, host string, port uint16) error {
	if deadline, ok := ctx.Deadline(); ok {
		if err := proxyConn.SetDeadline(deadline); err != nil {
			return fmt.Errorf("set connection deadline: %w", err)
		}
		defer proxyConn.SetDeadline(time.Time{})
	}

	hostPort := net.JoinHostPort(host, strconv.Itoa(int(port)))
	connReq := http.Request{
		Method: http.MethodConnect,
		URL:    &url.URL{Opaque: hostPort},
		Host:   hostPort,
		Header: make(http.Header),
	}
	for k, v := range c.headers {
		connReq.Header[k] = v
	}
	if c.hasAuth {
		auth := base64.StdEncoding.EncodeToString([]byte(c.user + ":" + c.password))
		connReq.Header.Set("Proxy-Authorization", "Basic "+auth)
	}

	if err := connReq.Write(proxyConn); err != nil {
		return fmt.Errorf("send HTTP CONNECT request: %w", err)
	}

	resp, err := http.ReadResponse(bufio.NewReader(proxyConn), &connReq)
	if err != nil {
		return fmt.Errorf("parse HTTP CONNECT response: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		code, msg := resp.StatusCode, http.StatusText(resp.StatusCode)
		return fmt.Errorf("unexpected HTTP CONNECT response: %v %v", code, msg)
	}

	return nil
}
