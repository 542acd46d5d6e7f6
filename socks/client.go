// Package socks establishes tunnels through SOCKS4, SOCKS4a, SOCKS5 and SOCKS5h proxies.
package socks

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/cerfical/httpdial/socks4"
	"github.com/cerfical/httpdial/socks5"
)

// Resolver resolves hostnames for SOCKS variants with client-side name
// resolution. Satisfied by [net.Resolver].
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// Client negotiates a tunnel to a destination over an established proxy connection.
type Client struct {
	// Proto selects the protocol variant to speak.
	Proto Proto

	// User and Password authenticate the client to the proxy.
	// SOCKS4 and SOCKS4a use only the user as the identd user ID.
	User     string
	Password string

	// Resolver resolves destination hostnames for SOCKS4 and SOCKS5.
	// If nil, [net.DefaultResolver] is used.
	Resolver Resolver
}

// Connect negotiates a tunnel to dstHost:dstPort over proxyConn. On success
// the connection is positioned at the start of the application byte stream.
func (c *Client) Connect(ctx context.Context, proxyConn net.Conn, dstHost string, dstPort uint16) error {
	if deadline, ok := ctx.Deadline(); ok {
		if err := proxyConn.SetDeadline(deadline); err != nil {
			return fmt.Errorf("set negotiation deadline: %w", err)
		}
		defer proxyConn.SetDeadline(time.Time{})
	}

	if c.Proto.ResolvesLocally() {
		host, err := c.resolve(ctx, dstHost)
		if err != nil {
			return fmt.Errorf("resolve destination: %w", err)
		}
		dstHost = host
	}

	switch c.Proto {
	case ProtoSOCKS4, ProtoSOCKS4a:
		return c.connect4(proxyConn, dstHost, dstPort)
	case ProtoSOCKS5, ProtoSOCKS5h:
		return c.connect5(proxyConn, dstHost, dstPort)
	default:
		return fmt.Errorf("unsupported protocol: %v", c.Proto)
	}
}

func (c *Client) resolve(ctx context.Context, host string) (string, error) {
	if net.ParseIP(host) != nil {
		return host, nil
	}

	resolver := c.Resolver
	if resolver == nil {
		resolver = net.DefaultResolver
	}

	addrs, err := resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return "", err
	}

	// SOCKS4 carries only IPv4 addresses
	for _, a := range addrs {
		if c.Proto != ProtoSOCKS4 || a.IP.To4() != nil {
			return a.IP.String(), nil
		}
	}
	return "", fmt.Errorf("no suitable addresses for %v", host)
}

func (c *Client) connect4(proxyConn net.Conn, dstHost string, dstPort uint16) error {
	connReq := socks4.Request{
		Command: socks4.CommandConnect,
		DstHost: dstHost,
		DstPort: dstPort,
		UserID:  c.User,
	}
	if err := connReq.Write(proxyConn); err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	reply, err := socks4.ReadReply(bufio.NewReader(proxyConn))
	if err != nil {
		return fmt.Errorf("decode reply: %w", err)
	}

	if reply.Status != socks4.StatusGranted {
		return fmt.Errorf("connection rejected: %v", reply.Status)
	}
	return nil
}

func (c *Client) connect5(proxyConn net.Conn, dstHost string, dstPort uint16) error {
	proxyRead := bufio.NewReader(proxyConn)
	if err := c.auth5(proxyConn, proxyRead); err != nil {
		return err
	}

	connReq := socks5.Request{
		Command: socks5.CommandConnect,
		DstHost: dstHost,
		DstPort: dstPort,
	}
	if err := connReq.Write(proxyConn); err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	reply, err := socks5.ReadReply(proxyRead)
	if err != nil {
		return fmt.Errorf("decode reply: %w", err)
	}

	if reply.Status != socks5.StatusOK {
		return fmt.Errorf("connection rejected: %v", reply.Status)
	}
	return nil
}

func (c *Client) auth5(proxyConn net.Conn, proxyRead *bufio.Reader) error {
	greet := socks5.Greeting{
		AuthMethods: []socks5.AuthMethod{socks5.AuthNone},
	}
	if c.User != "" {
		greet.AuthMethods = append(greet.AuthMethods, socks5.AuthUsernamePassword)
	}
	if err := greet.Write(proxyConn); err != nil {
		return fmt.Errorf("encode greeting: %w", err)
	}

	greetReply, err := socks5.ReadGreetingReply(proxyRead)
	if err != nil {
		return fmt.Errorf("decode greeting reply: %w", err)
	}

	switch greetReply.AuthMethod {
	case socks5.AuthNone:
		return nil
	case socks5.AuthUsernamePassword:
		if c.User == "" {
			return errors.New("proxy requires credentials, but none were configured")
		}

		auth := socks5.UsernamePassword{
			Username: c.User,
			Password: c.Password,
		}
		if err := auth.Write(proxyConn); err != nil {
			return fmt.Errorf("encode credentials: %w", err)
		}

		status, err := socks5.ReadAuthReply(proxyRead)
		if err != nil {
			return fmt.Errorf("decode auth reply: %w", err)
		}
		if status != 0 {
			return errors.New("credentials rejected")
		}
		return nil
	case socks5.AuthNotAcceptable:
		return errors.New("no acceptable auth method was selected")
	default:
		return fmt.Errorf("unsupported auth method: %v", greetReply.AuthMethod)
	}
}
