package proxy

import (
	"fmt"
	"net"
	"net/url"
	"slices"
	"strings"
)

var schemes = []string{"http", "https", "socks4", "socks4a", "socks5", "socks5h"}

// ParseProxyURL parses a proxy URL, allowing the shorthand forms "host" and
// "host:port". A missing scheme defaults to http, a missing port to the
// default port of the scheme.
func ParseProxyURL(s string) (*url.URL, error) {
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if !slices.Contains(schemes, u.Scheme) {
		return nil, fmt.Errorf("unsupported proxy scheme: %v", u.Scheme)
	}

	if u.Hostname() == "" {
		return nil, fmt.Errorf("proxy URL has no host: %v", s)
	}

	if u.Port() == "" {
		u.Host = net.JoinHostPort(u.Hostname(), defaultPort(u.Scheme))
	}
	return u, nil
}

func defaultPort(scheme string) string {
	switch scheme {
	case "https":
		return "443"
	case "socks4", "socks4a", "socks5", "socks5h":
		return "1080"
	default:
		return "80"
	}
}
