// Package httpdial establishes connections for HTTP clients, transparently
// handling proxy interception, CONNECT and SOCKS tunnels, and TLS.
package httpdial

import (
	"net/url"
	"strconv"

	"github.com/cerfical/httpdial/proxy"
)

// NewDst makes a destination for a single connection attempt to u.
func NewDst(u *url.URL) *Dst {
	return &Dst{url: u}
}

// Dst describes the destination of a single connection attempt, together
// with an optional pre-resolved proxy decision.
type Dst struct {
	url   *url.URL
	proxy *proxy.Intercepted
}

// URL is the target URI of the attempt.
func (d *Dst) URL() *url.URL {
	return d.url
}

// SetURL overwrites the target URI.
func (d *Dst) SetURL(u *url.URL) {
	d.url = u
}

// SetProxy attaches a pre-resolved proxy decision, bypassing proxy matching
// for this attempt.
func (d *Dst) SetProxy(p *proxy.Intercepted) {
	d.proxy = p
}

// takeProxy removes and returns the pre-resolved proxy decision, if any.
func (d *Dst) takeProxy() *proxy.Intercepted {
	p := d.proxy
	d.proxy = nil
	return p
}

func (d *Dst) host() string {
	return d.url.Hostname()
}

func (d *Dst) port() uint16 {
	return urlPort(d.url)
}

func urlPort(u *url.URL) uint16 {
	if p := u.Port(); p != "" {
		if port, err := strconv.ParseUint(p, 10, 16); err == nil {
			return uint16(port)
		}
	}

	switch u.Scheme {
	case "https":
		return 443
	case "socks4", "socks4a", "socks5", "socks5h":
		return 1080
	}
	return 80
}
