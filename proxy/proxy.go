// Package proxy decides whether a connection attempt is intercepted by a proxy.
package proxy

import (
	"net/http"
	"net/url"
	"slices"
	"strings"
)

// Matcher produces at most one proxy decision for a destination.
type Matcher interface {
	// Intercept returns a proxy decision for the destination, or nil for a direct connection.
	Intercept(dst *url.URL) *Intercepted
}

type MatcherFunc func(*url.URL) *Intercepted

func (f MatcherFunc) Intercept(dst *url.URL) *Intercepted {
	return f(dst)
}

func NewIntercepted(proxyURL *url.URL, ops ...InterceptedOption) *Intercepted {
	p := Intercepted{url: proxyURL}

	// Credentials embedded in the proxy URL are the default
	if proxyURL != nil && proxyURL.User != nil {
		user := proxyURL.User
		p.user = user.Username()
		p.password, _ = user.Password()
		p.hasAuth = true
	}

	for _, op := range ops {
		op(&p)
	}
	return &p
}

func WithBasicAuth(user, password string) InterceptedOption {
	return func(p *Intercepted) {
		p.user = user
		p.password = password
		p.hasAuth = true
	}
}

func WithHeaders(h http.Header) InterceptedOption {
	return func(p *Intercepted) {
		p.headers = h
	}
}

type InterceptedOption func(*Intercepted)

// Intercepted is the outcome of proxy matching for a single connection attempt.
type Intercepted struct {
	url      *url.URL
	user     string
	password string
	hasAuth  bool
	headers  http.Header
}

func (p *Intercepted) URL() *url.URL {
	return p.url
}

// BasicAuth returns credentials to present in a Proxy-Authorization header.
func (p *Intercepted) BasicAuth() (user, password string, ok bool) {
	return p.user, p.password, p.hasAuth
}

// RawAuth returns credentials for tunnel protocols with protocol-native
// authentication, such as SOCKS5 username/password.
func (p *Intercepted) RawAuth() (user, password string, ok bool) {
	return p.user, p.password, p.hasAuth
}

// Headers returns extra headers to send with a CONNECT request, if any.
func (p *Intercepted) Headers() http.Header {
	return p.headers
}

// A Rule routes destinations with matching hosts through a proxy.
type Rule struct {
	// Hosts restricts the rule to destinations whose host contains one of the
	// patterns. An empty list matches every destination.
	Hosts []string

	// NoProxy lists host patterns excluded from interception.
	NoProxy []string

	// Proxy is the URL of the proxy to route matched destinations through.
	Proxy *url.URL

	// User and Password authenticate the client to the proxy.
	User     string
	Password string

	// Headers are extra headers to send with a CONNECT request.
	Headers http.Header
}

func (r *Rule) matches(host string) bool {
	contains := func(pattern string) bool {
		return strings.Contains(host, pattern)
	}

	if slices.ContainsFunc(r.NoProxy, contains) {
		return false
	}
	return len(r.Hosts) == 0 || slices.ContainsFunc(r.Hosts, contains)
}

func NewRules(rules ...Rule) *Rules {
	return &Rules{rules}
}

// Rules is an ordered rule set evaluated first-match-wins.
type Rules struct {
	rules []Rule
}

func (r *Rules) Intercept(dst *url.URL) *Intercepted {
	host := dst.Hostname()

	i := slices.IndexFunc(r.rules, func(r Rule) bool {
		return r.matches(host)
	})
	if i == -1 {
		return nil
	}

	rule := &r.rules[i]
	if rule.Proxy == nil {
		// A matched rule with no proxy bypasses interception entirely.
		return nil
	}

	var ops []InterceptedOption
	if rule.User != "" {
		ops = append(ops, WithBasicAuth(rule.User, rule.Password))
	}
	if rule.Headers != nil {
		ops = append(ops, WithHeaders(rule.Headers))
	}
	return NewIntercepted(rule.Proxy, ops...)
}
