package proxy

import (
	"net/url"

	"golang.org/x/net/http/httpproxy"
)

// FromEnvironment matches destinations against the HTTP_PROXY, HTTPS_PROXY
// and NO_PROXY environment variables, with the same semantics as the Go HTTP
// client. The environment is read once, at call time.
func FromEnvironment() Matcher {
	return FromEnvironmentConfig(httpproxy.FromEnvironment())
}

// FromEnvironmentConfig is [FromEnvironment] with an explicit configuration.
func FromEnvironmentConfig(cfg *httpproxy.Config) Matcher {
	proxyForURL := cfg.ProxyFunc()

	return MatcherFunc(func(dst *url.URL) *Intercepted {
		proxyURL, err := proxyForURL(dst)
		if err != nil || proxyURL == nil {
			return nil
		}
		return NewIntercepted(proxyURL)
	})
}
