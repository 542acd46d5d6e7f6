package proxy_test

import (
	"testing"

	"github.com/cerfical/httpdial/proxy"
	"github.com/stretchr/testify/suite"
	"golang.org/x/net/http/httpproxy"
)

func TestFromEnvironment(t *testing.T) {
	suite.Run(t, new(FromEnvironmentTest))
}

type FromEnvironmentTest struct {
	suite.Suite
}

func (t *FromEnvironmentTest) TestIntercept() {
	cfg := &httpproxy.Config{
		HTTPProxy:  "http://plain-proxy.test:8080",
		HTTPSProxy: "http://tls-proxy.test:8080",
		NoProxy:    "internal.test",
	}
	matcher := proxy.FromEnvironmentConfig(cfg)

	t.Run("routes plaintext destinations through the http proxy", func() {
		p := matcher.Intercept(mustParseURL(t.T(), "http://example.test/"))

		t.Require().NotNil(p)
		t.Equal("plain-proxy.test:8080", p.URL().Host)
	})

	t.Run("routes encrypted destinations through the https proxy", func() {
		p := matcher.Intercept(mustParseURL(t.T(), "https://example.test/"))

		t.Require().NotNil(p)
		t.Equal("tls-proxy.test:8080", p.URL().Host)
	})

	t.Run("produces no decision for no-proxy destinations", func() {
		p := matcher.Intercept(mustParseURL(t.T(), "https://internal.test/"))
		t.Nil(p)
	})
}
