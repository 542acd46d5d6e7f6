package config_test

import (
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/cerfical/httpdial/config"
	"github.com/cerfical/httpdial/log"

	"github.com/stretchr/testify/suite"
)

func TestConfig(t *testing.T) {
	suite.Run(t, new(ConfigTest))
}

type ConfigTest struct {
	suite.Suite
}

func (t *ConfigTest) TestLoad() {
	flagTests := map[string]struct {
		arg  string
		want func(*config.Config)
	}{
		"proxy": {
			arg: "socks5://localhost:1080",
			want: func(c *config.Config) {
				want := &url.URL{Scheme: "socks5", Host: "localhost:1080"}
				t.Equal(want, c.Proxy)
			},
		},

		"timeout": {
			arg: "12s",
			want: func(c *config.Config) {
				t.Equal(time.Second*12, c.Timeout)
			},
		},

		"log-level": {
			arg: "debug",
			want: func(c *config.Config) {
				t.Equal(log.Debug, c.Log.Level)
			},
		},

		"tls-insecure": {
			arg: "true",
			want: func(c *config.Config) {
				t.True(c.TLS.Insecure)
			},
		},

		"tls-info": {
			arg: "true",
			want: func(c *config.Config) {
				t.True(c.TLS.Info)
			},
		},

		"verbose": {
			arg: "true",
			want: func(c *config.Config) {
				t.True(c.Verbose)
			},
		},
	}

	for flagName, test := range flagTests {
		t.Run(fmt.Sprintf("supports %s flag", flagName), func() {
			config := config.Load([]string{"", fmt.Sprintf("--%s", flagName), test.arg})
			test.want(config)
		})
	}

	t.Run("collects destination URLs from positional arguments", func() {
		config := config.Load([]string{"", "https://example.test/"})
		t.Equal([]string{"https://example.test/"}, config.Dsts)
	})
}
