// Package config loads settings for the connection probe tool from
// command-line flags and an optional configuration file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cerfical/httpdial/log"
	"github.com/cerfical/httpdial/proxy"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func Load(args []string) *Config {
	progName := getProgramName(args)

	flags := pflag.NewFlagSet(progName, pflag.ContinueOnError)
	flags.Usage = func() {
		fmt.Printf("Usage:\n")
		fmt.Printf("  %v [options] <url>...\n\n", progName)
		fmt.Printf("Options:\n")
		flags.PrintDefaults()
	}
	if err := parseFlags(flags, args); err != nil {
		printErrorAndExit(flags, err)
	}

	rawConfig, err := parseRawConfig(flags)
	if err != nil {
		printErrorAndExit(flags, err)
	}

	config := rawConfig.ToConfig()
	config.Dsts = flags.Args()
	return config
}

func printErrorAndExit(f *pflag.FlagSet, err error) {
	fmt.Printf("Error: %v\n\n", err)
	f.Usage()
	os.Exit(1)
}

func parseRawConfig(f *pflag.FlagSet) (*rawConfig, error) {
	v := viper.New()

	// Bind command-line flags to their corresponding values from config file
	configNames := []string{"proxy", "log.level", "timeout", "tls.insecure", "tls.info", "verbose"}
	for _, name := range configNames {
		kebabCasedName := strings.ReplaceAll(name, ".", "-")
		if err := v.BindPFlag(name, f.Lookup(kebabCasedName)); err != nil {
			panic(fmt.Errorf("bind flag: %w", err))
		}
	}

	if configFile := f.Lookup("config-file").Value.String(); configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("load configuration: %w", err)
		}
	}

	options := []viper.DecoderConfigOption{
		viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
		)),

		func(c *mapstructure.DecoderConfig) {
			c.IgnoreUntaggedFields = true
		},
	}

	var config rawConfig
	if err := v.UnmarshalExact(&config, options...); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}
	return &config, nil
}

func parseFlags(f *pflag.FlagSet, args []string) error {
	// Flags shared with options from a configuration file
	f.Var(&proxyURLValue{}, "proxy", "``proxy URL to route connections through")

	logLevel := logLevelValue(log.Info)
	f.Var(&logLevel, "log-level", "``severity level of logging messages")

	f.Duration("timeout", 0, "``wait duration for a connection to establish")
	f.Bool("tls-insecure", false, "``skip TLS certificate verification")
	f.Bool("tls-info", false, "``report the peer certificate of established connections")
	f.Bool("verbose", false, "``trace all connection I/O")

	help := f.Bool("help", false, "``display help message")
	f.String("config-file", "", "``configuration file")

	if err := f.Parse(args[1:]); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	if *help {
		f.Usage()
		os.Exit(2)
	}
	return nil
}

func getProgramName(args []string) string {
	progPath := args[0]
	return strings.TrimSuffix(
		filepath.Base(progPath),
		filepath.Ext(progPath),
	)
}

// Config defines configurable settings of the probe tool.
type Config struct {
	// Dsts are the destination URLs to probe.
	Dsts []string

	// Proxy routes all connections through a single proxy.
	Proxy *url.URL

	// Routes intercept connections to specific hosts.
	Routes []proxy.Rule

	TLS struct {
		Insecure bool
		Info     bool
	}

	Log struct {
		Level log.Level
	}

	Timeout time.Duration
	Verbose bool
}

type rawConfig struct {
	Proxy  proxyURLValue `mapstructure:"proxy"`
	Routes []struct {
		Hosts    []string      `mapstructure:"hosts"`
		NoProxy  []string      `mapstructure:"no_proxy"`
		Proxy    proxyURLValue `mapstructure:"proxy"`
		User     string        `mapstructure:"user"`
		Password string        `mapstructure:"password"`
	} `mapstructure:"routes"`

	TLS struct {
		Insecure bool `mapstructure:"insecure"`
		Info     bool `mapstructure:"info"`
	} `mapstructure:"tls"`

	Log struct {
		Level logLevelValue `mapstructure:"level"`
	} `mapstructure:"log"`

	Timeout time.Duration `mapstructure:"timeout"`
	Verbose bool          `mapstructure:"verbose"`
}

func (c *rawConfig) ToConfig() *Config {
	var config Config

	config.Proxy = c.Proxy.url
	config.TLS.Insecure = c.TLS.Insecure
	config.TLS.Info = c.TLS.Info
	config.Log.Level = log.Level(c.Log.Level)
	config.Timeout = c.Timeout
	config.Verbose = c.Verbose

	for _, r := range c.Routes {
		route := proxy.Rule{
			Hosts:    r.Hosts,
			NoProxy:  r.NoProxy,
			Proxy:    r.Proxy.url,
			User:     r.User,
			Password: r.Password,
		}
		config.Routes = append(config.Routes, route)
	}

	return &config
}

type proxyURLValue struct {
	url *url.URL
}

func (v *proxyURLValue) Set(s string) error {
	if s == "" {
		v.url = nil
		return nil
	}

	u, err := proxy.ParseProxyURL(s)
	if err != nil {
		return err
	}
	v.url = u
	return nil
}

func (v *proxyURLValue) UnmarshalText(text []byte) error {
	return v.Set(string(text))
}

func (v *proxyURLValue) String() string {
	if v.url == nil {
		return ""
	}
	return v.url.String()
}

func (v *proxyURLValue) Type() string {
	return ""
}

type logLevelValue log.Level

func (v *logLevelValue) Set(s string) error {
	return (*log.Level)(v).UnmarshalText([]byte(s))
}

func (v *logLevelValue) UnmarshalText(text []byte) error {
	return v.Set(string(text))
}

func (v *logLevelValue) String() string {
	return (*log.Level)(v).String()
}

func (v *logLevelValue) Type() string {
	return ""
}
