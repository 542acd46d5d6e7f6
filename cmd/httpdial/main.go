// httpdial is a connection probe: it establishes a connection to each of the
// destination URLs, honoring the configured proxy routes, and reports how the
// connection was made.
package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/cerfical/httpdial"
	"github.com/cerfical/httpdial/config"
	"github.com/cerfical/httpdial/log"
	"github.com/cerfical/httpdial/proxy"
	"github.com/cerfical/httpdial/tlsdial"
)

func main() {
	config := config.Load(os.Args)
	log := log.New(log.WithLevel(config.Log.Level))

	if len(config.Dsts) == 0 {
		log.Fatal("No destinations to probe", nil)
	}

	rules := config.Routes
	if config.Proxy != nil {
		// The single-proxy option acts as a catch-all route
		rules = append(rules, proxy.Rule{Proxy: config.Proxy})
	}

	proxies := proxy.Matcher(proxy.NewRules(rules...))
	if len(rules) == 0 {
		proxies = proxy.FromEnvironment()
	}

	connector := httpdial.New(
		httpdial.WithProxy(proxies),
		httpdial.WithConnectTimeout(config.Timeout),
		httpdial.WithTLSOptions(tlsdial.WithInsecureSkipVerify(config.TLS.Insecure)),
		httpdial.WithTLSInfo(config.TLS.Info),
		httpdial.WithVerbose(config.Verbose),
		httpdial.WithLog(log),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		log.Info("Aborting", nil)
		cancel()
	}()

	for _, dst := range config.Dsts {
		probe(ctx, connector, dst, log)
	}
}

func probe(ctx context.Context, connector *httpdial.Connector, dst string, log *log.Logger) {
	u, err := url.Parse(dst)
	if err != nil {
		log.Error(fmt.Sprintf("Invalid destination %v", dst), err)
		return
	}

	conn, err := connector.DialURL(ctx, u)
	if err != nil {
		log.Error(fmt.Sprintf("Failed to connect to %v", dst), err)
		return
	}
	defer conn.Close()

	connected := conn.Connected()
	log.Info("Connected", logFields(dst, connected))
}

func logFields(dst string, connected *httpdial.Connected) log.Fields {
	fields := log.Fields{
		"dst":    dst,
		"remote": connected.RemoteAddr,
		"proxy":  connected.Proxy,
		"h2":     connected.NegotiatedH2,
	}
	if connected.TLS != nil {
		fields["peer_cert_der_len"] = len(connected.TLS.PeerCertificate)
	}
	return fields
}
