package tunnel_test

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/cerfical/httpdial/tunnel"

	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestClient(t *testing.T) {
	suite.Run(t, new(ClientTest))
}

type ClientTest struct {
	suite.Suite
}

func (t *ClientTest) TestConnect() {
	t.Run("makes a CONNECT request with the destination host", func() {
		proxyConn := t.serveProxy(func(r *http.Request) int {
			t.Equal(http.MethodConnect, r.Method)
			t.Equal("example.com:443", r.Host)
			return http.StatusOK
		})

		err := tunnel.NewClient().
			Connect(context.Background(), proxyConn, "example.com", 443)
		t.NoError(err)
	})

	t.Run("authenticates with Basic credentials if configured", func() {
		proxyConn := t.serveProxy(func(r *http.Request) int {
			// base64("root:1234")
			t.Equal("Basic cm9vdDoxMjM0", r.Header.Get("Proxy-Authorization"))
			return http.StatusOK
		})

		client := tunnel.NewClient(
			tunnel.WithBasicAuth("root", "1234"),
		)

		err := client.Connect(context.Background(), proxyConn, "example.com", 443)
		t.NoError(err)
	})

	t.Run("attaches extra headers to the request", func() {
		proxyConn := t.serveProxy(func(r *http.Request) int {
			t.Equal("curl/8.0", r.Header.Get("User-Agent"))
			return http.StatusOK
		})

		client := tunnel.NewClient(
			tunnel.WithHeaders(http.Header{"User-Agent": {"curl/8.0"}}),
		)

		err := client.Connect(context.Background(), proxyConn, "example.com", 443)
		t.NoError(err)
	})

	t.Run("accepts any 2xx response status", func() {
		proxyConn := t.serveProxy(func(r *http.Request) int {
			return http.StatusAccepted
		})

		err := tunnel.NewClient().
			Connect(context.Background(), proxyConn, "example.com", 443)
		t.NoError(err)
	})

	t.Run("fails if the proxy rejects the request", func() {
		proxyConn := t.serveProxy(func(r *http.Request) int {
			return http.StatusForbidden
		})

		err := tunnel.NewClient().
			Connect(context.Background(), proxyConn, "example.com", 443)
		t.Error(err)
	})

	t.Run("gives up when the context expires", func() {
		clientConn, proxyConn := net.Pipe()
		t.T().Cleanup(func() {
			clientConn.Close()
			proxyConn.Close()
		})

		// Never read the request, so the client blocks on the response.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		defer cancel()

		errs := make(chan error, 1)
		go func() {
			errs <- tunnel.NewClient().
				Connect(ctx, clientConn, "example.com", 443)
		}()
		t.Error(<-errs)
	})
}

func (t *ClientTest) serveProxy(handle func(r *http.Request) int) net.Conn {
	clientConn, proxyConn := net.Pipe()
	t.T().Cleanup(func() {
		clientConn.Close()
		proxyConn.Close()
	})

	go func() {
		r, err := http.ReadRequest(bufio.NewReader(proxyConn))
		if err != nil {
			return
		}

		resp := http.Response{
			ProtoMajor: 1,
			ProtoMinor: 1,
			StatusCode: handle(r),
		}
		resp.Write(proxyConn)
	}()

	return clientConn
}
