package socks_test

import (
	"bufio"
	"context"
	"io"
	"net"
	"testing"

	"github.com/cerfical/httpdial/socks"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
)

func TestClient(t *testing.T) {
	suite.Run(t, new(ClientTest))
}

type ClientTest struct {
	suite.Suite
}

func (t *ClientTest) TestConnect() {
	tests := map[string]struct {
		client socks.Client
		server func(*serverConn)
		err    string

		wantHost string
	}{
		"negotiates a socks5h tunnel with no authentication": {
			client: socks.Client{Proto: socks.ProtoSOCKS5h},
			server: func(s *serverConn) {
				s.readGreeting()
				s.write(5, 0x00)

				host := s.readRequest()
				s.writeReply(0x00)
				s.gotHost <- host
			},
			wantHost: "example.test",
		},

		"authenticates with username and password when the proxy requires it": {
			client: socks.Client{Proto: socks.ProtoSOCKS5h, User: "user", Password: "pass"},
			server: func(s *serverConn) {
				s.readGreeting()
				s.write(5, 0x02)

				s.readAuth()
				s.write(1, 0x00)

				host := s.readRequest()
				s.writeReply(0x00)
				s.gotHost <- host
			},
			wantHost: "example.test",
		},

		"fails when no acceptable auth method is available": {
			client: socks.Client{Proto: socks.ProtoSOCKS5h},
			server: func(s *serverConn) {
				s.readGreeting()
				s.write(5, 0xff)
			},
			err: "no acceptable auth method",
		},

		"fails when the proxy rejects the credentials": {
			client: socks.Client{Proto: socks.ProtoSOCKS5h, User: "user", Password: "bad"},
			server: func(s *serverConn) {
				s.readGreeting()
				s.write(5, 0x02)

				s.readAuth()
				s.write(1, 0x01)
			},
			err: "credentials rejected",
		},

		"fails when the proxy rejects the connection": {
			client: socks.Client{Proto: socks.ProtoSOCKS5h},
			server: func(s *serverConn) {
				s.readGreeting()
				s.write(5, 0x00)

				s.readRequest()
				s.writeReply(0x05)
			},
			err: "rejected",
		},

		"passes the destination hostname through for socks4a": {
			client: socks.Client{Proto: socks.ProtoSOCKS4a},
			server: func(s *serverConn) {
				host := s.readRequest4()
				s.write(0, 0x5a, 0, 0, 0, 0, 0, 0)
				s.gotHost <- host
			},
			wantHost: "example.test",
		},

		"fails when a socks4 proxy rejects the connection": {
			client: socks.Client{Proto: socks.ProtoSOCKS4a},
			server: func(s *serverConn) {
				s.readRequest4()
				s.write(0, 0x5b, 0, 0, 0, 0, 0, 0)
			},
			err: "rejected",
		},
	}

	for name, test := range tests {
		t.Run(name, func() {
			defer goleak.VerifyNone(t.T())

			clientConn, server := newServerConn(t.T())
			serverDone := make(chan struct{})
			go func() {
				defer close(serverDone)
				test.server(server)
			}()

			err := test.client.Connect(context.Background(), clientConn, "example.test", 80)
			<-serverDone

			if test.err != "" {
				t.ErrorContains(err, test.err)
			} else {
				t.Require().NoError(err)
				t.Equal(test.wantHost, <-server.gotHost)
			}
		})
	}
}

func newServerConn(t *testing.T) (net.Conn, *serverConn) {
	t.Helper()

	clientConn, proxyConn := net.Pipe()
	t.Cleanup(func() {
		clientConn.Close()
		proxyConn.Close()
	})

	return clientConn, &serverConn{
		t:       t,
		conn:    proxyConn,
		r:       bufio.NewReader(proxyConn),
		gotHost: make(chan string, 1),
	}
}

// serverConn scripts the proxy side of a SOCKS exchange.
type serverConn struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader

	gotHost chan string
}

func (s *serverConn) readGreeting() {
	header := s.readN(2)
	s.readN(int(header[1]))
}

func (s *serverConn) readAuth() {
	s.readN(1) // subnegotiation version
	userLen := s.readN(1)[0]
	s.readN(int(userLen))
	passwordLen := s.readN(1)[0]
	s.readN(int(passwordLen))
}

func (s *serverConn) readRequest() (host string) {
	header := s.readN(4)
	switch addrType := header[3]; addrType {
	case 0x01:
		host = net.IP(s.readN(4)).String()
	case 0x04:
		host = net.IP(s.readN(16)).String()
	case 0x03:
		hostLen := s.readN(1)[0]
		host = string(s.readN(int(hostLen)))
	default:
		s.t.Errorf("unexpected address type: %#02x", addrType)
	}
	s.readN(2) // port
	return host
}

func (s *serverConn) readRequest4() (host string) {
	header := s.readN(8)
	s.readLine() // user ID

	ip := net.IP(header[4:8])
	if ip.Equal(net.IPv4(0, 0, 0, 1).To4()) {
		return s.readLine()
	}
	return ip.String()
}

func (s *serverConn) readLine() string {
	line, err := s.r.ReadString(0)
	if err != nil {
		s.t.Errorf("read null-terminated field: %v", err)
		return ""
	}
	return line[:len(line)-1]
}

func (s *serverConn) readN(n int) []byte {
	buf := make([]byte, n)
	if _, err := io.ReadFull(s.r, buf); err != nil {
		s.t.Errorf("read %v bytes: %v", n, err)
	}
	return buf
}

func (s *serverConn) write(b ...byte) {
	if _, err := s.conn.Write(b); err != nil {
		s.t.Errorf("write reply: %v", err)
	}
}

func (s *serverConn) writeReply(status byte) {
	s.write(5, status, 0, 0x01, 0, 0, 0, 0, 0, 0)
}
