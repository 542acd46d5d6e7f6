package socks4_test

import (
	"bytes"
	"testing"

	"github.com/cerfical/httpdial/socks4"
	"github.com/stretchr/testify/suite"
)

func TestRequest(t *testing.T) {
	suite.Run(t, new(RequestTest))
}

type RequestTest struct {
	suite.Suite
}

func (t *RequestTest) TestWrite() {
	tests := map[string]struct {
		request socks4.Request
		want    []byte
		err     error
	}{
		"encodes an IPv4 destination": {
			request: socks4.Request{
				Command: socks4.CommandConnect,
				DstHost: "127.0.0.1",
				DstPort: 1080,
			},
			want: []byte{4, 1, 0x04, 0x38, 127, 0, 0, 1, 0},
		},

		"encodes a hostname destination as 0.0.0.1 followed by the hostname": {
			request: socks4.Request{
				Command: socks4.CommandConnect,
				DstHost: "localhost",
				DstPort: 1080,
			},
			want: append(append([]byte{4, 1, 0x04, 0x38, 0, 0, 0, 1, 0}, []byte("localhost")...), 0),
		},

		"encodes a user ID terminated by a null byte": {
			request: socks4.Request{
				Command: socks4.CommandConnect,
				DstHost: "127.0.0.1",
				DstPort: 1080,
				UserID:  "root",
			},
			want: []byte{4, 1, 0x04, 0x38, 127, 0, 0, 1, 'r', 'o', 'o', 't', 0},
		},

		"rejects IPv6 destinations": {
			request: socks4.Request{
				Command: socks4.CommandConnect,
				DstHost: "::1",
				DstPort: 1080,
			},
			err: socks4.ErrNotIPv4,
		},
	}

	for name, test := range tests {
		t.Run(name, func() {
			var buf bytes.Buffer
			err := test.request.Write(&buf)

			if test.err != nil {
				t.ErrorIs(err, test.err)
			} else {
				t.Require().NoError(err)
				t.Equal(test.want, buf.Bytes())
			}
		})
	}
}
