package socks4_test

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/cerfical/httpdial/socks4"
	"github.com/stretchr/testify/suite"
)

func TestReply(t *testing.T) {
	suite.Run(t, new(ReplyTest))
}

type ReplyTest struct {
	suite.Suite
}

func (t *ReplyTest) TestRead() {
	t.Run("decodes a granted reply with a bind address", func() {
		reply, err := decodeReply([]byte{0, 0x5a, 0x04, 0x38, 127, 0, 0, 1})
		t.Require().NoError(err)

		t.Equal(socks4.StatusGranted, reply.Status)
		t.Equal("127.0.0.1", reply.BindHost)
		t.Equal(uint16(1080), reply.BindPort)
	})

	t.Run("decodes a rejected reply", func() {
		reply, err := decodeReply([]byte{0, 0x5b, 0, 0, 0, 0, 0, 0})
		t.Require().NoError(err)

		t.Equal(socks4.StatusRejected, reply.Status)
	})

	t.Run("rejects an invalid version", func() {
		_, err := decodeReply([]byte{4, 0x5a, 0, 0, 0, 0, 0, 0})
		t.ErrorIs(err, socks4.ErrInvalidVersion)
	})

	t.Run("rejects a truncated reply", func() {
		_, err := decodeReply([]byte{0, 0x5a, 0x04})
		t.Error(err)
	})
}

func decodeReply(b []byte) (*socks4.Reply, error) {
	return socks4.ReadReply(bufio.NewReader(bytes.NewReader(b)))
}
