package socks5

import (
	"bufio"
	"fmt"
	"io"
)

const (
	AuthNone             AuthMethod = 0x00
	AuthUsernamePassword AuthMethod = 0x02

	AuthNotAcceptable AuthMethod = 0xff
)

var authText = map[AuthMethod]string{
	AuthNone:             "None",
	AuthUsernamePassword: "Username/Password",

	AuthNotAcceptable: "No Acceptable Authentication",
}

type AuthMethod byte

func (a AuthMethod) String() string {
	if str, ok := authText[a]; ok {
		return str
	}
	return hexByte(a).String()
}

// UsernamePassword is the username/password subnegotiation of RFC 1929.
type UsernamePassword struct {
	Username string
	Password string
}

func (a *UsernamePassword) Write(w io.Writer) error {
	if len(a.Username) > 255 || len(a.Password) > 255 {
		return ErrCredentialsTooLong
	}

	bytes := []byte{AuthVersionCode, byte(len(a.Username))}
	bytes = append(bytes, []byte(a.Username)...)
	bytes = append(bytes, byte(len(a.Password)))
	bytes = append(bytes, []byte(a.Password)...)

	_, err := w.Write(bytes)
	return err
}

// ReadAuthReply decodes the status of a username/password subnegotiation.
// A non-zero status means the credentials were rejected.
func ReadAuthReply(r *bufio.Reader) (byte, error) {
	if err := checkVersion(r, AuthVersionCode); err != nil {
		return 0, fmt.Errorf("decode version: %w", err)
	}
	return r.ReadByte()
}
