package httpdial

import (
	"context"
	"errors"
	"fmt"
)

// ErrTimeout is reported when a connection attempt did not complete within
// the configured timeout.
var ErrTimeout = errors.New("connection attempt timed out")

const (
	// KindTransport covers address resolution and socket connect failures.
	KindTransport ErrorKind = iota + 1

	// KindTLS covers TLS handshake and certificate verification failures.
	KindTLS

	// KindTunnel covers rejected CONNECT requests and failed SOCKS negotiations.
	KindTunnel

	// KindBadDst marks a malformed destination, such as a missing host.
	// Attempts failing this way are not worth retrying.
	KindBadDst

	// KindTimeout marks an attempt abandoned due to the configured timeout.
	KindTimeout
)

var errorKinds = map[ErrorKind]string{
	KindTransport: "transport",
	KindTLS:       "tls handshake",
	KindTunnel:    "proxy tunnel",
	KindBadDst:    "malformed destination",
	KindTimeout:   "timeout",
}

// ErrorKind classifies connection attempt failures.
type ErrorKind int

func (k ErrorKind) String() string {
	if s, ok := errorKinds[k]; ok {
		return s
	}
	return fmt.Sprintf("<unknown: %#02x>", int(k))
}

// Error is the single error shape produced by failed connection attempts,
// regardless of which stage of the attempt failed.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Timeout reports whether the attempt was abandoned due to a timeout.
func (e *Error) Timeout() bool {
	return e.Kind == KindTimeout
}

func newError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// classifyError boxes err into an [Error], unless it already is one. Context
// expiration maps to [ErrTimeout] so that callers can tell abandoned attempts
// apart from transport failures.
func classifyError(err error) error {
	var connErr *Error
	if errors.As(err, &connErr) {
		if errors.Is(err, context.DeadlineExceeded) {
			return newError(KindTimeout, ErrTimeout)
		}
		return connErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return newError(KindTimeout, ErrTimeout)
	}
	return newError(KindTransport, err)
}
