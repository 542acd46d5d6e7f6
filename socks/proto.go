package socks

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	ProtoSOCKS4 Proto = iota + 1
	ProtoSOCKS4a
	ProtoSOCKS5
	ProtoSOCKS5h
)

const (
	protoMin = ProtoSOCKS4
	protoMax = ProtoSOCKS5h
)

var protos = []string{
	ProtoSOCKS4:  "socks4",
	ProtoSOCKS4a: "socks4a",
	ProtoSOCKS5:  "socks5",
	ProtoSOCKS5h: "socks5h",
}

// ParseProto decodes a SOCKS protocol variant from a URL scheme.
func ParseProto(scheme string) (Proto, error) {
	// protos is sparse: index 0 holds the empty string and is not a variant.
	i := slices.Index(protos, strings.ToLower(scheme))
	if i < int(protoMin) {
		return 0, errors.New("unknown SOCKS protocol")
	}
	return Proto(i), nil
}

// Proto is a variant of the SOCKS protocol.
type Proto int

// ResolvesLocally reports whether the variant requires client-side name
// resolution (SOCKS4 and SOCKS5), as opposed to resolution by the proxy
// (SOCKS4a and SOCKS5h).
func (p Proto) ResolvesLocally() bool {
	return p == ProtoSOCKS4 || p == ProtoSOCKS5
}

func (p Proto) String() string {
	if p >= protoMin && p <= protoMax {
		return protos[p]
	}
	return fmt.Sprintf("<unknown: %#02x>", int(p))
}
