package socks5

const (
	StatusOK Status = iota
	StatusGeneralFailure
	StatusConnectionNotAllowed
	StatusNetworkUnreachable
	StatusHostUnreachable
	StatusConnectionRefused
	StatusTTLExpired
	StatusCommandNotSupported
	StatusAddrTypeNotSupported
)

var statusText = map[Status]string{
	StatusOK:                   "OK",
	StatusGeneralFailure:       "General Failure",
	StatusConnectionNotAllowed: "Connection Not Allowed",
	StatusNetworkUnreachable:   "Network Unreachable",
	StatusHostUnreachable:      "Host Unreachable",
	StatusConnectionRefused:    "Connection Refused",
	StatusTTLExpired:           "TTL Expired",
	StatusCommandNotSupported:  "Command Not Supported",
	StatusAddrTypeNotSupported: "Address Type Not Supported",
}

type Status byte

func (s Status) String() string {
	if str, ok := statusText[s]; ok {
		return str
	}
	return hexByte(s).String()
}
