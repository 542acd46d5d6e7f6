package socks4

const (
	StatusGranted       Status = 0x5a
	StatusRejected      Status = 0x5b
	StatusNoIdentd      Status = 0x5c
	StatusInvalidUserID Status = 0x5d
)

var statusText = map[Status]string{
	StatusGranted:       "Request Granted",
	StatusRejected:      "Request Rejected",
	StatusNoIdentd:      "Identd Unreachable",
	StatusInvalidUserID: "Identd Mismatch",
}

type Status byte

func (s Status) String() string {
	if str, ok := statusText[s]; ok {
		return str
	}
	return hexByte(s).String()
}
