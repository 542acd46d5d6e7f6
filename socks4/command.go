package socks4

const (
	CommandConnect Command = 0x01
	CommandBind    Command = 0x02
)

var commands = map[Command]string{
	CommandConnect: "CONNECT",
	CommandBind:    "BIND",
}

type Command byte

func (c Command) String() string {
	if str, ok := commands[c]; ok {
		return str
	}
	return hexByte(c).String()
}
