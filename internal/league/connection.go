package league

import "fmt"

// ConnectionState describes how far the supervisor got in reaching the
// client's control API.
type ConnectionState int32

const (
	Disconnected ConnectionState = iota
	WaitingForServer
	Connected
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "DISCONNECTED"
	case WaitingForServer:
		return "WAITING_FOR_SERVER"
	case Connected:
		return "CONNECTED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int32(s))
	}
}
