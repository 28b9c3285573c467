package core

// ConnStatus is the connection state reported by the session provider.
type ConnStatus int

const (
	StatusIdle ConnStatus = iota
	StatusConnecting
	StatusJoined
	StatusLeft
	StatusReconnecting
)

func (s ConnStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusConnecting:
		return "connecting"
	case StatusJoined:
		return "joined"
	case StatusLeft:
		return "left"
	case StatusReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

func (s ConnStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
