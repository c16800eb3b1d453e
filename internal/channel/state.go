package channel

type State int

const (
	Idle State = iota
	Connecting
	Open
	Closed
	Errored
	Disabled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closed:
		return "closed"
	case Errored:
		return "errored"
	case Disabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// canReconnect reports whether a visibility change may force a new attempt.
func (s State) canReconnect() bool {
	return s == Closed || s == Errored
}
