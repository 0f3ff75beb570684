package ws

// State is the explicit lifecycle of a realtime channel. Transitions
// are validated against the table below so the lifecycle can be tested
// without a live connection.
type State int

const (
	Disconnected State = iota
	Connecting
	Open
	Subscribed
	Closed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case Connecting:
		return "Connecting"
	case Open:
		return "Open"
	case Subscribed:
		return "Subscribed"
	case Closed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// transitions lists the legal next states. Closed -> Connecting is the
// reconnect edge, taken only while the owning view stays mounted.
var transitions = map[State][]State{
	Disconnected: {Connecting, Closed},
	Connecting:   {Open, Closed},
	Open:         {Subscribed, Closed},
	Subscribed:   {Closed},
	Closed:       {Connecting},
}

func canTransition(from, to State) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
