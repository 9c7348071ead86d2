package session

import "time"

// State is the state of the connection of a session
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnecting:
		return "Connecting"
	case StateReady:
		return "Ready"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Connection is a snapshot of the logical link to the store
type Connection struct {
	State     State
	LastErr   error // the error of the last failed transition, nil once Ready
	CreatedAt time.Time
}

// Observer is notified about every state transition of a session.
// err is set when the transition was caused by a failure.
type Observer func(from, to State, err error)

// stateChange is a transition recorded under the session lock and delivered to observers after it was released
type stateChange struct {
	from, to  State
	err       error
	observers []Observer
}

func (c *stateChange) notify() {
	if c == nil {
		return
	}
	for _, obs := range c.observers {
		obs(c.from, c.to, c.err)
	}
}
