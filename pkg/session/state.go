package session

// State is the lifecycle position of a Guard.
type State int

const (
	StateUninitialized State = iota
	StateActive
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateActive:
		return "active"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}
