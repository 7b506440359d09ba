package session

// State is the lifecycle state of the most recent session.
type State int

const (
	StateIdle State = iota
	StateSending
	StateReading
	StateCompleted
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateReading:
		return "reading"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Active reports whether the state belongs to an in-flight session.
func (s State) Active() bool {
	return s == StateSending || s == StateReading
}
