package controller

// State is the controller's presence state.
type State int

const (
	// StateIdle means no session is running. The field may still hold a
	// tag that could not start one.
	StateIdle State = iota
	// StateActive means a session is running for the attached tag.
	StateActive
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}
