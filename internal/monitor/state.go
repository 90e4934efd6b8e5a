package monitor

import "fmt"

// State is a phase of the session.
type State int32

const (
	StateConnecting State = iota
	StateRunning
	StateResetting
	StateClosing
	StateTerminated
)

var stateNames = [...]string{
	StateConnecting: "connecting",
	StateRunning:    "running",
	StateResetting:  "resetting",
	StateClosing:    "closing",
	StateTerminated: "terminated",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int32(s))
}
