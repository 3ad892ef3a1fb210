package camera

import "fmt"

// Phase is the lifecycle phase of the capture session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseConfiguring
	PhaseUnavailable
	PhaseAvailable
	PhaseRunning
)

var phaseNames = map[Phase]string{
	PhaseIdle:        "Idle",
	PhaseConfiguring: "Configuring",
	PhaseUnavailable: "Unavailable",
	PhaseAvailable:   "Available",
	PhaseRunning:     "Running",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Reasons shown to the user when the camera cannot be used.
const (
	ReasonUnavailable = "Camera Unavailable"
	ReasonDenied      = "Camera access denied"
	ReasonRestricted  = "Camera access restricted"
)

// State is an immutable snapshot of the session state. Reason is set only
// in PhaseUnavailable.
type State struct {
	Phase  Phase
	Reason string
}

// Unavailable returns an unavailable state carrying reason.
func Unavailable(reason string) State {
	return State{Phase: PhaseUnavailable, Reason: reason}
}

// IsAvailable reports whether the session is configured, running or not.
func (s State) IsAvailable() bool {
	return s.Phase == PhaseAvailable || s.Phase == PhaseRunning
}

// IsRunning reports whether the session is producing frames.
func (s State) IsRunning() bool {
	return s.Phase == PhaseRunning
}

func (s State) String() string {
	if s.Phase == PhaseUnavailable {
		return fmt.Sprintf("%s(%s)", s.Phase, s.Reason)
	}
	return s.Phase.String()
}
