package daemon

import "github.com/telekom-mms/portal-autologin/internal/outcome"

// Action is the next action of the reconnection loop.
type Action uint32

// Actions.
const (
	ActionSleep Action = iota
	ActionProbePortal
	ActionLogin
)

// String returns a as string.
func (a Action) String() string {
	switch a {
	case ActionSleep:
		return "sleep"
	case ActionProbePortal:
		return "probe portal"
	case ActionLogin:
		return "login"
	}
	return ""
}

// Wait is the delay of the reconnection loop before the next iteration.
type Wait uint32

// Waits.
const (
	WaitNone Wait = iota
	WaitCheckInterval
	WaitRetryDelay
	WaitStabilize
)

// String returns w as string.
func (w Wait) String() string {
	switch w {
	case WaitNone:
		return "none"
	case WaitCheckInterval:
		return "check interval"
	case WaitRetryDelay:
		return "retry delay"
	case WaitStabilize:
		return "stabilization delay"
	}
	return ""
}

// Decision is the decision of the reconnection loop.
type Decision struct {
	Action Action
	Wait   Wait
}

// Decide returns the next action and delay based on the probe results of
// the current iteration. Portal and auth are PortalNotProbed and
// AuthNotAttempted if the probe did not run yet. Only ActionSleep comes with
// a delay.
func Decide(c outcome.Connectivity, p outcome.Portal, a outcome.Auth) Decision {
	switch {
	case c.Up():
		return Decision{ActionSleep, WaitCheckInterval}
	case p == outcome.PortalNotProbed:
		return Decision{ActionProbePortal, WaitNone}
	case !p.Available():
		return Decision{ActionSleep, WaitRetryDelay}
	case a == outcome.AuthNotAttempted:
		return Decision{ActionLogin, WaitNone}
	case a.Success():
		return Decision{ActionSleep, WaitStabilize}
	}
	return Decision{ActionSleep, WaitRetryDelay}
}
