// Package outcome contains the results of the connectivity, portal and login
// probes.
package outcome

// Connectivity is the result of a connectivity probe.
type Connectivity uint32

// Connectivity results.
const (
	ConnectivityDown Connectivity = iota
	ConnectivityUp
)

// Up returns whether Connectivity is "up".
func (c Connectivity) Up() bool {
	return c == ConnectivityUp
}

// String returns c as string.
func (c Connectivity) String() string {
	switch c {
	case ConnectivityDown:
		return "down"
	case ConnectivityUp:
		return "up"
	}
	return ""
}

// Portal is the result of a portal probe.
type Portal uint32

// Portal results, PortalNotProbed means the portal was not probed yet.
const (
	PortalNotProbed Portal = iota
	PortalUnavailable
	PortalAvailable
)

// Available returns whether Portal is "available".
func (p Portal) Available() bool {
	return p == PortalAvailable
}

// String returns p as string.
func (p Portal) String() string {
	switch p {
	case PortalNotProbed:
		return "not probed"
	case PortalUnavailable:
		return "unavailable"
	case PortalAvailable:
		return "available"
	}
	return ""
}

// Auth is the result of a login attempt.
type Auth uint32

// Auth results, AuthNotAttempted means no login was attempted yet.
const (
	AuthNotAttempted Auth = iota
	AuthFailure
	AuthSuccess
)

// Success returns whether Auth is "success".
func (a Auth) Success() bool {
	return a == AuthSuccess
}

// String returns a as string.
func (a Auth) String() string {
	switch a {
	case AuthNotAttempted:
		return "not attempted"
	case AuthFailure:
		return "failure"
	case AuthSuccess:
		return "success"
	}
	return ""
}
