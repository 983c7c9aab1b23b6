// Package guard decides whether a protected location may be shown.
package guard

import "github.com/atinyakov/codepath/internal/client/session"

// LoginPath is where unauthenticated visitors are sent.
const LoginPath = "/login"

// Outcome of a guard check.
type Outcome int

const (
	// Pending means the session is still resolving; show a loading indicator.
	Pending Outcome = iota
	// Redirect means the visitor must sign in first.
	Redirect
	// Allow means the protected content may render.
	Allow
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Redirect:
		return "redirect"
	case Allow:
		return "allow"
	}
	return "unknown"
}

// Decision is the result of Check. To and From are set only for Redirect.
type Decision struct {
	Outcome Outcome
	To      string
	From    string
}

// Check is a pure function of the session state and the requested location.
func Check(st session.State, location string) Decision {
	switch {
	case st.Loading:
		return Decision{Outcome: Pending}
	case st.User == nil:
		return Decision{Outcome: Redirect, To: LoginPath, From: location}
	default:
		return Decision{Outcome: Allow}
	}
}
