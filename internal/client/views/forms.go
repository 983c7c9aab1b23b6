package views

import (
	"context"
	"errors"
	"strings"

	"github.com/atinyakov/codepath/internal/client/api"
)

// MinPasswordLength is enforced before a signup is sent.
const MinPasswordLength = 8

// DefaultLanding is where a successful login goes when nothing was requested.
const DefaultLanding = "/dashboard"

// Form messages.
const (
	MsgInvalidCredentials = "Invalid email or password"
	MsgDuplicateEmail     = "An account with this email already exists"
	MsgShortPassword      = "Password must be at least 8 characters"
	MsgEmailRequired      = "Email is required"
	MsgUnreachable        = "Cannot reach the server. Check your connection and try again"
	MsgTryAgain           = "Something went wrong. Please try again"
)

// FormResult is the outcome of submitting a form. Next is the location to go
// to after a success.
type FormResult struct {
	OK      bool
	Message string
	Next    string
}

// Authenticator performs the credential exchanges behind the forms.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (bool, error)
	Signup(ctx context.Context, email, password, displayName string) (bool, error)
}

// SubmitLogin signs in and returns where to go next: from when set,
// DefaultLanding otherwise.
func SubmitLogin(ctx context.Context, auth Authenticator, email, password, from string) FormResult {
	email = strings.TrimSpace(email)
	if email == "" {
		return FormResult{Message: MsgEmailRequired}
	}
	ok, err := auth.Login(ctx, email, password)
	if !ok {
		return FormResult{Message: failureMessage(err, MsgInvalidCredentials)}
	}
	if from == "" || from == "/login" || from == "/signup" {
		from = DefaultLanding
	}
	return FormResult{OK: true, Message: "Signed in as " + email, Next: from}
}

// SubmitSignup validates the input locally, then creates the account.
func SubmitSignup(ctx context.Context, auth Authenticator, email, password, displayName string) FormResult {
	email = strings.TrimSpace(email)
	if email == "" {
		return FormResult{Message: MsgEmailRequired}
	}
	if len(password) < MinPasswordLength {
		return FormResult{Message: MsgShortPassword}
	}
	ok, err := auth.Signup(ctx, email, password, displayName)
	if !ok {
		if api.IsConflict(err) {
			return FormResult{Message: MsgDuplicateEmail}
		}
		return FormResult{Message: failureMessage(err, "")}
	}
	return FormResult{OK: true, Message: "Account created for " + email, Next: DefaultLanding}
}

func failureMessage(err error, onUnauthorized string) string {
	switch {
	case errors.Is(err, api.ErrUnreachable):
		return MsgUnreachable
	case onUnauthorized != "" && api.IsUnauthorized(err):
		return onUnauthorized
	default:
		return MsgTryAgain
	}
}
