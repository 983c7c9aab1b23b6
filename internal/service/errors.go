// Package service provides the business logic of the development API:
// accounts and tokens, the learning catalog, quiz attempts and mastery. It
// delegates persistence to repository interfaces.
package service

import "errors"

var (
	// ErrInvalidCredentials is returned by Login for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUnauthorized is returned for a missing, unknown or expired token.
	ErrUnauthorized = errors.New("not authenticated")
	// ErrEmailTaken is returned by Signup when the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrForbidden is returned when a user touches another user's attempt.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadySubmitted is returned when an attempt is changed after submission.
	ErrAlreadySubmitted = errors.New("attempt already submitted")
)

// ValidationError describes input rejected before it reaches persistence.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}
