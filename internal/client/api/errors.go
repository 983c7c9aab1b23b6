package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/atinyakov/codepath/internal/models"
)

// ErrUnreachable marks failures where no HTTP response was received.
var ErrUnreachable = errors.New("api unreachable")

// StatusError is returned by the typed endpoint helpers when the API answers
// with a non-2xx status.
type StatusError struct {
	Status int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("api status %d", e.Status)
	}
	return fmt.Sprintf("api status %d: %s", e.Status, e.Detail)
}

// newStatusError builds a StatusError from a failed response, extracting the
// "detail" field when the payload carries one.
func newStatusError(resp *Response) *StatusError {
	e := &StatusError{Status: resp.Status}
	if resp.Payload == nil {
		return e
	}
	var body models.ErrorBody
	if err := json.Unmarshal(resp.Payload, &body); err != nil {
		return e
	}
	switch d := body.Detail.(type) {
	case nil:
	case string:
		e.Detail = d
	default:
		if b, err := json.Marshal(d); err == nil {
			e.Detail = string(b)
		}
	}
	return e
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool { return StatusOf(err) == http.StatusUnauthorized }

// IsConflict reports whether err is a 409 from the API.
func IsConflict(err error) bool { return StatusOf(err) == http.StatusConflict }

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool { return StatusOf(err) == http.StatusNotFound }
