// Package http provides the HTTP handlers and routing of the CodePath
// development API. Every error body has the shape {"detail": ...}.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/atinyakov/codepath/internal/service"
	"github.com/go-chi/chi/v5"
)

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDetail writes the standard error envelope.
func writeDetail(w http.ResponseWriter, status int, detail any) {
	writeJSON(w, status, map[string]any{"detail": detail})
}

// validationDetail mirrors the list-of-errors detail of a 422 response.
func validationDetail(loc, field, msg string) []map[string]any {
	return []map[string]any{{
		"loc":  []string{loc, field},
		"msg":  msg,
		"type": "value_error",
	}}
}

// writeServiceError maps service errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		writeDetail(w, http.StatusUnprocessableEntity, validationDetail("body", ve.Field, ve.Reason))
	case errors.Is(err, service.ErrInvalidCredentials):
		writeDetail(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, service.ErrUnauthorized):
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
	case errors.Is(err, service.ErrEmailTaken):
		writeDetail(w, http.StatusConflict, "Email already registered")
	case errors.Is(err, service.ErrForbidden):
		writeDetail(w, http.StatusForbidden, "Not your attempt")
	case errors.Is(err, service.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "Not found")
	case errors.Is(err, service.ErrAlreadySubmitted):
		writeDetail(w, http.StatusConflict, "Attempt already submitted")
	default:
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeBody decodes a JSON request body into v and answers 422 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, validationDetail("body", "", "invalid JSON body"))
		return false
	}
	return true
}

// pathID parses the {id} URL parameter and answers 404 when it is not a number.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeDetail(w, http.StatusNotFound, "Not found")
		return 0, false
	}
	return id, true
}

// queryInt parses an optional integer query parameter. ok is false (and a
// 422 has been written) when the value is present but malformed.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeDetail(w, http.StatusUnprocessableEntity, validationDetail("query", name, "value is not a valid integer"))
		return 0, false
	}
	return n, true
}

// flexID accepts an identifier encoded as a JSON number or a numeric string.
type flexID int64

func (f *flexID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*f = flexID(n)
	return nil
}
