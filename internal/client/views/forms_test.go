package views

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/atinyakov/codepath/internal/client/api"
)

type fakeAuth struct {
	loginErr  error
	signupErr error
	calls     int
}

func (f *fakeAuth) Login(context.Context, string, string) (bool, error) {
	f.calls++
	return f.loginErr == nil, f.loginErr
}

func (f *fakeAuth) Signup(context.Context, string, string, string) (bool, error) {
	f.calls++
	return f.signupErr == nil, f.signupErr
}

func TestSubmitLogin(t *testing.T) {
	tests := []struct {
		name  string
		email string
		from  string
		err   error
		want  FormResult
	}{
		{"success goes to origin", "a@x.com", "/progress", nil, FormResult{OK: true, Message: "Signed in as a@x.com", Next: "/progress"}},
		{"success defaults to dashboard", "a@x.com", "", nil, FormResult{OK: true, Message: "Signed in as a@x.com", Next: "/dashboard"}},
		{"never lands back on login", "a@x.com", "/login", nil, FormResult{OK: true, Message: "Signed in as a@x.com", Next: "/dashboard"}},
		{"bad credentials", "bad@x.com", "", fmt.Errorf("login: %w", &api.StatusError{Status: 401}), FormResult{Message: MsgInvalidCredentials}},
		{"unreachable", "a@x.com", "", fmt.Errorf("login: %w", api.ErrUnreachable), FormResult{Message: MsgUnreachable}},
		{"server error", "a@x.com", "", &api.StatusError{Status: 500}, FormResult{Message: MsgTryAgain}},
		{"missing email", "  ", "", nil, FormResult{Message: MsgEmailRequired}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SubmitLogin(context.Background(), &fakeAuth{loginErr: tt.err}, tt.email, "pw", tt.from)
			if got != tt.want {
				t.Errorf("SubmitLogin() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSubmitSignup(t *testing.T) {
	tests := []struct {
		name     string
		password string
		err      error
		wantOK   bool
		wantMsg  string
		wantCall bool
	}{
		{"success", "longenough", nil, true, "Account created for a@x.com", true},
		{"short password is rejected locally", "short", nil, false, MsgShortPassword, false},
		{"duplicate email", "longenough", fmt.Errorf("signup: %w", &api.StatusError{Status: 409}), false, MsgDuplicateEmail, true},
		{"validation error", "longenough", &api.StatusError{Status: 422}, false, MsgTryAgain, true},
		{"unreachable", "longenough", api.ErrUnreachable, false, MsgUnreachable, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := &fakeAuth{signupErr: tt.err}
			got := SubmitSignup(context.Background(), auth, "a@x.com", tt.password, "Ada")
			if got.OK != tt.wantOK || got.Message != tt.wantMsg {
				t.Errorf("SubmitSignup() = %+v, want ok=%v msg=%q", got, tt.wantOK, tt.wantMsg)
			}
			if (auth.calls > 0) != tt.wantCall {
				t.Errorf("api called = %v, want %v", auth.calls > 0, tt.wantCall)
			}
		})
	}
	if !strings.Contains(MsgShortPassword, "8") {
		t.Error("password message should state the minimum length")
	}
}
