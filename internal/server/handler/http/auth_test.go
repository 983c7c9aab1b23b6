package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/atinyakov/codepath/internal/middleware"
	"github.com/atinyakov/codepath/internal/repository"
	"github.com/atinyakov/codepath/internal/service"
)

// fakeAuthService implements AuthService for testing.
type fakeAuthService struct {
	signupErr  error
	loginErr   error
	refreshErr error
	logoutErr  error
	user       repository.User
	userErr    error

	lastToken string
	changes   repository.ProfileChanges
}

func (f *fakeAuthService) Signup(ctx context.Context, email, password string, displayName *string) (repository.Token, error) {
	return repository.Token{Value: "signed-up"}, f.signupErr
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string) (repository.Token, error) {
	return repository.Token{Value: "logged-in"}, f.loginErr
}

func (f *fakeAuthService) Refresh(ctx context.Context, token string) (repository.Token, error) {
	f.lastToken = token
	return repository.Token{Value: "refreshed"}, f.refreshErr
}

func (f *fakeAuthService) Logout(ctx context.Context, token string) error {
	f.lastToken = token
	return f.logoutErr
}

func (f *fakeAuthService) User(ctx context.Context, userID int64) (repository.User, error) {
	return f.user, f.userErr
}

func (f *fakeAuthService) UpdateProfile(ctx context.Context, userID int64, ch repository.ProfileChanges) (repository.User, error) {
	f.changes = ch
	u := f.user
	u.DisplayName = ch.DisplayName
	return u, f.userErr
}

func TestAuthHandler_Credentials(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		body           string
		service        *fakeAuthService
		expectedCode   int
		expectedSubstr string
	}{
		{
			name:           "invalid JSON",
			path:           "/auth/login",
			body:           `not a json`,
			service:        &fakeAuthService{},
			expectedCode:   http.StatusUnprocessableEntity,
			expectedSubstr: "invalid JSON body",
		},
		{
			name:           "login success",
			path:           "/auth/login",
			body:           `{"email":"a@example.com","password":"secret123"}`,
			service:        &fakeAuthService{},
			expectedCode:   http.StatusOK,
			expectedSubstr: `"access_token":"logged-in"`,
		},
		{
			name:           "login bad credentials",
			path:           "/auth/login",
			body:           `{"email":"a@example.com","password":"nope"}`,
			service:        &fakeAuthService{loginErr: service.ErrInvalidCredentials},
			expectedCode:   http.StatusUnauthorized,
			expectedSubstr: "Invalid email or password",
		},
		{
			name:           "signup success",
			path:           "/auth/signup",
			body:           `{"email":"a@example.com","password":"secret123","display_name":null}`,
			service:        &fakeAuthService{},
			expectedCode:   http.StatusOK,
			expectedSubstr: `"token_type":"bearer"`,
		},
		{
			name:           "signup duplicate",
			path:           "/auth/signup",
			body:           `{"email":"a@example.com","password":"secret123"}`,
			service:        &fakeAuthService{signupErr: service.ErrEmailTaken},
			expectedCode:   http.StatusConflict,
			expectedSubstr: "Email already registered",
		},
		{
			name:           "signup short password",
			path:           "/auth/signup",
			body:           `{"email":"a@example.com","password":"short"}`,
			service:        &fakeAuthService{signupErr: &service.ValidationError{Field: "password", Reason: "too short"}},
			expectedCode:   http.StatusUnprocessableEntity,
			expectedSubstr: "too short",
		},
		{
			name:           "internal error",
			path:           "/auth/signup",
			body:           `{"email":"a@example.com","password":"secret123"}`,
			service:        &fakeAuthService{signupErr: errors.New("db down")},
			expectedCode:   http.StatusInternalServerError,
			expectedSubstr: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, tt.path, bytes.NewBufferString(tt.body))
			h := &AuthHandler{AuthService: tt.service}

			if strings.HasSuffix(tt.path, "signup") {
				h.Signup(rec, req)
			} else {
				h.Login(rec, req)
			}

			if rec.Code != tt.expectedCode {
				t.Errorf("expected status %d, got %d", tt.expectedCode, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.expectedSubstr) {
				t.Errorf("expected body to contain %q, got %q", tt.expectedSubstr, rec.Body.String())
			}
		})
	}
}

func TestAuthHandler_Refresh(t *testing.T) {
	svc := &fakeAuthService{}
	h := &AuthHandler{AuthService: svc}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.Header.Set("Authorization", "Bearer old-token")
	h.Refresh(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.lastToken != "old-token" {
		t.Errorf("service got token %q", svc.lastToken)
	}

	svc.refreshErr = service.ErrUnauthorized
	rec = httptest.NewRecorder()
	h.Refresh(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 on refresh failure, got %d", rec.Code)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	svc := &fakeAuthService{}
	h := &AuthHandler{AuthService: svc}

	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 without token, got %d", rec.Code)
	}
	if svc.lastToken != "" {
		t.Errorf("service should not be called without a token")
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer tok")
	h.Logout(rec, req)
	if !strings.Contains(rec.Body.String(), "Logged out") {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
	if svc.lastToken != "tok" {
		t.Errorf("service got token %q", svc.lastToken)
	}
}

func TestAuthHandler_Profile(t *testing.T) {
	name := "Ada"
	svc := &fakeAuthService{user: repository.User{ID: 7, Email: "ada@example.com", DisplayName: &name}}
	h := &AuthHandler{AuthService: svc}
	ctx := middleware.WithUserID(context.Background(), 7)

	rec := httptest.NewRecorder()
	h.Profile(rec, httptest.NewRequest(http.MethodGet, "/users/me", nil).WithContext(ctx))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got["user_id"] != float64(7) || got["display_name"] != "Ada" {
		t.Errorf("unexpected profile %v", got)
	}
	if _, ok := got["preferences"].(map[string]any); !ok {
		t.Errorf("preferences should be an object, got %v", got["preferences"])
	}

	rec = httptest.NewRecorder()
	body := bytes.NewBufferString(`{"display_name":"Grace","learning_goals":"finish go"}`)
	h.UpdateProfile(rec, httptest.NewRequest(http.MethodPut, "/users/profile", body).WithContext(ctx))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.changes.LearningGoals == nil || *svc.changes.LearningGoals != "finish go" {
		t.Errorf("learning goals not forwarded: %+v", svc.changes)
	}
	if !strings.Contains(rec.Body.String(), `"display_name":"Grace"`) {
		t.Errorf("unexpected body %q", rec.Body.String())
	}

	svc.userErr = service.ErrNotFound
	rec = httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil).WithContext(ctx))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
