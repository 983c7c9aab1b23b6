package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/codepath/internal/middleware"
	"github.com/atinyakov/codepath/internal/repository"
)

// AuthService defines the account and token operations required by the
// HTTP handlers.
type AuthService interface {
	Signup(ctx context.Context, email, password string, displayName *string) (repository.Token, error)
	Login(ctx context.Context, email, password string) (repository.Token, error)
	Refresh(ctx context.Context, token string) (repository.Token, error)
	Logout(ctx context.Context, token string) error
	User(ctx context.Context, userID int64) (repository.User, error)
	UpdateProfile(ctx context.Context, userID int64, ch repository.ProfileChanges) (repository.User, error)
}

// AuthHandler handles the /auth and /users endpoints.
type AuthHandler struct {
	// AuthService performs the underlying account operations.
	AuthService AuthService
}

type credentialsRequest struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	DisplayName *string `json:"display_name"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func writeToken(w http.ResponseWriter, t repository.Token) {
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: t.Value, TokenType: "bearer"})
}

// Signup handles POST /auth/signup. A taken email answers 409.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	tok, err := h.AuthService.Signup(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeToken(w, tok)
}

// Login handles POST /auth/login. Bad credentials answer 401.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	tok, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeToken(w, tok)
}

// Refresh handles POST /auth/refresh. The bearer token is exchanged for a new
// one; it may be expired as long as it is inside the grace window.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	tok, err := h.AuthService.Refresh(r.Context(), middleware.BearerToken(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeToken(w, tok)
}

// Logout handles POST /auth/logout. It always succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.BearerToken(r); token != "" {
		if err := h.AuthService.Logout(r.Context(), token); err != nil {
			writeServiceError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.AuthService.User(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type profileResponse struct {
	UserID        int64          `json:"user_id"`
	Email         string         `json:"email"`
	DisplayName   *string        `json:"display_name"`
	AvatarURL     *string        `json:"avatar_url"`
	Timezone      *string        `json:"timezone"`
	LearningGoals *string        `json:"learning_goals"`
	Preferences   map[string]any `json:"preferences"`
}

func newProfile(u repository.User) profileResponse {
	prefs := u.Preferences
	if prefs == nil {
		prefs = map[string]any{}
	}
	return profileResponse{
		UserID:        u.ID,
		Email:         u.Email,
		DisplayName:   u.DisplayName,
		AvatarURL:     u.AvatarURL,
		Timezone:      u.Timezone,
		LearningGoals: u.LearningGoals,
		Preferences:   prefs,
	}
}

// Profile handles GET /users/me.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	u, err := h.AuthService.User(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newProfile(u))
}

// UpdateProfile handles PUT /users/profile.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DisplayName   *string        `json:"display_name"`
		LearningGoals *string        `json:"learning_goals"`
		Preferences   map[string]any `json:"preferences"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	u, err := h.AuthService.UpdateProfile(r.Context(), middleware.GetUserIDFromContext(r.Context()), repository.ProfileChanges{
		DisplayName:   req.DisplayName,
		LearningGoals: req.LearningGoals,
		Preferences:   req.Preferences,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newProfile(u))
}
