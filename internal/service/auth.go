package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/atinyakov/codepath/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password Signup accepts.
const MinPasswordLength = 8

// AuthRepository defines the persistence operations
// required by the authentication service.
type AuthRepository interface {
	// CreateUser stores a new account; repository.ErrConflict for a taken email.
	CreateUser(ctx context.Context, u repository.User) (repository.User, error)
	// UserByEmail looks an account up by email; repository.ErrNotFound when absent.
	UserByEmail(ctx context.Context, email string) (repository.User, error)
	// UserByID looks an account up by id; repository.ErrNotFound when absent.
	UserByID(ctx context.Context, id int64) (repository.User, error)
	// UpdateProfile overwrites the non-nil fields of ch.
	UpdateProfile(ctx context.Context, id int64, ch repository.ProfileChanges) (repository.User, error)
	// SaveToken stores or replaces a token.
	SaveToken(ctx context.Context, t repository.Token) error
	// Token returns a stored token; repository.ErrNotFound when absent.
	Token(ctx context.Context, value string) (repository.Token, error)
	// DeleteToken removes a token.
	DeleteToken(ctx context.Context, value string) error
	// DeleteTokensExpiredBefore removes tokens that expired before cutoff.
	DeleteTokensExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuthService issues and checks opaque bearer tokens.
//
// A token is accepted by Authenticate until its expiry. Refresh still accepts
// it for Grace after that, so a client that was idle can get a new token
// without logging in again.
type AuthService struct {
	repo AuthRepository
	// TTL is the lifetime of an issued token.
	TTL time.Duration
	// Grace is how long after expiry a token may be refreshed.
	Grace time.Duration
	// Now returns the current time; replaced in tests.
	Now func() time.Time
	// Cost is the bcrypt cost of password hashes.
	Cost int
}

// NewAuthService constructs an AuthService using the provided repository.
func NewAuthService(repo AuthRepository, ttl, grace time.Duration) *AuthService {
	return &AuthService{
		repo:  repo,
		TTL:   ttl,
		Grace: grace,
		Now:   time.Now,
		Cost:  bcrypt.DefaultCost,
	}
}

// Signup validates the input, stores the account with a bcrypt hash of the
// password and issues its first token.
func (s *AuthService) Signup(ctx context.Context, email, password string, displayName *string) (repository.Token, error) {
	email = strings.TrimSpace(email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return repository.Token{}, &ValidationError{Field: "email", Reason: "value is not a valid email address"}
	}
	if len(password) < MinPasswordLength {
		return repository.Token{}, &ValidationError{Field: "password", Reason: fmt.Sprintf("must be at least %d characters", MinPasswordLength)}
	}
	if displayName != nil {
		dn := strings.TrimSpace(*displayName)
		if dn == "" {
			displayName = nil
		} else {
			displayName = &dn
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.Cost)
	if err != nil {
		return repository.Token{}, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.repo.CreateUser(ctx, repository.User{
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  displayName,
		CreatedAt:    s.Now().UTC(),
	})
	if errors.Is(err, repository.ErrConflict) {
		return repository.Token{}, ErrEmailTaken
	}
	if err != nil {
		return repository.Token{}, fmt.Errorf("create user: %w", err)
	}
	return s.issue(ctx, u.ID)
}

// Login checks the password and issues a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (repository.Token, error) {
	u, err := s.repo.UserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Token{}, ErrInvalidCredentials
	}
	if err != nil {
		return repository.Token{}, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return repository.Token{}, ErrInvalidCredentials
	}
	return s.issue(ctx, u.ID)
}

func (s *AuthService) issue(ctx context.Context, userID int64) (repository.Token, error) {
	t := repository.Token{
		Value:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: s.Now().Add(s.TTL),
	}
	if err := s.repo.SaveToken(ctx, t); err != nil {
		return repository.Token{}, fmt.Errorf("save token: %w", err)
	}
	return t, nil
}

// Authenticate returns the id of the user owning a live token.
func (s *AuthService) Authenticate(ctx context.Context, value string) (int64, error) {
	if value == "" {
		return 0, ErrUnauthorized
	}
	t, err := s.repo.Token(ctx, value)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, ErrUnauthorized
	}
	if err != nil {
		return 0, fmt.Errorf("find token: %w", err)
	}
	if !s.Now().Before(t.ExpiresAt) {
		return 0, ErrUnauthorized
	}
	return t.UserID, nil
}

// Refresh revokes value and issues a new token for the same user. Expired
// tokens are accepted within the grace window.
func (s *AuthService) Refresh(ctx context.Context, value string) (repository.Token, error) {
	if value == "" {
		return repository.Token{}, ErrUnauthorized
	}
	t, err := s.repo.Token(ctx, value)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Token{}, ErrUnauthorized
	}
	if err != nil {
		return repository.Token{}, fmt.Errorf("find token: %w", err)
	}
	if !s.Now().Before(t.ExpiresAt.Add(s.Grace)) {
		return repository.Token{}, ErrUnauthorized
	}
	if err := s.repo.DeleteToken(ctx, value); err != nil {
		return repository.Token{}, fmt.Errorf("revoke token: %w", err)
	}
	return s.issue(ctx, t.UserID)
}

// Logout revokes a token. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, value string) error {
	return s.repo.DeleteToken(ctx, value)
}

// User returns the account behind userID.
func (s *AuthService) User(ctx context.Context, userID int64) (repository.User, error) {
	u, err := s.repo.UserByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.User{}, ErrNotFound
	}
	return u, err
}

// UpdateProfile applies ch to the account behind userID.
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, ch repository.ProfileChanges) (repository.User, error) {
	if ch.DisplayName != nil {
		dn := strings.TrimSpace(*ch.DisplayName)
		ch.DisplayName = &dn
	}
	u, err := s.repo.UpdateProfile(ctx, userID, ch)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.User{}, ErrNotFound
	}
	return u, err
}

// SweepExpired deletes tokens that can no longer be refreshed and returns
// how many were removed.
func (s *AuthService) SweepExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteTokensExpiredBefore(ctx, s.Now().Add(-s.Grace))
}
