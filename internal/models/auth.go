package models

import "time"

// Credentials is the body of POST /auth/login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest is the body of POST /auth/signup. DisplayName is sent as null when empty.
type SignupRequest struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	DisplayName *string `json:"display_name"`
}

// TokenPair is returned by every endpoint that issues a bearer token.
type TokenPair struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// User is the public identity returned by GET /auth/me.
type User struct {
	ID          ID        `json:"id"`
	Email       string    `json:"email"`
	DisplayName *string   `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// Name returns the display name, falling back to the email address.
func (u User) Name() string {
	if u.DisplayName != nil && *u.DisplayName != "" {
		return *u.DisplayName
	}
	return u.Email
}

// Profile is the extended account view returned by GET /users/me.
type Profile struct {
	UserID        ID             `json:"user_id"`
	Email         string         `json:"email"`
	DisplayName   *string        `json:"display_name"`
	AvatarURL     *string        `json:"avatar_url,omitempty"`
	Timezone      *string        `json:"timezone,omitempty"`
	LearningGoals *string        `json:"learning_goals,omitempty"`
	Preferences   map[string]any `json:"preferences,omitempty"`
}

// ProfileUpdate is the body of PUT /users/profile. Nil fields are left unchanged.
type ProfileUpdate struct {
	DisplayName   *string        `json:"display_name,omitempty"`
	LearningGoals *string        `json:"learning_goals,omitempty"`
	Preferences   map[string]any `json:"preferences,omitempty"`
}

// ErrorBody is the error envelope of the API. Detail is usually a string but
// validation failures carry a structured list.
type ErrorBody struct {
	Detail any `json:"detail"`
}
