// Package repository provides the in-memory persistence layer of the
// development API: accounts, access tokens, the learning catalog, quiz
// attempts and per-skill mastery.
package repository

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a record with the requested key does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique key (email, slug) is already taken.
	ErrConflict = errors.New("already exists")
)

// User is an account of the development API.
type User struct {
	ID            int64          `json:"id"`
	Email         string         `json:"email"`
	PasswordHash  string         `json:"-"`
	DisplayName   *string        `json:"display_name"`
	CreatedAt     time.Time      `json:"created_at"`
	AvatarURL     *string        `json:"-"`
	Timezone      *string        `json:"-"`
	LearningGoals *string        `json:"-"`
	Preferences   map[string]any `json:"-"`
}

// ProfileChanges lists the profile fields to overwrite. Nil fields are kept.
type ProfileChanges struct {
	DisplayName   *string
	LearningGoals *string
	Preferences   map[string]any
}

// Token is an opaque bearer token issued to a user.
type Token struct {
	// Value is the bearer string handed to the client.
	Value string
	// UserID identifies the owner of the token.
	UserID int64
	// ExpiresAt is the end of the token's validity for API calls.
	ExpiresAt time.Time
}

// Skill is a catalog entry quizzes and content are attached to.
type Skill struct {
	ID          int64     `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Domain      string    `json:"domain"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	Difficulty  *int      `json:"difficulty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Option is one choice of a multiple-choice question.
type Option struct {
	ID    int64  `json:"id"`
	Text  string `json:"text"`
	Order int    `json:"order"`
}

// Question is one item of a quiz. Answer is never serialized: for mcq it is
// the id of the correct option, for short answers the expected text.
type Question struct {
	ID          int64    `json:"id"`
	Type        string   `json:"question_type"`
	Prompt      string   `json:"prompt"`
	StarterCode *string  `json:"starter_code,omitempty"`
	Language    *string  `json:"language,omitempty"`
	Order       int      `json:"order"`
	Options     []Option `json:"options"`
	Answer      string   `json:"-"`
}

// Quiz is an ordered set of questions about one skill.
type Quiz struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	SkillID     int64      `json:"skill_id"`
	Questions   []Question `json:"questions"`
}

// ContentItem is a piece of learning material.
type ContentItem struct {
	ID          int64   `json:"id"`
	Slug        string  `json:"slug"`
	Title       string  `json:"title"`
	ContentType string  `json:"content_type"`
	Difficulty  int     `json:"difficulty"`
	SkillID     *int64  `json:"skill_id,omitempty"`
	URL         *string `json:"url,omitempty"`
	EstMinutes  *int    `json:"est_minutes,omitempty"`
}

// ContentQuery filters content listings. Zero values match everything.
type ContentQuery struct {
	Text          string
	Type          string
	SkillID       int64
	MinDifficulty int
	MaxDifficulty int
	Skip          int
	Limit         int
}

// Attempt is one user's pass through a quiz.
type Attempt struct {
	ID          int64            `json:"id"`
	UserID      int64            `json:"-"`
	QuizID      int64            `json:"quiz_id"`
	StartedAt   time.Time        `json:"started_at"`
	SubmittedAt *time.Time       `json:"submitted_at"`
	Score       *float64         `json:"score"`
	Responses   map[int64]string `json:"-"`
}

// Mastery is the estimated probability that a user knows a skill.
type Mastery struct {
	SkillID   int64   `json:"skill_id"`
	PKnow     float64 `json:"p_know"`
	Exposures int     `json:"exposures"`
}
