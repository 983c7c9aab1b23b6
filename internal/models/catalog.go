package models

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// Difficulty bounds accepted by the API.
const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

// Skill is a unit of knowledge quizzes and content are attached to.
type Skill struct {
	ID          ID         `json:"id"`
	Slug        string     `json:"slug,omitempty"`
	Name        string     `json:"name"`
	Domain      string     `json:"domain,omitempty"`
	Description *string    `json:"description,omitempty"`
	Category    *string    `json:"category,omitempty"`
	Difficulty  *int       `json:"difficulty,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// SkillCreate is the body of POST /skills.
type SkillCreate struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	Difficulty  *int    `json:"difficulty,omitempty"`
}

// Validate checks the fields the API would reject.
func (s SkillCreate) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("skill name is required")
	}
	if s.Difficulty != nil && (*s.Difficulty < MinDifficulty || *s.Difficulty > MaxDifficulty) {
		return errors.New("difficulty must be between 1 and 5")
	}
	return nil
}

// Option is one choice of a multiple-choice question.
type Option struct {
	ID    ID     `json:"id"`
	Text  string `json:"text"`
	Order int    `json:"order"`
}

// Question types served by the API.
const (
	QuestionMCQ         = "mcq"
	QuestionShortAnswer = "short_answer"
)

// Question belongs to a quiz and is presented by ascending Order.
type Question struct {
	ID          ID       `json:"id"`
	Type        string   `json:"question_type"`
	Prompt      string   `json:"prompt"`
	StarterCode *string  `json:"starter_code,omitempty"`
	Language    *string  `json:"language,omitempty"`
	Order       int      `json:"order"`
	Options     []Option `json:"options"`
}

// SortedOptions returns a copy of the options ordered by Order.
func (q Question) SortedOptions() []Option {
	opts := append([]Option(nil), q.Options...)
	sort.SliceStable(opts, func(i, j int) bool { return opts[i].Order < opts[j].Order })
	return opts
}

// Quiz is a titled, ordered list of questions for one skill.
type Quiz struct {
	ID          ID         `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	SkillID     ID         `json:"skill_id"`
	Questions   []Question `json:"questions"`
}

// SortedQuestions returns a copy of the questions ordered by Order.
func (q Quiz) SortedQuestions() []Question {
	qs := append([]Question(nil), q.Questions...)
	sort.SliceStable(qs, func(i, j int) bool { return qs[i].Order < qs[j].Order })
	return qs
}

// ContentItem is a piece of learning material (article, video, exercise).
type ContentItem struct {
	ID          ID      `json:"id"`
	Slug        string  `json:"slug"`
	Title       string  `json:"title"`
	ContentType string  `json:"content_type"`
	Difficulty  int     `json:"difficulty"`
	SkillID     *ID     `json:"skill_id,omitempty"`
	URL         *string `json:"url,omitempty"`
	EstMinutes  *int    `json:"est_minutes,omitempty"`
}

// ContentFilter narrows GET /content. Zero values are not sent.
type ContentFilter struct {
	Query         string
	Type          string
	SkillID       ID
	MinDifficulty int
	MaxDifficulty int
	Skip          int
	Limit         int
}
