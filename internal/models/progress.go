package models

import "time"

// AttemptStart is the body of POST /attempts/start.
type AttemptStart struct {
	QuizID ID `json:"quiz_id"`
}

// ResponseSave is the body of POST /attempts/{id}/response.
type ResponseSave struct {
	QuestionID ID     `json:"question_id"`
	Answer     string `json:"answer"`
}

// Attempt records one pass through a quiz.
type Attempt struct {
	ID          ID         `json:"id"`
	QuizID      ID         `json:"quiz_id"`
	StartedAt   time.Time  `json:"started_at"`
	SubmittedAt *time.Time `json:"submitted_at"`
	Score       *float64   `json:"score"`
}

// Submitted reports whether the attempt has been graded.
func (a Attempt) Submitted() bool { return a.SubmittedAt != nil }

// AttemptResult is returned by POST /attempts/{id}/submit.
type AttemptResult struct {
	Message string  `json:"message"`
	Score   float64 `json:"score"`
}

// Mastery is the estimated probability that the user knows a skill.
type Mastery struct {
	SkillID   ID      `json:"skill_id"`
	PKnow     float64 `json:"p_know"`
	Exposures int     `json:"exposures"`
}
