package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/codepath/internal/middleware"
	"github.com/atinyakov/codepath/internal/repository"
	"github.com/atinyakov/codepath/internal/service"
)

// LearningService defines the catalog and attempt operations required by
// the HTTP handlers.
type LearningService interface {
	Skills(ctx context.Context, domain string) ([]repository.Skill, error)
	Skill(ctx context.Context, id int64) (repository.Skill, error)
	CreateSkill(ctx context.Context, in service.SkillInput) (repository.Skill, error)
	Quizzes(ctx context.Context, skillID int64) ([]repository.Quiz, error)
	Quiz(ctx context.Context, id int64) (repository.Quiz, error)
	Content(ctx context.Context, q repository.ContentQuery) ([]repository.ContentItem, error)
	ContentItem(ctx context.Context, id int64) (repository.ContentItem, error)
	StartAttempt(ctx context.Context, userID, quizID int64) (repository.Attempt, error)
	SaveResponse(ctx context.Context, userID, attemptID, questionID int64, answer string) error
	Submit(ctx context.Context, userID, attemptID int64) (service.SubmitResult, error)
	Mastery(ctx context.Context, userID int64) ([]repository.Mastery, error)
}

// LearningHandler handles the catalog, attempt and mastery endpoints.
type LearningHandler struct {
	Service LearningService
}

// Skills handles GET /skills?domain=.
func (h *LearningHandler) Skills(w http.ResponseWriter, r *http.Request) {
	skills, err := h.Service.Skills(r.Context(), r.URL.Query().Get("domain"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, skills)
}

// Skill handles GET /skills/{id}.
func (h *LearningHandler) Skill(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	skill, err := h.Service.Skill(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, skill)
}

// CreateSkill handles POST /skills.
func (h *LearningHandler) CreateSkill(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
		Category    *string `json:"category"`
		Difficulty  *int    `json:"difficulty"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	skill, err := h.Service.CreateSkill(r.Context(), service.SkillInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Difficulty:  req.Difficulty,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, skill)
}

// Quizzes handles GET /quizzes?skill_id=.
func (h *LearningHandler) Quizzes(w http.ResponseWriter, r *http.Request) {
	skillID, ok := queryInt(w, r, "skill_id")
	if !ok {
		return
	}
	quizzes, err := h.Service.Quizzes(r.Context(), int64(skillID))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

// Quiz handles GET /quizzes/{id}.
func (h *LearningHandler) Quiz(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	quiz, err := h.Service.Quiz(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

// Content handles GET /content with the q, type, skill_id, min_diff,
// max_diff, skip and limit filters.
func (h *LearningHandler) Content(w http.ResponseWriter, r *http.Request) {
	q := repository.ContentQuery{
		Text: r.URL.Query().Get("q"),
		Type: r.URL.Query().Get("type"),
	}
	ints := []struct {
		name string
		dst  *int
	}{
		{"min_diff", &q.MinDifficulty},
		{"max_diff", &q.MaxDifficulty},
		{"skip", &q.Skip},
		{"limit", &q.Limit},
	}
	for _, p := range ints {
		n, ok := queryInt(w, r, p.name)
		if !ok {
			return
		}
		*p.dst = n
	}
	skillID, ok := queryInt(w, r, "skill_id")
	if !ok {
		return
	}
	q.SkillID = int64(skillID)

	items, err := h.Service.Content(r.Context(), q)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// ContentItem handles GET /content/{id}.
func (h *LearningHandler) ContentItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	item, err := h.Service.ContentItem(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// StartAttempt handles POST /attempts/start.
func (h *LearningHandler) StartAttempt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QuizID flexID `json:"quiz_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	a, err := h.Service.StartAttempt(r.Context(), middleware.GetUserIDFromContext(r.Context()), int64(req.QuizID))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// SaveResponse handles POST /attempts/{id}/response.
func (h *LearningHandler) SaveResponse(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		QuestionID flexID `json:"question_id"`
		Answer     string `json:"answer"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	userID := middleware.GetUserIDFromContext(r.Context())
	if err := h.Service.SaveResponse(r.Context(), userID, id, int64(req.QuestionID), req.Answer); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Response saved"})
}

// Submit handles POST /attempts/{id}/submit.
func (h *LearningHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	res, err := h.Service.Submit(r.Context(), middleware.GetUserIDFromContext(r.Context()), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Mastery handles GET /mastery.
func (h *LearningHandler) Mastery(w http.ResponseWriter, r *http.Request) {
	m, err := h.Service.Mastery(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}
