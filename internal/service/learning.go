package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/atinyakov/codepath/internal/repository"
)

// LearningRepository defines the persistence operations needed by the
// LearningService.
type LearningRepository interface {
	Skills(ctx context.Context, domain string) ([]repository.Skill, error)
	Skill(ctx context.Context, id int64) (repository.Skill, error)
	CreateSkill(ctx context.Context, s repository.Skill) (repository.Skill, error)
	Quizzes(ctx context.Context, skillID int64) ([]repository.Quiz, error)
	Quiz(ctx context.Context, id int64) (repository.Quiz, error)
	Content(ctx context.Context, q repository.ContentQuery) ([]repository.ContentItem, error)
	ContentItem(ctx context.Context, id int64) (repository.ContentItem, error)
	CreateAttempt(ctx context.Context, userID, quizID int64) (repository.Attempt, error)
	Attempt(ctx context.Context, id int64) (repository.Attempt, error)
	SaveResponse(ctx context.Context, attemptID, questionID int64, answer string) error
	FinishAttempt(ctx context.Context, id int64, score float64, at time.Time) (repository.Attempt, error)
	Mastery(ctx context.Context, userID int64) ([]repository.Mastery, error)
	SkillMastery(ctx context.Context, userID, skillID int64) (repository.Mastery, bool, error)
	SaveMastery(ctx context.Context, userID int64, m repository.Mastery) error
}

// SkillInput is the payload of a new skill.
type SkillInput struct {
	Name        string
	Description *string
	Category    *string
	Difficulty  *int
}

// SubmitResult is the outcome of grading an attempt.
type SubmitResult struct {
	Message string  `json:"message"`
	Score   float64 `json:"score"`
}

// LearningService serves the catalog and grades quiz attempts.
type LearningService struct {
	repo LearningRepository
	// Model updates mastery after each graded answer.
	Model BKT
	// Now returns the current time; replaced in tests.
	Now func() time.Time
}

// NewLearningService constructs a LearningService using the provided repository.
func NewLearningService(repo LearningRepository) *LearningService {
	return &LearningService{repo: repo, Model: DefaultBKT, Now: time.Now}
}

func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// Skills lists skills, optionally for one domain.
func (s *LearningService) Skills(ctx context.Context, domain string) ([]repository.Skill, error) {
	return s.repo.Skills(ctx, domain)
}

// Skill returns one skill.
func (s *LearningService) Skill(ctx context.Context, id int64) (repository.Skill, error) {
	sk, err := s.repo.Skill(ctx, id)
	return sk, notFound(err)
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases name and joins its words with dashes.
func Slugify(name string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

// CreateSkill validates in and stores the skill under a slug derived from
// its name.
func (s *LearningService) CreateSkill(ctx context.Context, in SkillInput) (repository.Skill, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return repository.Skill{}, &ValidationError{Field: "name", Reason: "field required"}
	}
	if in.Difficulty != nil && (*in.Difficulty < 1 || *in.Difficulty > 5) {
		return repository.Skill{}, &ValidationError{Field: "difficulty", Reason: "must be between 1 and 5"}
	}
	sk, err := s.repo.CreateSkill(ctx, repository.Skill{
		Slug:        Slugify(name),
		Name:        name,
		Description: in.Description,
		Category:    in.Category,
		Difficulty:  in.Difficulty,
	})
	if errors.Is(err, repository.ErrConflict) {
		return repository.Skill{}, &ValidationError{Field: "name", Reason: "a skill with this name already exists"}
	}
	return sk, err
}

// Quizzes lists quizzes, optionally for one skill.
func (s *LearningService) Quizzes(ctx context.Context, skillID int64) ([]repository.Quiz, error) {
	return s.repo.Quizzes(ctx, skillID)
}

// Quiz returns one quiz.
func (s *LearningService) Quiz(ctx context.Context, id int64) (repository.Quiz, error) {
	q, err := s.repo.Quiz(ctx, id)
	return q, notFound(err)
}

// Content lists learning material.
func (s *LearningService) Content(ctx context.Context, q repository.ContentQuery) ([]repository.ContentItem, error) {
	if q.MinDifficulty != 0 && q.MaxDifficulty != 0 && q.MinDifficulty > q.MaxDifficulty {
		return nil, &ValidationError{Field: "min_diff", Reason: "must not exceed max_diff"}
	}
	return s.repo.Content(ctx, q)
}

// ContentItem returns one content item.
func (s *LearningService) ContentItem(ctx context.Context, id int64) (repository.ContentItem, error) {
	c, err := s.repo.ContentItem(ctx, id)
	return c, notFound(err)
}

// StartAttempt opens an attempt of userID at quizID.
func (s *LearningService) StartAttempt(ctx context.Context, userID, quizID int64) (repository.Attempt, error) {
	a, err := s.repo.CreateAttempt(ctx, userID, quizID)
	return a, notFound(err)
}

// openAttempt loads an attempt owned by userID that is not yet submitted.
func (s *LearningService) openAttempt(ctx context.Context, userID, attemptID int64) (repository.Attempt, error) {
	a, err := s.repo.Attempt(ctx, attemptID)
	if err != nil {
		return repository.Attempt{}, notFound(err)
	}
	if a.UserID != userID {
		return repository.Attempt{}, ErrForbidden
	}
	if a.SubmittedAt != nil {
		return repository.Attempt{}, ErrAlreadySubmitted
	}
	return a, nil
}

// SaveResponse records an answer to a question of the attempt's quiz.
func (s *LearningService) SaveResponse(ctx context.Context, userID, attemptID, questionID int64, answer string) error {
	a, err := s.openAttempt(ctx, userID, attemptID)
	if err != nil {
		return err
	}
	quiz, err := s.repo.Quiz(ctx, a.QuizID)
	if err != nil {
		return fmt.Errorf("load quiz: %w", err)
	}
	for _, q := range quiz.Questions {
		if q.ID == questionID {
			return s.repo.SaveResponse(ctx, attemptID, questionID, answer)
		}
	}
	return &ValidationError{Field: "question_id", Reason: "not part of this quiz"}
}

// Submit grades the attempt, updates the user's mastery of the quiz's skill
// and closes the attempt. Unanswered questions count as wrong.
func (s *LearningService) Submit(ctx context.Context, userID, attemptID int64) (SubmitResult, error) {
	a, err := s.openAttempt(ctx, userID, attemptID)
	if err != nil {
		return SubmitResult{}, err
	}
	quiz, err := s.repo.Quiz(ctx, a.QuizID)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("load quiz: %w", err)
	}

	m, seen, err := s.repo.SkillMastery(ctx, userID, quiz.SkillID)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("load mastery: %w", err)
	}
	if !seen {
		m = repository.Mastery{SkillID: quiz.SkillID, PKnow: s.Model.Init}
	}

	correct := 0
	for _, q := range quiz.Questions {
		ok := Grade(q, a.Responses[q.ID])
		if ok {
			correct++
		}
		m.PKnow = s.Model.Update(m.PKnow, ok)
		m.Exposures++
	}
	score := 0.0
	if len(quiz.Questions) > 0 {
		score = float64(correct) / float64(len(quiz.Questions))
	}

	if err := s.repo.SaveMastery(ctx, userID, m); err != nil {
		return SubmitResult{}, fmt.Errorf("save mastery: %w", err)
	}
	if _, err := s.repo.FinishAttempt(ctx, attemptID, score, s.Now().UTC()); err != nil {
		return SubmitResult{}, notFound(err)
	}
	return SubmitResult{
		Message: fmt.Sprintf("%d of %d correct", correct, len(quiz.Questions)),
		Score:   score,
	}, nil
}

// Grade reports whether answer is right for q. Multiple-choice answers must
// be the id of the correct option; other answers are compared ignoring case
// and surrounding space.
func Grade(q repository.Question, answer string) bool {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return false
	}
	if q.Type == "mcq" {
		return answer == q.Answer
	}
	return strings.EqualFold(answer, strings.TrimSpace(q.Answer))
}

// Mastery lists the user's mastery per skill.
func (s *LearningService) Mastery(ctx context.Context, userID int64) ([]repository.Mastery, error) {
	return s.repo.Mastery(ctx, userID)
}
