package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// Memory keeps every record in process memory behind one RWMutex. Records
// are copied on the way in and out so callers never share state with it.
type Memory struct {
	mu sync.RWMutex

	// one id sequence per table
	nextUser, nextSkill, nextQuiz, nextQuestion, nextOption, nextContent, nextAttempt int64

	users    map[int64]*User
	emails   map[string]int64
	tokens   map[string]Token
	skills   map[int64]*Skill
	slugs    map[string]int64
	quizzes  map[int64]*Quiz
	content  map[int64]*ContentItem
	attempts map[int64]*Attempt
	mastery  map[int64]map[int64]Mastery
}

// NewMemory returns an empty repository.
func NewMemory() *Memory {
	return &Memory{
		users:    make(map[int64]*User),
		emails:   make(map[string]int64),
		tokens:   make(map[string]Token),
		skills:   make(map[int64]*Skill),
		slugs:    make(map[string]int64),
		quizzes:  make(map[int64]*Quiz),
		content:  make(map[int64]*ContentItem),
		attempts: make(map[int64]*Attempt),
		mastery:  make(map[int64]map[int64]Mastery),
	}
}

// next advances seq and returns the new id. Callers hold m.mu.
func next(seq *int64) int64 {
	*seq++
	return *seq
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser stores a new account. Emails are compared case-insensitively;
// ErrConflict is returned when the email is taken.
func (m *Memory) CreateUser(_ context.Context, u User) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := normalizeEmail(u.Email)
	if _, ok := m.emails[key]; ok {
		return User{}, ErrConflict
	}
	u.ID = next(&m.nextUser)
	u.Email = key
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	m.users[u.ID] = &u
	m.emails[key] = u.ID
	return u, nil
}

// UserByEmail looks an account up by email.
func (m *Memory) UserByEmail(_ context.Context, email string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.emails[normalizeEmail(email)]
	if !ok {
		return User{}, ErrNotFound
	}
	return *m.users[id], nil
}

// UserByID looks an account up by id.
func (m *Memory) UserByID(_ context.Context, id int64) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return *u, nil
}

// UpdateProfile applies ch to the account and returns the result.
func (m *Memory) UpdateProfile(_ context.Context, id int64, ch ProfileChanges) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	if ch.DisplayName != nil {
		u.DisplayName = ch.DisplayName
	}
	if ch.LearningGoals != nil {
		u.LearningGoals = ch.LearningGoals
	}
	if ch.Preferences != nil {
		u.Preferences = ch.Preferences
	}
	return *u, nil
}

// SaveToken stores or replaces a token.
func (m *Memory) SaveToken(_ context.Context, t Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[t.Value] = t
	return nil
}

// Token returns the token with the given value.
func (m *Memory) Token(_ context.Context, value string) (Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tokens[value]
	if !ok {
		return Token{}, ErrNotFound
	}
	return t, nil
}

// DeleteToken removes a token. Deleting an unknown token is not an error.
func (m *Memory) DeleteToken(_ context.Context, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, value)
	return nil
}

// DeleteTokensExpiredBefore removes every token whose expiry is before
// cutoff and returns how many were removed.
func (m *Memory) DeleteTokensExpiredBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for v, t := range m.tokens {
		if t.ExpiresAt.Before(cutoff) {
			delete(m.tokens, v)
			n++
		}
	}
	return n, nil
}

// CreateSkill stores a skill. ErrConflict is returned for a duplicate slug.
func (m *Memory) CreateSkill(_ context.Context, s Skill) (Skill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.slugs[s.Slug]; ok {
		return Skill{}, ErrConflict
	}
	now := time.Now().UTC()
	s.ID = next(&m.nextSkill)
	s.CreatedAt, s.UpdatedAt = now, now
	m.skills[s.ID] = &s
	m.slugs[s.Slug] = s.ID
	return s, nil
}

// Skills lists skills ordered by id, restricted to domain when it is set.
func (m *Memory) Skills(_ context.Context, domain string) ([]Skill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Skill, 0, len(m.skills))
	for _, s := range m.skills {
		if domain != "" && !strings.EqualFold(s.Domain, domain) {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Skill returns one skill.
func (m *Memory) Skill(_ context.Context, id int64) (Skill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.skills[id]
	if !ok {
		return Skill{}, ErrNotFound
	}
	return *s, nil
}

// CreateQuiz stores a quiz and assigns ids to it, its questions and options.
// Question answers that refer to an option by its position ("#2") are
// rewritten to that option's id.
func (m *Memory) CreateQuiz(_ context.Context, q Quiz) (Quiz, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.skills[q.SkillID]; !ok {
		return Quiz{}, ErrNotFound
	}
	q.ID = next(&m.nextQuiz)
	qs := make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		question.ID = next(&m.nextQuestion)
		opts := make([]Option, len(question.Options))
		for j, o := range question.Options {
			o.ID = next(&m.nextOption)
			opts[j] = o
			if question.Answer == positional(j) {
				question.Answer = itoa(o.ID)
			}
		}
		question.Options = opts
		qs[i] = question
	}
	q.Questions = qs
	m.quizzes[q.ID] = &q
	return cloneQuiz(q), nil
}

// Quizzes lists quizzes ordered by id, restricted to skillID when non-zero.
func (m *Memory) Quizzes(_ context.Context, skillID int64) ([]Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Quiz, 0, len(m.quizzes))
	for _, q := range m.quizzes {
		if skillID != 0 && q.SkillID != skillID {
			continue
		}
		out = append(out, cloneQuiz(*q))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Quiz returns one quiz with its questions.
func (m *Memory) Quiz(_ context.Context, id int64) (Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quizzes[id]
	if !ok {
		return Quiz{}, ErrNotFound
	}
	return cloneQuiz(*q), nil
}

// CreateContent stores a content item.
func (m *Memory) CreateContent(_ context.Context, c ContentItem) (ContentItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = next(&m.nextContent)
	m.content[c.ID] = &c
	return c, nil
}

// Content lists content matching q, ordered by id, then windowed by Skip and Limit.
func (m *Memory) Content(_ context.Context, q ContentQuery) ([]ContentItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	text := strings.ToLower(q.Text)
	out := make([]ContentItem, 0)
	for _, c := range m.content {
		switch {
		case text != "" && !strings.Contains(strings.ToLower(c.Title), text) && !strings.Contains(c.Slug, text):
			continue
		case q.Type != "" && c.ContentType != q.Type:
			continue
		case q.SkillID != 0 && (c.SkillID == nil || *c.SkillID != q.SkillID):
			continue
		case q.MinDifficulty != 0 && c.Difficulty < q.MinDifficulty:
			continue
		case q.MaxDifficulty != 0 && c.Difficulty > q.MaxDifficulty:
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	if q.Skip >= len(out) {
		return []ContentItem{}, nil
	}
	out = out[q.Skip:]
	if q.Limit > 0 && q.Limit < len(out) {
		out = out[:q.Limit]
	}
	return out, nil
}

// ContentItem returns one content item.
func (m *Memory) ContentItem(_ context.Context, id int64) (ContentItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.content[id]
	if !ok {
		return ContentItem{}, ErrNotFound
	}
	return *c, nil
}

// CreateAttempt opens an attempt of userID at quizID.
func (m *Memory) CreateAttempt(_ context.Context, userID, quizID int64) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.quizzes[quizID]; !ok {
		return Attempt{}, ErrNotFound
	}
	a := &Attempt{
		ID:        next(&m.nextAttempt),
		UserID:    userID,
		QuizID:    quizID,
		StartedAt: time.Now().UTC(),
		Responses: make(map[int64]string),
	}
	m.attempts[a.ID] = a
	return cloneAttempt(*a), nil
}

// Attempt returns one attempt, responses included.
func (m *Memory) Attempt(_ context.Context, id int64) (Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[id]
	if !ok {
		return Attempt{}, ErrNotFound
	}
	return cloneAttempt(*a), nil
}

// SaveResponse records the answer to one question, replacing any earlier one.
func (m *Memory) SaveResponse(_ context.Context, attemptID, questionID int64, answer string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return ErrNotFound
	}
	a.Responses[questionID] = answer
	return nil
}

// FinishAttempt marks an attempt submitted with the given score.
func (m *Memory) FinishAttempt(_ context.Context, id int64, score float64, at time.Time) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[id]
	if !ok {
		return Attempt{}, ErrNotFound
	}
	a.SubmittedAt = &at
	a.Score = &score
	return cloneAttempt(*a), nil
}

// Mastery lists a user's mastery ordered by skill id.
func (m *Memory) Mastery(_ context.Context, userID int64) ([]Mastery, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Mastery, 0, len(m.mastery[userID]))
	for _, ms := range m.mastery[userID] {
		out = append(out, ms)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SkillID < out[j].SkillID })
	return out, nil
}

// SkillMastery returns the mastery of one skill; ok is false when the user
// has never been exposed to it.
func (m *Memory) SkillMastery(_ context.Context, userID, skillID int64) (Mastery, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ms, ok := m.mastery[userID][skillID]
	return ms, ok, nil
}

// SaveMastery stores a user's mastery of one skill.
func (m *Memory) SaveMastery(_ context.Context, userID int64, ms Mastery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mastery[userID] == nil {
		m.mastery[userID] = make(map[int64]Mastery)
	}
	m.mastery[userID][ms.SkillID] = ms
	return nil
}

func cloneQuiz(q Quiz) Quiz {
	qs := make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		question.Options = append([]Option(nil), question.Options...)
		qs[i] = question
	}
	q.Questions = qs
	return q
}

func cloneAttempt(a Attempt) Attempt {
	r := make(map[int64]string, len(a.Responses))
	for k, v := range a.Responses {
		r[k] = v
	}
	a.Responses = r
	return a
}
