package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/atinyakov/codepath/internal/models"
)

// call runs req and decodes a 2xx payload into out (when non-nil). Non-2xx
// answers become *StatusError.
func (c *Client) call(ctx context.Context, req Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if !resp.OK {
		return newStatusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := resp.Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.Path, err)
	}
	return nil
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (models.TokenPair, error) {
	var pair models.TokenPair
	err := c.call(ctx, Request{Method: http.MethodPost, Path: "/auth/login", Body: creds, SkipRefresh: true}, &pair)
	return pair, err
}

// Signup creates an account and returns its first token.
func (c *Client) Signup(ctx context.Context, req models.SignupRequest) (models.TokenPair, error) {
	var pair models.TokenPair
	err := c.call(ctx, Request{Method: http.MethodPost, Path: "/auth/signup", Body: req, SkipRefresh: true}, &pair)
	return pair, err
}

// Refresh asks the API for a new token in exchange for token ("" uses the stored one).
// The result is not stored.
func (c *Client) Refresh(ctx context.Context, token string) (models.TokenPair, error) {
	var pair models.TokenPair
	err := c.call(ctx, Request{Method: http.MethodPost, Path: pathRefresh, Token: token, SkipRefresh: true}, &pair)
	return pair, err
}

// Logout asks the API to revoke token.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.call(ctx, Request{Method: http.MethodPost, Path: "/auth/logout", Token: token, SkipRefresh: true}, nil)
}

// Me returns the identity behind token ("" uses the stored one).
func (c *Client) Me(ctx context.Context, token string) (models.User, error) {
	var u models.User
	err := c.call(ctx, Request{Path: "/auth/me", Token: token}, &u)
	return u, err
}

// Profile returns the extended profile of the current user.
func (c *Client) Profile(ctx context.Context) (models.Profile, error) {
	var p models.Profile
	err := c.call(ctx, Request{Path: "/users/me"}, &p)
	return p, err
}

// UpdateProfile applies upd and returns the stored profile.
func (c *Client) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (models.Profile, error) {
	var p models.Profile
	err := c.call(ctx, Request{Method: http.MethodPut, Path: "/users/profile", Body: upd}, &p)
	return p, err
}

// Skills lists skills, optionally restricted to one domain.
func (c *Client) Skills(ctx context.Context, domain string) ([]models.Skill, error) {
	q := url.Values{}
	if domain != "" {
		q.Set("domain", domain)
	}
	var skills []models.Skill
	err := c.call(ctx, Request{Path: "/skills", Query: q}, &skills)
	return skills, err
}

// Skill returns one skill.
func (c *Client) Skill(ctx context.Context, id models.ID) (models.Skill, error) {
	var s models.Skill
	err := c.call(ctx, Request{Path: "/skills/" + url.PathEscape(id.String())}, &s)
	return s, err
}

// CreateSkill validates and posts a new skill.
func (c *Client) CreateSkill(ctx context.Context, in models.SkillCreate) (models.Skill, error) {
	if err := in.Validate(); err != nil {
		return models.Skill{}, err
	}
	var s models.Skill
	err := c.call(ctx, Request{Method: http.MethodPost, Path: "/skills", Body: in}, &s)
	return s, err
}

// Quizzes lists quizzes, optionally for one skill.
func (c *Client) Quizzes(ctx context.Context, skillID models.ID) ([]models.Quiz, error) {
	q := url.Values{}
	if skillID != "" {
		q.Set("skill_id", skillID.String())
	}
	var quizzes []models.Quiz
	err := c.call(ctx, Request{Path: "/quizzes", Query: q}, &quizzes)
	return quizzes, err
}

// Quiz returns one quiz with its questions.
func (c *Client) Quiz(ctx context.Context, id models.ID) (models.Quiz, error) {
	var q models.Quiz
	err := c.call(ctx, Request{Path: "/quizzes/" + url.PathEscape(id.String())}, &q)
	return q, err
}

// StartAttempt opens a new attempt at quizID.
func (c *Client) StartAttempt(ctx context.Context, quizID models.ID) (models.Attempt, error) {
	var a models.Attempt
	err := c.call(ctx, Request{Method: http.MethodPost, Path: "/attempts/start", Body: models.AttemptStart{QuizID: quizID}}, &a)
	return a, err
}

// SaveResponse records (or replaces) the answer to one question of an open attempt.
func (c *Client) SaveResponse(ctx context.Context, attemptID, questionID models.ID, answer string) error {
	return c.call(ctx, Request{
		Method: http.MethodPost,
		Path:   "/attempts/" + url.PathEscape(attemptID.String()) + "/response",
		Body:   models.ResponseSave{QuestionID: questionID, Answer: answer},
	}, nil)
}

// SubmitAttempt closes an attempt and returns its grade.
func (c *Client) SubmitAttempt(ctx context.Context, attemptID models.ID) (models.AttemptResult, error) {
	var r models.AttemptResult
	err := c.call(ctx, Request{Method: http.MethodPost, Path: "/attempts/" + url.PathEscape(attemptID.String()) + "/submit"}, &r)
	return r, err
}

// Mastery returns the current user's per-skill mastery.
func (c *Client) Mastery(ctx context.Context) ([]models.Mastery, error) {
	var m []models.Mastery
	err := c.call(ctx, Request{Path: "/mastery"}, &m)
	return m, err
}

// Content lists learning material matching f.
func (c *Client) Content(ctx context.Context, f models.ContentFilter) ([]models.ContentItem, error) {
	q := url.Values{}
	if f.Query != "" {
		q.Set("q", f.Query)
	}
	if f.Type != "" {
		q.Set("type", f.Type)
	}
	if f.SkillID != "" {
		q.Set("skill_id", f.SkillID.String())
	}
	if f.MinDifficulty > 0 {
		q.Set("min_diff", strconv.Itoa(f.MinDifficulty))
	}
	if f.MaxDifficulty > 0 {
		q.Set("max_diff", strconv.Itoa(f.MaxDifficulty))
	}
	if f.Skip > 0 {
		q.Set("skip", strconv.Itoa(f.Skip))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	var items []models.ContentItem
	err := c.call(ctx, Request{Path: "/content", Query: q}, &items)
	return items, err
}

// ContentItem returns one piece of content.
func (c *Client) ContentItem(ctx context.Context, id models.ID) (models.ContentItem, error) {
	var item models.ContentItem
	err := c.call(ctx, Request{Path: "/content/" + url.PathEscape(id.String())}, &item)
	return item, err
}
