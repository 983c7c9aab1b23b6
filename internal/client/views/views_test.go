package views

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/atinyakov/codepath/internal/client/api"
	"github.com/atinyakov/codepath/internal/client/session"
	"github.com/atinyakov/codepath/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeAPI struct {
	ProfileFunc       func(ctx context.Context) (models.Profile, error)
	SkillsFunc        func(ctx context.Context, domain string) ([]models.Skill, error)
	SkillFunc         func(ctx context.Context, id models.ID) (models.Skill, error)
	QuizzesFunc       func(ctx context.Context, skillID models.ID) ([]models.Quiz, error)
	QuizFunc          func(ctx context.Context, id models.ID) (models.Quiz, error)
	MasteryFunc       func(ctx context.Context) ([]models.Mastery, error)
	ContentFunc       func(ctx context.Context, f models.ContentFilter) ([]models.ContentItem, error)
	StartAttemptFunc  func(ctx context.Context, quizID models.ID) (models.Attempt, error)
	SaveResponseFunc  func(ctx context.Context, attemptID, questionID models.ID, answer string) error
	SubmitAttemptFunc func(ctx context.Context, attemptID models.ID) (models.AttemptResult, error)
}

func (f *fakeAPI) Profile(ctx context.Context) (models.Profile, error) { return f.ProfileFunc(ctx) }
func (f *fakeAPI) Skills(ctx context.Context, domain string) ([]models.Skill, error) {
	return f.SkillsFunc(ctx, domain)
}
func (f *fakeAPI) Skill(ctx context.Context, id models.ID) (models.Skill, error) {
	return f.SkillFunc(ctx, id)
}
func (f *fakeAPI) Quizzes(ctx context.Context, skillID models.ID) ([]models.Quiz, error) {
	return f.QuizzesFunc(ctx, skillID)
}
func (f *fakeAPI) Quiz(ctx context.Context, id models.ID) (models.Quiz, error) {
	return f.QuizFunc(ctx, id)
}
func (f *fakeAPI) Mastery(ctx context.Context) ([]models.Mastery, error) { return f.MasteryFunc(ctx) }
func (f *fakeAPI) Content(ctx context.Context, flt models.ContentFilter) ([]models.ContentItem, error) {
	return f.ContentFunc(ctx, flt)
}
func (f *fakeAPI) StartAttempt(ctx context.Context, quizID models.ID) (models.Attempt, error) {
	return f.StartAttemptFunc(ctx, quizID)
}
func (f *fakeAPI) SaveResponse(ctx context.Context, attemptID, questionID models.ID, answer string) error {
	return f.SaveResponseFunc(ctx, attemptID, questionID, answer)
}
func (f *fakeAPI) SubmitAttempt(ctx context.Context, attemptID models.ID) (models.AttemptResult, error) {
	return f.SubmitAttemptFunc(ctx, attemptID)
}

func ptr[T any](v T) *T { return &v }

func render(t *testing.T, v View) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, v.Render(&buf))
	return buf.String()
}

func TestRemote_Lifecycle(t *testing.T) {
	var r Remote[int]
	st, _, _ := r.Snapshot()
	assert.Equal(t, Idle, st)

	calls := 0
	fetch := func(context.Context) (int, error) { calls++; return 7, nil }
	require.NoError(t, r.Load(context.Background(), fetch))
	require.NoError(t, r.Load(context.Background(), fetch))
	st, v, _ := r.Snapshot()
	assert.Equal(t, Loaded, st)
	assert.Equal(t, 7, v)
	assert.Equal(t, 1, calls, "loaded resource is not fetched again")

	r.Reset()
	require.NoError(t, r.Load(context.Background(), fetch))
	assert.Equal(t, 2, calls)
}

func TestRemote_FailureIsSticky(t *testing.T) {
	var r Remote[string]
	boom := errors.New("boom")
	calls := 0
	fetch := func(context.Context) (string, error) { calls++; return "", boom }

	assert.ErrorIs(t, r.Load(context.Background(), fetch), boom)
	assert.ErrorIs(t, r.Load(context.Background(), fetch), boom)
	assert.Equal(t, 1, calls, "failed loads are not retried automatically")
	st, _, err := r.Snapshot()
	assert.Equal(t, Failed, st)
	assert.ErrorIs(t, err, boom)
}

func TestRemote_ResetDuringFetchDropsResult(t *testing.T) {
	var r Remote[int]
	started := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = r.Load(context.Background(), func(context.Context) (int, error) {
			close(started)
			<-release
			return 1, nil
		})
	}()
	<-started
	st, _, _ := r.Snapshot()
	assert.Equal(t, Pending, st)
	r.Reset()
	close(release)
	wg.Wait()

	st, v, _ := r.Snapshot()
	assert.Equal(t, Idle, st)
	assert.Zero(t, v)
}

func TestSkills_States(t *testing.T) {
	fa := &fakeAPI{SkillsFunc: func(_ context.Context, domain string) ([]models.Skill, error) {
		assert.Equal(t, "python", domain)
		return []models.Skill{
			{ID: "1", Name: "Loops", Domain: "python", Difficulty: ptr(2)},
			{ID: "2", Name: "Closures", Domain: "python"},
		}, nil
	}}
	v := &Skills{API: fa, Domain: "python"}
	assert.Equal(t, PendingText+"\n", render(t, v))

	require.NoError(t, v.Load(context.Background()))
	out := render(t, v)
	assert.Contains(t, out, "== Skills (python) ==")
	assert.Contains(t, out, "Loops")
	assert.Contains(t, out, "Closures")
	assert.Regexp(t, `Closures\s+python\s+-`, out)
}

func TestListViews_FailureRendersErrorPanel(t *testing.T) {
	boom := &api.StatusError{Status: 500}
	fa := &fakeAPI{
		SkillsFunc:  func(context.Context, string) ([]models.Skill, error) { return nil, boom },
		QuizzesFunc: func(context.Context, models.ID) ([]models.Quiz, error) { return nil, boom },
		ContentFunc: func(context.Context, models.ContentFilter) ([]models.ContentItem, error) { return nil, boom },
		MasteryFunc: func(context.Context) ([]models.Mastery, error) { return nil, api.ErrUnreachable },
		ProfileFunc: func(context.Context) (models.Profile, error) { return models.Profile{}, boom },
	}
	for name, v := range map[string]View{
		"skills":   &Skills{API: fa},
		"quizzes":  &Quizzes{API: fa},
		"content":  &Content{API: fa},
		"progress": &Progress{API: fa},
		"profile":  &Profile{API: fa},
	} {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			err := Show(context.Background(), v, &buf)
			assert.Error(t, err)
			assert.Equal(t, "[!] "+ErrorText+"\n", buf.String())
		})
	}
}

func TestQuiz_RendersInOrder(t *testing.T) {
	fa := &fakeAPI{QuizFunc: func(_ context.Context, id models.ID) (models.Quiz, error) {
		return models.Quiz{ID: id, Title: "Basics", Questions: []models.Question{
			{ID: "q2", Type: "short_answer", Prompt: "Second?", Order: 2},
			{ID: "q1", Type: "mcq", Prompt: "First?", Order: 1, Options: []models.Option{
				{ID: "o2", Text: "No", Order: 2},
				{ID: "o1", Text: "Yes", Order: 1},
			}},
		}}, nil
	}}
	v := &Quiz{API: fa, ID: "9"}
	require.NoError(t, v.Load(context.Background()))
	out := render(t, v)

	assert.Less(t, strings.Index(out, "First?"), strings.Index(out, "Second?"))
	assert.Less(t, strings.Index(out, "a) Yes"), strings.Index(out, "b) No"))
	assert.Contains(t, out, "== Basics ==")
}

func TestContent_PassesFilter(t *testing.T) {
	want := models.ContentFilter{Query: "loops", Limit: 5}
	fa := &fakeAPI{ContentFunc: func(_ context.Context, f models.ContentFilter) ([]models.ContentItem, error) {
		assert.Equal(t, want, f)
		return []models.ContentItem{{ID: "c1", Title: "For loops", ContentType: "article", Difficulty: 1, EstMinutes: ptr(5)}}, nil
	}}
	v := &Content{API: fa, Filter: want}
	require.NoError(t, v.Load(context.Background()))
	out := render(t, v)
	assert.Contains(t, out, "For loops")
	assert.Contains(t, out, "article")
}

func TestHomeAndDashboard(t *testing.T) {
	user := &models.User{ID: "1", Email: "a@x.com", CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
	st := session.State{Loading: true}
	get := func() session.State { return st }

	home := &Home{State: get}
	assert.Contains(t, render(t, home), "Checking your session")

	st = session.State{}
	assert.Contains(t, render(t, home), "login, signup")

	st = session.State{User: user, Token: "t"}
	assert.Contains(t, render(t, home), "Signed in as a@x.com")

	out := render(t, &Dashboard{State: get})
	assert.Contains(t, out, "a@x.com")
	assert.Contains(t, out, "2024-01-02T03:04:05Z")
	assert.Regexp(t, `Display name:\s+-`, out)
}

func TestProgress_JoinsSkillNamesAndExports(t *testing.T) {
	fa := &fakeAPI{
		MasteryFunc: func(context.Context) ([]models.Mastery, error) {
			return []models.Mastery{
				{SkillID: "1", PKnow: 0.25, Exposures: 2},
				{SkillID: "2", PKnow: 0.9, Exposures: 5},
				{SkillID: "99", PKnow: 0.5, Exposures: 1},
			}, nil
		},
		SkillsFunc: func(context.Context, string) ([]models.Skill, error) {
			return []models.Skill{{ID: "1", Name: "Loops"}, {ID: "2", Name: "Closures"}}, nil
		},
	}
	v := &Progress{API: fa}

	assert.Error(t, v.Export(filepath.Join(t.TempDir(), "early.xlsx")), "nothing loaded yet")

	require.NoError(t, v.Load(context.Background()))
	out := render(t, v)
	assert.Less(t, strings.Index(out, "Closures"), strings.Index(out, "Loops"), "sorted by mastery")
	assert.Contains(t, out, "90.0%")
	assert.Contains(t, out, "skill 99")

	path := filepath.Join(t.TempDir(), "progress.xlsx")
	require.NoError(t, v.Export(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(ProgressSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Skill ID", "Skill", "Mastery", "Exposures"}, rows[0])
	assert.Equal(t, "Closures", rows[1][1])
	assert.Equal(t, "5", rows[1][3])
}

func TestSet_Invalidate(t *testing.T) {
	s := NewSet()
	builds := 0
	build := func() View { builds++; return &Home{} }

	a := s.Get("/", build)
	b := s.Get("/", build)
	assert.Same(t, a, b)
	assert.Equal(t, 1, builds)

	s.Invalidate()
	assert.Equal(t, 0, s.Len())
	c := s.Get("/", build)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, builds)
}
