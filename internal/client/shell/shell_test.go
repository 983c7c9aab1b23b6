package shell

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/atinyakov/codepath/internal/client/api"
	"github.com/atinyakov/codepath/internal/client/session"
	"github.com/atinyakov/codepath/internal/client/tokenstore"
	"github.com/atinyakov/codepath/internal/client/views"
	"github.com/atinyakov/codepath/internal/config"
	"github.com/atinyakov/codepath/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// script answers prompts from a fixed list and reports end of input after.
type script struct {
	answers []string
	asked   []string
}

func (s *script) Prompt(label string) (string, bool) {
	s.asked = append(s.asked, label)
	if len(s.answers) == 0 {
		return "", false
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a, true
}

type harness struct {
	shell  *Shell
	ctrl   *session.Controller
	tokens *tokenstore.MemoryStore
	in     *script
	out    *bytes.Buffer
}

func newHarness(t *testing.T, ttl time.Duration) *harness {
	t.Helper()
	ctx := context.Background()
	srv, err := server.New(ctx, &config.ServerOptions{TokenTTL: ttl, RefreshGrace: time.Hour, Demo: true}, zap.NewNop())
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)

	tokens := tokenstore.NewMemoryStore("")
	client := api.New(ts.URL, tokens, api.WithHTTPClient(ts.Client()))
	ctrl := session.New(ctx, client, tokens, zap.NewNop())
	client.OnTokenChange(ctrl.TokenChanged)
	require.NoError(t, ctrl.Bootstrap(ctx))

	h := &harness{ctrl: ctrl, tokens: tokens, in: &script{}, out: &bytes.Buffer{}}
	h.shell = New(client, ctrl, h.in, h.out, zap.NewNop())
	return h
}

func (h *harness) exec(t *testing.T, line string, answers ...string) string {
	t.Helper()
	h.in.answers = answers
	h.out.Reset()
	require.NoError(t, h.shell.Exec(context.Background(), strings.Fields(line)))
	return h.out.String()
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	out := h.exec(t, "login "+server.DemoEmail, server.DemoPassword)
	require.Contains(t, out, "Signed in as "+server.DemoEmail)
}

func TestLocationRoundTrip(t *testing.T) {
	tests := []struct {
		args     []string
		location string
	}{
		{[]string{"dashboard"}, "/dashboard"},
		{[]string{"skills", "web dev"}, "/skills/web%20dev"},
		{[]string{"take", "3"}, "/take/3"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.location, Location(tt.args))
		assert.Equal(t, tt.args, CommandLine(tt.location))
	}
	assert.Equal(t, []string{"home"}, CommandLine("/"))
}

func TestExec_UnknownAndUsage(t *testing.T) {
	h := newHarness(t, time.Hour)

	out := h.exec(t, "frobnicate")
	assert.Contains(t, out, `Unknown command "frobnicate"`)

	err := h.shell.Exec(context.Background(), []string{"take"})
	assert.ErrorIs(t, err, ErrUsage)

	err = h.shell.Exec(context.Background(), []string{"quit"})
	assert.ErrorIs(t, err, ErrExit)
}

func TestExec_PublicCatalog(t *testing.T) {
	h := newHarness(t, time.Hour)

	out := h.exec(t, "skills")
	assert.Contains(t, out, "Python loops")
	assert.Contains(t, out, "Go concurrency")

	out = h.exec(t, "quiz 1")
	assert.Contains(t, out, "== Loop basics ==")
	assert.Contains(t, out, "b) break")

	h.out.Reset()
	err := h.shell.Exec(context.Background(), []string{"skill", "999"})
	var se *api.StatusError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, h.out.String(), views.ErrorText)
}

func TestExec_GuardRedirectsAndReplays(t *testing.T) {
	h := newHarness(t, time.Hour)

	out := h.exec(t, "profile", server.DemoEmail, server.DemoPassword)

	assert.Contains(t, out, "Please log in to continue.")
	assert.Contains(t, out, "Signed in as "+server.DemoEmail)
	assert.Contains(t, out, "== Profile ==")
	assert.Contains(t, out, server.DemoEmail)
	assert.Equal(t, []string{"Email: ", "Password: "}, h.in.asked)
}

func TestExec_GuardKeepsUserOutOnBadPassword(t *testing.T) {
	h := newHarness(t, time.Hour)

	out := h.exec(t, "dashboard", server.DemoEmail, "wrong-password")

	assert.Contains(t, out, views.MsgInvalidCredentials)
	assert.NotContains(t, out, "== Dashboard ==")
	assert.Nil(t, h.ctrl.State().User)
}

func TestExec_SignupDuplicate(t *testing.T) {
	h := newHarness(t, time.Hour)

	out := h.exec(t, "signup "+server.DemoEmail, "another-pass", "")
	assert.Contains(t, out, views.MsgDuplicateEmail)
	assert.Nil(t, h.ctrl.State().User)

	out = h.exec(t, "signup new@example.com", "another-pass", "Newbie")
	assert.Contains(t, out, "Account created for new@example.com")
	assert.Contains(t, out, "== Dashboard ==")
	assert.Contains(t, out, "Newbie")
}

func TestExec_TakeQuizUpdatesProgress(t *testing.T) {
	h := newHarness(t, time.Hour)
	h.login(t)

	out := h.exec(t, "progress")
	assert.NotContains(t, out, "Python loops")

	out = h.exec(t, "take 1", "b", "2", "a")
	assert.Contains(t, out, "3 of 3 correct")
	assert.Contains(t, out, "Score: 100%")

	out = h.exec(t, "progress")
	assert.Contains(t, out, "Python loops")
}

func TestLogoutInvalidatesViews(t *testing.T) {
	h := newHarness(t, time.Hour)
	h.login(t)

	h.exec(t, "profile")
	h.exec(t, "skills")
	require.Positive(t, h.shell.views.Len())

	out := h.exec(t, "logout")
	assert.Contains(t, out, "Logged out")
	assert.Zero(t, h.shell.views.Len())

	_, ok, err := h.tokens.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	out = h.exec(t, "profile")
	assert.Contains(t, out, "Please log in to continue.")
}

func TestExec_SilentRefreshOfExpiredToken(t *testing.T) {
	h := newHarness(t, 200*time.Millisecond)
	h.login(t)

	before, ok, err := h.tokens.Get(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(300 * time.Millisecond)

	out := h.exec(t, "profile")
	assert.Contains(t, out, "== Profile ==")
	assert.Contains(t, out, server.DemoEmail)

	after, ok, err := h.tokens.Get(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEqual(t, before, after)
	assert.Equal(t, after, h.ctrl.State().Token)
	assert.NotNil(t, h.ctrl.State().User)
}
