// Package shell is the interactive front end of the client. It maps commands
// to locations, runs them through the route guard, and renders the matching
// view.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/atinyakov/codepath/internal/client/guard"
	"github.com/atinyakov/codepath/internal/client/session"
	"github.com/atinyakov/codepath/internal/client/views"
	"github.com/atinyakov/codepath/internal/models"
	"go.uber.org/zap"
)

// ErrExit is returned by Exec for the exit command.
var ErrExit = errors.New("exit")

// ErrUsage is wrapped by Exec when a command is called with bad arguments.
var ErrUsage = errors.New("usage")

// API is everything the shell reads from the CodePath API.
type API interface {
	views.API
	views.Attempter
}

// Shell runs commands against one session.
type Shell struct {
	api     API
	session *session.Controller
	views   *views.Set
	in      views.Prompter
	out     io.Writer
	log     *zap.Logger

	mu       sync.Mutex
	lastUser models.ID
	lastTok  string
}

// New returns a Shell reading answers from in and writing to out. The view
// set is invalidated whenever the signed-in identity changes.
func New(client API, ctrl *session.Controller, in views.Prompter, out io.Writer, log *zap.Logger) *Shell {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Shell{
		api:     client,
		session: ctrl,
		views:   views.NewSet(),
		in:      in,
		out:     out,
		log:     log,
	}
	s.track(ctrl.State())
	ctrl.Subscribe(s.onSession)
	return s
}

func (s *Shell) track(st session.State) bool {
	var uid models.ID
	if st.User != nil {
		uid = st.User.ID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := uid != s.lastUser || st.Token != s.lastTok
	s.lastUser, s.lastTok = uid, st.Token
	return changed
}

func (s *Shell) onSession(st session.State) {
	if s.track(st) {
		s.log.Debug("session changed, dropping cached views")
		s.views.Invalidate()
	}
}

// Run reads commands until input ends or exit is typed. It resolves the
// session in the background and, when revalidate is positive, re-checks it on
// that interval.
func (s *Shell) Run(ctx context.Context, revalidate time.Duration) error {
	if s.session.State().Loading {
		go func() {
			if err := s.session.Bootstrap(ctx); err != nil {
				s.log.Debug("session bootstrap failed", zap.Error(err))
			}
		}()
	}
	if revalidate > 0 {
		stop, err := session.StartRevalidation(s.session, revalidate, s.log)
		if err != nil {
			return err
		}
		defer stop()
	}

	fmt.Fprintln(s.out, "CodePath shell. Type 'help' for commands.")
	for {
		line, ok := s.in.Prompt("codepath> ")
		if !ok {
			return nil
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		err := s.Exec(ctx, args)
		switch {
		case errors.Is(err, ErrExit):
			fmt.Fprintln(s.out, "Bye")
			return nil
		case errors.Is(err, ErrUsage):
			fmt.Fprintln(s.out, err)
		case err != nil:
			s.log.Debug("command failed", zap.Strings("args", args), zap.Error(err))
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Exec runs one command.
func (s *Shell) Exec(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: no command", ErrUsage)
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(s.out, "Unknown command %q. Type 'help' for a list of commands.\n", args[0])
		return nil
	}
	if len(args)-1 < cmd.minArgs {
		return fmt.Errorf("%w: %s", ErrUsage, cmd.usage)
	}
	if !cmd.protected {
		return cmd.run(s, ctx, args[1:])
	}

	location := Location(args)
	for {
		d := guard.Check(s.session.State(), location)
		switch d.Outcome {
		case guard.Allow:
			return cmd.run(s, ctx, args[1:])
		case guard.Pending:
			fmt.Fprintln(s.out, views.PendingText)
			if err := s.awaitSession(ctx); err != nil {
				return err
			}
		case guard.Redirect:
			fmt.Fprintln(s.out, "Please log in to continue.")
			return s.login(ctx, "", d.From)
		}
	}
}

// awaitSession blocks until the session stops loading.
func (s *Shell) awaitSession(ctx context.Context) error {
	done := make(chan struct{})
	var once sync.Once
	cancel := s.session.Subscribe(func(st session.State) {
		if !st.Loading {
			once.Do(func() { close(done) })
		}
	})
	defer cancel()
	if !s.session.State().Loading {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Location turns a command line into a guard location, e.g.
// ["skills", "web dev"] becomes "/skills/web%20dev".
func Location(args []string) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = url.PathEscape(a)
	}
	return "/" + strings.Join(parts, "/")
}

// CommandLine is the inverse of Location.
func CommandLine(location string) []string {
	location = strings.Trim(location, "/")
	if location == "" {
		return []string{"home"}
	}
	parts := strings.Split(location, "/")
	for i, p := range parts {
		if u, err := url.PathUnescape(p); err == nil {
			parts[i] = u
		}
	}
	return parts
}

func tabwriterFor(s *Shell) *tabwriter.Writer {
	return tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
}
