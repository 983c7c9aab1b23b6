package shell

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/atinyakov/codepath/internal/client/views"
	"github.com/atinyakov/codepath/internal/models"
	"go.uber.org/zap"
)

type command struct {
	usage     string
	help      string
	minArgs   int
	protected bool
	run       func(s *Shell, ctx context.Context, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"help":   {usage: "help", help: "list commands", run: (*Shell).help},
		"exit":   {usage: "exit", help: "leave the shell", run: func(*Shell, context.Context, []string) error { return ErrExit }},
		"home":   {usage: "home", help: "landing page", run: (*Shell).home},
		"login":  {usage: "login [email]", help: "sign in", run: (*Shell).loginCmd},
		"signup": {usage: "signup [email]", help: "create an account", run: (*Shell).signup},
		"logout": {usage: "logout", help: "sign out", run: (*Shell).logout},

		"dashboard": {usage: "dashboard", help: "your account", protected: true, run: (*Shell).dashboard},
		"me":        {usage: "me", help: "alias of dashboard", protected: true, run: (*Shell).dashboard},
		"profile":   {usage: "profile", help: "extended profile", protected: true, run: (*Shell).profile},

		"skills":  {usage: "skills [domain]", help: "list skills", run: (*Shell).skills},
		"skill":   {usage: "skill <id>", help: "show a skill", minArgs: 1, run: (*Shell).skill},
		"content": {usage: "content [query]", help: "search learning content", run: (*Shell).content},

		"quizzes":  {usage: "quizzes [skill id]", help: "list quizzes", run: (*Shell).quizzes},
		"quiz":     {usage: "quiz <id>", help: "show a quiz", minArgs: 1, run: (*Shell).quiz},
		"take":     {usage: "take <quiz id>", help: "answer a quiz", minArgs: 1, protected: true, run: (*Shell).take},
		"progress": {usage: "progress [file.xlsx]", help: "mastery per skill, optionally exported", protected: true, run: (*Shell).progress},
	}
	commands["quit"] = commands["exit"]
}

func first(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func (s *Shell) help(context.Context, []string) error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	tw := tabwriterFor(s)
	for _, name := range names {
		c := commands[name]
		lock := ""
		if c.protected {
			lock = " (login required)"
		}
		fmt.Fprintf(tw, "  %s\t%s%s\n", c.usage, c.help, lock)
	}
	return tw.Flush()
}

func (s *Shell) show(ctx context.Context, location string, build func() views.View) error {
	v := s.views.Get(location, build)
	return views.Show(ctx, v, s.out)
}

func (s *Shell) home(ctx context.Context, _ []string) error {
	return s.show(ctx, "/home", func() views.View { return &views.Home{State: s.session.State} })
}

func (s *Shell) dashboard(ctx context.Context, _ []string) error {
	return s.show(ctx, "/dashboard", func() views.View { return &views.Dashboard{State: s.session.State} })
}

func (s *Shell) profile(ctx context.Context, _ []string) error {
	return s.show(ctx, "/profile", func() views.View { return &views.Profile{API: s.api} })
}

func (s *Shell) skills(ctx context.Context, args []string) error {
	domain := strings.Join(args, " ")
	return s.show(ctx, Location([]string{"skills", domain}), func() views.View {
		return &views.Skills{API: s.api, Domain: domain}
	})
}

func (s *Shell) skill(ctx context.Context, args []string) error {
	id := models.ID(args[0])
	return s.show(ctx, Location([]string{"skill", args[0]}), func() views.View {
		return &views.Skill{API: s.api, ID: id}
	})
}

func (s *Shell) quizzes(ctx context.Context, args []string) error {
	skillID := models.ID(first(args))
	return s.show(ctx, Location([]string{"quizzes", skillID.String()}), func() views.View {
		return &views.Quizzes{API: s.api, SkillID: skillID}
	})
}

func (s *Shell) quiz(ctx context.Context, args []string) error {
	id := models.ID(args[0])
	return s.show(ctx, Location([]string{"quiz", args[0]}), func() views.View {
		return &views.Quiz{API: s.api, ID: id}
	})
}

func (s *Shell) content(ctx context.Context, args []string) error {
	q := strings.Join(args, " ")
	return s.show(ctx, Location([]string{"content", q}), func() views.View {
		return &views.Content{API: s.api, Filter: models.ContentFilter{Query: q}}
	})
}

func (s *Shell) progress(ctx context.Context, args []string) error {
	v := s.views.Get("/progress", func() views.View { return &views.Progress{API: s.api} })
	if err := views.Show(ctx, v, s.out); err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}
	if err := v.(*views.Progress).Export(args[0]); err != nil {
		fmt.Fprintf(s.out, "Export failed: %v\n", err)
		return err
	}
	fmt.Fprintf(s.out, "Progress exported to %s\n", args[0])
	return nil
}

func (s *Shell) take(ctx context.Context, args []string) error {
	_, err := views.TakeQuiz(ctx, s.api, models.ID(args[0]), s.in, s.out)
	if err != nil {
		fmt.Fprintf(s.out, "Quiz not completed: %v\n", err)
		return err
	}
	// a submitted attempt changes mastery
	s.views.Invalidate()
	return nil
}

func (s *Shell) loginCmd(ctx context.Context, args []string) error {
	return s.login(ctx, first(args), "")
}

// login prompts for missing credentials, signs in, and replays from on
// success.
func (s *Shell) login(ctx context.Context, email, from string) error {
	if email == "" {
		var ok bool
		if email, ok = s.in.Prompt("Email: "); !ok {
			return nil
		}
	}
	password, ok := s.in.Prompt("Password: ")
	if !ok {
		return nil
	}

	res := views.SubmitLogin(ctx, s.session, email, password, from)
	fmt.Fprintln(s.out, res.Message)
	if !res.OK {
		return nil
	}
	return s.land(ctx, res.Next)
}

func (s *Shell) signup(ctx context.Context, args []string) error {
	email := first(args)
	if email == "" {
		var ok bool
		if email, ok = s.in.Prompt("Email: "); !ok {
			return nil
		}
	}
	password, ok := s.in.Prompt("Password (8+ characters): ")
	if !ok {
		return nil
	}
	name, ok := s.in.Prompt("Display name (optional): ")
	if !ok {
		return nil
	}

	res := views.SubmitSignup(ctx, s.session, email, password, name)
	fmt.Fprintln(s.out, res.Message)
	if !res.OK {
		return nil
	}
	return s.land(ctx, res.Next)
}

// land runs the command behind location once a user is loaded.
func (s *Shell) land(ctx context.Context, location string) error {
	if s.session.State().User == nil {
		s.log.Warn("signed in but no profile loaded")
		return nil
	}
	args := CommandLine(location)
	if _, ok := commands[args[0]]; !ok {
		return nil
	}
	s.log.Debug("replaying command after login", zap.String("location", location))
	return s.Exec(ctx, args)
}

func (s *Shell) logout(ctx context.Context, _ []string) error {
	s.session.Logout(ctx)
	fmt.Fprintln(s.out, "Logged out")
	return nil
}
