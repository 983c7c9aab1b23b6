package views

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/atinyakov/codepath/internal/client/session"
	"github.com/atinyakov/codepath/internal/models"
)

// Home is the public landing page.
type Home struct {
	State func() session.State
}

func (h *Home) Load(context.Context) error { return nil }

func (h *Home) Render(w io.Writer) error {
	var b strings.Builder
	b.WriteString("Hello, welcome to CodePath.\n")
	st := h.State()
	switch {
	case st.Loading:
		b.WriteString("Checking your session...\n")
	case st.User != nil:
		fmt.Fprintf(&b, "Signed in as %s.\n", st.User.Name())
		b.WriteString("Try: dashboard, skills, quizzes, progress, content\n")
	default:
		b.WriteString("Log in or sign up to track your progress: login, signup\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Dashboard shows the signed-in user. It is rendered behind the guard.
type Dashboard struct {
	State func() session.State
}

func (d *Dashboard) Load(context.Context) error { return nil }

func (d *Dashboard) Render(w io.Writer) error {
	st := d.State()
	if st.User == nil {
		_, err := fmt.Fprintln(w, "No user loaded.")
		return err
	}
	u := st.User
	tw := newTable(w)
	fmt.Fprintln(tw, "== Dashboard ==")
	fmt.Fprintf(tw, "ID:\t%s\n", u.ID)
	fmt.Fprintf(tw, "Email:\t%s\n", u.Email)
	fmt.Fprintf(tw, "Display name:\t%s\n", orDash(u.DisplayName))
	created := "-"
	if !u.CreatedAt.IsZero() {
		created = u.CreatedAt.Format(time.RFC3339)
	}
	fmt.Fprintf(tw, "Created at:\t%s\n", created)
	return tw.Flush()
}

// Profile shows the extended profile from /users/me.
type Profile struct {
	API  API
	data Remote[models.Profile]
}

func (p *Profile) Load(ctx context.Context) error {
	return p.data.Load(ctx, p.API.Profile)
}

func (p *Profile) Render(w io.Writer) error {
	return renderRemote(w, &p.data, "Profile", func(w io.Writer, pr models.Profile) error {
		tw := newTable(w)
		fmt.Fprintf(tw, "Email:\t%s\n", pr.Email)
		fmt.Fprintf(tw, "Display name:\t%s\n", orDash(pr.DisplayName))
		fmt.Fprintf(tw, "Timezone:\t%s\n", orDash(pr.Timezone))
		fmt.Fprintf(tw, "Learning goals:\t%s\n", orDash(pr.LearningGoals))
		fmt.Fprintf(tw, "Avatar:\t%s\n", orDash(pr.AvatarURL))
		return tw.Flush()
	})
}

// Skills lists the skill catalog, optionally for one domain.
type Skills struct {
	API    API
	Domain string
	data   Remote[[]models.Skill]
}

func (s *Skills) Load(ctx context.Context) error {
	return s.data.Load(ctx, func(ctx context.Context) ([]models.Skill, error) {
		return s.API.Skills(ctx, s.Domain)
	})
}

func (s *Skills) Render(w io.Writer) error {
	title := "Skills"
	if s.Domain != "" {
		title += " (" + s.Domain + ")"
	}
	return renderRemote(w, &s.data, title, func(w io.Writer, skills []models.Skill) error {
		if len(skills) == 0 {
			_, err := fmt.Fprintln(w, "No skills yet.")
			return err
		}
		tw := newTable(w)
		fmt.Fprintln(tw, "ID\tNAME\tDOMAIN\tDIFFICULTY")
		for _, sk := range skills {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", sk.ID, sk.Name, dashIfEmpty(sk.Domain), intOrDash(sk.Difficulty))
		}
		return tw.Flush()
	})
}

// Skill shows one skill.
type Skill struct {
	API  API
	ID   models.ID
	data Remote[models.Skill]
}

func (s *Skill) Load(ctx context.Context) error {
	return s.data.Load(ctx, func(ctx context.Context) (models.Skill, error) {
		return s.API.Skill(ctx, s.ID)
	})
}

func (s *Skill) Render(w io.Writer) error {
	return renderRemote(w, &s.data, "Skill", func(w io.Writer, sk models.Skill) error {
		tw := newTable(w)
		fmt.Fprintf(tw, "Name:\t%s\n", sk.Name)
		fmt.Fprintf(tw, "Slug:\t%s\n", dashIfEmpty(sk.Slug))
		fmt.Fprintf(tw, "Domain:\t%s\n", dashIfEmpty(sk.Domain))
		fmt.Fprintf(tw, "Category:\t%s\n", orDash(sk.Category))
		fmt.Fprintf(tw, "Difficulty:\t%s\n", intOrDash(sk.Difficulty))
		fmt.Fprintf(tw, "Description:\t%s\n", orDash(sk.Description))
		return tw.Flush()
	})
}

// Quizzes lists quizzes, optionally for one skill.
type Quizzes struct {
	API     API
	SkillID models.ID
	data    Remote[[]models.Quiz]
}

func (q *Quizzes) Load(ctx context.Context) error {
	return q.data.Load(ctx, func(ctx context.Context) ([]models.Quiz, error) {
		return q.API.Quizzes(ctx, q.SkillID)
	})
}

func (q *Quizzes) Render(w io.Writer) error {
	return renderRemote(w, &q.data, "Quizzes", func(w io.Writer, quizzes []models.Quiz) error {
		if len(quizzes) == 0 {
			_, err := fmt.Fprintln(w, "No quizzes yet.")
			return err
		}
		tw := newTable(w)
		fmt.Fprintln(tw, "ID\tTITLE\tSKILL\tQUESTIONS")
		for _, qz := range quizzes {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", qz.ID, qz.Title, qz.SkillID, len(qz.Questions))
		}
		return tw.Flush()
	})
}

// Quiz shows a quiz with its questions in order.
type Quiz struct {
	API  API
	ID   models.ID
	data Remote[models.Quiz]
}

func (q *Quiz) Load(ctx context.Context) error {
	return q.data.Load(ctx, func(ctx context.Context) (models.Quiz, error) {
		return q.API.Quiz(ctx, q.ID)
	})
}

func (q *Quiz) Render(w io.Writer) error {
	return renderRemote(w, &q.data, "", func(w io.Writer, qz models.Quiz) error {
		var b strings.Builder
		fmt.Fprintf(&b, "== %s ==\n", qz.Title)
		if qz.Description != nil {
			fmt.Fprintf(&b, "%s\n", *qz.Description)
		}
		for i, question := range qz.SortedQuestions() {
			writeQuestion(&b, i+1, question)
		}
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeQuestion(b *strings.Builder, n int, q models.Question) {
	fmt.Fprintf(b, "%d. [%s] %s\n", n, q.Type, q.Prompt)
	if q.StarterCode != nil {
		fmt.Fprintf(b, "   starter (%s):\n", orDash(q.Language))
		for _, line := range strings.Split(*q.StarterCode, "\n") {
			fmt.Fprintf(b, "     %s\n", line)
		}
	}
	for j, opt := range q.SortedOptions() {
		fmt.Fprintf(b, "   %c) %s\n", 'a'+rune(j), opt.Text)
	}
}

// Content lists learning material.
type Content struct {
	API    API
	Filter models.ContentFilter
	data   Remote[[]models.ContentItem]
}

func (c *Content) Load(ctx context.Context) error {
	return c.data.Load(ctx, func(ctx context.Context) ([]models.ContentItem, error) {
		return c.API.Content(ctx, c.Filter)
	})
}

func (c *Content) Render(w io.Writer) error {
	return renderRemote(w, &c.data, "Content", func(w io.Writer, items []models.ContentItem) error {
		if len(items) == 0 {
			_, err := fmt.Fprintln(w, "Nothing matches.")
			return err
		}
		tw := newTable(w)
		fmt.Fprintln(tw, "ID\tTITLE\tTYPE\tDIFFICULTY\tMINUTES\tURL")
		for _, it := range items {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
				it.ID, it.Title, it.ContentType, it.Difficulty, intOrDash(it.EstMinutes), orDash(it.URL))
		}
		return tw.Flush()
	})
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
