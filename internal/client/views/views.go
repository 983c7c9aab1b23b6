// Package views renders CodePath pages as terminal text. Each view fetches
// its own data through the API on Load and renders whatever state it is in:
// a pending line, a generic error panel, or the content.
package views

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
	"text/tabwriter"

	"github.com/atinyakov/codepath/internal/models"
)

// Text shared by every view.
const (
	PendingText = "Loading..."
	ErrorText   = "Something went wrong while loading this page. Please try again later."
)

// API is the part of the CodePath API the views read from.
type API interface {
	Profile(ctx context.Context) (models.Profile, error)
	Skills(ctx context.Context, domain string) ([]models.Skill, error)
	Skill(ctx context.Context, id models.ID) (models.Skill, error)
	Quizzes(ctx context.Context, skillID models.ID) ([]models.Quiz, error)
	Quiz(ctx context.Context, id models.ID) (models.Quiz, error)
	Mastery(ctx context.Context) ([]models.Mastery, error)
	Content(ctx context.Context, f models.ContentFilter) ([]models.ContentItem, error)
}

// View is a page that loads its own data and renders it.
type View interface {
	Load(ctx context.Context) error
	Render(w io.Writer) error
}

// Set caches views by location until the next Invalidate.
type Set struct {
	mu    sync.Mutex
	views map[string]View
}

// NewSet returns an empty view set.
func NewSet() *Set {
	return &Set{views: make(map[string]View)}
}

// Get returns the view cached under location, building it on first use.
func (s *Set) Get(location string, build func() View) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.views[location]; ok {
		return v
	}
	v := build()
	s.views[location] = v
	return v
}

// Len returns the number of cached views.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.views)
}

// Invalidate drops every cached view so that each is fetched again.
func (s *Set) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views = make(map[string]View)
}

// Show loads v and renders it to w. The load error is returned for logging;
// the view has already rendered it as an error panel.
func Show(ctx context.Context, v View, w io.Writer) error {
	loadErr := v.Load(ctx)
	if err := v.Render(w); err != nil {
		return err
	}
	return loadErr
}

func renderRemote[T any](w io.Writer, r *Remote[T], title string, loaded func(io.Writer, T) error) error {
	status, value, _ := r.Snapshot()
	switch status {
	case Loaded:
		if title != "" {
			if _, err := fmt.Fprintf(w, "== %s ==\n", title); err != nil {
				return err
			}
		}
		return loaded(w, value)
	case Failed:
		_, err := fmt.Fprintf(w, "[!] %s\n", ErrorText)
		return err
	default:
		_, err := fmt.Fprintln(w, PendingText)
		return err
	}
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func intOrDash(n *int) string {
	if n == nil {
		return "-"
	}
	return strconv.Itoa(*n)
}
