package repository

import (
	"context"
	"fmt"
	"strconv"
)

func positional(i int) string { return "#" + strconv.Itoa(i+1) }

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func strp(s string) *string { return &s }

func intp(n int) *int { return &n }

// Seed fills an empty repository with a small catalog: three skills, one
// quiz per skill and a handful of content items.
func Seed(ctx context.Context, m *Memory) error {
	type seedQuiz struct {
		title     string
		questions []Question
	}
	catalog := []struct {
		skill   Skill
		quiz    seedQuiz
		content []ContentItem
	}{
		{
			skill: Skill{Slug: "python-loops", Name: "Python loops", Domain: "python", Category: strp("fundamentals"), Difficulty: intp(1),
				Description: strp("for and while loops, break and continue")},
			quiz: seedQuiz{title: "Loop basics", questions: []Question{
				{Type: "mcq", Prompt: "Which statement leaves a loop immediately?", Order: 1, Answer: positional(1),
					Options: []Option{{Text: "continue", Order: 1}, {Text: "break", Order: 2}, {Text: "pass", Order: 3}}},
				{Type: "short_answer", Prompt: "What does range(3) yield last?", Order: 2, Answer: "2"},
				{Type: "mcq", Prompt: "A while loop runs while its condition is...", Order: 3, Answer: positional(0),
					Options: []Option{{Text: "true", Order: 1}, {Text: "false", Order: 2}}},
			}},
			content: []ContentItem{
				{Slug: "python-for-loops", Title: "For loops in Python", ContentType: "article", Difficulty: 1,
					URL: strp("https://docs.python.org/3/tutorial/controlflow.html"), EstMinutes: intp(10)},
				{Slug: "python-while-loops", Title: "While loops explained", ContentType: "video", Difficulty: 2, EstMinutes: intp(7)},
			},
		},
		{
			skill: Skill{Slug: "go-concurrency", Name: "Go concurrency", Domain: "go", Category: strp("concurrency"), Difficulty: intp(3),
				Description: strp("goroutines, channels and select")},
			quiz: seedQuiz{title: "Goroutines and channels", questions: []Question{
				{Type: "mcq", Prompt: "What happens on a send to a nil channel?", Order: 1, Answer: positional(2),
					Options: []Option{{Text: "panic", Order: 1}, {Text: "returns immediately", Order: 2}, {Text: "blocks forever", Order: 3}}},
				{Type: "short_answer", Prompt: "Which keyword starts a goroutine?", Order: 2, Answer: "go",
					StarterCode: strp("func main() {\n\t___ work()\n}"), Language: strp("go")},
			}},
			content: []ContentItem{
				{Slug: "go-tour-concurrency", Title: "A Tour of Go: Concurrency", ContentType: "exercise", Difficulty: 3,
					URL: strp("https://go.dev/tour/concurrency/1"), EstMinutes: intp(45)},
			},
		},
		{
			skill: Skill{Slug: "sql-joins", Name: "SQL joins", Domain: "sql", Category: strp("databases"), Difficulty: intp(2)},
			quiz: seedQuiz{title: "Joins", questions: []Question{
				{Type: "mcq", Prompt: "Which join keeps unmatched rows of the left table?", Order: 1, Answer: positional(1),
					Options: []Option{{Text: "INNER JOIN", Order: 1}, {Text: "LEFT JOIN", Order: 2}, {Text: "CROSS JOIN", Order: 3}}},
			}},
			content: []ContentItem{
				{Slug: "sql-join-visual", Title: "Visual guide to SQL joins", ContentType: "article", Difficulty: 2, EstMinutes: intp(12)},
			},
		},
	}

	for _, entry := range catalog {
		skill, err := m.CreateSkill(ctx, entry.skill)
		if err != nil {
			return fmt.Errorf("seed skill %s: %w", entry.skill.Slug, err)
		}
		if _, err := m.CreateQuiz(ctx, Quiz{Title: entry.quiz.title, SkillID: skill.ID, Questions: entry.quiz.questions}); err != nil {
			return fmt.Errorf("seed quiz %s: %w", entry.quiz.title, err)
		}
		for _, c := range entry.content {
			id := skill.ID
			c.SkillID = &id
			if _, err := m.CreateContent(ctx, c); err != nil {
				return fmt.Errorf("seed content %s: %w", c.Slug, err)
			}
		}
	}
	return nil
}
