package views

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/atinyakov/codepath/internal/models"
)

// ErrAborted is returned when input ends before the quiz is finished. The
// attempt stays open and unsubmitted.
var ErrAborted = errors.New("quiz aborted")

// Attempter runs a quiz attempt.
type Attempter interface {
	Quiz(ctx context.Context, id models.ID) (models.Quiz, error)
	StartAttempt(ctx context.Context, quizID models.ID) (models.Attempt, error)
	SaveResponse(ctx context.Context, attemptID, questionID models.ID, answer string) error
	SubmitAttempt(ctx context.Context, attemptID models.ID) (models.AttemptResult, error)
}

// TakeQuiz walks through every question of a quiz in order, saving each
// answer, then submits the attempt and prints the score.
//
// Multiple-choice questions are answered by option letter or number and the
// option id is sent; other question types send the text as typed.
func TakeQuiz(ctx context.Context, a Attempter, quizID models.ID, p Prompter, out io.Writer) (models.AttemptResult, error) {
	quiz, err := a.Quiz(ctx, quizID)
	if err != nil {
		return models.AttemptResult{}, fmt.Errorf("load quiz: %w", err)
	}
	questions := quiz.SortedQuestions()
	if len(questions) == 0 {
		return models.AttemptResult{}, errors.New("quiz has no questions")
	}

	attempt, err := a.StartAttempt(ctx, quiz.ID)
	if err != nil {
		return models.AttemptResult{}, fmt.Errorf("start attempt: %w", err)
	}
	fmt.Fprintf(out, "== %s ==\n%d questions\n", quiz.Title, len(questions))

	for i, q := range questions {
		var b strings.Builder
		writeQuestion(&b, i+1, q)
		io.WriteString(out, b.String())

		answer, err := ask(q, p, out)
		if err != nil {
			return models.AttemptResult{}, err
		}
		if err := a.SaveResponse(ctx, attempt.ID, q.ID, answer); err != nil {
			return models.AttemptResult{}, fmt.Errorf("save answer %d: %w", i+1, err)
		}
	}

	res, err := a.SubmitAttempt(ctx, attempt.ID)
	if err != nil {
		return models.AttemptResult{}, fmt.Errorf("submit attempt: %w", err)
	}
	fmt.Fprintf(out, "%s\nScore: %.0f%%\n", dashIfEmpty(res.Message), res.Score*100)
	return res, nil
}

func ask(q models.Question, p Prompter, out io.Writer) (string, error) {
	opts := q.SortedOptions()
	for {
		line, ok := p.Prompt("answer> ")
		if !ok {
			return "", ErrAborted
		}
		if len(opts) == 0 {
			return line, nil
		}
		if idx, ok := optionIndex(line, len(opts)); ok {
			return opts[idx].ID.String(), nil
		}
		fmt.Fprintf(out, "Pick one of a-%c\n", 'a'+rune(len(opts)-1))
	}
}

// optionIndex accepts "b", "B" or "2" for the second of n options.
func optionIndex(s string, n int) (int, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) == 1 && s[0] >= 'a' && int(s[0]-'a') < n {
		return int(s[0] - 'a'), true
	}
	if k, err := strconv.Atoi(s); err == nil && k >= 1 && k <= n {
		return k - 1, true
	}
	return 0, false
}
