package views

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Prompter asks for one line of input. ok is false once input is exhausted.
type Prompter interface {
	Prompt(label string) (line string, ok bool)
}

// LinePrompter prompts on Out and reads trimmed lines from Scanner.
type LinePrompter struct {
	Scanner *bufio.Scanner
	Out     io.Writer
}

// NewLinePrompter reads from in and prompts on out.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{Scanner: bufio.NewScanner(in), Out: out}
}

func (p *LinePrompter) Prompt(label string) (string, bool) {
	if label != "" {
		fmt.Fprint(p.Out, label)
	}
	if !p.Scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(p.Scanner.Text()), true
}
