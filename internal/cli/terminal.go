package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"quiz-player/internal/domain"
)

// terminalPresenter prints session output as plain text. Options are numbered
// in display order; optionKey maps a typed number back to its key.
type terminalPresenter struct {
	out io.Writer

	mu      sync.Mutex
	options []domain.Option
}

func newTerminalPresenter(out io.Writer) *terminalPresenter {
	return &terminalPresenter{out: out}
}

func (p *terminalPresenter) ShowQuestion(view domain.QuestionView) {
	p.mu.Lock()
	p.options = view.Options
	p.mu.Unlock()

	fmt.Fprintf(p.out, "\n[%s] %s  (%ds)\n", view.ProgressLabel, view.Title, view.TimeRemaining)
	for i, opt := range view.Options {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, opt.Text)
	}
	fmt.Fprint(p.out, "> ")
}

func (p *terminalPresenter) ShowTimer(view domain.TimerView) {
	// Only announce the last seconds and round numbers to keep the prompt readable.
	if view.TimeRemaining <= 5 || view.TimeRemaining%30 == 0 {
		fmt.Fprintf(p.out, "\n  %ds left (%.0f%% done)\n> ", view.TimeRemaining, view.Progress*100)
	}
}

func (p *terminalPresenter) ShowFeedback(fb domain.Feedback) {
	p.mu.Lock()
	p.options = nil
	p.mu.Unlock()

	mark := "x"
	if fb.Correct {
		mark = "+"
	}
	fmt.Fprintf(p.out, "\n%s %s  score: %d\n", mark, fb.Message, fb.Score)
	if fb.NextEnabled {
		fmt.Fprint(p.out, "  (n for next)\n")
	}
}

func (p *terminalPresenter) ShowSummary(s domain.Summary) {
	fmt.Fprintf(p.out, "\n%s\n", s.Message)
	if s.Themed {
		verdict := "FAIL"
		if s.Passed {
			verdict = "PASS"
		}
		fmt.Fprintf(p.out, "  [%s] %d%%\n", verdict, s.Percent)
	}
	fmt.Fprint(p.out, "r to retry, q to quit\n> ")
}

func (p *terminalPresenter) ShowEmpty(message string) {
	fmt.Fprintf(p.out, "\n%s\nr to retry, q to quit\n> ", message)
}

// optionKey resolves a 1-based display number.
func (p *terminalPresenter) optionKey(n int) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n < 1 || n > len(p.options) {
		return "", false
	}
	return p.options[n-1].Key, true
}

type command struct {
	kind string
	n    int
}

func parseCommand(line string) command {
	line = strings.ToLower(strings.TrimSpace(line))
	switch line {
	case "":
		return command{kind: "noop"}
	case "n", "next":
		return command{kind: "next"}
	case "r", "retry":
		return command{kind: "retry"}
	case "q", "quit", "exit":
		return command{kind: "quit"}
	case "s", "state":
		return command{kind: "state"}
	}
	var n int
	if _, err := fmt.Sscanf(line, "%d", &n); err == nil {
		return command{kind: "select", n: n}
	}
	return command{kind: "unknown"}
}
