package domain

import (
	"fmt"
	"time"
)

// Policy parameterizes the session: timing, manual navigation and result theming.
type Policy struct {
	Name            string        `json:"name"`
	QuestionBudget  time.Duration `json:"questionBudget" validate:"min=1s"`
	CorrectDelay    time.Duration `json:"correctDelay" validate:"min=0"`
	WrongDelay      time.Duration `json:"wrongDelay" validate:"min=0"`
	TimeoutDelay    time.Duration `json:"timeoutDelay" validate:"min=0"`
	ManualNext      bool          `json:"manualNext"`
	PassThreshold   int           `json:"passThreshold" validate:"min=0,max=100"`
	ThemedResult    bool          `json:"themedResult"`
	RefetchOnRetry  bool          `json:"refetchOnRetry"`
	CorrectMessage  string        `json:"correctMessage"`
	WrongMessage    string        `json:"wrongMessage"`
	TimeoutMessage  string        `json:"timeoutMessage"`
	NoQuestionsText string        `json:"noQuestionsText"`
}

const (
	PolicyLongForm = "long-form"
	PolicyFast     = "fast"
)

// LongFormPolicy gives five minutes per question and disables manual next while feedback shows.
func LongFormPolicy() Policy {
	return Policy{
		Name:            PolicyLongForm,
		QuestionBudget:  300 * time.Second,
		CorrectDelay:    time.Second,
		WrongDelay:      3 * time.Second,
		TimeoutDelay:    3 * time.Second,
		ManualNext:      false,
		PassThreshold:   70,
		ThemedResult:    true,
		CorrectMessage:  "Correct!",
		WrongMessage:    "Wrong answer.",
		TimeoutMessage:  "Time is up.",
		NoQuestionsText: "No questions available. Start backend and refresh.",
	}
}

// FastPolicy is a quick-fire quiz with short delays and a manual next control.
func FastPolicy() Policy {
	return Policy{
		Name:            PolicyFast,
		QuestionBudget:  15 * time.Second,
		CorrectDelay:    900 * time.Millisecond,
		WrongDelay:      900 * time.Millisecond,
		TimeoutDelay:    600 * time.Millisecond,
		ManualNext:      true,
		PassThreshold:   70,
		ThemedResult:    false,
		CorrectMessage:  "Correct!",
		WrongMessage:    "Wrong answer.",
		TimeoutMessage:  "Time is up.",
		NoQuestionsText: "No questions available. Start backend and refresh.",
	}
}

// PolicyByName resolves a preset.
func PolicyByName(name string) (Policy, error) {
	switch name {
	case "", PolicyLongForm:
		return LongFormPolicy(), nil
	case PolicyFast:
		return FastPolicy(), nil
	default:
		return Policy{}, fmt.Errorf("unknown policy %q", name)
	}
}

// BudgetSeconds is the per-question countdown start value.
func (p Policy) BudgetSeconds() int {
	secs := int(p.QuestionBudget / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

// AdvanceDelay picks the feedback delay for a verdict.
func (p Policy) AdvanceDelay(v Verdict) time.Duration {
	switch v {
	case VerdictCorrect:
		return p.CorrectDelay
	case VerdictTimeout:
		return p.TimeoutDelay
	default:
		return p.WrongDelay
	}
}

// Message picks the feedback text for a verdict.
func (p Policy) Message(v Verdict) string {
	switch v {
	case VerdictCorrect:
		return p.CorrectMessage
	case VerdictTimeout:
		if p.TimeoutMessage != "" {
			return p.TimeoutMessage
		}
		return p.WrongMessage
	default:
		return p.WrongMessage
	}
}
