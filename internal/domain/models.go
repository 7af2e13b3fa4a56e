package domain

import "time"

// MaxOptions is the number of answer slots a question can carry.
const MaxOptions = 4

// Option is one candidate answer. Key is the wire slot name (option1..option4).
type Option struct {
	Key  string `json:"key" yaml:"key"`
	Text string `json:"text" yaml:"text"`
}

// Question models a quiz item as the player sees it: no answer attached.
type Question struct {
	ID      string   `json:"id" yaml:"id"`
	Title   string   `json:"title" yaml:"title"`
	Options []Option `json:"options" yaml:"options"`
}

// Option returns the option stored under key.
func (q Question) Option(key string) (Option, bool) {
	for _, opt := range q.Options {
		if opt.Key == key {
			return opt, true
		}
	}
	return Option{}, false
}

// BankEntry is a question held by the backend together with its expected answer.
type BankEntry struct {
	Question Question `json:"question" yaml:"question"`
	Answer   string   `json:"answer" yaml:"answer"`
}

// Phase is the discrete state of a quiz session.
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseLoading         Phase = "loading"
	PhaseEmpty           Phase = "empty"
	PhaseAwaitingAnswer  Phase = "awaiting_answer"
	PhaseSubmitting      Phase = "submitting"
	PhaseShowingFeedback Phase = "showing_feedback"
	PhaseFinished        Phase = "finished"
)

// Verdict classifies how a question was closed.
type Verdict string

const (
	VerdictCorrect Verdict = "correct"
	VerdictWrong   Verdict = "wrong"
	VerdictTimeout Verdict = "timeout"
)

// QuestionView is what a presenter needs to render the active question.
type QuestionView struct {
	Index         int      `json:"index"`
	Total         int      `json:"total"`
	QuestionID    string   `json:"questionId"`
	Title         string   `json:"title"`
	Options       []Option `json:"options"`
	TimeRemaining int      `json:"timeRemaining"`
	Progress      float64  `json:"progress"`
	ProgressLabel string   `json:"progressLabel"`
}

// TimerView is emitted once per tick.
type TimerView struct {
	Index         int     `json:"index"`
	TimeRemaining int     `json:"timeRemaining"`
	Progress      float64 `json:"progress"`
}

// Feedback is the transient outcome display for one question.
type Feedback struct {
	Index       int     `json:"index"`
	QuestionID  string  `json:"questionId"`
	Verdict     Verdict `json:"verdict"`
	Correct     bool    `json:"correct"`
	Message     string  `json:"message"`
	Score       int     `json:"score"`
	NextEnabled bool    `json:"nextEnabled"`
}

// Summary is the final result of one run.
type Summary struct {
	RunID      string    `json:"runId"`
	Policy     string    `json:"policy"`
	Score      int       `json:"score"`
	Total      int       `json:"total"`
	Percent    int       `json:"percent"`
	Passed     bool      `json:"passed"`
	Themed     bool      `json:"themed"`
	Message    string    `json:"message"`
	FinishedAt time.Time `json:"finishedAt"`
}
