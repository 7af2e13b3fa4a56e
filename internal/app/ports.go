package app

import (
	"context"
	"time"

	"quiz-player/internal/domain"
)

// QuestionProvider supplies the ordered question list for a run.
type QuestionProvider interface {
	FetchAll(ctx context.Context) ([]domain.Question, error)
}

// AnswerJudge decides whether an answer is correct. A nil answer means the question timed out.
type AnswerJudge interface {
	Submit(ctx context.Context, questionID string, answer *string) (bool, error)
}

// Presenter renders session output. It is called with the session lock held
// and must not call back into the session synchronously.
type Presenter interface {
	ShowQuestion(view domain.QuestionView)
	ShowTimer(view domain.TimerView)
	ShowFeedback(fb domain.Feedback)
	ShowSummary(summary domain.Summary)
	ShowEmpty(message string)
}

// ResultRecorder persists finished runs.
type ResultRecorder interface {
	RecordResult(ctx context.Context, summary domain.Summary) error
}

// Timer is a cancellable pending callback.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks; swapped for a fake in tests.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock is the wall clock.
func SystemClock() Clock { return systemClock{} }
