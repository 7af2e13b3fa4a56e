package app

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"quiz-player/internal/domain"
)

// Session drives one player through an ordered question list.
// All state transitions happen under mu; network calls run outside it and
// re-enter through guarded apply steps keyed by turn.
type Session struct {
	provider  QuestionProvider
	judge     AnswerJudge
	presenter Presenter
	recorder  ResultRecorder
	policy    domain.Policy
	clock     Clock
	log       zerolog.Logger
	spawn     func(func())
	newRunID  func() string

	mu        sync.Mutex
	phase     domain.Phase
	questions []domain.Question
	index     int
	score     int
	remaining int
	runID     string
	closed    bool

	// turn is bumped on every render and every reset; callbacks carrying an
	// older turn are dropped.
	turn    uint64
	tick    Timer
	advance Timer

	baseCtx   context.Context
	runCtx    context.Context
	cancelRun context.CancelFunc
}

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithClock replaces the wall clock.
func WithClock(c Clock) SessionOption {
	return func(s *Session) { s.clock = c }
}

// WithLogger attaches a logger.
func WithLogger(l zerolog.Logger) SessionOption {
	return func(s *Session) { s.log = l }
}

// WithRecorder stores every finished run.
func WithRecorder(r ResultRecorder) SessionOption {
	return func(s *Session) { s.recorder = r }
}

// WithSpawner controls how background work (judge calls, result recording) is
// run. Tests pass a synchronous spawner.
func WithSpawner(spawn func(func())) SessionOption {
	return func(s *Session) { s.spawn = spawn }
}

// WithRunIDs overrides run id generation.
func WithRunIDs(next func() string) SessionOption {
	return func(s *Session) { s.newRunID = next }
}

// NewSession builds an idle session.
func NewSession(provider QuestionProvider, judge AnswerJudge, presenter Presenter, policy domain.Policy, opts ...SessionOption) *Session {
	s := &Session{
		provider:  provider,
		judge:     judge,
		presenter: presenter,
		policy:    policy,
		clock:     SystemClock(),
		log:       zerolog.Nop(),
		spawn:     func(f func()) { go f() },
		newRunID:  uuid.NewString,
		phase:     domain.PhaseIdle,
		baseCtx:   context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State is a point-in-time copy of the session.
type State struct {
	RunID          string       `json:"runId"`
	Phase          domain.Phase `json:"phase"`
	Index          int          `json:"index"`
	Total          int          `json:"total"`
	Score          int          `json:"score"`
	TimeRemaining  int          `json:"timeRemaining"`
	TickActive     bool         `json:"tickActive"`
	AdvancePending bool         `json:"advancePending"`
}

// Snapshot returns the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		RunID:          s.runID,
		Phase:          s.phase,
		Index:          s.index,
		Total:          len(s.questions),
		Score:          s.score,
		TimeRemaining:  s.remaining,
		TickActive:     s.tick != nil,
		AdvancePending: s.advance != nil,
	}
}

// Policy returns the policy the session runs with.
func (s *Session) Policy() domain.Policy {
	return s.policy
}

// Start fetches the questions and renders the first one. A failed or empty
// fetch leaves the session in PhaseEmpty; it is not reported as an error.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSessionClosed
	}
	if s.phase != domain.PhaseIdle {
		s.mu.Unlock()
		return domain.ErrInvalidPhase
	}
	s.baseCtx = ctx
	turn, runCtx := s.beginLoadLocked()
	s.mu.Unlock()

	s.load(runCtx, turn, true)
	return nil
}

// Retry restarts a finished or empty session. From Finished the held list is
// replayed unless the policy asks for a refetch; from Empty it always refetches.
func (s *Session) Retry() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSessionClosed
	}
	var fetch bool
	switch s.phase {
	case domain.PhaseFinished:
		fetch = s.policy.RefetchOnRetry || len(s.questions) == 0
	case domain.PhaseEmpty:
		fetch = true
	default:
		s.mu.Unlock()
		return domain.ErrInvalidPhase
	}
	turn, runCtx := s.beginLoadLocked()
	s.mu.Unlock()

	s.load(runCtx, turn, fetch)
	return nil
}

// Select answers the current question with the option stored under key.
func (s *Session) Select(key string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSessionClosed
	}
	if s.phase != domain.PhaseAwaitingAnswer {
		s.mu.Unlock()
		return domain.ErrInvalidPhase
	}
	q := s.questions[s.index]
	opt, ok := q.Option(key)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrOptionNotFound, key)
	}

	s.stopTickLocked()
	s.phase = domain.PhaseSubmitting
	answer := opt.Text
	job := s.judgeJob(s.runCtx, s.turn, q, &answer)
	s.log.Debug().Str("question", q.ID).Str("option", key).Msg("answer selected")
	s.mu.Unlock()

	s.spawn(job)
	return nil
}

// Next skips the remaining feedback delay. Only allowed when the policy enables it.
func (s *Session) Next() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSessionClosed
	}
	if !s.policy.ManualNext {
		s.mu.Unlock()
		return domain.ErrManualNextDisabled
	}
	if s.phase != domain.PhaseShowingFeedback {
		s.mu.Unlock()
		return domain.ErrInvalidPhase
	}
	job := s.advanceLocked(s.index)
	s.mu.Unlock()

	if job != nil {
		s.spawn(job)
	}
	return nil
}

// Close stops all timers and cancels in-flight calls. Further input is rejected.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.stopTickLocked()
	s.stopAdvanceLocked()
	if s.cancelRun != nil {
		s.cancelRun()
	}
}

// beginLoadLocked wipes the run state, keeping only the held question list.
func (s *Session) beginLoadLocked() (uint64, context.Context) {
	s.stopTickLocked()
	s.stopAdvanceLocked()
	if s.cancelRun != nil {
		s.cancelRun()
	}
	s.runCtx, s.cancelRun = context.WithCancel(s.baseCtx)
	s.turn++
	s.phase = domain.PhaseLoading
	s.index = 0
	s.score = 0
	s.remaining = 0
	s.runID = s.newRunID()
	return s.turn, s.runCtx
}

func (s *Session) load(ctx context.Context, turn uint64, fetch bool) {
	var (
		questions []domain.Question
		err       error
	)
	if fetch {
		questions, err = s.provider.FetchAll(ctx)
	} else {
		s.mu.Lock()
		questions = s.questions
		s.mu.Unlock()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.turn != turn {
		return
	}
	if err == nil && len(questions) == 0 {
		err = domain.ErrNoQuestions
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("question fetch failed")
		s.questions = nil
		s.phase = domain.PhaseEmpty
		s.presenter.ShowEmpty(s.policy.NoQuestionsText)
		return
	}

	s.questions = questions
	s.log.Info().Str("run", s.runID).Int("questions", len(questions)).Str("policy", s.policy.Name).Msg("quiz started")
	s.renderLocked()
}

func (s *Session) renderLocked() {
	q := s.questions[s.index]
	s.turn++
	s.remaining = s.policy.BudgetSeconds()
	s.phase = domain.PhaseAwaitingAnswer

	total := len(s.questions)
	s.presenter.ShowQuestion(domain.QuestionView{
		Index:         s.index,
		Total:         total,
		QuestionID:    q.ID,
		Title:         q.Title,
		Options:       append([]domain.Option(nil), q.Options...),
		TimeRemaining: s.remaining,
		Progress:      float64(s.index) / float64(total),
		ProgressLabel: fmt.Sprintf("%d / %d", min(s.index+1, total), total),
	})
	s.armTickLocked(s.turn)
}

func (s *Session) armTickLocked(turn uint64) {
	s.tick = s.clock.AfterFunc(time.Second, func() { s.onTick(turn) })
}

func (s *Session) onTick(turn uint64) {
	s.mu.Lock()
	job := s.tickLocked(turn)
	s.mu.Unlock()

	if job != nil {
		s.spawn(job)
	}
}

func (s *Session) tickLocked(turn uint64) func() {
	if s.closed || turn != s.turn || s.phase != domain.PhaseAwaitingAnswer {
		return nil
	}
	s.tick = nil
	if s.remaining > 0 {
		s.remaining--
	}

	budget := s.policy.BudgetSeconds()
	elapsed := float64(budget-s.remaining) / float64(budget)
	s.presenter.ShowTimer(domain.TimerView{
		Index:         s.index,
		TimeRemaining: s.remaining,
		Progress:      (float64(s.index) + elapsed) / float64(len(s.questions)),
	})

	if s.remaining > 0 {
		s.armTickLocked(turn)
		return nil
	}

	q := s.questions[s.index]
	s.phase = domain.PhaseSubmitting
	s.log.Debug().Str("question", q.ID).Msg("question timed out")
	// A timeout is never correct, so feedback does not wait for the judge.
	s.applyVerdictLocked(turn, false, true)
	return s.notifyTimeoutJob(s.runCtx, q)
}

func (s *Session) judgeJob(ctx context.Context, turn uint64, q domain.Question, answer *string) func() {
	return func() {
		correct, err := s.judge.Submit(ctx, q.ID, answer)
		if err != nil {
			s.log.Warn().Err(err).Str("question", q.ID).Msg("judge call failed, scoring as incorrect")
			correct = false
		}

		s.mu.Lock()
		s.applyVerdictLocked(turn, correct, false)
		s.mu.Unlock()
	}
}

// notifyTimeoutJob submits a null answer so the backend sees the attempt.
// The verdict is ignored.
func (s *Session) notifyTimeoutJob(ctx context.Context, q domain.Question) func() {
	return func() {
		if _, err := s.judge.Submit(ctx, q.ID, nil); err != nil {
			s.log.Warn().Err(err).Str("question", q.ID).Msg("timeout submit failed")
		}
	}
}

func (s *Session) applyVerdictLocked(turn uint64, correct, timedOut bool) {
	if s.closed || turn != s.turn || s.phase != domain.PhaseSubmitting {
		return
	}

	verdict := domain.VerdictWrong
	switch {
	case timedOut:
		verdict = domain.VerdictTimeout
	case correct:
		verdict = domain.VerdictCorrect
		s.score++
	}

	s.phase = domain.PhaseShowingFeedback
	q := s.questions[s.index]
	s.presenter.ShowFeedback(domain.Feedback{
		Index:       s.index,
		QuestionID:  q.ID,
		Verdict:     verdict,
		Correct:     correct,
		Message:     s.policy.Message(verdict),
		Score:       s.score,
		NextEnabled: s.policy.ManualNext,
	})

	s.stopAdvanceLocked()
	index := s.index
	s.advance = s.clock.AfterFunc(s.policy.AdvanceDelay(verdict), func() {
		s.mu.Lock()
		var job func()
		if turn == s.turn && !s.closed {
			job = s.advanceLocked(index)
		}
		s.mu.Unlock()
		if job != nil {
			s.spawn(job)
		}
	})
}

// advanceLocked moves past question expected. It is a no-op unless the session
// is still showing feedback for that question, so a manual Next racing the
// scheduled advance increments the index once.
func (s *Session) advanceLocked(expected int) func() {
	if s.phase != domain.PhaseShowingFeedback || s.index != expected {
		return nil
	}
	s.stopTickLocked()
	s.stopAdvanceLocked()

	s.index++
	if s.index >= len(s.questions) {
		return s.finishLocked()
	}
	s.renderLocked()
	return nil
}

func (s *Session) finishLocked() func() {
	s.stopTickLocked()
	s.stopAdvanceLocked()
	s.turn++
	s.phase = domain.PhaseFinished
	s.remaining = 0

	summary := Summarize(s.score, len(s.questions), s.policy)
	summary.RunID = s.runID
	summary.FinishedAt = s.clock.Now()
	s.presenter.ShowSummary(summary)
	s.log.Info().Str("run", s.runID).Int("score", summary.Score).Int("total", summary.Total).Int("percent", summary.Percent).Bool("passed", summary.Passed).Msg("quiz finished")

	if s.recorder == nil {
		return nil
	}
	ctx := s.baseCtx
	return func() {
		if err := s.recorder.RecordResult(ctx, summary); err != nil {
			s.log.Warn().Err(err).Str("run", summary.RunID).Msg("record result failed")
		}
	}
}

func (s *Session) stopTickLocked() {
	if s.tick != nil {
		s.tick.Stop()
		s.tick = nil
	}
}

func (s *Session) stopAdvanceLocked() {
	if s.advance != nil {
		s.advance.Stop()
		s.advance = nil
	}
}

// Summarize computes the final result for score out of total.
func Summarize(score, total int, policy domain.Policy) domain.Summary {
	percent := Percent(score, total)
	return domain.Summary{
		Policy:  policy.Name,
		Score:   score,
		Total:   total,
		Percent: percent,
		Passed:  percent >= policy.PassThreshold,
		Themed:  policy.ThemedResult,
		Message: fmt.Sprintf("You scored %d out of %d (%d%%)", score, total, percent),
	}
}

// Percent rounds half up, treating an empty quiz as having one question.
func Percent(score, total int) int {
	if total < 1 {
		total = 1
	}
	return int(math.Floor(100*float64(score)/float64(total) + 0.5))
}
