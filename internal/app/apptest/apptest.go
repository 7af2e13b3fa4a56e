// Package apptest provides deterministic collaborators for driving app.Session in tests.
package apptest

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"quiz-player/internal/app"
	"quiz-player/internal/domain"
)

// FakeClock fires callbacks only when Advance is called.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *FakeClock
	at      time.Time
	seq     int
	f       func()
	stopped bool
	fired   bool
}

func NewFakeClock() *FakeClock {
	return &FakeClock{now: time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) AfterFunc(d time.Duration, f func()) app.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &fakeTimer{clock: c, at: c.now.Add(d), seq: c.seq, f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward by d, running due callbacks in time order on the caller's goroutine.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		next := c.nextDueLocked(target)
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		next.fired = true
		c.now = next.at
		c.mu.Unlock()

		next.f()
	}
}

// Pending counts timers that have neither fired nor been stopped.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.fired && !t.stopped {
			n++
		}
	}
	return n
}

func (c *FakeClock) nextDueLocked(target time.Time) *fakeTimer {
	live := c.timers[:0]
	for _, t := range c.timers {
		if !t.fired && !t.stopped {
			live = append(live, t)
		}
	}
	c.timers = live
	sort.SliceStable(c.timers, func(i, j int) bool {
		if !c.timers[i].at.Equal(c.timers[j].at) {
			return c.timers[i].at.Before(c.timers[j].at)
		}
		return c.timers[i].seq < c.timers[j].seq
	})
	if len(c.timers) == 0 || c.timers[0].at.After(target) {
		return nil
	}
	return c.timers[0]
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Sync runs background work inline.
func Sync(f func()) { f() }

// Presenter records everything a session shows.
type Presenter struct {
	mu        sync.Mutex
	Questions []domain.QuestionView
	Timers    []domain.TimerView
	Feedback  []domain.Feedback
	Summaries []domain.Summary
	Empty     []string
}

func (p *Presenter) ShowQuestion(view domain.QuestionView) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Questions = append(p.Questions, view)
}

func (p *Presenter) ShowTimer(view domain.TimerView) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Timers = append(p.Timers, view)
}

func (p *Presenter) ShowFeedback(fb domain.Feedback) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Feedback = append(p.Feedback, fb)
}

func (p *Presenter) ShowSummary(summary domain.Summary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Summaries = append(p.Summaries, summary)
}

func (p *Presenter) ShowEmpty(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Empty = append(p.Empty, message)
}

// Provider returns a fixed list (or error) and counts calls.
type Provider struct {
	mu        sync.Mutex
	Questions []domain.Question
	Err       error
	Calls     int
}

func (p *Provider) FetchAll(context.Context) ([]domain.Question, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls++
	if p.Err != nil {
		return nil, p.Err
	}
	return append([]domain.Question(nil), p.Questions...), nil
}

// Judge compares answers against a key and records submissions.
type Judge struct {
	mu          sync.Mutex
	Answers     map[string]string
	Err         error
	Submissions []Submission
}

// Submission is one recorded judge call.
type Submission struct {
	QuestionID string
	Answer     *string
}

func (j *Judge) Submit(_ context.Context, questionID string, answer *string) (bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Submissions = append(j.Submissions, Submission{QuestionID: questionID, Answer: answer})
	if j.Err != nil {
		return false, j.Err
	}
	if answer == nil {
		return false, nil
	}
	return j.Answers[questionID] == *answer, nil
}

// Count reports how many submissions were made.
func (j *Judge) Count() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.Submissions)
}

// Recorder keeps recorded summaries in memory.
type Recorder struct {
	mu        sync.Mutex
	Summaries []domain.Summary
	Err       error
}

func (r *Recorder) RecordResult(_ context.Context, summary domain.Summary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Summaries = append(r.Summaries, summary)
	return nil
}

// Questions builds n questions with ids "1".."n"; the correct answer is always option1's text.
func Questions(n int) ([]domain.Question, map[string]string) {
	questions := make([]domain.Question, 0, n)
	answers := make(map[string]string, n)
	for i := 1; i <= n; i++ {
		id := strconv.Itoa(i)
		questions = append(questions, domain.Question{
			ID:    id,
			Title: "Question " + id,
			Options: []domain.Option{
				{Key: "option1", Text: "right-" + id},
				{Key: "option2", Text: "wrong-" + id},
			},
		})
		answers[id] = "right-" + id
	}
	return questions, answers
}

// LeakyClock never fires on its own and its timers cannot be stopped: Stop
// reports false and the callback stays runnable, like a timer that already
// fired concurrently with the cancel. Tests deliver callbacks with Fire.
type LeakyClock struct {
	mu        sync.Mutex
	now       time.Time
	callbacks []func()
}

func NewLeakyClock() *LeakyClock {
	return &LeakyClock{now: time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)}
}

func (c *LeakyClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *LeakyClock) AfterFunc(_ time.Duration, f func()) app.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callbacks = append(c.callbacks, f)
	return leakyTimer{}
}

// Fire runs the i-th scheduled callback on the caller's goroutine.
func (c *LeakyClock) Fire(i int) {
	c.mu.Lock()
	f := c.callbacks[i]
	c.mu.Unlock()
	f()
}

// Scheduled counts every callback ever scheduled.
func (c *LeakyClock) Scheduled() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.callbacks)
}

type leakyTimer struct{}

func (leakyTimer) Stop() bool { return false }

// Held queues background work until Run is called.
type Held struct {
	mu   sync.Mutex
	jobs []func()
}

func (h *Held) Spawn(f func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.jobs = append(h.jobs, f)
}

// Run drains the queue in order, including jobs queued while running.
func (h *Held) Run() {
	for {
		h.mu.Lock()
		if len(h.jobs) == 0 {
			h.mu.Unlock()
			return
		}
		f := h.jobs[0]
		h.jobs = h.jobs[1:]
		h.mu.Unlock()
		f()
	}
}

// Len reports queued jobs.
func (h *Held) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.jobs)
}
