package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-player/internal/app"
	"quiz-player/internal/app/apptest"
	"quiz-player/internal/domain"
	"quiz-player/internal/infra/memory"
)

func TestResolvePort(t *testing.T) {
	tests := []struct {
		name, flag, env, cfg, want string
	}{
		{"flag wins", "9000", "9100", "9200", "9000"},
		{"env over config", "", "9100", "9200", "9100"},
		{"config", "", "", "9200", "9200"},
		{"default", "", "", "", "8080"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolvePort(tt.flag, tt.env, tt.cfg))
		})
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want command
	}{
		{"", command{kind: "noop"}},
		{" N ", command{kind: "next"}},
		{"retry", command{kind: "retry"}},
		{"q", command{kind: "quit"}},
		{"s", command{kind: "state"}},
		{"3", command{kind: "select", n: 3}},
		{"what", command{kind: "unknown"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseCommand(tt.in), "input %q", tt.in)
	}
}

func TestTerminalPresenterMapsNumbersToKeys(t *testing.T) {
	var out bytes.Buffer
	p := newTerminalPresenter(&out)
	p.ShowQuestion(domain.QuestionView{
		Index: 0, Total: 2, Title: "Pick", ProgressLabel: "1 / 2", TimeRemaining: 15,
		Options: []domain.Option{{Key: "option1", Text: "a"}, {Key: "option3", Text: "c"}},
	})

	key, ok := p.optionKey(2)
	require.True(t, ok)
	assert.Equal(t, "option3", key)
	_, ok = p.optionKey(3)
	assert.False(t, ok)
	assert.Contains(t, out.String(), "[1 / 2] Pick")
	assert.Contains(t, out.String(), "2) c")

	p.ShowFeedback(domain.Feedback{Correct: true, Message: "Correct!", Score: 1})
	_, ok = p.optionKey(1)
	assert.False(t, ok, "options are cleared once the question is answered")
}

func TestTerminalPresenterSummary(t *testing.T) {
	var out bytes.Buffer
	p := newTerminalPresenter(&out)
	p.ShowSummary(app.Summarize(3, 4, domain.LongFormPolicy()))
	assert.Contains(t, out.String(), "You scored 3 out of 4 (75%)")
	assert.Contains(t, out.String(), "[PASS] 75%")
}

func TestReadCommandsPlaysThroughSession(t *testing.T) {
	var out bytes.Buffer
	presenter := newTerminalPresenter(&out)
	questions, answers := apptest.Questions(1)
	provider := &apptest.Provider{Questions: questions}
	judge := &apptest.Judge{Answers: answers}

	session := app.NewSession(provider, judge, presenter, domain.FastPolicy(),
		app.WithClock(apptest.NewFakeClock()),
		app.WithSpawner(apptest.Sync),
	)
	defer session.Close()
	require.NoError(t, session.Start(context.Background()))

	in := strings.NewReader("9\n1\nn\ns\nq\n")
	require.NoError(t, readCommands(context.Background(), session, presenter, in, &out, zerolog.Nop()))

	st := session.Snapshot()
	assert.Equal(t, domain.PhaseFinished, st.Phase)
	assert.Equal(t, 1, st.Score)
	assert.Contains(t, out.String(), "no such option")
	assert.Contains(t, out.String(), "phase=finished")
}

func TestPrintResults(t *testing.T) {
	store := memory.NewResultStore(10)
	ctx := context.Background()
	var out bytes.Buffer

	require.NoError(t, printResults(ctx, &out, store, 5))
	assert.Contains(t, out.String(), "no results recorded")

	summary := app.Summarize(2, 3, domain.FastPolicy())
	summary.RunID = "run-1"
	require.NoError(t, store.RecordResult(ctx, summary))

	out.Reset()
	require.NoError(t, printResults(ctx, &out, store, 5))
	assert.Contains(t, out.String(), "run-1")
	assert.Contains(t, out.String(), "2/3")
}
