package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"quiz-player/internal/app"
	"quiz-player/internal/config"
	"quiz-player/internal/domain"
	"quiz-player/internal/logger"
	transport "quiz-player/internal/transport/http"
)

// NewPlayCmd plays a quiz in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	var (
		offline bool
		policy  string
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play the quiz in the terminal against the quiz API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if policy != "" {
				cfg.Policy.Preset = policy
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runPlay(ctx, cfg, offline, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "play against the local question bank instead of the API")
	cmd.Flags().StringVar(&policy, "policy", "", "policy preset (long-form or fast)")
	return cmd
}

func runPlay(ctx context.Context, cfg config.Config, offline bool, in io.Reader, out io.Writer) error {
	log := logger.Setup(cfg.Log.Level, cfg.Log.Format)
	policy, err := cfg.Policy.Resolve()
	if err != nil {
		return err
	}

	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close()

	var (
		provider app.QuestionProvider
		judge    app.AnswerJudge
	)
	if offline {
		bank := app.NewBankService(b.bankRepository(cfg, log))
		provider, judge = bank, bank
	} else {
		client := transport.NewAPIClient(cfg.API.Base, &http.Client{Timeout: config.Duration(cfg.API.Timeout, 10*time.Second)}, log)
		provider, judge = client, client
	}

	results := b.resultStore(cfg)
	presenter := newTerminalPresenter(out)
	session := app.NewSession(provider, judge, presenter, policy,
		app.WithLogger(log),
		app.WithRecorder(results),
	)
	defer session.Close()

	if err := session.Start(ctx); err != nil {
		return err
	}
	return readCommands(ctx, session, presenter, in, out, log)
}

func readCommands(ctx context.Context, session *app.Session, presenter *terminalPresenter, in io.Reader, out io.Writer, log zerolog.Logger) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			cmd := parseCommand(line)
			var err error
			switch cmd.kind {
			case "quit":
				return nil
			case "noop":
				continue
			case "next":
				err = session.Next()
			case "retry":
				err = session.Retry()
			case "state":
				st := session.Snapshot()
				fmt.Fprintf(out, "phase=%s question=%d/%d score=%d remaining=%ds\n> ", st.Phase, st.Index+1, st.Total, st.Score, st.TimeRemaining)
			case "select":
				key, ok := presenter.optionKey(cmd.n)
				if !ok {
					err = domain.ErrOptionNotFound
					break
				}
				err = session.Select(key)
			default:
				fmt.Fprint(out, "commands: 1-4 answer, n next, r retry, s state, q quit\n> ")
			}
			if err != nil {
				log.Debug().Err(err).Str("input", line).Msg("input rejected")
				fmt.Fprintf(out, "%s\n> ", describe(err))
			}
		}
	}
}

func describe(err error) string {
	switch {
	case errors.Is(err, domain.ErrManualNextDisabled):
		return "next is disabled; the quiz moves on by itself"
	case errors.Is(err, domain.ErrInvalidPhase):
		return "not now"
	case errors.Is(err, domain.ErrOptionNotFound):
		return "no such option"
	default:
		return err.Error()
	}
}
