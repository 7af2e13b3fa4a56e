package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"quiz-player/internal/app"
	"quiz-player/internal/config"
	"quiz-player/internal/logger"
	transport "quiz-player/internal/transport/http"
)

// NewServeCmd builds the CLI subcommand that serves the quiz API.
func NewServeCmd(configPath, port *string, envPort string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the quiz API and the WebSocket player",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port, envPort)
		},
	}
	cmd.Flags().StringVar(port, "port", "", "port to listen on (overrides PORT and config)")
	return cmd
}

// resolvePort applies flag, PORT env, config, default in that order.
func resolvePort(flag, env, configured string) string {
	for _, p := range []string{flag, env, configured} {
		if p != "" {
			return p
		}
	}
	return "8080"
}

func runServer(ctx context.Context, configPath, portFlag, envPort string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.Setup(cfg.Log.Level, cfg.Log.Format)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := resolvePort(portFlag, envPort, cfg.Server.Port)

	policy, err := cfg.Policy.Resolve()
	if err != nil {
		return err
	}

	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close()

	bank := app.NewBankService(b.bankRepository(cfg, log))
	apiBase := cfg.Server.APIBase
	if apiBase == "" {
		apiBase = "/quiz"
	}
	router := transport.NewRouter(apiBase,
		transport.NewAPIHandler(bank, log),
		transport.NewWSHandler(bank, bank, b.resultStore(cfg), policy, log).WithPresets(cfg.Policy.ResolvePreset),
	)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", finalPort).Str("apiBase", apiBase).Msg("starting quiz server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Duration(cfg.Server.Shutdown, 5*time.Second))
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
