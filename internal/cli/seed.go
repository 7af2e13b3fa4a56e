package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"quiz-player/internal/config"
	"quiz-player/internal/infra/memory"
	pgloader "quiz-player/internal/infra/postgres"
	infraredis "quiz-player/internal/infra/redis"
	"quiz-player/internal/logger"
)

// NewSeedCmd writes a YAML question bank into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load questions from a YAML file into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if file == "" {
				file = cfg.Bank.File
			}
			if file == "" {
				return fmt.Errorf("no bank file: pass --file or set bank.file")
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			log := logger.Setup(cfg.Log.Level, cfg.Log.Format)

			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read bank file: %w", err)
			}
			entries, err := memory.ParseBank(data)
			if err != nil {
				return err
			}
			if err := runMigrationsWithConfig(ctx, cfg); err != nil {
				return err
			}

			b, err := openBackends(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.close()

			loader := pgloader.NewBankLoader(b.pool)
			for i, entry := range entries {
				if err := loader.SaveEntry(ctx, i, entry); err != nil {
					return err
				}
			}
			if b.redis != nil {
				cache := infraredis.NewBankRepository(b.redis, loader, config.Duration(cfg.Bank.TTL, 10*time.Minute), log)
				if err := cache.Invalidate(ctx); err != nil {
					log.Warn().Err(err).Msg("bank cache not invalidated")
				}
			}
			log.Info().Int("questions", len(entries)).Str("file", file).Msg("bank seeded")
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML bank file (defaults to bank.file)")
	return cmd
}
