package cli

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"quiz-player/internal/app"
	"quiz-player/internal/config"
	"quiz-player/internal/domain"
	"quiz-player/internal/infra/memory"
	pgloader "quiz-player/internal/infra/postgres"
	infraredis "quiz-player/internal/infra/redis"
)

// backends holds the optional infrastructure selected by config.
type backends struct {
	redis *redis.Client
	pool  *pgxpool.Pool
}

func openBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	b := &backends{}
	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.close()
			return nil, err
		}
		b.pool = pool
	}
	return b, nil
}

func (b *backends) close() {
	if b.redis != nil {
		_ = b.redis.Close()
	}
	if b.pool != nil {
		b.pool.Close()
	}
}

// bankRepository picks the bank source (Postgres, YAML file, built-in sample)
// and the cache in front of it (Redis when configured, memory otherwise).
func (b *backends) bankRepository(cfg config.Config, log zerolog.Logger) app.BankRepository {
	var loader memory.BankLoader = memory.NewStaticBankLoader(memory.SampleBank())
	switch {
	case b.pool != nil:
		loader = pgloader.NewBankLoader(b.pool)
	case cfg.Bank.File != "":
		loader = memory.NewFileBankLoader(cfg.Bank.File)
	}

	ttl := config.Duration(cfg.Bank.TTL, 10*time.Minute)
	if b.redis != nil {
		return infraredis.NewBankRepository(b.redis, loader, ttl, log)
	}
	return memory.NewBankRepository(loader, ttl)
}

// resultStore keeps run history in Redis when configured, memory otherwise.
func (b *backends) resultStore(cfg config.Config) resultStore {
	if b.redis != nil {
		return infraredis.NewResultStore(b.redis, cfg.Redis.History)
	}
	return memory.NewResultStore(cfg.Redis.History)
}

type resultStore interface {
	app.ResultRecorder
	Recent(ctx context.Context, n int) ([]domain.Summary, error)
}
