package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"quiz-player/internal/domain"
)

// BankLoader fetches the question bank from a backing store.
type BankLoader interface {
	LoadBank(ctx context.Context) ([]domain.BankEntry, error)
}

// BankRepository caches the question bank in Redis and falls back to a loader on miss.
// The bank is stored as one JSON document: SET quiz:bank {json} EX ttl
type BankRepository struct {
	client *redis.Client
	loader BankLoader
	ttl    time.Duration
	log    zerolog.Logger
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewBankRepository(client *redis.Client, loader BankLoader, ttl time.Duration, log zerolog.Logger) *BankRepository {
	return &BankRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		log:    log,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

const bankKey = "quiz:bank"

func (r *BankRepository) GetBank(ctx context.Context) ([]domain.BankEntry, error) {
	if entries, ok := r.cached(ctx); ok {
		return entries, nil
	}

	result, err, _ := r.sf.Do(bankKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if entries, ok := r.cached(ctx); ok {
			return entries, nil
		}

		entries, err := r.loader.LoadBank(ctx)
		if err != nil {
			return nil, err
		}

		data, err := json.Marshal(entries)
		if err != nil {
			return nil, err
		}
		if err := r.client.Set(ctx, bankKey, data, r.ttlWithJitter()).Err(); err != nil {
			// the loaded bank is still good; only the cache write failed
			r.log.Warn().Err(err).Msg("cache bank in redis failed")
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.BankEntry), nil
}

// Invalidate drops the cached bank so the next read goes to the loader.
func (r *BankRepository) Invalidate(ctx context.Context) error {
	return r.client.Del(ctx, bankKey).Err()
}

func (r *BankRepository) cached(ctx context.Context) ([]domain.BankEntry, bool) {
	data, err := r.client.Get(ctx, bankKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.log.Warn().Err(err).Msg("read cached bank failed")
		}
		return nil, false
	}
	var entries []domain.BankEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		r.log.Warn().Err(err).Msg("decode cached bank failed")
		return nil, false
	}
	return entries, true
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
