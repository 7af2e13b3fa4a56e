package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"quiz-player/internal/domain"
)

// ResultStore keeps finished runs in a capped Redis list, newest first:
// LPUSH quiz:results {summary-json}; LTRIM quiz:results 0 limit-1
type ResultStore struct {
	client *redis.Client
	limit  int
}

func NewResultStore(client *redis.Client, limit int) *ResultStore {
	return &ResultStore{client: client, limit: limit}
}

const resultsKey = "quiz:results"

func (s *ResultStore) RecordResult(ctx context.Context, summary domain.Summary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, resultsKey, data)
	if s.limit > 0 {
		pipe.LTrim(ctx, resultsKey, 0, int64(s.limit-1))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record result: %w", err)
	}
	return nil
}

// Recent returns up to n results, newest first. n <= 0 returns all.
func (s *ResultStore) Recent(ctx context.Context, n int) ([]domain.Summary, error) {
	stop := int64(-1)
	if n > 0 {
		stop = int64(n - 1)
	}
	raw, err := s.client.LRange(ctx, resultsKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	out := make([]domain.Summary, 0, len(raw))
	for _, item := range raw {
		var summary domain.Summary
		if err := json.Unmarshal([]byte(item), &summary); err != nil {
			return nil, fmt.Errorf("decode result: %w", err)
		}
		out = append(out, summary)
	}
	return out, nil
}
