package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"quiz-player/internal/domain"
	"quiz-player/internal/infra/memory"
)

func TestBankRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)
	loader := &countingLoader{BankLoader: memory.NewStaticBankLoader(memory.SampleBank())}
	repo := NewBankRepository(client, loader, time.Minute, zerolog.Nop())

	entries, err := repo.GetBank(context.Background())
	if err != nil {
		t.Fatalf("get bank: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists(bankKey) {
		t.Fatalf("expected %s to be cached", bankKey)
	}

	// Second call should hit cache, loader not incremented.
	cached, err := repo.GetBank(context.Background())
	if err != nil {
		t.Fatalf("get bank 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if len(cached) != len(entries) || cached[1].Answer != entries[1].Answer || cached[1].Question.Options[1].Text != "Mars" {
		t.Fatalf("cached bank differs: %+v", cached)
	}

	// TTL expiry sends the next read back to the loader.
	mr.FastForward(2 * time.Minute)
	if _, err := repo.GetBank(context.Background()); err != nil {
		t.Fatalf("get bank 3: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload after ttl, loader calls=%d", loader.calls)
	}

	if err := repo.Invalidate(context.Background()); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if mr.Exists(bankKey) {
		t.Fatalf("expected cache key removed")
	}
}

func TestBankRepositoryLoaderError(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	boom := errors.New("db down")
	repo := NewBankRepository(newClient(mr), failingLoader{err: boom}, time.Minute, zerolog.Nop())
	if _, err := repo.GetBank(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}
	if mr.Exists(bankKey) {
		t.Fatalf("failed load must not be cached")
	}
}

type countingLoader struct {
	BankLoader
	calls int
}

func (l *countingLoader) LoadBank(ctx context.Context) ([]domain.BankEntry, error) {
	l.calls++
	return l.BankLoader.LoadBank(ctx)
}

type failingLoader struct {
	err error
}

func (l failingLoader) LoadBank(context.Context) ([]domain.BankEntry, error) {
	return nil, l.err
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
