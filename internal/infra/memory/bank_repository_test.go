package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"quiz-player/internal/domain"
)

func TestBankRepositoryCaches(t *testing.T) {
	loader := &countingLoader{BankLoader: NewStaticBankLoader(SampleBank())}
	repo := NewBankRepository(loader, time.Minute)

	if _, err := repo.GetBank(context.Background()); err != nil {
		t.Fatalf("get bank: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.GetBank(context.Background()); err != nil {
		t.Fatalf("get bank 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestBankRepositoryExpires(t *testing.T) {
	loader := &countingLoader{BankLoader: NewStaticBankLoader(SampleBank())}
	repo := NewBankRepository(loader, time.Minute)
	now := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	_, _ = repo.GetBank(context.Background())
	now = now.Add(2 * time.Minute)
	_, _ = repo.GetBank(context.Background())
	if loader.calls != 2 {
		t.Fatalf("expected reload after ttl, loader calls %d", loader.calls)
	}
}

func TestParseBank(t *testing.T) {
	entries, err := ParseBank([]byte(`
questions:
  - id: q1
    title: What is 2 + 2?
    options: ["3", "4", "", "5"]
    answer: "4"
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(entries) != 1 || entries[0].Answer != "4" {
		t.Fatalf("unexpected entries %+v", entries)
	}
	opts := entries[0].Question.Options
	if len(opts) != 3 || opts[2].Key != "option4" {
		t.Fatalf("expected empty slot dropped, got %+v", opts)
	}

	if _, err := ParseBank([]byte("questions:\n  - id: q1\n    options: [a, b, c, d, e]\n")); err == nil {
		t.Fatalf("expected error for five options")
	}
	if _, err := ParseBank([]byte("questions:\n  - title: no id\n")); err == nil {
		t.Fatalf("expected error for missing id")
	}
}

func TestFileBankLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.yaml")
	if err := os.WriteFile(path, []byte("questions:\n  - id: a\n    title: A?\n    options: [x, y]\n    answer: y\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	entries, err := NewFileBankLoader(path).LoadBank(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 1 || entries[0].Question.Title != "A?" {
		t.Fatalf("unexpected entries %+v", entries)
	}

	if _, err := NewFileBankLoader(filepath.Join(t.TempDir(), "none.yaml")).LoadBank(context.Background()); err == nil {
		t.Fatalf("expected error for missing file")
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
