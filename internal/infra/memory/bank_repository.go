package memory

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"quiz-player/internal/app"
	"quiz-player/internal/domain"
)

// BankLoader fetches the question bank from a backing store (file, Postgres).
type BankLoader interface {
	LoadBank(ctx context.Context) ([]domain.BankEntry, error)
}

// BankRepository caches the bank with TTL to avoid repeated loader hits.
type BankRepository struct {
	loader BankLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	entries   []domain.BankEntry
	expiresAt time.Time
}

func NewBankRepository(loader BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

const bankKey = "bank"

func (r *BankRepository) GetBank(ctx context.Context) ([]domain.BankEntry, error) {
	if entries, ok := r.cached(r.clock()); ok {
		return entries, nil
	}

	result, err, _ := r.sf.Do(bankKey, func() (interface{}, error) {
		now := r.clock()
		if entries, ok := r.cached(now); ok {
			return entries, nil
		}

		entries, err := r.loader.LoadBank(ctx)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.entries = entries
		r.expiresAt = now.Add(r.ttlWithJitter())
		r.mu.Unlock()
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.BankEntry), nil
}

func (r *BankRepository) cached(now time.Time) ([]domain.BankEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.entries != nil && r.expiresAt.After(now) {
		return r.entries, true
	}
	return nil, false
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticBankLoader is a loader backed by a fixed slice (useful for tests/demos).
type StaticBankLoader struct {
	entries []domain.BankEntry
}

func NewStaticBankLoader(entries []domain.BankEntry) *StaticBankLoader {
	return &StaticBankLoader{entries: entries}
}

func (l *StaticBankLoader) LoadBank(context.Context) ([]domain.BankEntry, error) {
	return l.entries, nil
}

// bankFile is the YAML seed format:
//
//	questions:
//	  - id: q1
//	    title: What is 2 + 2?
//	    options: ["3", "4", "5"]
//	    answer: "4"
type bankFile struct {
	Questions []struct {
		ID      string   `yaml:"id"`
		Title   string   `yaml:"title"`
		Options []string `yaml:"options"`
		Answer  string   `yaml:"answer"`
	} `yaml:"questions"`
}

// FileBankLoader reads a YAML seed file on every load.
type FileBankLoader struct {
	path string
}

func NewFileBankLoader(path string) *FileBankLoader {
	return &FileBankLoader{path: path}
}

func (l *FileBankLoader) LoadBank(context.Context) ([]domain.BankEntry, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read bank file: %w", err)
	}
	return ParseBank(data)
}

// ParseBank decodes a YAML seed. More than four options per question is an error.
func ParseBank(data []byte) ([]domain.BankEntry, error) {
	var file bankFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse bank: %w", err)
	}
	entries := make([]domain.BankEntry, 0, len(file.Questions))
	for i, q := range file.Questions {
		if q.ID == "" {
			return nil, fmt.Errorf("parse bank: question %d has no id", i)
		}
		if len(q.Options) > domain.MaxOptions {
			return nil, fmt.Errorf("parse bank: question %s has %d options, max %d", q.ID, len(q.Options), domain.MaxOptions)
		}
		var texts [domain.MaxOptions]string
		copy(texts[:], q.Options)
		entries = append(entries, domain.BankEntry{
			Question: domain.Question{ID: q.ID, Title: q.Title, Options: app.NormalizeOptions(texts)},
			Answer:   q.Answer,
		})
	}
	return entries, nil
}

// SampleBank is served when no bank source is configured.
func SampleBank() []domain.BankEntry {
	return []domain.BankEntry{
		{
			Question: domain.Question{
				ID:      "1",
				Title:   "What is 2 + 2?",
				Options: app.NormalizeOptions([domain.MaxOptions]string{"3", "4", "5", ""}),
			},
			Answer: "4",
		},
		{
			Question: domain.Question{
				ID:      "2",
				Title:   "Which planet is known as the Red Planet?",
				Options: app.NormalizeOptions([domain.MaxOptions]string{"Venus", "Mars", "Jupiter", "Saturn"}),
			},
			Answer: "Mars",
		},
		{
			Question: domain.Question{
				ID:      "3",
				Title:   "What is the boiling point of water at sea level in Celsius?",
				Options: app.NormalizeOptions([domain.MaxOptions]string{"90", "100", "110", ""}),
			},
			Answer: "100",
		},
	}
}
