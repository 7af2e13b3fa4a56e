package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-player/internal/app"
	"quiz-player/internal/domain"
)

// BankLoader loads the question bank from the questions table.
type BankLoader struct {
	pool *pgxpool.Pool
}

func NewBankLoader(pool *pgxpool.Pool) *BankLoader {
	return &BankLoader{pool: pool}
}

const selectBank = `SELECT id, title, option1, option2, option3, option4, answer
FROM questions ORDER BY position, id`

func (l *BankLoader) LoadBank(ctx context.Context) ([]domain.BankEntry, error) {
	rows, err := l.pool.Query(ctx, selectBank)
	if err != nil {
		return nil, fmt.Errorf("load bank: %w", err)
	}
	defer rows.Close()

	var entries []domain.BankEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load bank: %w", err)
	}
	return entries, nil
}

// SaveEntry upserts one question at position.
func (l *BankLoader) SaveEntry(ctx context.Context, position int, entry domain.BankEntry) error {
	var texts [domain.MaxOptions]*string
	for _, opt := range entry.Question.Options {
		for i := range texts {
			if app.OptionKey(i) == opt.Key {
				text := opt.Text
				texts[i] = &text
			}
		}
	}
	_, err := l.pool.Exec(ctx, `INSERT INTO questions (id, position, title, option1, option2, option3, option4, answer)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET position=EXCLUDED.position, title=EXCLUDED.title,
  option1=EXCLUDED.option1, option2=EXCLUDED.option2, option3=EXCLUDED.option3,
  option4=EXCLUDED.option4, answer=EXCLUDED.answer`,
		entry.Question.ID, position, entry.Question.Title, texts[0], texts[1], texts[2], texts[3], entry.Answer)
	if err != nil {
		return fmt.Errorf("save question %s: %w", entry.Question.ID, err)
	}
	return nil
}

func scanEntry(row pgx.Row) (domain.BankEntry, error) {
	var (
		id, title, answer string
		opts              [domain.MaxOptions]*string
	)
	if err := row.Scan(&id, &title, &opts[0], &opts[1], &opts[2], &opts[3], &answer); err != nil {
		return domain.BankEntry{}, err
	}
	var texts [domain.MaxOptions]string
	for i, o := range opts {
		if o != nil {
			texts[i] = *o
		}
	}
	return domain.BankEntry{
		Question: domain.Question{ID: id, Title: title, Options: app.NormalizeOptions(texts)},
		Answer:   answer,
	}, nil
}
