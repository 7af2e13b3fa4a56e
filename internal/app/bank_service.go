package app

import (
	"context"
	"strings"

	"quiz-player/internal/domain"
)

// BankRepository loads the server-side question bank (from cache/backing store).
type BankRepository interface {
	GetBank(ctx context.Context) ([]domain.BankEntry, error)
}

// BankService answers the quiz API from a question bank. It also satisfies
// QuestionProvider and AnswerJudge, so a session can play against a bank
// without going over HTTP.
type BankService struct {
	bank BankRepository
}

func NewBankService(bank BankRepository) *BankService {
	return &BankService{bank: bank}
}

// FetchAll lists the bank's questions without answers.
func (s *BankService) FetchAll(ctx context.Context) ([]domain.Question, error) {
	entries, err := s.bank.GetBank(ctx)
	if err != nil {
		return nil, err
	}
	questions := make([]domain.Question, 0, len(entries))
	for _, e := range entries {
		questions = append(questions, e.Question)
	}
	return questions, nil
}

// Submit judges answer against the stored answer. A nil answer (timeout) is never correct.
func (s *BankService) Submit(ctx context.Context, questionID string, answer *string) (bool, error) {
	entries, err := s.bank.GetBank(ctx)
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if e.Question.ID != questionID {
			continue
		}
		if answer == nil {
			return false, nil
		}
		return matches(e.Answer, *answer), nil
	}
	return false, domain.ErrQuestionNotFound
}

func matches(expected, given string) bool {
	return strings.EqualFold(strings.TrimSpace(expected), strings.TrimSpace(given))
}

// NormalizeOptions keeps non-empty options in slot order, keyed option1..option4.
func NormalizeOptions(texts [domain.MaxOptions]string) []domain.Option {
	opts := make([]domain.Option, 0, domain.MaxOptions)
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		opts = append(opts, domain.Option{Key: OptionKey(i), Text: text})
	}
	return opts
}

// OptionKey is the wire slot name for zero-based position i.
func OptionKey(i int) string {
	return "option" + string(rune('1'+i))
}
