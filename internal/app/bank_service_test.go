package app_test

import (
	"context"
	"errors"
	"testing"

	"quiz-player/internal/app"
	"quiz-player/internal/domain"
)

type staticBank []domain.BankEntry

func (b staticBank) GetBank(context.Context) ([]domain.BankEntry, error) { return b, nil }

func sampleBank() staticBank {
	return staticBank{
		{
			Question: domain.Question{
				ID:      "q1",
				Title:   "What is 2 + 2?",
				Options: app.NormalizeOptions([domain.MaxOptions]string{"3", "4", "", "5"}),
			},
			Answer: "4",
		},
	}
}

func TestBankServiceFetchAllHidesAnswers(t *testing.T) {
	svc := app.NewBankService(sampleBank())
	questions, err := svc.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("expected one question, got %d", len(questions))
	}
	opts := questions[0].Options
	if len(opts) != 3 || opts[2].Key != "option4" || opts[2].Text != "5" {
		t.Fatalf("expected empty option3 dropped, got %+v", opts)
	}
}

func TestBankServiceSubmit(t *testing.T) {
	svc := app.NewBankService(sampleBank())
	ctx := context.Background()
	four, three, padded := "4", "3", "  4 "

	tests := []struct {
		name   string
		id     string
		answer *string
		want   bool
		err    error
	}{
		{name: "correct", id: "q1", answer: &four, want: true},
		{name: "whitespace tolerated", id: "q1", answer: &padded, want: true},
		{name: "wrong", id: "q1", answer: &three, want: false},
		{name: "timeout", id: "q1", answer: nil, want: false},
		{name: "unknown question", id: "q9", answer: &four, err: domain.ErrQuestionNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Submit(ctx, tt.id, tt.answer)
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected err %v, got %v", tt.err, err)
			}
			if got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
