package http

import (
	"bytes"
	"encoding/json"
	"strings"

	"quiz-player/internal/app"
	"quiz-player/internal/domain"
)

// wireQuestion is the question shape served by GET /all. Older backends
// misspell the title field as questionTilte; both are accepted here and
// nowhere else.
type wireQuestion struct {
	ID            json.RawMessage `json:"id"`
	QuestionTitle string          `json:"questionTitle,omitempty"`
	QuestionTilte string          `json:"questionTilte,omitempty"`
	Option1       *string         `json:"option1"`
	Option2       *string         `json:"option2"`
	Option3       *string         `json:"option3"`
	Option4       *string         `json:"option4"`
}

type submitRequest struct {
	ID     json.RawMessage `json:"id"`
	Answer *string         `json:"answer"`
}

type submitResponse struct {
	Correct bool `json:"correct"`
}

const untitledQuestion = "Untitled question"

func (w wireQuestion) toDomain() domain.Question {
	title := w.QuestionTilte
	if title == "" {
		title = w.QuestionTitle
	}
	if title == "" {
		title = untitledQuestion
	}
	return domain.Question{
		ID:      rawID(w.ID),
		Title:   title,
		Options: app.NormalizeOptions([domain.MaxOptions]string{deref(w.Option1), deref(w.Option2), deref(w.Option3), deref(w.Option4)}),
	}
}

func fromDomain(q domain.Question) wireQuestion {
	id, _ := json.Marshal(q.ID)
	w := wireQuestion{ID: id, QuestionTitle: q.Title}
	for _, opt := range q.Options {
		text := opt.Text
		switch opt.Key {
		case "option1":
			w.Option1 = &text
		case "option2":
			w.Option2 = &text
		case "option3":
			w.Option3 = &text
		case "option4":
			w.Option4 = &text
		}
	}
	return w
}

// rawID renders a JSON id (string or number) as a string.
func rawID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ParseVerdict normalizes a judge response body. Accepted shapes are a bare
// JSON boolean, an object with a boolean "correct" field, or the plaintext
// words true/false. Anything else is false.
func ParseVerdict(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	var v any
	if err := json.Unmarshal(trimmed, &v); err == nil {
		switch t := v.(type) {
		case bool:
			return t
		case map[string]any:
			correct, ok := t["correct"].(bool)
			return ok && correct
		case string:
			return strings.EqualFold(strings.TrimSpace(t), "true")
		}
		return false
	}
	return strings.EqualFold(string(trimmed), "true")
}
