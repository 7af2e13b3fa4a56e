package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"quiz-player/internal/domain"
)

const maxBodyBytes = 1 << 20

// APIClient talks to the quiz REST API: GET {base}/all and POST {base}/submit.
// It implements app.QuestionProvider and app.AnswerJudge.
type APIClient struct {
	base string
	http *http.Client
	log  zerolog.Logger

	// rawIDs remembers the JSON form of each fetched id so numeric ids are
	// sent back as numbers.
	mu     sync.RWMutex
	rawIDs map[string]json.RawMessage
}

func NewAPIClient(base string, httpClient *http.Client, log zerolog.Logger) *APIClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &APIClient{
		base:   strings.TrimRight(base, "/"),
		http:   httpClient,
		log:    log,
		rawIDs: make(map[string]json.RawMessage),
	}
}

// FetchAll loads the question list. A non-array body is an error.
func (c *APIClient) FetchAll(ctx context.Context) ([]domain.Question, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/all", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch questions: unexpected status %d", resp.StatusCode)
	}

	var wire []wireQuestion
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}

	questions := make([]domain.Question, 0, len(wire))
	c.mu.Lock()
	for _, w := range wire {
		q := w.toDomain()
		if len(w.ID) > 0 {
			c.rawIDs[q.ID] = append(json.RawMessage(nil), w.ID...)
		}
		questions = append(questions, q)
	}
	c.mu.Unlock()

	c.log.Debug().Int("count", len(questions)).Msg("questions fetched")
	return questions, nil
}

// Submit posts the answer and normalizes the verdict. Transport failures and
// non-2xx statuses return an error alongside false.
func (c *APIClient) Submit(ctx context.Context, questionID string, answer *string) (bool, error) {
	body, err := json.Marshal(submitRequest{ID: c.idFor(questionID), Answer: answer})
	if err != nil {
		return false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/submit", bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("submit answer: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return false, fmt.Errorf("read verdict: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Errorf("submit answer: unexpected status %d", resp.StatusCode)
	}
	return ParseVerdict(payload), nil
}

func (c *APIClient) idFor(questionID string) json.RawMessage {
	c.mu.RLock()
	raw, ok := c.rawIDs[questionID]
	c.mu.RUnlock()
	if ok {
		return raw
	}
	encoded, _ := json.Marshal(questionID)
	return encoded
}
