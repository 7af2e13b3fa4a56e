package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"quiz-player/internal/app"
	"quiz-player/internal/domain"
)

// APIHandler serves the quiz REST contract from a question bank.
type APIHandler struct {
	bank *app.BankService
	log  zerolog.Logger
}

func NewAPIHandler(bank *app.BankService, log zerolog.Logger) *APIHandler {
	return &APIHandler{bank: bank, log: log}
}

// All handles GET /all.
func (h *APIHandler) All(w http.ResponseWriter, r *http.Request) {
	questions, err := h.bank.FetchAll(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("load bank failed")
		writeJSON(w, http.StatusInternalServerError, errorPayload{Message: "questions unavailable"})
		return
	}
	out := make([]wireQuestion, 0, len(questions))
	for _, q := range questions {
		out = append(out, fromDomain(q))
	}
	writeJSON(w, http.StatusOK, out)
}

// Submit handles POST /submit.
func (h *APIHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "invalid submit payload"})
		return
	}
	id := rawID(req.ID)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "missing id"})
		return
	}

	correct, err := h.bank.Submit(r.Context(), id, req.Answer)
	switch {
	case errors.Is(err, domain.ErrQuestionNotFound):
		writeJSON(w, http.StatusNotFound, errorPayload{Message: err.Error()})
		return
	case err != nil:
		h.log.Error().Err(err).Str("question", id).Msg("judge failed")
		writeJSON(w, http.StatusInternalServerError, errorPayload{Message: "judge unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{Correct: correct})
}

type errorPayload struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
