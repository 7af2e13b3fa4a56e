package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"quiz-player/internal/app"
	"quiz-player/internal/domain"
)

// WSHandler runs one quiz session per WebSocket connection and streams its
// presenter output to the client. The client drives the session with
// select/next/retry messages.
type WSHandler struct {
	provider app.QuestionProvider
	judge    app.AnswerJudge
	recorder app.ResultRecorder
	policy   domain.Policy
	presets  func(name string) (domain.Policy, error)
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(provider app.QuestionProvider, judge app.AnswerJudge, recorder app.ResultRecorder, policy domain.Policy, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		provider: provider,
		judge:    judge,
		recorder: recorder,
		policy:   policy,
		presets:  domain.PolicyByName,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// WithPresets sets how a ?policy= query is resolved, so server-side
// overrides apply to every preset and not only the default one.
func (h *WSHandler) WithPresets(resolve func(name string) (domain.Policy, error)) *WSHandler {
	h.presets = resolve
	return h
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	Key string `json:"key"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type emptyPayload struct {
	Message string `json:"message"`
}

// wsPresenter queues session output for the connection writer. It never
// blocks: the session calls it with its lock held.
type wsPresenter struct {
	send chan outboundMessage
	log  zerolog.Logger
}

func (p *wsPresenter) push(msg outboundMessage) {
	select {
	case p.send <- msg:
	default:
		p.log.Warn().Str("type", msg.Type).Msg("ws send buffer full, dropping message")
	}
}

func (p *wsPresenter) ShowQuestion(view domain.QuestionView) {
	p.push(outboundMessage{Type: "question", Payload: view})
}

func (p *wsPresenter) ShowTimer(view domain.TimerView) {
	p.push(outboundMessage{Type: "tick", Payload: view})
}

func (p *wsPresenter) ShowFeedback(fb domain.Feedback) {
	p.push(outboundMessage{Type: "feedback", Payload: fb})
}

func (p *wsPresenter) ShowSummary(summary domain.Summary) {
	p.push(outboundMessage{Type: "summary", Payload: summary})
}

func (p *wsPresenter) ShowEmpty(message string) {
	p.push(outboundMessage{Type: "empty", Payload: emptyPayload{Message: message}})
}

// ServeWS upgrades the request and plays a quiz over the connection.
// An optional ?policy= query selects a preset other than the server default.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	policy := h.policy
	if name := r.URL.Query().Get("policy"); name != "" {
		p, err := h.presets(name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		policy = p
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	log := h.log.With().Str("remote", r.RemoteAddr).Logger()
	presenter := &wsPresenter{send: make(chan outboundMessage, 64), log: log}

	opts := []app.SessionOption{app.WithLogger(log)}
	if h.recorder != nil {
		opts = append(opts, app.WithRecorder(h.recorder))
	}
	session := app.NewSession(h.provider, h.judge, presenter, policy, opts...)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range presenter.send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug().Err(err).Msg("ws write error")
				return
			}
		}
	}()

	if err := session.Start(r.Context()); err != nil {
		presenter.push(outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}})
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.dispatch(session, presenter, inbound); err != nil {
			presenter.push(outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}})
		}
	}

	// No presenter calls happen once Close returns.
	session.Close()
	close(presenter.send)
	<-writerDone
}

func (h *WSHandler) dispatch(session *app.Session, presenter *wsPresenter, inbound inboundMessage) error {
	switch inbound.Type {
	case "select":
		var payload selectPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Key == "" {
			return errors.New("invalid select payload")
		}
		return session.Select(payload.Key)
	case "next":
		return session.Next()
	case "retry":
		return session.Retry()
	case "state":
		presenter.push(outboundMessage{Type: "state", Payload: session.Snapshot()})
		return nil
	default:
		return errors.New("unsupported message type")
	}
}
