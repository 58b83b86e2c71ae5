package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"quiznufi-service/internal/app"
	"quiznufi-service/internal/auth"
	"quiznufi-service/internal/domain"
	"quiznufi-service/internal/logger"

	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  *app.QuizService
	auth     *auth.Service
	defaults domain.SessionConfig
	log      logger.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, authService *auth.Service, defaults domain.SessionConfig, log logger.Logger) *WSHandler {
	return &WSHandler{
		service:  service,
		auth:     authService,
		defaults: defaults,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type startedPayload struct {
	SessionID string         `json:"sessionId"`
	Total     int            `json:"total"`
	Notice    *domain.Notice `json:"notice,omitempty"`
}

type tickPayload struct {
	Remaining int `json:"remaining"`
}

// wsPresenter turns runner events into outbound messages. The runner calls
// it under its lock, so it only enqueues; a full queue drops the event.
type wsPresenter struct {
	mu     sync.Mutex
	send   chan outboundMessage
	closed bool
}

func newWSPresenter() *wsPresenter {
	return &wsPresenter{send: make(chan outboundMessage, 64)}
}

func (p *wsPresenter) emit(typ string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	select {
	case p.send <- outboundMessage{Type: typ, Payload: payload}:
	default:
	}
}

func (p *wsPresenter) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.send)
	}
}

func (p *wsPresenter) Render(state domain.SessionState)       { p.emit("question", state) }
func (p *wsPresenter) OnTimerTick(remaining int)              { p.emit("tick", tickPayload{Remaining: remaining}) }
func (p *wsPresenter) OnOutcome(outcome domain.AnswerOutcome) { p.emit("outcome", outcome) }
func (p *wsPresenter) OnFinished(summary domain.Summary)      { p.emit("completed", summary) }

// ServeWS upgrades to a websocket and runs one quiz session over it.
// Query: area, difficulty, count, token (all optional).
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if token := r.URL.Query().Get("token"); token != "" {
		verified, err := h.auth.Verify(token)
		if err != nil {
			http.Error(w, "bad token", http.StatusUnauthorized)
			return
		}
		identity = verified
	}
	cfg, err := h.sessionConfig(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn(r.Context(), "ws upgrade failed", logger.Error(err))
		return
	}
	defer conn.Close()

	// The session must outlive neither the socket nor the request.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	presenter := newWSPresenter()
	runner, notice, err := h.service.StartSession(ctx, identity, cfg, presenter)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer h.service.EndSession(runner.ID())

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range presenter.send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug(ctx, "ws write error", logger.Error(err))
				return
			}
		}
	}()

	presenter.emit("started", startedPayload{SessionID: runner.ID(), Total: runner.State().Total, Notice: notice})
	runner.Begin(ctx)

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerRequest
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				presenter.emit("error", errorPayload{Message: "invalid answer payload"})
				continue
			}
			outcome, err := runner.Answer(payload.Value)
			if err != nil {
				presenter.emit("error", errorPayload{Message: err.Error()})
				continue
			}
			if outcome.Kind == domain.OutcomeAlreadyAnswered {
				presenter.emit("outcome", outcome)
			}
		case "next":
			if _, err := runner.Next(); err != nil {
				presenter.emit("error", errorPayload{Message: err.Error()})
			}
		default:
			presenter.emit("error", errorPayload{Message: "unsupported message type"})
		}
	}

	runner.Stop()
	cancel()
	presenter.close()
	<-writerDone
}

func (h *WSHandler) sessionConfig(r *http.Request) (domain.SessionConfig, error) {
	cfg := h.defaults
	q := r.URL.Query()
	if area := q.Get("area"); area != "" {
		cfg.Area = area
	}
	if raw := q.Get("difficulty"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return cfg, &queryError{name: "difficulty"}
		}
		cfg.Difficulty = n
	}
	// Any count is accepted; the engine clamps it and reports the adjustment.
	if raw := q.Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return cfg, &queryError{name: "count"}
		}
		cfg.QuestionCount = n
	}
	return cfg, nil
}

type queryError struct{ name string }

func (e *queryError) Error() string { return "invalid " + e.name }
