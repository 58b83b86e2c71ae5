package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"quiznufi-service/internal/app"
	"quiznufi-service/internal/auth"
	"quiznufi-service/internal/domain"
	"quiznufi-service/internal/logger"
	"quiznufi-service/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const maxLeaderboardLimit = 100

// Options wire the HTTP layer to the service.
type Options struct {
	Quiz    *app.QuizService
	Auth    *auth.Service
	Metrics *metrics.Manager // optional
	Logger  logger.Logger

	// Defaults fill in a session request's missing fields.
	Defaults         domain.SessionConfig
	LeaderboardLimit int
	CORSOrigins      []string

	// BaseContext bounds the timers of sessions started over REST, which
	// outlive the request that created them.
	BaseContext context.Context
}

type API struct {
	quiz     *app.QuizService
	auth     *auth.Service
	metrics  *metrics.Manager
	log      logger.Logger
	defaults domain.SessionConfig
	limit    int
	origins  []string
	baseCtx  context.Context
	ws       *WSHandler
}

func NewAPI(opts Options) *API {
	if opts.Logger == nil {
		opts.Logger = logger.Named("http")
	}
	if opts.BaseContext == nil {
		opts.BaseContext = context.Background()
	}
	if opts.LeaderboardLimit < 1 {
		opts.LeaderboardLimit = app.DefaultLeaderboardLimit
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	a := &API{
		quiz:     opts.Quiz,
		auth:     opts.Auth,
		metrics:  opts.Metrics,
		log:      opts.Logger,
		defaults: opts.Defaults,
		limit:    opts.LeaderboardLimit,
		origins:  opts.CORSOrigins,
		baseCtx:  opts.BaseContext,
	}
	a.ws = NewWSHandler(opts.Quiz, opts.Auth, opts.Defaults, opts.Logger.Named("ws"))
	return a
}

// Router builds the chi router with every route mounted.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: a.origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         300,
	}))
	if a.metrics != nil {
		r.Use(a.metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", a.metrics.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ws/play", a.ws.ServeWS)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Use(auth.Middleware(a.auth))

		r.Post("/auth/register", a.register)
		r.Post("/auth/login", a.login)
		r.Get("/areas/{area}/difficulties", a.difficulties)
		r.Get("/leaderboard", a.leaderboard)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", a.startSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", a.sessionState)
				r.Post("/answer", a.answer)
				r.Post("/advance", a.advance)
				r.Delete("/", a.endSession)
			})
		})
	})
	return r
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decode(w, r, &req) {
		return
	}
	session, err := a.auth.Register(r.Context(), req.Email, req.Password, req.Username)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decode(w, r, &req) {
		return
	}
	session, err := a.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (a *API) difficulties(w http.ResponseWriter, r *http.Request) {
	area := chi.URLParam(r, "area")
	levels, err := a.quiz.DifficultyLevels(r.Context(), area)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if levels == nil {
		levels = []int{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"area": area, "difficulties": levels})
}

type leaderboardRow struct {
	domain.LeaderboardEntry
	Name    string `json:"name"`
	Display string `json:"display"`
}

func (a *API) leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := a.limit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxLeaderboardLimit {
			writeError(w, http.StatusBadRequest, errors.New("limit must be between 1 and 100"))
			return
		}
		limit = n
	}
	entries, err := a.quiz.Leaderboard(r.Context(), limit)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	rows := make([]leaderboardRow, len(entries))
	for i, e := range entries {
		rows[i] = leaderboardRow{LeaderboardEntry: e, Name: e.Name(), Display: e.String()}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": rows})
}

// startRequest.Count is a pointer so an explicit zero or negative count
// still reaches the engine, which clamps it to the pool size.
type startRequest struct {
	Area       string `json:"area"`
	Difficulty int    `json:"difficulty"`
	Count      *int   `json:"count"`
}

type startResponse struct {
	Session domain.SessionState `json:"session"`
	Notice  *domain.Notice      `json:"notice,omitempty"`
}

func (a *API) startSession(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}
	cfg := a.sessionConfig(req.Area, req.Difficulty, req.Count)
	identity := auth.IdentityFromContext(r.Context())

	runner, notice, err := a.quiz.StartSession(r.Context(), identity, cfg, nil)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	state := runner.Begin(a.baseCtx)
	writeJSON(w, http.StatusCreated, startResponse{Session: state, Notice: notice})
}

func (a *API) sessionState(w http.ResponseWriter, r *http.Request) {
	runner, ok := a.runner(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, runner.State())
}

type answerRequest struct {
	Value string `json:"value"`
}

type answerResponse struct {
	Outcome domain.AnswerOutcome `json:"outcome"`
	Session domain.SessionState  `json:"session"`
}

func (a *API) answer(w http.ResponseWriter, r *http.Request) {
	runner, ok := a.runner(w, r)
	if !ok {
		return
	}
	var req answerRequest
	if !decode(w, r, &req) {
		return
	}
	outcome, err := runner.Answer(req.Value)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, answerResponse{Outcome: outcome, Session: runner.State()})
}

func (a *API) advance(w http.ResponseWriter, r *http.Request) {
	runner, ok := a.runner(w, r)
	if !ok {
		return
	}
	state, err := runner.Next()
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (a *API) endSession(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.runner(w, r); !ok {
		return
	}
	a.quiz.EndSession(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// runner resolves the {id} session. A session started by an account is
// only visible to that account.
func (a *API) runner(w http.ResponseWriter, r *http.Request) (*app.Runner, bool) {
	runner, err := a.quiz.Session(chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return nil, false
	}
	owner := runner.Identity()
	if !owner.Guest && owner.UserID != auth.IdentityFromContext(r.Context()).UserID {
		a.fail(w, r, domain.ErrSessionNotFound)
		return nil, false
	}
	return runner, true
}

func (a *API) sessionConfig(area string, difficulty int, count *int) domain.SessionConfig {
	cfg := a.defaults
	if area != "" {
		cfg.Area = area
	}
	if difficulty > 0 {
		cfg.Difficulty = difficulty
	}
	if count != nil {
		cfg.QuestionCount = *count
	}
	return cfg
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		a.log.Warn(r.Context(), "request failed", logger.String("path", r.URL.Path), logger.Error(err))
	}
	writeError(w, status, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSessionCompleted), errors.Is(err, domain.ErrQuestionPending):
		return http.StatusConflict
	case errors.Is(err, domain.ErrEmptyPool), errors.Is(err, domain.ErrInvalidQuestion):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrAuthFailed):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrRepositoryUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrLeaderboardFetchFailed), errors.Is(err, domain.ErrSubmissionFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("bad json"))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorPayload{Message: err.Error()})
}
