package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"alertpnl/internal/engine"
	"alertpnl/internal/repository"
	"alertpnl/types"
)

// store is the persistence surface the HTTP layer depends on. The repository
// Database satisfies it.
type store interface {
	SaveAlert(ctx context.Context, alert types.StoredAlert) (types.StoredAlert, error)
	GetAlert(ctx context.Context, id string) (types.StoredAlert, error)
	ListAlerts(ctx context.Context) ([]types.StoredAlert, error)
	ListAlertsByStrategy(ctx context.Context, strategy string) ([]types.StoredAlert, error)
	UpdateAlert(ctx context.Context, alert types.StoredAlert) error
	DeleteAlert(ctx context.Context, id string) error
	CreateKey(ctx context.Context, strategy, description string) (types.StrategyKey, error)
	KeyBySecret(ctx context.Context, secret string) (types.StrategyKey, error)
	ListKeys(ctx context.Context) ([]types.StrategyKey, error)
	DeleteKey(ctx context.Context, id string) error
}

// Server exposes the alert webhook and the analysis API over HTTP.
type Server struct {
	store   store
	engine  *engine.Engine
	limiter *rate.Limiter
	log     *slog.Logger
}

// Options tune the server behavior.
type Options struct {
	WebhookRate  float64 // alerts per second accepted on the webhook
	WebhookBurst int
}

func New(st store, opts Options, log *slog.Logger) *Server {
	if opts.WebhookRate <= 0 {
		opts.WebhookRate = 10
	}
	if opts.WebhookBurst <= 0 {
		opts.WebhookBurst = 20
	}
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		store:   st,
		engine:  engine.NewEngine(st),
		limiter: rate.NewLimiter(rate.Limit(opts.WebhookRate), opts.WebhookBurst),
		log:     log,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /alerts", s.handleWebhook)
	mux.HandleFunc("GET /alerts", s.handleListAlerts)
	mux.HandleFunc("GET /alerts/{id}", s.handleGetAlert)
	mux.HandleFunc("PUT /alerts/{id}", s.handleUpdateAlert)
	mux.HandleFunc("DELETE /alerts/{id}", s.handleDeleteAlert)
	mux.HandleFunc("GET /strategies", s.handleStrategies)
	mux.HandleFunc("POST /profit-series", s.handleProfitSeries)
	mux.HandleFunc("GET /reports", s.handleReports)
	mux.HandleFunc("POST /reports", s.handleReports)
	mux.HandleFunc("POST /keys", s.handleCreateKey)
	mux.HandleFunc("GET /keys", s.handleListKeys)
	mux.HandleFunc("DELETE /keys/{id}", s.handleDeleteKey)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeErr maps domain errors onto HTTP statuses.
func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *engine.ValidationError
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &vErr), errors.Is(err, engine.ErrMissingField):
		status = http.StatusBadRequest
	case errors.Is(err, repository.ErrAlertNotFound),
		errors.Is(err, repository.ErrKeyNotFound),
		errors.Is(err, engine.ErrStrategyNotFound):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}
