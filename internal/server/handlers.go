package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"alertpnl/internal/engine"
	"alertpnl/types"
)

type webhookRequest struct {
	SecretKey string          `json:"secret_key"`
	Contract  string          `json:"contract"`
	TradeType string          `json:"trade_type"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Timestamp string          `json:"timestamp"`
}

// handleWebhook ingests a strategy alert. The secret key (header or body)
// resolves the strategy the alert belongs to. A missing timestamp is stamped
// with the current UTC time.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		s.writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
		return
	}

	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed JSON body"})
		return
	}

	secret := r.Header.Get("X-Secret-Key")
	if secret == "" {
		secret = req.SecretKey
	}
	key, err := s.store.KeyBySecret(r.Context(), secret)
	if err != nil {
		s.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unknown secret key"})
		return
	}

	ts := parseAlertTime(req.Timestamp)
	saved, err := s.store.SaveAlert(r.Context(), types.StoredAlert{
		Strategy:  key.Strategy,
		Contract:  req.Contract,
		TradeType: req.TradeType,
		Quantity:  req.Quantity,
		Price:     req.Price,
		SecretKey: secret,
		Timestamp: ts,
	})
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.log.Info("alert received", "strategy", key.Strategy, "trade_type", req.TradeType)
	s.writeJSON(w, http.StatusCreated, saved)
}

func parseAlertTime(raw string) time.Time {
	for _, layout := range []string{types.DateTimeFormat, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Now().UTC()
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	var (
		alerts []types.StoredAlert
		err    error
	)
	if strategy := r.URL.Query().Get("strategy"); strategy != "" {
		alerts, err = s.store.ListAlertsByStrategy(r.Context(), strategy)
	} else {
		alerts, err = s.store.ListAlerts(r.Context())
	}
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if alerts == nil {
		alerts = []types.StoredAlert{}
	}
	s.writeJSON(w, http.StatusOK, alerts)
}

func (s *Server) handleGetAlert(w http.ResponseWriter, r *http.Request) {
	alert, err := s.store.GetAlert(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, alert)
}

func (s *Server) handleUpdateAlert(w http.ResponseWriter, r *http.Request) {
	var alert types.StoredAlert
	if err := json.NewDecoder(r.Body).Decode(&alert); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed JSON body"})
		return
	}
	alert.ID = r.PathValue("id")
	if alert.Strategy == "" {
		s.writeErr(w, r, fmt.Errorf("%w: strategy", engine.ErrMissingField))
		return
	}
	if err := s.store.UpdateAlert(r.Context(), alert); err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, alert)
}

func (s *Server) handleDeleteAlert(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteAlert(r.Context(), r.PathValue("id")); err != nil {
		s.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStrategies(w http.ResponseWriter, r *http.Request) {
	names, err := s.engine.StrategyNames(r.Context())
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	s.writeJSON(w, http.StatusOK, names)
}

type profitKnobs struct {
	Multiplier  *float64       `json:"multiplier"`
	Delta       *float64       `json:"delta"`
	FeePerTrade *float64       `json:"fee_per_trade"`
	FeePerUnit  *float64       `json:"fee_per_unit"`
	UseQuantity *bool          `json:"use_quantity"`
	Flip        bool           `json:"flip"`
	Directions  map[string]int `json:"directions"`
	ExitToken   string         `json:"exit_token"`
}

func (k profitKnobs) config() engine.ProfitConfig {
	cfg := engine.NewProfitConfig()
	if k.Multiplier != nil {
		cfg = cfg.WithMultiplier(decimal.NewFromFloat(*k.Multiplier))
	}
	if k.Delta != nil {
		cfg = cfg.WithDelta(decimal.NewFromFloat(*k.Delta))
	}
	if k.FeePerTrade != nil || k.FeePerUnit != nil {
		perTrade, perUnit := decimal.Zero, decimal.Zero
		if k.FeePerTrade != nil {
			perTrade = decimal.NewFromFloat(*k.FeePerTrade)
		}
		if k.FeePerUnit != nil {
			perUnit = decimal.NewFromFloat(*k.FeePerUnit)
		}
		cfg = cfg.WithFees(perTrade, perUnit)
	}
	if k.UseQuantity != nil && !*k.UseQuantity {
		cfg = cfg.WithoutQuantity()
	}
	if k.Flip {
		cfg = cfg.WithFlip(true)
	}
	if len(k.Directions) > 0 {
		cfg = cfg.WithDirections(k.Directions)
	}
	if k.ExitToken != "" {
		cfg = cfg.WithExitToken(k.ExitToken)
	}
	return cfg
}

type profitSeriesRequest struct {
	Strategy string              `json:"strategy"`
	Filters  engine.FilterParams `json:"filters"`
	Config   profitKnobs         `json:"config"`
}

// handleProfitSeries returns the running-profit curve for one strategy,
// one point per closed trade.
func (s *Server) handleProfitSeries(w http.ResponseWriter, r *http.Request) {
	var req profitSeriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed JSON body"})
		return
	}
	if req.Strategy == "" {
		s.writeErr(w, r, fmt.Errorf("%w: strategy", engine.ErrMissingField))
		return
	}

	points, err := s.engine.ProfitSeries(r.Context(), req.Strategy, req.Filters, req.Config.config())
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if points == nil {
		points = []types.ProfitPoint{}
	}
	s.writeJSON(w, http.StatusOK, points)
}

type reportsRequest struct {
	Filters engine.FilterParams `json:"filters"`
	Config  profitKnobs         `json:"config"`
}

type reportsResponse struct {
	Reports  []*engine.Report  `json:"reports"`
	Failures map[string]string `json:"failures,omitempty"`
}

// handleReports runs the whole batch and returns per-strategy summaries.
// The body takes the same optional filters and profit knobs as the
// profit-series endpoint; an empty body means defaults. Strategies that
// fail to process are reported alongside, not instead of, the ones that
// succeed.
func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	var req reportsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed JSON body"})
		return
	}

	batch, err := s.engine.Run(r.Context(), req.Filters, req.Config.config())
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	resp := reportsResponse{Reports: engine.BuildReports(batch)}
	if len(batch.Failures) > 0 {
		resp.Failures = make(map[string]string, len(batch.Failures))
		for name, ferr := range batch.Failures {
			resp.Failures[name] = ferr.Error()
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type createKeyRequest struct {
	Strategy    string `json:"strategy"`
	Description string `json:"description"`
}

func (s *Server) handleCreateKey(w http.ResponseWriter, r *http.Request) {
	var req createKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed JSON body"})
		return
	}
	if req.Strategy == "" {
		s.writeErr(w, r, fmt.Errorf("%w: strategy", engine.ErrMissingField))
		return
	}
	key, err := s.store.CreateKey(r.Context(), req.Strategy, req.Description)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, key)
}

func (s *Server) handleListKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := s.store.ListKeys(r.Context())
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if keys == nil {
		keys = []types.StrategyKey{}
	}
	s.writeJSON(w, http.StatusOK, keys)
}

func (s *Server) handleDeleteKey(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteKey(r.Context(), r.PathValue("id")); err != nil {
		s.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
