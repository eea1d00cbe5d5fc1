package engine

import (
	"context"
	"encoding/json"
	"sort"

	"alertpnl/types"
)

type alertStore interface {
	ListAlerts(ctx context.Context) ([]types.StoredAlert, error)
	ListAlertsByStrategy(ctx context.Context, strategy string) ([]types.StoredAlert, error)
}

// Engine ties the processing pipeline to an alert datastore. All processing
// is synchronous and CPU-bound; the store is the only I/O collaborator.
type Engine struct {
	store alertStore
}

func NewEngine(store alertStore) *Engine {
	return &Engine{store: store}
}

// Run loads every stored alert and processes the full multi-strategy batch
// with the given filters and profit configuration.
func (e *Engine) Run(ctx context.Context, filters FilterParams, cfg ProfitConfig) (BatchResult, error) {
	alerts, err := e.store.ListAlerts(ctx)
	if err != nil {
		return BatchResult{}, err
	}
	return ProcessBatch(StoredToRaw(alerts), filters, cfg)
}

// ProfitSeries computes the chart-facing running-profit series for one named
// strategy. Returns ErrStrategyNotFound when no alerts exist for the name.
func (e *Engine) ProfitSeries(ctx context.Context, name string, filters FilterParams, cfg ProfitConfig) ([]types.ProfitPoint, error) {
	alerts, err := e.store.ListAlertsByStrategy(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(alerts) == 0 {
		return nil, ErrStrategyNotFound
	}
	return ProfitSeriesFor(StoredToRaw(alerts), name, filters, cfg)
}

// StrategyNames returns the distinct strategy names present in the store,
// sorted for stable output.
func (e *Engine) StrategyNames(ctx context.Context) ([]string, error) {
	alerts, err := e.store.ListAlerts(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var names []string
	for _, alert := range alerts {
		if alert.Strategy == "" {
			continue
		}
		if _, ok := seen[alert.Strategy]; ok {
			continue
		}
		seen[alert.Strategy] = struct{}{}
		names = append(names, alert.Strategy)
	}
	sort.Strings(names)
	return names, nil
}

// storedPayload is the JSON shape a stored alert renders back into for the
// normalizer, mirroring the webhook payload it arrived as.
type storedPayload struct {
	Contract  string `json:"contract,omitempty"`
	TradeType string `json:"trade_type"`
	Quantity  string `json:"quantity"`
	Price     string `json:"price"`
}

// StoredToRaw renders stored alert records back into raw pipeline rows. The
// quantity column is non-nullable, so every record carries one; an explicit
// zero stays zero rather than degrading to the absent-quantity default.
func StoredToRaw(alerts []types.StoredAlert) []types.RawAlert {
	out := make([]types.RawAlert, 0, len(alerts))
	for _, alert := range alerts {
		payload, _ := json.Marshal(storedPayload{
			Contract:  alert.Contract,
			TradeType: alert.TradeType,
			Quantity:  alert.Quantity.String(),
			Price:     alert.Price.String(),
		})
		out = append(out, types.RawAlert{
			Strategy: alert.Strategy,
			Time:     alert.Timestamp.Format(types.DateTimeFormat),
			Payload:  string(payload),
		})
	}
	return out
}
