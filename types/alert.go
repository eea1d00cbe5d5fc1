package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawAlert is one alert row as it enters the pipeline: the strategy that
// fired it, the raw timestamp string and the JSON payload text exactly as
// received.
type RawAlert struct {
	Strategy string
	Time     string
	Payload  string
}

// StoredAlert is an alert record as persisted in the datastore.
type StoredAlert struct {
	ID        string          `json:"id"`
	Strategy  string          `json:"strategy"`
	Contract  string          `json:"contract,omitempty"`
	TradeType string          `json:"trade_type"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	SecretKey string          `json:"-"`
	Timestamp time.Time       `json:"timestamp"`
}

// StrategyKey maps a webhook secret key to the strategy it authenticates.
type StrategyKey struct {
	ID          string `json:"id"`
	SecretKey   string `json:"secret_key"`
	Strategy    string `json:"strategy"`
	Description string `json:"description,omitempty"`
}
