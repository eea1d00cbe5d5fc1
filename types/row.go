package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade tokens and canonical timestamp layouts shared across the pipeline.
const (
	TokenBuy  = "buy"
	TokenSell = "sell"
	TokenExit = "exit"

	DateFormat     = "2006-01-02"
	TimeFormat     = "15:04:05"
	DateTimeFormat = DateFormat + " " + TimeFormat
)

// Row is one normalized alert: the parsed payload flattened into fixed
// optional fields plus an Extra map for unknown payload keys. Timestamp is
// the ordering key; TimeLabel carries the canonically formatted string.
//
// Pipeline stages copy rows and never write through Extra, so a Row slice
// returned by one stage can be safely handed to another.
type Row struct {
	Strategy    string
	Timestamp   time.Time
	TimeLabel   string
	TradeType   string
	Contract    string
	Price       decimal.Decimal
	Quantity    decimal.Decimal
	HasQuantity bool
	Extra       map[string]string
}

// ProfitRow is a Row augmented with realized and running profit. Profit is
// nil on every row that does not close a position.
type ProfitRow struct {
	Row
	Profit  *decimal.Decimal
	Running decimal.Decimal
}

// ProfitPoint is one point of the chart-facing profit series.
type ProfitPoint struct {
	Timestamp time.Time       `json:"timestamp"`
	Running   decimal.Decimal `json:"running_profit"`
}

// OpenPosition describes a position left open at the end of a stream. It is
// reported for visibility only and contributes nothing to profit.
type OpenPosition struct {
	Direction  int
	EntryPrice decimal.Decimal
	EntryQty   decimal.Decimal
	EnteredAt  time.Time
}
