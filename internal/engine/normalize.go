package engine

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"alertpnl/types"

	"github.com/shopspring/decimal"
)

// Payload keys recognized by the normalizer. Anything else lands in Extra.
const (
	keyTradeType = "trade_type"
	keyPrice     = "price"
	keyQuantity  = "quantity"
	keyContract  = "contract"
	keyTimestamp = "timestamp"
)

// Timestamp layouts accepted from alert sources, tried in order.
var timestampLayouts = []string{
	types.DateTimeFormat,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	types.DateFormat,
}

// Normalize turns raw alert rows into a flat table of rows sorted ascending
// by parsed timestamp. Malformed or empty JSON payloads are treated as empty
// objects so a single bad alert never fails the batch; an alert without a
// strategy name is a caller-contract violation and fails with
// ErrMissingField. The canonical timestamp string is written back into each
// row's TimeLabel.
func Normalize(alerts []types.RawAlert) ([]types.Row, error) {
	rows := make([]types.Row, 0, len(alerts))
	for i, alert := range alerts {
		if alert.Strategy == "" {
			return nil, fmt.Errorf("%w: strategy name (row %d)", ErrMissingField, i)
		}

		row := parsePayload(alert.Payload)
		row.Strategy = alert.Strategy

		// Timestamp source: the row's own time field, then a payload
		// timestamp, then the positional index as a last resort.
		raw := alert.Time
		if raw == "" {
			raw = row.TimeLabel
		}
		if raw == "" {
			raw = strconv.Itoa(i)
		}
		ts, ok := parseTimestamp(raw)
		if !ok {
			// Data quality, not schema: keep the row on a zero instant.
			slog.Warn("unparsable alert timestamp",
				"strategy", alert.Strategy,
				"value", raw,
			)
		}
		row.Timestamp = ts
		row.TimeLabel = ts.Format(types.DateTimeFormat)
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Timestamp.Before(rows[j].Timestamp)
	})
	return rows, nil
}

// parsePayload decodes one JSON payload into a Row, tolerating malformed
// input. Known keys fill the fixed fields; unknown keys are kept as strings
// in Extra.
func parsePayload(raw string) types.Row {
	row := types.Row{}

	var fields map[string]any
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			slog.Warn("malformed alert payload", "err", err)
			fields = nil
		}
	}

	for k, v := range fields {
		switch k {
		case keyTradeType:
			row.TradeType, _ = v.(string)
		case keyContract:
			row.Contract, _ = v.(string)
		case keyPrice:
			if d, ok := toDecimal(v); ok {
				row.Price = d
			}
		case keyQuantity:
			if d, ok := toDecimal(v); ok {
				row.Quantity = d
				row.HasQuantity = true
			}
		case keyTimestamp:
			if s, ok := v.(string); ok {
				row.TimeLabel = s
			}
		default:
			if row.Extra == nil {
				row.Extra = make(map[string]string)
			}
			row.Extra[k] = fmt.Sprint(v)
		}
	}
	return row
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), true
	case string:
		d, err := decimal.NewFromString(n)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}

// parseTimestamp parses a raw timestamp string, falling back to a positional
// index rendered by Normalize. The bool reports whether parsing succeeded.
func parseTimestamp(raw string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	// Positional index fallback: second offsets from the zero instant keep
	// the original ordering.
	if n, err := strconv.Atoi(raw); err == nil {
		return time.Time{}.Add(time.Duration(n) * time.Second), true
	}
	return time.Time{}, false
}
