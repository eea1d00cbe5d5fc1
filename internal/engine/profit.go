package engine

import (
	"time"

	"alertpnl/types"

	"github.com/shopspring/decimal"
)

// positionState is the profit engine's finite-state machine state: flat, or
// holding exactly one open position.
type positionState int

const (
	stateFlat positionState = iota
	stateInPosition
)

// position holds the state machine plus the open position's bookkeeping.
// The zero value is a flat position.
type position struct {
	state      positionState
	direction  int
	entryPrice decimal.Decimal
	entryQty   decimal.Decimal
}

// step feeds one row's token through the transition function and returns the
// next state plus the realized profit when the row closes a position, nil
// otherwise. Duplicate entries while in a position and exits while flat are
// both ignored. step is pure: it never mutates the receiver.
func (p position) step(token string, price, qty decimal.Decimal, cfg ProfitConfig) (position, *decimal.Decimal) {
	switch p.state {
	case stateFlat:
		if dir, ok := cfg.directions[token]; ok {
			return position{
				state:      stateInPosition,
				direction:  dir,
				entryPrice: price,
				entryQty:   qty,
			}, nil
		}
		return p, nil

	case stateInPosition:
		if _, ok := cfg.directions[token]; ok {
			// No pyramiding: a second entry is ignored.
			return p, nil
		}
		if token == cfg.exitToken {
			profit := realizedProfit(p, price, cfg)
			return position{}, &profit
		}
		return p, nil
	}
	return p, nil
}

// realizedProfit computes the closing row's profit:
//
//	(exit - entry) * direction * (qty * multiplier) - (feePerTrade + qty * feePerUnit)
//
// scaled by delta.
func realizedProfit(p position, exitPrice decimal.Decimal, cfg ProfitConfig) decimal.Decimal {
	gross := exitPrice.Sub(p.entryPrice).
		Mul(decimal.NewFromInt(int64(p.direction))).
		Mul(p.entryQty.Mul(cfg.multiplier))
	fees := cfg.feePerTrade.Add(p.entryQty.Mul(cfg.feePerUnit))
	return gross.Sub(fees).Mul(cfg.delta)
}

// AddTradeProfit walks rows in ascending timestamp order (guaranteed
// upstream) through the single-position state machine and returns the stream
// augmented with realized profit on closing rows and the running cumulative
// profit. Rows that do not close a position carry no profit value but still
// carry the running total. A position still open at the end of the stream
// produces no synthetic exit; it is reported through the returned
// OpenPosition for visibility and contributes nothing to profit.
func AddTradeProfit(rows []types.Row, cfg ProfitConfig) ([]types.ProfitRow, *types.OpenPosition, error) {
	if len(rows) > 0 {
		if err := requireTradeType(rows); err != nil {
			return nil, nil, err
		}
	}

	out := make([]types.ProfitRow, 0, len(rows))
	pos := position{}
	running := decimal.Zero
	var enteredAt time.Time

	for _, row := range rows {
		qty := decimal.NewFromInt(1)
		if cfg.useQuantity && row.HasQuantity {
			qty = row.Quantity
		}

		next, profit := pos.step(normalizeToken(row.TradeType), row.Price, qty, cfg)
		if pos.state == stateFlat && next.state == stateInPosition {
			enteredAt = row.Timestamp
		}
		pos = next

		pr := types.ProfitRow{Row: row}
		if profit != nil {
			running = running.Add(*profit)
			pr.Profit = profit
		}
		pr.Running = running
		out = append(out, pr)
	}

	var open *types.OpenPosition
	if pos.state == stateInPosition {
		open = &types.OpenPosition{
			Direction:  pos.direction,
			EntryPrice: pos.entryPrice,
			EntryQty:   pos.entryQty,
			EnteredAt:  enteredAt,
		}
	}
	return out, open, nil
}
