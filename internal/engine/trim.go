package engine

import (
	"fmt"
	"strings"

	"alertpnl/types"
)

// TrimToClosedTrades slices a normalized, ascending-ordered stream down to
// the span between the first entry row and the LAST exit row at or after it,
// inclusive. Anchoring the window end at the last exit keeps intermediate
// entry/exit cycles inside the window so the profit engine can account for
// each of them. Returns an empty slice when no entry exists, or no exit
// follows the first entry.
//
// Tokens are compared after trimming whitespace and lowercasing; original
// casing is preserved in the returned rows.
func TrimToClosedTrades(rows []types.Row, entryTokens []string, exitToken string) ([]types.Row, error) {
	if len(rows) == 0 {
		return []types.Row{}, nil
	}
	if err := requireTradeType(rows); err != nil {
		return nil, err
	}

	entries := make(map[string]struct{}, len(entryTokens))
	for _, t := range entryTokens {
		entries[normalizeToken(t)] = struct{}{}
	}
	exit := normalizeToken(exitToken)

	firstEntry := -1
	for i, row := range rows {
		if _, ok := entries[normalizeToken(row.TradeType)]; ok {
			firstEntry = i
			break
		}
	}
	if firstEntry < 0 {
		return []types.Row{}, nil
	}

	lastExit := -1
	for i := firstEntry; i < len(rows); i++ {
		if normalizeToken(rows[i].TradeType) == exit {
			lastExit = i
		}
	}
	if lastExit < 0 {
		return []types.Row{}, nil
	}

	out := make([]types.Row, lastExit-firstEntry+1)
	copy(out, rows[firstEntry:lastExit+1])
	return out, nil
}

func normalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// requireTradeType models the "trade type column missing" contract check: a
// non-empty stream where no row carries any trade-type token at all cannot
// be processed as a signal stream.
func requireTradeType(rows []types.Row) error {
	for _, row := range rows {
		if strings.TrimSpace(row.TradeType) != "" {
			return nil
		}
	}
	return fmt.Errorf("%w: trade type", ErrMissingField)
}
