package engine

import (
	"strings"
	"unicode"

	"alertpnl/types"
)

// FlipSides returns a copy of rows with buy and sell tokens swapped, leaving
// exit tokens untouched. Used to evaluate the mirrored version of a strategy
// (longs become shorts and vice versa). The replacement token adopts the
// original token's casing pattern; unknown tokens pass through trimmed of
// whitespace. Flipping twice restores the original tokens.
func FlipSides(rows []types.Row, buyToken, sellToken string) ([]types.Row, error) {
	if len(rows) == 0 {
		return []types.Row{}, nil
	}
	if err := requireTradeType(rows); err != nil {
		return nil, err
	}

	buy := normalizeToken(buyToken)
	sell := normalizeToken(sellToken)

	out := make([]types.Row, len(rows))
	copy(out, rows)
	for i := range out {
		token := strings.TrimSpace(out[i].TradeType)
		switch normalizeToken(token) {
		case buy:
			out[i].TradeType = matchCase(token, sellToken)
		case sell:
			out[i].TradeType = matchCase(token, buyToken)
		default:
			out[i].TradeType = token
		}
	}
	return out, nil
}

// matchCase renders word with the casing pattern of template: all-upper,
// all-lower or title case. Any other pattern returns word as-is.
func matchCase(template, word string) string {
	switch {
	case template == strings.ToUpper(template):
		return strings.ToUpper(word)
	case template == strings.ToLower(template):
		return strings.ToLower(word)
	case isTitle(template):
		if word == "" {
			return word
		}
		runes := []rune(strings.ToLower(word))
		runes[0] = unicode.ToUpper(runes[0])
		return string(runes)
	default:
		return word
	}
}

func isTitle(s string) bool {
	runes := []rune(s)
	if len(runes) == 0 || !unicode.IsUpper(runes[0]) {
		return false
	}
	for _, r := range runes[1:] {
		if unicode.IsUpper(r) {
			return false
		}
	}
	return true
}
