package engine

import (
	"alertpnl/types"

	"github.com/shopspring/decimal"
)

// ProfitConfig drives the profit engine: fee model, scalar adjustments, the
// entry-token direction mapping and the exit token. The zero value is not
// usable; build one with NewProfitConfig.
type ProfitConfig struct {
	multiplier  decimal.Decimal
	delta       decimal.Decimal
	feePerTrade decimal.Decimal
	feePerUnit  decimal.Decimal
	directions  map[string]int // normalized entry token -> +1 long / -1 short
	exitToken   string
	useQuantity bool
	flip        bool
}

// NewProfitConfig returns the default configuration: multiplier and delta of
// one, no fees, buy opens long and sell opens short, "exit" closes, and the
// quantity column is used when present.
func NewProfitConfig() ProfitConfig {
	return ProfitConfig{
		multiplier: decimal.NewFromInt(1),
		delta:      decimal.NewFromInt(1),
		directions: map[string]int{
			types.TokenBuy:  +1,
			types.TokenSell: -1,
		},
		exitToken:   types.TokenExit,
		useQuantity: true,
	}
}

func (c ProfitConfig) WithMultiplier(m decimal.Decimal) ProfitConfig {
	c.multiplier = m
	return c
}

func (c ProfitConfig) WithDelta(d decimal.Decimal) ProfitConfig {
	c.delta = d
	return c
}

func (c ProfitConfig) WithFees(perTrade, perUnit decimal.Decimal) ProfitConfig {
	c.feePerTrade = perTrade
	c.feePerUnit = perUnit
	return c
}

// WithDirections replaces the entry-token direction mapping. The mapping
// also defines the entry set for trimming and the state machine.
func (c ProfitConfig) WithDirections(directions map[string]int) ProfitConfig {
	normalized := make(map[string]int, len(directions))
	for token, dir := range directions {
		normalized[normalizeToken(token)] = dir
	}
	c.directions = normalized
	return c
}

func (c ProfitConfig) WithExitToken(token string) ProfitConfig {
	c.exitToken = normalizeToken(token)
	return c
}

// WithoutQuantity disables the quantity column; every trade is sized 1.0.
func (c ProfitConfig) WithoutQuantity() ProfitConfig {
	c.useQuantity = false
	return c
}

// WithFlip swaps buy/sell tokens before profit computation, evaluating the
// mirrored strategy.
func (c ProfitConfig) WithFlip(flip bool) ProfitConfig {
	c.flip = flip
	return c
}

// entryTokens returns the configured entry set in no particular order.
func (c ProfitConfig) entryTokens() []string {
	tokens := make([]string, 0, len(c.directions))
	for token := range c.directions {
		tokens = append(tokens, token)
	}
	return tokens
}
