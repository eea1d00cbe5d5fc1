package engine

import (
	"errors"
	"testing"

	"alertpnl/types"

	"github.com/shopspring/decimal"
)

func alert(strategy, ts, payload string) types.RawAlert {
	return types.RawAlert{Strategy: strategy, Time: ts, Payload: payload}
}

func closedTradesBatch(strategy string) []types.RawAlert {
	return []types.RawAlert{
		alert(strategy, "2025-07-01 09:30:00", `{"trade_type":"buy","price":100,"quantity":1}`),
		alert(strategy, "2025-07-01 10:00:00", `{"trade_type":"exit","price":110,"quantity":1}`),
	}
}

func TestSplitByStrategy(t *testing.T) {
	batch := append(closedTradesBatch("alpha"), closedTradesBatch("beta")...)
	partitions := SplitByStrategy(batch)

	if len(partitions) != 2 {
		t.Fatalf("partitions = %d, want 2", len(partitions))
	}
	if len(partitions["alpha"]) != 2 || len(partitions["beta"]) != 2 {
		t.Errorf("partition sizes = %d/%d, want 2/2", len(partitions["alpha"]), len(partitions["beta"]))
	}
}

func TestProcessStrategy(t *testing.T) {
	result, err := ProcessStrategy(closedTradesBatch("alpha"), FilterParams{}, NewProfitConfig())
	if err != nil {
		t.Fatalf("ProcessStrategy() error = %v", err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(result.Rows))
	}
	if !decimalPtrEqual(result.Rows[1].Profit, "10") {
		t.Errorf("profit = %v, want 10", result.Rows[1].Profit)
	}
}

func TestProcessStrategyFlip(t *testing.T) {
	// Flipped, the winning long becomes a losing short.
	result, err := ProcessStrategy(closedTradesBatch("alpha"), FilterParams{}, NewProfitConfig().WithFlip(true))
	if err != nil {
		t.Fatalf("ProcessStrategy() error = %v", err)
	}
	if !decimalPtrEqual(result.Rows[1].Profit, "-10") {
		t.Errorf("flipped profit = %v, want -10", result.Rows[1].Profit)
	}
}

func TestProcessBatchIsolatesFailures(t *testing.T) {
	batch := append(closedTradesBatch("A"), closedTradesBatch("C")...)
	// Strategy B's payloads carry no trade-type at all: its sub-stream
	// fails and must not take A or C down with it.
	batch = append(batch,
		alert("B", "2025-07-01 09:30:00", `{"price":100}`),
		alert("B", "2025-07-01 10:00:00", `{"price":110}`),
	)

	result, err := ProcessBatch(batch, FilterParams{}, NewProfitConfig())
	if err != nil {
		t.Fatalf("ProcessBatch() error = %v", err)
	}

	if _, ok := result.Results["A"]; !ok {
		t.Error("result map missing strategy A")
	}
	if _, ok := result.Results["C"]; !ok {
		t.Error("result map missing strategy C")
	}
	if _, ok := result.Results["B"]; ok {
		t.Error("result map contains failed strategy B")
	}
	if !errors.Is(result.Failures["B"], ErrMissingField) {
		t.Errorf("failure for B = %v, want ErrMissingField", result.Failures["B"])
	}
}

func TestProcessBatchValidatesFiltersUpFront(t *testing.T) {
	_, err := ProcessBatch(closedTradesBatch("alpha"), FilterParams{Weeks: []int{0}}, NewProfitConfig())
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("ProcessBatch() error = %v, want ValidationError", err)
	}
}

func TestProcessBatchManyStrategies(t *testing.T) {
	var batch []types.RawAlert
	names := []string{"s1", "s2", "s3", "s4", "s5", "s6", "s7", "s8"}
	for _, name := range names {
		batch = append(batch, closedTradesBatch(name)...)
	}

	result, err := ProcessBatch(batch, FilterParams{}, NewProfitConfig())
	if err != nil {
		t.Fatalf("ProcessBatch() error = %v", err)
	}
	if len(result.Results) != len(names) {
		t.Fatalf("results = %d, want %d", len(result.Results), len(names))
	}
	for _, name := range names {
		rows := result.Results[name].Rows
		if len(rows) == 0 || !rows[len(rows)-1].Running.Equal(decimal.NewFromInt(10)) {
			t.Errorf("strategy %s running profit wrong", name)
		}
	}
}

func TestProfitSeriesFor(t *testing.T) {
	batch := append(closedTradesBatch("alpha"),
		alert("alpha", "2025-07-01 11:00:00", `{"trade_type":"sell","price":200,"quantity":1}`),
		alert("alpha", "2025-07-01 12:00:00", `{"trade_type":"exit","price":195,"quantity":1}`),
	)

	points, err := ProfitSeriesFor(batch, "alpha", FilterParams{}, NewProfitConfig())
	if err != nil {
		t.Fatalf("ProfitSeriesFor() error = %v", err)
	}
	// One point per closed trade, cumulative.
	if len(points) != 2 {
		t.Fatalf("points = %d, want 2", len(points))
	}
	if !points[0].Running.Equal(decimal.NewFromInt(10)) {
		t.Errorf("first point = %s, want 10", points[0].Running)
	}
	if !points[1].Running.Equal(decimal.NewFromInt(15)) {
		t.Errorf("second point = %s, want 15", points[1].Running)
	}
}

func TestProfitSeriesForUnknownStrategy(t *testing.T) {
	_, err := ProfitSeriesFor(closedTradesBatch("alpha"), "ghost", FilterParams{}, NewProfitConfig())
	if !errors.Is(err, ErrStrategyNotFound) {
		t.Errorf("ProfitSeriesFor() error = %v, want ErrStrategyNotFound", err)
	}
}
