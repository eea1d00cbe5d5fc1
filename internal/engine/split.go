package engine

import (
	"log/slog"
	"runtime"
	"sync"

	"alertpnl/types"
)

// StrategyResult is one strategy's fully processed stream: the trimmed,
// filtered window with profit columns attached, plus an indicator for a
// position left open at the end of the stream.
type StrategyResult struct {
	Rows         []types.ProfitRow
	OpenPosition *types.OpenPosition
}

// BatchResult collects per-strategy outcomes of a multi-strategy batch.
// A strategy appears in exactly one of the two maps: Results on success,
// Failures when its sub-stream could not be processed. One strategy's
// failure never affects the others.
type BatchResult struct {
	Results  map[string]StrategyResult
	Failures map[string]error
}

// SplitByStrategy partitions a batch of raw alerts by strategy name. Each
// partition is an independent copy; the shared input is never handed to
// more than one consumer.
func SplitByStrategy(alerts []types.RawAlert) map[string][]types.RawAlert {
	out := make(map[string][]types.RawAlert)
	for _, alert := range alerts {
		out[alert.Strategy] = append(out[alert.Strategy], alert)
	}
	return out
}

// ProcessStrategy drives one strategy's alerts through the full pipeline:
// normalize, trim to closed trades, optional side flip, filters, profit.
func ProcessStrategy(alerts []types.RawAlert, filters FilterParams, cfg ProfitConfig) (StrategyResult, error) {
	if err := filters.Validate(); err != nil {
		return StrategyResult{}, err
	}

	rows, err := Normalize(alerts)
	if err != nil {
		return StrategyResult{}, err
	}
	rows, err = TrimToClosedTrades(rows, cfg.entryTokens(), cfg.exitToken)
	if err != nil {
		return StrategyResult{}, err
	}
	if cfg.flip {
		rows, err = FlipSides(rows, types.TokenBuy, types.TokenSell)
		if err != nil {
			return StrategyResult{}, err
		}
	}
	if !filters.isZero() {
		rows, err = ApplyFilters(rows, filters)
		if err != nil {
			return StrategyResult{}, err
		}
	}
	profitRows, open, err := AddTradeProfit(rows, cfg)
	if err != nil {
		return StrategyResult{}, err
	}
	return StrategyResult{Rows: profitRows, OpenPosition: open}, nil
}

// ProcessBatch partitions alerts by strategy and runs each partition through
// the pipeline on its own worker. Partitions share no state, so they are
// processed concurrently; the partition step itself happens once, up front.
// Filter configuration is validated before any row processing; a bad filter
// fails the whole call rather than poisoning every partition.
func ProcessBatch(alerts []types.RawAlert, filters FilterParams, cfg ProfitConfig) (BatchResult, error) {
	if err := filters.Validate(); err != nil {
		return BatchResult{}, err
	}

	partitions := SplitByStrategy(alerts)
	batch := BatchResult{
		Results:  make(map[string]StrategyResult, len(partitions)),
		Failures: make(map[string]error),
	}

	workers := runtime.NumCPU()
	if workers > len(partitions) {
		workers = len(partitions)
	}
	if workers < 1 {
		return batch, nil
	}

	type work struct {
		name   string
		alerts []types.RawAlert
	}
	type outcome struct {
		name   string
		result StrategyResult
		err    error
	}

	workCh := make(chan work, len(partitions))
	resultCh := make(chan outcome, len(partitions))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for w := range workCh {
				result, err := ProcessStrategy(w.alerts, filters, cfg)
				resultCh <- outcome{name: w.name, result: result, err: err}
			}
		}()
	}

	for name, partition := range partitions {
		workCh <- work{name: name, alerts: partition}
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	for o := range resultCh {
		if o.err != nil {
			slog.Error("strategy processing failed", "strategy", o.name, "err", o.err)
			batch.Failures[o.name] = o.err
			continue
		}
		batch.Results[o.name] = o.result
	}
	return batch, nil
}

// ProfitSeriesFor projects a single strategy's result down to the
// chart-facing (timestamp, running profit) series, one point per closed
// trade. It fails with ErrStrategyNotFound when the batch has no alerts for
// the requested name.
func ProfitSeriesFor(alerts []types.RawAlert, name string, filters FilterParams, cfg ProfitConfig) ([]types.ProfitPoint, error) {
	partitions := SplitByStrategy(alerts)
	partition, ok := partitions[name]
	if !ok {
		return nil, ErrStrategyNotFound
	}
	result, err := ProcessStrategy(partition, filters, cfg)
	if err != nil {
		return nil, err
	}
	return ProfitSeries(result.Rows), nil
}

// ProfitSeries extracts the (timestamp, running profit) points from the rows
// that closed a trade, in ascending time order.
func ProfitSeries(rows []types.ProfitRow) []types.ProfitPoint {
	points := make([]types.ProfitPoint, 0, len(rows))
	for _, row := range rows {
		if row.Profit == nil {
			continue
		}
		points = append(points, types.ProfitPoint{
			Timestamp: row.Timestamp,
			Running:   row.Running,
		})
	}
	return points
}
