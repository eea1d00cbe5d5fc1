package engine

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"alertpnl/types"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
)

// Report summarizes one strategy's processed stream.
type Report struct {
	Strategy    string
	StartDate   time.Time
	TotalPeriod time.Duration
	TotalTrades int

	// Absolute performance
	NetProfit            decimal.Decimal
	NetAvgProfitPerTrade decimal.Decimal

	// Trade-level distribution metrics
	AvgWin   decimal.Decimal
	AvgLoss  decimal.Decimal
	WinCount int

	// Drawdown & loss streak metrics on the running-profit curve
	MaxDrawdown          decimal.Decimal
	MaxConsecutiveLosses int

	// A trailing position without a closing exit, if any
	OpenPosition *types.OpenPosition
}

// BuildReport computes a strategy's summary metrics. Metric groups are
// independent, so they run on their own goroutines like every other
// aggregation in this package.
func BuildReport(strategy string, result StrategyResult) *Report {
	rows := result.Rows
	profits := closedTradeProfits(rows)

	report := &Report{
		Strategy:     strategy,
		TotalTrades:  len(profits),
		OpenPosition: result.OpenPosition,
	}
	if len(rows) > 0 {
		report.StartDate = rows[0].Timestamp
		report.TotalPeriod = rows[len(rows)-1].Timestamp.Sub(rows[0].Timestamp)
	}

	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		report.NetProfit, report.NetAvgProfitPerTrade = calcNetProfit(profits, &wg)
	}()
	go func() {
		report.AvgWin, report.AvgLoss, report.WinCount = calcAvgWinLoss(profits, &wg)
	}()
	go func() {
		report.MaxDrawdown = calcMaxDrawdown(rows, &wg)
	}()
	go func() {
		report.MaxConsecutiveLosses = calcMaxConsecutiveLosses(profits, &wg)
	}()
	wg.Wait()

	return report
}

// BuildReports builds one report per strategy in the batch, sorted by name.
func BuildReports(batch BatchResult) []*Report {
	names := make([]string, 0, len(batch.Results))
	for name := range batch.Results {
		names = append(names, name)
	}
	sort.Strings(names)

	reports := make([]*Report, 0, len(names))
	for _, name := range names {
		reports = append(reports, BuildReport(name, batch.Results[name]))
	}
	return reports
}

func closedTradeProfits(rows []types.ProfitRow) []decimal.Decimal {
	var profits []decimal.Decimal
	for _, row := range rows {
		if row.Profit != nil {
			profits = append(profits, *row.Profit)
		}
	}
	return profits
}

func calcNetProfit(profits []decimal.Decimal, wg *sync.WaitGroup) (decimal.Decimal, decimal.Decimal) {
	defer wg.Done()

	net := decimal.Zero
	for _, p := range profits {
		net = net.Add(p)
	}
	if len(profits) == 0 {
		return net, decimal.Zero
	}
	return net, net.Div(decimal.NewFromInt(int64(len(profits))))
}

func calcAvgWinLoss(profits []decimal.Decimal, wg *sync.WaitGroup) (decimal.Decimal, decimal.Decimal, int) {
	defer wg.Done()

	sumWins := decimal.Zero
	sumLosses := decimal.Zero // absolute loss amounts
	winCount, lossCount := 0, 0

	for _, p := range profits {
		switch {
		case p.GreaterThan(decimal.Zero):
			sumWins = sumWins.Add(p)
			winCount++
		case p.LessThan(decimal.Zero):
			sumLosses = sumLosses.Add(p.Abs())
			lossCount++
		}
	}

	avgWin, avgLoss := decimal.Zero, decimal.Zero
	if winCount > 0 {
		avgWin = sumWins.Div(decimal.NewFromInt(int64(winCount)))
	}
	if lossCount > 0 {
		avgLoss = sumLosses.Div(decimal.NewFromInt(int64(lossCount)))
	}
	return avgWin, avgLoss, winCount
}

// calcMaxDrawdown walks the running-profit curve and reports the largest
// peak-to-trough decline. Rows are already in chronological order.
func calcMaxDrawdown(rows []types.ProfitRow, wg *sync.WaitGroup) decimal.Decimal {
	defer wg.Done()

	peak := decimal.Zero
	maxDD := decimal.Zero
	for _, row := range rows {
		if row.Running.GreaterThan(peak) {
			peak = row.Running
		}
		dd := peak.Sub(row.Running)
		if dd.GreaterThan(maxDD) {
			maxDD = dd
		}
	}
	return maxDD
}

func calcMaxConsecutiveLosses(profits []decimal.Decimal, wg *sync.WaitGroup) int {
	defer wg.Done()

	maxStreak, streak := 0, 0
	for _, p := range profits {
		if p.LessThan(decimal.Zero) {
			streak++
			if streak > maxStreak {
				maxStreak = streak
			}
		} else {
			streak = 0
		}
	}
	return maxStreak
}

// RenderReports writes a per-strategy summary table.
func RenderReports(w io.Writer, reports []*Report) {
	table := tablewriter.NewWriter(w)
	table.Header("Strategy", "Trades", "Net Profit", "Avg/Trade", "Avg Win", "Avg Loss", "Max DD", "Loss Streak", "Open")

	for _, r := range reports {
		open := ""
		if r.OpenPosition != nil {
			open = fmt.Sprintf("%+d @ %s", r.OpenPosition.Direction, r.OpenPosition.EntryPrice)
		}
		table.Append(
			r.Strategy,
			fmt.Sprintf("%d", r.TotalTrades),
			r.NetProfit.StringFixed(2),
			r.NetAvgProfitPerTrade.StringFixed(2),
			r.AvgWin.StringFixed(2),
			r.AvgLoss.StringFixed(2),
			r.MaxDrawdown.StringFixed(2),
			fmt.Sprintf("%d", r.MaxConsecutiveLosses),
			open,
		)
	}
	table.Render()
}
