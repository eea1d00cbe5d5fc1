package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"

	"alertpnl/internal/engine"
	"alertpnl/internal/repository"
	"alertpnl/types"
)

func main() {
	var (
		csvPath  = flag.String("csv", "", "read alerts from a CSV export")
		dbURL    = flag.String("db", "", "read alerts from a Postgres database")
		strategy = flag.String("strategy", "", "restrict the run to one strategy")
		outPath  = flag.String("out", "", "write the processed rows of -strategy to a CSV file")

		startTime = flag.String("start-time", "", "session start, HH:MM")
		endTime   = flag.String("end-time", "", "session end, HH:MM")
		days      = flag.String("days", "", "comma-separated weekdays to keep")
		weeks     = flag.String("weeks", "", "comma-separated week-of-month buckets, 1..5")
		startDate = flag.String("start-date", "", "first date to keep, YYYY-MM-DD")
		endDate   = flag.String("end-date", "", "last date to keep, YYYY-MM-DD")

		multiplier  = flag.Float64("multiplier", 1, "contract point value")
		delta       = flag.Float64("delta", 1, "position scale applied to every trade")
		feePerTrade = flag.Float64("fee-per-trade", 0, "flat fee per closed trade")
		feePerUnit  = flag.Float64("fee-per-unit", 0, "fee per contract per closed trade")
		exitToken   = flag.String("exit-token", "", "trade type that closes a position")
		noQuantity  = flag.Bool("no-quantity", false, "size every trade as one unit")
		flip        = flag.Bool("flip", false, "swap buy and sell sides before processing")
	)
	flag.Parse()

	if (*csvPath == "") == (*dbURL == "") {
		fatal(fmt.Errorf("exactly one of -csv or -db is required"))
	}
	if *outPath != "" && *strategy == "" {
		fatal(fmt.Errorf("-out requires -strategy"))
	}

	filters, err := buildFilters(*startTime, *endTime, *days, *weeks, *startDate, *endDate)
	if err != nil {
		fatal(err)
	}
	cfg := buildConfig(*multiplier, *delta, *feePerTrade, *feePerUnit, *exitToken, *noQuantity, *flip)

	alerts, err := loadAlerts(*csvPath, *dbURL)
	if err != nil {
		fatal(err)
	}

	groups := engine.SplitByStrategy(alerts)
	names := make([]string, 0, len(groups))
	for name := range groups {
		if *strategy != "" && name != *strategy {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) == 0 {
		fatal(fmt.Errorf("no alerts to process"))
	}

	bar := progressbar.Default(int64(len(names)), "processing")
	batch := engine.BatchResult{
		Results:  make(map[string]engine.StrategyResult),
		Failures: make(map[string]error),
	}
	for _, name := range names {
		result, err := engine.ProcessStrategy(groups[name], filters, cfg)
		if err != nil {
			batch.Failures[name] = err
		} else {
			batch.Results[name] = result
		}
		_ = bar.Add(1)
	}
	fmt.Println()

	engine.RenderReports(os.Stdout, engine.BuildReports(batch))
	for name, err := range batch.Failures {
		slog.Error("strategy failed", "strategy", name, "error", err)
	}

	if *outPath != "" {
		result, ok := batch.Results[*strategy]
		if !ok {
			fatal(fmt.Errorf("strategy %q produced no rows to export", *strategy))
		}
		if err := engine.WriteProfitCSVFile(*outPath, result.Rows); err != nil {
			fatal(err)
		}
		fmt.Printf("wrote %s\n", *outPath)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "analyze:", err)
	os.Exit(1)
}

func buildFilters(startTime, endTime, days, weeks, startDate, endDate string) (engine.FilterParams, error) {
	filters := engine.FilterParams{
		StartTime: startTime,
		EndTime:   endTime,
		StartDate: startDate,
		EndDate:   endDate,
	}
	if days != "" {
		filters.Days = strings.Split(days, ",")
	}
	if weeks != "" {
		for _, field := range strings.Split(weeks, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil {
				return engine.FilterParams{}, fmt.Errorf("parse -weeks: %w", err)
			}
			filters.Weeks = append(filters.Weeks, n)
		}
	}
	if err := filters.Validate(); err != nil {
		return engine.FilterParams{}, err
	}
	return filters, nil
}

func buildConfig(multiplier, delta, feePerTrade, feePerUnit float64, exitToken string, noQuantity, flip bool) engine.ProfitConfig {
	cfg := engine.NewProfitConfig().
		WithMultiplier(decimal.NewFromFloat(multiplier)).
		WithDelta(decimal.NewFromFloat(delta)).
		WithFees(decimal.NewFromFloat(feePerTrade), decimal.NewFromFloat(feePerUnit))
	if exitToken != "" {
		cfg = cfg.WithExitToken(exitToken)
	}
	if noQuantity {
		cfg = cfg.WithoutQuantity()
	}
	if flip {
		cfg = cfg.WithFlip(true)
	}
	return cfg
}

func loadAlerts(csvPath, dbURL string) ([]types.RawAlert, error) {
	if csvPath != "" {
		f, err := os.Open(csvPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return readAlertCSV(f)
	}

	ctx := context.Background()
	db, err := repository.NewDatabase(ctx, dbURL)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	stored, err := db.ListAlerts(ctx)
	if err != nil {
		return nil, err
	}
	return engine.StoredToRaw(stored), nil
}

// readAlertCSV reads an alert export with name, time and description columns.
// The description column holds the alert's JSON payload.
func readAlertCSV(r io.Reader) ([]types.RawAlert, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}
	nameCol, timeCol, descCol := -1, -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "name", "strategy":
			nameCol = i
		case "time", "timestamp":
			timeCol = i
		case "description", "payload":
			descCol = i
		}
	}
	if nameCol < 0 || descCol < 0 {
		return nil, fmt.Errorf("CSV is missing a name or description column")
	}

	var alerts []types.RawAlert
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV record: %w", err)
		}
		alert := types.RawAlert{Strategy: field(record, nameCol), Payload: field(record, descCol)}
		if timeCol >= 0 {
			alert.Time = field(record, timeCol)
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

func field(record []string, i int) string {
	if i < len(record) {
		return record[i]
	}
	return ""
}
