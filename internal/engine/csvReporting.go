package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"alertpnl/types"
)

// WriteProfitCSVFile writes a processed strategy stream to a CSV file at the
// given path.
func WriteProfitCSVFile(path string, rows []types.ProfitRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create profit file: %w", err)
	}
	defer f.Close()

	return WriteProfitCSV(f, rows)
}

// WriteProfitCSV writes a processed strategy stream to any io.Writer as CSV.
// You can pass os.Stdout for debugging, or a file.
func WriteProfitCSV(w io.Writer, rows []types.ProfitRow) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"timestamp",
		"strategy",
		"contract",
		"trade_type",
		"price",
		"quantity",
		"profit",
		"running_profit",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, row := range rows {
		if err := writeProfitRow(cw, row); err != nil {
			return err
		}
	}

	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// Helper to convert a single ProfitRow into one CSV row.
func writeProfitRow(cw *csv.Writer, row types.ProfitRow) error {
	qty := ""
	if row.HasQuantity {
		qty = row.Quantity.String()
	}
	profit := ""
	if row.Profit != nil {
		profit = row.Profit.String()
	}
	record := []string{
		row.TimeLabel,
		row.Strategy,
		row.Contract,
		row.TradeType,
		row.Price.String(),
		qty,
		profit,
		row.Running.String(),
	}
	if err := cw.Write(record); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}
