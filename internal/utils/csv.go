package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"portfolioSim/internal/domain"
)

// TradeCSVHeader is the column layout written by WriteTrades.
var TradeCSVHeader = []string{"id", "date", "stock", "type", "price", "quantity", "value", "profit", "capital_remaining"}

// WriteTradesToCSV writes the trade history to filename, creating its directory.
func WriteTradesToCSV(trades []domain.TradeRecord, filename string) error {
	return writeFile(filename, func(w io.Writer) error { return WriteTrades(w, trades) })
}

// WriteTrades writes the trade history as CSV with a header row.
func WriteTrades(w io.Writer, trades []domain.TradeRecord) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(TradeCSVHeader); err != nil {
		return err
	}
	for _, t := range trades {
		if err := writer.Write([]string{
			t.ID,
			t.Date.Format(time.RFC3339),
			t.Stock,
			string(t.Type),
			strconv.FormatFloat(t.Price, 'f', -1, 64),
			strconv.Itoa(t.Quantity),
			strconv.FormatFloat(t.Value, 'f', -1, 64),
			strconv.FormatFloat(t.Profit, 'f', -1, 64),
			strconv.FormatFloat(t.CapitalRemaining, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteMarketRowsToCSV writes market rows with nameColumn and priceColumn
// first, followed by the remaining fields in sorted order.
func WriteMarketRowsToCSV(rows []domain.MarketRow, nameColumn, priceColumn, filename string) error {
	return writeFile(filename, func(w io.Writer) error {
		extra := make(map[string]struct{})
		for _, r := range rows {
			for k := range r.Fields {
				if k != nameColumn && k != priceColumn {
					extra[k] = struct{}{}
				}
			}
		}
		extraCols := make([]string, 0, len(extra))
		for k := range extra {
			extraCols = append(extraCols, k)
		}
		sort.Strings(extraCols)

		writer := csv.NewWriter(w)
		if err := writer.Write(append([]string{nameColumn, priceColumn}, extraCols...)); err != nil {
			return err
		}
		for _, r := range rows {
			record := []string{r.CompanyName, r.HoldingValue}
			for _, k := range extraCols {
				record = append(record, r.Fields[k])
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
		writer.Flush()
		return writer.Error()
	})
}

func writeFile(filename string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", filename, err)
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return file.Close()
}
