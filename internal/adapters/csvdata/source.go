// Package csvdata reads market rows from a CSV file whose header row names the
// columns, in the same layout as the spreadsheet's data sheet.
package csvdata

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"portfolioSim/internal/domain"
	"portfolioSim/internal/ports"
)

// Config holds configuration for the CSV market source.
type Config struct {
	Path        string
	NameColumn  string
	PriceColumn string
	Logger      ports.Logger
}

// Source implements ports.MarketDataSource.
type Source struct {
	cfg Config
}

// New creates a CSV market data source.
func New(cfg Config) (*Source, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for CSV source")
	}
	if cfg.Path == "" || cfg.NameColumn == "" || cfg.PriceColumn == "" {
		return nil, fmt.Errorf("CSV path, name column and price column are required: %w", ports.ErrConfigurationError)
	}
	return &Source{cfg: cfg}, nil
}

// Load implements ports.MarketDataSource. The stock list is the distinct
// company names in file order; the CSV carries no rule set.
func (s *Source) Load(ctx context.Context) (*domain.MarketSnapshot, error) {
	file, err := os.Open(s.cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open '%s': %v: %w", s.cfg.Path, err, ports.ErrDataSourceUnavailable)
	}
	defer file.Close()

	rows, err := ReadRows(file, s.cfg.NameColumn, s.cfg.PriceColumn)
	if err != nil {
		return nil, fmt.Errorf("failed to read '%s': %w", s.cfg.Path, err)
	}

	snapshot := &domain.MarketSnapshot{Rows: rows, StockList: stockList(rows)}
	s.cfg.Logger.Info(ctx, "Market data loaded", map[string]interface{}{"source": "csv", "path": s.cfg.Path, "rows": len(rows)})
	return snapshot, nil
}

// ReadRows parses CSV content into market rows. Both named columns must be
// present in the header.
func ReadRows(r io.Reader, nameColumn, priceColumn string) ([]domain.MarketRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty file: %w", ports.ErrMalformedData)
		}
		return nil, fmt.Errorf("invalid header: %v: %w", err, ports.ErrMalformedData)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	nameIdx, priceIdx := indexOf(header, nameColumn), indexOf(header, priceColumn)
	if nameIdx < 0 || priceIdx < 0 {
		return nil, fmt.Errorf("header must contain %q and %q: %w", nameColumn, priceColumn, ports.ErrMalformedData)
	}

	var rows []domain.MarketRow
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %v: %w", line, err, ports.ErrMalformedData)
		}
		row := domain.MarketRow{Row: line, Fields: make(map[string]string, len(header))}
		for i, col := range header {
			if i < len(record) {
				row.Fields[col] = record[i]
			}
		}
		row.CompanyName = strings.TrimSpace(row.Fields[nameColumn])
		row.HoldingValue = row.Fields[priceColumn]
		rows = append(rows, row)
	}
	return rows, nil
}

func indexOf(header []string, col string) int {
	for i, h := range header {
		if h == col {
			return i
		}
	}
	return -1
}

func stockList(rows []domain.MarketRow) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range rows {
		if r.CompanyName != "" && !seen[r.CompanyName] {
			seen[r.CompanyName] = true
			out = append(out, r.CompanyName)
		}
	}
	return out
}
