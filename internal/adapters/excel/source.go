// Package excel loads market data from the strategy workbook.
package excel

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"portfolioSim/internal/domain"
	"portfolioSim/internal/ports"
)

// Config holds configuration for the workbook source.
type Config struct {
	Path           string
	DataDumpSheet  string // Rows to trade on
	StockListSheet string // Watch list
	EntryExitSheet string // Entry/exit rules handed to the signal generator
	NameColumn     string
	PriceColumn    string
	Logger         ports.Logger
}

// Source implements ports.MarketDataSource on an .xlsx workbook.
type Source struct {
	cfg Config
}

// New creates a workbook source. The file is opened on every Load so edits
// between passes are picked up.
func New(cfg Config) (*Source, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Excel source")
	}
	if cfg.Path == "" || cfg.DataDumpSheet == "" || cfg.NameColumn == "" || cfg.PriceColumn == "" {
		return nil, fmt.Errorf("workbook path, data sheet and columns are required: %w", ports.ErrConfigurationError)
	}
	return &Source{cfg: cfg}, nil
}

// Load implements ports.MarketDataSource. A missing file or sheet fails the
// whole load.
func (s *Source) Load(ctx context.Context) (*domain.MarketSnapshot, error) {
	s.cfg.Logger.Debug(ctx, "Attempting to load Excel file", map[string]interface{}{"path": s.cfg.Path})

	f, err := excelize.OpenFile(s.cfg.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("excel file not found at '%s': %w", s.cfg.Path, ports.ErrDataSourceUnavailable)
		}
		return nil, fmt.Errorf("failed to open workbook '%s': %v: %w", s.cfg.Path, err, ports.ErrDataSourceUnavailable)
	}
	defer f.Close()

	s.cfg.Logger.Debug(ctx, "Available sheets in Excel file", map[string]interface{}{"sheets": f.GetSheetList()})

	dump, err := sheetTable(f, s.cfg.DataDumpSheet)
	if err != nil {
		return nil, err
	}
	rows, err := marketRows(dump, s.cfg.NameColumn, s.cfg.PriceColumn)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", s.cfg.DataDumpSheet, err)
	}
	snapshot := &domain.MarketSnapshot{Rows: rows}

	if s.cfg.StockListSheet != "" {
		list, err := sheetTable(f, s.cfg.StockListSheet)
		if err != nil {
			return nil, err
		}
		snapshot.StockList = stockList(list, s.cfg.NameColumn)
	}
	if s.cfg.EntryExitSheet != "" {
		rules, err := sheetTable(f, s.cfg.EntryExitSheet)
		if err != nil {
			return nil, err
		}
		snapshot.Rules = domain.RuleSet{Rows: records(rules)}
	}

	s.cfg.Logger.Info(ctx, "Market data loaded", map[string]interface{}{
		"source":    "excel",
		"path":      s.cfg.Path,
		"rows":      len(snapshot.Rows),
		"stockList": len(snapshot.StockList),
		"rules":     len(snapshot.Rules.Rows),
	})
	return snapshot, nil
}

func sheetTable(f *excelize.File, sheet string) ([][]string, error) {
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet %q not found: %w", sheet, ports.ErrDataSourceUnavailable)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %v: %w", sheet, err, ports.ErrMalformedData)
	}
	return rows, nil
}

func header(table [][]string) []string {
	if len(table) == 0 {
		return nil
	}
	h := make([]string, len(table[0]))
	for i, c := range table[0] {
		h[i] = strings.TrimSpace(c)
	}
	return h
}

// records converts a sheet with a header row into one map per data row.
// Blank header cells are named by column letter.
func records(table [][]string) []map[string]string {
	h := header(table)
	if h == nil {
		return nil
	}
	out := make([]map[string]string, 0, len(table)-1)
	for _, r := range table[1:] {
		rec := make(map[string]string, len(h))
		for i, col := range h {
			if col == "" {
				name, err := excelize.ColumnNumberToName(i + 1)
				if err != nil {
					continue
				}
				col = name
			}
			if i < len(r) {
				rec[col] = r[i]
			} else {
				rec[col] = ""
			}
		}
		out = append(out, rec)
	}
	return out
}

func marketRows(table [][]string, nameColumn, priceColumn string) ([]domain.MarketRow, error) {
	h := header(table)
	if !contains(h, nameColumn) || !contains(h, priceColumn) {
		return nil, fmt.Errorf("header must contain %q and %q: %w", nameColumn, priceColumn, ports.ErrMalformedData)
	}
	recs := records(table)
	rows := make([]domain.MarketRow, 0, len(recs))
	for i, rec := range recs {
		rows = append(rows, domain.MarketRow{
			Row:          i + 2, // 1-based, after the header
			CompanyName:  strings.TrimSpace(rec[nameColumn]),
			HoldingValue: rec[priceColumn],
			Fields:       rec,
		})
	}
	return rows, nil
}

// stockList reads names from nameColumn, or the first column when the sheet
// has no such header.
func stockList(table [][]string, nameColumn string) []string {
	h := header(table)
	idx := 0
	for i, c := range h {
		if c == nameColumn {
			idx = i
			break
		}
	}
	var out []string
	for _, r := range table[min(1, len(table)):] {
		if idx < len(r) {
			if name := strings.TrimSpace(r[idx]); name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
