package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MarketRow is one row of market data as produced by a market data source.
type MarketRow struct {
	Row          int               // 1-based row number in the source, for logging
	CompanyName  string            // Stock identifier used as the position key
	HoldingValue string            // Raw price cell; may be a number, "1,234.5", "-" or empty
	Fields       map[string]string // Every other column of the row, keyed by header
}

// RuleSet carries the entry/exit rule rows handed to signal generators.
type RuleSet struct {
	Rows []map[string]string
}

// MarketSnapshot is the result of one market data ingestion.
type MarketSnapshot struct {
	Rows      []MarketRow
	StockList []string
	Rules     RuleSet
}

// ParsePrice converts a raw price cell into a float.
// Empty cells and a lone dash mean "no price" and yield 0 without error.
// Thousands separators are accepted.
func ParsePrice(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "-" {
		return 0, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", raw, err)
	}
	return d.InexactFloat64(), nil
}
