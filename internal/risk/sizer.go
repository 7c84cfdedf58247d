package risk

import (
	"fmt"
	"math"
)

// SizerConfig holds configuration for position sizing
type SizerConfig struct {
	InvestmentPerTrade float64 // Cash budget for a single order
	MaxQuantity        int     // Upper bound on shares per order, 0 means unlimited
}

// Sizer turns a price into an order quantity using a fixed cash budget.
type Sizer struct {
	config SizerConfig
}

// NewSizer creates a new sizer instance
func NewSizer(config SizerConfig) (*Sizer, error) {
	if config.InvestmentPerTrade <= 0 || math.IsInf(config.InvestmentPerTrade, 0) || math.IsNaN(config.InvestmentPerTrade) {
		return nil, fmt.Errorf("investment per trade must be a positive number, got %v", config.InvestmentPerTrade)
	}
	if config.MaxQuantity < 0 {
		return nil, fmt.Errorf("max quantity must not be negative, got %d", config.MaxQuantity)
	}
	return &Sizer{config: config}, nil
}

// Quantity returns floor(InvestmentPerTrade / price), capped by MaxQuantity.
// It returns 0 when the price is not positive or the budget buys no whole share.
func (s *Sizer) Quantity(price float64) int {
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0
	}
	qty := math.Floor(s.config.InvestmentPerTrade / price)
	if s.config.MaxQuantity > 0 && qty > float64(s.config.MaxQuantity) {
		return s.config.MaxQuantity
	}
	if qty > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(qty)
}

// InvestmentPerTrade returns the configured budget.
func (s *Sizer) InvestmentPerTrade() float64 {
	return s.config.InvestmentPerTrade
}
