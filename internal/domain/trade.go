package domain

import "time"

// TradeRecord is the immutable log entry for one executed buy or sell.
type TradeRecord struct {
	ID               string    `json:"id"`                // Unique identifier assigned on execution
	Date             time.Time `json:"date"`              // Simulated execution date
	Stock            string    `json:"stock"`             // Company name / symbol
	Type             TradeType `json:"type"`              // buy or sell
	Price            float64   `json:"price"`             // Execution price per share
	Quantity         int       `json:"quantity"`          // Shares traded
	Value            float64   `json:"value"`             // Price * Quantity
	Profit           float64   `json:"profit"`            // Realized profit, 0 for buys
	CapitalRemaining float64   `json:"capital_remaining"` // Ledger capital right after this trade
}

// CashFlow returns the signed change this trade applied to capital:
// -Value for buys, +Value+Profit for sells.
func (t TradeRecord) CashFlow() float64 {
	if t.Type == Buy {
		return -t.Value
	}
	return t.Value + t.Profit
}
