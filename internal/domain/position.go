package domain

// Position represents an open holding for one stock symbol.
type Position struct {
	Quantity   int     `json:"quantity"`    // Number of shares held, always > 0
	EntryPrice float64 `json:"entry_price"` // Price paid per share
}

// Value returns the position's cost basis.
func (p Position) Value() float64 {
	return p.EntryPrice * float64(p.Quantity)
}
