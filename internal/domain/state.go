package domain

import "time"

// LedgerState is the persisted snapshot of a ledger.
type LedgerState struct {
	InitialCapital float64             `json:"initial_capital"`
	Capital        float64             `json:"capital"`
	Positions      map[string]Position `json:"positions"`
	History        []TradeRecord       `json:"trades"`
	LastRunDate    time.Time           `json:"last_run_date"`
}

// DefaultState returns the state of a ledger that has never traded.
func DefaultState(initialCapital float64, startDate time.Time) LedgerState {
	return LedgerState{
		InitialCapital: initialCapital,
		Capital:        initialCapital,
		Positions:      make(map[string]Position),
		History:        make([]TradeRecord, 0),
		LastRunDate:    startDate,
	}
}
