package domain

import "fmt"

// TradeType represents the side of an executed trade (buy or sell).
type TradeType string

const (
	Buy  TradeType = "buy"
	Sell TradeType = "sell"
)

// Valid reports whether t is one of the known trade types.
func (t TradeType) Valid() bool {
	return t == Buy || t == Sell
}

// Signal is the decision a signal generator makes for one market row.
type Signal string

const (
	SignalBuy  Signal = "buy"
	SignalSell Signal = "sell"
	SignalHold Signal = "hold"
)

// TradeType converts an actionable signal into the trade type to execute.
// ok is false for hold or unknown signals.
func (s Signal) TradeType() (t TradeType, ok bool) {
	switch s {
	case SignalBuy:
		return Buy, true
	case SignalSell:
		return Sell, true
	default:
		return "", false
	}
}

// ParseSignal converts a string ("buy", "sell", "hold") into a Signal.
func ParseSignal(s string) (Signal, error) {
	switch Signal(s) {
	case SignalBuy, SignalSell, SignalHold:
		return Signal(s), nil
	default:
		return "", fmt.Errorf("unknown signal %q", s)
	}
}

// PositionPolicy decides what a buy does when the stock already has an open position.
type PositionPolicy string

const (
	PolicyOverwrite PositionPolicy = "overwrite" // replace the open position, no averaging
	PolicyReject    PositionPolicy = "reject"    // do not execute the buy
	PolicyAverage   PositionPolicy = "average"   // accumulate quantity at a weighted entry price
)

// ParsePositionPolicy converts a string into a PositionPolicy. An empty string
// yields PolicyOverwrite.
func ParsePositionPolicy(s string) (PositionPolicy, error) {
	switch PositionPolicy(s) {
	case "", PolicyOverwrite:
		return PolicyOverwrite, nil
	case PolicyReject, PolicyAverage:
		return PositionPolicy(s), nil
	default:
		return "", fmt.Errorf("unknown position policy %q", s)
	}
}
