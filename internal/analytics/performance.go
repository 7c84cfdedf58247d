// Package analytics derives performance reports from a ledger's trade history.
//
// Every function here is pure. Degenerate input (empty or malformed history)
// yields zero values instead of errors.
package analytics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"portfolioSim/internal/domain"
)

// TradingDaysPerYear annualizes the Sharpe ratio.
const TradingDaysPerYear = 252

// Report is the aggregated performance summary of a trade history.
type Report struct {
	TotalTrades      int     `json:"total_trades"`
	ProfitableTrades int     `json:"profitable_trades"`
	SuccessRate      float64 `json:"success_rate"`  // Percentage, 0..100
	FinalCapital     float64 `json:"final_capital"` // Current ledger capital
	ProfitLoss       float64 `json:"profit_loss"`   // FinalCapital - initial capital
	MaxDrawdown      float64 `json:"max_drawdown"`  // Percentage, <= 0
	SharpeRatio      float64 `json:"sharpe_ratio"`
	WinLossRatio     Ratio   `json:"win_loss_ratio"`
}

// Compute builds a Report from history, the ledger's initial capital and its
// current capital. It never fails: an empty history or any record carrying a
// non-finite number produces the zero Report.
func Compute(history []domain.TradeRecord, initialCapital, currentCapital float64) Report {
	if len(history) == 0 {
		return Report{}
	}
	if err := validate(history, initialCapital, currentCapital); err != nil {
		return Report{}
	}

	r := Report{
		TotalTrades:  len(history),
		FinalCapital: currentCapital,
		ProfitLoss:   currentCapital - initialCapital,
	}
	for _, t := range history {
		if t.Profit > 0 {
			r.ProfitableTrades++
		}
	}
	r.SuccessRate = float64(r.ProfitableTrades) / float64(r.TotalTrades) * 100
	r.SharpeRatio = SharpeRatio(Returns(history))
	r.MaxDrawdown = MaxDrawdown(history)
	r.WinLossRatio = WinLossRatio(history)
	return r
}

// Returns lists profit/value per trade, skipping zero-value trades and
// non-finite ratios.
func Returns(history []domain.TradeRecord) []float64 {
	out := make([]float64, 0, len(history))
	for _, t := range history {
		if t.Value == 0 {
			continue
		}
		ret := t.Profit / t.Value
		if math.IsNaN(ret) || math.IsInf(ret, 0) {
			continue
		}
		out = append(out, ret)
	}
	return out
}

// SharpeRatio annualizes mean/stddev of the per-trade returns using the
// sample standard deviation. It is 0 for fewer than two returns or a flat series.
func SharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean, std := stat.MeanStdDev(returns, nil)
	if std == 0 || math.IsNaN(std) {
		return 0
	}
	return math.Sqrt(TradingDaysPerYear) * mean / std
}

// MaxDrawdown returns the deepest decline of CapitalRemaining from its running
// peak, as a percentage (0 or negative). Steps whose running peak is zero are
// ignored.
func MaxDrawdown(history []domain.TradeRecord) float64 {
	if len(history) == 0 {
		return 0
	}
	runningMax := history[0].CapitalRemaining
	worst := 0.0
	for _, t := range history {
		runningMax = math.Max(runningMax, t.CapitalRemaining)
		if runningMax == 0 {
			continue
		}
		dd := (t.CapitalRemaining - runningMax) / runningMax
		if dd < worst {
			worst = dd
		}
	}
	return worst * 100
}

// WinLossRatio divides total winning profit by the absolute total losing
// profit. With no losses on a non-empty history the ratio is unbounded.
func WinLossRatio(history []domain.TradeRecord) Ratio {
	if len(history) == 0 {
		return Ratio{}
	}
	var wins, losses float64
	for _, t := range history {
		switch {
		case t.Profit > 0:
			wins += t.Profit
		case t.Profit < 0:
			losses += t.Profit
		}
	}
	if losses == 0 {
		return Unbounded()
	}
	return Bounded(wins / math.Abs(losses))
}

func validate(history []domain.TradeRecord, initialCapital, currentCapital float64) error {
	if !finite(initialCapital) || !finite(currentCapital) {
		return fmt.Errorf("non-finite capital")
	}
	for i, t := range history {
		if !finite(t.Price) || !finite(t.Value) || !finite(t.Profit) || !finite(t.CapitalRemaining) {
			return fmt.Errorf("trade %d has a non-finite field", i)
		}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
