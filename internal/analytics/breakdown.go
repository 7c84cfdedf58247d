package analytics

import (
	"sort"
	"time"

	"portfolioSim/internal/domain"
)

// Breakdown holds secondary statistics over realized (sell) trades.
// It complements Report for the CLI report command.
type Breakdown struct {
	ClosedTrades         int
	WinningTrades        int
	LosingTrades         int
	AverageWin           float64
	AverageLoss          float64 // Negative or 0
	Expectancy           float64 // Expected profit per closed trade
	MaxConsecutiveWins   int
	MaxConsecutiveLosses int
	MonthlyProfit        []MonthlyReturn
}

// MonthlyReturn is the realized profit booked in one calendar month.
type MonthlyReturn struct {
	Month  time.Time
	Profit float64
}

// Analyze computes a Breakdown. Buys are ignored since they realize nothing.
func Analyze(history []domain.TradeRecord) Breakdown {
	var b Breakdown
	monthly := make(map[time.Time]float64)
	var consecutiveWins, consecutiveLosses int
	var sumWin, sumLoss float64

	for _, t := range history {
		if t.Type != domain.Sell || !finite(t.Profit) {
			continue
		}
		b.ClosedTrades++
		if t.Profit > 0 {
			b.WinningTrades++
			sumWin += t.Profit
			consecutiveWins++
			consecutiveLosses = 0
		} else {
			b.LosingTrades++
			sumLoss += t.Profit
			consecutiveLosses++
			consecutiveWins = 0
		}
		b.MaxConsecutiveWins = max(b.MaxConsecutiveWins, consecutiveWins)
		b.MaxConsecutiveLosses = max(b.MaxConsecutiveLosses, consecutiveLosses)

		month := time.Date(t.Date.Year(), t.Date.Month(), 1, 0, 0, 0, 0, time.UTC)
		monthly[month] += t.Profit
	}

	if b.WinningTrades > 0 {
		b.AverageWin = sumWin / float64(b.WinningTrades)
	}
	if b.LosingTrades > 0 {
		b.AverageLoss = sumLoss / float64(b.LosingTrades)
	}
	if b.ClosedTrades > 0 {
		winRate := float64(b.WinningTrades) / float64(b.ClosedTrades)
		b.Expectancy = winRate*b.AverageWin + (1-winRate)*b.AverageLoss
	}

	b.MonthlyProfit = make([]MonthlyReturn, 0, len(monthly))
	for m, p := range monthly {
		b.MonthlyProfit = append(b.MonthlyProfit, MonthlyReturn{Month: m, Profit: p})
	}
	sort.Slice(b.MonthlyProfit, func(i, j int) bool {
		return b.MonthlyProfit[i].Month.Before(b.MonthlyProfit[j].Month)
	})
	return b
}
