package analytics

import (
	"sort"

	"portfolioSim/internal/domain"
)

const dateLayout = "2006-01-02"

// ChartData is the trade history aggregated per calendar date, as parallel
// slices ordered by date.
type ChartData struct {
	Dates       []string  `json:"dates"`
	Capital     []float64 `json:"capital"`      // Last CapitalRemaining of the day
	Profits     []float64 `json:"profits"`      // Sum of realized profit
	TradeCounts []int     `json:"trade_counts"` // Trades executed that day
}

type dayBucket struct {
	capital float64
	profit  float64
	count   int
}

// DailySeries groups history by the calendar date of each trade.
func DailySeries(history []domain.TradeRecord) ChartData {
	out := ChartData{
		Dates:       []string{},
		Capital:     []float64{},
		Profits:     []float64{},
		TradeCounts: []int{},
	}
	buckets := make(map[string]*dayBucket)
	for _, t := range history {
		key := t.Date.Format(dateLayout)
		b, ok := buckets[key]
		if !ok {
			b = &dayBucket{}
			buckets[key] = b
			out.Dates = append(out.Dates, key)
		}
		b.capital = t.CapitalRemaining
		b.profit += t.Profit
		b.count++
	}
	sort.Strings(out.Dates)
	for _, d := range out.Dates {
		b := buckets[d]
		out.Capital = append(out.Capital, b.capital)
		out.Profits = append(out.Profits, b.profit)
		out.TradeCounts = append(out.TradeCounts, b.count)
	}
	return out
}
