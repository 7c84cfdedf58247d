package ports

import (
	"context"

	"portfolioSim/internal/domain"
)

// SignalGenerator decides what to do with one row of market data.
// Implementations must return exactly one of buy, sell or hold.
type SignalGenerator interface {
	ProcessSignal(ctx context.Context, row domain.MarketRow, rules domain.RuleSet) domain.Signal
}
