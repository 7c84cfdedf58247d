package ports

import (
	"context"

	"portfolioSim/internal/domain"
)

// MarketDataSource loads the rows a simulation pass trades on.
// A failure to reach or parse the source is returned as an error; individual
// bad cells are not errors and are left for the caller to skip.
type MarketDataSource interface {
	Load(ctx context.Context) (*domain.MarketSnapshot, error)
}
