package ports

import (
	"context"

	"portfolioSim/internal/domain"
)

// TradePublisher announces executed trades to downstream consumers.
type TradePublisher interface {
	PublishTrade(ctx context.Context, trade domain.TradeRecord) error
}

// NopPublisher discards every trade. Used when no broker is configured.
type NopPublisher struct{}

// PublishTrade implements TradePublisher.
func (NopPublisher) PublishTrade(context.Context, domain.TradeRecord) error { return nil }
