package ports

import (
	"context"

	"portfolioSim/internal/domain"
)

// StateStore persists ledger snapshots.
type StateStore interface {
	// Load returns the last saved state.
	// Returns nil, nil if nothing has been saved yet.
	// Returns an error wrapping ErrCorruptState if the stored data cannot be decoded.
	Load(ctx context.Context) (*domain.LedgerState, error)
	// Save replaces the stored state with the given snapshot.
	Save(ctx context.Context, state domain.LedgerState) error
	// Clear removes any stored state.
	Clear(ctx context.Context) error
}
