// Package jsonstore persists ledger snapshots to a single JSON file.
package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"portfolioSim/internal/domain"
	"portfolioSim/internal/ports"
)

// Layouts accepted for last_run_date. Files written by older tooling carry a
// naive ISO timestamp without zone.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// fileState is the on-disk document.
type fileState struct {
	LastRunDate    string                     `json:"last_run_date"`
	Trades         []domain.TradeRecord       `json:"trades"`
	Capital        float64                    `json:"capital"`
	InitialCapital float64                    `json:"initial_capital,omitempty"`
	Positions      map[string]domain.Position `json:"positions"`
}

// Config holds configuration for the JSON store.
type Config struct {
	Path   string
	Logger ports.Logger
}

// Store implements ports.StateStore on a JSON file.
type Store struct {
	path   string
	logger ports.Logger
}

// New creates a Store. The file is not touched until the first Load or Save.
func New(cfg Config) (*Store, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for JSON store")
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("state file path is required: %w", ports.ErrConfigurationError)
	}
	return &Store{path: cfg.Path, logger: cfg.Logger}, nil
}

// Path returns the state file location.
func (s *Store) Path() string { return s.path }

// Load implements ports.StateStore.
func (s *Store) Load(ctx context.Context) (*domain.LedgerState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Debug(ctx, "State file not found", map[string]interface{}{"path": s.path})
			return nil, nil // Not an error, nothing saved yet
		}
		return nil, fmt.Errorf("failed to read state file '%s': %w", s.path, err)
	}

	var doc fileState
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode state file '%s': %v: %w", s.path, err, ports.ErrCorruptState)
	}

	state := &domain.LedgerState{
		InitialCapital: doc.InitialCapital,
		Capital:        doc.Capital,
		Positions:      doc.Positions,
		History:        doc.Trades,
	}
	if state.Positions == nil {
		state.Positions = make(map[string]domain.Position)
	}
	if state.History == nil {
		state.History = make([]domain.TradeRecord, 0)
	}
	if doc.LastRunDate != "" {
		state.LastRunDate, err = parseDate(doc.LastRunDate)
		if err != nil {
			return nil, fmt.Errorf("invalid last_run_date in '%s': %v: %w", s.path, err, ports.ErrCorruptState)
		}
	}
	return state, nil
}

// Save implements ports.StateStore. The file is replaced atomically.
func (s *Store) Save(ctx context.Context, state domain.LedgerState) error {
	doc := fileState{
		Trades:         state.History,
		Capital:        state.Capital,
		InitialCapital: state.InitialCapital,
		Positions:      state.Positions,
	}
	if !state.LastRunDate.IsZero() {
		doc.LastRunDate = state.LastRunDate.Format(time.RFC3339Nano)
	}
	if doc.Trades == nil {
		doc.Trades = []domain.TradeRecord{}
	}
	if doc.Positions == nil {
		doc.Positions = map[string]domain.Position{}
	}

	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode ledger state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory '%s': %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close state file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace state file '%s': %w", s.path, err)
	}

	s.logger.Debug(ctx, "Ledger state saved", map[string]interface{}{"path": s.path, "trades": len(doc.Trades)})
	return nil
}

// Clear implements ports.StateStore.
func (s *Store) Clear(ctx context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove state file '%s': %w", s.path, err)
	}
	s.logger.Info(ctx, "State file removed", map[string]interface{}{"path": s.path})
	return nil
}

func parseDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, s, time.Local)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
