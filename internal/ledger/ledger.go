// Package ledger implements the simulated cash and position bookkeeping.
//
// A Ledger is not safe for concurrent use. The owner serializes calls and
// replaces the whole Ledger on reconfiguration instead of mutating it.
package ledger

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"portfolioSim/internal/domain"
	"portfolioSim/internal/ports"
)

// Config holds the parameters of a Ledger.
type Config struct {
	InitialCapital float64
	StartDate      time.Time             // First day to simulate; LastRunDate starts the day before
	Policy         domain.PositionPolicy // Behaviour of a buy on an already open position
	Store          ports.StateStore      // Optional; receives a snapshot after every trade and every run
	Logger         ports.Logger
	NewID          func() string // Optional trade ID generator, defaults to UUIDv4
}

// Ledger owns capital, open positions and the append-only trade history.
type Ledger struct {
	initialCapital float64
	capital        float64
	positions      map[string]domain.Position
	history        []domain.TradeRecord
	lastRunDate    time.Time

	policy domain.PositionPolicy
	store  ports.StateStore
	logger ports.Logger
	newID  func() string
}

// New creates a ledger holding only its initial capital.
func New(cfg Config) (*Ledger, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for ledger")
	}
	if cfg.InitialCapital <= 0 || math.IsInf(cfg.InitialCapital, 0) || math.IsNaN(cfg.InitialCapital) {
		return nil, fmt.Errorf("initial capital must be a positive number, got %v: %w", cfg.InitialCapital, ports.ErrConfigurationError)
	}
	policy, err := domain.ParsePositionPolicy(string(cfg.Policy))
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ports.ErrConfigurationError)
	}
	newID := cfg.NewID
	if newID == nil {
		newID = func() string { return uuid.NewString() }
	}

	l := &Ledger{
		policy: policy,
		store:  cfg.Store,
		logger: cfg.Logger,
		newID:  newID,
	}
	var lastRun time.Time
	if !cfg.StartDate.IsZero() {
		lastRun = cfg.StartDate.AddDate(0, 0, -1)
	}
	l.apply(domain.DefaultState(cfg.InitialCapital, lastRun))
	return l, nil
}

// Restore creates a ledger from the snapshot held by cfg.Store.
// A missing, unreadable or inconsistent snapshot yields a fresh ledger; the
// problem is logged and never returned.
func Restore(ctx context.Context, cfg Config) (*Ledger, error) {
	l, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Store == nil {
		return l, nil
	}

	state, err := cfg.Store.Load(ctx)
	if err != nil {
		l.logger.Warn(ctx, "Failed to load ledger state, starting from defaults", map[string]interface{}{"error": err.Error()})
		return l, nil
	}
	if state == nil {
		l.logger.Info(ctx, "No saved ledger state, starting from defaults", map[string]interface{}{"capital": l.capital})
		return l, nil
	}
	if err := validateState(*state); err != nil {
		l.logger.Warn(ctx, "Saved ledger state rejected, starting from defaults", map[string]interface{}{"error": err.Error()})
		return l, nil
	}
	if state.InitialCapital <= 0 {
		state.InitialCapital = cfg.InitialCapital
	}
	l.apply(*state)
	l.logger.Info(ctx, "Ledger state restored", map[string]interface{}{
		"capital":   l.capital,
		"trades":    len(l.history),
		"positions": len(l.positions),
	})
	return l, nil
}

// ExecuteTrade applies one buy or sell to the ledger.
//
// It returns the appended record on success. A trade that is arithmetically
// infeasible (not enough capital for a buy, no open position for a sell, or a
// buy refused by the position policy) returns nil, nil and leaves the ledger
// untouched. Invalid arguments return an error wrapping ports.ErrInvalidRequest.
//
// A sell always closes the whole open position; quantity is only validated.
func (l *Ledger) ExecuteTrade(ctx context.Context, stock string, price float64, tradeType domain.TradeType, quantity int, date time.Time) (*domain.TradeRecord, error) {
	if err := validateTrade(stock, price, tradeType, quantity); err != nil {
		return nil, err
	}

	var value, profit float64
	open, hasOpen := l.positions[stock]

	switch tradeType {
	case domain.Buy:
		value = price * float64(quantity)
		if l.capital < value {
			l.logger.Debug(ctx, "Buy not executed: insufficient capital", map[string]interface{}{"stock": stock, "value": value, "capital": l.capital})
			return nil, nil
		}
		pos := domain.Position{Quantity: quantity, EntryPrice: price}
		if hasOpen {
			switch l.policy {
			case domain.PolicyReject:
				l.logger.Debug(ctx, "Buy not executed: position already open", map[string]interface{}{"stock": stock})
				return nil, nil
			case domain.PolicyAverage:
				total := open.Quantity + quantity
				pos = domain.Position{Quantity: total, EntryPrice: (open.Value() + value) / float64(total)}
			}
		}
		l.capital -= value
		l.positions[stock] = pos

	case domain.Sell:
		if !hasOpen {
			l.logger.Debug(ctx, "Sell not executed: no open position", map[string]interface{}{"stock": stock})
			return nil, nil
		}
		quantity = open.Quantity
		value = price * float64(quantity)
		profit = (price - open.EntryPrice) * float64(quantity)
		l.capital += value + profit
		delete(l.positions, stock)
	}

	rec := domain.TradeRecord{
		ID:               l.newID(),
		Date:             date,
		Stock:            stock,
		Type:             tradeType,
		Price:            price,
		Quantity:         quantity,
		Value:            value,
		Profit:           profit,
		CapitalRemaining: l.capital,
	}
	l.history = append(l.history, rec)
	if date.After(l.lastRunDate) {
		l.lastRunDate = date
	}

	l.logger.Info(ctx, "Trade executed", map[string]interface{}{
		"stock":    stock,
		"type":     tradeType,
		"price":    price,
		"quantity": quantity,
		"profit":   profit,
		"capital":  l.capital,
	})

	l.persist(ctx)
	return &rec, nil
}

// MarkRun records date as simulated and persists the ledger. Dates not after
// LastRunDate are ignored.
func (l *Ledger) MarkRun(ctx context.Context, date time.Time) {
	if !date.After(l.lastRunDate) {
		return
	}
	l.lastRunDate = date
	l.persist(ctx)
}

// Capital returns the current cash balance.
func (l *Ledger) Capital() float64 { return l.capital }

// InitialCapital returns the capital the ledger started with.
func (l *Ledger) InitialCapital() float64 { return l.initialCapital }

// LastRunDate returns the latest simulated or traded date. A ledger that has
// never run reports the day before its start date, or the zero time.
func (l *Ledger) LastRunDate() time.Time { return l.lastRunDate }

// Policy returns the position policy in effect.
func (l *Ledger) Policy() domain.PositionPolicy { return l.policy }

// Positions returns a copy of the open positions.
func (l *Ledger) Positions() map[string]domain.Position {
	out := make(map[string]domain.Position, len(l.positions))
	for k, v := range l.positions {
		out[k] = v
	}
	return out
}

// History returns a copy of the trade history in execution order.
func (l *Ledger) History() []domain.TradeRecord {
	out := make([]domain.TradeRecord, len(l.history))
	copy(out, l.history)
	return out
}

// Snapshot returns a copy of the full ledger state.
func (l *Ledger) Snapshot() domain.LedgerState {
	return domain.LedgerState{
		InitialCapital: l.initialCapital,
		Capital:        l.capital,
		Positions:      l.Positions(),
		History:        l.History(),
		LastRunDate:    l.lastRunDate,
	}
}

// Save writes the current snapshot to the store, if any.
func (l *Ledger) Save(ctx context.Context) error {
	if l.store == nil {
		return nil
	}
	return l.store.Save(ctx, l.Snapshot())
}

// persist saves after a trade or a marked run. Failures leave the in-memory state authoritative.
func (l *Ledger) persist(ctx context.Context) {
	if err := l.Save(ctx); err != nil {
		l.logger.Warn(ctx, "Failed to persist ledger state", map[string]interface{}{"error": err.Error()})
	}
}

func (l *Ledger) apply(state domain.LedgerState) {
	l.initialCapital = state.InitialCapital
	l.capital = state.Capital
	l.positions = make(map[string]domain.Position, len(state.Positions))
	for k, v := range state.Positions {
		l.positions[k] = v
	}
	l.history = make([]domain.TradeRecord, len(state.History))
	copy(l.history, state.History)
	l.lastRunDate = state.LastRunDate
}

func validateTrade(stock string, price float64, tradeType domain.TradeType, quantity int) error {
	switch {
	case stock == "":
		return fmt.Errorf("stock is required: %w", ports.ErrInvalidRequest)
	case !tradeType.Valid():
		return fmt.Errorf("unknown trade type %q: %w", tradeType, ports.ErrInvalidRequest)
	case math.IsNaN(price) || math.IsInf(price, 0) || price <= 0:
		return fmt.Errorf("price must be positive, got %v: %w", price, ports.ErrInvalidRequest)
	case quantity <= 0:
		return fmt.Errorf("quantity must be positive, got %d: %w", quantity, ports.ErrInvalidRequest)
	}
	return nil
}

func validateState(s domain.LedgerState) error {
	if math.IsNaN(s.Capital) || math.IsInf(s.Capital, 0) {
		return fmt.Errorf("invalid capital %v: %w", s.Capital, ports.ErrCorruptState)
	}
	for stock, p := range s.Positions {
		if p.Quantity <= 0 || p.EntryPrice <= 0 {
			return fmt.Errorf("invalid position for %s: %w", stock, ports.ErrCorruptState)
		}
	}
	return nil
}
