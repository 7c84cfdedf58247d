package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"portfolioSim/config"
	"portfolioSim/internal/analytics"
	"portfolioSim/internal/domain"
	"portfolioSim/internal/ledger"
	"portfolioSim/internal/ports"
	"portfolioSim/internal/risk"
)

// RunSummary counts what happened to the rows of one simulation pass.
type RunSummary struct {
	Date     time.Time `json:"date"`
	Rows     int       `json:"rows"`                 // Rows delivered by the market data source
	Skipped  int       `json:"skipped"`              // Rows without a usable name, price or quantity
	Buys     int       `json:"buys"`                 // Buy signals
	Sells    int       `json:"sells"`                // Sell signals
	Holds    int       `json:"holds"`                // Hold signals
	Executed int       `json:"executed"`             // Trades appended to the ledger
	Rejected int       `json:"rejected"`             // Trades the ledger found infeasible
	Budget   float64   `json:"investment_per_trade"` // Cash budget each order was sized against
}

// SimulationService owns the session ledger and drives simulation passes.
// Every method holds the service mutex; reconfiguration swaps in a new Ledger.
type SimulationService struct {
	cfg       *config.Config
	logger    ports.Logger
	market    ports.MarketDataSource
	signals   ports.SignalGenerator
	store     ports.StateStore
	publisher ports.TradePublisher
	sizer     *risk.Sizer
	now       func() time.Time

	mu     sync.Mutex // Protects ledger
	ledger *ledger.Ledger
}

// NewSimulationService creates the service and restores the ledger from store.
// store and publisher may be nil.
func NewSimulationService(
	ctx context.Context,
	cfg *config.Config,
	logger ports.Logger,
	market ports.MarketDataSource,
	signals ports.SignalGenerator,
	store ports.StateStore,
	publisher ports.TradePublisher,
) (*SimulationService, error) {

	// Validate dependencies
	if cfg == nil || logger == nil || market == nil || signals == nil {
		return nil, fmt.Errorf("missing required dependencies for SimulationService")
	}
	if publisher == nil {
		publisher = ports.NopPublisher{}
	}

	sizer, err := risk.NewSizer(risk.SizerConfig{
		InvestmentPerTrade: cfg.InvestmentPerTrade,
		MaxQuantity:        cfg.MaxQuantity,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid sizing configuration: %w", err)
	}

	s := &SimulationService{
		cfg:       cfg,
		logger:    logger,
		market:    market,
		signals:   signals,
		store:     store,
		publisher: publisher,
		sizer:     sizer,
		now:       time.Now,
	}

	l, err := ledger.Restore(ctx, s.ledgerConfig(cfg.InitialCapital))
	if err != nil {
		return nil, fmt.Errorf("failed to create ledger: %w", err)
	}
	s.ledger = l
	return s, nil
}

func (s *SimulationService) ledgerConfig(initialCapital float64) ledger.Config {
	return ledger.Config{
		InitialCapital: initialCapital,
		StartDate:      s.cfg.SimulationStartDate,
		Policy:         s.cfg.PositionPolicy,
		Store:          s.store,
		Logger:         s.logger,
	}
}

// RunSimulation runs one pass over the market data, dated now.
// A market data failure aborts the pass before any trade is executed.
func (s *SimulationService) RunSimulation(ctx context.Context) (RunSummary, error) {
	snapshot, err := s.load(ctx)
	if err != nil {
		return RunSummary{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runPass(ctx, snapshot, s.now()), nil
}

// CatchUp runs one pass per market day that has not been simulated yet,
// loading the market data once. See SimulationDates for the day list.
func (s *SimulationService) CatchUp(ctx context.Context) ([]RunSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dates := s.simulationDates(s.now())
	if len(dates) == 0 {
		s.logger.Info(ctx, "Simulation is up to date")
		return nil, nil
	}

	snapshot, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]RunSummary, 0, len(dates))
	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			return summaries, fmt.Errorf("catch-up interrupted: %w", ports.ErrContextCanceled)
		}
		summaries = append(summaries, s.runPass(ctx, snapshot, date))
	}
	s.logger.Info(ctx, "Catch-up completed", map[string]interface{}{"days": len(summaries)})
	return summaries, nil
}

// SimulationDates lists the market days a catch-up at now would simulate:
// every weekday after LastRunDate through now. A ledger without a last run
// date simulates today only.
func (s *SimulationService) SimulationDates(now time.Time) []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.simulationDates(now)
}

func (s *SimulationService) simulationDates(now time.Time) []time.Time {
	last := s.ledger.LastRunDate()
	if last.IsZero() {
		return MarketDays(now, now, s.cfg.MarketOpen)
	}
	return MarketDays(last.AddDate(0, 0, 1), now, s.cfg.MarketOpen)
}

func (s *SimulationService) load(ctx context.Context) (*domain.MarketSnapshot, error) {
	snapshot, err := s.market.Load(ctx)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to load market data")
		return nil, fmt.Errorf("failed to load market data: %w", err)
	}
	if snapshot == nil {
		return nil, fmt.Errorf("market data source returned no data: %w", ports.ErrDataSourceUnavailable)
	}
	return snapshot, nil
}

// runPass must be called with s.mu held.
func (s *SimulationService) runPass(ctx context.Context, snapshot *domain.MarketSnapshot, date time.Time) RunSummary {
	summary := RunSummary{Date: date, Rows: len(snapshot.Rows), Budget: s.sizer.InvestmentPerTrade()}

	for _, row := range snapshot.Rows {
		stock := strings.TrimSpace(row.CompanyName)
		if stock == "" {
			summary.Skipped++
			continue
		}
		price, err := domain.ParsePrice(row.HoldingValue)
		if err != nil || price <= 0 || math.IsInf(price, 0) {
			s.logger.Debug(ctx, "Skipping row without a usable price", map[string]interface{}{"row": row.Row, "stock": stock, "value": row.HoldingValue})
			summary.Skipped++
			continue
		}

		signal := s.signals.ProcessSignal(ctx, row, snapshot.Rules)
		tradeType, ok := signal.TradeType()
		if !ok {
			summary.Holds++
			continue
		}
		if tradeType == domain.Buy {
			summary.Buys++
		} else {
			summary.Sells++
		}

		quantity := s.sizer.Quantity(price)
		if quantity == 0 {
			summary.Skipped++
			continue
		}

		rec, err := s.ledger.ExecuteTrade(ctx, stock, price, tradeType, quantity, date)
		if err != nil {
			s.logger.Warn(ctx, "Error processing row", map[string]interface{}{"row": row.Row, "stock": stock, "error": err.Error()})
			summary.Skipped++
			continue
		}
		if rec == nil {
			summary.Rejected++
			continue
		}
		summary.Executed++
		if err := s.publisher.PublishTrade(ctx, *rec); err != nil {
			s.logger.Warn(ctx, "Failed to publish trade", map[string]interface{}{"tradeID": rec.ID, "error": err.Error()})
		}
	}

	s.ledger.MarkRun(ctx, date)
	s.logger.Info(ctx, "Simulation pass completed", map[string]interface{}{
		"date":     date.Format("2006-01-02"),
		"rows":     summary.Rows,
		"executed": summary.Executed,
		"rejected": summary.Rejected,
		"skipped":  summary.Skipped,
		"capital":  s.ledger.Capital(),
	})
	return summary
}

// Reset discards the ledger and the stored state, starting over with the
// configured initial capital.
func (s *SimulationService) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceLedger(ctx, s.cfg.InitialCapital)
}

// SetCapital starts a new ledger with the given initial capital. Existing
// history and positions are discarded.
func (s *SimulationService) SetCapital(ctx context.Context, capital float64) error {
	if capital <= 0 || math.IsNaN(capital) || math.IsInf(capital, 0) {
		return fmt.Errorf("capital must be a positive number, got %v: %w", capital, ports.ErrInvalidRequest)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceLedger(ctx, capital)
}

// replaceLedger must be called with s.mu held.
func (s *SimulationService) replaceLedger(ctx context.Context, capital float64) error {
	l, err := ledger.New(s.ledgerConfig(capital))
	if err != nil {
		return fmt.Errorf("failed to create ledger: %w", err)
	}
	if s.store != nil {
		if err := s.store.Clear(ctx); err != nil {
			s.logger.Warn(ctx, "Failed to clear stored state", map[string]interface{}{"error": err.Error()})
		}
		if err := l.Save(ctx); err != nil {
			s.logger.Warn(ctx, "Failed to persist ledger state", map[string]interface{}{"error": err.Error()})
		}
	}
	s.ledger = l
	s.logger.Info(ctx, "Ledger replaced", map[string]interface{}{"initialCapital": capital})
	return nil
}

// ExecuteTrade applies a single manual trade dated now.
func (s *SimulationService) ExecuteTrade(ctx context.Context, stock string, price float64, tradeType domain.TradeType, quantity int) (*domain.TradeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.ledger.ExecuteTrade(ctx, stock, price, tradeType, quantity, s.now())
	if err != nil || rec == nil {
		return rec, err
	}
	if err := s.publisher.PublishTrade(ctx, *rec); err != nil {
		s.logger.Warn(ctx, "Failed to publish trade", map[string]interface{}{"tradeID": rec.ID, "error": err.Error()})
	}
	return rec, nil
}

// Metrics computes the performance report of the current ledger.
func (s *SimulationService) Metrics() analytics.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return analytics.Compute(s.ledger.History(), s.ledger.InitialCapital(), s.ledger.Capital())
}

// Trades returns the trade history.
func (s *SimulationService) Trades() []domain.TradeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.History()
}

// Positions returns the open positions.
func (s *SimulationService) Positions() map[string]domain.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Positions()
}

// ChartData returns the history aggregated per day.
func (s *SimulationService) ChartData() analytics.ChartData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return analytics.DailySeries(s.ledger.History())
}

// Snapshot returns the full ledger state.
func (s *SimulationService) Snapshot() domain.LedgerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Snapshot()
}

// Save persists the current ledger state. Used on shutdown.
func (s *SimulationService) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ledger.Save(ctx); err != nil {
		return fmt.Errorf("failed to save ledger state: %w", err)
	}
	return nil
}

// IsInvalidRequest reports whether err was caused by bad caller input.
func IsInvalidRequest(err error) bool {
	return errors.Is(err, ports.ErrInvalidRequest)
}
