// Package strategy provides signal generators for simulation passes.
package strategy

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"portfolioSim/internal/domain"
	"portfolioSim/internal/ports"
)

// Weights holds the relative likelihood of each signal. They need not sum to 1.
type Weights struct {
	Buy  float64
	Sell float64
	Hold float64
}

// DefaultWeights matches the production mix: 40% buy, 30% sell, 30% hold.
var DefaultWeights = Weights{Buy: 0.4, Sell: 0.3, Hold: 0.3}

func (w Weights) validate() error {
	for _, v := range []float64{w.Buy, w.Sell, w.Hold} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("signal weights must be finite and non-negative")
		}
	}
	if w.Buy+w.Sell+w.Hold == 0 {
		return fmt.Errorf("at least one signal weight must be positive")
	}
	return nil
}

// Config holds parameters for the Random generator.
type Config struct {
	Weights Weights
	Seed    int64 // 0 seeds from the clock
}

// Random picks buy, sell or hold at random, ignoring the row and rules.
type Random struct {
	weights Weights
	logger  ports.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom creates a Random generator.
func NewRandom(cfg Config, logger ports.Logger) (*Random, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for strategy")
	}
	if cfg.Weights == (Weights{}) {
		cfg.Weights = DefaultWeights
	}
	if err := cfg.Weights.validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Random{
		weights: cfg.Weights,
		logger:  logger,
		rng:     rand.New(rand.NewSource(seed)),
	}, nil
}

// ProcessSignal implements ports.SignalGenerator.
func (r *Random) ProcessSignal(ctx context.Context, row domain.MarketRow, rules domain.RuleSet) domain.Signal {
	r.mu.Lock()
	x := r.rng.Float64() * (r.weights.Buy + r.weights.Sell + r.weights.Hold)
	r.mu.Unlock()

	var sig domain.Signal
	switch {
	case x < r.weights.Buy:
		sig = domain.SignalBuy
	case x < r.weights.Buy+r.weights.Sell:
		sig = domain.SignalSell
	default:
		sig = domain.SignalHold
	}
	r.logger.Debug(ctx, "Signal generated", map[string]interface{}{"stock": row.CompanyName, "signal": sig})
	return sig
}

// Sequence replays a fixed list of signals in order, wrapping around.
type Sequence struct {
	mu      sync.Mutex
	signals []domain.Signal
	next    int
}

// NewSequence creates a Sequence. It needs at least one signal.
func NewSequence(signals ...domain.Signal) (*Sequence, error) {
	if len(signals) == 0 {
		return nil, fmt.Errorf("sequence needs at least one signal")
	}
	for _, s := range signals {
		if _, err := domain.ParseSignal(string(s)); err != nil {
			return nil, err
		}
	}
	return &Sequence{signals: append([]domain.Signal(nil), signals...)}, nil
}

// ParseSequence builds a Sequence from names such as "buy", "sell", "hold".
func ParseSequence(names []string) (*Sequence, error) {
	signals := make([]domain.Signal, 0, len(names))
	for _, n := range names {
		s, err := domain.ParseSignal(n)
		if err != nil {
			return nil, err
		}
		signals = append(signals, s)
	}
	return NewSequence(signals...)
}

// ProcessSignal implements ports.SignalGenerator.
func (s *Sequence) ProcessSignal(ctx context.Context, row domain.MarketRow, rules domain.RuleSet) domain.Signal {
	s.mu.Lock()
	defer s.mu.Unlock()
	sig := s.signals[s.next]
	s.next = (s.next + 1) % len(s.signals)
	return sig
}
