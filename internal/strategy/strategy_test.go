package strategy

import (
	"context"
	"testing"

	"portfolioSim/internal/domain"
	"portfolioSim/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct {
	debugMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.debugMsgs = append(m.debugMsgs, msg)
}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func TestNewRandom(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		logger  ports.Logger
		wantErr bool
	}{
		{name: "defaults", cfg: Config{}, logger: &mockLogger{}},
		{name: "custom weights", cfg: Config{Weights: Weights{Buy: 1}}, logger: &mockLogger{}},
		{name: "nil logger", cfg: Config{}, wantErr: true},
		{name: "negative weight", cfg: Config{Weights: Weights{Buy: -1, Sell: 2}}, logger: &mockLogger{}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRandom(tt.cfg, tt.logger)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, r)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, r)
		})
	}
}

func TestRandom_SeedIsDeterministic(t *testing.T) {
	a, err := NewRandom(Config{Seed: 7}, &mockLogger{})
	require.NoError(t, err)
	b, err := NewRandom(Config{Seed: 7}, &mockLogger{})
	require.NoError(t, err)

	ctx := context.Background()
	row := domain.MarketRow{CompanyName: "ACME"}
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.ProcessSignal(ctx, row, domain.RuleSet{}), b.ProcessSignal(ctx, row, domain.RuleSet{}))
	}
}

func TestRandom_WeightsShapeDistribution(t *testing.T) {
	r, err := NewRandom(Config{Seed: 1}, &mockLogger{})
	require.NoError(t, err)

	counts := map[domain.Signal]int{}
	const n = 10000
	for i := 0; i < n; i++ {
		counts[r.ProcessSignal(context.Background(), domain.MarketRow{}, domain.RuleSet{})]++
	}
	assert.InDelta(t, 0.4, float64(counts[domain.SignalBuy])/n, 0.03)
	assert.InDelta(t, 0.3, float64(counts[domain.SignalSell])/n, 0.03)
	assert.InDelta(t, 0.3, float64(counts[domain.SignalHold])/n, 0.03)
}

func TestRandom_SingleWeight(t *testing.T) {
	r, err := NewRandom(Config{Weights: Weights{Sell: 1}, Seed: 3}, &mockLogger{})
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		assert.Equal(t, domain.SignalSell, r.ProcessSignal(context.Background(), domain.MarketRow{}, domain.RuleSet{}))
	}
}

func TestSequence(t *testing.T) {
	s, err := ParseSequence([]string{"buy", "hold", "sell"})
	require.NoError(t, err)

	ctx := context.Background()
	want := []domain.Signal{domain.SignalBuy, domain.SignalHold, domain.SignalSell, domain.SignalBuy}
	for _, w := range want {
		assert.Equal(t, w, s.ProcessSignal(ctx, domain.MarketRow{}, domain.RuleSet{}))
	}

	_, err = ParseSequence([]string{"buy", "short"})
	assert.Error(t, err)
	_, err = NewSequence()
	assert.Error(t, err)
}
