package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolioSim/config"
	"portfolioSim/internal/adapters/jsonstore"
	"portfolioSim/internal/adapters/sqlite"
	"portfolioSim/internal/domain"
	"portfolioSim/internal/ports"
	"portfolioSim/internal/strategy"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "market.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("Name of Company,Holding Value in crores\nACME,100\nGLOBEX,\"2,500\"\n"), 0o644))

	return &config.Config{
		InitialCapital:      300000,
		InvestmentPerTrade:  10000,
		PositionPolicy:      domain.PolicyOverwrite,
		MarketSource:        config.SourceCSV,
		CSVFilePath:         csvPath,
		NameColumn:          "Name of Company",
		PriceColumn:         "Holding Value in crores",
		StateBackend:        config.BackendJSON,
		StateFile:           filepath.Join(dir, "simulation_state.json"),
		DBPath:              filepath.Join(dir, "sim.db"),
		BuyWeight:           0.4,
		SellWeight:          0.3,
		HoldWeight:          0.3,
		SignalSeed:          7,
		SimulationStartDate: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		MarketOpen:          9*time.Hour + 15*time.Minute,
	}
}

func TestBuild_CSVAndJSON(t *testing.T) {
	cfg := testConfig(t)
	seq, err := strategy.NewSequence(domain.SignalBuy)
	require.NoError(t, err)

	c, err := Build(context.Background(), cfg, &mockLogger{}, seq)
	require.NoError(t, err)
	defer c.Close()

	assert.IsType(t, &jsonstore.Store{}, c.Store)
	assert.IsType(t, ports.NopPublisher{}, c.Publisher)

	summary, err := c.Service.RunSimulation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Executed)

	// Every trade is persisted to the configured state file.
	state, err := c.Store.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Len(t, state.History, 2)
}

func TestBuild_SQLiteWithRandomSignals(t *testing.T) {
	cfg := testConfig(t)
	cfg.StateBackend = config.BackendSQLite

	c, err := Build(context.Background(), cfg, &mockLogger{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &sqlite.Repository{}, c.Store)
	assert.NoError(t, c.Close())
}

func TestBuild_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{name: "unknown market source", mutate: func(c *config.Config) { c.MarketSource = "ftp" }},
		{name: "unknown backend", mutate: func(c *config.Config) { c.StateBackend = "redis" }},
		{name: "binance without symbols", mutate: func(c *config.Config) { c.MarketSource = config.SourceBinance }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(cfg)
			_, err := Build(context.Background(), cfg, &mockLogger{}, nil)
			assert.ErrorIs(t, err, ports.ErrConfigurationError)
		})
	}
}

func TestNewPublisher_Kafka(t *testing.T) {
	cfg := testConfig(t)
	cfg.KafkaBrokers = []string{"localhost:9092"}
	cfg.KafkaTopic = "simulated-trades"

	pub, closePub, err := NewPublisher(cfg, &mockLogger{})
	require.NoError(t, err)
	assert.NotEqual(t, ports.NopPublisher{}, pub)
	require.NotNil(t, closePub)
	assert.NoError(t, closePub())
}
