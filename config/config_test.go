package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolioSim/internal/adapters/logger"
	"portfolioSim/internal/domain"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 300000.0, cfg.InitialCapital)
	assert.Equal(t, 10000.0, cfg.InvestmentPerTrade)
	assert.Equal(t, domain.PolicyOverwrite, cfg.PositionPolicy)
	assert.Equal(t, SourceExcel, cfg.MarketSource)
	assert.Equal(t, "1. Data Dump", cfg.DataDumpSheet)
	assert.Equal(t, "Name of Company", cfg.NameColumn)
	assert.Equal(t, BackendJSON, cfg.StateBackend)
	assert.Equal(t, "simulation_state.json", cfg.StateFile)
	assert.Equal(t, 5000, cfg.HTTPPort)
	assert.Equal(t, 9*time.Hour+15*time.Minute, cfg.MarketOpen)
	assert.Equal(t, logger.LevelInfo, cfg.LogLevel)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("INITIAL_CAPITAL", "5000")
	t.Setenv("POSITION_POLICY", "Average")
	t.Setenv("MARKET_SOURCE", "binance")
	t.Setenv("BINANCE_SYMBOLS", "BTCUSDT, ,SOLUSDT")
	t.Setenv("STATE_BACKEND", "sqlite")
	t.Setenv("SIMULATION_START_DATE", "2024-03-01")
	t.Setenv("SIMULATION_SCHEDULE", "15 9 * * 1-5")
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 5000.0, cfg.InitialCapital)
	assert.Equal(t, domain.PolicyAverage, cfg.PositionPolicy)
	assert.Equal(t, []string{"BTCUSDT", "SOLUSDT"}, cfg.BinanceSymbols)
	assert.Equal(t, BackendSQLite, cfg.StateBackend)
	assert.Equal(t, 2024, cfg.SimulationStartDate.Year())
	assert.Equal(t, time.March, cfg.SimulationStartDate.Month())
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, logger.LevelDebug, cfg.LogLevel)
}

func TestLoadConfig_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"non-numeric capital", "INITIAL_CAPITAL", "lots"},
		{"negative capital", "INITIAL_CAPITAL", "-1"},
		{"zero investment", "INVESTMENT_PER_TRADE", "0"},
		{"unknown policy", "POSITION_POLICY", "fifo"},
		{"unknown source", "MARKET_SOURCE", "bloomberg"},
		{"unknown backend", "STATE_BACKEND", "redis"},
		{"bad date", "SIMULATION_START_DATE", "01/03/2024"},
		{"bad schedule", "SIMULATION_SCHEDULE", "every day"},
		{"bad port", "HTTP_PORT", "70000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			cfg, err := LoadConfig()
			assert.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}
