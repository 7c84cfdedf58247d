package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"portfolioSim/internal/adapters/logger" // Import the logger package for LogLevel
	"portfolioSim/internal/domain"
)

// Market data sources.
const (
	SourceExcel   = "excel"
	SourceCSV     = "csv"
	SourceBinance = "binance"
)

// State backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	// Ledger
	InitialCapital     float64
	InvestmentPerTrade float64 // Cash budget per order; quantity = floor(budget / price)
	MaxQuantity        int     // 0 means no cap
	PositionPolicy     domain.PositionPolicy

	// Market data
	MarketSource   string // excel, csv or binance
	ExcelFilePath  string
	DataDumpSheet  string
	StockListSheet string
	EntryExitSheet string
	NameColumn     string
	PriceColumn    string
	CSVFilePath    string

	// Binance API (only for MARKET_SOURCE=binance)
	APIKey         string
	SecretKey      string
	IsTestnet      bool
	BinanceSymbols []string

	// Connection Settings (Binance client)
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int

	// State persistence
	StateBackend string // json or sqlite
	StateFile    string
	DBPath       string

	// Signals
	SignalSeed int64 // 0 seeds from the clock
	BuyWeight  float64
	SellWeight float64
	HoldWeight float64

	// Simulation calendar
	SimulationStartDate time.Time
	MarketOpen          time.Duration // Offset from midnight used to date catch-up passes
	SimulationSchedule  string        // Cron spec; empty disables scheduled runs

	// Messaging
	KafkaBrokers []string
	KafkaTopic   string

	// HTTP
	HTTPPort  int
	StaticDir string
	DevMode   bool

	// Logging
	LogLevel  logger.LogLevel // Use the LogLevel type from the logger adapter
	LogFormat string          // std, json or console
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Ledger
	cfg.InitialCapital, err = getEnvAsFloatRequired("INITIAL_CAPITAL", 300000)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid INITIAL_CAPITAL: %v", err))
	} else if cfg.InitialCapital <= 0 {
		errs = append(errs, "INITIAL_CAPITAL must be positive")
	}

	cfg.InvestmentPerTrade, err = getEnvAsFloatRequired("INVESTMENT_PER_TRADE", 10000)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid INVESTMENT_PER_TRADE: %v", err))
	} else if cfg.InvestmentPerTrade <= 0 {
		errs = append(errs, "INVESTMENT_PER_TRADE must be positive")
	}

	cfg.MaxQuantity, err = getEnvAsIntRequired("MAX_QUANTITY", 0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MAX_QUANTITY: %v", err))
	} else if cfg.MaxQuantity < 0 {
		errs = append(errs, "MAX_QUANTITY cannot be negative")
	}

	cfg.PositionPolicy, err = domain.ParsePositionPolicy(strings.ToLower(getEnv("POSITION_POLICY", string(domain.PolicyOverwrite))))
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid POSITION_POLICY: %v", err))
	}

	// Market data
	cfg.MarketSource = strings.ToLower(getEnv("MARKET_SOURCE", SourceExcel))
	cfg.ExcelFilePath = getEnv("EXCEL_FILE_PATH", "Working Sheet - Shameless Cloner Strategy.xlsx")
	cfg.DataDumpSheet = getEnv("DATA_DUMP_SHEET", "1. Data Dump")
	cfg.StockListSheet = getEnv("STOCK_LIST_SHEET", "3. List of 57 High Conviction S")
	cfg.EntryExitSheet = getEnv("ENTRY_EXIT_SHEET", "4. Entry & Exit Points")
	cfg.NameColumn = getEnv("NAME_COLUMN", "Name of Company")
	cfg.PriceColumn = getEnv("PRICE_COLUMN", "Holding Value in crores")
	cfg.CSVFilePath = getEnv("CSV_FILE_PATH", "./data/market.csv")

	// Binance API
	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", true) // Default to testnet for safety
	cfg.BinanceSymbols = getEnvAsList("BINANCE_SYMBOLS", []string{"BTCUSDT", "ETHUSDT"})

	switch cfg.MarketSource {
	case SourceExcel:
		if cfg.ExcelFilePath == "" {
			errs = append(errs, "EXCEL_FILE_PATH must be set")
		}
	case SourceCSV:
		if cfg.CSVFilePath == "" {
			errs = append(errs, "CSV_FILE_PATH must be set")
		}
	case SourceBinance:
		if len(cfg.BinanceSymbols) == 0 {
			errs = append(errs, "BINANCE_SYMBOLS must list at least one symbol")
		}
	default:
		errs = append(errs, fmt.Sprintf("MARKET_SOURCE must be one of %s, %s, %s", SourceExcel, SourceCSV, SourceBinance))
	}
	if cfg.NameColumn == "" || cfg.PriceColumn == "" {
		errs = append(errs, "NAME_COLUMN and PRICE_COLUMN must be set")
	}

	// Connection Settings
	reconnectDelaySeconds := getEnvAsInt("RECONNECT_DELAY_SECONDS", 5)
	if reconnectDelaySeconds <= 0 {
		errs = append(errs, "RECONNECT_DELAY_SECONDS must be positive")
	}
	cfg.ReconnectDelay = time.Duration(reconnectDelaySeconds) * time.Second

	cfg.MaxReconnectAttempts = getEnvAsInt("MAX_RECONNECT_ATTEMPTS", 10)
	if cfg.MaxReconnectAttempts < 0 {
		errs = append(errs, "MAX_RECONNECT_ATTEMPTS cannot be negative")
	}

	// State persistence
	cfg.StateBackend = strings.ToLower(getEnv("STATE_BACKEND", BackendJSON))
	cfg.StateFile = getEnv("STATE_FILE", "simulation_state.json")
	cfg.DBPath = getEnv("DB_PATH", "./data/portfolio_sim.db")
	switch cfg.StateBackend {
	case BackendJSON:
		if cfg.StateFile == "" {
			errs = append(errs, "STATE_FILE must be set")
		}
	case BackendSQLite:
		if cfg.DBPath == "" {
			errs = append(errs, "DB_PATH must be set")
		}
	default:
		errs = append(errs, fmt.Sprintf("STATE_BACKEND must be %s or %s", BackendJSON, BackendSQLite))
	}

	// Signals
	seed, err := getEnvAsIntRequired("SIGNAL_SEED", 0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid SIGNAL_SEED: %v", err))
	}
	cfg.SignalSeed = int64(seed)
	cfg.BuyWeight = getEnvAsFloat("BUY_WEIGHT", 0.4)
	cfg.SellWeight = getEnvAsFloat("SELL_WEIGHT", 0.3)
	cfg.HoldWeight = getEnvAsFloat("HOLD_WEIGHT", 0.3)
	if cfg.BuyWeight < 0 || cfg.SellWeight < 0 || cfg.HoldWeight < 0 {
		errs = append(errs, "signal weights cannot be negative")
	} else if cfg.BuyWeight+cfg.SellWeight+cfg.HoldWeight == 0 {
		errs = append(errs, "at least one signal weight must be positive")
	}

	// Simulation calendar
	cfg.SimulationStartDate, err = getEnvAsDate("SIMULATION_START_DATE", today())
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid SIMULATION_START_DATE: %v", err))
	}
	cfg.MarketOpen, err = getEnvAsClock("MARKET_OPEN_TIME", 9*time.Hour+15*time.Minute)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MARKET_OPEN_TIME: %v", err))
	}
	cfg.SimulationSchedule = getEnv("SIMULATION_SCHEDULE", "")
	if cfg.SimulationSchedule != "" {
		if _, err := cron.ParseStandard(cfg.SimulationSchedule); err != nil {
			errs = append(errs, fmt.Sprintf("invalid SIMULATION_SCHEDULE: %v", err))
		}
	}

	// Messaging
	cfg.KafkaBrokers = getEnvAsList("KAFKA_BROKERS", nil)
	cfg.KafkaTopic = getEnv("KAFKA_TOPIC", "simulated-trades")
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		errs = append(errs, "KAFKA_TOPIC must be set when KAFKA_BROKERS is set")
	}

	// HTTP
	cfg.HTTPPort, err = getEnvAsIntRequired("HTTP_PORT", 5000)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid HTTP_PORT: %v", err))
	} else if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		errs = append(errs, "HTTP_PORT must be between 1 and 65535")
	}
	cfg.StaticDir = getEnv("STATIC_DIR", "./static")
	cfg.DevMode = getEnvAsBool("DEV_MODE", false)

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr) // Use the parser from the logger package
	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", logger.FormatStd))

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

func today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma separated value, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnvAsDate parses a YYYY-MM-DD value in local time.
func getEnvAsDate(key string, defaultValue time.Time) (time.Time, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := time.ParseInLocation("2006-01-02", valueStr, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

// getEnvAsClock parses an HH:MM value into an offset from midnight.
func getEnvAsClock(key string, defaultValue time.Duration) (time.Duration, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	t, err := time.Parse("15:04", valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid clock value '%s' for key %s: %w", valueStr, key, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
