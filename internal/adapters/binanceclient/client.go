package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"portfolioSim/internal/domain"
	"portfolioSim/internal/ports"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
)

const (
	// Base URLs
	baseURLProduction = "https://fapi.binance.com"
	baseURLTestnet    = "https://testnet.binancefuture.com"
)

// Field names of the extra ticker columns carried in MarketRow.Fields.
const (
	FieldSymbol        = "Symbol"
	FieldOpenPrice     = "Open Price"
	FieldHighPrice     = "High Price"
	FieldLowPrice      = "Low Price"
	FieldChangePercent = "Price Change Percent"
	FieldVolume        = "Volume"
)

// Client implements the ports.MarketDataSource interface using the go-binance
// futures tickers: each configured symbol becomes one market row priced at its
// last trade.
type Client struct {
	futuresClient        *futures.Client
	symbols              []string
	logger               ports.Logger
	reconnectDelay       time.Duration
	maxReconnectAttempts int
}

// Config holds configuration specific to the Binance client adapter.
type Config struct {
	APIKey               string
	SecretKey            string
	UseTestnet           bool
	BaseURL              string   // Overrides the production/testnet URL when set
	Symbols              []string // Symbols to load, e.g. BTCUSDT
	Logger               ports.Logger
	ReconnectDelay       time.Duration // Delay between retries of a failed request
	MaxReconnectAttempts int           // Max attempts before giving up
}

// New creates a new Binance client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}
	if len(cfg.Symbols) == 0 {
		return nil, fmt.Errorf("at least one symbol is required: %w", ports.ErrConfigurationError)
	}
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		// Tickers are public; keys are only forwarded when present.
		cfg.Logger.Debug(context.Background(), "APIKey or SecretKey is empty. Using public endpoints only.")
	}

	client := futures.NewClient(cfg.APIKey, cfg.SecretKey)

	// Set BaseURL directly instead of using global futures.UseTestnet
	switch {
	case cfg.BaseURL != "":
		client.BaseURL = cfg.BaseURL
	case cfg.UseTestnet:
		client.BaseURL = baseURLTestnet
	default:
		client.BaseURL = baseURLProduction
	}
	cfg.Logger.Info(context.Background(), "Binance client configured", map[string]interface{}{"baseURL": client.BaseURL, "symbols": len(cfg.Symbols)})

	// Default reconnect settings if not provided
	reconnectDelay := cfg.ReconnectDelay
	if reconnectDelay <= 0 {
		reconnectDelay = 1 * time.Second
	}
	maxAttempts := cfg.MaxReconnectAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	symbols := make([]string, 0, len(cfg.Symbols))
	for _, s := range cfg.Symbols {
		symbols = append(symbols, strings.ToUpper(strings.TrimSpace(s)))
	}

	return &Client{
		futuresClient:        client,
		symbols:              symbols,
		logger:               cfg.Logger,
		reconnectDelay:       reconnectDelay,
		maxReconnectAttempts: maxAttempts,
	}, nil
}

// handleError translates common Binance API errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		// Map specific Binance error codes to custom errors
		var mappedErr error
		switch apiErr.Code {
		case -1003: // Too many requests
			mappedErr = ports.ErrRateLimited
		case -1021: // Timestamp for this request is outside of the recvWindow
			mappedErr = ports.ErrTimeout
		case -1022, -2014, -2015: // Bad signature, API-key format or permissions
			mappedErr = ports.ErrAuthenticationFailed
		case -1100, -1101, -1102, -1103, -1104, -1105, -1106, -1121: // Parameter errors, invalid symbol
			mappedErr = ports.ErrInvalidRequest
		default:
			mappedErr = ports.ErrDataSourceUnavailable
		}
		finalErr := fmt.Errorf("%s failed: %w: %w", operation, mappedErr, err)
		c.logger.Error(ctx, err, fmt.Sprintf("%s failed with API error", operation), fields)
		return finalErr
	}

	// Handle non-API errors (network, context cancellation, etc.)
	var finalErr error
	if errors.Is(err, context.DeadlineExceeded) {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	} else if errors.Is(err, context.Canceled) {
		finalErr = fmt.Errorf("%s operation canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	} else if strings.Contains(err.Error(), "use of closed network connection") ||
		strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "connection reset by peer") {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrConnectionFailed, err)
	} else {
		// Anything else, e.g. an undecodable response body
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrUnknown, err)
	}

	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return finalErr
}

// retryable reports whether a failed request is worth repeating.
func retryable(err error) bool {
	return errors.Is(err, ports.ErrConnectionFailed) || errors.Is(err, ports.ErrRateLimited) || errors.Is(err, ports.ErrTimeout)
}

// Load implements ports.MarketDataSource. All tickers are fetched in one
// request; configured symbols missing from the response are logged and left out.
// ErrNotFound is returned when none of them is present.
func (c *Client) Load(ctx context.Context) (*domain.MarketSnapshot, error) {
	op := "LoadTickers"
	var stats []*futures.PriceChangeStats
	var err error
	for attempt := 1; attempt <= c.maxReconnectAttempts; attempt++ {
		stats, err = c.futuresClient.NewListPriceChangeStatsService().Do(ctx)
		if err == nil {
			break
		}
		err = c.handleError(ctx, err, op)
		if !retryable(err) || attempt == c.maxReconnectAttempts {
			return nil, err
		}
		c.logger.Warn(ctx, "Retrying ticker request", map[string]interface{}{"attempt": attempt, "delay": c.reconnectDelay.String()})
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%s canceled: %w", op, ports.ErrContextCanceled)
		case <-time.After(c.reconnectDelay):
		}
	}

	rows, missing := rowsFromStats(stats, c.symbols)
	if len(rows) == 0 {
		c.logger.Warn(ctx, "No configured symbol in ticker response", map[string]interface{}{"symbols": strings.Join(missing, ",")})
		return nil, fmt.Errorf("%s: none of %s returned: %w", op, strings.Join(c.symbols, ","), ports.ErrNotFound)
	}
	if len(missing) > 0 {
		c.logger.Warn(ctx, "Symbols missing from ticker response", map[string]interface{}{"symbols": strings.Join(missing, ",")})
	}
	c.logger.Info(ctx, "Market data loaded", map[string]interface{}{"source": "binance", "rows": len(rows)})

	return &domain.MarketSnapshot{
		Rows:      rows,
		StockList: append([]string(nil), c.symbols...),
	}, nil
}

// GetTickerPrice retrieves the last ticker price for a given symbol.
// An empty ticker response yields ErrNotFound.
func (c *Client) GetTickerPrice(ctx context.Context, symbol string) (float64, error) {
	op := "GetTickerPrice"
	tickers, err := c.futuresClient.NewListPriceChangeStatsService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, c.handleError(ctx, err, op)
	}
	if len(tickers) == 0 || tickers[0] == nil {
		c.logger.Warn(ctx, "No ticker data returned", map[string]interface{}{"symbol": symbol})
		return 0, fmt.Errorf("%s: no ticker data for symbol %s: %w", op, symbol, ports.ErrNotFound)
	}

	price, err := strconv.ParseFloat(tickers[0].LastPrice, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: could not parse price '%s': %v: %w", op, tickers[0].LastPrice, err, ports.ErrMalformedData)
	}
	return price, nil
}

// Ping checks the connectivity to the exchange API.
func (c *Client) Ping(ctx context.Context) error {
	op := "Ping"
	err := c.futuresClient.NewPingService().Do(ctx)
	if err != nil {
		return c.handleError(ctx, fmt.Errorf("ping failed: %w", err), op)
	}
	c.logger.Debug(ctx, op+" successful")
	return nil
}

// GetServerTime retrieves the current server time from the exchange.
func (c *Client) GetServerTime(ctx context.Context) (time.Time, error) {
	op := "GetServerTime"
	serverTimeMs, err := c.futuresClient.NewServerTimeService().Do(ctx)
	if err != nil {
		return time.Time{}, c.handleError(ctx, err, op)
	}
	// Convert milliseconds to time.Time
	return time.UnixMilli(serverTimeMs), nil
}

// --- Helper Translation Functions ---

// rowsFromStats keeps the configured symbols in configured order and reports
// the ones the exchange did not return.
func rowsFromStats(stats []*futures.PriceChangeStats, symbols []string) (rows []domain.MarketRow, missing []string) {
	bySymbol := make(map[string]*futures.PriceChangeStats, len(stats))
	for _, s := range stats {
		if s != nil {
			bySymbol[s.Symbol] = s
		}
	}
	for i, sym := range symbols {
		s, ok := bySymbol[sym]
		if !ok {
			missing = append(missing, sym)
			continue
		}
		rows = append(rows, domain.MarketRow{
			Row:          i + 1,
			CompanyName:  s.Symbol,
			HoldingValue: s.LastPrice,
			Fields: map[string]string{
				FieldSymbol:        s.Symbol,
				FieldOpenPrice:     s.OpenPrice,
				FieldHighPrice:     s.HighPrice,
				FieldLowPrice:      s.LowPrice,
				FieldChangePercent: s.PriceChangePercent,
				FieldVolume:        s.Volume,
			},
		})
	}
	return rows, missing
}
