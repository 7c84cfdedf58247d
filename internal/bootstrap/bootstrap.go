// Package bootstrap builds the adapters selected by configuration and wires
// them into a SimulationService.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"portfolioSim/config"
	"portfolioSim/internal/adapters/binanceclient"
	"portfolioSim/internal/adapters/csvdata"
	"portfolioSim/internal/adapters/excel"
	"portfolioSim/internal/adapters/jsonstore"
	"portfolioSim/internal/adapters/kafka"
	"portfolioSim/internal/adapters/sqlite"
	"portfolioSim/internal/app"
	"portfolioSim/internal/ports"
	"portfolioSim/internal/strategy"
)

// Components holds the wired service and the resources that need closing.
type Components struct {
	Service   *app.SimulationService
	Market    ports.MarketDataSource
	Store     ports.StateStore
	Publisher ports.TradePublisher

	closers []func() error
}

// Close releases the store and publisher, joining any errors.
func (c *Components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Build creates every adapter named by cfg. signals overrides the configured
// random generator when non-nil.
func Build(ctx context.Context, cfg *config.Config, logger ports.Logger, signals ports.SignalGenerator) (*Components, error) {
	c := &Components{}

	market, err := NewMarketSource(cfg, logger)
	if err != nil {
		return nil, err
	}
	c.Market = market

	store, closeStore, err := NewStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	c.Store = store
	if closeStore != nil {
		c.closers = append(c.closers, closeStore)
	}

	publisher, closePublisher, err := NewPublisher(cfg, logger)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.Publisher = publisher
	if closePublisher != nil {
		c.closers = append(c.closers, closePublisher)
	}

	if signals == nil {
		signals, err = strategy.NewRandom(strategy.Config{
			Weights: strategy.Weights{Buy: cfg.BuyWeight, Sell: cfg.SellWeight, Hold: cfg.HoldWeight},
			Seed:    cfg.SignalSeed,
		}, logger)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("failed to create signal generator: %w", err)
		}
	}

	c.Service, err = app.NewSimulationService(ctx, cfg, logger, market, signals, store, publisher)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// NewMarketSource returns the adapter for cfg.MarketSource.
func NewMarketSource(cfg *config.Config, logger ports.Logger) (ports.MarketDataSource, error) {
	var (
		source ports.MarketDataSource
		err    error
	)
	switch cfg.MarketSource {
	case config.SourceExcel:
		source, err = excel.New(excel.Config{
			Path:           cfg.ExcelFilePath,
			DataDumpSheet:  cfg.DataDumpSheet,
			StockListSheet: cfg.StockListSheet,
			EntryExitSheet: cfg.EntryExitSheet,
			NameColumn:     cfg.NameColumn,
			PriceColumn:    cfg.PriceColumn,
			Logger:         logger,
		})
	case config.SourceCSV:
		source, err = csvdata.New(csvdata.Config{
			Path:        cfg.CSVFilePath,
			NameColumn:  cfg.NameColumn,
			PriceColumn: cfg.PriceColumn,
			Logger:      logger,
		})
	case config.SourceBinance:
		source, err = binanceclient.New(binanceclient.Config{
			APIKey:               cfg.APIKey,
			SecretKey:            cfg.SecretKey,
			UseTestnet:           cfg.IsTestnet,
			Symbols:              cfg.BinanceSymbols,
			Logger:               logger,
			ReconnectDelay:       cfg.ReconnectDelay,
			MaxReconnectAttempts: cfg.MaxReconnectAttempts,
		})
	default:
		return nil, fmt.Errorf("unknown market source %q: %w", cfg.MarketSource, ports.ErrConfigurationError)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s market source: %w", cfg.MarketSource, err)
	}
	return source, nil
}

// NewStore returns the state backend for cfg.StateBackend and its closer, if any.
func NewStore(cfg *config.Config, logger ports.Logger) (ports.StateStore, func() error, error) {
	switch cfg.StateBackend {
	case config.BackendJSON:
		store, err := jsonstore.New(jsonstore.Config{Path: cfg.StateFile, Logger: logger})
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	case config.BackendSQLite:
		repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: logger})
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown state backend %q: %w", cfg.StateBackend, ports.ErrConfigurationError)
	}
}

// NewPublisher returns a Kafka producer when brokers are configured and a
// no-op publisher otherwise.
func NewPublisher(cfg *config.Config, logger ports.Logger) (ports.TradePublisher, func() error, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return ports.NopPublisher{}, nil, nil
	}
	producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	if err != nil {
		return nil, nil, err
	}
	return producer, producer.Close, nil
}
