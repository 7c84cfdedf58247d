package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"portfolioSim/config"
	"portfolioSim/internal/adapters/logger"
	"portfolioSim/internal/domain"
	"portfolioSim/internal/ports"
)

type rootOptions struct {
	logFormat string
	logLevel  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "simctl",
		Short: "Portfolio simulation command line",
		Long: `simctl drives the portfolio simulation from the shell.

Configuration is read from the environment and an optional .env file,
the same way the HTTP service reads it.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "override LOG_FORMAT (std, json, console)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override LOG_LEVEL")

	cmd.AddCommand(
		newRunCmd(opts),
		newCatchUpCmd(opts),
		newReportCmd(opts),
		newExportCmd(opts),
		newFetchPricesCmd(opts),
		newPriceCmd(opts),
	)
	return cmd
}

// setup loads configuration and builds the logger, applying flag overrides.
func (o *rootOptions) setup() (*config.Config, ports.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if o.logFormat != "" {
		cfg.LogFormat = strings.ToLower(o.logFormat)
	}
	if o.logLevel != "" {
		cfg.LogLevel = logger.ParseLevel(o.logLevel)
	}
	return cfg, logger.New(cfg.LogFormat, cfg.LogLevel), nil
}

// loadState reads the persisted ledger, falling back to a fresh one.
func loadState(ctx context.Context, store ports.StateStore, cfg *config.Config) (domain.LedgerState, error) {
	state, err := store.Load(ctx)
	if err != nil {
		return domain.LedgerState{}, fmt.Errorf("failed to load simulation state: %w", err)
	}
	if state == nil {
		return domain.DefaultState(cfg.InitialCapital, cfg.SimulationStartDate), nil
	}
	if state.InitialCapital <= 0 {
		state.InitialCapital = cfg.InitialCapital
	}
	return *state, nil
}
