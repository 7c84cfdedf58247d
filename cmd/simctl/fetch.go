package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"portfolioSim/internal/adapters/binanceclient"
	"portfolioSim/internal/ports"
	"portfolioSim/internal/utils"
)

func newFetchPricesCmd(opts *rootOptions) *cobra.Command {
	var symbols []string
	var out string
	cmd := &cobra.Command{
		Use:   "fetch-prices",
		Short: "Snapshot Binance last prices into a CSV usable as MARKET_SOURCE=csv",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.setup()
			if err != nil {
				return err
			}
			if len(symbols) == 0 {
				symbols = cfg.BinanceSymbols
			}
			client, err := binanceclient.New(binanceclient.Config{
				APIKey:               cfg.APIKey,
				SecretKey:            cfg.SecretKey,
				UseTestnet:           cfg.IsTestnet,
				Symbols:              symbols,
				Logger:               log,
				ReconnectDelay:       cfg.ReconnectDelay,
				MaxReconnectAttempts: cfg.MaxReconnectAttempts,
			})
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := client.Ping(ctx); err != nil {
				return err
			}
			serverTime, err := client.GetServerTime(ctx)
			if err != nil {
				return err
			}
			log.Info(ctx, "Exchange reachable", map[string]interface{}{"clockSkew": time.Since(serverTime).String()})

			snapshot, err := client.Load(ctx)
			if err != nil {
				return err
			}
			if err := utils.WriteMarketRowsToCSV(snapshot.Rows, cfg.NameColumn, cfg.PriceColumn, out); err != nil {
				return fmt.Errorf("failed to write prices: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", len(snapshot.Rows), out)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&symbols, "symbols", nil, "symbols to fetch (default BINANCE_SYMBOLS)")
	cmd.Flags().StringVarP(&out, "out", "o", "data/market.csv", "output CSV file")
	return cmd
}

func newPriceCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "price SYMBOL",
		Short: "Print the last Binance price of a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.setup()
			if err != nil {
				return err
			}
			client, err := binanceclient.New(binanceclient.Config{
				APIKey:     cfg.APIKey,
				SecretKey:  cfg.SecretKey,
				UseTestnet: cfg.IsTestnet,
				Symbols:    args,
				Logger:     log,
			})
			if err != nil {
				return err
			}
			price, err := client.GetTickerPrice(cmd.Context(), args[0])
			if errors.Is(err, ports.ErrNotFound) {
				return fmt.Errorf("symbol %s is not listed on the exchange: %w", args[0], err)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%v\n", args[0], price)
			return nil
		},
	}
}
