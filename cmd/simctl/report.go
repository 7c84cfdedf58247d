package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"portfolioSim/internal/analytics"
	"portfolioSim/internal/bootstrap"
	"portfolioSim/internal/domain"
	"portfolioSim/internal/utils"
)

func newReportCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print performance metrics of the saved simulation",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.setup()
			if err != nil {
				return err
			}
			store, closeStore, err := bootstrap.NewStore(cfg, log)
			if err != nil {
				return err
			}
			if closeStore != nil {
				defer closeStore()
			}
			state, err := loadState(cmd.Context(), store, cfg)
			if err != nil {
				return err
			}

			report := analytics.Compute(state.History, state.InitialCapital, state.Capital)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			writeReport(cmd.OutOrStdout(), state, report, analytics.Analyze(state.History))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the metrics as JSON")
	return cmd
}

func writeReport(out io.Writer, state domain.LedgerState, r analytics.Report, b analytics.Breakdown) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "## Performance")
	fmt.Fprintf(w, "Initial capital\t%.2f\n", state.InitialCapital)
	fmt.Fprintf(w, "Final capital\t%.2f\n", r.FinalCapital)
	fmt.Fprintf(w, "Profit/Loss\t%.2f\n", r.ProfitLoss)
	fmt.Fprintf(w, "Total trades\t%d\n", r.TotalTrades)
	fmt.Fprintf(w, "Profitable trades\t%d\n", r.ProfitableTrades)
	fmt.Fprintf(w, "Success rate\t%.2f%%\n", r.SuccessRate)
	fmt.Fprintf(w, "Max drawdown\t%.2f%%\n", r.MaxDrawdown)
	fmt.Fprintf(w, "Sharpe ratio\t%.4f\n", r.SharpeRatio)
	fmt.Fprintf(w, "Win/loss ratio\t%s\n", r.WinLossRatio)
	fmt.Fprintf(w, "Open positions\t%d\n", len(state.Positions))

	fmt.Fprintln(w, "\n## Closed trades")
	fmt.Fprintf(w, "Closed\t%d\n", b.ClosedTrades)
	fmt.Fprintf(w, "Winning / losing\t%d / %d\n", b.WinningTrades, b.LosingTrades)
	fmt.Fprintf(w, "Average win\t%.2f\n", b.AverageWin)
	fmt.Fprintf(w, "Average loss\t%.2f\n", b.AverageLoss)
	fmt.Fprintf(w, "Expectancy\t%.2f\n", b.Expectancy)
	fmt.Fprintf(w, "Max consecutive wins / losses\t%d / %d\n", b.MaxConsecutiveWins, b.MaxConsecutiveLosses)

	if len(b.MonthlyProfit) > 0 {
		fmt.Fprintln(w, "\n## Monthly realized profit")
		for _, m := range b.MonthlyProfit {
			fmt.Fprintf(w, "%s\t%.2f\n", m.Month.Format("2006-01"), m.Profit)
		}
	}
	w.Flush()
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the saved trade history to a CSV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.setup()
			if err != nil {
				return err
			}
			store, closeStore, err := bootstrap.NewStore(cfg, log)
			if err != nil {
				return err
			}
			if closeStore != nil {
				defer closeStore()
			}
			state, err := loadState(cmd.Context(), store, cfg)
			if err != nil {
				return err
			}
			if err := utils.WriteTradesToCSV(state.History, out); err != nil {
				return fmt.Errorf("failed to export trades: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d trades to %s\n", len(state.History), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "data/trades.csv", "output CSV file")
	return cmd
}
