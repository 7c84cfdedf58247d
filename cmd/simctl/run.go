package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"portfolioSim/internal/app"
	"portfolioSim/internal/bootstrap"
	"portfolioSim/internal/ports"
	"portfolioSim/internal/strategy"
)

// signalsFlag builds the generator for --signals; nil selects the configured random one.
func signalsFlag(list []string) (ports.SignalGenerator, error) {
	if len(list) == 0 {
		return nil, nil
	}
	seq, err := strategy.ParseSequence(list)
	if err != nil {
		return nil, fmt.Errorf("invalid --signals: %w", err)
	}
	return seq, nil
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	var signals []string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one simulation pass over the market data",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.setup()
			if err != nil {
				return err
			}
			gen, err := signalsFlag(signals)
			if err != nil {
				return err
			}
			c, err := bootstrap.Build(cmd.Context(), cfg, log, gen)
			if err != nil {
				return err
			}
			defer c.Close()

			summary, err := c.Service.RunSimulation(cmd.Context())
			if err != nil {
				return err
			}
			writeSummaries(cmd.OutOrStdout(), []app.RunSummary{summary})
			fmt.Fprintf(cmd.OutOrStdout(), "Capital: %.2f\n", c.Service.Snapshot().Capital)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&signals, "signals", nil, "cycle through these signals instead of random ones, e.g. buy,sell,hold")
	return cmd
}

func newCatchUpCmd(opts *rootOptions) *cobra.Command {
	var signals []string
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "catch-up",
		Short: "Simulate every market day since the last run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.setup()
			if err != nil {
				return err
			}
			gen, err := signalsFlag(signals)
			if err != nil {
				return err
			}
			c, err := bootstrap.Build(cmd.Context(), cfg, log, gen)
			if err != nil {
				return err
			}
			defer c.Close()

			if dryRun {
				for _, d := range c.Service.SimulationDates(time.Now()) {
					fmt.Fprintln(cmd.OutOrStdout(), d.Format("2006-01-02 15:04"))
				}
				return nil
			}

			summaries, err := c.Service.CatchUp(cmd.Context())
			if err != nil {
				return err
			}
			writeSummaries(cmd.OutOrStdout(), summaries)
			fmt.Fprintf(cmd.OutOrStdout(), "Capital: %.2f\n", c.Service.Snapshot().Capital)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&signals, "signals", nil, "cycle through these signals instead of random ones")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "only list the days that would be simulated")
	return cmd
}

func writeSummaries(out io.Writer, summaries []app.RunSummary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Date\tRows\tSkipped\tBuy\tSell\tHold\tExecuted\tRejected\tBudget")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%.2f\n",
			s.Date.Format("2006-01-02"), s.Rows, s.Skipped, s.Buys, s.Sells, s.Holds, s.Executed, s.Rejected, s.Budget)
	}
	w.Flush()
}
