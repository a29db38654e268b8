package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/synthgeo/internal/pipeline"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Build the synthetic geography and write reports",
	Long:  "Runs every setup phase once, writes the county, tract and household reports and, with a store configured, records the run and its places.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runPipeline(cmd.Context(), "setup", 0)
	},
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Build the geography and run daily updates",
	Long:  "Runs setup, then the per-day hospital and household updates for --days days, recording tracker values for each day.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		days, _ := cmd.Flags().GetInt("days")
		return runPipeline(cmd.Context(), "simulate", days)
	},
}

func runPipeline(ctx context.Context, mode string, days int) error {
	if err := cfg.Validate(mode); err != nil {
		return err
	}

	st, err := initStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close() //nolint:errcheck
	}

	p, err := pipeline.New(cfg, st)
	if err != nil {
		return err
	}
	if err := p.Execute(ctx, days); err != nil {
		return err
	}

	zap.L().Info("run complete", zap.String("mode", mode), zap.Uint64("seed", p.Seed()), zap.Int("days", days))
	formatSummary(os.Stdout, p.Summary(), p.Run())
	return nil
}

func init() {
	simulateCmd.Flags().Int("days", 1, "number of days to simulate")

	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(simulateCmd)
}
