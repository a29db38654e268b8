package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/synthgeo/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "synthgeo",
	Short: "Synthetic geography builder for population simulation",
	Long:  "Loads a synthetic population, lays it on a spatial grid, staffs schools, hospitals and group quarters, assigns hospitals and schedules sheltering or evacuation.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
