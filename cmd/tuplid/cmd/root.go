package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tumcps/tupli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "tuplid",
	Short: "Benchmark registry server",
	Long: `tuplid serves the multi-tenant registry for RL benchmarks, artifacts,
and recorded episodes, backed by Postgres or SQLite.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
