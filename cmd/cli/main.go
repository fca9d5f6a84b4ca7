package main

import (
	"fmt"
	"os"

	"gocnwi/internal"
	"gocnwi/internal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	internal.DefaultLogger = internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))

	if err := newRootCmd(cfg).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gocnwi",
		Short:         "Class separability and accuracy tables for land-cover classification",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newSeparabilityCmd(cfg),
		newRankCmd(cfg),
		newProfileCmd(cfg),
		newMetricsCmd(cfg),
		newDemoCmd(cfg),
	)
	return rootCmd
}
