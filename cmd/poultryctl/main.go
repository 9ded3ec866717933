package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts globalOptions
	cmd := &cobra.Command{
		Use:           "poultryctl",
		Short:         "Command line tools for poultry-manager",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.server, "server", envOr("POULTRY_SERVER", "http://localhost:8080"), "poultry-manager base URL")
	cmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "Debug logging")

	cmd.AddCommand(
		newImportCmd(&opts),
		newLeaderboardCmd(&opts),
		newReportsCmd(&opts),
		newMigrateCmd(&opts),
	)
	return cmd
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
