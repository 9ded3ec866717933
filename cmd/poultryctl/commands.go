package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/MKris124/poultry-manager/common/database"
	"github.com/MKris124/poultry-manager/common/logger"
	"github.com/MKris124/poultry-manager/internal/analytics"
	"github.com/MKris124/poultry-manager/internal/client"
	"github.com/MKris124/poultry-manager/internal/config"
	"github.com/MKris124/poultry-manager/internal/repository"
	"github.com/MKris124/poultry-manager/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type globalOptions struct {
	server  string
	verbose bool
}

func (o *globalOptions) logger() *zap.Logger {
	level := "warn"
	if o.verbose {
		level = "debug"
	}
	l, err := logger.NewLogger(level, "console", "poultryctl")
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func newImportCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Upload a shipment workbook and print the import report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(opts.server, opts.logger())
			report, err := c.ImportFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
}

func newLeaderboardCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the partner ranking",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			board, err := client.New(opts.server, opts.logger()).Leaderboard(cmd.Context())
			if err != nil {
				return err
			}
			printLeaderboard(cmd.OutOrStdout(), board)
			return nil
		},
	}
}

func newReportsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reports",
		Short: "List recent import reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reports, err := client.New(opts.server, opts.logger()).ImportReports(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tFILE\tIMPORTED\tOK\tFAILED\tSKIPPED")
			for _, r := range reports {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\n", r.ID, r.FileName,
					r.ImportedAt.Format("2006-01-02 15:04"), r.SuccessCount, r.FailedCount, r.SkippedCount)
			}
			return tw.Flush()
		},
	}
}

// newMigrateCmd 直接连接数据库，不经过 HTTP
func newMigrateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the schema to the configured database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := database.Open(&cfg.Database)
			if err != nil {
				return err
			}
			defer database.Close(db)

			if err := repository.NewSQLStore(db, cfg.Database.Driver).Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			opts.logger().Info("Schema applied", zap.String("driver", cfg.Database.Driver))
			fmt.Fprintf(cmd.OutOrStdout(), "schema applied (%s)\n", cfg.Database.Driver)
			return nil
		},
	}
}

func printReport(w io.Writer, r *service.ImportReport) {
	fmt.Fprintf(w, "import %s: %d ok, %d failed, %d skipped\n", r.ID, r.SuccessCount, r.FailedCount, r.SkippedCount)
	for _, msg := range r.ErrorMessages {
		fmt.Fprintf(w, "  %s\n", msg)
	}
}

func printLeaderboard(w io.Writer, board []analytics.LeaderboardEntry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tLIVER\tKOSHER %\tMORTALITY %\tSCORE")
	for i, e := range board {
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%.2f\t%.2f\t%.2f\n", i+1, e.Name,
			e.AvgLiverWeight, e.AvgKosherPercent, e.AvgMortalityRate, e.TotalScore)
		for _, m := range e.Members {
			fmt.Fprintf(tw, "\t  %s\t%.2f\t%.2f\t%.2f\t%.2f\n", m.Name,
				m.AvgLiverWeight, m.AvgKosherPercent, m.AvgMortalityRate, m.TotalScore)
		}
	}
	_ = tw.Flush()
}
