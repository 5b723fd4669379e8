package main

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Vodeneev/footytips/internal/pkg/report"
	"github.com/Vodeneev/footytips/internal/predictor/app"
	"github.com/Vodeneev/footytips/internal/predictor/predictor"
)

func newRunCmd(load loadFunc) *cobra.Command {
	var flags reportFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once for a day and write reports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, closeLog, err := load()
			if err != nil {
				return err
			}
			defer closeLog()

			day, err := parseDay(flags.date, time.Now())
			if err != nil {
				return err
			}
			formats, err := parseFormats(flags.formats, cfg.Report.Formats)
			if err != nil {
				return err
			}
			outDir := flags.outDir
			if outDir == "" {
				outDir = cfg.Report.OutDir
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			sum, err := a.Service.Run(ctx, day)
			if err != nil {
				return fmt.Errorf("run failed: %w", err)
			}

			paths, err := report.WriteFiles(outDir, report.Report{
				Date:            day,
				GeneratedAt:     time.Now(),
				Recommendations: sum.Recs,
				Predictions:     sum.Preds,
			}, formats)
			if err != nil {
				return err
			}

			printSummary(cmd, sum)
			for _, p := range paths {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", p)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func printSummary(cmd *cobra.Command, sum predictor.RunSummary) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "run\t%s\n", sum.RunID)
	fmt.Fprintf(w, "date\t%s\n", sum.Date)
	fmt.Fprintf(w, "fetched\t%d (dropped %d)\n", sum.Fetched, sum.Dropped)
	fmt.Fprintf(w, "matches\t%d\n", sum.Reconciled)
	fmt.Fprintf(w, "scored\t%d\n", sum.Scored)
	fmt.Fprintf(w, "value bets\t%d\n", sum.ValueBets)
	fmt.Fprintf(w, "recommendations\t%d\n", sum.Recommendations)

	cats := make([]string, 0, len(sum.Categories))
	for c := range sum.Categories {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	for _, c := range cats {
		fmt.Fprintf(w, "  %s\t%d\n", c, sum.Categories[c])
	}
	if len(sum.SourceFailures) > 0 {
		fmt.Fprintf(w, "failed sources\t%v\n", sum.SourceFailures)
	}
	if len(sum.MatchFailures) > 0 {
		fmt.Fprintf(w, "failed matches\t%d\n", len(sum.MatchFailures))
	}
	fmt.Fprintf(w, "duration\t%s\n", sum.Duration.Round(time.Millisecond))
	_ = w.Flush()
}
