package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Vodeneev/footytips/internal/pkg/models"
	"github.com/Vodeneev/footytips/internal/pkg/report"
	"github.com/Vodeneev/footytips/internal/pkg/storage"
)

const reportLimit = 500

func newReportCmd(load loadFunc) *cobra.Command {
	var flags reportFlags

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write reports for a day from the stored results",
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

			ctx := cmd.Context()
			store, err := storage.Open(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to open storage: %w", err)
			}
			defer store.Close()

			recs, err := store.ListRecommendations(ctx, models.RecommendationFilter{Date: day, Limit: reportLimit})
			if err != nil {
				return err
			}
			preds, err := store.ListPredictions(ctx, day, reportLimit)
			if err != nil {
				return err
			}

			paths, err := report.WriteFiles(outDir, report.Report{
				Date:            day,
				GeneratedAt:     time.Now(),
				Recommendations: recs,
				Predictions:     preds,
			}, formats)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d recommendations, %d predictions for %s\n", len(recs), len(preds), day.Format("2006-01-02"))
			for _, p := range paths {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", p)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
