package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Vodeneev/footytips/internal/pkg/config"
	"github.com/Vodeneev/footytips/internal/pkg/logging"
)

const defaultConfigPath = "configs/local.yaml"

// reportFlags are shared by run and report.
type reportFlags struct {
	date    string
	outDir  string
	formats string
}

func (f *reportFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.date, "date", "", "Match day as YYYY-MM-DD (default: today, UTC)")
	cmd.Flags().StringVar(&f.outDir, "out-dir", "", "Report directory (default: report.out_dir from config)")
	cmd.Flags().StringVar(&f.formats, "format", "", "Comma-separated report formats: html, csv (default: report.formats from config)")
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "tipster",
		Short: "Football match predictions and betting recommendations",
		Long: `tipster fetches the day's fixtures, odds and tips, reconciles them into one
record per match, scores every match and writes the recommendations and value
bets to the store and to HTML/CSV reports.

Examples:
  tipster run --date 2026-04-18 --format html,csv
  tipster report --date 2026-04-18 --format csv --out-dir ./out`,
		SilenceUsage: true,
	}

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}
	root.PersistentFlags().StringVar(&configPath, "config", defaultConfig, "Path to config file")

	load := func() (*config.Config, func() error, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load config: %w", err)
		}
		_, closeLog, err := logging.SetupLogger(cfg.Logging, "tipster")
		if err != nil {
			return nil, nil, err
		}
		return cfg, closeLog, nil
	}

	root.AddCommand(newRunCmd(load), newReportCmd(load))
	return root
}

type loadFunc func() (*config.Config, func() error, error)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseDay reads YYYY-MM-DD; empty means the current UTC day.
func parseDay(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		n := now.UTC()
		return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	day, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q, expected YYYY-MM-DD", s)
	}
	return day, nil
}

// parseFormats splits "html,csv"; empty falls back to the configured list.
func parseFormats(s string, fallback []string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return fallback, nil
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		switch f {
		case "":
			continue
		case "html", "csv":
			out = append(out, f)
		default:
			return nil, fmt.Errorf("unsupported format %q (use html or csv)", f)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no report format given")
	}
	return out, nil
}
