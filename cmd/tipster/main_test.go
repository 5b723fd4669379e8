package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vodeneev/footytips/internal/pkg/models"
	"github.com/Vodeneev/footytips/internal/pkg/storage"
)

func TestParseDay(t *testing.T) {
	now := time.Date(2026, 4, 18, 23, 10, 0, 0, time.FixedZone("MSK", 3*3600))

	day, err := parseDay("", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 4, 18, 0, 0, 0, 0, time.UTC), day)

	day, err = parseDay(" 2026-05-01 ", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), day)

	_, err = parseDay("01/05/2026", now)
	assert.Error(t, err)
}

func TestParseFormats(t *testing.T) {
	got, err := parseFormats("", []string{"html"})
	require.NoError(t, err)
	assert.Equal(t, []string{"html"}, got)

	got, err = parseFormats("CSV, html,", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"csv", "html"}, got)

	_, err = parseFormats("pdf", nil)
	assert.ErrorContains(t, err, "unsupported format")

	_, err = parseFormats(" , ", nil)
	assert.Error(t, err)
}

func TestReportCommand(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "tips.db")
	outDir := filepath.Join(dir, "out")

	ctx := context.Background()
	st, err := storage.OpenSQLite(ctx, dbPath)
	require.NoError(t, err)
	require.NoError(t, st.UpsertRecommendation(ctx, &models.Recommendation{
		ID:              "rec-1",
		MatchID:         "arsenal_chelsea_20260418",
		Kickoff:         time.Date(2026, 4, 18, 14, 0, 0, 0, time.UTC),
		HomeTeam:        "Arsenal",
		AwayTeam:        "Chelsea",
		RecommendedSide: "Arsenal",
		BetType:         models.BetHomeWin,
		Confidence:      71,
		Category:        models.CategoryValue,
		Odds:            2.5,
	}))
	require.NoError(t, st.Close())

	cfgPath := filepath.Join(dir, "config.yaml")
	cfgYAML := fmt.Sprintf("logging:\n  level: error\nstorage:\n  driver: sqlite\n  sqlite_path: %s\n", dbPath)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgYAML), 0o644))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"report", "--config", cfgPath, "--date", "2026-04-18", "--out-dir", outDir, "--format", "csv"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "1 recommendations, 0 predictions for 2026-04-18")

	data, err := os.ReadFile(filepath.Join(outDir, "footytips-2026-04-18.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Arsenal (HOME_WIN)")
	assert.Contains(t, string(data), "2.50")
}

func TestReportCommand_BadFormat(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	cfgYAML := fmt.Sprintf("logging:\n  level: error\nstorage:\n  driver: sqlite\n  sqlite_path: %s\n", filepath.Join(dir, "tips.db"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgYAML), 0o644))

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"report", "--config", cfgPath, "--format", "pdf"})
	assert.ErrorContains(t, cmd.Execute(), "unsupported format")
}
