// Package report renders a day's recommendations and value bets as HTML
// and CSV files.
package report

import (
	"encoding/csv"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Vodeneev/footytips/internal/pkg/models"
)

// Report is everything rendered for one day.
type Report struct {
	Date            time.Time
	GeneratedAt     time.Time
	Recommendations []models.Recommendation
	Predictions     []models.PredictionResult
}

// Row is one line of the rendered tables.
type Row struct {
	Kind          string // recommendation, value_bet
	MatchID       string
	Kickoff       string
	HomeTeam      string
	AwayTeam      string
	League        string
	Pick          string
	Category      string
	Confidence    string
	Price         string
	Bookmaker     string
	Edge          string
	ExpectedValue string
	KeyFactors    string
}

var hundred = decimal.NewFromInt(100)

// Rows flattens the report: recommendations first, then value bets.
func (r Report) Rows() []Row {
	rows := make([]Row, 0, len(r.Recommendations)+len(r.Predictions))
	for _, rec := range r.Recommendations {
		row := Row{
			Kind:       "recommendation",
			MatchID:    rec.MatchID,
			Kickoff:    formatKickoff(rec.Kickoff),
			HomeTeam:   rec.HomeTeam,
			AwayTeam:   rec.AwayTeam,
			League:     rec.League,
			Pick:       fmt.Sprintf("%s (%s)", rec.RecommendedSide, rec.BetType),
			Category:   string(rec.Category),
			Confidence: strconv.Itoa(rec.Confidence) + "%",
			Bookmaker:  rec.Bookmaker,
			KeyFactors: strings.Join(rec.KeyFactors, "; "),
		}
		if rec.Odds > 0 {
			price := decimal.NewFromFloat(rec.Odds)
			row.Price = price.StringFixed(2)
			// (price * confidence/100 - 1) * 100
			value := price.Mul(decimal.NewFromInt(int64(rec.Confidence))).Div(hundred).Sub(decimal.NewFromInt(1)).Mul(hundred)
			row.ExpectedValue = value.StringFixed(1) + "%"
		}
		rows = append(rows, row)
	}

	for _, p := range r.Predictions {
		vb := p.ValueBet
		if vb == nil {
			continue
		}
		rows = append(rows, Row{
			Kind:          "value_bet",
			MatchID:       p.MatchID,
			Kickoff:       formatKickoff(p.Kickoff),
			HomeTeam:      p.HomeTeam,
			AwayTeam:      p.AwayTeam,
			League:        p.League,
			Pick:          vb.BetLabel,
			Confidence:    percent(vb.Confidence),
			Price:         decimal.NewFromFloat(vb.Price).StringFixed(2),
			Bookmaker:     vb.Bookmaker,
			Edge:          percent(vb.Edge),
			ExpectedValue: percent(vb.ExpectedValue),
			KeyFactors:    strings.Join(p.KeyFactors, "; "),
		})
	}
	return rows
}

func percent(v float64) string {
	return decimal.NewFromFloat(v).Mul(hundred).StringFixed(1) + "%"
}

func formatKickoff(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04")
}

var csvHeader = []string{
	"kind", "match_id", "kickoff", "home_team", "away_team", "league", "pick", "category",
	"confidence", "price", "bookmaker", "edge", "expected_value", "key_factors",
}

// WriteCSV writes one row per recommendation and value bet.
func WriteCSV(w io.Writer, r Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range r.Rows() {
		rec := []string{
			row.Kind, row.MatchID, row.Kickoff, row.HomeTeam, row.AwayTeam, row.League, row.Pick, row.Category,
			row.Confidence, row.Price, row.Bookmaker, row.Edge, row.ExpectedValue, row.KeyFactors,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Football tips {{.Date}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 4px 8px; text-align: left; }
tr.SAFE_BET { background: #e8f5e9; }
tr.VALUE_BET { background: #fffde7; }
tr.RISKY_BET { background: #ffebee; }
</style>
</head>
<body>
<h1>Football tips for {{.Date}}</h1>
<p>Generated {{.GeneratedAt}}</p>
{{if .Rows}}
<table>
<tr><th>Kickoff</th><th>Match</th><th>League</th><th>Pick</th><th>Category</th><th>Confidence</th><th>Price</th><th>Bookmaker</th><th>Edge</th><th>EV</th><th>Factors</th></tr>
{{range .Rows}}<tr class="{{.Category}}"><td>{{.Kickoff}}</td><td>{{.HomeTeam}} vs {{.AwayTeam}}</td><td>{{.League}}</td><td>{{.Pick}}</td><td>{{.Category}}</td><td>{{.Confidence}}</td><td>{{.Price}}</td><td>{{.Bookmaker}}</td><td>{{.Edge}}</td><td>{{.ExpectedValue}}</td><td>{{.KeyFactors}}</td></tr>
{{end}}</table>
{{else}}
<p>No recommendations for this day.</p>
{{end}}
</body>
</html>
`))

// WriteHTML renders the report as a standalone page.
func WriteHTML(w io.Writer, r Report) error {
	data := struct {
		Date        string
		GeneratedAt string
		Rows        []Row
	}{
		Date:        r.Date.UTC().Format("2006-01-02"),
		GeneratedAt: r.GeneratedAt.UTC().Format(time.RFC3339),
		Rows:        r.Rows(),
	}
	if err := htmlTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("render html report: %w", err)
	}
	return nil
}

// WriteFiles writes footytips-YYYY-MM-DD.{html,csv} into dir and returns
// the written paths.
func WriteFiles(dir string, r Report, formats []string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}

	var paths []string
	for _, format := range formats {
		var write func(io.Writer, Report) error
		switch strings.ToLower(strings.TrimSpace(format)) {
		case "html":
			write = WriteHTML
		case "csv":
			write = WriteCSV
		default:
			return paths, fmt.Errorf("unsupported report format %q", format)
		}

		path := filepath.Join(dir, fmt.Sprintf("footytips-%s.%s", r.Date.UTC().Format("2006-01-02"), strings.ToLower(strings.TrimSpace(format))))
		if err := writeFile(path, r, write); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, r Report, write func(io.Writer, Report) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
