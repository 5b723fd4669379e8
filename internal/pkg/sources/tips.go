package sources

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"github.com/Vodeneev/footytips/internal/pkg/config"
	"github.com/Vodeneev/footytips/internal/pkg/identity"
	"github.com/Vodeneev/footytips/internal/pkg/models"
	"github.com/Vodeneev/footytips/internal/pkg/odds"
)

const (
	TipsSourceName = "tips"
	tipsBookmaker  = "tips"
)

func init() {
	Register(TipsSourceName, func(cfg *config.Config, _ *HTTPClient) (Source, error) {
		t := cfg.Sources.Tips
		if t.URL == "" {
			return nil, fmt.Errorf("tips url is required")
		}
		return NewTipsSource(t.URL, NewChromeRenderer(t, cfg.Sources.UserAgent)), nil
	})
}

// PageRenderer returns the HTML of a page after scripts have run.
type PageRenderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// TipsSource scrapes an editorial tips table.
type TipsSource struct {
	url      string
	renderer PageRenderer
}

func NewTipsSource(url string, renderer PageRenderer) *TipsSource {
	return &TipsSource{url: url, renderer: renderer}
}

func (s *TipsSource) Name() string {
	return TipsSourceName
}

func (s *TipsSource) Fetch(ctx context.Context, day time.Time) ([]models.MatchRecord, error) {
	html, err := s.renderer.Render(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("render tips page: %w", err)
	}
	return ParseTipsHTML(html, day)
}

// ParseTipsHTML reads rows of a tips table laid out as
// time | league | "Home vs Away" | tip | confidence | price.
// Rows that cannot be read are skipped; a page without a single tip row is
// an error so a layout change does not pass silently as "no tips today".
func ParseTipsHTML(html string, day time.Time) ([]models.MatchRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse tips html: %w", err)
	}

	var (
		out  []models.MatchRecord
		rows int
	)
	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 6 {
			return
		}
		rows++
		text := func(i int) string {
			return strings.TrimSpace(cells.Eq(i).Text())
		}

		home, away, ok := identity.SplitTeams(text(2))
		if !ok {
			slog.Debug("Skipping tips row without teams", "match", text(2))
			return
		}
		rec := models.MatchRecord{
			Source:   TipsSourceName,
			Kickoff:  kickoffOn(day, text(0)),
			League:   text(1),
			HomeTeam: home,
			AwayTeam: away,
			TipLabel: text(3),
		}
		if c, ok := parseConfidence(text(4)); ok {
			rec.TipConfidence = c
		}
		if price, err := odds.ParsePrice(text(5)); err == nil {
			q := models.BookmakerQuotes{Bookmaker: tipsBookmaker}
			if setPrice(&q, tipOutcome(rec.TipLabel), price) {
				rec.Markets = []models.BookmakerQuotes{q}
			}
		}
		out = append(out, rec)
	})

	if rows == 0 {
		return nil, fmt.Errorf("parse tips html: no tip rows found")
	}
	return out, nil
}

// kickoffOn combines day with an "HH:MM" cell; an unreadable time leaves
// the kickoff absent.
func kickoffOn(day time.Time, hhmm string) time.Time {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}
	}
	y, m, d := day.UTC().Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, time.UTC)
}

// parseConfidence reads "78%" or "78" as 0..100.
func parseConfidence(s string) (float64, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || v > 100 {
		return 0, false
	}
	return v, true
}

func tipOutcome(label string) models.Outcome {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "1", "home", "home win":
		return models.OutcomeHomeWin
	case "x", "draw":
		return models.OutcomeDraw
	case "2", "away", "away win":
		return models.OutcomeAwayWin
	case "btts", "btts yes", "gg", "both teams to score":
		return models.OutcomeBTTSYes
	case "btts no", "ng":
		return models.OutcomeBTTSNo
	case "over 2.5", "o2.5":
		return models.OutcomeOver25
	case "under 2.5", "u2.5":
		return models.OutcomeUnder25
	}
	return ""
}

func setPrice(q *models.BookmakerQuotes, o models.Outcome, price float64) bool {
	switch o {
	case models.OutcomeHomeWin:
		q.Home = price
	case models.OutcomeDraw:
		q.Draw = price
	case models.OutcomeAwayWin:
		q.Away = price
	case models.OutcomeBTTSYes:
		q.BTTSYes = price
	case models.OutcomeBTTSNo:
		q.BTTSNo = price
	case models.OutcomeOver25:
		q.Over25 = price
	case models.OutcomeUnder25:
		q.Under25 = price
	default:
		return false
	}
	return true
}

// chromeMu serializes browser launches; one headless Chrome at a time.
var chromeMu sync.Mutex

// ChromeRenderer loads pages in headless Chrome.
type ChromeRenderer struct {
	headless     bool
	waitSelector string
	timeout      time.Duration
	userAgent    string
}

func NewChromeRenderer(cfg config.TipsConfig, userAgent string) *ChromeRenderer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &ChromeRenderer{
		headless:     cfg.Headless,
		waitSelector: cfg.WaitSelector,
		timeout:      timeout,
		userAgent:    userAgent,
	}
}

func (r *ChromeRenderer) Render(ctx context.Context, url string) (string, error) {
	chromeMu.Lock()
	defer chromeMu.Unlock()

	chromeDir, err := os.MkdirTemp("", "footytips_chrome_")
	if err != nil {
		return "", fmt.Errorf("create chrome temp dir: %w", err)
	}
	defer os.RemoveAll(chromeDir)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", r.headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserDataDir(chromeDir),
	)
	if r.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(r.userAgent))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	ctx, cancel = chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, v ...interface{}) {
		slog.Debug("chromedp", "message", fmt.Sprintf(format, v...))
	}))
	defer cancel()

	actions := []chromedp.Action{chromedp.Navigate(url)}
	if r.waitSelector != "" {
		actions = append(actions, chromedp.WaitVisible(r.waitSelector, chromedp.ByQuery))
	}
	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	if err := chromedp.Run(ctx, actions...); err != nil {
		return "", fmt.Errorf("chromedp render %s: %w", url, err)
	}
	return html, nil
}
