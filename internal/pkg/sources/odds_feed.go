package sources

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/Vodeneev/footytips/internal/pkg/config"
	"github.com/Vodeneev/footytips/internal/pkg/identity"
	"github.com/Vodeneev/footytips/internal/pkg/models"
)

const OddsSourceName = "odds"

func init() {
	Register(OddsSourceName, func(cfg *config.Config, client *HTTPClient) (Source, error) {
		return NewOddsSource(cfg.Sources.Odds, client)
	})
}

// OddsSource reads per-bookmaker 1X2, BTTS and 2.5 goals totals prices.
//
// GET {base}/odds?date=YYYY-MM-DD&regions=...&markets=h2h,btts,totals&apiKey=...[&league=...]
type OddsSource struct {
	baseURL string
	apiKey  string
	regions string
	leagues []string
	client  *HTTPClient
}

func NewOddsSource(cfg config.APISourceConfig, client *HTTPClient) (*OddsSource, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("odds base_url is required")
	}
	return &OddsSource{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		regions: cfg.Regions,
		leagues: cfg.Leagues,
		client:  client,
	}, nil
}

func (s *OddsSource) Name() string {
	return OddsSourceName
}

type oddsEventDTO struct {
	ID           string             `json:"id"`
	CommenceTime time.Time          `json:"commence_time"`
	League       string             `json:"league"`
	HomeTeam     string             `json:"home_team"`
	AwayTeam     string             `json:"away_team"`
	Bookmakers   []oddsBookmakerDTO `json:"bookmakers"`
}

type oddsBookmakerDTO struct {
	Key     string          `json:"key"`
	Title   string          `json:"title"`
	Markets []oddsMarketDTO `json:"markets"`
}

type oddsMarketDTO struct {
	Key      string           `json:"key"` // h2h, btts, totals
	Outcomes []oddsOutcomeDTO `json:"outcomes"`
}

type oddsOutcomeDTO struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Point float64 `json:"point,omitempty"`
}

func (s *OddsSource) Fetch(ctx context.Context, day time.Time) ([]models.MatchRecord, error) {
	leagues := s.leagues
	if len(leagues) == 0 {
		leagues = []string{""}
	}

	var (
		out     []models.MatchRecord
		lastErr error
		failed  int
	)
	for _, league := range leagues {
		q := url.Values{}
		q.Set("date", dayString(day))
		q.Set("markets", "h2h,btts,totals")
		if s.regions != "" {
			q.Set("regions", s.regions)
		}
		if league != "" {
			q.Set("league", league)
		}
		if s.apiKey != "" {
			q.Set("apiKey", s.apiKey)
		}

		var events []oddsEventDTO
		if err := s.client.GetJSON(ctx, s.baseURL+"/odds?"+q.Encode(), nil, &events); err != nil {
			slog.Warn("Failed to fetch odds", "league", league, "error", err)
			lastErr = err
			failed++
			continue
		}
		for _, ev := range events {
			out = append(out, ev.toRecord())
		}
	}

	if failed == len(leagues) {
		return nil, fmt.Errorf("odds: %w", lastErr)
	}
	return out, nil
}

func (ev oddsEventDTO) toRecord() models.MatchRecord {
	rec := models.MatchRecord{
		ID:       ev.ID,
		Source:   OddsSourceName,
		Kickoff:  ev.CommenceTime.UTC(),
		League:   ev.League,
		HomeTeam: ev.HomeTeam,
		AwayTeam: ev.AwayTeam,
	}
	for _, b := range ev.Bookmakers {
		q := models.BookmakerQuotes{Bookmaker: b.Title}
		if q.Bookmaker == "" {
			q.Bookmaker = b.Key
		}
		for _, m := range b.Markets {
			for _, o := range m.Outcomes {
				ev.applyOutcome(&q, m.Key, o)
			}
		}
		rec.Markets = append(rec.Markets, q)
	}
	return rec
}

func (ev oddsEventDTO) applyOutcome(q *models.BookmakerQuotes, market string, o oddsOutcomeDTO) {
	name := strings.ToLower(strings.TrimSpace(o.Name))
	switch market {
	case "h2h":
		switch {
		case name == "draw":
			q.Draw = o.Price
		case identity.NamesMatch(o.Name, ev.HomeTeam):
			q.Home = o.Price
		case identity.NamesMatch(o.Name, ev.AwayTeam):
			q.Away = o.Price
		}
	case "btts":
		switch name {
		case "yes":
			q.BTTSYes = o.Price
		case "no":
			q.BTTSNo = o.Price
		}
	case "totals":
		if math.Abs(o.Point-2.5) > 1e-9 {
			return
		}
		switch name {
		case "over":
			q.Over25 = o.Price
		case "under":
			q.Under25 = o.Price
		}
	}
}
