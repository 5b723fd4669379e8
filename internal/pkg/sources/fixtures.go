package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Vodeneev/footytips/internal/pkg/config"
	"github.com/Vodeneev/footytips/internal/pkg/models"
)

const FixturesSourceName = "fixtures"

func init() {
	Register(FixturesSourceName, func(cfg *config.Config, client *HTTPClient) (Source, error) {
		return NewFixturesSource(cfg.Sources.Fixtures, client)
	})
}

// FixturesSource reads fixtures with form, goal tallies, head-to-head and
// injuries from a JSON API.
//
// GET {base}/fixtures?date=YYYY-MM-DD[&league=...] with an X-API-Key header.
type FixturesSource struct {
	baseURL string
	apiKey  string
	leagues []string
	client  *HTTPClient
}

func NewFixturesSource(cfg config.APISourceConfig, client *HTTPClient) (*FixturesSource, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("fixtures base_url is required")
	}
	return &FixturesSource{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		leagues: cfg.Leagues,
		client:  client,
	}, nil
}

func (s *FixturesSource) Name() string {
	return FixturesSourceName
}

type fixturesResponse struct {
	Fixtures []fixtureDTO `json:"fixtures"`
}

type fixtureDTO struct {
	ID         string          `json:"id"`
	Kickoff    time.Time       `json:"kickoff"`
	League     string          `json:"league"`
	Country    string          `json:"country"`
	LeagueSize int             `json:"league_size"`
	Home       fixtureTeamDTO  `json:"home"`
	Away       fixtureTeamDTO  `json:"away"`
	HeadToHead []meetingDTO    `json:"head_to_head"`
	Injuries   []models.Injury `json:"injuries"`
}

type fixtureTeamDTO struct {
	Name          string `json:"name"`
	Form          string `json:"form"` // most recent first, e.g. "WWDLW"
	GoalsScored   int    `json:"goals_scored"`
	GoalsConceded int    `json:"goals_conceded"`
	Position      int    `json:"position"`
}

type meetingDTO struct {
	Date      time.Time `json:"date"`
	Home      string    `json:"home"`
	Away      string    `json:"away"`
	HomeGoals int       `json:"home_goals"`
	AwayGoals int       `json:"away_goals"`
}

// Fetch queries every configured league, or the whole day when none is set.
// A failing league is logged and skipped unless all of them fail.
func (s *FixturesSource) Fetch(ctx context.Context, day time.Time) ([]models.MatchRecord, error) {
	leagues := s.leagues
	if len(leagues) == 0 {
		leagues = []string{""}
	}

	header := http.Header{}
	if s.apiKey != "" {
		header.Set("X-API-Key", s.apiKey)
	}

	var (
		out     []models.MatchRecord
		lastErr error
		failed  int
	)
	for _, league := range leagues {
		q := url.Values{}
		q.Set("date", dayString(day))
		if league != "" {
			q.Set("league", league)
		}

		var resp fixturesResponse
		if err := s.client.GetJSON(ctx, s.baseURL+"/fixtures?"+q.Encode(), header, &resp); err != nil {
			slog.Warn("Failed to fetch fixtures", "league", league, "error", err)
			lastErr = err
			failed++
			continue
		}
		for _, f := range resp.Fixtures {
			out = append(out, f.toRecord())
		}
	}

	if failed == len(leagues) {
		return nil, fmt.Errorf("fixtures: %w", lastErr)
	}
	return out, nil
}

func (f fixtureDTO) toRecord() models.MatchRecord {
	rec := models.MatchRecord{
		ID:                f.ID,
		Source:            FixturesSourceName,
		Kickoff:           f.Kickoff.UTC(),
		League:            f.League,
		Country:           f.Country,
		HomeTeam:          f.Home.Name,
		AwayTeam:          f.Away.Name,
		HomeForm:          splitForm(f.Home.Form),
		AwayForm:          splitForm(f.Away.Form),
		HomeGoalsScored:   f.Home.GoalsScored,
		HomeGoalsConceded: f.Home.GoalsConceded,
		AwayGoalsScored:   f.Away.GoalsScored,
		AwayGoalsConceded: f.Away.GoalsConceded,
		HomePosition:      f.Home.Position,
		AwayPosition:      f.Away.Position,
		LeagueSize:        f.LeagueSize,
		Injuries:          f.Injuries,
	}
	for _, m := range f.HeadToHead {
		rec.HeadToHead = append(rec.HeadToHead, models.HeadToHeadRecord{
			Date:      m.Date.UTC(),
			HomeTeam:  m.Home,
			AwayTeam:  m.Away,
			HomeGoals: m.HomeGoals,
			AwayGoals: m.AwayGoals,
		})
	}
	return rec
}

// splitForm turns "WWDLW" into ["W","W","D","L","W"], dropping other runes.
func splitForm(form string) []string {
	var out []string
	for _, r := range strings.ToUpper(form) {
		switch r {
		case 'W', 'D', 'L':
			out = append(out, string(r))
		}
	}
	return out
}
