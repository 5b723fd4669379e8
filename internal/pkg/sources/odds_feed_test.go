package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vodeneev/footytips/internal/pkg/config"
	"github.com/Vodeneev/footytips/internal/pkg/models"
)

const oddsPayload = `[{
  "id": "ev-9",
  "commence_time": "2026-04-18T14:00:00Z",
  "league": "EPL",
  "home_team": "Arsenal FC",
  "away_team": "Chelsea",
  "bookmakers": [
    {"key": "bet365", "title": "Bet365", "markets": [
      {"key": "h2h", "outcomes": [
        {"name": "Arsenal", "price": 1.80},
        {"name": "Draw", "price": 3.60},
        {"name": "Chelsea FC", "price": 4.20}
      ]},
      {"key": "btts", "outcomes": [{"name": "Yes", "price": 1.70}, {"name": "No", "price": 2.10}]},
      {"key": "totals", "outcomes": [
        {"name": "Over", "point": 1.5, "price": 1.25},
        {"name": "Over", "point": 2.5, "price": 1.90},
        {"name": "Under", "point": 2.5, "price": 1.95}
      ]}
    ]},
    {"key": "pinnacle", "markets": [
      {"key": "h2h", "outcomes": [{"name": "Arsenal", "price": 1.85}, {"name": "Draw", "price": 3.50}, {"name": "Chelsea", "price": 4.30}]}
    ]}
  ]
}]`

func TestOddsSource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/odds", r.URL.Path)
		assert.Equal(t, "eu,uk", q.Get("regions"))
		assert.Equal(t, "k", q.Get("apiKey"))
		assert.Equal(t, "h2h,btts,totals", q.Get("markets"))
		w.Write([]byte(oddsPayload))
	}))
	defer srv.Close()

	src, err := NewOddsSource(config.APISourceConfig{BaseURL: srv.URL, APIKey: "k", Regions: "eu,uk"}, testClient())
	require.NoError(t, err)

	recs, err := src.Fetch(context.Background(), testDay)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, OddsSourceName, rec.Source)
	assert.Equal(t, "Arsenal FC", rec.HomeTeam)
	require.Len(t, rec.Markets, 2)
	assert.Equal(t, models.BookmakerQuotes{
		Bookmaker: "Bet365",
		Home:      1.80,
		Draw:      3.60,
		Away:      4.20,
		BTTSYes:   1.70,
		BTTSNo:    2.10,
		Over25:    1.90,
		Under25:   1.95,
	}, rec.Markets[0])
	assert.Equal(t, "pinnacle", rec.Markets[1].Bookmaker)
	assert.Equal(t, 4.30, rec.Markets[1].Away)
	assert.Zero(t, rec.Markets[1].BTTSYes)
}

func TestOddsSource_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	src, err := NewOddsSource(config.APISourceConfig{BaseURL: srv.URL}, testClient())
	require.NoError(t, err)
	_, err = src.Fetch(context.Background(), testDay)
	assert.ErrorContains(t, err, "decode")
}
