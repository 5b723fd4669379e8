package sources

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vodeneev/footytips/internal/pkg/config"
	"github.com/Vodeneev/footytips/internal/pkg/models"
)

func TestRunner_IsolatesFailuresAndKeepsOrder(t *testing.T) {
	srcs := []Source{
		stubSource{name: "fixtures", recs: []models.MatchRecord{{HomeTeam: "Arsenal", AwayTeam: "Chelsea"}}},
		stubSource{name: "odds", err: errors.New("upstream down")},
		stubSource{name: "tips", recs: []models.MatchRecord{
			{HomeTeam: " Leeds ", AwayTeam: "Hull"},
			{HomeTeam: "Leeds", AwayTeam: ""},
		}},
	}

	res := NewRunner(nil).Run(context.Background(), srcs, testDay)

	require.Len(t, res.Records, 3)
	assert.Len(t, res.Records[0], 1)
	assert.Empty(t, res.Records[1])
	require.Len(t, res.Records[2], 1)
	assert.Equal(t, "Leeds", res.Records[2][0].HomeTeam)
	assert.Equal(t, "tips", res.Records[2][0].Source)
	assert.Equal(t, 1, res.Dropped)
	assert.Equal(t, 2, res.Total())

	require.Len(t, res.Failures, 1)
	assert.Equal(t, "odds", res.Failures[0].Source)
}

func TestRunner_NoSources(t *testing.T) {
	res := NewRunner(nil).Run(context.Background(), nil, testDay)
	assert.Zero(t, res.Total())
	assert.Empty(t, res.Failures)
}

func TestBuild(t *testing.T) {
	cfg := config.Default()
	cfg.Sources.Enabled = []string{"odds", "fixtures"}
	cfg.Sources.Fixtures.BaseURL = "http://fixtures.local"
	cfg.Sources.Odds.BaseURL = "http://odds.local"

	srcs, err := Build(cfg, testClient())
	require.NoError(t, err)
	require.Len(t, srcs, 2)
	assert.Equal(t, "odds", srcs[0].Name())
	assert.Equal(t, "fixtures", srcs[1].Name())
}

func TestBuild_UnknownSource(t *testing.T) {
	cfg := config.Default()
	cfg.Sources.Enabled = []string{"carrier-pigeon"}

	_, err := Build(cfg, testClient())
	assert.ErrorIs(t, err, ErrUnknownSource)
}

func TestRegister_Duplicate(t *testing.T) {
	assert.Panics(t, func() {
		Register(FixturesSourceName, func(*config.Config, *HTTPClient) (Source, error) { return nil, nil })
	})
	assert.Equal(t, []string{"fixtures", "odds", "tips"}, AvailableNames())
}
