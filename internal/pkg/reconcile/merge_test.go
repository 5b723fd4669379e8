package reconcile

import (
	"testing"
	"time"

	"github.com/Vodeneev/footytips/internal/pkg/models"
)

var kickoff = time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

func fixturesFeed() []models.MatchRecord {
	return []models.MatchRecord{
		{
			Source:          "fixtures",
			Kickoff:         kickoff,
			League:          "Premier League",
			HomeTeam:        "Manchester United",
			AwayTeam:        "Liverpool FC",
			HomeForm:        []string{"W", "W", "D", "L", "W"},
			HomeGoalsScored: 9,
		},
	}
}

func TestMerge_FillsOnlyAbsentFields(t *testing.T) {
	secondary := []models.MatchRecord{
		{
			Source:            "odds",
			Kickoff:           kickoff.Add(time.Hour),
			League:            "EPL",
			HomeTeam:          "Man Utd",
			AwayTeam:          "Liverpool",
			HomeForm:          []string{"L", "L", "L", "L", "L"},
			AwayForm:          []string{"W", "D"},
			HomeGoalsScored:   2,
			AwayGoalsConceded: 4,
			Markets:           []models.BookmakerQuotes{{Bookmaker: "b1", Home: 2.5, Draw: 3.3, Away: 2.9}},
		},
	}

	out := Merge(fixturesFeed(), secondary)
	if len(out) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out))
	}
	got := out[0]

	if got.Source != "fixtures" || got.HomeTeam != "Manchester United" || got.AwayTeam != "Liverpool FC" {
		t.Errorf("identity fields must keep the primary spelling, got %+v", got)
	}
	if !got.Kickoff.Equal(kickoff) || got.League != "Premier League" {
		t.Errorf("present fields were overwritten: kickoff=%v league=%q", got.Kickoff, got.League)
	}
	if got.HomeForm[0] != "W" || got.HomeGoalsScored != 9 {
		t.Errorf("present form/goals were overwritten: %v %d", got.HomeForm, got.HomeGoalsScored)
	}
	if len(got.AwayForm) != 2 || got.AwayGoalsConceded != 4 {
		t.Errorf("absent fields were not filled: %v %d", got.AwayForm, got.AwayGoalsConceded)
	}
	if len(got.Markets) != 1 || got.Markets[0].Bookmaker != "b1" {
		t.Errorf("markets were not attached: %+v", got.Markets)
	}
}

func TestMerge_AppendsUnmatched(t *testing.T) {
	secondary := []models.MatchRecord{
		{Source: "odds", HomeTeam: "Arsenal", AwayTeam: "Chelsea", Kickoff: kickoff},
		// Home matches, away does not.
		{Source: "odds", HomeTeam: "Man Utd", AwayTeam: "Everton", Kickoff: kickoff},
	}
	out := Merge(fixturesFeed(), secondary)
	if len(out) != 3 {
		t.Fatalf("expected 3 records, got %d", len(out))
	}
	if out[1].HomeTeam != "Arsenal" || out[2].AwayTeam != "Everton" {
		t.Errorf("unexpected order: %+v", out)
	}
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	primary := fixturesFeed()
	secondary := []models.MatchRecord{
		{HomeTeam: "Manchester United", AwayTeam: "Liverpool", AwayForm: []string{"W"},
			Markets: []models.BookmakerQuotes{{Bookmaker: "b1", Home: 2, Draw: 3, Away: 4}}},
	}

	out := Merge(primary, secondary)
	out[0].HomeForm[0] = "X"
	out[0].Markets[0].Home = 9

	if primary[0].HomeForm[0] != "W" {
		t.Errorf("primary form was aliased")
	}
	if len(primary[0].AwayForm) != 0 || len(primary[0].Markets) != 0 {
		t.Errorf("primary record was mutated: %+v", primary[0])
	}
	if secondary[0].Markets[0].Home != 2 {
		t.Errorf("secondary markets were aliased")
	}
}

func TestMerge_MarketUnionKeepsFirstSeenBookmaker(t *testing.T) {
	primary := []models.MatchRecord{{
		HomeTeam: "Arsenal", AwayTeam: "Chelsea",
		Markets: []models.BookmakerQuotes{{Bookmaker: "b1", Home: 2.0, Draw: 3.4, Away: 3.9}},
	}}
	secondary := []models.MatchRecord{{
		HomeTeam: "Arsenal FC", AwayTeam: "Chelsea FC",
		Markets: []models.BookmakerQuotes{
			{Bookmaker: "b1", Home: 2.2, Draw: 3.2, Away: 3.5},
			{Bookmaker: "b2", Home: 2.1, Draw: 3.3, Away: 3.6},
		},
	}}

	out := Merge(primary, secondary)
	if len(out[0].Markets) != 2 {
		t.Fatalf("expected 2 bookmakers, got %d", len(out[0].Markets))
	}
	if out[0].Markets[0].Home != 2.0 {
		t.Errorf("known bookmaker prices were replaced: %+v", out[0].Markets[0])
	}
}

func TestAll_FoldsInPrecedenceOrderAndAssignsIDs(t *testing.T) {
	odds := []models.MatchRecord{{Source: "odds", HomeTeam: "Man Utd", AwayTeam: "Liverpool", League: "EPL",
		Markets: []models.BookmakerQuotes{{Bookmaker: "b1", Home: 2.5, Draw: 3.3, Away: 2.9}}}}
	tips := []models.MatchRecord{
		{Source: "tips", HomeTeam: "Manchester Utd", AwayTeam: "Liverpool", TipLabel: "Home Win", TipConfidence: 72},
		{Source: "tips", HomeTeam: "Leeds", AwayTeam: "Fulham", Kickoff: kickoff},
	}

	out := All(fixturesFeed(), odds, tips)
	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}
	if out[0].League != "Premier League" || out[0].TipLabel != "Home Win" || len(out[0].Markets) != 1 {
		t.Errorf("fold did not combine sources: %+v", out[0])
	}
	if out[0].ID != models.CanonicalMatchID("Manchester United", "Liverpool FC", kickoff) {
		t.Errorf("unexpected id %q", out[0].ID)
	}
	if out[1].ID != "leeds|fulham|2026-03-14T15:00:00Z" {
		t.Errorf("unexpected id %q", out[1].ID)
	}

	if got := All(); len(got) != 0 {
		t.Errorf("expected empty fold, got %d", len(got))
	}
}
