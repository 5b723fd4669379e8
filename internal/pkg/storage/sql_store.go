package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/Vodeneev/footytips/internal/pkg/config"
	"github.com/Vodeneev/footytips/internal/pkg/models"
)

// Ensure SQLStore implements Store
var _ Store = (*SQLStore)(nil)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// SQLStore stores signals, recommendations and predictions in PostgreSQL
// or SQLite. Queries are written with ? placeholders and rebound per driver.
type SQLStore struct {
	db     *sqlx.DB
	driver string
}

// Open opens the store selected by cfg.Storage.Driver.
func Open(ctx context.Context, cfg *config.Config) (*SQLStore, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		return OpenPostgres(ctx, cfg.Postgres.DSN)
	case "sqlite":
		return OpenSQLite(ctx, cfg.Storage.SQLitePath)
	}
	return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
}

// OpenPostgres connects to PostgreSQL and creates the schema.
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	return newSQLStore(ctx, db, "postgres")
}

// OpenSQLite opens (or creates) a SQLite database. ":memory:" is supported.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// Single writer; also keeps ":memory:" on one connection.
	db.SetMaxOpenConns(1)
	if path != ":memory:" {
		if _, err := db.ExecContext(ctx, `PRAGMA journal_mode=WAL`); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set WAL mode: %w", err)
		}
	}
	return newSQLStore(ctx, db, "sqlite")
}

func newSQLStore(ctx context.Context, db *sqlx.DB, driver string) (*SQLStore, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", driver, err)
	}

	s := &SQLStore{db: db, driver: driver}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("Storage initialized", "driver", driver)
	return s, nil
}

func (s *SQLStore) initSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS recommendations (
			match_id         TEXT PRIMARY KEY,
			id               TEXT NOT NULL,
			kickoff          BIGINT NOT NULL,
			home_team        TEXT NOT NULL,
			away_team        TEXT NOT NULL,
			league           TEXT NOT NULL DEFAULT '',
			recommended_side TEXT NOT NULL,
			bet_type         TEXT NOT NULL,
			confidence       INTEGER NOT NULL,
			category         TEXT NOT NULL,
			form_score       DOUBLE PRECISION NOT NULL,
			home_away_score  DOUBLE PRECISION NOT NULL,
			h2h_score        DOUBLE PRECISION NOT NULL,
			injury_score     DOUBLE PRECISION NOT NULL,
			league_score     DOUBLE PRECISION NOT NULL,
			odds             DOUBLE PRECISION NOT NULL DEFAULT 0,
			bookmaker        TEXT NOT NULL DEFAULT '',
			reasoning        TEXT NOT NULL,
			key_factors      TEXT NOT NULL DEFAULT '[]',
			created_at       BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_recommendations_kickoff ON recommendations(kickoff)`,
		`CREATE TABLE IF NOT EXISTS predictions (
			match_id      TEXT PRIMARY KEY,
			kickoff       BIGINT NOT NULL,
			home_team     TEXT NOT NULL,
			away_team     TEXT NOT NULL,
			has_value_bet INTEGER NOT NULL DEFAULT 0,
			payload       TEXT NOT NULL,
			created_at    BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_kickoff ON predictions(kickoff)`,
		`CREATE TABLE IF NOT EXISTS team_signals (
			team             TEXT PRIMARY KEY,
			form_percentage  DOUBLE PRECISION NOT NULL,
			home_win_rate    DOUBLE PRECISION NOT NULL,
			away_loss_rate   DOUBLE PRECISION NOT NULL,
			goals_scored_avg DOUBLE PRECISION NOT NULL,
			league_position  INTEGER NOT NULL DEFAULT 0,
			league_size      INTEGER NOT NULL DEFAULT 0,
			updated_at       BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS head_to_head (
			home_team  TEXT NOT NULL,
			away_team  TEXT NOT NULL,
			played_at  BIGINT NOT NULL,
			home_goals INTEGER NOT NULL,
			away_goals INTEGER NOT NULL,
			PRIMARY KEY (home_team, away_team, played_at)
		)`,
		`CREATE TABLE IF NOT EXISTS injuries (
			team     TEXT NOT NULL,
			player   TEXT NOT NULL,
			severity TEXT NOT NULL,
			PRIMARY KEY (team, player)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Driver returns "postgres" or "sqlite".
func (s *SQLStore) Driver() string {
	return s.driver
}

// Ping checks the connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

type recommendationRow struct {
	MatchID         string  `db:"match_id"`
	ID              string  `db:"id"`
	Kickoff         int64   `db:"kickoff"`
	HomeTeam        string  `db:"home_team"`
	AwayTeam        string  `db:"away_team"`
	League          string  `db:"league"`
	RecommendedSide string  `db:"recommended_side"`
	BetType         string  `db:"bet_type"`
	Confidence      int     `db:"confidence"`
	Category        string  `db:"category"`
	FormScore       float64 `db:"form_score"`
	HomeAwayScore   float64 `db:"home_away_score"`
	H2HScore        float64 `db:"h2h_score"`
	InjuryScore     float64 `db:"injury_score"`
	LeagueScore     float64 `db:"league_score"`
	Odds            float64 `db:"odds"`
	Bookmaker       string  `db:"bookmaker"`
	Reasoning       string  `db:"reasoning"`
	KeyFactors      string  `db:"key_factors"`
	CreatedAt       int64   `db:"created_at"`
}

func (r recommendationRow) toModel() (models.Recommendation, error) {
	rec := models.Recommendation{
		ID:              r.ID,
		MatchID:         r.MatchID,
		Kickoff:         time.Unix(r.Kickoff, 0).UTC(),
		HomeTeam:        r.HomeTeam,
		AwayTeam:        r.AwayTeam,
		League:          r.League,
		RecommendedSide: r.RecommendedSide,
		BetType:         models.BetType(r.BetType),
		Confidence:      r.Confidence,
		Category:        models.Category(r.Category),
		Scores: models.FactorScores{
			Form:       r.FormScore,
			HomeAway:   r.HomeAwayScore,
			HeadToHead: r.H2HScore,
			Injury:     r.InjuryScore,
			League:     r.LeagueScore,
		},
		Odds:      r.Odds,
		Bookmaker: r.Bookmaker,
		Reasoning: r.Reasoning,
		CreatedAt: time.Unix(r.CreatedAt, 0).UTC(),
	}
	if err := json.Unmarshal([]byte(r.KeyFactors), &rec.KeyFactors); err != nil {
		return rec, fmt.Errorf("failed to decode key factors for %s: %w", r.MatchID, err)
	}
	return rec, nil
}

// UpsertRecommendation stores the recommendation, replacing any earlier one
// for the same match.
func (s *SQLStore) UpsertRecommendation(ctx context.Context, rec *models.Recommendation) error {
	factors, err := json.Marshal(rec.KeyFactors)
	if err != nil {
		return fmt.Errorf("failed to encode key factors: %w", err)
	}

	query := s.db.Rebind(`
	INSERT INTO recommendations (
		match_id, id, kickoff, home_team, away_team, league,
		recommended_side, bet_type, confidence, category,
		form_score, home_away_score, h2h_score, injury_score, league_score,
		odds, bookmaker, reasoning, key_factors, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (match_id) DO UPDATE SET
		id = excluded.id,
		kickoff = excluded.kickoff,
		home_team = excluded.home_team,
		away_team = excluded.away_team,
		league = excluded.league,
		recommended_side = excluded.recommended_side,
		bet_type = excluded.bet_type,
		confidence = excluded.confidence,
		category = excluded.category,
		form_score = excluded.form_score,
		home_away_score = excluded.home_away_score,
		h2h_score = excluded.h2h_score,
		injury_score = excluded.injury_score,
		league_score = excluded.league_score,
		odds = excluded.odds,
		bookmaker = excluded.bookmaker,
		reasoning = excluded.reasoning,
		key_factors = excluded.key_factors,
		created_at = excluded.created_at
	`)

	_, err = s.db.ExecContext(ctx, query,
		rec.MatchID, rec.ID, rec.Kickoff.Unix(), rec.HomeTeam, rec.AwayTeam, rec.League,
		rec.RecommendedSide, string(rec.BetType), rec.Confidence, string(rec.Category),
		rec.Scores.Form, rec.Scores.HomeAway, rec.Scores.HeadToHead, rec.Scores.Injury, rec.Scores.League,
		rec.Odds, rec.Bookmaker, rec.Reasoning, string(factors), rec.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert recommendation: %w", err)
	}
	return nil
}

// DeleteRecommendation removes the recommendation for a match, if any.
func (s *SQLStore) DeleteRecommendation(ctx context.Context, matchID string) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM recommendations WHERE match_id = ?`), matchID); err != nil {
		return fmt.Errorf("failed to delete recommendation: %w", err)
	}
	return nil
}

// GetRecommendation returns the stored recommendation for a match.
func (s *SQLStore) GetRecommendation(ctx context.Context, matchID string) (*models.Recommendation, error) {
	var row recommendationRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT * FROM recommendations WHERE match_id = ?`), matchID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recommendation: %w", err)
	}
	rec, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListRecommendations returns recommendations ordered by confidence.
func (s *SQLStore) ListRecommendations(ctx context.Context, f models.RecommendationFilter) ([]models.Recommendation, error) {
	query := `SELECT * FROM recommendations WHERE confidence >= ?`
	args := []any{f.MinConfidence}
	if !f.Date.IsZero() {
		start, end := dayBounds(f.Date)
		query += ` AND kickoff >= ? AND kickoff < ?`
		args = append(args, start, end)
	}
	if f.Category != "" {
		query += ` AND category = ?`
		args = append(args, string(f.Category))
	}
	query += ` ORDER BY confidence DESC, kickoff ASC, match_id ASC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	var rows []recommendationRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}

	out := make([]models.Recommendation, 0, len(rows))
	for _, r := range rows {
		rec, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// UpsertPrediction stores a value-mode prediction as a JSON payload.
func (s *SQLStore) UpsertPrediction(ctx context.Context, p *models.PredictionResult) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode prediction: %w", err)
	}
	hasValueBet := 0
	if p.ValueBet != nil {
		hasValueBet = 1
	}

	query := s.db.Rebind(`
	INSERT INTO predictions (match_id, kickoff, home_team, away_team, has_value_bet, payload, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (match_id) DO UPDATE SET
		kickoff = excluded.kickoff,
		home_team = excluded.home_team,
		away_team = excluded.away_team,
		has_value_bet = excluded.has_value_bet,
		payload = excluded.payload,
		created_at = excluded.created_at
	`)
	_, err = s.db.ExecContext(ctx, query,
		p.MatchID, p.Kickoff.Unix(), p.HomeTeam, p.AwayTeam, hasValueBet, string(payload), p.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert prediction: %w", err)
	}
	return nil
}

// ListPredictions returns the day's predictions ordered by kickoff.
func (s *SQLStore) ListPredictions(ctx context.Context, day time.Time, limit int) ([]models.PredictionResult, error) {
	start, end := dayBounds(day)
	query := `SELECT payload FROM predictions WHERE kickoff >= ? AND kickoff < ? ORDER BY kickoff ASC, match_id ASC`
	args := []any{start, end}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var payloads []string
	if err := s.db.SelectContext(ctx, &payloads, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}

	out := make([]models.PredictionResult, 0, len(payloads))
	for _, raw := range payloads {
		var p models.PredictionResult
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("failed to decode prediction: %w", err)
		}
		out = append(out, p)
	}
	return out, nil
}

type teamSignalsRow struct {
	models.TeamSignals
	UpdatedAt int64 `db:"updated_at"`
}

// TeamSignals returns the stored signals of a team.
func (s *SQLStore) TeamSignals(ctx context.Context, team string) (*models.TeamSignals, error) {
	var row teamSignalsRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT * FROM team_signals WHERE team = ?`), team)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team signals: %w", err)
	}
	out := row.TeamSignals
	out.UpdatedAt = time.Unix(row.UpdatedAt, 0).UTC()
	return &out, nil
}

// UpsertTeamSignals stores the signals of a team.
func (s *SQLStore) UpsertTeamSignals(ctx context.Context, ts models.TeamSignals) error {
	updated := ts.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	query := s.db.Rebind(`
	INSERT INTO team_signals (team, form_percentage, home_win_rate, away_loss_rate, goals_scored_avg, league_position, league_size, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (team) DO UPDATE SET
		form_percentage = excluded.form_percentage,
		home_win_rate = excluded.home_win_rate,
		away_loss_rate = excluded.away_loss_rate,
		goals_scored_avg = excluded.goals_scored_avg,
		league_position = excluded.league_position,
		league_size = excluded.league_size,
		updated_at = excluded.updated_at
	`)
	_, err := s.db.ExecContext(ctx, query,
		ts.Team, ts.FormPercentage, ts.HomeWinRate, ts.AwayLossRate, ts.GoalsScoredAvg,
		ts.LeaguePosition, ts.LeagueSize, updated.Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert team signals: %w", err)
	}
	return nil
}

type headToHeadRow struct {
	HomeTeam  string `db:"home_team"`
	AwayTeam  string `db:"away_team"`
	PlayedAt  int64  `db:"played_at"`
	HomeGoals int    `db:"home_goals"`
	AwayGoals int    `db:"away_goals"`
}

// HeadToHead returns up to the last 10 meetings of the two teams.
func (s *SQLStore) HeadToHead(ctx context.Context, home, away string) ([]models.HeadToHeadRecord, error) {
	query := s.db.Rebind(`
	SELECT home_team, away_team, played_at, home_goals, away_goals
	FROM head_to_head
	WHERE (home_team = ? AND away_team = ?) OR (home_team = ? AND away_team = ?)
	ORDER BY played_at DESC
	LIMIT 10
	`)
	var rows []headToHeadRow
	if err := s.db.SelectContext(ctx, &rows, query, home, away, away, home); err != nil {
		return nil, fmt.Errorf("failed to query head to head: %w", err)
	}

	out := make([]models.HeadToHeadRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.HeadToHeadRecord{
			Date:      time.Unix(r.PlayedAt, 0).UTC(),
			HomeTeam:  r.HomeTeam,
			AwayTeam:  r.AwayTeam,
			HomeGoals: r.HomeGoals,
			AwayGoals: r.AwayGoals,
		})
	}
	return out, nil
}

// AddHeadToHead stores meetings; known ones are left untouched.
func (s *SQLStore) AddHeadToHead(ctx context.Context, records []models.HeadToHeadRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := tx.Rebind(`
	INSERT INTO head_to_head (home_team, away_team, played_at, home_goals, away_goals)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (home_team, away_team, played_at) DO NOTHING
	`)
	for _, r := range records {
		if _, err := tx.ExecContext(ctx, query, r.HomeTeam, r.AwayTeam, r.Date.Unix(), r.HomeGoals, r.AwayGoals); err != nil {
			return fmt.Errorf("failed to insert head to head: %w", err)
		}
	}
	return tx.Commit()
}

// Injuries returns the injury list of a team ordered by player.
func (s *SQLStore) Injuries(ctx context.Context, team string) ([]models.Injury, error) {
	var out []models.Injury
	query := s.db.Rebind(`SELECT team, player, severity FROM injuries WHERE team = ? ORDER BY player`)
	if err := s.db.SelectContext(ctx, &out, query, team); err != nil {
		return nil, fmt.Errorf("failed to query injuries: %w", err)
	}
	return out, nil
}

// ReplaceInjuries swaps a team's injury list atomically.
func (s *SQLStore) ReplaceInjuries(ctx context.Context, team string, injuries []models.Injury) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM injuries WHERE team = ?`), team); err != nil {
		return fmt.Errorf("failed to clear injuries: %w", err)
	}
	insert := tx.Rebind(`
	INSERT INTO injuries (team, player, severity) VALUES (?, ?, ?)
	ON CONFLICT (team, player) DO UPDATE SET severity = excluded.severity
	`)
	for _, inj := range injuries {
		if _, err := tx.ExecContext(ctx, insert, team, inj.Player, inj.Severity); err != nil {
			return fmt.Errorf("failed to insert injury: %w", err)
		}
	}
	return tx.Commit()
}

// dayBounds returns the unix range [start, end) of the UTC day containing t.
func dayBounds(t time.Time) (int64, int64) {
	y, m, d := t.UTC().Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return start.Unix(), start.Add(24 * time.Hour).Unix()
}
