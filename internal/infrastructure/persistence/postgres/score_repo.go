package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/alem-hub/wordle-cup/internal/domain/cup"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCORE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ScoreRepository implements cup.ScoreStore for PostgreSQL.
type ScoreRepository struct {
	conn *Connection
}

// NewScoreRepository creates a new ScoreRepository.
func NewScoreRepository(conn *Connection) *ScoreRepository {
	return &ScoreRepository{conn: conn}
}

const scoreColumns = `id, period_id, player_id, guess, cup_key, chat_id, message_id, recorded_at`

// ─────────────────────────────────────────────────────────────────────────────
// Transactions
// ─────────────────────────────────────────────────────────────────────────────

// WithinTx runs fn in a read-committed transaction. The high score row
// read through the transaction is locked until commit.
func (r *ScoreRepository) WithinTx(ctx context.Context, fn func(tx cup.ScoreTx) error) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		return fn(&scoreTx{q: tx})
	})
}

type scoreTx struct {
	q Querier
}

func (t *scoreTx) EnsurePlayer(ctx context.Context, p cup.Player) error {
	if p.ID == 0 {
		return cup.ErrInvalidPlayer
	}
	query := `
		INSERT INTO players (id, display_name)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET
			display_name = CASE WHEN EXCLUDED.display_name = '' THEN players.display_name ELSE EXCLUDED.display_name END,
			updated_at = NOW()
	`
	if _, err := t.q.Exec(ctx, query, int64(p.ID), p.DisplayName); err != nil {
		return fmt.Errorf("failed to ensure player %d: %w", p.ID, err)
	}
	return nil
}

func (t *scoreTx) EnsurePeriod(ctx context.Context, period cup.PeriodID) error {
	query := `INSERT INTO daily_high_scores (period_id) VALUES ($1) ON CONFLICT (period_id) DO NOTHING`
	if _, err := t.q.Exec(ctx, query, int64(period)); err != nil {
		return fmt.Errorf("failed to ensure period %d: %w", period, err)
	}
	return nil
}

func (t *scoreTx) RecordScore(ctx context.Context, rec cup.ScoreRecord) (bool, error) {
	var exists bool
	if err := t.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM daily_high_scores WHERE period_id = $1)`, int64(rec.Period)).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check period %d: %w", rec.Period, err)
	}
	if !exists {
		return false, cup.ErrPrecursorMissing
	}

	query := `
		INSERT INTO score_records (period_id, player_id, guess, cup_key, chat_id, message_id, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7::timestamptz, NOW()))
		ON CONFLICT (period_id, player_id) DO NOTHING
		RETURNING id
	`
	var recordedAt interface{}
	if !rec.RecordedAt.IsZero() {
		recordedAt = rec.RecordedAt
	}

	var id int64
	err := t.q.QueryRow(ctx, query,
		int64(rec.Period),
		int64(rec.Player),
		int16(rec.Guess),
		rec.Cup.String(),
		rec.Source.ChatID,
		rec.Source.MessageID,
		recordedAt,
	).Scan(&id)
	if err != nil {
		if IsNoRows(err) {
			return false, nil
		}
		if IsForeignKeyViolation(err) {
			return false, cup.ErrPlayerNotFound.WithDetail(err)
		}
		return false, fmt.Errorf("failed to record score: %w", err)
	}
	return true, nil
}

func (t *scoreTx) HighScore(ctx context.Context, period cup.PeriodID) (cup.HighScore, error) {
	query := `SELECT period_id, gold, silver, bronze FROM daily_high_scores WHERE period_id = $1 FOR UPDATE`
	return scanHighScore(t.q.QueryRow(ctx, query, int64(period)))
}

func (t *scoreTx) SaveHighScore(ctx context.Context, hs cup.HighScore) error {
	query := `
		UPDATE daily_high_scores
		SET gold = $2, silver = $3, bronze = $4, updated_at = NOW()
		WHERE period_id = $1
	`
	tag, err := t.q.Exec(ctx, query,
		int64(hs.Period),
		slotArg(hs.Gold()),
		slotArg(hs.Silver()),
		slotArg(hs.Bronze()),
	)
	if err != nil {
		return fmt.Errorf("failed to save high score for period %d: %w", hs.Period, err)
	}
	if tag.RowsAffected() == 0 {
		return cup.ErrPeriodNotFound
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Reads
// ─────────────────────────────────────────────────────────────────────────────

// HighScore returns the high score of a day.
func (r *ScoreRepository) HighScore(ctx context.Context, period cup.PeriodID) (cup.HighScore, error) {
	query := `SELECT period_id, gold, silver, bronze FROM daily_high_scores WHERE period_id = $1`
	return scanHighScore(r.conn.QueryRow(ctx, query, int64(period)))
}

// LatestPeriod returns the highest initialized day.
func (r *ScoreRepository) LatestPeriod(ctx context.Context) (cup.PeriodID, error) {
	var latest *int64
	if err := r.conn.QueryRow(ctx, `SELECT MAX(period_id) FROM daily_high_scores`).Scan(&latest); err != nil {
		return 0, fmt.Errorf("failed to get latest period: %w", err)
	}
	if latest == nil {
		return 0, cup.ErrPeriodNotFound
	}
	return cup.PeriodID(*latest), nil
}

const periodScoresQuery = `SELECT ` + scoreColumns + ` FROM score_records WHERE period_id = $1 ORDER BY id`

// ScoresForPeriod returns every score of a day in submission order.
func (r *ScoreRepository) ScoresForPeriod(ctx context.Context, period cup.PeriodID) ([]cup.ScoreRecord, error) {
	return r.queryRecords(ctx, periodScoresQuery, int64(period))
}

// PeriodResults reads a day's high score and its scores in one
// repeatable-read transaction, so both come from the same snapshot.
func (r *ScoreRepository) PeriodResults(ctx context.Context, period cup.PeriodID) (cup.HighScore, []cup.ScoreRecord, error) {
	var (
		hs      cup.HighScore
		records []cup.ScoreRecord
	)
	err := r.conn.WithTx(ctx, SnapshotTxOptions(), func(tx pgx.Tx) error {
		var err error
		hs, err = scanHighScore(tx.QueryRow(ctx,
			`SELECT period_id, gold, silver, bronze FROM daily_high_scores WHERE period_id = $1`, int64(period)))
		if err != nil {
			return err
		}
		rows, err := tx.Query(ctx, periodScoresQuery, int64(period))
		if err != nil {
			return fmt.Errorf("failed to query scores: %w", err)
		}
		records, err = scanRecords(rows)
		return err
	})
	if err != nil {
		return cup.HighScore{}, nil, err
	}
	return hs, records, nil
}

// ScoresInCup returns every score counted toward a cup.
func (r *ScoreRepository) ScoresInCup(ctx context.Context, key cup.CupKey) ([]cup.ScoreRecord, error) {
	return r.queryRecords(ctx, `SELECT `+scoreColumns+` FROM score_records WHERE cup_key = $1 ORDER BY id`, key.String())
}

// AllScores returns every score ever recorded.
func (r *ScoreRepository) AllScores(ctx context.Context) ([]cup.ScoreRecord, error) {
	return r.queryRecords(ctx, `SELECT `+scoreColumns+` FROM score_records ORDER BY id`)
}

// PlayerScoresSince returns a player's scores from day from onwards.
func (r *ScoreRepository) PlayerScoresSince(ctx context.Context, player cup.PlayerID, from cup.PeriodID) ([]cup.ScoreRecord, error) {
	return r.queryRecords(ctx,
		`SELECT `+scoreColumns+` FROM score_records WHERE player_id = $1 AND period_id >= $2 ORDER BY period_id`,
		int64(player), int64(from))
}

// PlayerScoresInCup returns a player's scores in a cup.
func (r *ScoreRepository) PlayerScoresInCup(ctx context.Context, player cup.PlayerID, key cup.CupKey) ([]cup.ScoreRecord, error) {
	return r.queryRecords(ctx,
		`SELECT `+scoreColumns+` FROM score_records WHERE player_id = $1 AND cup_key = $2 ORDER BY period_id`,
		int64(player), key.String())
}

// Player returns a player by id.
func (r *ScoreRepository) Player(ctx context.Context, id cup.PlayerID) (cup.Player, error) {
	var p cup.Player
	var pid int64
	err := r.conn.QueryRow(ctx, `SELECT id, display_name FROM players WHERE id = $1`, int64(id)).Scan(&pid, &p.DisplayName)
	if err != nil {
		if IsNoRows(err) {
			return cup.Player{}, cup.ErrPlayerNotFound
		}
		return cup.Player{}, fmt.Errorf("failed to get player %d: %w", id, err)
	}
	p.ID = cup.PlayerID(pid)
	return p, nil
}

// Players returns every known player ordered by id.
func (r *ScoreRepository) Players(ctx context.Context) ([]cup.Player, error) {
	rows, err := r.conn.Query(ctx, `SELECT id, display_name FROM players ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	players := make([]cup.Player, 0)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, cup.Player{ID: cup.PlayerID(id), DisplayName: name})
	}
	return players, rows.Err()
}

// MedalTally counts lifetime medals per player. A score earns a medal
// when it equals a slot of its own day's high score.
func (r *ScoreRepository) MedalTally(ctx context.Context) (map[cup.PlayerID]cup.MedalCount, error) {
	query := `
		SELECT s.player_id,
			COUNT(*) FILTER (WHERE s.guess = h.gold),
			COUNT(*) FILTER (WHERE s.guess = h.silver),
			COUNT(*) FILTER (WHERE s.guess = h.bronze)
		FROM score_records s
		JOIN daily_high_scores h ON h.period_id = s.period_id
		WHERE s.guess > 0
		GROUP BY s.player_id
	`
	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to tally medals: %w", err)
	}
	defer rows.Close()

	tally := make(map[cup.PlayerID]cup.MedalCount)
	for rows.Next() {
		var id int64
		var m cup.MedalCount
		if err := rows.Scan(&id, &m.Gold, &m.Silver, &m.Bronze); err != nil {
			return nil, fmt.Errorf("failed to scan medal tally: %w", err)
		}
		if m.Total() > 0 {
			tally[cup.PlayerID(id)] = m
		}
	}
	return tally, rows.Err()
}

// Reset removes all score records and daily high scores. Players and cup
// results are kept because cup_results references players.
func (r *ScoreRepository) Reset(ctx context.Context) error {
	if _, err := r.conn.Exec(ctx, `TRUNCATE score_records, daily_high_scores RESTART IDENTITY`); err != nil {
		return fmt.Errorf("failed to reset scores: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *ScoreRepository) queryRecords(ctx context.Context, query string, args ...interface{}) ([]cup.ScoreRecord, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scores: %w", err)
	}
	return scanRecords(rows)
}

func scanRecords(rows pgx.Rows) ([]cup.ScoreRecord, error) {
	defer rows.Close()

	records := make([]cup.ScoreRecord, 0)
	for rows.Next() {
		var (
			rec            cup.ScoreRecord
			period, player int64
			guess          int16
			key            string
		)
		if err := rows.Scan(&rec.ID, &period, &player, &guess, &key, &rec.Source.ChatID, &rec.Source.MessageID, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		rec.Period = cup.PeriodID(period)
		rec.Player = cup.PlayerID(player)
		rec.Guess = cup.GuessCount(guess)
		rec.Cup = cup.CupKey(key)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanHighScore(row pgx.Row) (cup.HighScore, error) {
	var period int64
	var gold, silver, bronze *int16
	if err := row.Scan(&period, &gold, &silver, &bronze); err != nil {
		if IsNoRows(err) {
			return cup.HighScore{}, cup.ErrPeriodNotFound
		}
		return cup.HighScore{}, fmt.Errorf("failed to scan high score: %w", err)
	}
	return cup.NewHighScore(cup.PeriodID(period), slotValue(gold), slotValue(silver), slotValue(bronze)), nil
}

func slotValue(v *int16) cup.GuessCount {
	if v == nil {
		return 0
	}
	return cup.GuessCount(*v)
}

func slotArg(v cup.GuessCount, ok bool) interface{} {
	if !ok {
		return nil
	}
	return int16(v)
}

var _ cup.ScoreStore = (*ScoreRepository)(nil)
