package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/alem-hub/wordle-cup/internal/domain/cup"
)

// ══════════════════════════════════════════════════════════════════════════════
// CUP STATE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CupStateRepository implements cup.CupStateStore for PostgreSQL.
type CupStateRepository struct {
	conn *Connection
}

// NewCupStateRepository creates a new CupStateRepository.
func NewCupStateRepository(conn *Connection) *CupStateRepository {
	return &CupStateRepository{conn: conn}
}

// HeldCupKey returns the key of the cup in progress.
func (r *CupStateRepository) HeldCupKey(ctx context.Context) (cup.CupKey, bool, error) {
	var key string
	err := r.conn.QueryRow(ctx, `SELECT cup_key FROM cup_state WHERE id = 1`).Scan(&key)
	if err != nil {
		if IsNoRows(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read cup state: %w", err)
	}
	return cup.CupKey(key), true, nil
}

// AdoptCupKey stores key unless a key is already held.
func (r *CupStateRepository) AdoptCupKey(ctx context.Context, key cup.CupKey) error {
	_, err := r.conn.Exec(ctx,
		`INSERT INTO cup_state (id, cup_key) VALUES (1, $1) ON CONFLICT (id) DO NOTHING`,
		key.String())
	if err != nil {
		return fmt.Errorf("failed to adopt cup key %s: %w", key, err)
	}
	return nil
}

// AdvanceCup moves the held key from one cup to the next and stores the
// result of the finished cup. The update is conditional on the held key,
// so concurrent callers race on the row lock and only one of them wins.
// The winner owns the result row: a stale row for the same cup is replaced.
func (r *CupStateRepository) AdvanceCup(ctx context.Context, from, to cup.CupKey, result cup.CupResult) (bool, error) {
	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE cup_state SET cup_key = $2, updated_at = NOW() WHERE id = 1 AND cup_key = $1`,
			from.String(), to.String())
		if err != nil {
			return fmt.Errorf("failed to advance cup state: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return errCupNotHeld
		}

		var winner interface{}
		if result.Winner != nil {
			winner = int64(*result.Winner)
		}
		closedAt := result.ClosedAt
		if closedAt.IsZero() {
			closedAt = time.Now().UTC()
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO cup_results (cup_key, winner_id, points, participants, closed_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (cup_key) DO UPDATE SET
				winner_id = EXCLUDED.winner_id,
				points = EXCLUDED.points,
				participants = EXCLUDED.participants,
				closed_at = EXCLUDED.closed_at
		`, result.Cup.String(), winner, result.Points, result.Participants, closedAt)
		if err != nil {
			return fmt.Errorf("failed to store cup result: %w", err)
		}
		return nil
	})
	if errors.Is(err, errCupNotHeld) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// errCupNotHeld rolls back a lost compare-and-swap.
var errCupNotHeld = errors.New("cup key is no longer held")

// CupResults returns finished cups, newest first. limit <= 0 returns all.
func (r *CupStateRepository) CupResults(ctx context.Context, limit int) ([]cup.CupResult, error) {
	var lim interface{}
	if limit > 0 {
		lim = limit
	}

	rows, err := r.conn.Query(ctx, `
		SELECT cup_key, winner_id, points, participants, closed_at
		FROM cup_results
		ORDER BY closed_at DESC,
			split_part(cup_key, '-', 1)::int DESC,
			split_part(cup_key, '-', 2)::int DESC
		LIMIT $1
	`, lim)
	if err != nil {
		return nil, fmt.Errorf("failed to list cup results: %w", err)
	}
	defer rows.Close()

	results := make([]cup.CupResult, 0)
	for rows.Next() {
		var (
			res    cup.CupResult
			key    string
			winner *int64
		)
		if err := rows.Scan(&key, &winner, &res.Points, &res.Participants, &res.ClosedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cup result: %w", err)
		}
		res.Cup = cup.CupKey(key)
		if winner != nil {
			id := cup.PlayerID(*winner)
			res.Winner = &id
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

var _ cup.CupStateStore = (*CupStateRepository)(nil)
