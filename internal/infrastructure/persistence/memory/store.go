// Package memory provides an in-process implementation of the cup stores.
// It backs tests and the single-binary mode that runs without Postgres.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/alem-hub/wordle-cup/internal/domain/cup"
)

type scoreKey struct {
	period cup.PeriodID
	player cup.PlayerID
}

// state is everything a transaction may touch. Transactions work on a
// clone and swap it in on commit.
type state struct {
	players map[cup.PlayerID]cup.Player
	periods map[cup.PeriodID]cup.HighScore
	scores  []cup.ScoreRecord
	byKey   map[scoreKey]int
	nextID  int64
}

func newState() *state {
	return &state{
		players: make(map[cup.PlayerID]cup.Player),
		periods: make(map[cup.PeriodID]cup.HighScore),
		byKey:   make(map[scoreKey]int),
		nextID:  1,
	}
}

func (s *state) clone() *state {
	c := &state{
		players: make(map[cup.PlayerID]cup.Player, len(s.players)),
		periods: make(map[cup.PeriodID]cup.HighScore, len(s.periods)),
		scores:  make([]cup.ScoreRecord, len(s.scores)),
		byKey:   make(map[scoreKey]int, len(s.byKey)),
		nextID:  s.nextID,
	}
	for k, v := range s.players {
		c.players[k] = v
	}
	for k, v := range s.periods {
		c.periods[k] = v
	}
	copy(c.scores, s.scores)
	for k, v := range s.byKey {
		c.byKey[k] = v
	}
	return c
}

// Store implements cup.ScoreStore and cup.CupStateStore.
type Store struct {
	mu    sync.RWMutex
	st    *state
	clock func() time.Time

	heldKey cup.CupKey
	results []cup.CupResult
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		st:    newState(),
		clock: time.Now,
	}
}

// WithClock overrides the clock used for RecordedAt defaults.
func (s *Store) WithClock(clock func() time.Time) *Store {
	s.clock = clock
	return s
}

// ══════════════════════════════════════════════════════════════════════════════
// TRANSACTIONS
// ══════════════════════════════════════════════════════════════════════════════

// WithinTx runs fn under the store's write lock. Changes are discarded
// when fn returns an error.
func (s *Store) WithinTx(ctx context.Context, fn func(tx cup.ScoreTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &storeTx{st: s.st.clone(), clock: s.clock}
	if err := fn(tx); err != nil {
		return err
	}
	s.st = tx.st
	return nil
}

type storeTx struct {
	st    *state
	clock func() time.Time
}

func (tx *storeTx) EnsurePlayer(_ context.Context, p cup.Player) error {
	if p.ID == 0 {
		return cup.ErrInvalidPlayer
	}
	existing, ok := tx.st.players[p.ID]
	if ok && p.DisplayName == "" {
		return nil
	}
	if ok {
		existing.DisplayName = p.DisplayName
		tx.st.players[p.ID] = existing
		return nil
	}
	tx.st.players[p.ID] = p
	return nil
}

func (tx *storeTx) EnsurePeriod(_ context.Context, period cup.PeriodID) error {
	if _, ok := tx.st.periods[period]; !ok {
		tx.st.periods[period] = cup.HighScore{Period: period}
	}
	return nil
}

func (tx *storeTx) RecordScore(_ context.Context, rec cup.ScoreRecord) (bool, error) {
	if _, ok := tx.st.periods[rec.Period]; !ok {
		return false, cup.ErrPrecursorMissing
	}
	if _, ok := tx.st.players[rec.Player]; !ok {
		return false, cup.ErrPlayerNotFound
	}
	key := scoreKey{period: rec.Period, player: rec.Player}
	if _, dup := tx.st.byKey[key]; dup {
		return false, nil
	}

	rec.ID = tx.st.nextID
	tx.st.nextID++
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = tx.clock()
	}
	tx.st.byKey[key] = len(tx.st.scores)
	tx.st.scores = append(tx.st.scores, rec)
	return true, nil
}

func (tx *storeTx) HighScore(_ context.Context, period cup.PeriodID) (cup.HighScore, error) {
	hs, ok := tx.st.periods[period]
	if !ok {
		return cup.HighScore{}, cup.ErrPeriodNotFound
	}
	return hs, nil
}

func (tx *storeTx) SaveHighScore(_ context.Context, hs cup.HighScore) error {
	if _, ok := tx.st.periods[hs.Period]; !ok {
		return cup.ErrPeriodNotFound
	}
	tx.st.periods[hs.Period] = hs
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// READS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Store) HighScore(_ context.Context, period cup.PeriodID) (cup.HighScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hs, ok := s.st.periods[period]
	if !ok {
		return cup.HighScore{}, cup.ErrPeriodNotFound
	}
	return hs, nil
}

func (s *Store) LatestPeriod(_ context.Context) (cup.PeriodID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.st.periods) == 0 {
		return 0, cup.ErrPeriodNotFound
	}
	var latest cup.PeriodID
	first := true
	for p := range s.st.periods {
		if first || p > latest {
			latest = p
			first = false
		}
	}
	return latest, nil
}

func (s *Store) ScoresForPeriod(_ context.Context, period cup.PeriodID) ([]cup.ScoreRecord, error) {
	return s.filter(func(r cup.ScoreRecord) bool { return r.Period == period }), nil
}

func (s *Store) PeriodResults(_ context.Context, period cup.PeriodID) (cup.HighScore, []cup.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hs, ok := s.st.periods[period]
	if !ok {
		return cup.HighScore{}, nil, cup.ErrPeriodNotFound
	}
	records := make([]cup.ScoreRecord, 0)
	for _, r := range s.st.scores {
		if r.Period == period {
			records = append(records, r)
		}
	}
	return hs, records, nil
}

func (s *Store) ScoresInCup(_ context.Context, key cup.CupKey) ([]cup.ScoreRecord, error) {
	return s.filter(func(r cup.ScoreRecord) bool { return r.Cup == key }), nil
}

func (s *Store) AllScores(_ context.Context) ([]cup.ScoreRecord, error) {
	return s.filter(func(cup.ScoreRecord) bool { return true }), nil
}

func (s *Store) PlayerScoresSince(_ context.Context, player cup.PlayerID, from cup.PeriodID) ([]cup.ScoreRecord, error) {
	out := s.filter(func(r cup.ScoreRecord) bool { return r.Player == player && r.Period >= from })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out, nil
}

func (s *Store) PlayerScoresInCup(_ context.Context, player cup.PlayerID, key cup.CupKey) ([]cup.ScoreRecord, error) {
	out := s.filter(func(r cup.ScoreRecord) bool { return r.Player == player && r.Cup == key })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out, nil
}

func (s *Store) Player(_ context.Context, id cup.PlayerID) (cup.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.st.players[id]
	if !ok {
		return cup.Player{}, cup.ErrPlayerNotFound
	}
	return p, nil
}

func (s *Store) Players(_ context.Context) ([]cup.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]cup.Player, 0, len(s.st.players))
	for _, p := range s.st.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) MedalTally(_ context.Context) (map[cup.PlayerID]cup.MedalCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tally := make(map[cup.PlayerID]cup.MedalCount)
	for _, r := range s.st.scores {
		hs, ok := s.st.periods[r.Period]
		if !ok {
			continue
		}
		if p := hs.PlacementOf(r.Guess); p.IsValid() {
			m := tally[r.Player]
			m.Add(p)
			tally[r.Player] = m
		}
	}
	return tally, nil
}

func (s *Store) filter(keep func(cup.ScoreRecord) bool) []cup.ScoreRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]cup.ScoreRecord, 0)
	for _, r := range s.st.scores {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// Reset removes all score records and high scores. Players and cup
// state survive.
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fresh := newState()
	fresh.players = s.st.players
	s.st = fresh
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CUP STATE
// ══════════════════════════════════════════════════════════════════════════════

func (s *Store) HeldCupKey(_ context.Context) (cup.CupKey, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.heldKey, !s.heldKey.IsZero(), nil
}

func (s *Store) AdoptCupKey(_ context.Context, key cup.CupKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.heldKey.IsZero() {
		s.heldKey = key
	}
	return nil
}

func (s *Store) AdvanceCup(_ context.Context, from, to cup.CupKey, result cup.CupResult) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.heldKey != from {
		return false, nil
	}
	if result.ClosedAt.IsZero() {
		result.ClosedAt = s.clock()
	}
	s.heldKey = to

	// A stale result for the same cup is replaced by the winner of the swap.
	for i, r := range s.results {
		if r.Cup == result.Cup {
			s.results = append(s.results[:i], s.results[i+1:]...)
			break
		}
	}
	s.results = append(s.results, result)
	return true, nil
}

func (s *Store) CupResults(_ context.Context, limit int) ([]cup.CupResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]cup.CupResult, 0, len(s.results))
	for i := len(s.results) - 1; i >= 0; i-- {
		out = append(out, s.results[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

var (
	_ cup.ScoreStore    = (*Store)(nil)
	_ cup.CupStateStore = (*Store)(nil)
)
