package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/alem-hub/wordle-cup/internal/application/query"
	"github.com/alem-hub/wordle-cup/internal/domain/cup"
	"github.com/alem-hub/wordle-cup/internal/domain/leaderboard"
	"github.com/alem-hub/wordle-cup/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// STANDINGS HANDLER
// /stallning [när] shows a cup table, /total the all-time table.
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardSource computes standings.
type LeaderboardSource interface {
	Handle(ctx context.Context, q query.GetLeaderboardQuery) (*query.GetLeaderboardResult, error)
}

// StandingsHandler handles /stallning and /total.
type StandingsHandler struct {
	source   LeaderboardSource
	location *time.Location
	limit    int
	parser   *when.Parser
}

// NewStandingsHandler creates the handler. limit caps the rows shown.
func NewStandingsHandler(source LeaderboardSource, loc *time.Location, limit int) *StandingsHandler {
	if loc == nil {
		loc = time.UTC
	}
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &StandingsHandler{source: source, location: loc, limit: limit, parser: w}
}

// WithoutDates makes /stallning accept only cup keys.
func (h *StandingsHandler) WithoutDates() *StandingsHandler {
	h.parser = nil
	return h
}

// Cup handles /stallning. Args may be a cup key ("2024-1") or a date
// expression; the cup containing that date is shown.
func (h *StandingsHandler) Cup(ctx context.Context, req Request) (*Response, error) {
	window, ok := h.windowFor(req.Args, req.SentAt)
	if !ok {
		return Text(fmt.Sprintf("Förstod inte %q. Prova t.ex. /stallning 2024-1 eller /stallning förra månaden.", strings.TrimSpace(req.Args))), nil
	}

	res, err := h.source.Handle(ctx, query.GetLeaderboardQuery{Window: window, Limit: h.limit})
	if err != nil {
		return nil, err
	}
	key, _ := cup.ParseCupKey(res.WindowName)
	return Text(presenter.Standings("Cupen "+key.Label(), res)), nil
}

// Total handles /total.
func (h *StandingsHandler) Total(ctx context.Context, _ Request) (*Response, error) {
	res, err := h.source.Handle(ctx, query.GetLeaderboardQuery{Window: leaderboard.AllTime(), Limit: h.limit})
	if err != nil {
		return nil, err
	}
	return Text(presenter.Standings("Totalt", res)), nil
}

// swedishPhrases maps common Swedish date words onto ones the English
// rules understand.
var swedishPhrases = strings.NewReplacer(
	"förra månaden", "1 month ago",
	"förra", "1 month ago",
	"igår", "yesterday",
	"idag", "today",
	"månader sedan", "months ago",
	"månad sedan", "month ago",
)

func (h *StandingsHandler) windowFor(args string, now time.Time) (leaderboard.Window, bool) {
	args = strings.TrimSpace(strings.ToLower(args))
	if args == "" {
		return leaderboard.CurrentCup(), true
	}
	if key, err := cup.ParseCupKey(args); err == nil {
		return leaderboard.ForCup(key), true
	}

	if h.parser == nil {
		return leaderboard.Window{}, false
	}
	if now.IsZero() {
		now = time.Now()
	}
	r, err := h.parser.Parse(swedishPhrases.Replace(args), now.In(h.location))
	if err != nil || r == nil {
		return leaderboard.Window{}, false
	}
	return leaderboard.ForCup(cup.KeyAt(r.Time, h.location)), true
}
