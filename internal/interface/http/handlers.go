package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/alem-hub/wordle-cup/internal/application/query"
	"github.com/alem-hub/wordle-cup/internal/domain/cup"
	"github.com/alem-hub/wordle-cup/internal/domain/leaderboard"
	"github.com/alem-hub/wordle-cup/internal/domain/shared"
	"github.com/alem-hub/wordle-cup/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SOURCES
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardSource is implemented by *query.GetLeaderboardHandler.
type LeaderboardSource interface {
	Handle(ctx context.Context, q query.GetLeaderboardQuery) (*query.GetLeaderboardResult, error)
}

// MedalistSource is implemented by *query.GetMedalistsHandler.
type MedalistSource interface {
	AllPlacements(ctx context.Context, period cup.PeriodID) ([]query.MedalResolution, error)
}

// HistorySource is implemented by *query.GetCupHistoryHandler.
type HistorySource interface {
	Handle(ctx context.Context, limit int) ([]query.CupHistoryEntry, error)
}

// StatsSource is implemented by *query.GetPlayerStatsHandler.
type StatsSource interface {
	Handle(ctx context.Context, id cup.PlayerID) (*query.PlayerStats, error)
}

// UpdateHandler is implemented by the Telegram bot.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update)
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH
// ══════════════════════════════════════════════════════════════════════════════

// handleHealth is the liveness check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// handleReady runs the registered checks.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := s.deps.Health.Check(r.Context())
	if !status.Healthy {
		writeJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// ══════════════════════════════════════════════════════════════════════════════
// API
// ══════════════════════════════════════════════════════════════════════════════

type leaderboardEntry struct {
	Rank        int    `json:"rank"`
	PlayerID    int64  `json:"player_id"`
	DisplayName string `json:"display_name"`
	Points      int    `json:"points"`
	Games       int    `json:"games"`
}

type leaderboardResponse struct {
	Window     string             `json:"window"`
	Entries    []leaderboardEntry `json:"entries"`
	TotalCount int                `json:"total_count"`
	ComputedAt time.Time          `json:"computed_at"`
}

// handleLeaderboard handles GET /api/v1/leaderboard?window=all|current|YYYY-M&limit=N
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	window, err := leaderboard.ParseWindow(r.URL.Query().Get("window"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_window", err.Error())
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil || limit < 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
		return
	}

	res, err := s.deps.Leaderboard.Handle(r.Context(), query.GetLeaderboardQuery{Window: window, Limit: limit})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := leaderboardResponse{
		Window:     res.WindowName,
		Entries:    make([]leaderboardEntry, 0, len(res.Entries)),
		TotalCount: res.TotalCount,
		ComputedAt: res.ComputedAt,
	}
	for _, e := range res.Entries {
		out.Entries = append(out.Entries, leaderboardEntry{
			Rank:        int(e.Rank),
			PlayerID:    int64(e.PlayerID),
			DisplayName: e.Name(),
			Points:      e.Points,
			Games:       e.Games,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type medalResponse struct {
	Placement string           `json:"placement"`
	Guess     string           `json:"guess"`
	Medalists []query.Medalist `json:"medalists"`
}

// handleMedalists handles GET /api/v1/periods/{id}/medalists
func (s *Server) handleMedalists(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid_period", "period must be a non-negative integer")
		return
	}

	all, err := s.deps.Medalists.AllPlacements(r.Context(), cup.PeriodID(id))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]medalResponse, 0, len(all))
	for _, m := range all {
		out = append(out, medalResponse{
			Placement: m.Placement.String(),
			Guess:     m.Guess.String(),
			Medalists: m.Medalists,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"period": id, "medals": out})
}

// handleCups handles GET /api/v1/cups?limit=N
func (s *Server) handleCups(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 24)
	if err != nil || limit <= 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
		return
	}
	entries, err := s.deps.History.Handle(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []query.CupHistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleStats handles GET /api/v1/players/{id}/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid_player", "player id must be a positive integer")
		return
	}
	stats, err := s.deps.Stats.Handle(r.Context(), cup.PlayerID(id))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ══════════════════════════════════════════════════════════════════════════════
// WEBHOOK
// ══════════════════════════════════════════════════════════════════════════════

const webhookSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// handleWebhook handles POST /webhook/telegram. Telegram retries non-2xx
// responses, so a malformed body is acknowledged after logging.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if s.config.WebhookSecret != "" && r.Header.Get(webhookSecretHeader) != s.config.WebhookSecret {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "invalid webhook secret")
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&update); err != nil {
		logger.FromContext(r.Context()).Warn("invalid webhook payload", logger.Err(err))
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx := context.WithoutCancel(r.Context())
	s.deps.Webhook.HandleUpdate(ctx, update)
	w.WriteHeader(http.StatusOK)
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// JSONResponse represents a standard JSON response.
type JSONResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(JSONResponse{Success: status >= 200 && status < 300, Data: data})
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(JSONResponse{Error: &APIError{Code: code, Message: message}})
}

// writeError maps domain errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeJSONError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		logger.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, logger.Err(err))
		writeJSONError(w, http.StatusInternalServerError, "internal_server_error", "An unexpected error occurred")
	}
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
