package telegram

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/alem-hub/wordle-cup/internal/interface/telegram/handler"
	"github.com/alem-hub/wordle-cup/internal/interface/telegram/middleware"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROUTER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	// Logger for structured logging.
	Logger *slog.Logger

	// RateLimit configures the per-user command limiter.
	RateLimit middleware.RateLimitConfig
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTER
// Maps command names to handlers. Every call goes through the rate limiter
// and panic recovery.
// ══════════════════════════════════════════════════════════════════════════════

// Router dispatches bot commands.
type Router struct {
	commands map[string]handler.Handler
	limiter  *middleware.RateLimiter
	logger   *slog.Logger
}

// NewRouter creates a new router.
func NewRouter(config RouterConfig) *Router {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Router{
		commands: make(map[string]handler.Handler),
		limiter:  middleware.NewRateLimiter(config.RateLimit),
		logger:   config.Logger.With("component", "telegram_router"),
	}
}

// RegisterCommand registers a handler for a command, without the slash.
func (r *Router) RegisterCommand(command string, h handler.Handler) {
	r.commands[strings.ToLower(command)] = h
}

// CommandHandlers are the handlers the bot serves.
type CommandHandlers struct {
	Standings *handler.StandingsHandler
	Daily     handler.Handler
	Stats     handler.Handler
	Cups      handler.Handler
}

// RegisterDefaults registers the standard command set. Nil handlers are
// skipped.
func (r *Router) RegisterDefaults(h CommandHandlers) {
	if h.Standings != nil {
		r.RegisterCommand("stallning", handler.HandlerFunc(h.Standings.Cup))
		r.RegisterCommand("total", handler.HandlerFunc(h.Standings.Total))
	}
	if h.Daily != nil {
		r.RegisterCommand("dagens", h.Daily)
	}
	if h.Stats != nil {
		r.RegisterCommand("stats", h.Stats)
	}
	if h.Cups != nil {
		r.RegisterCommand("cuper", h.Cups)
	}
	r.RegisterCommand("start", handler.HandlerFunc(handler.Help))
	r.RegisterCommand("hjalp", handler.HandlerFunc(handler.Help))
}

// Handle routes a command. Unknown commands return a nil response so the
// bot stays quiet in a busy group. A failing handler yields a generic
// error response together with the error.
func (r *Router) Handle(ctx context.Context, command string, req handler.Request) (*handler.Response, error) {
	command = strings.ToLower(command)
	h, ok := r.commands[command]
	if !ok {
		r.logger.Debug("unknown command", "command", command)
		return nil, nil
	}

	if res := r.limiter.Check(int64(req.From)); !res.Allowed {
		r.logger.Debug("command rate limited", "command", command, "telegram_id", int64(req.From))
		return handler.Text(res.Message()), nil
	}

	var resp *handler.Response
	err := middleware.Recover(r.logger, command, int64(req.From), func() error {
		var err error
		resp, err = h.Handle(ctx, req)
		return err
	})
	if err != nil {
		var pe *middleware.PanicError
		if !errors.As(err, &pe) {
			r.logger.Error("command failed", "command", command, "error", err)
		}
		return handler.Text(middleware.UserErrorMessage), err
	}
	return resp, nil
}

// GetRegisteredCommands returns registered command names, sorted.
func (r *Router) GetRegisteredCommands() []string {
	out := make([]string, 0, len(r.commands))
	for c := range r.commands {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
