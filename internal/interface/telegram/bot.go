// Package telegram runs the cup bot: it receives updates, records result
// messages posted in the cup chat and answers commands.
package telegram

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/alem-hub/wordle-cup/internal/application/command"
	"github.com/alem-hub/wordle-cup/internal/domain/cup"
	"github.com/alem-hub/wordle-cup/internal/domain/shared"
	tgclient "github.com/alem-hub/wordle-cup/internal/infrastructure/external/telegram"
	"github.com/alem-hub/wordle-cup/internal/interface/telegram/handler"
)

// ══════════════════════════════════════════════════════════════════════════════
// BOT CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// BotConfig contains configuration for the Telegram bot.
type BotConfig struct {
	// ChatID is the cup chat. Results posted elsewhere are ignored.
	ChatID int64

	// PollingTimeout is the timeout for long polling (in seconds).
	PollingTimeout int

	// MaxConcurrentUpdates limits concurrent update processing.
	MaxConcurrentUpdates int

	// GracefulShutdownTimeout is the timeout for graceful shutdown.
	GracefulShutdownTimeout time.Duration

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultBotConfig returns sensible defaults.
func DefaultBotConfig(chatID int64) BotConfig {
	return BotConfig{
		ChatID:                  chatID,
		PollingTimeout:          30,
		MaxConcurrentUpdates:    16,
		GracefulShutdownTimeout: 30 * time.Second,
		Logger:                  slog.Default(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// BOT DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// ScoreSubmitter records a result message.
type ScoreSubmitter interface {
	Handle(ctx context.Context, cmd command.RecordScoreCommand) (*command.RecordScoreResult, error)
}

// Replier sends command responses.
type Replier interface {
	Reply(ctx context.Context, ref cup.MessageRef, text string) error
	SendPhoto(ctx context.Context, chatID int64, name string, png []byte, caption string) error
}

// Updates is the update source.
type Updates interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

var (
	_ Replier = (*tgclient.Client)(nil)
	_ Updates = (tgclient.API)(nil)
)

// ══════════════════════════════════════════════════════════════════════════════
// BOT
// ══════════════════════════════════════════════════════════════════════════════

// Bot is the main Telegram bot controller.
type Bot struct {
	config  BotConfig
	updates Updates
	replier Replier
	router  *Router
	scores  ScoreSubmitter
	logger  *slog.Logger

	updateSem chan struct{}
	wg        sync.WaitGroup

	// resultMu serializes result messages; the stored attempt must be the
	// first one posted.
	resultMu sync.Mutex

	runningMu sync.Mutex
	running   bool
}

// NewBot creates a new Telegram bot.
func NewBot(config BotConfig, updates Updates, replier Replier, router *Router, scores ScoreSubmitter) *Bot {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.MaxConcurrentUpdates <= 0 {
		config.MaxConcurrentUpdates = 16
	}
	if config.GracefulShutdownTimeout <= 0 {
		config.GracefulShutdownTimeout = 30 * time.Second
	}
	return &Bot{
		config:    config,
		updates:   updates,
		replier:   replier,
		router:    router,
		scores:    scores,
		logger:    config.Logger.With("component", "telegram_bot"),
		updateSem: make(chan struct{}, config.MaxConcurrentUpdates),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE MANAGEMENT
// ══════════════════════════════════════════════════════════════════════════════

// Start long-polls for updates until ctx is cancelled, then waits for
// in-flight updates up to GracefulShutdownTimeout.
func (b *Bot) Start(ctx context.Context) error {
	b.runningMu.Lock()
	if b.running {
		b.runningMu.Unlock()
		return errors.New("bot is already running")
	}
	b.running = true
	b.runningMu.Unlock()

	defer func() {
		b.runningMu.Lock()
		b.running = false
		b.runningMu.Unlock()
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.config.PollingTimeout
	u.AllowedUpdates = []string{"message"}
	ch := b.updates.GetUpdatesChan(u)

	b.logger.Info("starting long polling", "chat_id", b.config.ChatID)

	for {
		select {
		case <-ctx.Done():
			b.updates.StopReceivingUpdates()
			b.waitInFlight()
			return nil
		case update, ok := <-ch:
			if !ok {
				b.waitInFlight()
				return nil
			}
			// Results are recorded inline, in arrival order. Commands fan out.
			if msg, ok := b.resultMessage(update); ok {
				b.recordResult(ctx, msg)
				continue
			}
			select {
			case b.updateSem <- struct{}{}:
			case <-ctx.Done():
				continue
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				defer func() { <-b.updateSem }()
				b.HandleUpdate(ctx, update)
			}()
		}
	}
}

func (b *Bot) waitInFlight() {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		b.logger.Info("all handlers completed gracefully")
	case <-time.After(b.config.GracefulShutdownTimeout):
		b.logger.Warn("graceful shutdown timeout exceeded")
	}
}

// IsRunning returns whether the bot is currently polling.
func (b *Bot) IsRunning() bool {
	b.runningMu.Lock()
	defer b.runningMu.Unlock()
	return b.running
}

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE HANDLING
// ══════════════════════════════════════════════════════════════════════════════

// HandleUpdate processes one update. It is also the entry point for
// webhook delivery.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if msg, ok := b.resultMessage(update); ok {
		b.recordResult(ctx, msg)
		return
	}

	msg := update.Message
	if msg == nil || msg.From == nil || msg.From.IsBot || !msg.IsCommand() {
		return
	}
	b.handleCommand(ctx, msg)
}

// resultMessage reports whether the update is a result posted in the cup chat.
func (b *Bot) resultMessage(update tgbotapi.Update) (*tgbotapi.Message, bool) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.From.IsBot || msg.IsCommand() {
		return nil, false
	}
	if msg.Chat == nil || msg.Chat.ID != b.config.ChatID || !cup.LooksLikeResult(msg.Text) {
		return nil, false
	}
	return msg, true
}

func (b *Bot) recordResult(ctx context.Context, msg *tgbotapi.Message) {
	b.resultMu.Lock()
	defer b.resultMu.Unlock()

	cmd := command.RecordScoreCommand{
		Text:        msg.Text,
		Player:      cup.PlayerID(msg.From.ID),
		DisplayName: displayName(msg.From),
		Source:      cup.MessageRef{ChatID: msg.Chat.ID, MessageID: int64(msg.MessageID)},
		SentAt:      msg.Time(),
	}

	res, err := b.scores.Handle(ctx, cmd)
	switch {
	case shared.IsValidation(err):
		b.logger.Debug("ignored result message", "message_id", msg.MessageID, "error", err)
	case err != nil:
		b.logger.Error("failed to record result", "message_id", msg.MessageID, "telegram_id", msg.From.ID, "error", err)
	case !res.Inserted:
		b.logger.Debug("duplicate result", "period", int64(res.Record.Period), "telegram_id", msg.From.ID)
	default:
		b.logger.Info("result recorded",
			"period", int64(res.Record.Period),
			"telegram_id", msg.From.ID,
			"guess", res.Record.Guess.String(),
			"high_score_changed", res.HighScoreChanged,
		)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	ref := cup.MessageRef{MessageID: int64(msg.MessageID)}
	if msg.Chat != nil {
		ref.ChatID = msg.Chat.ID
	}
	req := handler.Request{
		Source:      ref,
		From:        cup.PlayerID(msg.From.ID),
		DisplayName: displayName(msg.From),
		Args:        msg.CommandArguments(),
		SentAt:      msg.Time(),
	}

	resp, err := b.router.Handle(ctx, msg.Command(), req)
	if err != nil {
		b.logger.Warn("command returned error", "command", msg.Command(), "error", err)
	}
	if resp == nil {
		return
	}

	if len(resp.Photo) > 0 {
		err = b.replier.SendPhoto(ctx, ref.ChatID, resp.PhotoName, resp.Photo, resp.Text)
	} else {
		err = b.replier.Reply(ctx, ref, resp.Text)
	}
	if err != nil {
		b.logger.Error("failed to send response", "command", msg.Command(), "error", err)
	}
}

// displayName prefers the first name, as the chat shows it.
func displayName(u *tgbotapi.User) string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.UserName
	}
}
