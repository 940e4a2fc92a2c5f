// Package telegram wraps the Telegram Bot API for the cup bot: it posts
// announcements, sets medal reactions on result messages, updates the
// channel description, and reads Telegram Desktop exports for replay.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/alem-hub/wordle-cup/internal/domain/cup"
	"github.com/alem-hub/wordle-cup/internal/infrastructure/metrics"
	"github.com/alem-hub/wordle-cup/pkg/circuitbreaker"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the Telegram client.
type ClientConfig struct {
	// ChatID is the group where results are posted.
	ChatID int64

	// RequestsPerSecond limits outbound API calls (default: 20).
	RequestsPerSecond float64

	// Burst is the limiter burst size (default: 5).
	Burst int

	// MaxRetryAfter caps how long a flood-wait response is honoured.
	MaxRetryAfter time.Duration

	// Breaker, when set, fails calls fast while Telegram is unreachable.
	Breaker *circuitbreaker.CircuitBreaker

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(chatID int64) ClientConfig {
	return ClientConfig{
		ChatID:            chatID,
		RequestsPerSecond: 20,
		Burst:             5,
		MaxRetryAfter:     30 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// API is the subset of *tgbotapi.BotAPI the client uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

var _ API = (*tgbotapi.BotAPI)(nil)

// Client sends rate-limited requests to one chat.
type Client struct {
	api           API
	chatID        int64
	limiter       *rate.Limiter
	maxRetryAfter time.Duration
	breaker       *circuitbreaker.CircuitBreaker
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

// NewBotAPI authorizes the token against Telegram.
func NewBotAPI(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize telegram bot: %w", err)
	}
	return api, nil
}

// NewClient creates a new Telegram client.
func NewClient(api API, config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = 20
	}
	if config.Burst <= 0 {
		config.Burst = 5
	}
	if config.MaxRetryAfter <= 0 {
		config.MaxRetryAfter = 30 * time.Second
	}
	return &Client{
		api:           api,
		chatID:        config.ChatID,
		limiter:       rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst),
		maxRetryAfter: config.MaxRetryAfter,
		breaker:       config.Breaker,
		logger:        config.Logger.With("component", "telegram_client"),
		metrics:       config.Metrics,
	}
}

// ChatID returns the chat the client posts to.
func (c *Client) ChatID() int64 {
	return c.chatID
}

// API returns the underlying bot API.
func (c *Client) API() API {
	return c.api
}

// ══════════════════════════════════════════════════════════════════════════════
// MESSAGES
// ══════════════════════════════════════════════════════════════════════════════

// SendText posts text to chatID.
func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	return c.do(ctx, "sendMessage", func() error {
		_, err := c.api.Send(tgbotapi.NewMessage(chatID, text))
		return err
	})
}

// Reply posts text as a reply to the given message.
func (c *Client) Reply(ctx context.Context, ref cup.MessageRef, text string) error {
	msg := tgbotapi.NewMessage(ref.ChatID, text)
	msg.ReplyToMessageID = int(ref.MessageID)
	return c.do(ctx, "sendMessage", func() error {
		_, err := c.api.Send(msg)
		return err
	})
}

// SendPhoto posts a PNG image with a caption.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, name string, png []byte, caption string) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: name, Bytes: png})
	photo.Caption = caption
	return c.do(ctx, "sendPhoto", func() error {
		_, err := c.api.Send(photo)
		return err
	})
}

// Announce posts text to the configured chat.
func (c *Client) Announce(ctx context.Context, text string) error {
	return c.SendText(ctx, c.chatID, text)
}

// SetTopic replaces the configured chat's description.
func (c *Client) SetTopic(ctx context.Context, text string) error {
	cfg := tgbotapi.SetChatDescriptionConfig{ChatID: c.chatID, Description: text}
	return c.do(ctx, "setChatDescription", func() error {
		_, err := c.api.Request(cfg)
		return err
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// REACTIONS
// setMessageReaction is newer than the library, so it goes through
// MakeRequest with hand-built params.
// ══════════════════════════════════════════════════════════════════════════════

type reactionType struct {
	Type  string `json:"type"`
	Emoji string `json:"emoji"`
}

// SetMarker replaces the bot's reaction on the message with marker.
func (c *Client) SetMarker(ctx context.Context, ref cup.MessageRef, marker string) error {
	return c.setReaction(ctx, ref, []reactionType{{Type: "emoji", Emoji: marker}})
}

// ClearMarker removes the bot's reaction from the message.
func (c *Client) ClearMarker(ctx context.Context, ref cup.MessageRef) error {
	return c.setReaction(ctx, ref, []reactionType{})
}

func (c *Client) setReaction(ctx context.Context, ref cup.MessageRef, reaction []reactionType) error {
	params := tgbotapi.Params{
		"chat_id":    strconv.FormatInt(ref.ChatID, 10),
		"message_id": strconv.FormatInt(ref.MessageID, 10),
	}
	if err := params.AddInterface("reaction", reaction); err != nil {
		return fmt.Errorf("failed to encode reaction: %w", err)
	}
	return c.do(ctx, "setMessageReaction", func() error {
		_, err := c.api.MakeRequest("setMessageReaction", params)
		return err
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// WEBHOOK
// setWebhook goes through MakeRequest as well: the library has no
// secret_token field.
// ══════════════════════════════════════════════════════════════════════════════

// SetWebhook points Telegram at url. Telegram echoes secret in the
// X-Telegram-Bot-Api-Secret-Token header of every update.
func (c *Client) SetWebhook(ctx context.Context, url, secret string) error {
	params := tgbotapi.Params{"url": url}
	params.AddNonEmpty("secret_token", secret)
	if err := params.AddInterface("allowed_updates", []string{"message"}); err != nil {
		return fmt.Errorf("failed to encode allowed updates: %w", err)
	}
	return c.do(ctx, "setWebhook", func() error {
		_, err := c.api.MakeRequest("setWebhook", params)
		return err
	})
}

// DeleteWebhook switches the bot back to getUpdates polling.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	return c.do(ctx, "deleteWebhook", func() error {
		_, err := c.api.Request(tgbotapi.DeleteWebhookConfig{})
		return err
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST EXECUTION
// ══════════════════════════════════════════════════════════════════════════════

// do waits for the limiter and runs call. A flood-wait response is retried
// once after the interval Telegram asks for.
func (c *Client) do(ctx context.Context, method string, call func() error) error {
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		err := c.attempt(ctx, call)
		if wait, ok := retryAfter(err); ok && wait <= c.maxRetryAfter {
			c.logger.Warn("telegram flood wait", "method", method, "retry_after", wait.String())
			select {
			case <-ctx.Done():
				err = ctx.Err()
			case <-time.After(wait):
				err = c.attempt(ctx, call)
			}
		}
		return err
	})
	c.metrics.ChatRequest(method, err)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	return nil
}

func (c *Client) attempt(ctx context.Context, call func() error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return call()
}

func retryAfter(err error) (time.Duration, bool) {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return time.Duration(apiErr.RetryAfter) * time.Second, true
	}
	return 0, false
}

// IsMessageGone reports whether Telegram rejected a call because the
// message no longer exists.
func IsMessageGone(err error) bool {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Code != 400 {
		return false
	}
	for _, s := range []string{"message to react not found", "message not found", "MESSAGE_ID_INVALID"} {
		if strings.Contains(apiErr.Message, s) {
			return true
		}
	}
	return false
}

// IsTransient reports whether err says something about Telegram's
// availability. Rejected requests (4xx other than 429) do not.
func IsTransient(err error) bool {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429 || apiErr.Code >= 500
	}
	return err != nil
}
