package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/wordle-cup/internal/domain/cup"
	"github.com/alem-hub/wordle-cup/pkg/circuitbreaker"
)

type rawRequest struct {
	endpoint string
	params   tgbotapi.Params
}

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	raw      []rawRequest
	errs     []error
}

func (f *fakeAPI) nextErr() error {
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.nextErr(); err != nil {
		return tgbotapi.Message{}, err
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.nextErr(); err != nil {
		return nil, err
	}
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.nextErr(); err != nil {
		return nil, err
	}
	f.raw = append(f.raw, rawRequest{endpoint: endpoint, params: params})
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return make(chan tgbotapi.Update)
}

func (f *fakeAPI) StopReceivingUpdates() {}

func newTestClient(api API) *Client {
	cfg := DefaultClientConfig(-100123)
	cfg.RequestsPerSecond = 1000
	cfg.MaxRetryAfter = 2 * time.Second
	return NewClient(api, cfg)
}

var ref = cup.MessageRef{ChatID: -100123, MessageID: 42}

func TestClient_SetMarker(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(api)

	require.NoError(t, c.SetMarker(context.Background(), ref, "🥇"))
	require.NoError(t, c.ClearMarker(context.Background(), ref))

	require.Len(t, api.raw, 2)
	assert.Equal(t, "setMessageReaction", api.raw[0].endpoint)
	assert.Equal(t, "-100123", api.raw[0].params["chat_id"])
	assert.Equal(t, "42", api.raw[0].params["message_id"])
	assert.JSONEq(t, `[{"type":"emoji","emoji":"🥇"}]`, api.raw[0].params["reaction"])
	assert.JSONEq(t, `[]`, api.raw[1].params["reaction"])
}

func TestClient_AnnounceAndTopic(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(api)

	require.NoError(t, c.Announce(context.Background(), "Grattis!"))
	require.NoError(t, c.SetTopic(context.Background(), "Dagens ledare: Anna"))

	require.Len(t, api.sent, 1)
	msg, ok := api.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(-100123), msg.ChatID)
	assert.Equal(t, "Grattis!", msg.Text)

	require.Len(t, api.requests, 1)
	desc, ok := api.requests[0].(tgbotapi.SetChatDescriptionConfig)
	require.True(t, ok)
	assert.Equal(t, "Dagens ledare: Anna", desc.Description)
}

func TestClient_Reply(t *testing.T) {
	api := &fakeAPI{}
	require.NoError(t, newTestClient(api).Reply(context.Background(), ref, "ok"))
	msg := api.sent[0].(tgbotapi.MessageConfig)
	assert.Equal(t, 42, msg.ReplyToMessageID)
}

func TestClient_FloodWaitIsRetried(t *testing.T) {
	flood := &tgbotapi.Error{Code: 429, Message: "Too Many Requests", ResponseParameters: tgbotapi.ResponseParameters{RetryAfter: 1}}
	api := &fakeAPI{errs: []error{flood}}

	require.NoError(t, newTestClient(api).SetMarker(context.Background(), ref, "🥈"))
	assert.Len(t, api.raw, 1)
}

func TestClient_LongFloodWaitFails(t *testing.T) {
	flood := &tgbotapi.Error{Code: 429, Message: "Too Many Requests", ResponseParameters: tgbotapi.ResponseParameters{RetryAfter: 60}}
	api := &fakeAPI{errs: []error{flood}}

	err := newTestClient(api).Announce(context.Background(), "hej")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram sendMessage")
	assert.Empty(t, api.sent)
}

func TestClient_BreakerOpensOnOutage(t *testing.T) {
	down := &tgbotapi.Error{Code: 502, Message: "Bad Gateway"}
	gone := &tgbotapi.Error{Code: 400, Message: "Bad Request: message to react not found"}
	api := &fakeAPI{errs: []error{gone, gone, down, down}}

	cfg := DefaultClientConfig(-100123)
	cfg.RequestsPerSecond = 1000
	cfg.Breaker = circuitbreaker.New("telegram-api", circuitbreaker.WithFailureThreshold(2), circuitbreaker.WithIsFailure(IsTransient))
	c := NewClient(api, cfg)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		assert.Error(t, c.SetMarker(ctx, ref, "🥇"))
	}
	assert.Equal(t, circuitbreaker.StateOpen, cfg.Breaker.State())

	err := c.SetMarker(ctx, ref, "🥇")
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
	assert.Empty(t, api.raw)
}

func TestClient_Webhook(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(api)

	require.NoError(t, c.SetWebhook(context.Background(), "https://cup.example/webhook/telegram", "s3cret"))
	require.Len(t, api.raw, 1)
	assert.Equal(t, "setWebhook", api.raw[0].endpoint)
	assert.Equal(t, "https://cup.example/webhook/telegram", api.raw[0].params["url"])
	assert.Equal(t, "s3cret", api.raw[0].params["secret_token"])
	assert.Equal(t, `["message"]`, api.raw[0].params["allowed_updates"])

	require.NoError(t, c.DeleteWebhook(context.Background()))
	require.Len(t, api.requests, 1)
	assert.IsType(t, tgbotapi.DeleteWebhookConfig{}, api.requests[0])
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(&tgbotapi.Error{Code: 429}))
	assert.True(t, IsTransient(&tgbotapi.Error{Code: 500}))
	assert.True(t, IsTransient(errors.New("dial tcp: timeout")))
	assert.False(t, IsTransient(&tgbotapi.Error{Code: 403, Message: "Forbidden: bot was kicked"}))
	assert.False(t, IsTransient(nil))
}

func TestIsMessageGone(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "gone", err: &tgbotapi.Error{Code: 400, Message: "Bad Request: message to react not found"}, want: true},
		{name: "wrapped", err: errors.Join(errors.New("ctx"), &tgbotapi.Error{Code: 400, Message: "Bad Request: MESSAGE_ID_INVALID"}), want: true},
		{name: "other bad request", err: &tgbotapi.Error{Code: 400, Message: "Bad Request: chat not found"}, want: false},
		{name: "not an api error", err: errors.New("timeout"), want: false},
		{name: "nil", err: nil, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsMessageGone(tt.err))
		})
	}
}
