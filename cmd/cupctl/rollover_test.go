package main

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/wordle-cup/config"
	"github.com/alem-hub/wordle-cup/internal/application/eventhandler"
	"github.com/alem-hub/wordle-cup/internal/bootstrap"
	"github.com/alem-hub/wordle-cup/internal/infrastructure/persistence/memory"
)

type recordingAnnouncer struct {
	mu    sync.Mutex
	texts []string
}

func (r *recordingAnnouncer) Announce(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return nil
}

func memoryEnv(t *testing.T) *env {
	t.Helper()
	t.Setenv("REDIS_DISABLED", "true")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_CHAT_ID", "")
	t.Setenv("APP_TIMEZONE", "UTC")
	cfg, err := config.Load(config.ProcessCLI)
	require.NoError(t, err)
	return &env{cfg: cfg, log: slog.Default(), infra: &bootstrap.Infra{Store: memory.NewStore()}}
}

func TestAnnounceLocally_RequiresTelegramWithoutRedis(t *testing.T) {
	e := memoryEnv(t)
	_, bus, err := e.app()
	require.NoError(t, err)
	defer bus.Close()

	assert.ErrorContains(t, announceLocally(e, bus), "TELEGRAM_BOT_TOKEN")

	require.NoError(t, e.cfg.Features.DisableFeature(config.FeatureCupAnnouncements))
	assert.NoError(t, announceLocally(e, bus), "nothing to announce when announcements are off")
}

func TestRollover_AnnouncesOnInMemoryBus(t *testing.T) {
	e := memoryEnv(t)
	app, bus, err := e.app()
	require.NoError(t, err)

	sink := &recordingAnnouncer{}
	require.NoError(t, subscribeAnnouncer(e.cfg, bus, sink, e.log))

	ctx := context.Background()
	_, err = app.Rollover.Handle(ctx, time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	res, err := app.Rollover.Handle(ctx, time.Date(2024, 4, 1, 0, 10, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, res.Ended, 1)

	require.NoError(t, bus.Close())
	assert.Equal(t, []string{eventhandler.NoWinnerText}, sink.texts)
}
