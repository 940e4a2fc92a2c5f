package bootstrap

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/wordle-cup/config"
	"github.com/alem-hub/wordle-cup/internal/application/command"
	"github.com/alem-hub/wordle-cup/internal/application/eventhandler"
	"github.com/alem-hub/wordle-cup/internal/domain/cup"
	"github.com/alem-hub/wordle-cup/internal/domain/leaderboard"
	"github.com/alem-hub/wordle-cup/internal/domain/shared"
	"github.com/alem-hub/wordle-cup/internal/infrastructure/persistence/memory"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("REDIS_DISABLED", "true")
	t.Setenv("APP_TIMEZONE", "UTC")
	t.Setenv("CUP_ROLLOVER_SCHEDULE", "@every 1h")
	cfg, err := config.Load(config.ProcessCLI)
	require.NoError(t, err)
	return cfg
}

func TestOpen_MemoryFallback(t *testing.T) {
	cfg := testConfig(t)

	infra, err := Open(context.Background(), cfg, slog.Default())
	require.NoError(t, err)
	defer infra.Close()

	assert.Nil(t, infra.Postgres)
	assert.Nil(t, infra.Redis)
	assert.IsType(t, &memory.Store{}, infra.Store)
	assert.Nil(t, infra.Locker())
	assert.Nil(t, infra.StandingsCache())
}

func TestNewEventBus_InMemoryWithoutRedis(t *testing.T) {
	cfg := testConfig(t)
	infra := &Infra{Store: memory.NewStore(), logger: slog.Default()}

	bus, err := NewEventBus(cfg, infra, slog.Default(), nil)
	require.NoError(t, err)
	defer bus.Close()

	got := make(chan shared.EventType, 1)
	require.NoError(t, bus.Subscribe(shared.EventCupEnded, func(e shared.Event) error {
		got <- e.EventType()
		return nil
	}))
	require.NoError(t, bus.Publish(cup.NewCupEndedEvent(cup.CupResult{Cup: "2024-1"}, "")))

	select {
	case typ := <-got:
		assert.Equal(t, shared.EventCupEnded, typ)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestNewApp_RecordsAndRanks(t *testing.T) {
	cfg := testConfig(t)
	store := memory.NewStore()
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	app, err := NewApp(cfg, store, AppOptions{Clock: func() time.Time { return now }})
	require.NoError(t, err)

	ctx := context.Background()
	for i, text := range []string{"Wordle 995 2/6", "Wordle 995 3/6"} {
		_, err := app.RecordScore.Handle(ctx, command.RecordScoreCommand{
			Text:   text,
			Player: cup.PlayerID(i + 1),
			SentAt: now,
		})
		require.NoError(t, err)
	}

	ranking, err := app.Leaderboard.Ranking(ctx, leaderboard.CurrentCup())
	require.NoError(t, err)
	entries := ranking.All()
	require.Len(t, entries, 2)
	assert.Equal(t, cup.PlayerID(1), entries[0].PlayerID)
	assert.Equal(t, 8, entries[0].Points)
}

func TestNewApp_RejectsWeights(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cup.Weights = []int{1, 2}
	_, err := NewApp(cfg, memory.NewStore(), AppOptions{})
	assert.Error(t, err)
}

func TestNewScheduler(t *testing.T) {
	cfg := testConfig(t)
	app, err := NewApp(cfg, memory.NewStore(), AppOptions{})
	require.NoError(t, err)

	s, job, err := NewScheduler(cfg, app, nil, slog.Default(), nil)
	require.NoError(t, err)
	require.Len(t, s.ListJobs(), 1)
	assert.Equal(t, job.Name(), s.ListJobs()[0].Name)

	cfg.Cup.RolloverSchedule = "not a schedule"
	_, _, err = NewScheduler(cfg, app, nil, slog.Default(), nil)
	assert.ErrorContains(t, err, "invalid rollover schedule")
}

func TestRedisConfig(t *testing.T) {
	tests := []struct {
		name     string
		in       config.RedisConfig
		wantHost string
		wantPort int
		wantDB   int
		wantPass string
		wantErr  bool
	}{
		{name: "host and port", in: config.RedisConfig{Host: "cache", Port: 6380, DB: 2}, wantHost: "cache", wantPort: 6380, wantDB: 2},
		{name: "url wins", in: config.RedisConfig{Host: "ignored", Port: 1, URL: "redis://:pw@redis.internal:6390/3"}, wantHost: "redis.internal", wantPort: 6390, wantDB: 3, wantPass: "pw"},
		{name: "bad url", in: config.RedisConfig{URL: "http://nope"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RedisConfig(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, got.Host)
			assert.Equal(t, tt.wantPort, got.Port)
			assert.Equal(t, tt.wantDB, got.DB)
			assert.Equal(t, tt.wantPass, got.Password)
		})
	}
}

func TestMetrics_Disabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Observability.MetricsEnabled = false
	m, reg := Metrics(cfg)
	assert.Nil(t, m)
	assert.Nil(t, reg)

	cfg.Observability.MetricsEnabled = true
	m, reg = Metrics(cfg)
	assert.NotNil(t, m)
	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

// slowSink records the last marker per message. The first SetMarker stalls
// like a slow Telegram call.
type slowSink struct {
	mu      sync.Mutex
	calls   int
	markers map[int64]string
}

func (s *slowSink) SetMarker(_ context.Context, ref cup.MessageRef, marker string) error {
	s.mu.Lock()
	s.calls++
	first := s.calls == 1
	s.mu.Unlock()
	if first {
		time.Sleep(50 * time.Millisecond)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers[ref.MessageID] = marker
	return nil
}

func (s *slowSink) ClearMarker(_ context.Context, ref cup.MessageRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.markers, ref.MessageID)
	return nil
}

func TestNewEventBus_MedalMarkersFollowRecordOrder(t *testing.T) {
	cfg := testConfig(t)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	for run := 0; run < 5; run++ {
		infra := &Infra{Store: memory.NewStore(), logger: slog.Default()}
		bus, err := NewEventBus(cfg, infra, slog.Default(), nil)
		require.NoError(t, err)

		app, err := NewApp(cfg, infra.Store, AppOptions{Publisher: bus, Clock: func() time.Time { return now }})
		require.NoError(t, err)

		markers := eventhandler.DefaultMarkers()
		sink := &slowSink{markers: make(map[int64]string)}
		h := eventhandler.NewOnMedalsChangedHandler(sink, markers, slog.Default())
		require.NoError(t, bus.Subscribe(shared.EventMedalsChanged, h.Handle))

		ctx := context.Background()
		for _, m := range []struct {
			text   string
			player cup.PlayerID
			msg    int64
		}{
			{"Wordle 100 3/6", 1, 10},
			{"Wordle 100 2/6", 2, 20},
		} {
			_, err := app.RecordScore.Handle(ctx, command.RecordScoreCommand{
				Text:   m.text,
				Player: m.player,
				Source: cup.MessageRef{ChatID: 1, MessageID: m.msg},
				SentAt: now,
			})
			require.NoError(t, err)
		}
		require.NoError(t, bus.Close())

		gold, _ := markers.For(cup.PlacementGold)
		silver, _ := markers.For(cup.PlacementSilver)
		assert.Equal(t, map[int64]string{10: silver, 20: gold}, sink.markers, "run %d", run)
	}
}
