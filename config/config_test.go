package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBotEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-1001234")
}

func TestLoad_Defaults(t *testing.T) {
	setBotEnv(t)

	cfg, err := Load(ProcessBot)
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.App.Environment)
	assert.Equal(t, "Europe/Stockholm", cfg.App.Location.String())
	assert.Equal(t, int64(-1001234), cfg.Telegram.ChatID)
	assert.Equal(t, []int{0, 13, 8, 5, 3, 2, 1}, cfg.Cup.Weights)
	assert.Equal(t, Markers{Gold: "🥇", Silver: "🥈", Bronze: "🥉"}, cfg.Cup.Markers)
	assert.Equal(t, "Tomten", cfg.Cup.FallbackName)
	assert.Equal(t, "5 0 * * *", cfg.Cup.RolloverSchedule)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.True(t, cfg.Features.Enabled(FeatureMedalReactions))
}

func TestLoad_EnvOverrides(t *testing.T) {
	setBotEnv(t)
	t.Setenv("APP_TIMEZONE", "UTC")
	t.Setenv("CUP_WEIGHTS", "0, 10, 6, 4, 3, 2, 1")
	t.Setenv("TELEGRAM_ADMIN_IDS", "7, 9,x")
	t.Setenv("REDIS_DISABLED", "true")
	t.Setenv("SCHEDULER_JOB_TIMEOUT", "90s")

	cfg, err := Load(ProcessBot)
	require.NoError(t, err)

	assert.Equal(t, time.UTC, cfg.App.Location)
	assert.Equal(t, []int{0, 10, 6, 4, 3, 2, 1}, cfg.Cup.Weights)
	assert.Equal(t, []int64{7, 9}, cfg.Telegram.AdminIDs)
	assert.True(t, cfg.IsAdmin(9))
	assert.False(t, cfg.IsAdmin(8))
	assert.True(t, cfg.Redis.Disabled)
	assert.Equal(t, 90*time.Second, cfg.Scheduler.JobTimeout)
}

func TestLoad_YAMLOverlay(t *testing.T) {
	setBotEnv(t)

	path := filepath.Join(t.TempDir(), "cup.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
cup:
  weights: [0, 6, 5, 4, 3, 2, 1]
  markers:
    gold: "👑"
  congratulations:
    - "Hurra för {nick}!"
  standings_cache_ttl: 1m
`), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load(ProcessBot)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 6, 5, 4, 3, 2, 1}, cfg.Cup.Weights)
	// Keys missing from the file keep the env defaults.
	assert.Equal(t, Markers{Gold: "👑", Silver: "🥈", Bronze: "🥉"}, cfg.Cup.Markers)
	assert.Equal(t, []string{"Hurra för {nick}!"}, cfg.Cup.Congratulations)
	assert.Equal(t, time.Minute, cfg.Cup.StandingsCacheTTL)
	assert.Equal(t, "Tomten", cfg.Cup.FallbackName)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		process Process
		env     map[string]string
		want    []string
	}{
		{
			name:    "bot without token and chat",
			process: ProcessBot,
			want:    []string{"TELEGRAM_BOT_TOKEN is required", "TELEGRAM_CHAT_ID is required"},
		},
		{
			name:    "worker without database",
			process: ProcessWorker,
			env:     map[string]string{"REDIS_DISABLED": "true"},
			want:    []string{"DATABASE_URL is required", "REDIS_DISABLED must be false"},
		},
		{
			name:    "short weight table",
			process: ProcessCLI,
			env:     map[string]string{"CUP_WEIGHTS": "0,1,2"},
			want:    []string{"cup weights need 7 values"},
		},
		{
			name:    "negative weight",
			process: ProcessCLI,
			env:     map[string]string{"CUP_WEIGHTS": "0,1,2,3,4,5,-6"},
			want:    []string{"must not be negative"},
		},
		{
			name:    "webhook without http",
			process: ProcessBot,
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN": "t", "TELEGRAM_CHAT_ID": "1",
				"TELEGRAM_USE_WEBHOOK": "true", "HTTP_ENABLED": "false",
			},
			want: []string{"TELEGRAM_USE_WEBHOOK needs HTTP_ENABLED"},
		},
		{
			name:    "bad timezone",
			process: ProcessCLI,
			env:     map[string]string{"APP_TIMEZONE": "Mars/Olympus"},
			want:    []string{"APP_TIMEZONE"},
		},
		{
			name:    "bad chat id",
			process: ProcessBot,
			env:     map[string]string{"TELEGRAM_CHAT_ID": "wordle"},
			want:    []string{"TELEGRAM_CHAT_ID: invalid integer"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(tt.process)
			require.Error(t, err)
			for _, w := range tt.want {
				assert.Contains(t, err.Error(), w)
			}
		})
	}
}

func TestLoad_CLINeedsNoTelegram(t *testing.T) {
	cfg, err := Load(ProcessCLI)
	require.NoError(t, err)
	assert.Empty(t, cfg.Telegram.Token)
}

func TestApplyYAML_Invalid(t *testing.T) {
	cfg := &Config{}
	err := cfg.applyYAML([]byte("cup: [unclosed"))
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestFeatureFlags(t *testing.T) {
	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("FEATURE_CUP_CHANNEL_TOPIC", "false")
		t.Setenv("FEATURE_COMMANDS_STATS_CHART", "0")
		ff := LoadFeatureFlags()
		assert.False(t, ff.Enabled(FeatureChannelTopic))
		assert.False(t, ff.Enabled(FeatureStatsChart))
		assert.True(t, ff.Enabled(FeatureCupAnnouncements))
	})

	t.Run("rollout is stable per user", func(t *testing.T) {
		ff := newFeatureFlags()
		require.NoError(t, ff.SetRolloutPercent(FeatureStatsChart, 50))

		in, out := 0, 0
		for id := int64(1); id <= 200; id++ {
			ctx := &FeatureContext{UserID: id}
			first := ff.IsEnabled(FeatureStatsChart, ctx)
			assert.Equal(t, first, ff.IsEnabled(FeatureStatsChart, ctx))
			if first {
				in++
			} else {
				out++
			}
		}
		assert.Positive(t, in)
		assert.Positive(t, out)
	})

	t.Run("admins and overrides", func(t *testing.T) {
		ff := newFeatureFlags()
		require.NoError(t, ff.DisableFeature(FeatureStatsChart))

		assert.False(t, ff.IsEnabled(FeatureStatsChart, &FeatureContext{UserID: 5}))
		assert.True(t, ff.IsEnabled(FeatureStatsChart, &FeatureContext{UserID: 5, IsAdmin: true}))

		ff.SetUserOverride(5, FeatureStatsChart, true)
		assert.True(t, ff.IsEnabled(FeatureStatsChart, &FeatureContext{UserID: 5}))
		ff.ClearUserOverrides(5)
		assert.False(t, ff.IsEnabled(FeatureStatsChart, &FeatureContext{UserID: 5}))
	})

	t.Run("time window", func(t *testing.T) {
		ff := newFeatureFlags()
		now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
		ff.now = func() time.Time { return now }
		from := now.Add(time.Hour)
		ff.features[FeatureCupAnnouncements].EnabledFrom = &from
		assert.False(t, ff.Enabled(FeatureCupAnnouncements))
	})

	t.Run("errors", func(t *testing.T) {
		ff := newFeatureFlags()
		assert.ErrorIs(t, ff.EnableFeature("nope"), ErrFeatureNotFound)
		assert.ErrorIs(t, ff.SetRolloutPercent(FeatureStatsChart, 101), ErrInvalidRolloutPercent)
		assert.False(t, ff.Enabled("nope"))

		var nilFlags *FeatureFlags
		assert.False(t, nilFlags.Enabled(FeatureStatsChart))
	})

	t.Run("list is sorted", func(t *testing.T) {
		all := newFeatureFlags().GetAllFeatures()
		require.Len(t, all, 6)
		assert.Equal(t, FeatureNaturalDates, all[0].Name)
	})
}
