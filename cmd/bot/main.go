// Package main - точка входа Telegram-бота Wordle Cup.
//
// Бот читает результаты Wordle из чата, ставит медали на лучшие попытки дня,
// держит описание чата на текущих лидерах и объявляет победителя, когда
// месячный кубок заканчивается.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alem-hub/wordle-cup/config"
	"github.com/alem-hub/wordle-cup/internal/application/eventhandler"
	"github.com/alem-hub/wordle-cup/internal/bootstrap"
	"github.com/alem-hub/wordle-cup/internal/domain/cup"
	"github.com/alem-hub/wordle-cup/internal/domain/leaderboard"
	"github.com/alem-hub/wordle-cup/internal/domain/shared"
	tgclient "github.com/alem-hub/wordle-cup/internal/infrastructure/external/telegram"
	"github.com/alem-hub/wordle-cup/internal/infrastructure/scheduler"
	httpserver "github.com/alem-hub/wordle-cup/internal/interface/http"
	"github.com/alem-hub/wordle-cup/internal/interface/telegram"
	"github.com/alem-hub/wordle-cup/internal/interface/telegram/handler"
	"github.com/alem-hub/wordle-cup/internal/interface/telegram/middleware"
	"github.com/alem-hub/wordle-cup/pkg/circuitbreaker"
)

// cupsListed - сколько кубков показывает /cuper.
const cupsListed = 24

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load(config.ProcessBot)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. ЛОГИРОВАНИЕ И МЕТРИКИ
	// ─────────────────────────────────────────────────────────────────────────
	log := bootstrap.Logger(cfg, "bot")
	log.Info("starting Wordle Cup bot",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"timezone", cfg.App.Timezone,
		"chat_id", cfg.Telegram.ChatID,
		"webhook", cfg.Telegram.UseWebhook,
	)
	m, reg := bootstrap.Metrics(cfg)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ХРАНИЛИЩЕ (PostgreSQL или память, Redis опционально)
	// ─────────────────────────────────────────────────────────────────────────
	infra, err := bootstrap.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.Close()

	// ─────────────────────────────────────────────────────────────────────────
	// 4. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	bus, err := bootstrap.NewEventBus(cfg, infra, log, m)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing event bus...")
		_ = bus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 5. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	var cache leaderboard.Cache
	if cfg.Features.Enabled(config.FeatureStandingsCache) {
		cache = infra.StandingsCache()
	}
	app, err := bootstrap.NewApp(cfg, infra.Store, bootstrap.AppOptions{
		Publisher: bus,
		Cache:     cache,
		Logger:    log,
		Metrics:   m,
	})
	if err != nil {
		return err
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. TELEGRAM CLIENT
	// ─────────────────────────────────────────────────────────────────────────
	api, err := tgclient.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return err
	}
	log.Info("authorized on Telegram", "username", api.Self.UserName)

	clientCfg := tgclient.DefaultClientConfig(cfg.Telegram.ChatID)
	clientCfg.RequestsPerSecond = cfg.Telegram.RequestsPerSecond
	clientCfg.Burst = cfg.Telegram.RequestBurst
	clientCfg.Breaker = circuitbreaker.TelegramAPIBreaker(tgclient.IsTransient, func(name string, from, to circuitbreaker.State) {
		log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
	})
	clientCfg.Logger = log
	clientCfg.Metrics = m
	client := tgclient.NewClient(api, clientCfg)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. РЕГИСТРАЦИЯ EVENT HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	markers := cupMarkers(cfg.Cup.Markers)
	if err := subscribe(cfg, bus, client, app, cache, markers, log); err != nil {
		return fmt.Errorf("failed to register event handlers: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. КОМАНДЫ И БОТ
	// ─────────────────────────────────────────────────────────────────────────
	rateLimit := middleware.DefaultRateLimitConfig()
	rateLimit.RequestsPerMinute = cfg.Telegram.UserRateLimit
	rateLimit.BurstSize = cfg.Telegram.UserBurst
	rateLimit.WhitelistedUsers = make(map[int64]bool, len(cfg.Telegram.AdminIDs))
	for _, id := range cfg.Telegram.AdminIDs {
		rateLimit.WhitelistedUsers[id] = true
	}
	router := telegram.NewRouter(telegram.RouterConfig{Logger: log, RateLimit: rateLimit})

	standings := handler.NewStandingsHandler(app.Leaderboard, cfg.App.Location, cfg.Cup.StandingsLimit)
	if !cfg.Features.Enabled(config.FeatureNaturalDates) {
		standings.WithoutDates()
	}
	stats := handler.NewStatsHandler(app.Stats, log).WithChartGate(func(id cup.PlayerID) bool {
		return cfg.Features.IsEnabled(config.FeatureStatsChart, &config.FeatureContext{
			UserID:  int64(id),
			IsAdmin: cfg.IsAdmin(int64(id)),
		})
	})
	router.RegisterDefaults(telegram.CommandHandlers{
		Standings: standings,
		Daily:     handler.NewDailyHandler(app.Daily, markers),
		Stats:     stats,
		Cups:      handler.NewCupsHandler(app.History, cupsListed),
	})
	log.Info("commands registered", "commands", router.GetRegisteredCommands())

	botCfg := telegram.DefaultBotConfig(cfg.Telegram.ChatID)
	botCfg.PollingTimeout = int(cfg.Telegram.PollingTimeout / time.Second)
	botCfg.MaxConcurrentUpdates = cfg.Telegram.MaxConcurrentUpdates
	botCfg.GracefulShutdownTimeout = cfg.App.ShutdownTimeout
	botCfg.Logger = log
	bot := telegram.NewBot(botCfg, api, client, router, app.RecordScore)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	var server *httpserver.Server
	if cfg.HTTP.Enabled {
		var webhook httpserver.UpdateHandler
		if cfg.Telegram.UseWebhook {
			webhook = bot
		}
		server = bootstrap.HTTPServer(cfg, infra, app, reg, webhook, log)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched, _, err = bootstrap.NewScheduler(cfg, app, infra.Locker(), log, m)
		if err != nil {
			return err
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 11. ЗАПУСК
	// ─────────────────────────────────────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)

	if server != nil {
		g.Go(server.Start)
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	if cfg.Telegram.UseWebhook {
		if err := client.SetWebhook(ctx, cfg.Telegram.WebhookURL, cfg.Telegram.WebhookSecret); err != nil {
			return fmt.Errorf("failed to set webhook: %w", err)
		}
		log.Info("webhook registered", "url", cfg.Telegram.WebhookURL)
	} else {
		if err := client.DeleteWebhook(ctx); err != nil {
			log.Warn("failed to delete webhook", "error", err)
		}
		g.Go(func() error { return bot.Start(gctx) })
	}

	if sched != nil {
		if err := sched.Start(gctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		g.Go(func() error {
			<-gctx.Done()
			if err := sched.Stop(); err != nil && !errors.Is(err, scheduler.ErrSchedulerNotRunning) {
				return err
			}
			return nil
		})
	}

	log.Info("bot is running, press Ctrl+C to stop")

	// ─────────────────────────────────────────────────────────────────────────
	// 12. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	if err := g.Wait(); err != nil {
		log.Error("shutdown with error", "error", err)
		return err
	}
	log.Info("bot stopped gracefully")
	return nil
}

// subscribe подписывает обработчики событий, включённые флагами.
func subscribe(
	cfg *config.Config,
	bus shared.EventSubscriber,
	client *tgclient.Client,
	app *bootstrap.App,
	cache leaderboard.Cache,
	markers eventhandler.Markers,
	log *slog.Logger,
) error {
	if cfg.Features.Enabled(config.FeatureMedalReactions) {
		h := eventhandler.NewOnMedalsChangedHandler(client, markers, log)
		if err := bus.Subscribe(shared.EventMedalsChanged, h.Handle); err != nil {
			return err
		}
	}

	if cfg.Features.Enabled(config.FeatureCupAnnouncements) {
		h := eventhandler.NewOnCupEndedHandler(client, eventhandler.CupEndedConfig{
			Templates:    cfg.Cup.Congratulations,
			FallbackName: cfg.Cup.FallbackName,
			Logger:       log,
		})
		if err := bus.Subscribe(shared.EventCupEnded, h.Handle); err != nil {
			return err
		}
	}

	recorded := eventhandler.ScoreRecordedConfig{
		Cache:        cache,
		FallbackName: cfg.Cup.FallbackName,
		Logger:       log,
	}
	if cfg.Features.Enabled(config.FeatureChannelTopic) {
		recorded.Summary = app.Summary
		recorded.Topic = client
	}
	h := eventhandler.NewOnScoreRecordedHandler(recorded)
	return bus.Subscribe(shared.EventScoreRecorded, h.Handle)
}

// cupMarkers переводит реакции из конфигурации в карту медалей.
func cupMarkers(m config.Markers) eventhandler.Markers {
	return eventhandler.Markers{
		cup.PlacementGold:   m.Gold,
		cup.PlacementSilver: m.Silver,
		cup.PlacementBronze: m.Bronze,
	}
}
