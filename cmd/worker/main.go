// Package main - фоновый процесс Wordle Cup.
//
// Worker запускает планировщик со сменой кубка. События публикуются в Redis,
// поэтому объявления о победителе отправляет бот, подписанный на тот же
// канал. Блокировка в Redis гарантирует, что смену кубка выполняет один
// процесс, даже если планировщик включён и в боте.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/alem-hub/wordle-cup/config"
	"github.com/alem-hub/wordle-cup/internal/bootstrap"
	httpserver "github.com/alem-hub/wordle-cup/internal/interface/http"
)

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
	cfg, err := config.Load(config.ProcessWorker)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. ЛОГИРОВАНИЕ И МЕТРИКИ
	// ─────────────────────────────────────────────────────────────────────────
	log := bootstrap.Logger(cfg, "worker")
	log.Info("starting Wordle Cup worker",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"timezone", cfg.App.Timezone,
		"rollover_schedule", cfg.Cup.RolloverSchedule,
	)
	m, reg := bootstrap.Metrics(cfg)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ХРАНИЛИЩЕ И EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	infra, err := bootstrap.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.Close()

	bus, err := bootstrap.NewEventBus(cfg, infra, log, m)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing event bus...")
		_ = bus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 4. APPLICATION LAYER И ПЛАНИРОВЩИК
	// ─────────────────────────────────────────────────────────────────────────
	app, err := bootstrap.NewApp(cfg, infra.Store, bootstrap.AppOptions{
		Publisher: bus,
		Cache:     infra.StandingsCache(),
		Logger:    log,
		Metrics:   m,
	})
	if err != nil {
		return err
	}

	sched, job, err := bootstrap.NewScheduler(cfg, app, infra.Locker(), log, m)
	if err != nil {
		return err
	}

	// Смена кубка, пропущенная пока worker был выключен, выполняется сразу.
	if err := job.Run(ctx); err != nil {
		log.Warn("initial cup rollover failed", "error", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ЗАПУСК
	// ─────────────────────────────────────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)

	if cfg.HTTP.Enabled {
		server := bootstrap.HTTPServer(cfg, infra, app, reg, nil, log)
		g.Go(server.Start)
		g.Go(func() error {
			<-gctx.Done()
			return shutdownServer(cfg, server)
		})
	}

	if err := sched.Start(gctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	g.Go(func() error {
		<-gctx.Done()
		return sched.Stop()
	})

	log.Info("worker is running", "jobs", len(sched.ListJobs()))

	// ─────────────────────────────────────────────────────────────────────────
	// 6. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	if err := g.Wait(); err != nil {
		log.Error("shutdown with error", "error", err)
		return err
	}
	log.Info("worker stopped gracefully")
	return nil
}

func shutdownServer(cfg *config.Config, server *httpserver.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(ctx)
}
