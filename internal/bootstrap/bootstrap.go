// Package bootstrap builds the components shared by the bot, the worker and
// cupctl from a loaded configuration.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/alem-hub/wordle-cup/config"
	"github.com/alem-hub/wordle-cup/internal/application/command"
	"github.com/alem-hub/wordle-cup/internal/application/query"
	"github.com/alem-hub/wordle-cup/internal/domain/cup"
	"github.com/alem-hub/wordle-cup/internal/domain/leaderboard"
	"github.com/alem-hub/wordle-cup/internal/domain/shared"
	"github.com/alem-hub/wordle-cup/internal/infrastructure/messaging"
	"github.com/alem-hub/wordle-cup/internal/infrastructure/metrics"
	"github.com/alem-hub/wordle-cup/internal/infrastructure/persistence/memory"
	"github.com/alem-hub/wordle-cup/internal/infrastructure/persistence/postgres"
	"github.com/alem-hub/wordle-cup/internal/infrastructure/persistence/redis"
	"github.com/alem-hub/wordle-cup/internal/infrastructure/scheduler"
	"github.com/alem-hub/wordle-cup/internal/infrastructure/scheduler/jobs"
	httpserver "github.com/alem-hub/wordle-cup/internal/interface/http"
	"github.com/alem-hub/wordle-cup/pkg/logger"
	"github.com/alem-hub/wordle-cup/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOGGING & METRICS
// ══════════════════════════════════════════════════════════════════════════════

// Logger builds the process logger and installs it as slog's default.
// Production logs JSON unless LOG_FORMAT says otherwise.
func Logger(cfg *config.Config, service string) *slog.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	opts.Service = service
	switch {
	case cfg.Observability.LogFormat != "":
		opts.Format = logger.ParseFormat(cfg.Observability.LogFormat)
	case cfg.IsProduction():
		opts.Format = logger.FormatJSON
	default:
		opts.Format = logger.FormatText
	}

	log := logger.New(opts).With("env", string(cfg.App.Environment))
	slog.SetDefault(log)
	return log
}

// Metrics returns the collectors and the registry serving /metrics. Both
// are nil when metrics are disabled.
func Metrics(cfg *config.Config) (*metrics.Metrics, *prometheus.Registry) {
	if !cfg.Observability.MetricsEnabled {
		return nil, nil
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return metrics.New(reg), reg
}

// ══════════════════════════════════════════════════════════════════════════════
// STORAGE
// ══════════════════════════════════════════════════════════════════════════════

// Store is the persistence the application layer needs.
type Store interface {
	cup.ScoreStore
	cup.CupStateStore
	command.Resetter
}

// pgStore joins the two postgres repositories behind Store.
type pgStore struct {
	*postgres.ScoreRepository
	*postgres.CupStateRepository
}

// Infra holds the opened connections. Postgres and Redis are nil when not
// configured.
type Infra struct {
	Postgres *postgres.Connection
	Redis    *redis.Cache
	Store    Store

	logger *slog.Logger
}

// Open connects to Postgres and Redis, retrying while they start up.
// Without DATABASE_URL the in-memory store is used; scores are then lost
// on restart.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Infra, error) {
	infra := &Infra{logger: log}

	if cfg.Database.URL == "" {
		log.Warn("DATABASE_URL not set, using in-memory store")
		infra.Store = memory.NewStore()
	} else {
		conn, err := connectPostgres(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		infra.Postgres = conn
		infra.Store = pgStore{
			ScoreRepository:    postgres.NewScoreRepository(conn),
			CupStateRepository: postgres.NewCupStateRepository(conn),
		}

		if cfg.Database.AutoMigrate {
			applied, err := postgres.NewMigrator(conn).Migrate(ctx)
			if err != nil {
				infra.Close()
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
			log.Info("migrations completed", "applied", applied)
		}
	}

	if !cfg.Redis.Disabled {
		cache, err := connectRedis(ctx, cfg, log)
		if err != nil {
			infra.Close()
			return nil, err
		}
		infra.Redis = cache
	}

	return infra, nil
}

func connectPostgres(ctx context.Context, cfg *config.Config, log *slog.Logger) (*postgres.Connection, error) {
	pgCfg := postgres.DefaultConfig()
	pgCfg.URL = cfg.Database.URL
	pgCfg.MaxConns = int32(cfg.Database.MaxConns)
	pgCfg.MinConns = int32(cfg.Database.MinConns)
	pgCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	pgCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

	log.Info("connecting to database...")
	conn, err := retry.DoWithData(ctx, retry.StartupRetrier(logRetry(log, "postgres")),
		func(ctx context.Context) (*postgres.Connection, error) {
			return postgres.NewConnection(ctx, pgCfg)
		})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("database connection established")
	return conn, nil
}

func connectRedis(ctx context.Context, cfg *config.Config, log *slog.Logger) (*redis.Cache, error) {
	redisCfg, err := RedisConfig(cfg.Redis)
	if err != nil {
		return nil, err
	}

	log.Info("connecting to Redis...", "addr", redisCfg.Addr())
	cache, err := retry.DoWithData(ctx, retry.StartupRetrier(logRetry(log, "redis")),
		func(context.Context) (*redis.Cache, error) {
			return redis.NewCache(redisCfg)
		})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Info("Redis connection established")
	return cache, nil
}

// RedisConfig maps the settings onto the cache config. REDIS_URL wins over
// host and port.
func RedisConfig(c config.RedisConfig) (redis.Config, error) {
	out := redis.DefaultConfig()
	out.Host = c.Host
	out.Port = c.Port
	out.Password = c.Password
	out.DB = c.DB
	out.PoolSize = c.PoolSize
	out.MinIdleConns = c.MinIdleConns
	out.DialTimeout = c.DialTimeout
	out.ReadTimeout = c.ReadTimeout
	out.WriteTimeout = c.WriteTimeout

	if c.URL == "" {
		return out, nil
	}
	opts, err := goredis.ParseURL(c.URL)
	if err != nil {
		return out, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	host, port, err := net.SplitHostPort(opts.Addr)
	if err != nil {
		return out, fmt.Errorf("invalid REDIS_URL address: %w", err)
	}
	out.Host = host
	if out.Port, err = strconv.Atoi(port); err != nil {
		return out, fmt.Errorf("invalid REDIS_URL port: %w", err)
	}
	out.Password = opts.Password
	out.DB = opts.DB
	return out, nil
}

func logRetry(log *slog.Logger, target string) func(int, error, time.Duration) {
	return func(attempt int, err error, delay time.Duration) {
		log.Warn("connection attempt failed", "target", target, "attempt", attempt, "retry_in", delay.String(), "error", err)
	}
}

// Close releases the connections.
func (i *Infra) Close() {
	if i.Redis != nil {
		if err := i.Redis.Close(); err != nil {
			i.logger.Warn("failed to close Redis", "error", err)
		}
	}
	if i.Postgres != nil {
		i.Postgres.Close()
	}
}

// Locker returns the cross-process job lock, or nil without Redis.
func (i *Infra) Locker() jobs.Locker {
	if i.Redis == nil {
		return nil
	}
	return redis.NewLocker(i.Redis)
}

// StandingsCache returns the Redis standings cache, or nil.
func (i *Infra) StandingsCache() leaderboard.Cache {
	if i.Redis == nil {
		return nil
	}
	return redis.NewLeaderboardCache(i.Redis)
}

// ══════════════════════════════════════════════════════════════════════════════
// EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// EventBus is a bus that must be closed on shutdown.
type EventBus interface {
	shared.EventBus
	Close() error
}

// NewEventBus returns the Redis-backed bus when Redis is available, so the
// worker's events reach the bot, and the in-memory bus otherwise.
func NewEventBus(cfg *config.Config, infra *Infra, log *slog.Logger, m *metrics.Metrics) (EventBus, error) {
	local := messaging.DefaultInMemoryEventBusConfig()
	local.Logger = log
	local.Metrics = m
	// Marker diffs must reach the chat in the order they were computed.
	local.Ordered = []shared.EventType{shared.EventMedalsChanged}

	if infra.Redis == nil {
		return messaging.NewInMemoryEventBus(local), nil
	}
	bus, err := messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
		Client:         messaging.NewGoRedisClient(infra.Redis.Client()),
		ChannelName:    cfg.Redis.EventChannel,
		LocalBusConfig: local,
		Logger:         log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start event bus: %w", err)
	}
	return bus, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATION LAYER
// ══════════════════════════════════════════════════════════════════════════════

// App groups the command and query handlers.
type App struct {
	Weights leaderboard.WeightTable

	RecordScore *command.RecordScoreHandler
	Rollover    *command.CheckCupRolloverHandler
	Replay      *command.ReplayHistoryHandler

	Leaderboard *query.GetLeaderboardHandler
	Medalists   *query.GetMedalistsHandler
	Daily       *query.GetDailyResultsHandler
	History     *query.GetCupHistoryHandler
	Stats       *query.GetPlayerStatsHandler
	Summary     *query.GetChannelSummaryHandler
}

// AppOptions are the process-specific parts of the application layer.
type AppOptions struct {
	// Publisher receives domain events; nil drops them.
	Publisher shared.EventPublisher

	// Cache backs the standings; nil computes every request.
	Cache leaderboard.Cache

	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Clock   func() time.Time
}

// NewApp wires the application layer onto store.
func NewApp(cfg *config.Config, store Store, opts AppOptions) (*App, error) {
	weights, err := leaderboard.NewWeightTable(cfg.Cup.Weights)
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	loc := cfg.App.Location

	lb := query.NewGetLeaderboardHandler(store, query.GetLeaderboardConfig{
		Weights:  weights,
		Location: loc,
		Clock:    opts.Clock,
		Cache:    opts.Cache,
		CacheTTL: cfg.Cup.StandingsCacheTTL,
		Logger:   opts.Logger,
	})
	medalists := query.NewGetMedalistsHandler(store)

	recorder := command.NewRecordScoreHandler(store, opts.Publisher, command.RecordScoreConfig{
		Location: loc,
		Clock:    opts.Clock,
		Logger:   opts.Logger,
		Metrics:  opts.Metrics,
	})

	return &App{
		Weights:     weights,
		RecordScore: recorder,
		Rollover: command.NewCheckCupRolloverHandler(store, lb, opts.Publisher, command.CheckCupRolloverConfig{
			Location: loc,
			Logger:   opts.Logger,
			Metrics:  opts.Metrics,
		}),
		Replay:      command.NewReplayHistoryHandler(recorder, store, opts.Logger).WithCache(opts.Cache),
		Leaderboard: lb,
		Medalists:   medalists,
		Daily:       query.NewGetDailyResultsHandler(store, medalists, weights),
		History:     query.NewGetCupHistoryHandler(store, store),
		Stats:       query.NewGetPlayerStatsHandler(store, lb),
		Summary:     query.NewGetChannelSummaryHandler(medalists, lb),
	}, nil
}

// NewScheduler builds the scheduler with the rollover job registered.
func NewScheduler(cfg *config.Config, app *App, locker jobs.Locker, log *slog.Logger, m *metrics.Metrics) (*scheduler.Scheduler, *jobs.CupRolloverJob, error) {
	schedule, err := scheduler.ParseSchedule(cfg.Cup.RolloverSchedule)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid rollover schedule: %w", err)
	}

	s := scheduler.NewScheduler(scheduler.SchedulerConfig{
		Logger:       log,
		Timezone:     cfg.App.Location,
		TickInterval: cfg.Scheduler.TickInterval,
		Metrics:      m,
	})

	jobCfg := jobs.DefaultCupRolloverConfig()
	jobCfg.LockTTL = cfg.Scheduler.LockTTL
	jobCfg.Timeout = cfg.Scheduler.JobTimeout
	job := jobs.NewCupRolloverJob(app.Rollover, locker, log, jobCfg)

	if err := s.Register(job, schedule); err != nil {
		return nil, nil, err
	}
	s.OnJobError(func(name string, err error) {
		log.Error("scheduled job failed", "job", name, "error", err)
	})
	return s, job, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP
// ══════════════════════════════════════════════════════════════════════════════

// HTTPServer builds the read API with readiness checks for every open
// connection. reg and webhook may be nil.
func HTTPServer(cfg *config.Config, infra *Infra, app *App, reg *prometheus.Registry, webhook httpserver.UpdateHandler, log *slog.Logger) *httpserver.Server {
	health := httpserver.NewHealthChecker(cfg.App.Version)
	if infra.Postgres != nil {
		health.AddCheck("postgres", httpserver.PingCheck(infra.Postgres))
	}
	if infra.Redis != nil {
		health.AddCheck("redis", httpserver.PingCheck(infra.Redis))
	}

	srvCfg := httpserver.DefaultConfig()
	srvCfg.Host = cfg.HTTP.Host
	srvCfg.Port = cfg.HTTP.Port
	srvCfg.RequestTimeout = cfg.HTTP.RequestTimeout
	srvCfg.WebhookSecret = cfg.Telegram.WebhookSecret

	deps := httpserver.Dependencies{
		Leaderboard: app.Leaderboard,
		Medalists:   app.Medalists,
		History:     app.History,
		Stats:       app.Stats,
		Health:      health,
		Webhook:     webhook,
		Logger:      log,
	}
	if reg != nil {
		deps.Gatherer = reg
	}
	return httpserver.NewServer(srvCfg, deps)
}
