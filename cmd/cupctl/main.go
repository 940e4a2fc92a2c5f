// Command cupctl is the operator tool for Wordle Cup: schema migrations,
// history replay from a Telegram export, standings export and a manual cup
// rollover check.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/alem-hub/wordle-cup/config"
	"github.com/alem-hub/wordle-cup/internal/application/command"
	"github.com/alem-hub/wordle-cup/internal/application/eventhandler"
	"github.com/alem-hub/wordle-cup/internal/bootstrap"
	"github.com/alem-hub/wordle-cup/internal/domain/cup"
	"github.com/alem-hub/wordle-cup/internal/domain/leaderboard"
	"github.com/alem-hub/wordle-cup/internal/domain/shared"
	tgclient "github.com/alem-hub/wordle-cup/internal/infrastructure/external/telegram"
	"github.com/alem-hub/wordle-cup/internal/infrastructure/persistence/postgres"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "cupctl: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "cupctl",
		Usage:   "manage the Wordle Cup database",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML file with cup settings",
				EnvVars: []string{"CONFIG_FILE"},
			},
		},
		Before: func(c *cli.Context) error {
			if path := c.String("config"); path != "" {
				return os.Setenv("CONFIG_FILE", path)
			}
			return nil
		},
		Commands: []*cli.Command{
			migrateCommand(),
			replayCommand(),
			standingsCommand(),
			rolloverCommand(),
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ENVIRONMENT
// ══════════════════════════════════════════════════════════════════════════════

type env struct {
	cfg   *config.Config
	log   *slog.Logger
	infra *bootstrap.Infra
}

// open loads configuration and connects to storage. autoMigrate false
// leaves the schema untouched.
func open(c *cli.Context, autoMigrate bool) (*env, error) {
	cfg, err := config.Load(config.ProcessCLI)
	if err != nil {
		return nil, err
	}
	if !autoMigrate {
		cfg.Database.AutoMigrate = false
	}
	log := bootstrap.Logger(cfg, "cupctl")

	infra, err := bootstrap.Open(c.Context, cfg, log)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log, infra: infra}, nil
}

func (e *env) Close() { e.infra.Close() }

// app builds the application layer. Closing the returned bus waits for
// queued event handlers.
func (e *env) app() (*bootstrap.App, bootstrap.EventBus, error) {
	bus, err := bootstrap.NewEventBus(e.cfg, e.infra, e.log, nil)
	if err != nil {
		return nil, nil, err
	}
	app, err := bootstrap.NewApp(e.cfg, e.infra.Store, bootstrap.AppOptions{
		Publisher: bus,
		Cache:     e.infra.StandingsCache(),
		Logger:    e.log,
	})
	if err != nil {
		_ = bus.Close()
		return nil, nil, err
	}
	return app, bus, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATE
// ══════════════════════════════════════════════════════════════════════════════

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "database migrations",
		Subcommands: []*cli.Command{
			{
				Name:  "up",
				Usage: "apply pending migrations",
				Action: withMigrator(func(c *cli.Context, m *postgres.Migrator) error {
					n, err := m.Migrate(c.Context)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "applied %d migration(s)\n", n)
					return nil
				}),
			},
			{
				Name:  "down",
				Usage: "roll back the last migration",
				Action: withMigrator(func(c *cli.Context, m *postgres.Migrator) error {
					if err := m.Rollback(c.Context); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "rolled back the last migration")
					return nil
				}),
			},
			{
				Name:  "status",
				Usage: "list migrations",
				Action: withMigrator(func(c *cli.Context, m *postgres.Migrator) error {
					list, err := m.Status(c.Context)
					if err != nil {
						return err
					}
					tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "VERSION\tNAME\tSTATUS")
					for _, mig := range list {
						state := "pending"
						if mig.IsApplied {
							state = "applied"
						}
						fmt.Fprintf(tw, "%d\t%s\t%s\n", mig.Version, mig.Name, state)
					}
					return tw.Flush()
				}),
			},
		},
	}
}

func withMigrator(fn func(*cli.Context, *postgres.Migrator) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		e, err := open(c, false)
		if err != nil {
			return err
		}
		defer e.Close()
		if e.infra.Postgres == nil {
			return errors.New("DATABASE_URL is not set")
		}
		return fn(c, postgres.NewMigrator(e.infra.Postgres))
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// REPLAY
// ══════════════════════════════════════════════════════════════════════════════

func replayCommand() *cli.Command {
	return &cli.Command{
		Name:  "replay",
		Usage: "load results from a Telegram Desktop chat export",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "path to result.json", Required: true},
			&cli.BoolFlag{Name: "reset", Usage: "delete all stored results first"},
		},
		Action: func(c *cli.Context) error {
			e, err := open(c, true)
			if err != nil {
				return err
			}
			defer e.Close()

			messages, err := readExport(c.String("file"), e.cfg, e.log)
			if err != nil {
				return err
			}

			app, bus, err := e.app()
			if err != nil {
				return err
			}
			defer bus.Close()

			res, err := app.Replay.Handle(c.Context, command.ReplayHistoryCommand{
				Messages: messages,
				Reset:    c.Bool("reset"),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer,
				"messages: %d  skipped: %d  rejected: %d  inserted: %d  duplicates: %d  (%s)\n",
				res.Total, res.Skipped, res.Rejected, res.Inserted, res.Duplicates, res.Duration.Round(time.Millisecond))
			return nil
		},
	}
}

func readExport(path string, cfg *config.Config, log *slog.Logger) ([]command.HistoricalMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	exp, err := tgclient.ParseExport(f)
	if err != nil {
		return nil, err
	}
	if cfg.Telegram.ChatID != 0 && exp.ChatID() != cfg.Telegram.ChatID {
		log.Warn("export is from another chat", "export_chat_id", exp.ChatID(), "chat_id", cfg.Telegram.ChatID)
	}

	exported, err := exp.UserMessages(cfg.App.Location)
	if err != nil {
		return nil, err
	}
	return historical(exported), nil
}

func historical(in []tgclient.ExportedMessage) []command.HistoricalMessage {
	out := make([]command.HistoricalMessage, 0, len(in))
	for _, m := range in {
		out = append(out, command.HistoricalMessage{
			Text:        m.Text,
			Player:      cup.PlayerID(m.FromID),
			DisplayName: m.From,
			Source:      m.Source,
			SentAt:      m.SentAt,
		})
	}
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// STANDINGS
// ══════════════════════════════════════════════════════════════════════════════

func standingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "standings",
		Usage: "print or export cup standings",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "cup", Usage: `cup key such as "2024-3", or "all"; default is the current cup`},
			&cli.StringFlag{Name: "xlsx", Usage: "write the table to an Excel file"},
		},
		Action: func(c *cli.Context) error {
			window, err := leaderboard.ParseWindow(c.String("cup"))
			if err != nil {
				return err
			}

			e, err := open(c, true)
			if err != nil {
				return err
			}
			defer e.Close()

			app, bus, err := e.app()
			if err != nil {
				return err
			}
			defer bus.Close()

			ranking, err := app.Leaderboard.Ranking(c.Context, window)
			if err != nil {
				return err
			}
			if window.Kind == leaderboard.WindowCurrentCup {
				window = leaderboard.ForCup(app.Leaderboard.CurrentCup())
			}

			if path := c.String("xlsx"); path != "" {
				if err := writeStandingsFile(path, window, ranking, e.cfg.App.Location); err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "wrote %d player(s) to %s\n", ranking.Count(), path)
				return nil
			}
			return printStandings(c.App.Writer, ranking)
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ROLLOVER
// ══════════════════════════════════════════════════════════════════════════════

func rolloverCommand() *cli.Command {
	return &cli.Command{
		Name:  "rollover",
		Usage: "check for an ended cup now and announce it",
		Action: func(c *cli.Context) error {
			e, err := open(c, true)
			if err != nil {
				return err
			}
			defer e.Close()

			app, bus, err := e.app()
			if err != nil {
				return err
			}
			defer bus.Close()

			if e.infra.Redis == nil {
				if err := announceLocally(e, bus); err != nil {
					return err
				}
			}

			res, err := app.Rollover.Handle(c.Context, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "%s: held %s, current %s\n", res.Outcome, res.Held, res.Current)
			for _, r := range res.Ended {
				if r.Winner == nil {
					fmt.Fprintf(c.App.Writer, "  %s: no winner\n", r.Cup)
					continue
				}
				fmt.Fprintf(c.App.Writer, "  %s: %d with %d points\n", r.Cup, *r.Winner, r.Points)
			}
			return nil
		},
	}
}

// announceLocally subscribes the winner announcement in this process. Without
// Redis no bot hears the event, and a closed cup would stay unannounced.
func announceLocally(e *env, bus shared.EventSubscriber) error {
	if !e.cfg.Features.Enabled(config.FeatureCupAnnouncements) {
		return nil
	}
	if e.cfg.Telegram.Token == "" || e.cfg.Telegram.ChatID == 0 {
		return errors.New("rollover without Redis must announce itself: set TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID")
	}

	api, err := tgclient.NewBotAPI(e.cfg.Telegram.Token)
	if err != nil {
		return err
	}
	clientCfg := tgclient.DefaultClientConfig(e.cfg.Telegram.ChatID)
	clientCfg.Logger = e.log
	return subscribeAnnouncer(e.cfg, bus, tgclient.NewClient(api, clientCfg), e.log)
}

func subscribeAnnouncer(cfg *config.Config, bus shared.EventSubscriber, sink eventhandler.AnnouncementSink, log *slog.Logger) error {
	h := eventhandler.NewOnCupEndedHandler(sink, eventhandler.CupEndedConfig{
		Templates:    cfg.Cup.Congratulations,
		FallbackName: cfg.Cup.FallbackName,
		Logger:       log,
	})
	return bus.Subscribe(shared.EventCupEnded, h.Handle)
}
