package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"rotabot/internal/adapters/console"
	"rotabot/internal/adapters/discord"
	"rotabot/internal/adapters/scheduler"
	"rotabot/internal/application"
	"rotabot/internal/config"
	"rotabot/internal/domain/entities"
	"rotabot/internal/infrastructure/database"
	"rotabot/internal/infrastructure/i18n"
	"rotabot/internal/infrastructure/notify"
	"rotabot/internal/infrastructure/sqlite"
	"rotabot/internal/ports/output"
	"rotabot/pkg/clock"
)

type flags struct {
	envFile     string
	migrateOnly bool
	console     bool
	actor       string
	logFile     string
}

func main() {
	var f flags
	pflag.StringVar(&f.envFile, "env-file", "", "fichier .env à charger")
	pflag.BoolVar(&f.migrateOnly, "migrate-only", false, "applique les migrations puis quitte")
	pflag.BoolVar(&f.console, "console", false, "dialogue dans le terminal au lieu de Discord")
	pflag.StringVar(&f.actor, "actor", "", "pseudo utilisé en mode console (défaut: $USER)")
	pflag.StringVar(&f.logFile, "log-file", "rotabot-console.log", "journal du mode console")
	pflag.Parse()

	if err := run(f); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func run(f flags) error {
	cfg, err := config.Load(config.Options{EnvFile: f.envFile, Console: f.console})
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(cfg, f)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	if f.migrateOnly {
		logger.Info("✅ Migrations appliquées", "driver", cfg.StorageDriver)
		return nil
	}

	translator, err := i18n.NewTranslator(cfg.DefaultLocale, logger)
	if err != nil {
		return err
	}
	logger.Info("✅ Traductions chargées", "languages", translator.Languages())
	templates, err := config.LoadTemplates(cfg.TemplatesFile)
	if err != nil {
		return err
	}

	clk := clock.Real()
	loc := cfg.Location()

	var (
		sink    notify.Sink = notify.LogSink{Logger: logger}
		session *discordgo.Session
	)
	if !f.console {
		session, err = discord.NewSession(cfg.Token)
		if err != nil {
			return err
		}
		sink = discord.NewNotifySink(session, cfg.NotifyChannelID, cfg.AdminIDs)
	}
	dispatcher := notify.NewDispatcher(sink, cfg.NotifyQueueSize, logger)

	catalog := application.NewCatalog(store, templates, translator, clk, loc, logger)
	registry := application.NewRegistry(store, dispatcher, translator, cfg.DefaultLocale, clk, loc, logger)
	flow := application.NewFlow(catalog, registry, clk, logger)
	sessions := application.NewSessionStore(clk)
	admin := application.NewAdminEditor(store, catalog, dispatcher, translator, cfg.DefaultLocale, cfg.StrictTimeFormat, logger)

	if err := catalog.BootstrapRoles(ctx); err != nil {
		return fmt.Errorf("bootstrap roles: %w", err)
	}
	if err := catalog.EnsureCurrentWeek(ctx); err != nil {
		return fmt.Errorf("materialize week: %w", err)
	}

	sched, err := scheduler.New(scheduler.Options{
		MaterializeSpec: cfg.MaterializeCron,
		ReaperSpec:      cfg.ReaperCron,
		SessionIdle:     cfg.SessionIdleTimeout,
		Location:        loc,
	}, catalog, sessions, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return dispatcher.Run(ctx) })
	g.Go(func() error { return sched.Run(ctx) })

	if f.console {
		actor := consoleActor(f.actor)
		m := console.NewModel(console.Deps{
			Catalog:    catalog,
			Registry:   registry,
			Flow:       flow,
			Sessions:   sessions,
			Translator: translator,
		}, actor, cfg.DefaultLocale)
		g.Go(func() error {
			defer cancel()
			return console.Run(ctx, m)
		})
	} else {
		bot := discord.NewBot(session, cfg.GuildID, cfg.DefaultLocale, discord.Deps{
			Catalog:    catalog,
			Registry:   registry,
			Flow:       flow,
			Admin:      admin,
			Sessions:   sessions,
			Translator: translator,
			IsAdmin:    cfg.IsAdmin,
		}, logger)
		g.Go(func() error { return bot.Start(ctx) })
	}

	err = g.Wait()
	logger.Info("Arrêt terminé")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func newLogger(cfg *config.Config, f flags) (*slog.Logger, func(), error) {
	lvl, err := cfg.Level()
	if err != nil {
		return nil, nil, err
	}
	var (
		w       io.Writer = os.Stderr
		closeFn           = func() {}
	)
	// Le terminal appartient à l'interface en mode console.
	if f.console {
		file, err := os.OpenFile(f.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = file
		closeFn = func() { _ = file.Close() }
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), closeFn, nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (output.Store, error) {
	switch cfg.StorageDriver {
	case config.DriverSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		logger.Info("✅ Base SQLite ouverte", "path", cfg.SQLitePath)
		return store, nil
	default:
		if err := database.RunMigrations(cfg.DatabaseURL, logger); err != nil {
			return nil, err
		}
		pool, err := database.NewPool(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, fmt.Errorf("initialisation de la base de données: %w", err)
		}
		return database.NewStore(pool), nil
	}
}

func consoleActor(handle string) entities.Actor {
	if handle == "" {
		handle = os.Getenv("USER")
	}
	if handle == "" {
		handle = "local"
	}
	return entities.Actor{ID: "console:" + handle, Handle: handle}
}
