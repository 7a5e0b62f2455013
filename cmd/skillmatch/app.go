// cmd/skillmatch/app.go
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"skillmatch/internal/accounts"
	"skillmatch/internal/backend"
	"skillmatch/internal/candidate"
	"skillmatch/internal/common/auth"
	awsclient "skillmatch/internal/common/aws"
	"skillmatch/internal/common/config"
	"skillmatch/internal/common/database"
	"skillmatch/internal/common/logger"
	"skillmatch/internal/dashboard"
	candidatesearch "skillmatch/internal/dashboard/candidate-search"
	"skillmatch/internal/documents"
	"skillmatch/internal/notifier"
	"skillmatch/internal/profile"
	"skillmatch/internal/session"
)

// App holds everything a command needs, built from configuration.
type App struct {
	Config    *config.Config
	Zap       *zap.Logger
	Logger    logger.Logger
	Documents documents.Store
	Backend   *backend.Client
	Searcher  candidatesearch.Searcher
	Session   *session.Context
	Auth      *session.KeycloakAuthenticator
	Accounts  *accounts.Registrar
	Resolver  *profile.Resolver
	Dashboard *dashboard.Dashboard
	Resumes   *candidate.Service

	pings   map[string]func(ctx context.Context) error
	closers []func() error
}

func loadConfig(cmd *cli.Command) (*config.Config, error) {
	if path := cmd.String("config"); path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func newApp(ctx context.Context, cmd *cli.Command) (*App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	if lvl := cmd.String("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{"app": cfg.App.Name})

	app := &App{
		Config:  cfg,
		Zap:     zapLog,
		Logger:  log,
		Session: session.NewContext(),
		pings:   map[string]func(ctx context.Context) error{},
	}

	if err := app.initDocuments(ctx); err != nil {
		app.Close()
		return nil, err
	}

	app.Backend = backend.NewClient(backend.LoadConfig(cfg.Backend), log)
	if err := app.initSearcher(ctx); err != nil {
		app.Close()
		return nil, err
	}

	kc := cfg.Auth.Keycloak
	identity := auth.NewKeycloakClient(kc.URL, kc.Realm, kc.ClientID, kc.ClientSecret)
	app.Auth = session.NewKeycloakAuthenticator(identity, app.Session, log)
	app.Accounts = accounts.NewRegistrar(identity, app.Documents, log)
	app.Resolver = profile.NewResolver(app.Documents, log)
	app.Resumes = candidate.NewService(app.Backend, app.Documents, log)

	deps := dashboard.Deps{
		Session:   app.Session,
		Resolver:  app.Resolver,
		Documents: app.Documents,
		Poster:    app.Backend,
		Searcher:  app.Searcher,
	}
	if cfg.Notifications.SES.Enabled {
		ses, err := awsclient.NewSESClient(ctx, cfg.Notifications.SES.Region, cfg.Notifications.SES.FromEmail)
		if err != nil {
			app.Close()
			return nil, err
		}
		deps.Notifier = notifier.NewReceiptNotifier(ses, log)
	}

	dashCfg, err := dashboard.LoadConfig(cfg.Dashboard, cfg.Search)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("dashboard config: %w", err)
	}
	app.Dashboard = dashboard.New(dashCfg, deps, log)
	app.closers = append(app.closers, func() error { app.Dashboard.Close(); return nil })

	return app, nil
}

func (a *App) initDocuments(ctx context.Context) error {
	cfg := a.Config

	var store documents.Store
	switch cfg.Documents.Driver {
	case "postgres":
		var pg *database.PostgresClient
		err := retryWithBackoff(ctx, func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 10, 2*time.Second, a.Logger, "PostgreSQL connection")
		if err != nil {
			return err
		}
		a.closers = append(a.closers, pg.Close)
		a.pings["postgres"] = pg.Ping

		pgStore := documents.NewPostgresStore(pg)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure documents schema: %w", err)
		}
		store = pgStore
		a.Logger.Info("PostgreSQL connected successfully", nil)

	case "sqlite":
		lite, err := database.NewSQLite(cfg.Database.SQLite)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, lite.Close)
		a.pings["sqlite"] = lite.Ping

		liteStore, err := documents.NewSQLiteStore(lite)
		if err != nil {
			return err
		}
		store = liteStore
		a.Logger.Info("SQLite document store opened", map[string]interface{}{"path": cfg.Database.SQLite.Path})

	case "memory":
		store = documents.NewMemoryStore()

	default:
		return fmt.Errorf("unsupported documents driver %q", cfg.Documents.Driver)
	}

	if cfg.Documents.CacheTTL > 0 {
		rdb := database.NewRedis(cfg.Database.Redis)
		err := retryWithBackoff(ctx, func() error { return rdb.Ping(ctx) }, 5, time.Second, a.Logger, "Redis connection")
		if err != nil {
			_ = rdb.Close()
			return err
		}
		a.closers = append(a.closers, rdb.Close)
		a.pings["redis"] = rdb.Ping
		store = documents.NewCachedStore(store, rdb.Client, config.GetDuration(cfg.Documents.CacheTTL), a.Logger)
		a.Logger.Info("Redis document cache enabled", nil)
	}

	a.Documents = store
	return nil
}

func (a *App) initSearcher(ctx context.Context) error {
	cfg := a.Config
	if cfg.Search.Provider != "elasticsearch" {
		a.Searcher = a.Backend
		return nil
	}

	var es *database.ElasticsearchClient
	err := retryWithBackoff(ctx, func() error {
		var err error
		es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return es.Ping(ctx)
	}, 10, 2*time.Second, a.Logger, "Elasticsearch connection")
	if err != nil {
		return err
	}
	a.pings["elasticsearch"] = es.Ping
	a.Searcher = backend.NewElasticsearchSearcher(es.Client, cfg.Search.Index, cfg.Search.MaxHits, a.Logger)
	a.Logger.Info("Elasticsearch connected successfully", nil)
	return nil
}

// Ready pings every configured dependency.
func (a *App) Ready(ctx context.Context) error {
	for name, ping := range a.pings {
		if err := ping(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// SignIn logs in with flags or, failing that, the configured service account.
func (a *App) SignIn(ctx context.Context, cmd *cli.Command) error {
	username := cmd.String("username")
	password := cmd.String("password")
	if username == "" {
		username = a.Config.Auth.Keycloak.Username
	}
	if password == "" {
		password = a.Config.Auth.Keycloak.Password
	}
	_, err := a.Auth.Login(ctx, username, password)
	return err
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Warn("close failed", map[string]interface{}{"error": err})
		}
	}
	_ = a.Zap.Sync()
}
