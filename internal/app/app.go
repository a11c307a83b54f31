// Package app assembles the application: configuration, logging, database,
// stores, the client service and the Telegram runtime.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/clientdesk/internal/bot"
	"github.com/m3rciful/clientdesk/internal/config"
	"github.com/m3rciful/clientdesk/internal/database"
	"github.com/m3rciful/clientdesk/internal/faces"
	"github.com/m3rciful/clientdesk/internal/logger"
	"github.com/m3rciful/clientdesk/internal/photostore"
	"github.com/m3rciful/clientdesk/internal/service"
	"github.com/m3rciful/clientdesk/internal/storage"
	tg "github.com/m3rciful/clientdesk/internal/telegram"
	"github.com/m3rciful/clientdesk/internal/telegram/router"
	"github.com/m3rciful/clientdesk/internal/telegram/state"
)

// App holds the wired application.
type App struct {
	cfg *config.Config
	db  *sqlx.DB
	bot *bot.Bot
	reg *tg.Registry
}

// Bootstrap initializes the logger, connects to the database, applies
// migrations, and wires the service stack. Any failure here is fatal for the
// process.
func Bootstrap(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config provided")
	}

	if err := logger.Init(cfg.Logging); err != nil {
		return nil, fmt.Errorf("app: logger init failed: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("app: database initialization failed: %w", err)
	}
	if err := database.RunMigrations(cfg.Database); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("app: migrations failed: %w", err)
	}

	photos, err := photostore.NewS3Store(cfg.PhotoStore)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("app: photo store init failed: %w", err)
	}

	var encoder faces.Encoder
	var matcher *faces.Matcher
	if cfg.Faces.Enabled {
		encoder = faces.NewHTTPEncoder(cfg.Faces.Endpoint)
		matcher = faces.NewMatcher(cfg.Faces.Tolerance)
	}

	store := storage.NewPostgresStore(db)
	svc := service.NewClients(store, photos, encoder, matcher)

	b := bot.New(svc, state.NewMemoryManager())
	reg := tg.NewRegistry()
	b.Install(reg)

	logger.Info(logger.Background(), "app", "wired",
		slog.Bool("faces_enabled", cfg.Faces.Enabled),
	)

	return &App{cfg: cfg, db: db, bot: b, reg: reg}, nil
}

// TelegramRunOptions builds the bot runtime configuration.
func (a *App) TelegramRunOptions() tg.RunOptions {
	routes := router.TextRoutes(a.bot.Sessions(), a.reg, router.TextOptions{
		IdlePhoto: a.bot.IdlePhotoHandler(),
	})
	routes = append(routes, router.CallbackRoute(a.reg, router.CallbackOptions{}))

	return tg.RunOptions{
		Config:      a.cfg,
		Registry:    a.reg,
		Middlewares: tg.DefaultMiddlewares(a.cfg, nil),
		Routes:      routes,
		OnStop: func(ctx context.Context, rt tg.Runtime) error {
			return a.Close()
		},
	}
}

// Close releases the database pool.
func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
