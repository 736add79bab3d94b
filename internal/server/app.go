package server

import (
	"database/sql"
	"time"

	"assetcatalog/internal/catalog"
	"assetcatalog/internal/config"
	"assetcatalog/internal/logger"
	"assetcatalog/internal/pathutil"
)

// App holds application state and dependencies, implementing
// catalog.AppState so the service layer can reach the database,
// configuration, logger, and resolved roots without depending on this
// package.
type App struct {
	cfg       *config.Config
	log       *logger.Logger
	db        *sql.DB
	startedAt time.Time

	Services *catalog.Services
}

// NewApp wires a catalog database and config into an App, initializing its
// service layer.
func NewApp(cfg *config.Config, db *sql.DB, log *logger.Logger) *App {
	app := &App{
		cfg:       cfg,
		log:       log,
		db:        db,
		startedAt: time.Now(),
	}
	app.Services = catalog.NewServices(app, log)
	return app
}

func (a *App) DB() *sql.DB             { return a.db }
func (a *App) Config() *config.Config  { return a.cfg }
func (a *App) Logger() *logger.Logger  { return a.log }
func (a *App) Roots() pathutil.Roots   { return a.cfg.PathRoots() }
func (a *App) StartedAt() time.Time    { return a.startedAt }
