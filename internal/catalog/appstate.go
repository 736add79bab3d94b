// Package catalog implements the ingest, reconciliation, management, and
// download services that make up this asset catalog's business logic. HTTP
// handlers delegate to these services for everything but request parsing
// and response encoding.
package catalog

import (
	"database/sql"
	"time"

	"assetcatalog/internal/config"
	"assetcatalog/internal/logger"
	"assetcatalog/internal/pathutil"
)

// AppState decouples services from the concrete application type, the way
// the teacher's services package depends on an AppState interface rather
// than a live *App. This catalog is single-database, so the interface is
// far smaller than the teacher's multi-topic one: one *sql.DB, one set of
// roots, no per-topic registry or write mutexes (see DESIGN.md for why).
type AppState interface {
	DB() *sql.DB
	Config() *config.Config
	Logger() *logger.Logger
	Roots() pathutil.Roots
	StartedAt() time.Time
}
