package catalog

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"assetcatalog/internal/config"
	"assetcatalog/internal/constants"
	"assetcatalog/internal/database"
	"assetcatalog/internal/logger"
	"assetcatalog/internal/pathutil"
)

// fakeApp is a minimal AppState backed by a real SQLite database and a
// temp-directory filesystem, used by every test in this package.
type fakeApp struct {
	db        *sql.DB
	cfg       *config.Config
	log       *logger.Logger
	startedAt time.Time
}

func (a *fakeApp) DB() *sql.DB            { return a.db }
func (a *fakeApp) Config() *config.Config { return a.cfg }
func (a *fakeApp) Logger() *logger.Logger { return a.log }
func (a *fakeApp) Roots() pathutil.Roots  { return a.cfg.PathRoots() }
func (a *fakeApp) StartedAt() time.Time   { return a.startedAt }

func newFakeApp(t *testing.T) (*fakeApp, string, string) {
	t.Helper()

	workDir := t.TempDir()
	inputDir := filepath.Join(workDir, "input")
	outputDir := filepath.Join(workDir, "output")
	checkpoints := filepath.Join(workDir, "models", "checkpoints")
	for _, d := range []string{inputDir, outputDir, checkpoints} {
		if err := os.MkdirAll(d, constants.DirPermissions); err != nil {
			t.Fatalf("mkdir %s: %v", d, err)
		}
	}

	cfg := &config.Config{
		WorkingDirectory: workDir,
		Port:             0,
		Roots: config.RootsConfig{
			Input:  inputDir,
			Output: outputDir,
			Categories: map[string][]string{
				"checkpoints": {checkpoints},
			},
		},
	}
	cfg.ApplyDefaults()

	dbPath := filepath.Join(workDir, "catalog.db")
	db, err := database.InitCatalogDB(dbPath)
	if err != nil {
		t.Fatalf("InitCatalogDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	app := &fakeApp{db: db, cfg: cfg, log: logger.NewLogger(logger.LevelError), startedAt: time.Now()}
	return app, inputDir, outputDir
}
