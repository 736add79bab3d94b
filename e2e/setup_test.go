// Package e2e drives the catalog's HTTP surface end-to-end against a real
// SQLite database and a temp-directory filesystem, the way the teacher's
// e2e suite drove its multi-topic server.
package e2e

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"assetcatalog/internal/config"
	"assetcatalog/internal/constants"
	"assetcatalog/internal/database"
	"assetcatalog/internal/logger"
	"assetcatalog/internal/server"
)

// testEnv bundles a running test server with the directories it scans.
type testEnv struct {
	srv         *httptest.Server
	workDir     string
	inputDir    string
	outputDir   string
	checkpoints string
}

func newTestEnv(t *testing.T) *testEnv {
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

	if err := config.InitializeWorkingDirectory(workDir); err != nil {
		t.Fatalf("InitializeWorkingDirectory: %v", err)
	}

	dbPath := filepath.Join(workDir, constants.InternalDir, constants.CatalogDB)
	db, err := database.InitCatalogDB(dbPath)
	if err != nil {
		t.Fatalf("InitCatalogDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	log := logger.NewLogger(logger.LevelError)
	app := server.NewApp(cfg, db, log)
	httpSrv := httptest.NewServer(server.NewServer(app, "").Handler())
	t.Cleanup(httpSrv.Close)

	return &testEnv{srv: httpSrv, workDir: workDir, inputDir: inputDir, outputDir: outputDir, checkpoints: checkpoints}
}

func (e *testEnv) url(path string) string {
	return e.srv.URL + path
}
