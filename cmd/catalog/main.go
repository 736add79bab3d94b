package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"assetcatalog/internal/config"
	"assetcatalog/internal/constants"
	"assetcatalog/internal/database"
	"assetcatalog/internal/logger"
	"assetcatalog/internal/server"
	"assetcatalog/internal/version"
)

func main() {
	// 0. Version flag
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()
	if *showVersion {
		fmt.Printf("%s %s\n", constants.AppDisplayName, version.Version)
		os.Exit(0)
	}

	// 1. Initialize debug logger
	log := logger.NewLogger(constants.DefaultLogLevel)
	log.Info("%s version %s starting", constants.AppDisplayName, version.Version)

	// 2. Load or create config
	log.Info("loading configuration...")
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Error("failed to load config: %v", err)
		os.Exit(1)
	}
	cfg.ApplyDefaults()
	log.Debug("config directory: %s", config.GetConfigDir())
	cfg.LogEffectiveValues(log)

	// 3. Ensure the working directory and its .internal/ layout exist
	if cfg.WorkingDirectory == "" {
		log.Error("working_directory is not set; edit %s and restart", config.GetConfigPath())
		os.Exit(1)
	}
	if err := config.InitializeWorkingDirectory(cfg.WorkingDirectory); err != nil {
		log.Error("failed to initialize working directory: %v", err)
		os.Exit(1)
	}

	// 4. Enable file logging now that the working directory exists
	if err := log.SetWorkDir(cfg.WorkingDirectory); err != nil {
		log.Warn("failed to enable file logging: %v", err)
	}

	// 5. Open the catalog database
	dbPath := filepath.Join(cfg.WorkingDirectory, constants.InternalDir, constants.CatalogDB)
	db, err := database.InitCatalogDB(dbPath)
	if err != nil {
		log.Error("failed to open catalog database: %v", err)
		os.Exit(1)
	}

	// 6. Wire the application and run an initial seed scan of all roots
	app := server.NewApp(cfg, db, log)
	log.Info("running initial seed scan...")
	if result, err := app.Services.Scanner.Seed(app.Roots().All()); err != nil {
		log.Warn("initial seed scan failed: %v", err)
	} else {
		log.Info("initial seed: %d created, %d skipped, %d orphans pruned, %d seen",
			result.Created, result.SkippedExisting, result.OrphansPruned, result.TotalSeen)
	}

	// 7. Start the HTTP server (blocks until shutdown)
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := server.NewServer(app, addr)

	log.Info("starting asset catalog server on port %d", cfg.Port)
	if err := srv.Start(); err != nil {
		log.Error("server error: %v", err)
		os.Exit(1)
	}
}
