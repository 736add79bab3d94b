package config

import (
	"fmt"
	"os"
	"path/filepath"

	"assetcatalog/internal/constants"
)

func ValidateWorkingDirectory(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("directory does not exist")
	}
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return fmt.Errorf("path is not a directory")
	}

	return nil
}

func InitializeWorkingDirectory(path string) error {
	if err := ValidateWorkingDirectory(path); err != nil {
		return err
	}

	// Create .internal/ subdirectory
	internalDir := filepath.Join(path, constants.InternalDir)
	if err := os.MkdirAll(internalDir, constants.DirPermissions); err != nil {
		return err
	}

	// Create logs directories
	logsBaseDir := filepath.Join(internalDir, constants.LogsDir)
	logSubDirs := []string{
		constants.LogsDirDebug,
		constants.LogsDirInfo,
		constants.LogsDirWarn,
		constants.LogsDirError,
	}
	for _, subDir := range logSubDirs {
		logDir := filepath.Join(logsBaseDir, subDir)
		if err := os.MkdirAll(logDir, constants.DirPermissions); err != nil {
			return fmt.Errorf("failed to create log directory %s: %w", logDir, err)
		}
	}

	// Create catalog.db if it doesn't exist
	catalogPath := filepath.Join(internalDir, constants.CatalogDB)
	if _, err := os.Stat(catalogPath); os.IsNotExist(err) {
		// Create empty file
		file, err := os.Create(catalogPath)
		if err != nil {
			return err
		}
		file.Close()
	}

	return nil
}

func SetWorkingDirectory(cfg *Config, path string) error {
	if err := ValidateWorkingDirectory(path); err != nil {
		return err
	}

	if err := InitializeWorkingDirectory(path); err != nil {
		return err
	}

	cfg.WorkingDirectory = path

	return SaveConfig(cfg)
}
