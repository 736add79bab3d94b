package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"assetcatalog/internal/constants"
	"assetcatalog/internal/logger"
	"assetcatalog/internal/pathutil"
)

// RootsConfig holds the absolute base paths the scanner and path classifier
// resolve against. Categories are only meaningful under the models root; a
// category may be backed by more than one base path.
type RootsConfig struct {
	Input      string              `yaml:"input"`
	Output     string              `yaml:"output"`
	Categories map[string][]string `yaml:"categories"` // category -> base paths (models root)
}

// Config holds all application configuration.
type Config struct {
	WorkingDirectory string      `yaml:"working_directory"`
	Port             int         `yaml:"port"`
	Roots            RootsConfig `yaml:"roots"`

	// ScanIntervalMins, when non-zero, starts a periodic background scan in
	// addition to the on-demand POST /api/assets/seed trigger.
	ScanIntervalMins int `yaml:"scan_interval_mins"`

	MaxMetadataValueBytes int `yaml:"max_metadata_value_bytes"`
}

// ApplyDefaults fills zero-valued fields with constant defaults.
func (cfg *Config) ApplyDefaults() {
	if cfg.Port == 0 {
		cfg.Port = constants.DefaultPort
	}
	if cfg.MaxMetadataValueBytes == 0 {
		cfg.MaxMetadataValueBytes = 10 * 1024 * 1024
	}
}

// validate checks that all configurable values are within acceptable ranges.
func (cfg *Config) validate() error {
	var errs []string

	if cfg.Port < 1 || cfg.Port > 65535 {
		errs = append(errs, "port must be between 1 and 65535")
	}
	if cfg.ScanIntervalMins < 0 {
		errs = append(errs, "scan_interval_mins must be >= 0")
	}
	if cfg.MaxMetadataValueBytes < 1 {
		errs = append(errs, "max_metadata_value_bytes must be >= 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// LogEffectiveValues logs all effective configuration values at startup.
func (cfg *Config) LogEffectiveValues(log *logger.Logger) {
	log.Info("config: working_directory=%s", cfg.WorkingDirectory)
	log.Info("config: port=%d", cfg.Port)
	log.Info("config: roots.input=%s", cfg.Roots.Input)
	log.Info("config: roots.output=%s", cfg.Roots.Output)
	log.Info("config: roots.categories=%d configured", len(cfg.Roots.Categories))
	log.Info("config: scan_interval_mins=%d", cfg.ScanIntervalMins)
	log.Info("config: max_metadata_value_bytes=%d", cfg.MaxMetadataValueBytes)
}

// PathRoots converts the YAML-facing RootsConfig into the pathutil.Roots
// the classifier and scanner operate on.
func (cfg *Config) PathRoots() pathutil.Roots {
	return pathutil.Roots{
		Input:      cfg.Roots.Input,
		Output:     cfg.Roots.Output,
		Categories: cfg.Roots.Categories,
	}
}

func GetConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, constants.ConfigDir)
}

func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), constants.ConfigFile)
}

func EnsureConfigDir() error {
	configDir := GetConfigDir()
	return os.MkdirAll(configDir, constants.DirPermissions)
}

func LoadConfig() (*Config, error) {
	if err := EnsureConfigDir(); err != nil {
		return nil, err
	}

	configPath := GetConfigPath()

	_, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		cfg := &Config{}
		cfg.ApplyDefaults()

		if err := SaveConfig(cfg); err != nil {
			return nil, err
		}

		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveConfig(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	configPath := GetConfigPath()
	return os.WriteFile(configPath, data, constants.FilePermissions)
}
