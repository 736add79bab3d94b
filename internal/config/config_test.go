package config

import (
	"os"
	"path/filepath"
	"testing"

	"assetcatalog/internal/constants"
)

// setTestHome overrides HOME so GetConfigDir/GetConfigPath use a temp directory.
func setTestHome(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	originalHome := os.Getenv("HOME")
	os.Setenv("HOME", tmpDir)
	t.Cleanup(func() { os.Setenv("HOME", originalHome) })
	return tmpDir
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	if cfg.Port != constants.DefaultPort {
		t.Errorf("Port: got %d, want %d", cfg.Port, constants.DefaultPort)
	}
	if cfg.MaxMetadataValueBytes != 10*1024*1024 {
		t.Errorf("MaxMetadataValueBytes: got %d, want %d", cfg.MaxMetadataValueBytes, 10*1024*1024)
	}
	if cfg.ScanIntervalMins != 0 {
		t.Errorf("ScanIntervalMins: got %d, want 0 (disabled by default)", cfg.ScanIntervalMins)
	}
}

func TestApplyDefaults_DoesNotOverrideExplicitValues(t *testing.T) {
	cfg := &Config{Port: 9999, MaxMetadataValueBytes: 42, ScanIntervalMins: 5}
	cfg.ApplyDefaults()

	if cfg.Port != 9999 {
		t.Errorf("Port was overridden: got %d", cfg.Port)
	}
	if cfg.MaxMetadataValueBytes != 42 {
		t.Errorf("MaxMetadataValueBytes was overridden: got %d", cfg.MaxMetadataValueBytes)
	}
	if cfg.ScanIntervalMins != 5 {
		t.Errorf("ScanIntervalMins was overridden: got %d", cfg.ScanIntervalMins)
	}
}

func TestValidate_RejectsBadPort(t *testing.T) {
	cfg := &Config{Port: 0, MaxMetadataValueBytes: 1}
	if err := cfg.validate(); err == nil {
		t.Error("expected validation error for port 0")
	}

	cfg.Port = 70000
	if err := cfg.validate(); err == nil {
		t.Error("expected validation error for port 70000")
	}
}

func TestValidate_RejectsNegativeScanInterval(t *testing.T) {
	cfg := &Config{Port: constants.DefaultPort, MaxMetadataValueBytes: 1, ScanIntervalMins: -1}
	if err := cfg.validate(); err == nil {
		t.Error("expected validation error for negative scan_interval_mins")
	}
}

func TestValidate_AcceptsDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	if err := cfg.validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadConfig_CreatesDefaultWhenMissing(t *testing.T) {
	setTestHome(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != constants.DefaultPort {
		t.Errorf("Port: got %d, want %d", cfg.Port, constants.DefaultPort)
	}

	if _, err := os.Stat(GetConfigPath()); err != nil {
		t.Errorf("expected config file to be written: %v", err)
	}
}

func TestSaveConfig_RoundTrips(t *testing.T) {
	setTestHome(t)

	cfg := &Config{
		WorkingDirectory: "/data/catalog",
		Port:             9001,
		Roots: RootsConfig{
			Input:  "/data/catalog/input",
			Output: "/data/catalog/output",
			Categories: map[string][]string{
				"checkpoints": {"/data/catalog/models/checkpoints"},
			},
		},
		ScanIntervalMins:      15,
		MaxMetadataValueBytes: 2048,
	}
	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.WorkingDirectory != cfg.WorkingDirectory {
		t.Errorf("WorkingDirectory: got %q, want %q", loaded.WorkingDirectory, cfg.WorkingDirectory)
	}
	if loaded.Port != cfg.Port {
		t.Errorf("Port: got %d, want %d", loaded.Port, cfg.Port)
	}
	if loaded.Roots.Input != cfg.Roots.Input {
		t.Errorf("Roots.Input: got %q, want %q", loaded.Roots.Input, cfg.Roots.Input)
	}
	if len(loaded.Roots.Categories["checkpoints"]) != 1 {
		t.Errorf("Roots.Categories[checkpoints]: got %v", loaded.Roots.Categories["checkpoints"])
	}
}

func TestPathRoots_ConvertsFields(t *testing.T) {
	cfg := &Config{
		Roots: RootsConfig{
			Input:  "/in",
			Output: "/out",
			Categories: map[string][]string{
				"loras": {"/models/loras"},
			},
		},
	}
	roots := cfg.PathRoots()
	if roots.Input != "/in" || roots.Output != "/out" {
		t.Errorf("unexpected roots: %+v", roots)
	}
	if len(roots.Categories["loras"]) != 1 || roots.Categories["loras"][0] != "/models/loras" {
		t.Errorf("unexpected categories: %+v", roots.Categories)
	}
}

func TestGetConfigPath_UnderConfigDir(t *testing.T) {
	home := setTestHome(t)
	want := filepath.Join(home, constants.ConfigDir, constants.ConfigFile)
	if got := GetConfigPath(); got != want {
		t.Errorf("GetConfigPath: got %q, want %q", got, want)
	}
}
