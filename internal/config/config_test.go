package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}
	if cfg.Database.Path != defaultDatabasePath {
		t.Errorf("Database.Path = %s, want %s", cfg.Database.Path, defaultDatabasePath)
	}
	if cfg.Server.Addr != defaultAddr {
		t.Errorf("Server.Addr = %s, want %s", cfg.Server.Addr, defaultAddr)
	}
	if cfg.Server.ShutdownTimeout.Duration() != 10*time.Second {
		t.Errorf("Server.ShutdownTimeout = %s, want 10s", cfg.Server.ShutdownTimeout.Duration())
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "console" {
		t.Errorf("Log = %s/%s, want info/console", cfg.Log.Level, cfg.Log.Format)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestApplyDefaultsLogRotation(t *testing.T) {
	cfg := &Config{Log: LogConfig{File: "/var/log/relgraph.log", MaxBackups: 7}}
	cfg.applyDefaults()

	if cfg.Log.MaxSizeMB != 100 {
		t.Errorf("MaxSizeMB = %d, want 100", cfg.Log.MaxSizeMB)
	}
	if cfg.Log.MaxBackups != 7 {
		t.Errorf("MaxBackups = %d, want 7 (explicit)", cfg.Log.MaxBackups)
	}

	// Rotation settings stay zero without a file
	cfg = DefaultConfig()
	if cfg.Log.MaxSizeMB != 0 {
		t.Errorf("MaxSizeMB = %d, want 0 without a log file", cfg.Log.MaxSizeMB)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"debug level", func(c *Config) { c.Log.Level = "debug" }, false},
		{"json format", func(c *Config) { c.Log.Format = "json" }, false},
		{"unknown level", func(c *Config) { c.Log.Level = "verbose" }, true},
		{"unknown format", func(c *Config) { c.Log.Format = "xml" }, true},
		{"negative timeout", func(c *Config) { c.Server.ReadTimeout = Duration(-time.Second) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	// Create temp directory
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "config.yaml")

	// Create and save config
	cfg := DefaultConfig()
	cfg.Database.Path = "/data/relgraph.db"
	cfg.Server.Addr = "127.0.0.1:8080"
	cfg.Server.WriteTimeout = Duration(30 * time.Second)
	cfg.Log.Format = "json"

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	// Load config
	loaded, path, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}
	if path != configPath {
		t.Errorf("path = %s, want %s", path, configPath)
	}

	// Verify values
	if loaded.Database.Path != "/data/relgraph.db" {
		t.Errorf("Database.Path = %s, want /data/relgraph.db", loaded.Database.Path)
	}
	if loaded.Server.Addr != "127.0.0.1:8080" {
		t.Errorf("Server.Addr = %s, want 127.0.0.1:8080", loaded.Server.Addr)
	}
	if loaded.Server.WriteTimeout.Duration() != 30*time.Second {
		t.Errorf("Server.WriteTimeout = %s, want 30s", loaded.Server.WriteTimeout.Duration())
	}
	if loaded.Log.Format != "json" {
		t.Errorf("Log.Format = %s, want json", loaded.Log.Format)
	}
}

func TestLoadFromPathPartialFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("database:\n  path: \":memory:\"\nlog:\n  level: debug\n")
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, _, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}
	if cfg.Database.Path != ":memory:" {
		t.Errorf("Database.Path = %s, want :memory:", cfg.Database.Path)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %s, want debug", cfg.Log.Level)
	}
	// Missing sections get defaults
	if cfg.Server.Addr != defaultAddr {
		t.Errorf("Server.Addr = %s, want %s", cfg.Server.Addr, defaultAddr)
	}
}

func TestLoadFromPathInvalid(t *testing.T) {
	dir := t.TempDir()

	badYAML := filepath.Join(dir, "bad.yaml")
	os.WriteFile(badYAML, []byte("server: [unclosed"), 0644)
	if _, _, err := LoadFromPath(badYAML); err == nil {
		t.Error("LoadFromPath() should fail on malformed YAML")
	}

	badLevel := filepath.Join(dir, "level.yaml")
	os.WriteFile(badLevel, []byte("log:\n  level: loud\n"), 0644)
	if _, _, err := LoadFromPath(badLevel); err == nil {
		t.Error("LoadFromPath() should fail on unknown log level")
	}

	if _, _, err := LoadFromPath(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("LoadFromPath() should fail on missing file")
	}
}

func TestFindConfigPath(t *testing.T) {
	// Create temp directory with config
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ConfigFileName)

	cfg := DefaultConfig()
	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	// Set working directory to temp
	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	// Should find config in working directory
	found := FindConfigPath()
	if found == "" {
		t.Error("FindConfigPath() should find config in working directory")
	}

	// Explicit path doesn't exist, should fall back
	t.Setenv(EnvConfigPath, "/nonexistent/path.yaml")
	found = FindConfigPath()
	if found == "" {
		t.Error("FindConfigPath() should fall back when env path doesn't exist")
	}

	// Explicit path exists, should win
	explicit := filepath.Join(t.TempDir(), "explicit.yaml")
	if err := cfg.Save(explicit); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	t.Setenv(EnvConfigPath, explicit)
	if found := FindConfigPath(); found != explicit {
		t.Errorf("FindConfigPath() = %s, want %s", found, explicit)
	}
}

func TestSearchPathsOrder(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv(EnvConfigPath, "/explicit.yaml")
	t.Setenv("XDG_CONFIG_HOME", xdg)

	paths := SearchPaths()
	if paths[0] != "/explicit.yaml" {
		t.Errorf("paths[0] = %s, want /explicit.yaml", paths[0])
	}
	if filepath.Base(paths[1]) != ConfigFileName {
		t.Errorf("paths[1] = %s, want working directory %s", paths[1], ConfigFileName)
	}
	if paths[2] != filepath.Join(xdg, ConfigDirName, "config.yaml") {
		t.Errorf("paths[2] = %s, want XDG path", paths[2])
	}
	if last := paths[len(paths)-1]; last != "/etc/relgraph/config.yaml" {
		t.Errorf("last path = %s, want /etc/relgraph/config.yaml", last)
	}
}

func TestDuration(t *testing.T) {
	d := Duration(5 * time.Minute)

	if d.Duration() != 5*time.Minute {
		t.Errorf("Duration() = %s, want 5m", d.Duration())
	}

	// Test YAML marshaling
	marshaled, err := d.MarshalYAML()
	if err != nil {
		t.Fatalf("MarshalYAML() error: %v", err)
	}
	if marshaled != "5m0s" {
		t.Errorf("MarshalYAML() = %v, want 5m0s", marshaled)
	}
}
