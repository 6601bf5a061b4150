package config

import (
	"os"
	"path/filepath"
	"testing"
)

type sample struct {
	Port    string `env:"CONFIG_TEST_PORT" envDefault:"8080"`
	Limit   int    `env:"CONFIG_TEST_LIMIT" envDefault:"10"`
	Enabled bool   `env:"CONFIG_TEST_ENABLED" envDefault:"true"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg sample
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Port != "8080" || cfg.Limit != 10 || !cfg.Enabled {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_TEST_PORT", "9000")
	t.Setenv("CONFIG_TEST_LIMIT", "3")
	t.Setenv("CONFIG_TEST_ENABLED", "false")

	var cfg sample
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Port != "9000" || cfg.Limit != 3 || cfg.Enabled {
		t.Fatalf("unexpected values %+v", cfg)
	}
}

func TestParseEnvRejectsBadInt(t *testing.T) {
	t.Setenv("CONFIG_TEST_LIMIT", "lots")
	var cfg sample
	if err := ParseEnv(&cfg); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadDotEnvSkipsMissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing file should be skipped: %v", err)
	}
}

func TestLoadReadsDotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("CONFIG_TEST_PORT=7070\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	// Register cleanup for the variable godotenv sets.
	t.Setenv("CONFIG_TEST_PORT", "")
	os.Unsetenv("CONFIG_TEST_PORT")

	var cfg sample
	if err := Load(&cfg, path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "7070" {
		t.Fatalf("expected port from file, got %q", cfg.Port)
	}
}
