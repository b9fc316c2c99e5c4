package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "http:\n  port: 9000\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTP.Port != 9000 {
		t.Errorf("Expected port 9000, got %d", cfg.HTTP.Port)
	}
	if cfg.Training.Estimators != 100 {
		t.Errorf("Expected default estimators 100, got %d", cfg.Training.Estimators)
	}
	if cfg.Model.Path == "" {
		t.Error("Expected default model path")
	}
	if len(cfg.HTTP.AllowedOrigins) != 1 || cfg.HTTP.AllowedOrigins[0] != "*" {
		t.Errorf("Expected wildcard default origins, got %v", cfg.HTTP.AllowedOrigins)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"bad port":       "http:\n  port: 99999\n",
		"bad year range": "data:\n  from_year: 2024\n  to_year: 2000\n",
		"bad log level":  "log:\n  level: loud\n",
		"bad folds":      "training:\n  folds: 1\n",
	}
	for name, body := range cases {
		if _, err := Load(writeConfig(t, body)); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.HTTP.Port != 8080 || cfg.Training.Seed != 42 {
		t.Errorf("Unexpected defaults: port=%d seed=%d", cfg.HTTP.Port, cfg.Training.Seed)
	}
}
