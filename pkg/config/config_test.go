package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to change directory: %v", err)
	}
	t.Cleanup(func() {
		os.Chdir(originalDir)
	})
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	tmpDir := t.TempDir()

	doc := map[string]any{
		"env":  "test",
		"town": "Waitsfield",
		"database": map[string]any{
			"host":     "db.example.com",
			"port":     5432,
			"user":     "testuser",
			"database": "testdb",
		},
		"matcher": map[string]any{
			"max_centroid_distance_m": 150,
		},
	}
	raw, err := yaml.Marshal(doc)
	if err != nil {
		t.Fatalf("failed to marshal test config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "config.yaml"), raw, 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	chdir(t, tmpDir)

	os.Unsetenv("PGHOST")
	os.Unsetenv("TOWN")

	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PGUSER", "envuser")

	cfg, err := Load("test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Env != "production" {
		t.Errorf("expected Env=production (from env), got %s", cfg.Env)
	}
	if cfg.Database.User != "envuser" {
		t.Errorf("expected Database.User=envuser (from env), got %s", cfg.Database.User)
	}
	if cfg.Database.Host != "db.example.com" {
		t.Errorf("expected Database.Host from YAML, got %s", cfg.Database.Host)
	}
	if cfg.Town != "Waitsfield" {
		t.Errorf("expected Town from YAML, got %s", cfg.Town)
	}
	if cfg.Matcher.MaxCentroidDistanceM != 150 {
		t.Errorf("expected MaxCentroidDistanceM=150 from YAML, got %f", cfg.Matcher.MaxCentroidDistanceM)
	}
	if cfg.Version != "test-version" {
		t.Errorf("expected Version=test-version, got %s", cfg.Version)
	}
}

func TestLoad_DefaultsWithoutYAML(t *testing.T) {
	chdir(t, t.TempDir())

	for _, key := range []string{"PGHOST", "PGPORT", "PGUSER", "PGDATABASE", "TOWN", "BATCH_COMMIT_WINDOW"} {
		os.Unsetenv(key)
	}

	cfg, err := Load("dev")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Town != "Warren" {
		t.Errorf("expected default town Warren, got %s", cfg.Town)
	}
	if cfg.Batch.CommitWindow != 200 {
		t.Errorf("expected default commit window 200, got %d", cfg.Batch.CommitWindow)
	}
	if cfg.Matcher.MaxCentroidDistanceM != 200 {
		t.Errorf("expected default centroid distance 200, got %f", cfg.Matcher.MaxCentroidDistanceM)
	}
	if cfg.Matcher.ConfidenceFloor != 0.45 {
		t.Errorf("expected default confidence floor 0.45, got %f", cfg.Matcher.ConfidenceFloor)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	chdir(t, t.TempDir())

	t.Setenv("BATCH_COMMIT_WINDOW", "0")

	_, err := Load("dev")
	if err == nil {
		t.Fatal("expected error for commit_window=0")
	}
	if !strings.Contains(err.Error(), "commit_window") {
		t.Errorf("expected commit_window in error, got %v", err)
	}
}

func TestConnectionString(t *testing.T) {
	dc := &DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "parcelgraph",
		Password: "secret",
		Database: "parcelgraph",
		SSLMode:  "disable",
	}

	got := dc.ConnectionString()
	want := "host=localhost port=5432 user=parcelgraph password=secret dbname=parcelgraph sslmode=disable"
	if got != want {
		t.Errorf("ConnectionString() = %q, want %q", got, want)
	}
}
