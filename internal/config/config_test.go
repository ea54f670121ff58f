package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := "server:\n  port: \"9090\"\nmedia:\n  generation_dir: /srv/gen\ngenerator:\n  timeout: 10m\n"
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("expected port 9090, got %q", cfg.Server.Port)
	}
	if cfg.Media.PostedDir != filepath.Join("/srv/gen", "posted") {
		t.Fatalf("unexpected posted dir %q", cfg.Media.PostedDir)
	}
	if cfg.Media.QuizzesDir != filepath.Join("/srv/gen", "quizzes") {
		t.Fatalf("unexpected quizzes dir %q", cfg.Media.QuizzesDir)
	}
	if cfg.Generator.MaxConcurrent != 1 || cfg.Generator.Python != "python3" {
		t.Fatalf("unexpected generator defaults %+v", cfg.Generator)
	}
	if got := TTLDuration(cfg.Generator.Timeout, 0); got != 10*time.Minute {
		t.Fatalf("expected 10m timeout, got %s", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %s", got)
	}
	if got := TTLDuration("bogus", time.Second); got != time.Second {
		t.Fatalf("expected fallback on parse error, got %s", got)
	}
}
