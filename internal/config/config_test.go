package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: \"9090\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("expected port 9090, got %q", cfg.Server.Port)
	}
	if cfg.Store.Backend != BackendMemory {
		t.Fatalf("expected memory backend by default, got %q", cfg.Store.Backend)
	}
	if cfg.Admin.Username != "admin" || cfg.Admin.Password != "admin123" {
		t.Fatalf("expected default admin credentials, got %+v", cfg.Admin)
	}
	if !cfg.SeedEnabled() {
		t.Fatalf("expected seeding enabled by default")
	}
}

func TestLoadReadsQuizTiming(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := "store:\n  backend: sqlite\n  seed: false\nquiz:\n  questionTime: 10s\n  answerDelay: 500ms\n"
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SeedEnabled() {
		t.Fatalf("expected seeding disabled")
	}
	if got := TTLDuration(cfg.Quiz.QuestionTime, 15*time.Second); got != 10*time.Second {
		t.Fatalf("expected 10s question time, got %v", got)
	}
	if got := TTLDuration(cfg.Quiz.TimeoutDelay, 2*time.Second); got != 2*time.Second {
		t.Fatalf("expected fallback timeout delay, got %v", got)
	}
	if got := TTLDuration("soon", time.Second); got != time.Second {
		t.Fatalf("expected fallback for unparsable duration, got %v", got)
	}
}
