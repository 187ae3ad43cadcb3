package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DEBUGGENIE_DATA_DIR", t.TempDir())
	t.Setenv("DEBUGGENIE_PERPLEXITY_KEY", "")
	t.Setenv("PERPLEXITY_API_KEY", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.OllamaURL != "http://localhost:11434" {
		t.Errorf("unexpected default ollama url %q", cfg.OllamaURL)
	}
	if cfg.MaxAttempts != 3 {
		t.Errorf("expected 3 attempts, got %d", cfg.MaxAttempts)
	}
	if cfg.IsWebSearchEnabled() {
		t.Error("web search should be disabled without a key")
	}
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "debuggenie.yaml")
	data := []byte(`
ollama_url: http://gpu-box:11434
vision_model: llava:13b
perplexity_key: from-file
cache_ttl: 15m
max_attempts: 5
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("DEBUGGENIE_DATA_DIR", dir)
	t.Setenv("DEBUGGENIE_PERPLEXITY_KEY", "")
	t.Setenv("PERPLEXITY_API_KEY", "legacy-key")
	t.Setenv("DEBUGGENIE_VISION_MODEL", "llava:34b")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.OllamaURL != "http://gpu-box:11434" {
		t.Errorf("expected url from file, got %q", cfg.OllamaURL)
	}
	if cfg.VisionModel != "llava:34b" {
		t.Errorf("env should override file, got %q", cfg.VisionModel)
	}
	if cfg.PerplexityKey != "legacy-key" {
		t.Errorf("expected legacy env key to win over file, got %q", cfg.PerplexityKey)
	}
	if cfg.CacheTTL != 15*time.Minute {
		t.Errorf("expected 15m ttl, got %s", cfg.CacheTTL)
	}
	if cfg.MaxAttempts != 5 {
		t.Errorf("expected 5 attempts, got %d", cfg.MaxAttempts)
	}
	if !cfg.IsWebSearchEnabled() {
		t.Error("web search should be enabled with a key")
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for a missing explicit config file")
	}
}

func TestLoad_ForceLocal(t *testing.T) {
	t.Setenv("DEBUGGENIE_DATA_DIR", t.TempDir())
	t.Setenv("DEBUGGENIE_PERPLEXITY_KEY", "key")
	t.Setenv("DEBUGGENIE_FORCE_LOCAL", "1")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.IsWebSearchEnabled() {
		t.Error("force local should disable web search")
	}
}
