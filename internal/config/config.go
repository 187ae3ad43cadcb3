package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	OllamaURL      string `yaml:"ollama_url"`
	CodeModel      string `yaml:"code_model"`
	VisionModel    string `yaml:"vision_model"`
	SynthesisModel string `yaml:"synthesis_model"`

	PerplexityKey   string `yaml:"perplexity_key"`
	PerplexityModel string `yaml:"perplexity_model"`
	ForceLocalLLM   bool   `yaml:"force_local"`

	DataDir   string `yaml:"data_dir"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	RequestTimeout     time.Duration `yaml:"request_timeout"`
	CacheSize          int           `yaml:"cache_size"`
	CacheTTL           time.Duration `yaml:"cache_ttl"`
	MinRequestInterval time.Duration `yaml:"min_request_interval"`
	MaxAttempts        int           `yaml:"max_attempts"`
}

// Default returns the built-in configuration.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		OllamaURL:          "http://localhost:11434",
		CodeModel:          "qwen2.5-coder:7b-instruct",
		VisionModel:        "llava:7b",
		SynthesisModel:     "qwen2.5-coder:7b-instruct",
		PerplexityModel:    "sonar-pro",
		DataDir:            filepath.Join(home, ".debuggenie"),
		LogLevel:           "warn",
		LogFormat:          "console",
		RequestTimeout:     60 * time.Second,
		CacheSize:          100,
		CacheTTL:           time.Hour,
		MinRequestInterval: 500 * time.Millisecond,
		MaxAttempts:        3,
	}
}

// Load builds the configuration from defaults, then the YAML file at path,
// then DEBUGGENIE_* environment variables. An empty path reads
// config.yaml from the data directory when it exists.
func Load(path string) (*Config, error) {
	cfg := Default()
	if dir := os.Getenv("DEBUGGENIE_DATA_DIR"); dir != "" {
		cfg.DataDir = dir
	}

	explicit := path != ""
	if !explicit {
		path = filepath.Join(cfg.DataDir, "config.yaml")
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if val := os.Getenv("DEBUGGENIE_OLLAMA_URL"); val != "" {
		c.OllamaURL = val
	}
	if val := os.Getenv("DEBUGGENIE_CODE_MODEL"); val != "" {
		c.CodeModel = val
	}
	if val := os.Getenv("DEBUGGENIE_VISION_MODEL"); val != "" {
		c.VisionModel = val
	}
	if val := os.Getenv("DEBUGGENIE_SYNTHESIS_MODEL"); val != "" {
		c.SynthesisModel = val
	}
	if val := os.Getenv("DEBUGGENIE_PERPLEXITY_KEY"); val != "" {
		c.PerplexityKey = val
	} else if val := os.Getenv("PERPLEXITY_API_KEY"); val != "" {
		c.PerplexityKey = val
	}
	if val := os.Getenv("DEBUGGENIE_PERPLEXITY_MODEL"); val != "" {
		c.PerplexityModel = val
	}
	if os.Getenv("DEBUGGENIE_FORCE_LOCAL") != "" {
		c.ForceLocalLLM = true
	}
	if val := os.Getenv("DEBUGGENIE_DATA_DIR"); val != "" {
		c.DataDir = val
	}
	if val := os.Getenv("DEBUGGENIE_LOG_LEVEL"); val != "" {
		c.LogLevel = val
	}
	if val := os.Getenv("DEBUGGENIE_LOG_FORMAT"); val != "" {
		c.LogFormat = val
	}
	if val := os.Getenv("DEBUGGENIE_REQUEST_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.RequestTimeout = d
		}
	}
	if val := os.Getenv("DEBUGGENIE_MAX_ATTEMPTS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			c.MaxAttempts = n
		}
	}
}

func (c *Config) IsWebSearchEnabled() bool {
	return !c.ForceLocalLLM && c.PerplexityKey != ""
}

// DBPath is the sqlite report archive location.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "reports.db")
}
