// Package config loads Curio configuration from an optional YAML file and
// environment variables. Environment variables always win over file values.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider identifies an LLM backend.
type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderBedrock   Provider = "bedrock"
)

// TierConfig selects the provider and model for one inference cost tier.
type TierConfig struct {
	Provider Provider `yaml:"provider"`
	Model    string   `yaml:"model"`
}

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection
	SurrealDBURL       string `yaml:"surrealdb_url"`
	SurrealDBNamespace string `yaml:"surrealdb_namespace"`
	SurrealDBDatabase  string `yaml:"surrealdb_database"`
	SurrealDBUser      string `yaml:"surrealdb_user"`
	SurrealDBPass      string `yaml:"surrealdb_pass"`
	SurrealDBAuthLevel string `yaml:"surrealdb_auth_level"`

	// Inference tiers: cheap handles the topic pre-filter, capable handles
	// profile evolution and preference scoring.
	Cheap   TierConfig `yaml:"cheap"`
	Capable TierConfig `yaml:"capable"`

	// Provider credentials / endpoints
	OllamaHost      string `yaml:"ollama_host"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	AWSRegion       string `yaml:"aws_region"`

	// LLMTimeout bounds every single inference call.
	LLMTimeout time.Duration `yaml:"llm_timeout"`

	// Topic is the free-text description new articles are gated against.
	Topic string `yaml:"topic"`

	// Scoring
	ScoreConcurrency int `yaml:"score_concurrency"`

	// Daemon intervals
	LearnInterval time.Duration `yaml:"learn_interval"`
	ScoreInterval time.Duration `yaml:"score_interval"`

	// Logging
	LogFile  string     `yaml:"log_file"`
	LogLevel slog.Level `yaml:"-"`
}

// Load reads configuration with precedence: defaults < YAML file < environment.
// The file path comes from CURIO_CONFIG, falling back to
// $XDG_CONFIG_HOME/curio/curio.yaml; a missing file is not an error.
func Load() (Config, error) {
	cfg := defaults()

	path := os.Getenv("CURIO_CONFIG")
	if path == "" {
		if base, err := os.UserConfigDir(); err == nil {
			path = filepath.Join(base, "curio", "curio.yaml")
		}
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg.applyEnv()

	if cfg.Cheap.Model == "" || cfg.Capable.Model == "" {
		return Config{}, fmt.Errorf("both cheap and capable tier models must be configured")
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		SurrealDBURL:       "ws://localhost:8000/rpc",
		SurrealDBNamespace: "curio",
		SurrealDBDatabase:  "feed",
		SurrealDBUser:      "root",
		SurrealDBPass:      "root",
		SurrealDBAuthLevel: "root",

		Cheap:   TierConfig{Provider: ProviderOllama, Model: "llama3.2:3b"},
		Capable: TierConfig{Provider: ProviderOllama, Model: "llama3.1:8b"},

		OllamaHost: "http://localhost:11434",
		AWSRegion:  "us-east-1",
		LLMTimeout: 60 * time.Second,

		Topic: "technology, software engineering, and computer science",

		ScoreConcurrency: 4,
		LearnInterval:    6 * time.Hour,
		ScoreInterval:    15 * time.Minute,

		LogFile:  "/tmp/curio.log",
		LogLevel: slog.LevelInfo,
	}
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	setStr(&c.SurrealDBURL, "SURREALDB_URL")
	setStr(&c.SurrealDBNamespace, "SURREALDB_NAMESPACE")
	setStr(&c.SurrealDBDatabase, "SURREALDB_DATABASE")
	setStr(&c.SurrealDBUser, "SURREALDB_USER")
	setStr(&c.SurrealDBPass, "SURREALDB_PASS")
	setStr(&c.SurrealDBAuthLevel, "SURREALDB_AUTH_LEVEL")

	setProvider(&c.Cheap.Provider, "CURIO_CHEAP_PROVIDER")
	setStr(&c.Cheap.Model, "CURIO_CHEAP_MODEL")
	setProvider(&c.Capable.Provider, "CURIO_CAPABLE_PROVIDER")
	setStr(&c.Capable.Model, "CURIO_CAPABLE_MODEL")

	setStr(&c.OllamaHost, "OLLAMA_HOST")
	setStr(&c.OpenAIAPIKey, "OPENAI_API_KEY")
	setStr(&c.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	setStr(&c.AWSRegion, "AWS_REGION")
	setDuration(&c.LLMTimeout, "CURIO_LLM_TIMEOUT")

	setStr(&c.Topic, "CURIO_TOPIC")
	setInt(&c.ScoreConcurrency, "CURIO_SCORE_CONCURRENCY")
	setDuration(&c.LearnInterval, "CURIO_LEARN_INTERVAL")
	setDuration(&c.ScoreInterval, "CURIO_SCORE_INTERVAL")

	setStr(&c.LogFile, "CURIO_LOG_FILE")
	if v := os.Getenv("CURIO_LOG_LEVEL"); v != "" {
		c.LogLevel = ParseLogLevel(v)
	}
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setProvider(dst *Provider, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = Provider(strings.ToLower(v))
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*dst = d
		}
	}
}

// ParseLogLevel maps a level name to slog.Level, defaulting to info.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
