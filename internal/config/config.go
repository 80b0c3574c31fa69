// Package config loads settings from .env, an optional YAML file and the
// process environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"ainews/internal/ratelimit"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	// MemoryDSN selects the in-process store instead of postgres.
	MemoryDSN = "memory://"
)

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	Prefix   string `yaml:"prefix"`
}

type LLMConfig struct {
	Provider string        `yaml:"provider"` // openai | ollama
	BaseURL  string        `yaml:"base_url"`
	APIKey   string        `yaml:"api_key"`
	Model    string        `yaml:"model"`
	Timeout  time.Duration `yaml:"timeout"`
}

type GeneratorConfig struct {
	Stories int `yaml:"stories"`
	// Concurrency caps parallel comment generation. 0 means one goroutine per story.
	Concurrency int `yaml:"concurrency"`
}

type Config struct {
	Port          string          `yaml:"port"`
	Env           string          `yaml:"env"`
	DatabaseURL   string          `yaml:"database_url"`
	SessionSecret string          `yaml:"session_secret"`
	JWTSecret     string          `yaml:"jwt_secret"`
	CronSecret    string          `yaml:"cron_secret"`
	SiteURL       string          `yaml:"site_url"`
	SiteName      string          `yaml:"site_name"`
	TemplatesDir  string          `yaml:"templates_dir"`
	LogLevel      string          `yaml:"log_level"`
	Redis         RedisConfig     `yaml:"redis"`
	RateLimits    ratelimit.Rules `yaml:"rate_limits"`
	LLM           LLMConfig       `yaml:"llm"`
	Generator     GeneratorConfig `yaml:"generator"`
}

func Default() *Config {
	return &Config{
		Port:         "8080",
		Env:          EnvDevelopment,
		DatabaseURL:  MemoryDSN,
		SiteURL:      "http://localhost:8080",
		SiteName:     "AI News",
		TemplatesDir: "./web/templates",
		LogLevel:     "info",
		Redis:        RedisConfig{Prefix: "ainews:ratelimit"},
		RateLimits:   ratelimit.DefaultRules(),
		LLM: LLMConfig{
			Provider: "openai",
			BaseURL:  "https://api.openai.com/v1",
			Model:    "gpt-4o-mini",
			Timeout:  2 * time.Minute,
		},
		Generator: GeneratorConfig{Stories: 5},
	}
}

// Load reads .env (if present), then the YAML file at path (or $CONFIG_PATH),
// then applies environment overrides.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, reading env vars from system")
	}

	cfg := Default()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	overrideString(&c.Port, "PORT")
	overrideString(&c.Env, "APP_ENV")
	overrideString(&c.DatabaseURL, "DATABASE_URL")
	overrideString(&c.SessionSecret, "SESSION_SECRET")
	overrideString(&c.JWTSecret, "JWT_SECRET")
	overrideString(&c.CronSecret, "CRON_SECRET")
	overrideString(&c.SiteURL, "SITE_URL")
	overrideString(&c.SiteName, "SITE_NAME")
	overrideString(&c.TemplatesDir, "TEMPLATES_DIR")
	overrideString(&c.LogLevel, "LOG_LEVEL")
	overrideString(&c.Redis.Addr, "REDIS_ADDR")
	overrideString(&c.Redis.Password, "REDIS_PASSWORD")
	overrideString(&c.LLM.Provider, "LLM_PROVIDER")
	overrideString(&c.LLM.BaseURL, "LLM_BASE_URL")
	overrideString(&c.LLM.APIKey, "LLM_API_KEY")
	overrideString(&c.LLM.Model, "LLM_MODEL")
	if err := overrideInt(&c.Generator.Stories, "GENERATOR_STORIES"); err != nil {
		return err
	}
	return overrideInt(&c.Generator.Concurrency, "GENERATOR_CONCURRENCY")
}

func overrideString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func overrideInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// Validate fills development defaults for secrets and rejects a production
// config that lacks them.
func (c *Config) Validate() error {
	if c.Generator.Stories <= 0 {
		return errors.New("generator.stories must be positive")
	}
	if c.Generator.Concurrency < 0 {
		return errors.New("generator.concurrency must not be negative")
	}
	switch c.LLM.Provider {
	case "openai", "ollama":
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if c.IsDevelopment() {
		if c.SessionSecret == "" {
			c.SessionSecret = "secret_key_change_me"
		}
		if c.JWTSecret == "" {
			c.JWTSecret = "jwt_secret_change_me"
		}
		return nil
	}
	if c.SessionSecret == "" || c.JWTSecret == "" {
		return errors.New("SESSION_SECRET and JWT_SECRET are required outside development")
	}
	return nil
}
