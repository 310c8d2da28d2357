// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

// AssessmentConfig points at the remote assessment service.
type AssessmentConfig struct {
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
	Language string        `yaml:"language"` // default conversation language
}

// StoreConfig selects the persistence bridge backend. "redis" and "file" are
// durable; "none" disables cross-restart restoration entirely.
type StoreConfig struct {
	Backend  string        `yaml:"backend"` // redis|file|none
	Key      string        `yaml:"key"`     // well-known key the session id lives under
	Path     string        `yaml:"path"`    // file backend
	URL      string        `yaml:"url"`     // redis backend
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type GatewayConfig struct {
	Addr string `yaml:"addr"`
}

type InsightConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
}

type WorkerConfig struct {
	Workers int `yaml:"workers"`
}

type Config struct {
	Log        LogConfig        `yaml:"log"`
	Assessment AssessmentConfig `yaml:"assessment"`
	Store      StoreConfig      `yaml:"store"`
	Gateway    GatewayConfig    `yaml:"gateway"`
	Insight    InsightConfig    `yaml:"insight"`
	Worker     WorkerConfig     `yaml:"worker"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	// .env is optional; real env vars win over file values below.
	_ = godotenv.Load()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Environment overrides for values that should not live in the file.
	if v := os.Getenv("ASSESSMENT_BASE_URL"); v != "" {
		cfg.Assessment.BaseURL = v
	}
	if v := os.Getenv("STORE_REDIS_PASSWORD"); v != "" {
		cfg.Store.Password = v
	}
	if v := os.Getenv("INSIGHT_API_KEY"); v != "" {
		cfg.Insight.APIKey = v
	}

	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Assessment.Timeout <= 0 {
		cfg.Assessment.Timeout = 30 * time.Second
	}
	if cfg.Assessment.Language == "" {
		cfg.Assessment.Language = "zh-CN"
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "file"
	}
	if cfg.Store.Key == "" {
		cfg.Store.Key = "mbti_session_id"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = ".mbti-session"
	}
	cfg.Store.TTL = normalizeTTL(cfg.Store.TTL)
	if cfg.Gateway.Addr == "" {
		cfg.Gateway.Addr = ":8093"
	}
	if cfg.Worker.Workers <= 0 {
		cfg.Worker.Workers = 4
	}

	// Minimal validation
	if cfg.Assessment.BaseURL == "" {
		return nil, errors.New("assessment.base_url is required")
	}
	switch cfg.Store.Backend {
	case "redis":
		if cfg.Store.URL == "" {
			return nil, errors.New("store.url is required for the redis backend")
		}
	case "file", "none":
	default:
		return nil, fmt.Errorf("unknown store.backend %q", cfg.Store.Backend)
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return 30 * 24 * time.Hour
	}
	return d
}
