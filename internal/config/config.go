package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/mcoot/bullcow/internal/api"
	"github.com/mcoot/bullcow/internal/factory"
	"github.com/mcoot/bullcow/internal/services/registry"
	redisstorage "github.com/mcoot/bullcow/internal/storage/redis"
)

// Log formats
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// Config is the server configuration read from the environment
type Config struct {
	Host string `env:"BULLCOW_HOST"`
	Port int    `env:"BULLCOW_PORT" envDefault:"8080"`

	LogLevel  string `env:"BULLCOW_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"BULLCOW_LOG_FORMAT" envDefault:"json"`

	StorageType string `env:"STORAGE_TYPE" envDefault:"memory"`
	RedisURL    string `env:"REDIS_URL"`

	GracePeriod     time.Duration `env:"BULLCOW_GRACE_PERIOD" envDefault:"15s"`
	SweepInterval   time.Duration `env:"BULLCOW_SWEEP_INTERVAL" envDefault:"1m"`
	WaitingRoomTTL  time.Duration `env:"BULLCOW_WAITING_ROOM_TTL" envDefault:"5m"`
	FinishedRoomTTL time.Duration `env:"BULLCOW_FINISHED_ROOM_TTL" envDefault:"2m"`
	MatchTTL        time.Duration `env:"BULLCOW_MATCH_TTL" envDefault:"720h"`

	BotThinkTime time.Duration `env:"BULLCOW_BOT_THINK_TIME" envDefault:"800ms"`
}

// Load reads an env file into the process environment and parses the
// result. An empty envFile loads .env when present. Variables already set
// in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the values are usable
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("BULLCOW_PORT must be between 1 and 65535, got %d", c.Port))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	switch c.LogFormat {
	case LogFormatJSON, LogFormatText:
	default:
		errs = append(errs, fmt.Errorf("BULLCOW_LOG_FORMAT must be json or text, got %q", c.LogFormat))
	}

	switch c.StorageType {
	case factory.StorageTypeMemory:
	case factory.StorageTypeRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL required when STORAGE_TYPE=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_TYPE must be memory or redis, got %q", c.StorageType))
	}

	durations := map[string]time.Duration{
		"BULLCOW_GRACE_PERIOD":      c.GracePeriod,
		"BULLCOW_SWEEP_INTERVAL":    c.SweepInterval,
		"BULLCOW_WAITING_ROOM_TTL":  c.WaitingRoomTTL,
		"BULLCOW_FINISHED_ROOM_TTL": c.FinishedRoomTTL,
		"BULLCOW_MATCH_TTL":         c.MatchTTL,
	}
	for name, d := range durations {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}
	if c.BotThinkTime < 0 {
		errs = append(errs, fmt.Errorf("BULLCOW_BOT_THINK_TIME must not be negative, got %s", c.BotThinkTime))
	}

	return errors.Join(errs...)
}

// Level parses LogLevel
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return level, fmt.Errorf("BULLCOW_LOG_LEVEL is invalid: %w", err)
	}
	return level, nil
}

// NewLogger builds the application logger writing to w
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := c.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if c.LogFormat == LogFormatText {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// Registry returns the room lifecycle settings
func (c *Config) Registry() registry.Config {
	cfg := registry.DefaultConfig()
	cfg.GracePeriod = c.GracePeriod
	cfg.SweepInterval = c.SweepInterval
	cfg.WaitingRoomTTL = c.WaitingRoomTTL
	cfg.FinishedRoomTTL = c.FinishedRoomTTL
	return cfg
}

// Factory returns the application factory settings
func (c *Config) Factory(logger *slog.Logger) factory.Config {
	cfg := factory.Config{
		Logger:       logger,
		StorageType:  c.StorageType,
		Registry:     c.Registry(),
		BotThinkTime: c.BotThinkTime,
	}
	if c.StorageType == factory.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = c.RedisURL
		redisCfg.MatchTTL = c.MatchTTL
		cfg.RedisConfig = &redisCfg
	}
	return cfg
}

// Server returns the HTTP server settings
func (c *Config) Server() api.ServerConfig {
	cfg := api.DefaultServerConfig()
	cfg.Host = c.Host
	cfg.Port = c.Port
	return cfg
}
