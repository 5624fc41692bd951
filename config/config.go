// Package config reads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/nathoo/storycore/logging"
)

// Save backends.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config holds every environment-driven setting.
type Config struct {
	Seed       string `env:"STORY_SEED"`
	Difficulty string `env:"STORY_DIFFICULTY" envDefault:"normal"`
	Language   string `env:"STORY_LANG" envDefault:"de"`
	ContentDir string `env:"STORY_CONTENT_DIR"` // empty: embedded content

	SaveBackend string `env:"STORY_SAVE_BACKEND" envDefault:"file"`
	SaveDir     string `env:"STORY_SAVE_DIR" envDefault:"~/.storycore/saves"`
	RedisURL    string `env:"STORY_REDIS_URL" envDefault:"redis://localhost:6379/0"`
	SQLitePath  string `env:"STORY_SQLITE_PATH" envDefault:"storycore.db"`

	LogLevel    string `env:"LOG_LEVEL" envDefault:"warn"`
	LogEncoding string `env:"LOG_ENCODING" envDefault:"console"`
	LogOutput   string `env:"LOG_OUTPUT" envDefault:"stderr"`
}

// Load reads an optional .env file (variables already set win) and parses
// the environment.
func Load(dotenv string) (Config, error) {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", dotenv, err)
		}
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	cfg.SaveDir = expandHome(cfg.SaveDir)
	return cfg, nil
}

// Validate checks enumerated values.
func (c Config) Validate() error {
	switch c.SaveBackend {
	case BackendFile, BackendRedis, BackendSQLite:
	default:
		return fmt.Errorf("STORY_SAVE_BACKEND: unknown backend %q", c.SaveBackend)
	}
	return nil
}

// Logging returns the logger settings.
func (c Config) Logging() logging.Config {
	return logging.Config{Level: c.LogLevel, Encoding: c.LogEncoding, OutputPath: c.LogOutput}
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
