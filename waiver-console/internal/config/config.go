// Package config reads the console's settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds every setting the console reads.
type Config struct {
	BackendURL     string        `env:"RAG_BACKEND_URL" envDefault:"http://localhost:8000" validate:"required,url"`
	MediaURL       string        `env:"RAG_MEDIA_URL" validate:"omitempty,url"`
	RequestTimeout time.Duration `env:"RAG_REQUEST_TIMEOUT" envDefault:"0s" validate:"gte=0"`

	RedisURL      string        `env:"REDIS_URL"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0" validate:"gte=0"`
	DocumentsTTL  time.Duration `env:"DOCUMENTS_CACHE_TTL" envDefault:"10m" validate:"gte=0"`

	Port     string `env:"PORT" envDefault:"8080" validate:"required,numeric"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	LogFile  string `env:"LOG_FILE"`
}

// CacheEnabled reports whether a Redis address is configured.
func (c Config) CacheEnabled() bool {
	return c.RedisURL != ""
}

// Load overlays envFile, when it exists, onto the process environment and
// parses the result. Variables already set in the environment win over the
// file. An empty envFile means ".env".
func Load(envFile string) (Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading %s: %w", envFile, err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
