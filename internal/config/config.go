// Package config loads the server configuration from YAML and the
// environment.
//
// Sources, highest priority first:
//  1. an explicit path passed to Load/MustLoad;
//  2. the CONFIG_PATH environment variable;
//  3. ./local.yaml in the working directory;
//  4. environment variables only.
//
// Environment variables always override values read from a file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	// MinSecretLength matches auth.NewTokenService.
	MinSecretLength = 16
)

type Config struct {
	Env     string        `yaml:"env" env:"ENV" env-default:"local"`
	HTTP    HTTPConfig    `yaml:"http"`
	DB      DBConfig      `yaml:"db"`
	Auth    AuthConfig    `yaml:"auth"`
	Catalog CatalogConfig `yaml:"catalog"`
	Log     LogConfig     `yaml:"log"`
}

type HTTPConfig struct {
	Port        int    `yaml:"port" env:"PORT" env-default:"3001"`
	FrontendURL string `yaml:"frontend_url" env:"FRONTEND_URL" env-default:"http://localhost:5173"`
}

// Addr returns the listen address.
func (h HTTPConfig) Addr() string {
	return ":" + strconv.Itoa(h.Port)
}

type DBConfig struct {
	Driver string `yaml:"driver" env:"DB_DRIVER" env-default:"sqlite"`
	Path   string `yaml:"path" env:"DB_PATH" env-default:"data/bookfinder.db"`
	URL    string `yaml:"url" env:"DATABASE_URL"`
}

type AuthConfig struct {
	JWTSecret  string `yaml:"jwt_secret" env:"JWT_SECRET"`
	BcryptCost int    `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"12"`
}

type CatalogConfig struct {
	BaseURL       string        `yaml:"base_url" env:"CATALOG_BASE_URL" env-default:"https://www.googleapis.com/books/v1"`
	APIKey        string        `yaml:"api_key" env:"GOOGLE_BOOKS_API_KEY"`
	AccessToken   string        `yaml:"access_token" env:"GOOGLE_BOOKS_ACCESS_TOKEN"`
	Timeout       time.Duration `yaml:"timeout" env:"CATALOG_TIMEOUT" env-default:"10s"`
	RatePerSecond float64       `yaml:"rate_per_second" env:"CATALOG_RATE" env-default:"5"`
	Burst         int           `yaml:"burst" env:"CATALOG_BURST" env-default:"5"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

// SlogLevel converts Level to a slog.Level, defaulting to info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsLocal reports whether the server runs in a developer environment.
func (c *Config) IsLocal() bool {
	return c.Env == "local"
}

// MustLoad is Load that panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the configuration following the source priority above and
// validates it.
func Load(path string) (*Config, error) {
	var cfg Config

	file, err := resolvePath(path)
	if err != nil {
		return nil, err
	}

	if file != "" {
		if err := cleanenv.ReadConfig(file, &cfg); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", file, err)
		}
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: reading env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolvePath picks the config file to read, or "" for env only. An
// explicit or CONFIG_PATH file must exist; ./local.yaml is optional.
func resolvePath(path string) (string, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("config: file %q: %w", path, err)
		}
		return path, nil
	}

	if _, err := os.Stat("local.yaml"); err == nil {
		return "local.yaml", nil
	}
	return "", nil
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("config: JWT_SECRET is required")
	}
	if len(c.Auth.JWTSecret) < MinSecretLength {
		return fmt.Errorf("config: JWT_SECRET must be at least %d characters", MinSecretLength)
	}

	switch c.DB.Driver {
	case DriverSQLite:
		if c.DB.Path == "" {
			return errors.New("config: DB_PATH is required for sqlite")
		}
	case DriverPostgres:
		if c.DB.URL == "" {
			return errors.New("config: DATABASE_URL is required for postgres")
		}
	default:
		return fmt.Errorf("config: unknown DB_DRIVER %q", c.DB.Driver)
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("config: invalid PORT %d", c.HTTP.Port)
	}
	if c.Catalog.Timeout <= 0 {
		return errors.New("config: CATALOG_TIMEOUT must be positive")
	}
	if c.Catalog.RatePerSecond < 0 || c.Catalog.Burst < 0 {
		return errors.New("config: CATALOG_RATE and CATALOG_BURST must not be negative")
	}

	return nil
}
