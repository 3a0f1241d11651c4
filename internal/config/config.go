// Package config loads the backend configuration. Two sources name the
// YAML file, in priority order:
//  1. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  2. A command-line flag:      --config=/path/to/config.yaml
//
// A .env file in the working directory, if present, is loaded into the
// environment first, so every env:"..." key below can live there too.
package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the root configuration structure. Every field maps to a key
// in the YAML file and can be overridden by its env:"..." variable.
type Config struct {
	// Env selects the log format: "dev", "staging" or "prod".
	Env string `yaml:"env" env:"ENV" env-required:"true"`

	Storage    Storage    `yaml:"storage"`
	Cache      Cache      `yaml:"cache"`
	HTTPServer HTTPServer `yaml:"http_server"`
}

// Storage selects and locates the database.
type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"sqlite"`

	// Path is the SQLite .db file.
	Path string `yaml:"path" env:"STORAGE_PATH"`

	// DSN is the postgres connection string.
	DSN string `yaml:"dsn" env:"DB_DSN"`
}

// Cache configures the optional redis list cache. An empty RedisAddr
// disables it.
type Cache struct {
	RedisAddr string        `yaml:"redis_addr" env:"REDIS_ADDR"`
	TTL       time.Duration `yaml:"ttl" env:"CACHE_TTL" env-default:"30s"`
}

// HTTPServer holds settings for the HTTP listener.
type HTTPServer struct {
	Addr string `yaml:"address" env:"HTTP_SERVER_ADDR" env-required:"true"`

	// RateLimit is requests per second per client IP; 0 disables limiting.
	RateLimit float64 `yaml:"rate_limit" env:"HTTP_RATE_LIMIT" env-default:"20"`
	Burst     int     `yaml:"burst" env:"HTTP_BURST" env-default:"40"`

	CORSOrigins     []string      `yaml:"cors_origins" env:"HTTP_CORS_ORIGINS" env-separator:","`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

// Load reads the YAML file at path, applies environment overrides and
// checks the result.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the cross-field rules cleanenv tags cannot express.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the %s driver", DriverSQLite)
		}
	case DriverPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for the %s driver", DriverPostgres)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.HTTPServer.RateLimit < 0 {
		return fmt.Errorf("http_server.rate_limit must not be negative")
	}
	return nil
}

// MustLoad reads, validates and returns the application config. Like
// every Must function it exits the process instead of returning an error.
func MustLoad() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		flags := flag.String("config", "", "Path to the configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	if configPath == "" {
		log.Fatal("config path is not set: use --config flag or CONFIG_PATH env var")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}
