// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
)

type Config struct {
	Port int `envconfig:"PORT" default:"5000"`

	StoreDriver     string        `envconfig:"STORE_DRIVER" default:"mongo"`
	MongoURI        string        `envconfig:"MONGODB_URI" default:"mongodb://localhost:27017/Aplication"`
	MongoCollection string        `envconfig:"MONGODB_COLLECTION" default:"Collection"`
	SQLitePath      string        `envconfig:"SQLITE_DB_PATH" default:"./pixvault.db"`
	StoreTimeout    time.Duration `envconfig:"STORE_TIMEOUT" default:"10s"`

	PixabayAPIKey   string        `envconfig:"PIXABAY_API_KEY"`
	PixabayBaseURL  string        `envconfig:"PIXABAY_BASE_URL" default:"https://pixabay.com/api/"`
	ProviderTimeout time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"10s"`

	FetchTimeout  time.Duration `envconfig:"FETCH_TIMEOUT" default:"15s"`
	MaxImageBytes int64         `envconfig:"MAX_IMAGE_BYTES" default:"20971520"`

	MaxPerPage int    `envconfig:"MAX_PER_PAGE" default:"100"`
	StaticDir  string `envconfig:"STATIC_DIR" default:"./public"`

	// Comma-separated; "*" allows any origin.
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
}

// Load reads .env (if present) and then the process environment. Variables
// already set in the environment win over .env entries.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	switch c.StoreDriver {
	case DriverMongo, DriverSQLite:
	default:
		return fmt.Errorf("STORE_DRIVER: unsupported driver %q, expected %s or %s", c.StoreDriver, DriverMongo, DriverSQLite)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT: %d out of range", c.Port)
	}
	if c.MaxImageBytes <= 0 {
		return fmt.Errorf("MAX_IMAGE_BYTES: must be positive")
	}
	if c.MaxPerPage <= 0 {
		return fmt.Errorf("MAX_PER_PAGE: must be positive")
	}
	for name, d := range map[string]time.Duration{
		"STORE_TIMEOUT":    c.StoreTimeout,
		"PROVIDER_TIMEOUT": c.ProviderTimeout,
		"FETCH_TIMEOUT":    c.FetchTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s: must be positive", name)
		}
	}

	for _, origin := range c.CORSAllowedOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("CORS_ALLOWED_ORIGINS: %q must be * or start with http:// or https://", origin)
		}
	}

	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT: unsupported format %q, expected json or console", c.LogFormat)
	}
	return nil
}

// SetupLogger configures the global zerolog logger.
func SetupLogger(c *Config) {
	setupLogger(c, os.Stdout)
}

func setupLogger(c *Config, out io.Writer) {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if c.LogFormat == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}
