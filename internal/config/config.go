package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/ykvlv/weather-digest-bot/internal/domain"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken string `envconfig:"BOT_TOKEN" required:"true"`

	CWAAPIKey   string        `envconfig:"CWA_API_KEY" required:"true"`
	CWABaseURL  string        `envconfig:"CWA_BASE_URL" default:"https://opendata.cwa.gov.tw/api/v1/rest/datastore"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`

	StorageBackend string `envconfig:"STORAGE_BACKEND" default:"sqlite"` // sqlite|postgres
	DBPath         string `envconfig:"DB_PATH" default:"./data/settings.db"`
	PostgresDSN    string `envconfig:"POSTGRES_DSN"`

	Timezone         string `envconfig:"TIMEZONE" default:"Local"` // single process-wide zone for send times
	DefaultRegion    string `envconfig:"DEFAULT_REGION" default:"臺北市"`
	SchedulerBackend string `envconfig:"SCHEDULER_BACKEND" default:"gocron"` // gocron|clock

	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`  // debug|info|warn|error
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json"` // json|console
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"` // healthz, readyz, metrics
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`
}

// Load reads an optional .env file, then environment variables into Config.
func Load() (Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express.
func (c Config) Validate() error {
	switch c.StorageBackend {
	case "sqlite":
		if c.DBPath == "" {
			return errors.New("DB_PATH is required when STORAGE_BACKEND=sqlite")
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required when STORAGE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be sqlite or postgres, got %q", c.StorageBackend)
	}
	if c.SchedulerBackend != "gocron" && c.SchedulerBackend != "clock" {
		return fmt.Errorf("SCHEDULER_BACKEND must be gocron or clock, got %q", c.SchedulerBackend)
	}
	if !domain.IsRegion(c.DefaultRegion) {
		return fmt.Errorf("DEFAULT_REGION %q is not a known region", c.DefaultRegion)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	if c.HTTPTimeout <= 0 {
		return errors.New("HTTP_TIMEOUT must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

// Location returns the zone send times are interpreted in.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
