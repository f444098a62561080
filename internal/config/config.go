// Package config loads runtime configuration from the environment.
//
// WHY envconfig?
// The server used to read every variable by hand (os.Getenv + strconv + a
// default). With a dozen SMTP/WhatsApp/dispatch knobs that turns into a
// wall of boilerplate. envconfig reads struct tags instead: the variable
// name, the default, and whether it is required all live next to the field.
//
// A local .env file is loaded first (if present) so development setups
// don't have to export everything by hand. Real environment variables win.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every setting the server and the dispatch CLI need.
type Config struct {
	Port        int    `envconfig:"PORT" default:"8080"`
	DBPath      string `envconfig:"DB_PATH" default:"data/grindboard.db"`
	DatabaseURL string `envconfig:"DATABASE_URL"`              // when set, Postgres replaces SQLite
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`  // debug|info|warn|error
	LogFormat   string `envconfig:"LOG_FORMAT" default:"text"` // text|json
	Timezone    string `envconfig:"TIMEZONE" default:"UTC"`    // wall clock used for slots and content dates

	CronSecret        string `envconfig:"CRON_SECRET" required:"true"`
	JWTSecret         string `envconfig:"JWT_SECRET"`
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH"` // bcrypt

	Dispatch Dispatch
	SMTP     SMTP
	WhatsApp WhatsApp
}

// Dispatch tunes the batch dispatcher.
type Dispatch struct {
	BatchSize   int           `envconfig:"BATCH_SIZE" default:"10"`
	BatchPause  time.Duration `envconfig:"BATCH_PAUSE" default:"1s"`
	SendTimeout time.Duration `envconfig:"SEND_TIMEOUT" default:"20s"`
}

// SMTP configures the email channel. An empty Host disables it.
type SMTP struct {
	Host     string `envconfig:"SMTP_HOST"`
	Port     int    `envconfig:"SMTP_PORT" default:"587"`
	Username string `envconfig:"SMTP_USERNAME"`
	Password string `envconfig:"SMTP_PASSWORD"`
	From     string `envconfig:"SMTP_FROM"`
}

// WhatsApp configures the HTTP gateway channel. An empty APIURL disables it.
type WhatsApp struct {
	APIURL string `envconfig:"WHATSAPP_API_URL"`
	APIKey string `envconfig:"WHATSAPP_API_KEY"`
}

// Load reads .env (if any) and then the process environment into Config.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: loading .env: %w", err)
	}

	var cfg Config
	// Nested fields fall back to their bare tag name, so SMTP_HOST works
	// as well as SMTP_SMTP_HOST.
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.CronSecret == "" {
		return errors.New("config: CRON_SECRET must not be empty")
	}
	if c.Dispatch.BatchSize < 1 {
		return fmt.Errorf("config: BATCH_SIZE must be at least 1, got %d", c.Dispatch.BatchSize)
	}
	if c.Dispatch.SendTimeout <= 0 {
		return fmt.Errorf("config: SEND_TIMEOUT must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("config: TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

// Location returns the configured timezone. Load has already validated it.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
