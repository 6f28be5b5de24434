package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/deckviewer/internal/client/loader"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	APIBaseURL string `env:"API_URL" validate:"required,url"`
	Slug       string `env:"SLUG" validate:"required"`
	UserAgent  string `env:"USER_AGENT"`

	RequestTimeout   time.Duration `env:"REQUEST_TIMEOUT" validate:"gt=0"`
	CreateRetryDelay time.Duration `env:"CREATE_RETRY_DELAY" validate:"gt=0"`
	FlushInterval    time.Duration `env:"FLUSH_INTERVAL" validate:"gt=0"`

	TourSettleDelay  time.Duration `env:"TOUR_SETTLE_DELAY" validate:"gt=0"`
	TourPollInterval time.Duration `env:"TOUR_POLL_INTERVAL" validate:"gt=0"`
	TourReadyTimeout time.Duration `env:"TOUR_READY_TIMEOUT" validate:"gt=0"`
	TourScope        string        `env:"TOUR_SCOPE" validate:"oneof=global deck"`

	StateDB   string `env:"STATE_DB" validate:"required"`
	ChunkSize int    `env:"CHUNK_SIZE" validate:"gt=0"`

	LogLevel  string `env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat string `env:"LOG_FORMAT" validate:"oneof=text json"`
	SentryDSN string `env:"SENTRY_DSN"`

	S3Region    string `env:"S3_REGION"`
	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://localhost:8080"
	c.RequestTimeout = 30 * time.Second
	c.CreateRetryDelay = time.Second
	c.FlushInterval = 30 * time.Second
	c.TourSettleDelay = time.Second
	c.TourPollInterval = 200 * time.Millisecond
	c.TourReadyTimeout = 5 * time.Second
	c.TourScope = "global"
	c.StateDB = "deckviewer.db"
	c.ChunkSize = 256 << 10
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.S3Region = "us-east-1"
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadConfig builds a Config from defaults, the JSON file, the environment
// and command-line flags, in that order, and validates the result.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// S3 returns the options for s3:// document locators.
func (c *Config) S3() loader.S3Options {
	return loader.S3Options{
		Region:    c.S3Region,
		Endpoint:  c.S3Endpoint,
		AccessKey: c.S3AccessKey,
		SecretKey: c.S3SecretKey,
	}
}
