package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/deckviewer/internal/flagx"
	"github.com/dmitrijs2005/deckviewer/internal/timex"
)

// JsonConfig is a DTO used only for JSON unmarshalling. Absent fields keep
// the values already in Config.
type JsonConfig struct {
	APIBaseURL       *string         `json:"api_base_url"`
	Slug             *string         `json:"slug"`
	UserAgent        *string         `json:"user_agent"`
	RequestTimeout   *timex.Duration `json:"request_timeout"`
	CreateRetryDelay *timex.Duration `json:"create_retry_delay"`
	FlushInterval    *timex.Duration `json:"flush_interval"`
	TourSettleDelay  *timex.Duration `json:"tour_settle_delay"`
	TourPollInterval *timex.Duration `json:"tour_poll_interval"`
	TourReadyTimeout *timex.Duration `json:"tour_ready_timeout"`
	TourScope        *string         `json:"tour_scope"`
	StateDB          *string         `json:"state_db"`
	ChunkSize        *int            `json:"chunk_size"`
	LogLevel         *string         `json:"log_level"`
	LogFormat        *string         `json:"log_format"`
	SentryDSN        *string         `json:"sentry_dsn"`
	S3Region         *string         `json:"s3_region"`
	S3Endpoint       *string         `json:"s3_endpoint"`
	S3AccessKey      *string         `json:"s3_access_key"`
	S3SecretKey      *string         `json:"s3_secret_key"`
}

// parseJson overlays cfg with the JSON file named by -c/-config or
// DECKVIEWER_CONFIG. No file configured means no changes.
func parseJson(cfg *Config) error {
	path := flagx.ConfigPath()
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&cfg.APIBaseURL, jc.APIBaseURL)
	setString(&cfg.Slug, jc.Slug)
	setString(&cfg.UserAgent, jc.UserAgent)
	setDuration(&cfg.RequestTimeout, jc.RequestTimeout)
	setDuration(&cfg.CreateRetryDelay, jc.CreateRetryDelay)
	setDuration(&cfg.FlushInterval, jc.FlushInterval)
	setDuration(&cfg.TourSettleDelay, jc.TourSettleDelay)
	setDuration(&cfg.TourPollInterval, jc.TourPollInterval)
	setDuration(&cfg.TourReadyTimeout, jc.TourReadyTimeout)
	setString(&cfg.TourScope, jc.TourScope)
	setString(&cfg.StateDB, jc.StateDB)
	if jc.ChunkSize != nil {
		cfg.ChunkSize = *jc.ChunkSize
	}
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)
	setString(&cfg.SentryDSN, jc.SentryDSN)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3Endpoint, jc.S3Endpoint)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
