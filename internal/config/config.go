package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"ledger"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"ledger"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
	}

	Rates struct {
		// Base URL of the frankfurter-style exchange-rate API.
		BaseURL string `envconfig:"RATES_BASE_URL" default:"https://api.frankfurter.dev/v1"`
	}

	Dedup struct {
		// AmountTolerance is the relative amount difference at which the
		// amount factor decays to zero (0.01 = 1%).
		AmountTolerance    float64 `envconfig:"DEDUP_AMOUNT_TOLERANCE" default:"0.01"`
		DateToleranceDays  int     `envconfig:"DEDUP_DATE_TOLERANCE_DAYS" default:"3"`
		AutoMergeThreshold int     `envconfig:"DEDUP_AUTO_MERGE_THRESHOLD" default:"95"`
		ReviewThreshold    int     `envconfig:"DEDUP_REVIEW_THRESHOLD" default:"70"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.Dedup.ReviewThreshold > cfg.Dedup.AutoMergeThreshold {
		return nil, fmt.Errorf("review threshold %d exceeds auto-merge threshold %d",
			cfg.Dedup.ReviewThreshold, cfg.Dedup.AutoMergeThreshold)
	}

	return &cfg, nil
}
