package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/autoval/autoval/internal/notify"
)

type serviceConfig struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Archive       ArchiveConfig
	NATS          NATSConfig
	Collaborators CollaboratorsConfig

	// ConfigPath points at the YAML valuation config (pkg/config).
	ConfigPath string `env:"AUTOVAL_CONFIG"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	LogDev     bool   `env:"LOG_DEVELOPMENT" envDefault:"false"`
}

type ServerConfig struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	APIKey          string        `env:"API_KEY"`
	RateLimit       float64       `env:"RATE_LIMIT" envDefault:"50"`
	RateBurst       int           `env:"RATE_BURST" envDefault:"100"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

type DatabaseConfig struct {
	Driver string `env:"DATABASE_DRIVER" envDefault:"postgres"`
	URL    string `env:"DATABASE_URL" envDefault:"postgres://localhost:5432/autoval?sslmode=disable"`
	// SeedTables imports the bundled reference tables when the database has none.
	SeedTables bool `env:"SEED_TABLES" envDefault:"true"`
}

type ArchiveConfig struct {
	Backend   string `env:"ARCHIVE_BACKEND" envDefault:"local"` // local, s3 or gcs
	LocalPath string `env:"LOCAL_STORAGE_PATH" envDefault:"/tmp/autoval-data"`

	S3Bucket    string `env:"S3_BUCKET"`
	S3Region    string `env:"S3_REGION"`
	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`

	GCSBucket string `env:"GCS_BUCKET"`
}

type NATSConfig struct {
	URL     string `env:"NATS_URL"` // empty disables notifications
	Subject string `env:"NATS_SUBJECT" envDefault:"valuation.completed"`
}

// CollaboratorsConfig overrides the collaborator section of the YAML config.
type CollaboratorsConfig struct {
	PhotoURL   string `env:"PHOTO_SERVICE_URL"`
	MarketURL  string `env:"MARKET_SERVICE_URL"`
	PricingURL string `env:"PRICING_SERVICE_URL"`
	APIKey     string `env:"COLLABORATOR_API_KEY"`
}

// loadServiceConfig reads the environment, after loading a .env file when
// one exists.
func loadServiceConfig() (*serviceConfig, error) {
	_ = godotenv.Load()

	cfg := &serviceConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *serviceConfig) validate() error {
	switch c.Archive.Backend {
	case "local":
	case "s3":
		if c.Archive.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for the s3 archive backend")
		}
	case "gcs":
		if c.Archive.GCSBucket == "" {
			return fmt.Errorf("GCS_BUCKET is required for the gcs archive backend")
		}
	default:
		return fmt.Errorf("unknown ARCHIVE_BACKEND %q (want local, s3 or gcs)", c.Archive.Backend)
	}
	if c.Server.RateLimit < 0 || c.Server.RateBurst < 0 {
		return fmt.Errorf("RATE_LIMIT and RATE_BURST must be non-negative")
	}
	if c.NATS.Subject == "" {
		c.NATS.Subject = notify.DefaultSubject
	}
	return nil
}
