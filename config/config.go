package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var ErrMissingRequired = errors.New("missing required configuration")

// Storage backends selectable with STORAGE_BACKEND.
const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	StorageBackend string `envconfig:"STORAGE_BACKEND" default:"local"`
	UploadDir      string `envconfig:"UPLOAD_DIR" default:"uploads"`
	S3Bucket       string `envconfig:"S3_BUCKET"`
	S3Prefix       string `envconfig:"S3_PREFIX" default:"uploads/"`
	AWSRegion      string `envconfig:"AWS_REGION" default:"us-east-1"`
	AWSProfile     string `envconfig:"AWS_PROFILE"`

	PushTimeoutSeconds int `envconfig:"PUSH_TIMEOUT_SECONDS" default:"10"`
	PushConcurrency    int `envconfig:"PUSH_CONCURRENCY" default:"1"`
	PushRateLimitMs    int `envconfig:"PUSH_RATE_LIMIT_MS" default:"0"`

	RulesFile string `envconfig:"RULES_FILE"`

	ServerAddr      string   `envconfig:"SERVER_ADDR" default:":8080"`
	MaxUploadSizeMB int64    `envconfig:"MAX_UPLOAD_SIZE_MB" default:"50"`
	CORSOrigins     []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	PushLogEnabled   bool   `envconfig:"PUSH_LOG_ENABLED" default:"false"`
	PostgresHost     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	PostgresPort     string `envconfig:"POSTGRES_PORT" default:"5432"`
	PostgresUser     string `envconfig:"POSTGRES_USER" default:"leadprep"`
	PostgresPassword string `envconfig:"POSTGRES_PASSWORD" default:"leadprep123"`
	PostgresDB       string `envconfig:"POSTGRES_DB" default:"leadprep"`
	PostgresSSLMode  string `envconfig:"POSTGRES_SSLMODE" default:"disable"`
	MaxRetries       int    `envconfig:"MAX_RETRIES" default:"3"`
}

// Load reads the .env file, then the environment, and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks combinations the struct tags cannot express.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendLocal:
		if c.UploadDir == "" {
			return fmt.Errorf("%w: UPLOAD_DIR", ErrMissingRequired)
		}
	case BackendS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("%w: S3_BUCKET", ErrMissingRequired)
		}
	default:
		return fmt.Errorf("config: unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.PushTimeoutSeconds <= 0 {
		return fmt.Errorf("config: PUSH_TIMEOUT_SECONDS must be positive, got %d", c.PushTimeoutSeconds)
	}
	if c.PushLogEnabled && c.PostgresHost == "" {
		return fmt.Errorf("%w: POSTGRES_HOST", ErrMissingRequired)
	}
	return nil
}

// PushTimeout is the per-request webhook timeout.
func (c *Config) PushTimeout() time.Duration {
	return time.Duration(c.PushTimeoutSeconds) * time.Second
}

// PushInterval is the minimum spacing between webhook requests.
func (c *Config) PushInterval() time.Duration {
	return time.Duration(c.PushRateLimitMs) * time.Millisecond
}

// MaxUploadBytes is the upload size limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadSizeMB << 20
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}
