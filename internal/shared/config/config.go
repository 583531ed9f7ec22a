package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds application configuration.
type Config struct {
	Env             string   `env:"ENV" envDefault:"dev"`
	Port            string   `env:"PORT" envDefault:"8080"`
	LogLevel        string   `env:"LOG_LEVEL" envDefault:"info"`
	CORSAllowOrigin []string `env:"CORS_ALLOW_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`
	DatabaseURL     string   `env:"DATABASE_URL"`
	BcryptCost      int      `env:"BCRYPT_COST" envDefault:"10"`

	Postgres    Postgres    `envPrefix:"PG"`
	LLM         LLM
	Ingest      Ingest
	Upload      Upload
	RateLimit   RateLimit
	ObjectStore ObjectStore
}

// Postgres holds the libpq-style connection variables used when DATABASE_URL is unset.
type Postgres struct {
	Host     string `env:"HOST" envDefault:"db"`
	Port     string `env:"PORT" envDefault:"5432"`
	Database string `env:"DATABASE" envDefault:"postgres"`
	User     string `env:"USER" envDefault:"postgres"`
	Password string `env:"PASSWORD" envDefault:"postgres"`
	SSLMode  string `env:"SSLMODE" envDefault:"disable"`
}

// LLM configures the summarizer provider.
type LLM struct {
	Provider      string        `env:"LLM_PROVIDER" envDefault:"openai"`
	Model         string        `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	APIKey        string        `env:"OPENAI_API_KEY"`
	BaseURL       string        `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	Timeout       time.Duration `env:"SUMMARIZER_TIMEOUT" envDefault:"60s"`
	PromptVersion string        `env:"SUMMARY_PROMPT_VERSION" envDefault:"v1"`
	MaxSentences  int           `env:"SUMMARY_MAX_SENTENCES" envDefault:"5"`
}

// Ingest configures the upload pipeline.
type Ingest struct {
	Concurrency   int    `env:"INGEST_CONCURRENCY" envDefault:"1"`
	FailurePolicy string `env:"INGEST_FAILURE_POLICY" envDefault:"abort"`
}

// Upload bounds multipart requests.
type Upload struct {
	MaxBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"33554432"`
	MaxFiles int   `env:"MAX_UPLOAD_FILES" envDefault:"20"`
}

// RateLimit holds per-client token bucket settings.
type RateLimit struct {
	RPS         float64 `env:"RATE_LIMIT_RPS" envDefault:"10"`
	Burst       int     `env:"RATE_LIMIT_BURST" envDefault:"20"`
	UploadRPS   float64 `env:"UPLOAD_RATE_LIMIT_RPS" envDefault:"0.5"`
	UploadBurst int     `env:"UPLOAD_RATE_LIMIT_BURST" envDefault:"5"`
}

// ObjectStore selects where original uploads are archived.
type ObjectStore struct {
	Type        string `env:"OBJECT_STORE" envDefault:"none"`
	LocalDir    string `env:"LOCAL_STORE_DIR" envDefault:"./data"`
	AWSRegion   string `env:"AWS_REGION"`
	S3Bucket    string `env:"S3_BUCKET"`
	S3Prefix    string `env:"S3_PREFIX"`
	SSEKMSKeyID string `env:"SSE_KMS_KEY_ID"`
	MinIO       MinIO  `envPrefix:"MINIO_"`
}

// MinIO holds connection settings for an S3-compatible MinIO endpoint.
type MinIO struct {
	Endpoint  string `env:"ENDPOINT" envDefault:"localhost:9000"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Bucket    string `env:"BUCKET_NAME" envDefault:"docsummary-uploads"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DSN renders the PG* variables as a postgres:// URL.
func (p Postgres) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     net.JoinHostPort(p.Host, p.Port),
		Path:     "/" + p.Database,
		RawQuery: url.Values{"sslmode": []string{p.SSLMode}}.Encode(),
	}
	return u.String()
}

// IsDevLike reports whether the environment tolerates degraded dependencies.
func (c Config) IsDevLike() bool {
	return c.Env == "dev" || c.Env == "local"
}

func (c *Config) normalize() {
	c.Env = normalizeEnv(c.Env)
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	c.Ingest.FailurePolicy = strings.ToLower(strings.TrimSpace(c.Ingest.FailurePolicy))
	c.ObjectStore.Type = normalizeStoreType(c.ObjectStore.Type)
	c.CORSAllowOrigin = splitAndTrim(strings.Join(c.CORSAllowOrigin, ","))
	if c.Ingest.Concurrency < 1 {
		c.Ingest.Concurrency = 1
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		c.DatabaseURL = c.Postgres.DSN()
	}
}

func (c Config) validate() error {
	switch c.Ingest.FailurePolicy {
	case "abort", "stop", "partial":
	default:
		return fmt.Errorf("INGEST_FAILURE_POLICY must be abort, stop or partial, got %q", c.Ingest.FailurePolicy)
	}
	switch c.LLM.Provider {
	case "openai", "local":
	default:
		return fmt.Errorf("LLM_PROVIDER must be openai or local, got %q", c.LLM.Provider)
	}
	if c.Env == "production" && c.LLM.Provider == "openai" && strings.TrimSpace(c.LLM.APIKey) == "" {
		return fmt.Errorf("OPENAI_API_KEY is required in production")
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("SUMMARIZER_TIMEOUT must be positive")
	}
	if c.Upload.MaxBytes <= 0 || c.Upload.MaxFiles <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES and MAX_UPLOAD_FILES must be positive")
	}
	return nil
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "local":
		return "local"
	case "s3":
		return "s3"
	case "minio":
		return "minio"
	default:
		return "none"
	}
}
