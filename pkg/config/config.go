package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DefaultEDGARIdentity is used when EDGAR_IDENTITY is not configured.
const DefaultEDGARIdentity = "Default User <default@example.com>"

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Analytical layer pipeline
	Pipeline PipelineConfig

	// External data provider
	SEC SECConfig

	// Object storage
	S3 S3Config

	// Alert email
	SMTP SMTPConfig

	// Database (optional mirror)
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// PipelineConfig holds analytical layer run settings
type PipelineConfig struct {
	BaseDir           string
	PoliteDelay       time.Duration
	Workers           int
	DerivedYears      int
	MetricsConfigPath string // empty = embedded default
	RunYear           int    // 0 = current year
	Schedule          string
	DagID             string
	TaskID            string
}

// SECConfig holds SEC EDGAR access configuration
type SECConfig struct {
	Identity          string
	BaseURL           string
	ArchivesURL       string
	RequestsPerSecond float64
	Timeout           time.Duration
	MaxRetries        int
	StatementSource   string // facts, filing
	CacheTTL          time.Duration
}

// S3Config holds object storage configuration
type S3Config struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// SMTPConfig holds alert email configuration
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	To       string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	smtpUser := getEnv("SMTP_USER", "")
	emailFrom := getEnv("ALERT_EMAIL_FROM", smtpUser)

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Pipeline: PipelineConfig{
			BaseDir:           getEnv("ANALYTICAL_LAYER_BASE_DIR", "metrics_output"),
			PoliteDelay:       getEnvAsSeconds("EDGAR_POLITE_DELAY", 1.5),
			Workers:           getEnvAsInt("PIPELINE_WORKERS", 1),
			DerivedYears:      getEnvAsInt("DERIVED_YEARS", 2),
			MetricsConfigPath: getEnv("METRICS_CONFIG_PATH", ""),
			RunYear:           getEnvAsInt("RUN_YEAR", 0),
			Schedule:          getEnv("PIPELINE_SCHEDULE", "0 0 6 * * *"),
			DagID:             getEnv("RUN_DAG_ID", "gh_actions_metrics"),
			TaskID:            getEnv("RUN_TASK_ID", "deploy_step"),
		},

		SEC: SECConfig{
			Identity:          getEnv("EDGAR_IDENTITY", ""),
			BaseURL:           getEnv("SEC_BASE_URL", "https://data.sec.gov"),
			ArchivesURL:       getEnv("SEC_ARCHIVES_URL", "https://www.sec.gov/Archives/edgar/data"),
			RequestsPerSecond: getEnvAsFloat("SEC_REQUESTS_PER_SECOND", 8),
			Timeout:           getEnvAsDuration("SEC_TIMEOUT", "30s"),
			MaxRetries:        getEnvAsInt("SEC_MAX_RETRIES", 3),
			StatementSource:   getEnv("STATEMENT_SOURCE", "facts"),
			CacheTTL:          getEnvAsDuration("SEC_CACHE_TTL", "1h"),
		},

		S3: S3Config{
			Bucket:          getEnv("FINRAG_S3_BUCKET", "sentence-data-ingestion"),
			Prefix:          getEnv("FINRAG_S3_PREFIX", "DATA_MERGE_ASSETS/FINRAG_FACT_METRICS"),
			Region:          getEnv("AWS_REGION", "us-east-1"),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		},

		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			User:     smtpUser,
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     emailFrom,
			To:       getEnv("ALERT_EMAIL_TO", emailFrom),
		},

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Pipeline.BaseDir == "" {
		return fmt.Errorf("ANALYTICAL_LAYER_BASE_DIR must not be empty")
	}
	if c.Pipeline.PoliteDelay < 0 {
		return fmt.Errorf("EDGAR_POLITE_DELAY must be >= 0")
	}
	if c.Pipeline.Workers <= 0 {
		return fmt.Errorf("PIPELINE_WORKERS must be > 0")
	}
	if c.Pipeline.DerivedYears <= 0 {
		return fmt.Errorf("DERIVED_YEARS must be > 0")
	}

	if c.SEC.StatementSource != "facts" && c.SEC.StatementSource != "filing" {
		return fmt.Errorf("STATEMENT_SOURCE must be one of: facts, filing")
	}
	if c.SEC.RequestsPerSecond <= 0 {
		return fmt.Errorf("SEC_REQUESTS_PER_SECOND must be > 0")
	}

	return nil
}

// IdentityOrDefault returns the configured EDGAR identity or the default one
func (c *SECConfig) IdentityOrDefault() string {
	if c.Identity == "" {
		return DefaultEDGARIdentity
	}
	return c.Identity
}

// S3Enabled reports whether uploads should run (credentials present)
func (c *Config) S3Enabled() bool {
	return c.S3.AccessKeyID != "" && c.S3.SecretAccessKey != "" && c.S3.Bucket != ""
}

// SMTPEnabled reports whether every SMTP setting needed for alerts is present
func (c *Config) SMTPEnabled() bool {
	s := c.SMTP
	return s.Host != "" && s.Port > 0 && s.User != "" && s.Password != "" && s.From != "" && s.To != ""
}

// DatabaseEnabled reports whether the PostgreSQL mirror is configured
func (c *Config) DatabaseEnabled() bool {
	return c.Database.URL != ""
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsSeconds reads a float number of seconds ("1.5") as a duration
func getEnvAsSeconds(key string, defaultSeconds float64) time.Duration {
	seconds := getEnvAsFloat(key, defaultSeconds)
	return time.Duration(seconds * float64(time.Second))
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
