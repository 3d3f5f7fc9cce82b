package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	os.Unsetenv("ENV")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Check defaults
	if cfg.Env != "development" {
		t.Errorf("Expected Env to be development, got %s", cfg.Env)
	}

	if cfg.Pipeline.BaseDir != "metrics_output" {
		t.Errorf("Expected BaseDir to be metrics_output, got %s", cfg.Pipeline.BaseDir)
	}

	if cfg.Pipeline.PoliteDelay != 1500*time.Millisecond {
		t.Errorf("Expected PoliteDelay to be 1.5s, got %v", cfg.Pipeline.PoliteDelay)
	}

	if cfg.Pipeline.DerivedYears != 2 {
		t.Errorf("Expected DerivedYears to be 2, got %d", cfg.Pipeline.DerivedYears)
	}

	if cfg.S3.Bucket != "sentence-data-ingestion" {
		t.Errorf("Expected default bucket, got %s", cfg.S3.Bucket)
	}

	if cfg.SMTP.Port != 587 {
		t.Errorf("Expected SMTP port 587, got %d", cfg.SMTP.Port)
	}
}

func TestLoadWithCustomValues(t *testing.T) {
	os.Setenv("ENV", "production")
	os.Setenv("EDGAR_POLITE_DELAY", "0.25")
	os.Setenv("PIPELINE_WORKERS", "4")
	os.Setenv("STATEMENT_SOURCE", "filing")
	os.Setenv("LOG_LEVEL", "debug")

	defer func() {
		os.Unsetenv("ENV")
		os.Unsetenv("EDGAR_POLITE_DELAY")
		os.Unsetenv("PIPELINE_WORKERS")
		os.Unsetenv("STATEMENT_SOURCE")
		os.Unsetenv("LOG_LEVEL")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Env != "production" {
		t.Errorf("Expected Env to be production, got %s", cfg.Env)
	}

	if cfg.Pipeline.PoliteDelay != 250*time.Millisecond {
		t.Errorf("Expected PoliteDelay to be 250ms, got %v", cfg.Pipeline.PoliteDelay)
	}

	if cfg.Pipeline.Workers != 4 {
		t.Errorf("Expected Workers to be 4, got %d", cfg.Pipeline.Workers)
	}

	if cfg.SEC.StatementSource != "filing" {
		t.Errorf("Expected StatementSource to be filing, got %s", cfg.SEC.StatementSource)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("Expected LogLevel to be debug, got %s", cfg.LogLevel)
	}
}

func TestValidateInvalidEnv(t *testing.T) {
	os.Setenv("ENV", "invalid")
	defer os.Unsetenv("ENV")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when ENV is invalid, got nil")
	}
}

func TestValidateInvalidStatementSource(t *testing.T) {
	os.Setenv("STATEMENT_SOURCE", "xbrl")
	defer os.Unsetenv("STATEMENT_SOURCE")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when STATEMENT_SOURCE is invalid, got nil")
	}
}

func TestEmailDefaults(t *testing.T) {
	os.Setenv("SMTP_USER", "alerts@example.com")
	defer os.Unsetenv("SMTP_USER")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.SMTP.From != "alerts@example.com" {
		t.Errorf("Expected From to default to SMTP_USER, got %s", cfg.SMTP.From)
	}
	if cfg.SMTP.To != "alerts@example.com" {
		t.Errorf("Expected To to default to From, got %s", cfg.SMTP.To)
	}
	if cfg.SMTPEnabled() {
		t.Error("Expected SMTP to be disabled without host and password")
	}
}

func TestIdentityOrDefault(t *testing.T) {
	sec := SECConfig{}
	if sec.IdentityOrDefault() != DefaultEDGARIdentity {
		t.Errorf("Expected default identity, got %s", sec.IdentityOrDefault())
	}

	sec.Identity = "Research Bot research@example.com"
	if sec.IdentityOrDefault() != sec.Identity {
		t.Errorf("Expected configured identity, got %s", sec.IdentityOrDefault())
	}
}

func TestS3Enabled(t *testing.T) {
	cfg := &Config{S3: S3Config{Bucket: "b"}}
	if cfg.S3Enabled() {
		t.Error("Expected S3 disabled without credentials")
	}

	cfg.S3.AccessKeyID = "AKIA"
	cfg.S3.SecretAccessKey = "secret"
	if !cfg.S3Enabled() {
		t.Error("Expected S3 enabled with credentials")
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	os.Setenv("TEST_DURATION", "2h")
	defer os.Unsetenv("TEST_DURATION")

	duration := getEnvAsDuration("TEST_DURATION", "1h")
	expected := 2 * time.Hour

	if duration != expected {
		t.Errorf("Expected duration to be %v, got %v", expected, duration)
	}
}

func TestGetEnvAsSeconds(t *testing.T) {
	os.Setenv("TEST_SECONDS", "2.5")
	defer os.Unsetenv("TEST_SECONDS")

	if d := getEnvAsSeconds("TEST_SECONDS", 1); d != 2500*time.Millisecond {
		t.Errorf("Expected 2.5s, got %v", d)
	}
	if d := getEnvAsSeconds("TEST_SECONDS_MISSING", 1.5); d != 1500*time.Millisecond {
		t.Errorf("Expected 1.5s, got %v", d)
	}
}

func TestGetEnvAsInt(t *testing.T) {
	os.Setenv("TEST_INT", "100")
	defer os.Unsetenv("TEST_INT")

	value := getEnvAsInt("TEST_INT", 50)
	if value != 100 {
		t.Errorf("Expected value to be 100, got %d", value)
	}
}

func TestGetEnvAsBool(t *testing.T) {
	os.Setenv("TEST_BOOL", "true")
	defer os.Unsetenv("TEST_BOOL")

	value := getEnvAsBool("TEST_BOOL", false)
	if value != true {
		t.Errorf("Expected value to be true, got %v", value)
	}
}
