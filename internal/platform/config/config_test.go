package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Session.Secret != defaultSessionSecret {
		t.Errorf("expected default session secret, got %s", cfg.Session.Secret)
	}
	if cfg.Session.TokenTTL != defaultSessionTokenTTL {
		t.Errorf("unexpected default token ttl: %s", cfg.Session.TokenTTL)
	}
	if cfg.Session.Issuer != defaultSessionIssuer {
		t.Errorf("unexpected default issuer: %s", cfg.Session.Issuer)
	}
	if cfg.Catalog.DefaultPageSize != defaultCatalogPageSize {
		t.Errorf("unexpected default page size: %d", cfg.Catalog.DefaultPageSize)
	}
	if cfg.Catalog.MaxPageSize != defaultCatalogMaxPageSize {
		t.Errorf("unexpected max page size: %d", cfg.Catalog.MaxPageSize)
	}
	if cfg.RateLimits.PerMinute != defaultRateLimitPerMinute {
		t.Errorf("unexpected default rate limit: %d", cfg.RateLimits.PerMinute)
	}
	if cfg.Idempotency.Header != defaultIdempotencyHeader {
		t.Errorf("expected default idempotency header, got %s", cfg.Idempotency.Header)
	}
	if cfg.Idempotency.TTL != defaultIdempotencyTTL {
		t.Errorf("unexpected default idempotency ttl: %s", cfg.Idempotency.TTL)
	}
	if cfg.Idempotency.CleanupInterval != defaultIdempotencyInterval {
		t.Errorf("unexpected default cleanup interval: %s", cfg.Idempotency.CleanupInterval)
	}
	if cfg.Idempotency.CleanupBatchSize != defaultIdempotencyBatchSize {
		t.Errorf("unexpected default cleanup batch size: %d", cfg.Idempotency.CleanupBatchSize)
	}
}

func TestLoadWithOverrides(t *testing.T) {
	env := map[string]string{
		"API_SERVER_PORT":                  "9090",
		"API_SERVER_READ_TIMEOUT":          "20s",
		"API_SERVER_WRITE_TIMEOUT":         "25s",
		"API_SERVER_IDLE_TIMEOUT":          "2m",
		"API_SESSION_SECRET":               "super-secret",
		"API_SESSION_TOKEN_TTL":            "12h",
		"API_SESSION_ISSUER":               "my-store-staging",
		"API_CATALOG_DEFAULT_PAGE_SIZE":    "10",
		"API_CATALOG_MAX_PAGE_SIZE":        "50",
		"API_RATELIMIT_PER_MIN":            "300",
		"API_IDEMPOTENCY_HEADER":           "X-Idem-Key",
		"API_IDEMPOTENCY_TTL":              "48h",
		"API_IDEMPOTENCY_CLEANUP_INTERVAL": "30m",
		"API_IDEMPOTENCY_CLEANUP_BATCH":    "500",
	}

	cfg, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Server.IdleTimeout != 2*time.Minute {
		t.Errorf("unexpected idle timeout: %s", cfg.Server.IdleTimeout)
	}
	if cfg.Session.Secret != "super-secret" {
		t.Errorf("unexpected session secret %s", cfg.Session.Secret)
	}
	if cfg.Session.TokenTTL != 12*time.Hour {
		t.Errorf("unexpected token ttl %s", cfg.Session.TokenTTL)
	}
	if cfg.Session.Issuer != "my-store-staging" {
		t.Errorf("unexpected issuer %s", cfg.Session.Issuer)
	}
	if cfg.Catalog.DefaultPageSize != 10 {
		t.Errorf("unexpected default page size %d", cfg.Catalog.DefaultPageSize)
	}
	if cfg.Catalog.MaxPageSize != 50 {
		t.Errorf("unexpected max page size %d", cfg.Catalog.MaxPageSize)
	}
	if cfg.RateLimits.PerMinute != 300 {
		t.Errorf("unexpected rate limit %d", cfg.RateLimits.PerMinute)
	}
	if cfg.Idempotency.Header != "X-Idem-Key" {
		t.Errorf("unexpected idempotency header %s", cfg.Idempotency.Header)
	}
	if cfg.Idempotency.TTL != 48*time.Hour {
		t.Errorf("unexpected idempotency ttl %s", cfg.Idempotency.TTL)
	}
	if cfg.Idempotency.CleanupInterval != 30*time.Minute {
		t.Errorf("unexpected cleanup interval %s", cfg.Idempotency.CleanupInterval)
	}
	if cfg.Idempotency.CleanupBatchSize != 500 {
		t.Errorf("unexpected cleanup batch size %d", cfg.Idempotency.CleanupBatchSize)
	}
}

func TestLoadClampsDefaultPageSizeToMax(t *testing.T) {
	env := map[string]string{
		"API_CATALOG_DEFAULT_PAGE_SIZE": "80",
		"API_CATALOG_MAX_PAGE_SIZE":     "40",
	}

	cfg, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Catalog.DefaultPageSize != 40 {
		t.Errorf("expected default page size clamped to 40, got %d", cfg.Catalog.DefaultPageSize)
	}
}

func TestLoadDotEnvFallback(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env.test")
	content := "API_SERVER_PORT=7070\nAPI_SESSION_SECRET=dotenv-secret\n"
	if err := os.WriteFile(envPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write dotenv file: %v", err)
	}

	cfg, err := Load(WithEnvFile(envPath), WithoutSystemEnv())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "7070" {
		t.Errorf("expected port from dotenv 7070, got %s", cfg.Server.Port)
	}
	if cfg.Session.Secret != "dotenv-secret" {
		t.Errorf("expected session secret from dotenv, got %s", cfg.Session.Secret)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	env := map[string]string{
		"API_SESSION_SECRET":    "   ",
		"API_SESSION_TOKEN_TTL": "-1h",
	}

	_, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	validationErr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	fields := validationErr.Fields()
	if len(fields) == 0 {
		t.Fatal("expected invalid fields to be reported")
	}
}

func TestLoadEnvMapTakesPrecedence(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env.test")
	content := "API_SERVER_PORT=7070\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("failed writing env file: %v", err)
	}

	t.Setenv("API_SERVER_PORT", "6060")

	cfg, err := Load(
		WithEnvFile(envPath),
		WithEnvMap(map[string]string{"API_SERVER_PORT": "5050"}),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "5050" {
		t.Fatalf("expected env map override 5050, got %s", cfg.Server.Port)
	}
}
