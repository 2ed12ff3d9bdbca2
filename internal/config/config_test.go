package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadUsesDefaultsAndYAMLOverrides(t *testing.T) {
	clearConfigEnv(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	yaml := `
env: prod
http:
  addr: ":9090"
images:
  provider: api
  account_id: acct-123
  token: secret-token
  request_timeout: 15s
access:
  expected_issuer: https://team.cloudflareaccess.com
  dev_client_id: dev-override.access
tenant:
  dev_user: johndoe
  cache_ttl: 30s
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Env != "prod" {
		t.Fatalf("unexpected env: %s", cfg.Env)
	}
	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("unexpected http addr: %s", cfg.HTTP.Addr)
	}
	if cfg.Images.Provider != ProviderImagesAPI {
		t.Fatalf("unexpected images provider: %s", cfg.Images.Provider)
	}
	if cfg.Images.AccountID != "acct-123" || cfg.Images.Token != "secret-token" {
		t.Fatalf("unexpected images credentials: %s / %s", cfg.Images.AccountID, cfg.Images.Token)
	}
	if cfg.Images.RequestTimeout != 15*time.Second {
		t.Fatalf("unexpected images request timeout: %s", cfg.Images.RequestTimeout)
	}
	if cfg.Access.ExpectedIssuer != "https://team.cloudflareaccess.com" {
		t.Fatalf("unexpected expected issuer: %s", cfg.Access.ExpectedIssuer)
	}
	if cfg.Access.DevClientID != "dev-override.access" {
		t.Fatalf("unexpected dev client id: %s", cfg.Access.DevClientID)
	}
	if cfg.Tenant.DevUser != "johndoe" {
		t.Fatalf("unexpected dev user: %s", cfg.Tenant.DevUser)
	}
	if cfg.Tenant.CacheTTL != 30*time.Second {
		t.Fatalf("unexpected tenant cache ttl: %s", cfg.Tenant.CacheTTL)
	}

	if cfg.HTTP.ReadTimeout != 5*time.Second {
		t.Fatalf("http read timeout default should stay 5s, got %s", cfg.HTTP.ReadTimeout)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("redis addr default should stay localhost:6379, got %s", cfg.Redis.Addr)
	}
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config with missing file: %v", err)
	}

	if cfg.Images.Provider != ProviderS3 {
		t.Fatalf("unexpected default images provider: %s", cfg.Images.Provider)
	}
	if cfg.S3.Bucket != "photochron-media" {
		t.Fatalf("unexpected default s3 bucket: %s", cfg.S3.Bucket)
	}
	if cfg.Access.ExpectedIssuer != "dev" {
		t.Fatalf("unexpected default issuer: %s", cfg.Access.ExpectedIssuer)
	}
	if cfg.Tenant.CacheTTL != time.Minute {
		t.Fatalf("unexpected default cache ttl: %s", cfg.Tenant.CacheTTL)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("CF_ACCOUNT_ID", "env-acct")
	t.Setenv("CF_IMAGES_TOKEN", "env-token")
	t.Setenv("IMAGES_PROVIDER", "api")
	t.Setenv("DEV_USER", "envuser")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Images.AccountID != "env-acct" || cfg.Images.Token != "env-token" {
		t.Fatalf("env credentials not applied: %s / %s", cfg.Images.AccountID, cfg.Images.Token)
	}
	if cfg.Images.Provider != ProviderImagesAPI {
		t.Fatalf("env provider not applied: %s", cfg.Images.Provider)
	}
	if cfg.Tenant.DevUser != "envuser" {
		t.Fatalf("env dev user not applied: %s", cfg.Tenant.DevUser)
	}
}

func TestLoadRejectsAPIProviderWithoutCredentials(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("IMAGES_PROVIDER", "api")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for api provider without account id and token")
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("IMAGES_PROVIDER", "gcs")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for unknown images provider")
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV",
		"HTTP_ADDR",
		"HTTP_READ_TIMEOUT",
		"HTTP_WRITE_TIMEOUT",
		"HTTP_IDLE_TIMEOUT",
		"LOG_LEVEL",
		"POSTGRES_DSN",
		"REDIS_ADDR",
		"REDIS_PASSWORD",
		"REDIS_DB",
		"IMAGES_PROVIDER",
		"IMAGES_BASE_URL",
		"CF_ACCOUNT_ID",
		"CF_IMAGES_TOKEN",
		"IMAGES_REQUEST_TIMEOUT",
		"S3_ENDPOINT",
		"S3_ACCESS_KEY",
		"S3_SECRET_KEY",
		"S3_BUCKET",
		"S3_USE_SSL",
		"ACCESS_ISSUER",
		"DEV_CLIENT_ID",
		"DEV_USER",
		"TENANT_CACHE_TTL",
	} {
		t.Setenv(key, "")
	}
}
