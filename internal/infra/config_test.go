package infra

import "testing"

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("LoadConfig() succeeded without DATABASE_URL")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/studio")
	t.Setenv("PORT", "")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.RateLimitPerMin != 60 {
		t.Errorf("RateLimitPerMin = %d, want 60", cfg.RateLimitPerMin)
	}
	if cfg.ViewportWidth <= 0 || cfg.ViewportHeight <= 0 {
		t.Errorf("viewport defaults = %dx%d, want positive", cfg.ViewportWidth, cfg.ViewportHeight)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/studio")
	t.Setenv("APP_ENV", "production")
	t.Setenv("HTTP_READ_TIMEOUT_SECONDS", "7")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.AppEnv != "production" {
		t.Errorf("AppEnv = %q, want production", cfg.AppEnv)
	}
	if got := cfg.HTTPReadTimeout.Seconds(); got != 7 {
		t.Errorf("HTTPReadTimeout = %vs, want 7s", got)
	}
}

func TestExtractMarker(t *testing.T) {
	query := "--sql 2caa5b21-4c2b-4b72-8a36-7d3d0f9b77a1\nselect 1"
	marker, rest, err := extractMarker(query)
	if err != nil {
		t.Fatalf("extractMarker() error = %v", err)
	}
	if marker != "2caa5b21-4c2b-4b72-8a36-7d3d0f9b77a1" {
		t.Errorf("marker = %q", marker)
	}
	if rest != "select 1" {
		t.Errorf("rest = %q", rest)
	}

	if _, _, err := extractMarker("select 1"); err == nil {
		t.Error("extractMarker without marker succeeded")
	}
}
