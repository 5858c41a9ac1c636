package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "production" {
		t.Fatalf("expected App.Env to be production, got %q", cfg.App.Env)
	}

	if cfg.Backend.BaseURL != "https://api.mitienda.example/api" {
		t.Fatalf("unexpected backend base url: %q", cfg.Backend.BaseURL)
	}

	if got := cfg.Backend.Timeout; got != 30*time.Second {
		t.Fatalf("expected default 30s backend timeout, got %v", got)
	}

	if cfg.Session.Namespace != "tienda" {
		t.Fatalf("unexpected session namespace %q", cfg.Session.Namespace)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_RejectsNonHTTPBackend(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvBackendBaseURL, "ftp://api.mitienda.example")

	if _, err := Load(); err == nil {
		t.Fatal("expected non-http backend url to be rejected")
	}
}

func TestAppConfigEnvHelpers(t *testing.T) {
	dev := AppConfig{Env: "Development"}
	if !dev.IsDev() || dev.IsProd() {
		t.Fatalf("expected development helpers to match case-insensitively")
	}
	prod := AppConfig{Env: "PRODUCTION"}
	if !prod.IsProd() || prod.IsDev() {
		t.Fatalf("expected production helpers to match case-insensitively")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "production")
	t.Setenv(EnvBackendBaseURL, "https://api.mitienda.example/api")
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
}
