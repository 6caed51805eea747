package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %v, want 8080", cfg.ServerPort)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("DatabaseType = %v, want sqlite", cfg.DatabaseType)
	}
	if cfg.GeminiTimeout != 30*time.Second {
		t.Errorf("GeminiTimeout = %v, want 30s", cfg.GeminiTimeout)
	}
	if cfg.JWTSecret != devJWTSecret {
		t.Errorf("JWTSecret should fall back to the development secret outside production")
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_TYPE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/nihongo")
	t.Setenv("SESSION_DURATION", "12h")
	t.Setenv("ADMIN_EMAILS", "sensei@example.com,admin@example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %v, want 9090", cfg.ServerPort)
	}
	if cfg.DatabaseType != "postgres" {
		t.Errorf("DatabaseType = %v, want postgres", cfg.DatabaseType)
	}
	if cfg.DatabaseURL != "postgres://localhost/nihongo" {
		t.Errorf("DatabaseURL = %v", cfg.DatabaseURL)
	}
	if cfg.SessionDuration != 12*time.Hour {
		t.Errorf("SessionDuration = %v, want 12h", cfg.SessionDuration)
	}
	if !cfg.IsAdminEmail("Sensei@Example.com") {
		t.Error("IsAdminEmail should match configured admin case-insensitively")
	}
	if cfg.IsAdminEmail("student@example.com") {
		t.Error("IsAdminEmail should reject unknown email")
	}
}

func TestLoadProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err != ErrMissingJWTSecret {
		t.Fatalf("Load() error = %v, want ErrMissingJWTSecret", err)
	}
}
