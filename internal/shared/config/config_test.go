package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setRequiredEnvVars(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-jwt-secret-key")
}

func TestLoad_Success(t *testing.T) {
	setRequiredEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.JWT.Secret != "test-jwt-secret-key" {
		t.Errorf("JWT.Secret = %q, want %q", cfg.JWT.Secret, "test-jwt-secret-key")
	}
	if cfg.JWT.TTL != time.Hour {
		t.Errorf("JWT.TTL = %v, want %v", cfg.JWT.TTL, time.Hour)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %q, want %q", cfg.Server.Port, "8080")
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Database.Driver = %q, want %q", cfg.Database.Driver, "postgres")
	}
	if cfg.Report.BatchSize != 500 {
		t.Errorf("Report.BatchSize = %d, want 500", cfg.Report.BatchSize)
	}
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")

	_, err := Load()
	if err == nil {
		t.Error("Load() expected error for missing JWT_SECRET, got nil")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"DB_PORT", "not-a-number"},
		{"JWT_TTL", "forever"},
		{"JWT_TTL", "-5m"},
		{"REPORT_BATCH_SIZE", "0"},
		{"DB_DRIVER", "oracle"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			setRequiredEnvVars(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("Load() expected error for %s=%q, got nil", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_TLSValidation(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("TLS_ENABLED", "true")
	t.Setenv("TLS_CERT_PATH", "/path/to/cert")
	t.Setenv("TLS_KEY_PATH", "")

	_, err := Load()
	if err == nil {
		t.Error("Load() expected error for TLS enabled without key path, got nil")
	}
}

func TestLoad_AllowedHosts(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("ALLOWED_HOSTS", "example.com, api.example.com, localhost:3000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if len(cfg.Server.AllowedHosts) != 3 {
		t.Errorf("AllowedHosts length = %d, want 3", len(cfg.Server.AllowedHosts))
	}
}

func TestLoadDatabase_NoJWTRequired(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/audit.db")

	db, err := LoadDatabase()
	if err != nil {
		t.Fatalf("LoadDatabase() failed: %v", err)
	}
	if db.Driver != "sqlite" {
		t.Errorf("Driver = %q, want %q", db.Driver, "sqlite")
	}
	if got := db.DSN(); got != "/tmp/audit.db" {
		t.Errorf("DSN() = %q, want %q", got, "/tmp/audit.db")
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	pg := DatabaseConfig{Driver: "postgres", Host: "db", Port: 5432, User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	want := "host=db port=5432 user=u password=p dbname=n sslmode=disable"
	if got := pg.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}

	lite := DatabaseConfig{Driver: "sqlite", SQLitePath: "/tmp/audit.db"}
	if got := lite.DSN(); got != "/tmp/audit.db" {
		t.Errorf("DSN() = %q, want %q", got, "/tmp/audit.db")
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("TXAUDIT_TEST_FROM_FILE=loaded\nTXAUDIT_TEST_PRESET=file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TXAUDIT_TEST_PRESET", "env")
	t.Cleanup(func() { os.Unsetenv("TXAUDIT_TEST_FROM_FILE") })

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile() failed: %v", err)
	}
	if got := os.Getenv("TXAUDIT_TEST_FROM_FILE"); got != "loaded" {
		t.Errorf("TXAUDIT_TEST_FROM_FILE = %q, want %q", got, "loaded")
	}
	if got := os.Getenv("TXAUDIT_TEST_PRESET"); got != "env" {
		t.Errorf("TXAUDIT_TEST_PRESET = %q, want existing value kept", got)
	}

	if err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("LoadEnvFile() on missing file = %v, want nil", err)
	}
}

func TestGetBoolEnv(t *testing.T) {
	t.Setenv("TXAUDIT_BOOL", "yes")
	if !getBoolEnv("TXAUDIT_BOOL", false) {
		t.Error("getBoolEnv(yes) = false, want true")
	}
	t.Setenv("TXAUDIT_BOOL", "maybe")
	if !getBoolEnv("TXAUDIT_BOOL", true) {
		t.Error("getBoolEnv(maybe) should fall back to default")
	}
}
