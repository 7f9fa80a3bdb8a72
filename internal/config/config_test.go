package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"

	"github.com/dukerupert/barakah/internal/photo"
)

func parse(t *testing.T, args ...string) *Config {
	t.Helper()
	var cfg Config
	parser, err := kong.New(&cfg)
	if err != nil {
		t.Fatalf("new parser: %v", err)
	}
	if _, err := parser.Parse(args); err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}
	return &cfg
}

func TestDefaults(t *testing.T) {
	cfg := parse(t)

	if cfg.Port != 8000 {
		t.Errorf("port = %d, want 8000", cfg.Port)
	}
	if cfg.DBDriver != "sqlite" {
		t.Errorf("driver = %q, want sqlite", cfg.DBDriver)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log level = %q, want info", cfg.LogLevel)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("cors origins = %v, want [*]", cfg.CORSOrigins)
	}
	if !cfg.Scheduler {
		t.Error("scheduler should default to on")
	}
	if cfg.Addr() != ":8000" {
		t.Errorf("addr = %q", cfg.Addr())
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BARAKAH_PORT", "9100")
	t.Setenv("BARAKAH_DB_DRIVER", "postgres")
	t.Setenv("BARAKAH_DATABASE_URL", "postgres://localhost/barakah?sslmode=disable")
	t.Setenv("BARAKAH_CORS_ORIGINS", "https://a.example,https://b.example")

	cfg := parse(t)
	if cfg.Port != 9100 {
		t.Errorf("port = %d, want 9100", cfg.Port)
	}
	dsn, err := cfg.DSN()
	if err != nil {
		t.Fatalf("dsn: %v", err)
	}
	if dsn != "postgres://localhost/barakah?sslmode=disable" {
		t.Errorf("dsn = %q", dsn)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Errorf("cors origins = %v", cfg.CORSOrigins)
	}
}

func TestFlagsAndNegation(t *testing.T) {
	cfg := parse(t, "--port", "8123", "--no-scheduler", "--tz", "UTC")
	if cfg.Port != 8123 {
		t.Errorf("port = %d", cfg.Port)
	}
	if cfg.Scheduler {
		t.Error("expected scheduler to be disabled")
	}
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("location: %v", err)
	}
	if loc.String() != "UTC" {
		t.Errorf("location = %q", loc)
	}
}

func TestPostgresRequiresURL(t *testing.T) {
	cfg := parse(t, "--db-driver", "postgres")
	if _, err := cfg.DSN(); err == nil {
		t.Error("expected error without --database-url")
	}
}

func TestRejectsUnknownDriver(t *testing.T) {
	var cfg Config
	parser, err := kong.New(&cfg)
	if err != nil {
		t.Fatalf("new parser: %v", err)
	}
	if _, err := parser.Parse([]string{"--db-driver", "mysql"}); err == nil {
		t.Error("expected enum error")
	}
}

func TestPhotoStorageSelection(t *testing.T) {
	cfg := parse(t, "--photo-dir", t.TempDir())
	if _, ok := cfg.PhotoStorage().(*photo.LocalStorage); !ok {
		t.Errorf("expected local storage, got %T", cfg.PhotoStorage())
	}

	cfg = parse(t, "--s3-bucket", "photos", "--s3-access-key", "k", "--s3-secret-key", "s", "--s3-endpoint", "http://minio:9000")
	if _, ok := cfg.PhotoStorage().(*photo.S3Storage); !ok {
		t.Errorf("expected S3 storage, got %T", cfg.PhotoStorage())
	}
}

func TestBadTimeZone(t *testing.T) {
	cfg := parse(t, "--tz", "Mars/Olympus")
	if _, err := cfg.Location(); err == nil {
		t.Error("expected error for unknown zone")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	body := "BARAKAH_PRAYER_API_URL=http://prayers.test/v1\nBARAKAH_LOG_LEVEL=debug\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BARAKAH_LOG_LEVEL", "warn")
	t.Cleanup(func() { os.Unsetenv("BARAKAH_PRAYER_API_URL") })

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := parse(t)
	if cfg.PrayerAPIURL != "http://prayers.test/v1" {
		t.Errorf("prayer api url = %q", cfg.PrayerAPIURL)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("log level = %q, want the environment to win", cfg.LogLevel)
	}

	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("missing file should be ignored, got %v", err)
	}
}
