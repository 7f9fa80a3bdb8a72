// Package config holds the runtime settings shared by every barakah
// command. Values come from flags or BARAKAH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"

	"github.com/dukerupert/barakah/internal/database"
	"github.com/dukerupert/barakah/internal/photo"
)

type Config struct {
	Port        int      `help:"HTTP listen port." default:"8000" env:"BARAKAH_PORT"`
	DBDriver    string   `name:"db-driver" help:"Database driver (sqlite or postgres)." enum:"sqlite,postgres" default:"sqlite" env:"BARAKAH_DB_DRIVER"`
	DBPath      string   `name:"db-path" help:"SQLite database file." default:"barakah.db" env:"BARAKAH_DB_PATH"`
	DatabaseURL string   `name:"database-url" help:"Postgres connection URL." env:"BARAKAH_DATABASE_URL"`
	LogLevel    string   `name:"log-level" help:"Log level (debug, info, warn, error)." default:"info" env:"BARAKAH_LOG_LEVEL"`
	LogFile     string   `name:"log-file" help:"Also write logs to this rotating file." env:"BARAKAH_LOG_FILE"`
	TimeZone    string   `name:"tz" help:"IANA zone used to resolve today's date." default:"Local" env:"BARAKAH_TZ"`
	CORSOrigins []string `name:"cors-origins" help:"Allowed CORS origins." default:"*" env:"BARAKAH_CORS_ORIGINS"`
	PhotoDir    string   `name:"photo-dir" help:"Directory for member photos when S3 is not configured." default:"uploads/photos" env:"BARAKAH_PHOTO_DIR"`

	S3Endpoint  string `name:"s3-endpoint" help:"S3-compatible endpoint for member photos." env:"BARAKAH_S3_ENDPOINT"`
	S3Bucket    string `name:"s3-bucket" help:"Bucket for member photos." env:"BARAKAH_S3_BUCKET"`
	S3Region    string `name:"s3-region" help:"Bucket region." default:"us-east-1" env:"BARAKAH_S3_REGION"`
	S3AccessKey string `name:"s3-access-key" help:"S3 access key." env:"BARAKAH_S3_ACCESS_KEY"`
	S3SecretKey string `name:"s3-secret-key" help:"S3 secret key." env:"BARAKAH_S3_SECRET_KEY"`
	S3PublicURL string `name:"s3-public-url" help:"Base URL photos are served from; defaults to endpoint/bucket." env:"BARAKAH_S3_PUBLIC_URL"`

	PrayerAPIURL string `name:"prayer-api-url" help:"Aladhan API base URL." default:"http://api.aladhan.com/v1" env:"BARAKAH_PRAYER_API_URL"`
	Scheduler    bool   `help:"Run the daily background jobs." default:"true" negatable:"" env:"BARAKAH_SCHEDULER"`
}

// LoadDotEnv reads KEY=value pairs from path into the environment. A
// missing file is not an error, and variables already set keep their value.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// DSN returns the data source for the configured driver.
func (c *Config) DSN() (string, error) {
	switch c.DBDriver {
	case database.DriverPostgres:
		if c.DatabaseURL == "" {
			return "", fmt.Errorf("--database-url is required for the postgres driver")
		}
		return c.DatabaseURL, nil
	default:
		return c.DBPath, nil
	}
}

// OpenDB opens the configured database and applies migrations.
func (c *Config) OpenDB() (*database.DB, error) {
	dsn, err := c.DSN()
	if err != nil {
		return nil, err
	}
	return database.OpenDriver(c.DBDriver, dsn)
}

// Location loads the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

func (c *Config) S3() photo.S3Config {
	return photo.S3Config{
		Endpoint:  c.S3Endpoint,
		Bucket:    c.S3Bucket,
		Region:    c.S3Region,
		AccessKey: c.S3AccessKey,
		SecretKey: c.S3SecretKey,
		PublicURL: c.S3PublicURL,
	}
}

// PhotoStorage picks S3 when it is fully configured and the local photo
// directory otherwise.
func (c *Config) PhotoStorage() photo.Storage {
	if s3 := c.S3(); s3.Enabled() {
		return photo.NewS3Storage(s3)
	}
	return photo.NewLocalStorage(c.PhotoDir)
}
