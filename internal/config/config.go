// Package config loads runtime settings from the environment and opens the
// database connection.
package config

import (
	"fmt"
	"os"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	Port       string
	CORSOrigin string
}

func Load() Config {
	return Config{
		Port:       Getenv("PORT", "8080"),
		CORSOrigin: Getenv("CORS_ORIGIN", "http://localhost:3000"),
	}
}

// OpenDatabase connects to Postgres when DATABASE_URL is set and falls back
// to a local SQLite file otherwise, so the server runs with zero setup in
// development.
func OpenDatabase() (*gorm.DB, error) {
	opts := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		db, err := gorm.Open(postgres.Open(dsn), opts)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return db, nil
	}

	path := Getenv("DB_PATH", "./data/tskpay.db")
	db, err := gorm.Open(sqlite.Open(path), opts)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %s: %w", path, err)
	}
	return db, nil
}

// Getenv returns the env value or the fallback when unset or empty.
func Getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
