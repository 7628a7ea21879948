// Package config reads process-wide configuration once at startup. Values come
// from the environment, with a .env file loaded first if one exists.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	devDatabase  = "cryptofolio"
	testDatabase = "cryptofolio_test"
)

// Config holds everything the process reads from the environment.
type Config struct {
	Port             int
	DatabaseURL      string
	SecretKey        string
	BcryptWorkFactor int
	Env              string
}

// Load reads configuration from .env (if present) and the environment.
func Load() Config {
	// Missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	env := getenv("APP_ENV", "development")

	cfg := Config{
		Port:             intenv("PORT", 3000),
		DatabaseURL:      databaseURL(env),
		SecretKey:        getenv("SECRET_KEY", "secret-dev"),
		BcryptWorkFactor: intenv("BCRYPT_WORK_FACTOR", defaultWorkFactor(env)),
		Env:              env,
	}
	return cfg
}

// IsTest reports whether the process runs against the test database.
func (c Config) IsTest() bool {
	return c.Env == "test"
}

// databaseURL prefers DATABASE_URL and otherwise composes a URL from the DB_*
// variables, selecting the test database when APP_ENV=test.
func databaseURL(env string) string {
	if url := os.Getenv("DATABASE_URL"); url != "" && env != "test" {
		return url
	}

	name := devDatabase
	if env == "test" {
		name = testDatabase
	}

	user := getenv("DB_USER", "postgres")
	password := getenv("DB_PASSWORD", "postgres")
	host := getenv("DB_HOST", "localhost")
	port := getenv("DB_PORT", "5432")

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)
}

// Tests run with a deliberately cheap work factor.
func defaultWorkFactor(env string) int {
	if env == "test" {
		return 1
	}
	return 12
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intenv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
