// Package config loads application configuration from environment
// variables.  Required variables are enforced by must() and missing
// values halt startup with a fatal log message.
package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration for the core service.  Each
// field corresponds to an environment variable.  Secrets and TTLs are
// injected into the token codec and session service at construction;
// nothing reads the environment after startup.
type Config struct {
	Env              string        // application environment (dev/test/prod)
	Port             string        // HTTP port to listen on
	DBUser           string        // database username
	DBPass           string        // database password (optional)
	DBHost           string        // database host address
	DBPort           string        // database port number
	DBName           string        // database name
	JWTSecret        string        // secret used to sign JWTs
	AccessTTL        time.Duration // access token time-to-live
	RefreshTTL       time.Duration // refresh token time-to-live
	BcryptCost       int           // bcrypt cost for password hashing
	LockoutThreshold int           // consecutive failed logins before lockout
	LockoutWindow    time.Duration // how long a lockout lasts
}

// Load reads the core service configuration from the environment.
func Load() Config {
	return Config{
		Env:              must("APP_ENV"),
		Port:             must("APP_PORT"),
		DBUser:           must("DB_USER"),
		DBPass:           os.Getenv("DB_PASS"), // empty allowed
		DBHost:           must("DB_HOST"),
		DBPort:           must("DB_PORT"),
		DBName:           must("DB_NAME"),
		JWTSecret:        must("JWT_SECRET"),
		AccessTTL:        time.Duration(mustInt("ACCESS_TOKEN_TTL_MIN")) * time.Minute,
		RefreshTTL:       time.Duration(mustInt("REFRESH_TOKEN_TTL_DAYS")) * 24 * time.Hour,
		BcryptCost:       mustInt("BCRYPT_COST"),
		LockoutThreshold: intOr("LOCKOUT_THRESHOLD", 5),
		LockoutWindow:    time.Duration(intOr("LOCKOUT_MINUTES", 30)) * time.Minute,
	}
}

// PaymentsConfig holds runtime configuration for the payment service.
// CoreBaseURL points at the core service that certifies payable
// amounts; the processor values describe the third-party payment
// provider the service wraps.
type PaymentsConfig struct {
	Env              string // application environment
	Port             string // HTTP port to listen on
	CoreBaseURL      string // base URL of the core service
	ProcessorBaseURL string // base URL of the payment processor API
	ProcessorAPIKey  string // API key for the payment processor
}

// LoadPayments reads the payment service configuration from the
// environment.
func LoadPayments() PaymentsConfig {
	return PaymentsConfig{
		Env:              must("APP_ENV"),
		Port:             must("PAYMENTS_PORT"),
		CoreBaseURL:      must("CORE_BASE_URL"),
		ProcessorBaseURL: must("PROCESSOR_BASE_URL"),
		ProcessorAPIKey:  must("PROCESSOR_API_KEY"),
	}
}

// must retrieves the value of a required environment variable.  If
// the variable is unset or empty, the application logs a fatal error
// and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the value into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// intOr reads an optional integer variable with a default.
func intOr(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, v)
	}
	return n
}
