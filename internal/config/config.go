// Package config loads runtime settings from the environment. A .env file in
// the working directory is read first when present; real environment
// variables win over it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Port           string
	DBDriver       string
	DBDSN          string
	JWTSecret      string
	TokenTTL       time.Duration
	BcryptCost     int
	LogLevel       string
	LogFormat      string
	UploadMaxBytes int64

	RedisAddr     string
	RedisPassword string

	AMQPURL   string
	AMQPQueue string

	AdminEmail    string
	AdminPassword string
}

// Load reads a .env file if present and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Port:          envOr(getenv, "CASA_PORT", "8080"),
		DBDriver:      envOr(getenv, "CASA_DB_DRIVER", "sqlite"),
		DBDSN:         envOr(getenv, "CASA_DB_DSN", "casa.db"),
		JWTSecret:     getenv("CASA_JWT_SECRET"),
		LogLevel:      envOr(getenv, "CASA_LOG_LEVEL", "info"),
		LogFormat:     envOr(getenv, "CASA_LOG_FORMAT", "text"),
		RedisAddr:     getenv("CASA_REDIS_ADDR"),
		RedisPassword: getenv("CASA_REDIS_PASSWORD"),
		AMQPURL:       getenv("CASA_AMQP_URL"),
		AMQPQueue:     envOr(getenv, "CASA_AMQP_QUEUE", "casa.changes"),
		AdminEmail:    getenv("CASA_ADMIN_EMAIL"),
		AdminPassword: getenv("CASA_ADMIN_PASSWORD"),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("CASA_JWT_SECRET environment variable is required")
	}

	ttl, err := time.ParseDuration(envOr(getenv, "CASA_TOKEN_TTL", "168h"))
	if err != nil || ttl <= 0 {
		return nil, fmt.Errorf("invalid CASA_TOKEN_TTL: %q", getenv("CASA_TOKEN_TTL"))
	}
	cfg.TokenTTL = ttl

	cost, err := strconv.Atoi(envOr(getenv, "CASA_BCRYPT_COST", strconv.Itoa(bcrypt.DefaultCost)))
	if err != nil || cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("invalid CASA_BCRYPT_COST: %q", getenv("CASA_BCRYPT_COST"))
	}
	cfg.BcryptCost = cost

	maxBytes, err := strconv.ParseInt(envOr(getenv, "CASA_UPLOAD_MAX_BYTES", "5242880"), 10, 64)
	if err != nil || maxBytes <= 0 {
		return nil, fmt.Errorf("invalid CASA_UPLOAD_MAX_BYTES: %q", getenv("CASA_UPLOAD_MAX_BYTES"))
	}
	cfg.UploadMaxBytes = maxBytes

	if (cfg.AdminEmail == "") != (cfg.AdminPassword == "") {
		return nil, errors.New("CASA_ADMIN_EMAIL and CASA_ADMIN_PASSWORD must be set together")
	}

	return cfg, nil
}

func envOr(getenv func(string) string, key, fallback string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return fallback
}
