package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type envConfig struct {
	APP_PORT      string
	LOG_FILE_PATH string
	LOG_LEVEL     string

	DB_HOST              string
	DB_PORT              int
	DB_USER              string
	DB_PASSWORD          string
	DB_NAME              string
	DB_SSL_MODE          string
	DB_MAX_OPEN_CONNS    int
	DB_MAX_IDLE_CONNS    int
	DB_CONN_MAX_LIFETIME time.Duration

	CELL_ENCODING        string
	EXPORT_TEMPLATE_PATH string
	MAX_UPLOAD_BYTES     int64
}

// DefaultEnvConfig holds the settings read by LoadEnvConfig.
var DefaultEnvConfig = defaults()

func defaults() envConfig {
	return envConfig{
		APP_PORT:             "8080",
		LOG_LEVEL:            "info",
		DB_HOST:              "localhost",
		DB_PORT:              5432,
		DB_USER:              "postgres",
		DB_NAME:              "invoices",
		DB_SSL_MODE:          "disable",
		DB_MAX_OPEN_CONNS:    25,
		DB_MAX_IDLE_CONNS:    5,
		DB_CONN_MAX_LIFETIME: 5 * time.Minute,
		CELL_ENCODING:        "native",
		MAX_UPLOAD_BYTES:     32 << 20,
	}
}

// LoadEnvConfig reads .env files (missing files are ignored) and then the
// process environment into DefaultEnvConfig. Variables already set in the
// environment win over the files.
func LoadEnvConfig(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := defaults()
	str(&cfg.APP_PORT, "APP_PORT")
	str(&cfg.LOG_FILE_PATH, "LOG_FILE_PATH")
	str(&cfg.LOG_LEVEL, "LOG_LEVEL")
	str(&cfg.DB_HOST, "DB_HOST")
	str(&cfg.DB_USER, "DB_USER")
	str(&cfg.DB_PASSWORD, "DB_PASSWORD")
	str(&cfg.DB_NAME, "DB_NAME")
	str(&cfg.DB_SSL_MODE, "DB_SSL_MODE")
	str(&cfg.CELL_ENCODING, "CELL_ENCODING")
	str(&cfg.EXPORT_TEMPLATE_PATH, "EXPORT_TEMPLATE_PATH")

	var err error
	if cfg.DB_PORT, err = integer("DB_PORT", cfg.DB_PORT); err != nil {
		return err
	}
	if cfg.DB_MAX_OPEN_CONNS, err = integer("DB_MAX_OPEN_CONNS", cfg.DB_MAX_OPEN_CONNS); err != nil {
		return err
	}
	if cfg.DB_MAX_IDLE_CONNS, err = integer("DB_MAX_IDLE_CONNS", cfg.DB_MAX_IDLE_CONNS); err != nil {
		return err
	}
	if v, ok := os.LookupEnv("DB_CONN_MAX_LIFETIME"); ok && v != "" {
		if cfg.DB_CONN_MAX_LIFETIME, err = time.ParseDuration(v); err != nil {
			return fmt.Errorf("DB_CONN_MAX_LIFETIME: %w", err)
		}
	}
	if v, ok := os.LookupEnv("MAX_UPLOAD_BYTES"); ok && v != "" {
		if cfg.MAX_UPLOAD_BYTES, err = strconv.ParseInt(v, 10, 64); err != nil {
			return fmt.Errorf("MAX_UPLOAD_BYTES: %w", err)
		}
	}

	DefaultEnvConfig = cfg
	return nil
}

func str(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func integer(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
