package utils

import (
	"io"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

type Config struct {
	Port         int
	WebDir       string
	FetchTimeout time.Duration
	UserAgent    string
	LogLevel     string
}

// Load reads configuration from the environment, with an optional .env
// file in the working directory. Missing keys fall back to defaults.
func Load() Config {
	// .env is optional; system env vars always win
	_ = godotenv.Load()

	return Config{
		Port:         envInt("NOVELHUB_PORT", 8080),
		WebDir:       envString("NOVELHUB_WEB_DIR", "web"),
		FetchTimeout: envDuration("NOVELHUB_FETCH_TIMEOUT", 30*time.Second),
		UserAgent:    envString("NOVELHUB_USER_AGENT", "novelhub/1.0 (sitemap scraper)"),
		LogLevel:     envString("NOVELHUB_LOG_LEVEL", "info"),
	}
}

// NewLogger builds the process logger with timestamps enabled and the
// configured level. The writer defaults to os.Stderr.
func NewLogger(w io.Writer, level string) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	logger := log.NewWithOptions(w, log.Options{ReportTimestamp: true})

	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
