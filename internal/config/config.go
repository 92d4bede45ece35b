package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config holds all tool settings, populated from environment variables.
type Config struct {
	// D3DBin is the root of the solver install; entry scripts are
	// located underneath it.
	D3DBin string
	// OMPThreads caps the solver's OpenMP thread count. Zero leaves the
	// solver default in place.
	OMPThreads int
	// MaxWorkers bounds how many cases run concurrently.
	MaxWorkers int
	// ShowStdout echoes solver output while a case runs.
	ShowStdout bool

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// ReportWidth is the column at which report text wraps.
	ReportWidth int
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	ompThreads, err := parsePositiveInt("OMP_NUM_THREADS", 0)
	if err != nil {
		return nil, err
	}
	maxWorkers, err := parsePositiveInt("MAX_WORKERS", 1)
	if err != nil {
		return nil, err
	}
	reportWidth, err := parsePositiveInt("REPORT_WIDTH", 79)
	if err != nil {
		return nil, err
	}

	shutdownTimeout := 30 * time.Second
	if s := os.Getenv("SHUTDOWN_TIMEOUT"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d <= 0 {
			return nil, errors.New("invalid SHUTDOWN_TIMEOUT")
		}
		shutdownTimeout = d
	}

	cfg := &Config{
		D3DBin:          os.Getenv("D3D_BIN"),
		OMPThreads:      ompThreads,
		MaxWorkers:      maxWorkers,
		ShowStdout:      os.Getenv("SHOW_STDOUT") == "true",
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		ReportWidth:     reportWidth,
	}

	if cfg.ReportWidth < 20 {
		return nil, errors.New("REPORT_WIDTH must be at least 20")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}
