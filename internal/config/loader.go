// Package config loads service configuration from an optional YAML file and
// the process environment, with the environment taking precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the runtime configuration of the event manager service.
type Config struct {
	HTTPPort        int
	SQLiteDSN       string
	LogLevel        string
	ShutdownTimeout time.Duration

	// RateLimitPerSecond bounds request throughput per client; zero disables
	// rate limiting.
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// fileConfig mirrors Config for YAML decoding; durations are written as
// strings like "10s".
type fileConfig struct {
	HTTPPort           *int     `yaml:"http_port"`
	SQLiteDSN          *string  `yaml:"sqlite_dsn"`
	LogLevel           *string  `yaml:"log_level"`
	ShutdownTimeout    *string  `yaml:"shutdown_timeout"`
	RateLimitPerSecond *float64 `yaml:"rate_limit_per_second"`
	RateLimitBurst     *int     `yaml:"rate_limit_burst"`
}

func defaults() Config {
	return Config{
		HTTPPort:           8080,
		SQLiteDSN:          "file:eventmanager.db",
		LogLevel:           "info",
		ShutdownTimeout:    10 * time.Second,
		RateLimitPerSecond: 0,
		RateLimitBurst:     20,
	}
}

// Load resolves configuration in three layers: defaults, then the YAML file
// named by EVENTMANAGER_CONFIG_FILE (if any), then individual environment
// variables.
func Load() (Config, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("EVENTMANAGER_CONFIG_FILE")); path != "" {
		loaded, err := loadFile(path, cfg)
		if err != nil {
			return Config{}, err
		}
		cfg = loaded
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("EVENTMANAGER_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "EVENTMANAGER_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("EVENTMANAGER_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if level := strings.TrimSpace(os.Getenv("EVENTMANAGER_LOG_LEVEL")); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}

	if timeoutValue := strings.TrimSpace(os.Getenv("EVENTMANAGER_SHUTDOWN_TIMEOUT")); timeoutValue != "" {
		timeout, err := time.ParseDuration(timeoutValue)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, "EVENTMANAGER_SHUTDOWN_TIMEOUT")
		} else {
			cfg.ShutdownTimeout = timeout
		}
	}

	if rateValue := strings.TrimSpace(os.Getenv("EVENTMANAGER_RATE_LIMIT_PER_SECOND")); rateValue != "" {
		rate, err := strconv.ParseFloat(rateValue, 64)
		if err != nil || rate < 0 {
			invalid = append(invalid, "EVENTMANAGER_RATE_LIMIT_PER_SECOND")
		} else {
			cfg.RateLimitPerSecond = rate
		}
	}

	if burstValue := strings.TrimSpace(os.Getenv("EVENTMANAGER_RATE_LIMIT_BURST")); burstValue != "" {
		burst, err := strconv.Atoi(burstValue)
		if err != nil || burst <= 0 {
			invalid = append(invalid, "EVENTMANAGER_RATE_LIMIT_BURST")
		} else {
			cfg.RateLimitBurst = burst
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return Config{}, fmt.Errorf("unknown log level %q", cfg.LogLevel)
	}

	return cfg, nil
}

func loadFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg := base
	if file.HTTPPort != nil {
		cfg.HTTPPort = *file.HTTPPort
	}
	if file.SQLiteDSN != nil {
		cfg.SQLiteDSN = *file.SQLiteDSN
	}
	if file.LogLevel != nil {
		cfg.LogLevel = strings.ToLower(*file.LogLevel)
	}
	if file.ShutdownTimeout != nil {
		timeout, err := time.ParseDuration(*file.ShutdownTimeout)
		if err != nil || timeout <= 0 {
			return Config{}, fmt.Errorf("invalid shutdown_timeout in config file %s", path)
		}
		cfg.ShutdownTimeout = timeout
	}
	if file.RateLimitPerSecond != nil {
		cfg.RateLimitPerSecond = *file.RateLimitPerSecond
	}
	if file.RateLimitBurst != nil {
		cfg.RateLimitBurst = *file.RateLimitBurst
	}
	return cfg, nil
}
