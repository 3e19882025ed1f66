/*
Package configs is responsible for loading and parsing the application's configuration settings.

It configures server parameters by reading operating system environment variables,
including the running environment, TCP bind address, gateway port, validation
thresholds, and the per-recipient send throttle. All values are fixed at load
time; nothing is runtime-mutable.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig contains all configuration parameters required for the application to run.
// All configuration values are loaded from environment variables.
type AppConfig struct {
	// General Server Settings
	Environment string
	TCPAddr     string
	TCPPort     int
	HTTPPort    int

	// Validation thresholds: names must be shorter than NameLimit characters,
	// message content shorter than ContentLimit characters.
	NameLimit    int
	ContentLimit int

	// SendInterval is the minimum spacing between consecutive transmissions
	// to the same recipient.
	SendInterval time.Duration

	// ReadIdleTimeout is how long a connection may stay silent before a read
	// attempt expires and the session is treated as disconnected.
	ReadIdleTimeout time.Duration

	// AllowedOrigins lists the origins accepted by the gateway's CORS and
	// WebSocket upgrade checks.
	AllowedOrigins []string
}

// LoadConfig reads and parses the application configuration from environment variables.
// It provides default values for each configuration item and performs necessary
// type conversions and validation.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	// --- General Server Settings ---
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	cfg.TCPAddr = os.Getenv("TCP_ADDR")

	tcpPort, err := envInt("TCP_PORT", 9000)
	if err != nil {
		return nil, err
	}
	cfg.TCPPort = tcpPort

	httpPort, err := envInt("HTTP_PORT", 8080)
	if err != nil {
		return nil, err
	}
	cfg.HTTPPort = httpPort

	for _, port := range []int{cfg.TCPPort, cfg.HTTPPort} {
		if port < 1024 || port > 65535 {
			return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", port, 1024, 65535)
		}
	}

	if cfg.TCPPort == cfg.HTTPPort {
		return nil, fmt.Errorf("TCP_PORT and HTTP_PORT must differ, both are %d", cfg.TCPPort)
	}

	// --- Validation thresholds ---
	nameLimit, err := envInt("NAME_LIMIT", 16)
	if err != nil {
		return nil, err
	}
	if nameLimit < 1 {
		return nil, fmt.Errorf("NAME_LIMIT must be positive, got %d", nameLimit)
	}
	cfg.NameLimit = nameLimit

	contentLimit, err := envInt("CONTENT_LIMIT", 128)
	if err != nil {
		return nil, err
	}
	if contentLimit < 1 {
		return nil, fmt.Errorf("CONTENT_LIMIT must be positive, got %d", contentLimit)
	}
	cfg.ContentLimit = contentLimit

	// --- Throttle and timeouts ---
	sendIntervalMS, err := envInt("SEND_INTERVAL_MS", 100)
	if err != nil {
		return nil, err
	}
	if sendIntervalMS < 0 {
		return nil, fmt.Errorf("SEND_INTERVAL_MS must not be negative, got %d", sendIntervalMS)
	}
	cfg.SendInterval = time.Duration(sendIntervalMS) * time.Millisecond

	readIdleSeconds, err := envInt("READ_IDLE_TIMEOUT_SECONDS", 300)
	if err != nil {
		return nil, err
	}
	if readIdleSeconds < 1 {
		return nil, fmt.Errorf("READ_IDLE_TIMEOUT_SECONDS must be positive, got %d", readIdleSeconds)
	}
	cfg.ReadIdleTimeout = time.Duration(readIdleSeconds) * time.Second

	// --- Gateway security settings ---
	originsStr := os.Getenv("ALLOWED_ORIGINS")
	if originsStr != "" {
		for _, origin := range strings.Split(originsStr, ",") {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	} else {
		cfg.AllowedOrigins = []string{}
	}

	return cfg, nil
}

// envInt reads an integer environment variable, falling back to def when unset.
func envInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}

	return value, nil
}
