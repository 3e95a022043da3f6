// Package config loads the daemon's configuration from the environment,
// with an optional .env file for development setups.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the pagegate daemon.
type Config struct {
	// CDP connection settings
	CDPAddress string
	CDPPort    int

	// HTTP surface
	BindAddr         string
	PortCandidates   []string
	PortAutoFallback bool

	// Persistence
	RulesPath          string
	SeedRulesPath      string
	AuditDir           string
	AuditBufferSize    int
	AuditMaxFileSizeMB int

	// Browser behavior
	ActionTimeoutMS   int
	LaunchBrowser     bool
	BrowserProfileDir string
	BrowserStartURL   string

	// Logging
	LogLevel string
	LogFile  string

	// Ops notification endpoint; empty disables notifications.
	NTFYEndpoint string
}

// Load reads configuration from environment variables and optional .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	cfg := &Config{
		CDPAddress:         getEnvOrDefault("CHROMIUM_CDP_ADDRESS", "127.0.0.1"),
		CDPPort:            getEnvIntOrDefault("CHROMIUM_CDP_PORT", 9220),
		BindAddr:           getEnvOrDefault("PAGEGATE_BIND_ADDR", "127.0.0.1:8377"),
		PortCandidates:     splitList(getEnvOrDefault("PAGEGATE_BIND_CANDIDATES", "127.0.0.1:8378,127.0.0.1:8379")),
		PortAutoFallback:   getEnvBoolOrDefault("PAGEGATE_PORT_AUTO_FALLBACK", true),
		RulesPath:          getEnvOrDefault("PAGEGATE_RULES_PATH", "./data/rules.json"),
		SeedRulesPath:      getEnvOrDefault("PAGEGATE_SEED_RULES", ""),
		AuditDir:           getEnvOrDefault("PAGEGATE_AUDIT_DIR", "./data/audit"),
		AuditBufferSize:    getEnvIntOrDefault("PAGEGATE_AUDIT_BUFFER_SIZE", 1024),
		AuditMaxFileSizeMB: getEnvIntOrDefault("PAGEGATE_AUDIT_MAX_FILE_SIZE_MB", 50),
		ActionTimeoutMS:    getEnvIntOrDefault("PAGEGATE_ACTION_TIMEOUT_MS", 5000),
		LaunchBrowser:      getEnvBoolOrDefault("PAGEGATE_LAUNCH_BROWSER", false),
		BrowserProfileDir:  getEnvOrDefault("PAGEGATE_BROWSER_PROFILE_DIR", "./data/profile"),
		BrowserStartURL:    getEnvOrDefault("PAGEGATE_BROWSER_START_URL", "about:blank"),
		LogLevel:           strings.ToLower(getEnvOrDefault("PAGEGATE_LOG_LEVEL", "info")),
		LogFile:            getEnvOrDefault("PAGEGATE_LOG_FILE", "logs/pagegate.log"),
		NTFYEndpoint:       getEnvOrDefault("PAGEGATE_NTFY_ENDPOINT", ""),
	}
	if cfg.ActionTimeoutMS < 1000 {
		cfg.ActionTimeoutMS = 1000
	}

	return cfg, nil
}

// CDPURL returns the full CDP HTTP endpoint used by the chromedp remote
// allocator.
func (c *Config) CDPURL() string {
	return fmt.Sprintf("http://%s:%d", c.CDPAddress, c.CDPPort)
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
