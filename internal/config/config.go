package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Roles the probe knows about.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleFan     = "fan"
)

// Config holds all configuration for the panel probe.
type Config struct {
	// CDP connection settings
	CDPAddress string
	CDPPort    int

	// Application under test
	BaseURL     string
	AdminPath   string
	ManagerPath string
	FanPath     string
	AdminKey    string
	ManagerKey  string
	FanKey      string
	TestToken   string

	// Tab matching
	TabURLFilter string

	// Probe protocol knobs
	ReadyTimeoutMS    int
	ActivateTimeoutMS int
	EvalTimeoutMS     int
	AppRootSelector   string
	PaneClass         string

	// Scenario suite
	SuitePath string
	Strict    bool

	// Artifact storage
	DataDir       string
	MaxFileSizeMB int
	RequestWindow int
}

// Load reads configuration from environment variables and optional .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	cfg := &Config{
		CDPAddress: getEnvOrDefault("CHROMIUM_CDP_ADDRESS", "127.0.0.1"),
		CDPPort:    getEnvIntOrDefault("CHROMIUM_CDP_PORT", 9222),

		BaseURL:     getEnvOrDefault("PROBE_BASE_URL", ""),
		AdminPath:   getEnvOrDefault("PROBE_ADMIN_PATH", "/admin"),
		ManagerPath: getEnvOrDefault("PROBE_MANAGER_PATH", "/manager"),
		FanPath:     getEnvOrDefault("PROBE_FAN_PATH", "/"),
		AdminKey:    getEnvOrDefault("PROBE_ADMIN_KEY", ""),
		ManagerKey:  getEnvOrDefault("PROBE_MANAGER_KEY", ""),
		FanKey:      getEnvOrDefault("PROBE_FAN_KEY", ""),
		TestToken:   getEnvOrDefault("PROBE_TEST_TOKEN", ""),

		TabURLFilter: getEnvOrDefault("PROBE_TAB_URL_FILTER", ""),

		ReadyTimeoutMS:    getEnvIntOrDefault("PROBE_READY_TIMEOUT_MS", 10000),
		ActivateTimeoutMS: getEnvIntOrDefault("PROBE_ACTIVATE_TIMEOUT_MS", 2500),
		EvalTimeoutMS:     getEnvIntOrDefault("PROBE_EVAL_TIMEOUT_MS", 5000),
		AppRootSelector:   getEnvOrDefault("PROBE_APP_ROOT_SELECTOR", `[data-testid="app-root"]`),
		PaneClass:         getEnvOrDefault("PROBE_PANE_CLASS", "tab-pane"),

		SuitePath: getEnvOrDefault("PROBE_SUITE_PATH", "./config/scenarios.yaml"),
		Strict:    getEnvBoolOrDefault("PROBE_STRICT", false),

		DataDir:       getEnvOrDefault("PROBE_DATA_DIR", "./probe_data"),
		MaxFileSizeMB: getEnvIntOrDefault("PROBE_MAX_FILE_SIZE_MB", 50),
		RequestWindow: getEnvIntOrDefault("PROBE_REQUEST_WINDOW", 512),
	}

	if cfg.EvalTimeoutMS < 1000 {
		cfg.EvalTimeoutMS = 1000
	}
	if cfg.TabURLFilter == "" && cfg.BaseURL != "" {
		if u, err := url.Parse(cfg.BaseURL); err == nil {
			cfg.TabURLFilter = u.Host
		}
	}

	return cfg, nil
}

// GetCDPURL returns the full CDP HTTP endpoint.
func (c *Config) GetCDPURL() string {
	return fmt.Sprintf("http://%s:%d", c.CDPAddress, c.CDPPort)
}

// RolePaths maps each role to the URL path prefix identifying its panel.
func (c *Config) RolePaths() map[string]string {
	return map[string]string{
		RoleAdmin:   c.AdminPath,
		RoleManager: c.ManagerPath,
		RoleFan:     c.FanPath,
	}
}

// RoleKey reports the access key configured for the role, empty when unset.
func (c *Config) RoleKey(role string) string {
	switch role {
	case RoleAdmin:
		return c.AdminKey
	case RoleManager:
		return c.ManagerKey
	case RoleFan:
		return c.FanKey
	}
	return ""
}

// RoleURL builds the full panel URL for a role: base URL + role path, with
// the key credential as a query parameter when one is configured. Empty when
// the base URL is missing or the role is unknown.
func (c *Config) RoleURL(role string) string {
	if c.BaseURL == "" {
		return ""
	}
	base := strings.TrimRight(c.BaseURL, "/")
	var path string
	switch role {
	case RoleAdmin:
		path = c.AdminPath
	case RoleManager:
		path = c.ManagerPath
	case RoleFan:
		path = c.FanPath
	default:
		return ""
	}
	full := base + path
	if key := c.RoleKey(role); key != "" {
		sep := "?"
		if strings.Contains(full, "?") {
			sep = "&"
		}
		full += sep + "key=" + url.QueryEscape(key)
	}
	return full
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
