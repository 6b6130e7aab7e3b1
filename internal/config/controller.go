package config

import (
	"strconv"
	"strings"
)

// ControllerConfig holds configuration for the Huma control API.
type ControllerConfig struct {
	CDPAddress    string
	CDPPort       int
	BindAddr      string
	TabURLFilter  string
	EvalTimeoutMS int
	LogLevel      string
	LogFile       string
	DataDir       string

	// Browser lifecycle
	LaunchBrowser     bool
	BrowserHeadless   bool
	BrowserProfileDir string
	BrowserWindowSize string
}

// LoadController reads controller configuration from environment variables.
// The probe config is loaded first so the controller shares the base URL
// derived tab filter.
func LoadController() (*ControllerConfig, *Config, error) {
	probe, err := Load()
	if err != nil {
		return nil, nil, err
	}

	cfg := &ControllerConfig{
		CDPAddress:    probe.CDPAddress,
		CDPPort:       probe.CDPPort,
		BindAddr:      getEnvOrDefault("CONTROLLER_BIND_ADDR", "127.0.0.1:8188"),
		TabURLFilter:  getEnvOrDefault("CONTROLLER_TAB_URL_FILTER", probe.TabURLFilter),
		EvalTimeoutMS: getEnvIntOrDefault("CONTROLLER_EVAL_TIMEOUT_MS", probe.EvalTimeoutMS),
		LogLevel:      strings.ToLower(getEnvOrDefault("CONTROLLER_LOG_LEVEL", "info")),
		LogFile:       getEnvOrDefault("CONTROLLER_LOG_FILE", "logs/panel_controller.log"),
		DataDir:       getEnvOrDefault("CONTROLLER_DATA_DIR", probe.DataDir),

		LaunchBrowser:     getEnvBoolOrDefault("CONTROLLER_LAUNCH_BROWSER", true),
		BrowserHeadless:   getEnvBoolOrDefault("CONTROLLER_BROWSER_HEADLESS", false),
		BrowserProfileDir: getEnvOrDefault("CONTROLLER_BROWSER_PROFILE_DIR", "./browser_profile"),
		BrowserWindowSize: getEnvOrDefault("CONTROLLER_BROWSER_WINDOW_SIZE", "1920,1080"),
	}
	if cfg.EvalTimeoutMS < 1000 {
		cfg.EvalTimeoutMS = 1000
	}
	return cfg, probe, nil
}

// ControllerCDPURL returns the CDP endpoint URL for controller use.
func (c *ControllerConfig) ControllerCDPURL() string {
	return "http://" + c.CDPAddress + ":" + strconv.Itoa(c.CDPPort)
}
