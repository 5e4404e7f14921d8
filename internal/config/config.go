package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const appName = "schnellrechner"

// Environment variables that override values from the config file
const (
	EnvLogLevel = "SCHNELLRECHNER_LOG_LEVEL"
	EnvLogPath  = "SCHNELLRECHNER_LOG_PATH"
)

// ServerConfig configures the HTTP/WebSocket shell
type ServerConfig struct {
	Addr           string   `json:"addr"`
	AllowedOrigins []string `json:"allowed_origins,omitempty"` // WebSocket origins; empty allows same-host only
}

// DisplayConfig controls how results are rendered
type DisplayConfig struct {
	Precision int `json:"precision"` // fractional digits, -1 for shortest round-trip
}

// TUIConfig controls the terminal keypad
type TUIConfig struct {
	ShowHistory bool `json:"show_history"`
}

// Config represents application configuration
type Config struct {
	LogLevel       string        `json:"log_level"` // debug, info, warn, error, none
	LogPath        string        `json:"-"`
	HistoryEnabled bool          `json:"history_enabled"`
	HistoryLimit   int           `json:"history_limit"` // entries kept in the history database, 0 keeps all
	HistoryPath    string        `json:"-"`
	Server         ServerConfig  `json:"server"`
	Display        DisplayConfig `json:"display"`
	TUI            TUIConfig     `json:"tui"`
}

func defaultConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		if appData := strings.TrimSpace(os.Getenv("APPDATA")); appData != "" {
			return filepath.Join(appData, appName)
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, "AppData", "Roaming", appName)
	default:
		if configHome := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); configHome != "" {
			return filepath.Join(configHome, appName)
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".config", appName)
	}
}

func defaultStateDir() string {
	switch runtime.GOOS {
	case "windows":
		if localAppData := strings.TrimSpace(os.Getenv("LOCALAPPDATA")); localAppData != "" {
			return filepath.Join(localAppData, appName)
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, "AppData", "Local", appName)
	case "linux":
		if stateHome := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); stateHome != "" {
			return filepath.Join(stateHome, appName)
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".local", "state", appName)
	default:
		return defaultConfigDir()
	}
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	stateDir := defaultStateDir()

	return &Config{
		LogLevel:       "info",
		LogPath:        filepath.Join(stateDir, appName+".log"),
		HistoryEnabled: true,
		HistoryLimit:   1000,
		HistoryPath:    filepath.Join(stateDir, "history.db"),
		Server: ServerConfig{
			Addr: "localhost:8937",
		},
		Display: DisplayConfig{
			Precision: -1,
		},
		TUI: TUIConfig{
			ShowHistory: true,
		},
	}
}

// Load loads configuration from file. A missing file yields the defaults;
// fields absent from the file keep their default values.
func Load(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.Server.Addr == "" {
		config.Server.Addr = DefaultConfig().Server.Addr
	}
	if config.HistoryLimit < 0 {
		config.HistoryLimit = 0
	}
	if config.Display.Precision < -1 {
		config.Display.Precision = -1
	}

	return config, nil
}

// ApplyEnv overrides logging settings from the environment
func (c *Config) ApplyEnv() {
	if level := strings.TrimSpace(os.Getenv(EnvLogLevel)); level != "" {
		c.LogLevel = level
	}
	if path := strings.TrimSpace(os.Getenv(EnvLogPath)); path != "" {
		c.LogPath = path
	}
}

// Save saves configuration to file
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// GetConfigPath returns the default config path
func GetConfigPath() string {
	return filepath.Join(defaultConfigDir(), "config.json")
}
