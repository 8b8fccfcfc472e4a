package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/codefionn/tapcalc/internal/calc"
	"github.com/codefionn/tapcalc/internal/history"
)

const appName = "tapcalc"

// HistoryConfig selects where completed calculations are stored.
type HistoryConfig struct {
	Backend string `json:"backend"` // sqlite, bolt, file, memory
	Path    string `json:"path"`
	Limit   int    `json:"limit"`
}

// Config represents application configuration
type Config struct {
	LogLevel    string        `json:"log_level"` // debug, info, warn, error, none
	LogPath     string        `json:"-"`
	Locale      string        `json:"locale"`     // BCP 47 tag for the decimal separator
	AngleMode   string        `json:"angle_mode"` // rad, deg
	Mode        string        `json:"mode"`       // basic, scientific
	ShowFormula bool          `json:"show_formula"`
	History     HistoryConfig `json:"history"`
}

func defaultConfigDir() string {
	switch runtime.GOOS {
	case "linux":
		if configHome := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); configHome != "" {
			return filepath.Join(configHome, appName)
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".config", appName)
	case "windows":
		if appData := strings.TrimSpace(os.Getenv("APPDATA")); appData != "" {
			return filepath.Join(appData, appName)
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, "AppData", "Roaming", appName)
	default:
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".config", appName)
	}
}

func defaultStateDir() string {
	switch runtime.GOOS {
	case "linux":
		if stateHome := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); stateHome != "" {
			return filepath.Join(stateHome, appName)
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".local", "state", appName)
	case "windows":
		if localAppData := strings.TrimSpace(os.Getenv("LOCALAPPDATA")); localAppData != "" {
			return filepath.Join(localAppData, appName)
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, "AppData", "Local", appName)
	default:
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".config", appName)
	}
}

// DefaultHistoryPath returns the default store location for a backend.
func DefaultHistoryPath(backend string) string {
	name := "history.db"
	switch backend {
	case history.BackendBolt:
		name = "history.bolt"
	case history.BackendFile:
		name = "history.json"
	}
	return filepath.Join(defaultStateDir(), name)
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		LogLevel:    "info",
		LogPath:     filepath.Join(defaultStateDir(), appName+".log"),
		Locale:      "en",
		AngleMode:   calc.Radians.String(),
		Mode:        calc.ModeScientific.String(),
		ShowFormula: true,
		History: HistoryConfig{
			Backend: history.BackendSQLite,
			Path:    DefaultHistoryPath(history.BackendSQLite),
			Limit:   history.MaxEntries,
		},
	}
}

// Load loads configuration from file. A missing file yields the defaults;
// fields absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			config.applyEnv()
			return config, nil
		}
		return nil, err
	}

	// The default path depends on the backend the file may choose.
	config.History.Path = ""

	// Unmarshal into default config (overrides only provided fields)
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	config.normalize()
	config.applyEnv()
	return config, nil
}

// normalize fills emptied fields and clamps the history limit.
func (c *Config) normalize() {
	defaults := DefaultConfig()
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
	if c.LogPath == "" {
		c.LogPath = defaults.LogPath
	}
	if c.Locale == "" {
		c.Locale = defaults.Locale
	}
	if c.AngleMode == "" {
		c.AngleMode = defaults.AngleMode
	}
	if c.Mode == "" {
		c.Mode = defaults.Mode
	}
	if c.History.Backend == "" {
		c.History.Backend = defaults.History.Backend
	}
	if c.History.Path == "" {
		c.History.Path = DefaultHistoryPath(c.History.Backend)
	}
	if c.History.Limit < 1 || c.History.Limit > history.MaxEntries {
		c.History.Limit = history.MaxEntries
	}
}

// applyEnv lets TAPCALC_LOG_LEVEL and TAPCALC_LOG_PATH override the file.
func (c *Config) applyEnv() {
	if level := strings.TrimSpace(os.Getenv("TAPCALC_LOG_LEVEL")); level != "" {
		c.LogLevel = level
	}
	if path := strings.TrimSpace(os.Getenv("TAPCALC_LOG_PATH")); path != "" {
		c.LogPath = path
	}
}

// Validate checks the enumerated fields.
func (c *Config) Validate() error {
	if _, err := calc.ParseAngleMode(c.AngleMode); err != nil {
		return err
	}
	if _, err := calc.ParseMode(c.Mode); err != nil {
		return err
	}
	switch c.History.Backend {
	case history.BackendSQLite, history.BackendBolt, history.BackendFile, history.BackendMemory:
	default:
		return fmt.Errorf("unknown history backend %q", c.History.Backend)
	}
	return nil
}

// Angle returns the configured angle mode, radians if unparseable.
func (c *Config) Angle() calc.AngleMode {
	a, _ := calc.ParseAngleMode(c.AngleMode)
	return a
}

// CalculatorMode returns the configured mode, scientific if unparseable.
func (c *Config) CalculatorMode() calc.Mode {
	m, _ := calc.ParseMode(c.Mode)
	return m
}

// Save saves configuration to file
func (c *Config) Save(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetConfigPath returns the default config path
func GetConfigPath() string {
	return filepath.Join(defaultConfigDir(), "config.json")
}
