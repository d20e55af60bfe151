// Package config loads and persists the dragclip configuration: a YAML
// file under the platform config directory, overridable through
// DRAGCLIP_* environment variables and CLI flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Paths holds the platform-specific locations used by the application.
type Paths struct {
	BaseDir    string // base directory for configuration
	ConfigFile string // path to config.yaml
	DataDir    string // directory for application data
	DBFile     string // bolt clipboard store
	LogDir     string // directory for log files
}

// Config holds all application configuration.
type Config struct {
	LogLevel string `yaml:"log_level"`

	Log       LogConfig       `yaml:"log"`
	Resolve   ResolveConfig   `yaml:"resolve"`
	Clipboard ClipboardConfig `yaml:"clipboard"`
}

// LogConfig holds logging-related configuration.
type LogConfig struct {
	Format string `yaml:"format"` // "json" or "console"
}

// ResolveConfig tunes the async value-resolution engine.
type ResolveConfig struct {
	// Workers sizes the producer worker pool.
	Workers int `yaml:"workers"`

	// TimeoutMS is the default per-resolution deadline in milliseconds,
	// used when the platform gives no deadline hint.
	TimeoutMS int64 `yaml:"timeout_ms"`
}

// ClipboardConfig selects and tunes the platform bridge.
type ClipboardConfig struct {
	// Backend is "auto", "native" or "bolt". Auto tries the native OS
	// clipboard and falls back to the bolt store when headless.
	Backend string `yaml:"backend"`

	// DBPath overrides the bolt clipboard store location.
	DBPath string `yaml:"db_path"`
}

// GetPaths returns the platform-specific paths, creating the directories
// if needed. DRAGCLIP_CONFIG_DIR and DRAGCLIP_DATA_DIR override the
// defaults.
func GetPaths() (*Paths, error) {
	baseDir := os.Getenv("DRAGCLIP_CONFIG_DIR")
	if baseDir == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, err
		}
		switch runtime.GOOS {
		case "windows":
			baseDir = filepath.Join(configDir, "Dragclip")
		case "darwin":
			baseDir = filepath.Join(configDir, "io.dragclip")
		default:
			baseDir = filepath.Join(configDir, "dragclip")
		}
	}

	dataDir := os.Getenv("DRAGCLIP_DATA_DIR")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		switch runtime.GOOS {
		case "windows":
			if appData, err := os.UserConfigDir(); err == nil {
				dataDir = filepath.Join(appData, "Dragclip", "Data")
			} else {
				dataDir = filepath.Join(homeDir, "AppData", "Local", "Dragclip")
			}
		case "darwin":
			dataDir = filepath.Join(homeDir, "Library", "Application Support", "Dragclip")
		default:
			if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
				dataDir = filepath.Join(xdgDataHome, "dragclip")
			} else {
				dataDir = filepath.Join(homeDir, ".dragclip")
			}
		}
	}

	paths := &Paths{
		BaseDir:    baseDir,
		ConfigFile: filepath.Join(baseDir, "config.yaml"),
		DataDir:    dataDir,
		DBFile:     filepath.Join(dataDir, "clipboard.db"),
		LogDir:     filepath.Join(dataDir, "logs"),
	}
	for _, dir := range []string{paths.BaseDir, paths.DataDir, paths.LogDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	return paths, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Log: LogConfig{
			Format: "console",
		},
		Resolve: ResolveConfig{
			Workers:   4,
			TimeoutMS: 10000,
		},
		Clipboard: ClipboardConfig{
			Backend: "auto",
		},
	}
}

// Load reads the configuration from the given file, or from the default
// location when path is empty. A missing file yields the defaults, which
// are persisted so the user has a file to edit.
func Load(path string) (*Config, error) {
	paths, err := GetPaths()
	if err != nil {
		return nil, err
	}
	if path == "" {
		path = paths.ConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			if err := cfg.Save(path); err != nil {
				return nil, fmt.Errorf("failed to create default config: %w", err)
			}
			cfg.applyPaths(paths)
			overrideFromEnv(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyPaths(paths)
	overrideFromEnv(cfg)
	return cfg, nil
}

// Save writes the configuration to the given file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Config) applyPaths(paths *Paths) {
	if c.Clipboard.DBPath == "" {
		c.Clipboard.DBPath = paths.DBFile
	}
}

func overrideFromEnv(c *Config) {
	if val := os.Getenv("DRAGCLIP_LOG_LEVEL"); val != "" {
		c.LogLevel = val
	}
	if val := os.Getenv("DRAGCLIP_BACKEND"); val != "" {
		c.Clipboard.Backend = val
	}
	if val := os.Getenv("DRAGCLIP_DB_PATH"); val != "" {
		c.Clipboard.DBPath = val
	}
	if val := os.Getenv("DRAGCLIP_RESOLVE_WORKERS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			c.Resolve.Workers = n
		}
	}
	if val := os.Getenv("DRAGCLIP_RESOLVE_TIMEOUT_MS"); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil && n > 0 {
			c.Resolve.TimeoutMS = n
		}
	}
}
