package config

import (
	"blockterm/log"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	ConfigFileName = "config.json"
	defaultShell   = "/bin/bash"
)

// GetConfigDir returns the path to the application's configuration directory
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config home directory: %w", err)
	}
	return filepath.Join(homeDir, ".blockterm"), nil
}

// Config represents the application configuration
type Config struct {
	// DefaultShell is the shell spawned in new panes. Empty means $SHELL.
	DefaultShell string `json:"default_shell"`
	// TickIntervalMs is the control-loop tick interval in milliseconds.
	TickIntervalMs int `json:"tick_interval_ms"`
	// ExportDir is the directory block exports are written to.
	ExportDir string `json:"export_dir"`
	// ThemeBackground is the hex color used for cells with a default background.
	ThemeBackground string `json:"theme_background"`
	// ThemeForeground is the hex color used for cells with a default foreground.
	ThemeForeground string `json:"theme_foreground"`
	// PersistHistory controls whether finalized blocks are saved between runs.
	PersistHistory bool `json:"persist_history"`
}

// GetShell resolves the shell for new panes, falling back to $SHELL then /bin/bash.
func GetShell() string {
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}
	return defaultShell
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	exportDir := "."
	if home, err := os.UserHomeDir(); err == nil {
		exportDir = filepath.Join(home, ".blockterm", "exports")
	}

	return &Config{
		DefaultShell:    GetShell(),
		TickIntervalMs:  10,
		ExportDir:       exportDir,
		ThemeBackground: "#1a1a1a",
		ThemeForeground: "#dddddd",
		PersistHistory:  true,
	}
}

func LoadConfig() *Config {
	configDir, err := GetConfigDir()
	if err != nil {
		log.ErrorLog.Printf("failed to get config directory: %v", err)
		return DefaultConfig()
	}

	configPath := filepath.Join(configDir, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Create and save default config if file doesn't exist
			defaultCfg := DefaultConfig()
			if saveErr := saveConfig(defaultCfg); saveErr != nil {
				log.WarningLog.Printf("failed to save default config: %v", saveErr)
			}
			return defaultCfg
		}

		log.WarningLog.Printf("failed to get config file: %v", err)
		return DefaultConfig()
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		preview := string(data)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		log.ErrorLog.Printf("failed to parse config file at %s: %v\nConfig content preview: %s", configPath, err, preview)

		// Backup the corrupted config before falling back to defaults
		backupPath := configPath + ".corrupt." + time.Now().Format("20060102-150405")
		if backupErr := os.WriteFile(backupPath, data, 0644); backupErr == nil {
			log.InfoLog.Printf("Backed up corrupted config to: %s", backupPath)
		}

		return DefaultConfig()
	}

	if config.TickIntervalMs <= 0 {
		config.TickIntervalMs = 10
	}

	return &config
}

// saveConfig saves the configuration to disk
func saveConfig(config *Config) error {
	configDir, err := GetConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := filepath.Join(configDir, ConfigFileName)
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

// SaveConfig exports the saveConfig function for use by other packages
func SaveConfig(config *Config) error {
	return saveConfig(config)
}

// TickInterval returns the control-loop tick interval as a duration.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}
