package logger

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds logging configuration
type Config struct {
	Level          string `yaml:"level" env:"LOG_LEVEL"`
	ConsoleEnabled bool   `yaml:"console_enabled" env:"LOG_CONSOLE_ENABLED"`
	ConsoleFormat  string `yaml:"console_format" env:"LOG_CONSOLE_FORMAT"`
	FileEnabled    bool   `yaml:"file_enabled" env:"LOG_FILE_ENABLED"`
	FilePath       string `yaml:"file_path" env:"LOG_FILE_PATH"`
	FileFormat     string `yaml:"file_format" env:"LOG_FILE_FORMAT"`
	FileMaxSizeMB  int    `yaml:"file_max_size_mb"`
	FileMaxBackups int    `yaml:"file_max_backups"`
	FileMaxAgeDays int    `yaml:"file_max_age_days"`
}

// LoggingConfig wraps the Config for YAML parsing
type LoggingConfig struct {
	Logging Config `yaml:"logging"`
}

// DefaultConfig returns console-only text logging at INFO.
func DefaultConfig() Config {
	return Config{
		Level:          "INFO",
		ConsoleEnabled: true,
		ConsoleFormat:  "text",
		FileEnabled:    false,
		FilePath:       "logs/chronicle.log",
		FileFormat:     "text",
		FileMaxSizeMB:  10,
		FileMaxBackups: 5,
		FileMaxAgeDays: 30,
	}
}

// LoadConfig loads the logging section of a YAML file and applies
// environment variable overrides. A missing or unparsable file leaves the
// defaults in place.
func LoadConfig(configPath string) (Config, error) {
	config := DefaultConfig()

	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			wrapper := LoggingConfig{Logging: config}
			if err := yaml.Unmarshal(data, &wrapper); err == nil {
				config = mergeConfig(config, wrapper.Logging)
			}
		}
	}

	if err := env.Parse(&config); err != nil {
		return config, fmt.Errorf("parse env: %w", err)
	}
	return config, nil
}

// mergeConfig keeps defaults for blank or non-positive loaded values.
func mergeConfig(defaults, loaded Config) Config {
	config := loaded
	if config.Level == "" {
		config.Level = defaults.Level
	}
	if config.ConsoleFormat == "" {
		config.ConsoleFormat = defaults.ConsoleFormat
	}
	if config.FilePath == "" {
		config.FilePath = defaults.FilePath
	}
	if config.FileFormat == "" {
		config.FileFormat = defaults.FileFormat
	}
	if config.FileMaxSizeMB <= 0 {
		config.FileMaxSizeMB = defaults.FileMaxSizeMB
	}
	if config.FileMaxBackups <= 0 {
		config.FileMaxBackups = defaults.FileMaxBackups
	}
	if config.FileMaxAgeDays <= 0 {
		config.FileMaxAgeDays = defaults.FileMaxAgeDays
	}
	return config
}
