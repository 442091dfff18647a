package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".pagesnap"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the YAML configuration file shape.
type File struct {
	// BaseURL overrides the collector API base URL.
	BaseURL string `yaml:"base_url"`

	// UserAgent overrides the HTTP User-Agent header.
	UserAgent string `yaml:"user_agent"`

	// Timeout overrides the per-request timeout.
	Timeout time.Duration `yaml:"timeout"`

	// MaxQueueItems overrides the queue bound.
	MaxQueueItems int `yaml:"max_queue_items"`

	// MaxAttempts overrides the per-item retry ceiling.
	MaxAttempts int `yaml:"max_attempts"`

	// DataDir overrides the local database directory.
	DataDir string `yaml:"data_dir"`
}

// LoadConfigFile loads configuration from a YAML file. If the file does not
// exist, it returns ErrConfigNotFound; callers decide whether that is fatal
// based on whether the path was explicitly requested.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// FindConfigFile searches for the configuration file:
//  1. If configPath is specified, use it directly
//  2. Look for .pagesnap in the current directory
//  3. Look for .pagesnap in the user's home directory
//
// Returns the path if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}
