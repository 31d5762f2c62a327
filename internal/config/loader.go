package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".csvharvest"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .csvharvest configuration file.
// Every field is optional; zero values keep the built-in defaults.
type File struct {
	ListingURL      string        `yaml:"listingURL,omitempty"`
	LinkPrefix      string        `yaml:"linkPrefix,omitempty"`
	DataDir         string        `yaml:"dataDir,omitempty"`
	SourceDir       string        `yaml:"sourceDir,omitempty"`
	Timeout         time.Duration `yaml:"timeout,omitempty"`
	DownloadTimeout time.Duration `yaml:"downloadTimeout,omitempty"`
	UserAgent       string        `yaml:"userAgent,omitempty"`
	Workers         int           `yaml:"workers,omitempty"`

	// Delay is a pointer so an explicit "delay: 0s" can disable throttling.
	Delay *time.Duration `yaml:"delay,omitempty"`

	// Columns maps extra raw header names to canonical column names.
	Columns map[string]string `yaml:"columns,omitempty"`
}

// LoadConfigFile loads a configuration file from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	for raw, canonical := range cf.Columns {
		if strings.TrimSpace(canonical) == "" {
			return nil, fmt.Errorf("column alias %q has an empty canonical name", raw)
		}
	}

	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .csvharvest in the current directory
// 3. Look for .csvharvest in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
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
