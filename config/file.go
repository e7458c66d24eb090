package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrConfigExists is returned by WriteConfigFile when it would overwrite a
// file without force.
var ErrConfigExists = errors.New("config file already exists")

// DefaultPath returns ~/.gamingnews/config.yaml, or the value of
// GAMINGNEWS_CONFIG when set.
func DefaultPath() (string, error) {
	if p := os.Getenv("GAMINGNEWS_CONFIG"); p != "" {
		return p, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".gamingnews", "config.yaml"), nil
}

// LoadConfigFile decodes the YAML file at path on top of cfg, so keys the
// file omits keep their current values. It reports false if the file
// doesn't exist (not an error) and returns an error if the file exists but
// cannot be parsed.
func LoadConfigFile(path string, cfg *Config) (bool, error) {
	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return false, fmt.Errorf("failed to parse config file: %w", err)
	}

	return true, nil
}

// WriteConfigFile writes cfg as YAML to path, creating parent directories.
// An existing file is only replaced when force is set.
func WriteConfigFile(path string, cfg *Config, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
