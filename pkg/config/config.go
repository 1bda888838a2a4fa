// Package config loads dicebridge settings from ~/.config/dicebridge/config.yaml
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the API server
type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

// StoreConfig configures the dictionary store
type StoreConfig struct {
	Dir        string        `yaml:"dir,omitempty"` // empty keeps dictionaries in memory
	FlushDelay time.Duration `yaml:"flush_delay,omitempty"`
}

// GenerateConfig holds the inference pipeline settings
type GenerateConfig struct {
	Threshold  float64 `yaml:"threshold"`
	NoiseLevel float64 `yaml:"noise_level"`
	Seed       int64   `yaml:"seed"`
}

// Config is the main configuration structure
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Generate GenerateConfig `yaml:"generate"`
	Kit      string         `yaml:"kit"`
	Debug    bool           `yaml:"debug,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"*"},
		},
		Store: StoreConfig{
			FlushDelay: 500 * time.Millisecond,
		},
		Generate: GenerateConfig{
			Threshold:  0.5,
			NoiseLevel: 0.2,
		},
		Kit: "drumrack",
	}
}

// Dir returns the config directory path
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "dicebridge"), nil
}

// Path returns the full path to config.yaml
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config from the default path, or returns defaults if not found
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads the config at path over the defaults. A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to path
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// DebugLogPath returns where the debug log is written
func DebugLogPath() string {
	dir, err := Dir()
	if err != nil {
		return filepath.Join(os.TempDir(), "dicebridge-debug.log")
	}
	return filepath.Join(dir, "debug.log")
}
