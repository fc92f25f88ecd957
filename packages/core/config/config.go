package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the project-level configuration. Zero values mean "not set";
// boolean options use pointers so Merge can tell an explicit false from an
// absent key.
type Config struct {
	DefaultEnvironment string            `json:"defaultEnvironment,omitempty"`
	Timeout            int               `json:"timeout,omitempty"` // milliseconds
	FollowRedirects    *bool             `json:"followRedirects,omitempty"`
	MaxRedirects       int               `json:"maxRedirects,omitempty"`
	ValidateSSL        *bool             `json:"validateSSL,omitempty"`
	Proxy              string            `json:"proxy,omitempty"`
	Headers            map[string]string `json:"headers,omitempty"` // default headers for all requests
	Output             string            `json:"output,omitempty"`  // console or json
	Repeat             int               `json:"repeat,omitempty"`
	Rate               float64           `json:"rate,omitempty"` // requests per second, 0 = unlimited
	Bail               *bool             `json:"bail,omitempty"`
	Strict             *bool             `json:"strict,omitempty"`
	Verbose            *bool             `json:"verbose,omitempty"`
	NoColor            *bool             `json:"noColor,omitempty"`
	History            *bool             `json:"history,omitempty"`
	HistoryPath        string            `json:"historyPath,omitempty"`
}

// BoolPtr returns a pointer to b, for setting the optional boolean fields.
func BoolPtr(b bool) *bool {
	return &b
}

func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

func (c *Config) GetFollowRedirects() bool {
	return getBool(c.FollowRedirects, true)
}

func (c *Config) GetValidateSSL() bool {
	return getBool(c.ValidateSSL, true)
}

func (c *Config) GetBail() bool {
	return getBool(c.Bail, false)
}

func (c *Config) GetStrict() bool {
	return getBool(c.Strict, false)
}

func (c *Config) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// GetHistory reports whether runs should be recorded; on by default.
func (c *Config) GetHistory() bool {
	return getBool(c.History, true)
}

// ConfigFilenames are the recognized config file names, tried in order.
var ConfigFilenames = []string{
	".reqfile.config.json",
	"reqfile.config.json",
	".reqfilerc",
	".reqfilerc.json",
}

// LoadConfig loads configuration from path, or searches the current
// directory for a recognized config file when path is empty.
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches dir for the first recognized config file.
// Defaults are returned when none exists.
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}
	return DefaultConfig(), nil
}

func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return config, nil
}

// Merge layers other on top of c, other winning for every explicitly set
// field, and returns the combined config without mutating either input.
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c

	if other.DefaultEnvironment != "" {
		result.DefaultEnvironment = other.DefaultEnvironment
	}
	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.MaxRedirects > 0 {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.Proxy != "" {
		result.Proxy = other.Proxy
	}
	if other.Output != "" {
		result.Output = other.Output
	}
	if other.Repeat > 0 {
		result.Repeat = other.Repeat
	}
	if other.Rate > 0 {
		result.Rate = other.Rate
	}
	if other.HistoryPath != "" {
		result.HistoryPath = other.HistoryPath
	}

	if other.FollowRedirects != nil {
		result.FollowRedirects = other.FollowRedirects
	}
	if other.ValidateSSL != nil {
		result.ValidateSSL = other.ValidateSSL
	}
	if other.Bail != nil {
		result.Bail = other.Bail
	}
	if other.Strict != nil {
		result.Strict = other.Strict
	}
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}
	if other.History != nil {
		result.History = other.History
	}

	if len(other.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		for k, v := range other.Headers {
			result.Headers[k] = v
		}
	}

	return &result
}

// SaveConfig writes the configuration to path as indented JSON.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
