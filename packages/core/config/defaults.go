package config

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		DefaultEnvironment: "dev",
		Timeout:            30000, // 30 seconds
		MaxRedirects:       10,
		Output:             "console",
		Repeat:             1,
	}
}
