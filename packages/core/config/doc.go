// Package config loads the JSON project configuration.
//
// A project configures reqfile through one of .reqfile.config.json,
// reqfile.config.json, .reqfilerc, or .reqfilerc.json in the working
// directory. CLI flags override config values; config values override the
// built-in defaults.
package config
