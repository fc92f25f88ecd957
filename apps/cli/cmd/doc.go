// Package cmd implements the reqfile CLI commands using Cobra.
//
// Available commands:
//   - run: execute requests from .http files
//   - validate: check file syntax and references without executing
//   - list: display the requests defined in files
//   - history: list runs recorded in the history database
//   - init: scaffold a new project with example files
//   - version: show version information
package cmd
