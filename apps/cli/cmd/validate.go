package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/reqfile/reqfile/packages/core/env"
	"github.com/reqfile/reqfile/packages/core/parser"
)

var (
	validateStrict bool
	validateEnv    string
)

var validateCmd = &cobra.Command{
	Use:   "validate <file|directory>...",
	Short: "Validate .http files without executing them",
	Long: `Parse .http or .rest files and report structural errors (duplicate
request names) plus semantic findings: invalid request names, circular
file variables, and references that resolve against nothing.

Findings are warnings unless --strict is given, in which case any
finding fails the command.

Examples:
  reqfile validate api.http
  reqfile validate ./requests/ --strict --env staging`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateCommand,
}

func init() {
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "Treat warnings as errors and enforce name rules at parse time")
	validateCmd.Flags().StringVarP(&validateEnv, "env", "e", "", "Environment block to validate references against")
}

func validateCommand(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .http or .rest files found")
	}

	hasErrors := false
	for _, file := range files {
		opts := parser.DefaultOptions()
		opts.Strict = validateStrict

		f, err := parser.ParseFileWithOptions(file, opts)
		if err != nil {
			fmt.Fprintf(cmd.OutOrStderr(), "Error in %s: %v\n", file, err)
			hasErrors = true
			continue
		}

		environment, err := env.LoadEnvironment(filepath.Dir(file), validateEnv)
		if err != nil {
			fmt.Fprintf(cmd.OutOrStderr(), "Error in %s: %v\n", file, err)
			hasErrors = true
			continue
		}

		diags := env.ValidateFile(f, environment.Variables)
		if len(diags) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s\n", file)
			continue
		}

		for _, d := range diags {
			fmt.Fprintf(cmd.OutOrStderr(), "%s: %s\n", file, d)
		}
		if validateStrict {
			hasErrors = true
		}
	}

	if hasErrors {
		return fmt.Errorf("validation failed")
	}
	return nil
}
