package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reqfile/reqfile/packages/core/parser"
)

var listVariables bool

var listCmd = &cobra.Command{
	Use:   "list <file|directory>...",
	Short: "List the requests defined in .http files",
	Long: `List the requests (and optionally the file variables) defined in
.http or .rest files without executing anything.

Examples:
  reqfile list api.http
  reqfile list ./requests/ --variables`,
	Args: cobra.MinimumNArgs(1),
	RunE: listCommand,
}

func init() {
	listCmd.Flags().BoolVar(&listVariables, "variables", false, "Also list file variable declarations")
}

func listCommand(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .http or .rest files found")
	}

	for _, file := range files {
		f, err := parser.ParseFile(file)
		if err != nil {
			fmt.Fprintf(cmd.OutOrStderr(), "Error parsing %s: %v\n", file, err)
			continue
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\n%s:\n", file)
		for _, req := range f.Requests {
			fmt.Fprintf(cmd.OutOrStdout(), "  - %s  %s %s\n", req.Name, req.Method, req.URL)
			if req.Metadata != nil && req.Metadata.Note != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "      %s\n", req.Metadata.Note)
			}
		}

		if listVariables && f.Variables.Len() > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "  variables:\n")
			for _, name := range f.Variables.Names() {
				value, _ := f.Variables.Get(name)
				fmt.Fprintf(cmd.OutOrStdout(), "    @%s = %s\n", name, value)
			}
		}
	}

	return nil
}
