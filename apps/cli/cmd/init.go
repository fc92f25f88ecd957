package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new reqfile project",
	Long: `Initialize a new reqfile project in the current directory.

This creates:
  - reqfile.yaml  - named environments with a $shared base
  - example.http  - an example request file

Examples:
  reqfile init
  reqfile init --force`,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	envFile := filepath.Join(cwd, "reqfile.yaml")
	exampleFile := filepath.Join(cwd, "example.http")

	if !forceInit {
		for _, f := range []string{envFile, exampleFile} {
			if _, err := os.Stat(f); err == nil {
				return fmt.Errorf("file already exists: %s (use --force to overwrite)", f)
			}
		}
	}

	envContent := map[string]any{
		"environments": map[string]map[string]string{
			"$shared": {
				"apiVersion": "v1",
			},
			"dev": {
				"host": "http://localhost:3000",
			},
			"staging": {
				"host": "https://staging.api.example.com",
			},
			"prod": {
				"host": "https://api.example.com",
			},
		},
	}

	envYAML, _ := yaml.Marshal(envContent)
	if err := os.WriteFile(envFile, envYAML, 0644); err != nil {
		return fmt.Errorf("creating environment file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", envFile)

	exampleContent := `@base = {{host}}/{{apiVersion}}

# @name health
# @note Check that the API is up
# @expect status 200
GET {{base}}/health

###

# @name createUser
# @expect status 201
# @expect body-path $.name Ada
POST {{base}}/users
Content-Type: application/json

{
  "name": "Ada",
  "requestId": "{{$guid}}"
}

###

# @name getUser
# @expect status 200
# @expect-header Content-Type: application/json
GET {{base}}/users/{{createUser.response.body.$.id}}
`

	if err := os.WriteFile(exampleFile, []byte(exampleContent), 0644); err != nil {
		return fmt.Errorf("creating example file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", exampleFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\nreqfile project initialized.\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'reqfile run example.http --env dev' to execute the example.\n")

	return nil
}
