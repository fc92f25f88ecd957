package env

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SharedEnvironment is the reqfile.yaml block every named environment
// inherits from.
const SharedEnvironment = "$shared"

// SystemVarPrefix marks process environment variables that should be
// injected as request variables, with the prefix stripped.
const SystemVarPrefix = "REQFILE_VAR_"

// environmentFilenames are searched in order when loading an environment.
var environmentFilenames = []string{"reqfile.yaml", "reqfile.yml"}

type Environment struct {
	Name      string
	Variables map[string]string
}

type environmentFile struct {
	Environments map[string]map[string]any `yaml:"environments"`
}

// LoadEnvironment reads the named environment from the first reqfile.yaml
// or reqfile.yml found in dir. Variables from the $shared block form the
// base layer and the named block overrides them. A missing file yields an
// empty environment rather than an error; an unknown name only gets the
// shared layer.
func LoadEnvironment(dir, name string) (*Environment, error) {
	env := &Environment{
		Name:      name,
		Variables: make(map[string]string),
	}

	for _, filename := range environmentFilenames {
		path := filepath.Join(dir, filename)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var f environmentFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}

		for k, v := range f.Environments[SharedEnvironment] {
			env.Variables[k] = fmt.Sprint(v)
		}
		if name != "" && name != SharedEnvironment {
			for k, v := range f.Environments[name] {
				env.Variables[k] = fmt.Sprint(v)
			}
		}
		break
	}

	return env, nil
}

// MergeVariables flattens sources into one map, later sources winning.
func MergeVariables(sources ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, src := range sources {
		for k, v := range src {
			result[k] = v
		}
	}
	return result
}

// LoadSystemEnv returns process environment variables, optionally filtered
// by prefix. The prefix is stripped from the returned keys, so with prefix
// "REQFILE_VAR_" the variable REQFILE_VAR_token comes back as "token".
func LoadSystemEnv(prefix string) map[string]string {
	result := make(map[string]string)
	for _, e := range os.Environ() {
		key, value, found := strings.Cut(e, "=")
		if !found {
			continue
		}
		if prefix == "" {
			result[key] = value
		} else if strings.HasPrefix(key, prefix) && len(key) > len(prefix) {
			result[strings.TrimPrefix(key, prefix)] = value
		}
	}
	return result
}
