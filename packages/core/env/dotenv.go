package env

import (
	"fmt"
	"os"
	"strings"

	"github.com/reqfile/reqfile/packages/builtin"
)

// LoadDotEnv reads a dotenv-format file into a map. Lines look like
// KEY=value with optional surrounding quotes and an optional "export"
// prefix; blank lines and # comments are skipped. The process environment
// is never touched: callers layer the result into a Resolver environment
// instead.
func LoadDotEnv(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open env file: %w", err)
	}

	vars := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		value, _ = builtin.Unquote(strings.TrimSpace(value))
		vars[key] = value
	}
	return vars, nil
}
