package env

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleEnvironments = `environments:
  $shared:
    host: shared.example.com
    timeout: 30
  dev:
    host: dev.example.com
    token: dev-token
  prod:
    host: prod.example.com
`

func writeEnvironments(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "reqfile.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write reqfile.yaml: %v", err)
	}
	return dir
}

func TestLoadEnvironment(t *testing.T) {
	dir := writeEnvironments(t, sampleEnvironments)

	env, err := LoadEnvironment(dir, "dev")
	if err != nil {
		t.Fatalf("LoadEnvironment() error = %v", err)
	}

	if env.Name != "dev" {
		t.Errorf("Name = %q, want dev", env.Name)
	}
	if got := env.Variables["host"]; got != "dev.example.com" {
		t.Errorf("host = %q, want the dev override", got)
	}
	if got := env.Variables["token"]; got != "dev-token" {
		t.Errorf("token = %q", got)
	}
	if got := env.Variables["timeout"]; got != "30" {
		t.Errorf("timeout = %q, want the shared value as a string", got)
	}
}

func TestLoadEnvironmentUnknownNameGetsSharedOnly(t *testing.T) {
	dir := writeEnvironments(t, sampleEnvironments)

	env, err := LoadEnvironment(dir, "staging")
	if err != nil {
		t.Fatalf("LoadEnvironment() error = %v", err)
	}
	if got := env.Variables["host"]; got != "shared.example.com" {
		t.Errorf("host = %q, want the shared value", got)
	}
	if _, ok := env.Variables["token"]; ok {
		t.Error("token should not leak from the dev environment")
	}
}

func TestLoadEnvironmentMissingFile(t *testing.T) {
	env, err := LoadEnvironment(t.TempDir(), "dev")
	if err != nil {
		t.Fatalf("LoadEnvironment() error = %v", err)
	}
	if len(env.Variables) != 0 {
		t.Errorf("Variables = %v, want empty", env.Variables)
	}
}

func TestLoadEnvironmentYmlFallback(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "reqfile.yml"), []byte(sampleEnvironments), 0o644); err != nil {
		t.Fatalf("failed to write reqfile.yml: %v", err)
	}

	env, err := LoadEnvironment(dir, "prod")
	if err != nil {
		t.Fatalf("LoadEnvironment() error = %v", err)
	}
	if got := env.Variables["host"]; got != "prod.example.com" {
		t.Errorf("host = %q", got)
	}
}

func TestLoadEnvironmentBadYAML(t *testing.T) {
	dir := writeEnvironments(t, "environments: [not: a: map")

	if _, err := LoadEnvironment(dir, "dev"); err == nil {
		t.Error("LoadEnvironment() expected an error for malformed yaml")
	}
}

func TestMergeVariables(t *testing.T) {
	merged := MergeVariables(
		map[string]string{"a": "1", "b": "2"},
		map[string]string{"b": "3", "c": "4"},
	)

	want := map[string]string{"a": "1", "b": "3", "c": "4"}
	for k, v := range want {
		if merged[k] != v {
			t.Errorf("merged[%q] = %q, want %q", k, merged[k], v)
		}
	}
	if len(merged) != len(want) {
		t.Errorf("merged has %d keys, want %d", len(merged), len(want))
	}
}

func TestLoadSystemEnv(t *testing.T) {
	t.Setenv("REQFILE_VAR_token", "abc")
	t.Setenv("REQFILE_VAR_host", "example.com")
	t.Setenv("UNRELATED", "x")

	vars := LoadSystemEnv("REQFILE_VAR_")
	if got := vars["token"]; got != "abc" {
		t.Errorf("token = %q", got)
	}
	if got := vars["host"]; got != "example.com" {
		t.Errorf("host = %q", got)
	}
	if _, ok := vars["UNRELATED"]; ok {
		t.Error("unprefixed variable leaked through")
	}
}
