package env

import (
	"strings"
	"testing"

	"github.com/reqfile/reqfile/packages/core/parser"
)

func parseForValidation(t *testing.T, input string) *parser.RequestFile {
	t.Helper()
	file, err := parser.Parse(input)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return file
}

func TestValidateFileCleanFile(t *testing.T) {
	file := parseForValidation(t, "@host = example.com\n"+
		"# @name ping\n"+
		"GET https://{{host}}/ping\n")

	diags := ValidateFile(file, nil)
	if len(diags) != 0 {
		t.Fatalf("ValidateFile() = %v, want none", diags)
	}
}

func TestValidateFileUnresolvedReference(t *testing.T) {
	file := parseForValidation(t, "# @name ping\n"+
		"GET https://{{host}}/ping\n")

	diags := ValidateFile(file, nil)
	if len(diags) != 1 {
		t.Fatalf("ValidateFile() = %v, want one finding", diags)
	}
	if diags[0].Line != 1 {
		t.Errorf("Line = %d, want 1", diags[0].Line)
	}
	if !strings.Contains(diags[0].Message, "{{host}}") {
		t.Errorf("Message = %q, want the reference named", diags[0].Message)
	}
}

func TestValidateFileEnvironmentSatisfiesReference(t *testing.T) {
	file := parseForValidation(t, "# @name ping\n"+
		"GET https://{{host}}/ping\n")

	diags := ValidateFile(file, map[string]string{"host": "example.com"})
	if len(diags) != 0 {
		t.Fatalf("ValidateFile() = %v, want none", diags)
	}
}

func TestValidateFileCircularVariables(t *testing.T) {
	file := parseForValidation(t, "@a = {{b}}\n"+
		"@b = {{a}}\n"+
		"# @name ping\n"+
		"GET https://example.com/\n")

	diags := ValidateFile(file, nil)
	if len(diags) != 2 {
		t.Fatalf("ValidateFile() = %v, want two cycle findings", diags)
	}
	for _, d := range diags {
		if !strings.Contains(d.Message, "cycle") {
			t.Errorf("Message = %q, want a cycle finding", d.Message)
		}
		if d.Line != 0 {
			t.Errorf("Line = %d, want 0 for cycle findings", d.Line)
		}
	}
}

func TestValidateFileBadRequestName(t *testing.T) {
	file := parseForValidation(t, "### Get User!\n"+
		"GET https://example.com/users\n")

	diags := ValidateFile(file, nil)
	if len(diags) != 1 {
		t.Fatalf("ValidateFile() = %v, want one finding", diags)
	}
	if !strings.Contains(diags[0].Message, "Get-User!") {
		t.Errorf("Message = %q, want the separator-derived name", diags[0].Message)
	}
}

func TestValidateFileOverlongName(t *testing.T) {
	long := strings.Repeat("a", parser.DefaultMaxNameLength+1)
	file := parseForValidation(t, "# @name "+long+"\n"+
		"GET https://example.com/\n")

	diags := ValidateFile(file, nil)
	if len(diags) != 1 {
		t.Fatalf("ValidateFile() = %v, want one finding", diags)
	}
	if !strings.Contains(diags[0].Message, "exceeds") {
		t.Errorf("Message = %q, want a length finding", diags[0].Message)
	}
}

func TestValidateFileEnvRef(t *testing.T) {
	input := "# @name ping\n" +
		"GET https://example.com/\n" +
		"Authorization: Bearer ${REQFILE_VALIDATE_TOKEN}\n"

	file := parseForValidation(t, input)
	diags := ValidateFile(file, nil)
	if len(diags) != 1 {
		t.Fatalf("ValidateFile() = %v, want one finding", diags)
	}
	if !strings.Contains(diags[0].Message, "${REQFILE_VALIDATE_TOKEN}") {
		t.Errorf("Message = %q, want the env reference named", diags[0].Message)
	}

	t.Setenv("REQFILE_VALIDATE_TOKEN", "x")
	if diags := ValidateFile(file, nil); len(diags) != 0 {
		t.Fatalf("ValidateFile() with env set = %v, want none", diags)
	}
}

func TestValidateFileBodyReferences(t *testing.T) {
	input := "# @name create\n" +
		"POST https://example.com/users\n" +
		"\n" +
		"{\"team\": \"{{team}}\"}\n"

	file := parseForValidation(t, input)
	diags := ValidateFile(file, nil)
	if len(diags) != 1 {
		t.Fatalf("ValidateFile() = %v, want one finding", diags)
	}
	if !strings.Contains(diags[0].Message, "{{team}}") {
		t.Errorf("Message = %q, want the body reference named", diags[0].Message)
	}
}
