package assertions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reqfile/reqfile/packages/chain"
	"github.com/reqfile/reqfile/packages/core/parser"
)

func createRecord(statusCode int, body string, headers map[string]string) *chain.ResponseRecord {
	if headers == nil {
		headers = map[string]string{"Content-Type": "application/json"}
	}
	return &chain.ResponseRecord{
		Name:           "login",
		StatusCode:     statusCode,
		Headers:        headers,
		BodyText:       body,
		ContentType:    headers["Content-Type"],
		ResponseTimeMs: 100,
	}
}

func TestEvaluateStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected string
		passed   bool
	}{
		{"matching status", 200, "200", true},
		{"mismatched status", 404, "200", false},
		{"non-integer expectation", 200, "OK", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEvaluator(createRecord(tt.status, `{}`, nil))
			result := e.Evaluate(&parser.Expectation{
				Kind:  parser.ExpectStatusCode,
				Value: tt.expected,
			})

			assert.Equal(t, tt.passed, result.Passed)
			if !tt.passed {
				assert.NotEmpty(t, result.Message)
			}
		})
	}
}

func TestEvaluateHeader(t *testing.T) {
	headers := map[string]string{
		"Content-Type": "application/json; charset=utf-8",
		"X-Request-Id": "abc-123",
	}

	tests := []struct {
		name    string
		context string
		value   string
		passed  bool
	}{
		{"exact match", "X-Request-Id", "abc-123", true},
		{"case-insensitive name", "x-request-id", "abc-123", true},
		{"value mismatch", "X-Request-Id", "other", false},
		{"presence check", "Content-Type", "", true},
		{"absent header fails presence", "X-Missing", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEvaluator(createRecord(200, `{}`, headers))
			result := e.Evaluate(&parser.Expectation{
				Kind:    parser.ExpectHeader,
				Context: tt.context,
				Value:   tt.value,
			})

			assert.Equal(t, tt.passed, result.Passed)
			assert.Equal(t, "header "+tt.context, result.Subject)
		})
	}
}

func TestEvaluateBodyContains(t *testing.T) {
	record := createRecord(201, `{"status": "created", "id": 42}`, nil)
	e := NewEvaluator(record)

	pass := e.Evaluate(&parser.Expectation{Kind: parser.ExpectBodyContains, Value: "created"})
	assert.True(t, pass.Passed)

	fail := e.Evaluate(&parser.Expectation{Kind: parser.ExpectBodyContains, Value: "deleted"})
	assert.False(t, fail.Passed)
	assert.Contains(t, fail.Message, "deleted")
}

func TestEvaluateBodyPath(t *testing.T) {
	body := `{"user": {"name": "John", "age": 30, "tags": ["a", "b"]}, "ok": true}`

	tests := []struct {
		name    string
		context string
		value   string
		passed  bool
	}{
		{"nested string", "$.user.name", "John", true},
		{"numeric equality ignores format", "$.user.age", "30.0", true},
		{"boolean", "$.ok", "true", true},
		{"array index bracket form", "$.user.tags[1]", "b", true},
		{"existence check", "$.user.tags", "", true},
		{"wrong value", "$.user.name", "Jane", false},
		{"missing path", "$.user.email", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEvaluator(createRecord(200, body, nil))
			result := e.Evaluate(&parser.Expectation{
				Kind:    parser.ExpectBodyPath,
				Context: tt.context,
				Value:   tt.value,
			})

			assert.Equal(t, tt.passed, result.Passed, "message: %s", result.Message)
		})
	}
}

func TestEvaluateBodyPathOnNonJSON(t *testing.T) {
	e := NewEvaluator(createRecord(200, "<html></html>", map[string]string{"Content-Type": "text/html"}))

	result := e.Evaluate(&parser.Expectation{
		Kind:    parser.ExpectBodyPath,
		Context: "$.x",
	})

	assert.False(t, result.Passed)
	assert.Contains(t, result.Message, "not JSON")
}

func TestEvaluateSchema(t *testing.T) {
	schema := `{
		"type": "object",
		"required": ["id", "name"],
		"properties": {
			"id": {"type": "integer"},
			"name": {"type": "string"}
		}
	}`
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "user.schema.json")
	require.NoError(t, os.WriteFile(schemaPath, []byte(schema), 0o644))

	valid := NewEvaluator(createRecord(200, `{"id": 1, "name": "John"}`, nil), WithBaseDir(dir))
	result := valid.Evaluate(&parser.Expectation{Kind: parser.ExpectSchema, Value: "user.schema.json"})
	assert.True(t, result.Passed, "message: %s", result.Message)

	invalid := NewEvaluator(createRecord(200, `{"id": "one"}`, nil), WithBaseDir(dir))
	result = invalid.Evaluate(&parser.Expectation{Kind: parser.ExpectSchema, Value: "user.schema.json"})
	assert.False(t, result.Passed)
	assert.Contains(t, result.Message, "schema validation failed")
}

func TestEvaluateSchemaInline(t *testing.T) {
	schema := `{"type": "object", "required": ["id"], "properties": {"id": {"type": "integer"}}}`

	valid := NewEvaluator(createRecord(200, `{"id": 7}`, nil))
	result := valid.Evaluate(&parser.Expectation{Kind: parser.ExpectSchema, Value: schema})
	assert.True(t, result.Passed, "message: %s", result.Message)

	invalid := NewEvaluator(createRecord(200, `{"name": "John"}`, nil))
	result = invalid.Evaluate(&parser.Expectation{Kind: parser.ExpectSchema, Value: schema})
	assert.False(t, result.Passed)
	assert.Contains(t, result.Message, "schema validation failed")
}

func TestEvaluateSchemaMissingFile(t *testing.T) {
	e := NewEvaluator(createRecord(200, `{}`, nil), WithBaseDir(t.TempDir()))

	result := e.Evaluate(&parser.Expectation{Kind: parser.ExpectSchema, Value: "nope.json"})
	assert.False(t, result.Passed)
	assert.Contains(t, result.Message, "cannot read schema")
}

func TestEvaluateSchemaPathEscapeRejected(t *testing.T) {
	e := NewEvaluator(createRecord(200, `{}`, nil), WithBaseDir(t.TempDir()))

	result := e.Evaluate(&parser.Expectation{Kind: parser.ExpectSchema, Value: "../../etc/passwd"})
	assert.False(t, result.Passed)
	assert.Contains(t, result.Message, "outside")
}

func TestEvaluateMaxTime(t *testing.T) {
	tests := []struct {
		name   string
		timeMs float64
		value  string
		passed bool
	}{
		{"under a duration limit", 100, "500ms", true},
		{"over a duration limit", 750, "500ms", false},
		{"bare number means milliseconds", 100, "150", true},
		{"seconds unit", 1800, "2s", true},
		{"garbage duration", 100, "fast", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := createRecord(200, `{}`, nil)
			record.ResponseTimeMs = tt.timeMs
			e := NewEvaluator(record)

			result := e.Evaluate(&parser.Expectation{Kind: parser.ExpectMaxTime, Value: tt.value})
			assert.Equal(t, tt.passed, result.Passed, "message: %s", result.Message)
		})
	}
}

func TestEvaluateAllKeepsOrderAndNeverAborts(t *testing.T) {
	record := createRecord(404, `{"error": "not found"}`, nil)

	results := EvaluateAll(record, []*parser.Expectation{
		{Kind: parser.ExpectStatusCode, Value: "200", Line: 2},
		{Kind: parser.ExpectBodyContains, Value: "not found", Line: 3},
		{Kind: parser.ExpectBodyPath, Context: "$.error", Value: "not found", Line: 4},
	})

	require.Len(t, results, 3)
	assert.False(t, results[0].Passed)
	assert.True(t, results[1].Passed)
	assert.True(t, results[2].Passed)
	assert.Equal(t, 2, results[0].Line)
	assert.False(t, AllPassed(results))
}

func TestEvaluateParsedExpectations(t *testing.T) {
	input := "# @name health\n" +
		"# @expect status 200\n" +
		"# @expect header Content-Type: application/json\n" +
		"# @expect body-path $.status up\n" +
		"GET https://example.com/health\n"

	file, err := parser.Parse(input)
	require.NoError(t, err)
	req, ok := file.Lookup("health")
	require.True(t, ok)
	require.Len(t, req.Metadata.Expectations, 3)

	record := createRecord(200, `{"status": "up"}`, nil)
	results := EvaluateAll(record, req.Metadata.Expectations)

	for _, r := range results {
		assert.True(t, r.Passed, "subject %s: %s", r.Subject, r.Message)
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"$.token", "token"},
		{"$.user.name", "user.name"},
		{"$.items[0].id", "items.0.id"},
		{"items[2]", "items.2"},
		{"$[0]", "0"},
		{"token", "token"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizePath(tt.input), "input %q", tt.input)
	}
}
