package assertions

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"

	"github.com/reqfile/reqfile/packages/chain"
	"github.com/reqfile/reqfile/packages/core/parser"
)

// Result is the outcome of one expectation against one response.
type Result struct {
	Kind     parser.ExpectationKind
	Subject  string
	Expected string
	Actual   string
	Passed   bool
	Message  string
	Line     int
}

type Evaluator struct {
	record   *chain.ResponseRecord
	bodyJSON gjson.Result
	baseDir  string
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithBaseDir sets the directory schema paths resolve against, normally
// the request file's directory.
func WithBaseDir(dir string) Option {
	return func(e *Evaluator) {
		e.baseDir = dir
	}
}

func NewEvaluator(record *chain.ResponseRecord, opts ...Option) *Evaluator {
	e := &Evaluator{record: record}
	if json.Valid([]byte(record.BodyText)) {
		e.bodyJSON = gjson.Parse(record.BodyText)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Evaluator) Evaluate(exp *parser.Expectation) *Result {
	result := &Result{
		Kind:     exp.Kind,
		Subject:  exp.Kind.String(),
		Expected: exp.Value,
		Line:     exp.Line,
	}

	switch exp.Kind {
	case parser.ExpectStatusCode:
		e.evalStatus(exp, result)
	case parser.ExpectHeader:
		result.Subject = "header " + exp.Context
		e.evalHeader(exp, result)
	case parser.ExpectBodyContains:
		e.evalBodyContains(exp, result)
	case parser.ExpectBodyPath:
		result.Subject = "body path " + exp.Context
		e.evalBodyPath(exp, result)
	case parser.ExpectSchema:
		e.evalSchema(exp, result)
	case parser.ExpectMaxTime:
		e.evalMaxTime(exp, result)
	default:
		result.Message = fmt.Sprintf("unknown expectation kind %v", exp.Kind)
	}
	return result
}

func (e *Evaluator) evalStatus(exp *parser.Expectation, result *Result) {
	result.Actual = strconv.Itoa(e.record.StatusCode)
	want, err := strconv.Atoi(strings.TrimSpace(exp.Value))
	if err != nil {
		result.Message = fmt.Sprintf("status expectation %q is not an integer", exp.Value)
		return
	}
	if e.record.StatusCode == want {
		result.Passed = true
		return
	}
	result.Message = fmt.Sprintf("expected status %d, got %d", want, e.record.StatusCode)
}

func (e *Evaluator) evalHeader(exp *parser.Expectation, result *Result) {
	value, ok := e.record.Header(exp.Context)
	result.Actual = value
	if !ok {
		result.Message = fmt.Sprintf("header %s is absent", exp.Context)
		return
	}
	// Bare `expect header Name` is a presence check.
	if exp.Value == "" {
		result.Passed = true
		return
	}
	if value == exp.Value {
		result.Passed = true
		return
	}
	result.Message = fmt.Sprintf("expected header %s to be %q, got %q", exp.Context, exp.Value, value)
}

func (e *Evaluator) evalBodyContains(exp *parser.Expectation, result *Result) {
	result.Actual = truncate(e.record.BodyText, 120)
	if strings.Contains(e.record.BodyText, exp.Value) {
		result.Passed = true
		return
	}
	result.Message = fmt.Sprintf("body does not contain %q", exp.Value)
}

func (e *Evaluator) evalBodyPath(exp *parser.Expectation, result *Result) {
	if !e.bodyJSON.Exists() {
		result.Message = "response body is not JSON"
		return
	}
	value := e.bodyJSON.Get(normalizePath(exp.Context))
	if !value.Exists() {
		result.Message = fmt.Sprintf("path %s not found in body", exp.Context)
		return
	}
	result.Actual = value.String()
	// Bare `expect body-path $.x` is an existence check.
	if exp.Value == "" {
		result.Passed = true
		return
	}
	if value.String() == exp.Value {
		result.Passed = true
		return
	}
	if a, errA := strconv.ParseFloat(value.String(), 64); errA == nil {
		if b, errB := strconv.ParseFloat(exp.Value, 64); errB == nil && a == b {
			result.Passed = true
			return
		}
	}
	result.Message = fmt.Sprintf("expected %s to be %q, got %q", exp.Context, exp.Value, value.String())
}

func (e *Evaluator) evalSchema(exp *parser.Expectation, result *Result) {
	if !e.bodyJSON.Exists() {
		result.Message = "response body is not JSON"
		return
	}

	loader, err := e.schemaLoader(strings.TrimSpace(exp.Value))
	if err != nil {
		result.Message = err.Error()
		return
	}

	validation, err := gojsonschema.Validate(
		loader,
		gojsonschema.NewStringLoader(e.record.BodyText),
	)
	if err != nil {
		result.Message = fmt.Sprintf("schema validation error: %v", err)
		return
	}
	if validation.Valid() {
		result.Passed = true
		return
	}

	var problems []string
	for _, desc := range validation.Errors() {
		problems = append(problems, desc.String())
	}
	result.Message = "schema validation failed: " + strings.Join(problems, "; ")
}

// schemaLoader accepts either an inline JSON schema or a path to a schema
// file relative to the request file's directory.
func (e *Evaluator) schemaLoader(value string) (gojsonschema.JSONLoader, error) {
	if strings.HasPrefix(value, "{") {
		return gojsonschema.NewStringLoader(value), nil
	}

	schemaPath := value
	if !filepath.IsAbs(schemaPath) && e.baseDir != "" {
		schemaPath = filepath.Join(e.baseDir, schemaPath)
	}
	if err := pathWithinBase(schemaPath, e.baseDir); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read schema: %v", err)
	}
	return gojsonschema.NewBytesLoader(data), nil
}

func (e *Evaluator) evalMaxTime(exp *parser.Expectation, result *Result) {
	limitMs, err := parseMaxTime(exp.Value)
	if err != nil {
		result.Message = err.Error()
		return
	}
	result.Actual = strconv.FormatFloat(e.record.ResponseTimeMs, 'f', 2, 64) + "ms"
	if e.record.ResponseTimeMs <= limitMs {
		result.Passed = true
		return
	}
	result.Message = fmt.Sprintf("expected response within %s, took %.2fms", exp.Value, e.record.ResponseTimeMs)
}

// parseMaxTime reads a Go duration string; a bare number means milliseconds.
func parseMaxTime(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("max-time expectation needs a duration")
	}
	if n, err := strconv.ParseFloat(value, 64); err == nil {
		return n, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("max-time %q is not a duration", value)
	}
	return float64(d) / float64(time.Millisecond), nil
}

var bracketIndexPattern = regexp.MustCompile(`\[(\d+)\]`)

// normalizePath turns a body-path operand into a gjson path: the JSONPath
// $ root marker is stripped and [N] indexes become .N segments.
func normalizePath(path string) string {
	path = strings.TrimPrefix(path, "$")
	path = strings.TrimPrefix(path, ".")
	path = bracketIndexPattern.ReplaceAllString(path, ".$1")
	return strings.TrimPrefix(path, ".")
}

// pathWithinBase rejects schema paths that escape the base directory.
func pathWithinBase(path, baseDir string) error {
	if baseDir == "" {
		return nil
	}
	cleanBase, err := filepath.Abs(baseDir)
	if err != nil {
		return fmt.Errorf("cannot resolve base directory: %v", err)
	}
	cleanPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("cannot resolve schema path: %v", err)
	}
	if cleanPath != cleanBase && !strings.HasPrefix(cleanPath, cleanBase+string(filepath.Separator)) {
		return fmt.Errorf("schema path %s is outside %s", path, baseDir)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// EvaluateAll runs every expectation against the record in declaration
// order.
func EvaluateAll(record *chain.ResponseRecord, expectations []*parser.Expectation, opts ...Option) []*Result {
	e := NewEvaluator(record, opts...)
	results := make([]*Result, len(expectations))
	for i, exp := range expectations {
		results[i] = e.Evaluate(exp)
	}
	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []*Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
