package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/reqfile/reqfile/packages/core/runner"
)

// JSONOutput is the top-level machine-readable report.
type JSONOutput struct {
	Summary  JSONSummary  `json:"summary"`
	Requests []JSONResult `json:"requests"`
	Latency  *JSONLatency `json:"latency,omitempty"`
	Duration float64      `json:"duration"` // milliseconds
	Time     string       `json:"time"`
}

type JSONSummary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// JSONResult is one executed request.
type JSONResult struct {
	Name         string            `json:"name"`
	File         string            `json:"file"`
	Passed       bool              `json:"passed"`
	Skipped      bool              `json:"skipped,omitempty"`
	Duration     float64           `json:"duration"` // milliseconds
	Error        string            `json:"error,omitempty"`
	Request      *JSONRequest      `json:"request,omitempty"`
	Response     *JSONResponse     `json:"response,omitempty"`
	Expectations []JSONExpectation `json:"expectations,omitempty"`
}

type JSONRequest struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

type JSONResponse struct {
	StatusCode int               `json:"statusCode"`
	Status     string            `json:"status"`
	Headers    map[string]string `json:"headers,omitempty"`
	Duration   float64           `json:"duration"` // milliseconds
}

type JSONExpectation struct {
	Kind     string `json:"kind"`
	Subject  string `json:"subject"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Passed   bool   `json:"passed"`
	Message  string `json:"message,omitempty"`
	Line     int    `json:"line,omitempty"`
}

// JSONLatency summarizes request latencies in milliseconds.
type JSONLatency struct {
	P50  float64 `json:"p50"`
	P95  float64 `json:"p95"`
	P99  float64 `json:"p99"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// JSONFormatter accumulates results and emits one JSON document on Flush.
type JSONFormatter struct {
	writer  io.Writer
	results []JSONResult
	latency *JSONLatency
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer:  os.Stdout,
		results: make([]JSONResult, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatResult(result *runner.RunResult) {
	for _, r := range result.Results {
		item := JSONResult{
			Name:     r.Name,
			File:     result.File,
			Passed:   r.Passed,
			Skipped:  r.Skipped,
			Duration: float64(r.Duration.Milliseconds()),
		}

		if r.Error != nil {
			item.Error = r.Error.Error()
		}

		if r.Request != nil {
			item.Request = &JSONRequest{
				Method:  r.Request.Method,
				URL:     r.Request.URL,
				Headers: r.Request.Headers,
			}
		}

		if r.Response != nil {
			item.Response = &JSONResponse{
				StatusCode: r.Response.StatusCode,
				Status:     r.Response.Status,
				Headers:    r.Response.Headers,
				Duration:   float64(r.Response.Duration.Milliseconds()),
			}
		}

		for _, e := range r.Expectations {
			item.Expectations = append(item.Expectations, JSONExpectation{
				Kind:     e.Kind.String(),
				Subject:  e.Subject,
				Expected: e.Expected,
				Actual:   e.Actual,
				Passed:   e.Passed,
				Message:  e.Message,
				Line:     e.Line,
			})
		}

		f.results = append(f.results, item)
	}

	if s := result.Latency; s != nil && s.Total > 0 {
		f.latency = &JSONLatency{
			P50:  durationMs(s.P50),
			P95:  durationMs(s.P95),
			P99:  durationMs(s.P99),
			Min:  durationMs(s.Min),
			Max:  durationMs(s.Max),
			Mean: durationMs(s.Mean),
		}
	}
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func (f *JSONFormatter) FormatError(err error) {
	// Errors surface through the per-request results.
}

func (f *JSONFormatter) FormatHeader(version string) {
	// The JSON document has no header.
}

// Flush writes the accumulated report.
func (f *JSONFormatter) Flush(totalDuration time.Duration) error {
	var passed, failed, skipped int
	for _, r := range f.results {
		switch {
		case r.Skipped:
			skipped++
		case r.Passed:
			passed++
		default:
			failed++
		}
	}

	output := JSONOutput{
		Summary: JSONSummary{
			Total:   len(f.results),
			Passed:  passed,
			Failed:  failed,
			Skipped: skipped,
		},
		Requests: f.results,
		Latency:  f.latency,
		Duration: float64(totalDuration.Milliseconds()),
		Time:     time.Now().Format(time.RFC3339),
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
