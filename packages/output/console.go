package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/fatih/color"

	"github.com/reqfile/reqfile/packages/core/runner"
	"github.com/reqfile/reqfile/packages/stats"
)

// truncate shortens long expected/actual values so a failing body assertion
// does not flood the terminal.
func truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}

type ConsoleFormatter struct {
	writer      io.Writer
	verbose     bool
	noColor     bool
	showLatency bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

// WithLatency enables the latency percentile block in the summary, useful
// when a run repeats its sequence.
func WithLatency(show bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.showLatency = show
	}
}

func (f *ConsoleFormatter) FormatResult(result *runner.RunResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s\n", bold("Running: "+result.File))
	fmt.Fprintf(f.writer, "\n")

	for _, r := range result.Results {
		if r.Skipped {
			fmt.Fprintf(f.writer, "  %s %s\n", yellow("-"), r.Name)
			continue
		}

		if r.Error != nil {
			fmt.Fprintf(f.writer, "  %s %s %s\n", red("x"), r.Name, red(fmt.Sprintf("(%v)", r.Error)))
			continue
		}

		symbol := green("✓")
		if !r.Passed {
			symbol = red("✗")
		}

		fmt.Fprintf(f.writer, "  %s %s %s\n", symbol, r.Name, cyan(fmt.Sprintf("(%dms)", r.Duration.Milliseconds())))

		if f.verbose && r.Request != nil {
			fmt.Fprintf(f.writer, "    %s %s\n", r.Request.Method, r.Request.URL)
		}
		if f.verbose && r.Response != nil {
			fmt.Fprintf(f.writer, "    Status: %d\n", r.Response.StatusCode)
		}

		for _, e := range r.Expectations {
			if e.Passed {
				if f.verbose {
					fmt.Fprintf(f.writer, "    %s %s\n", green("→"), e.Subject)
				}
				continue
			}
			fmt.Fprintf(f.writer, "    %s %s\n", red("→"), e.Subject)
			fmt.Fprintf(f.writer, "      Expected: %s\n", truncate(e.Expected, 100))
			fmt.Fprintf(f.writer, "      Actual:   %s\n", truncate(e.Actual, 100))
			if e.Message != "" {
				fmt.Fprintf(f.writer, "      %s\n", e.Message)
			}
		}
	}

	fmt.Fprintf(f.writer, "\n")
	fmt.Fprintf(f.writer, "Requests: ")
	if result.Passed > 0 {
		fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d passed", result.Passed)))
	}
	if result.Failed > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d failed", result.Failed)))
	}
	if result.Skipped > 0 {
		fmt.Fprintf(f.writer, "%s, ", yellow(fmt.Sprintf("%d skipped", result.Skipped)))
	}
	total := result.Passed + result.Failed + result.Skipped
	fmt.Fprintf(f.writer, "%d total\n", total)
	fmt.Fprintf(f.writer, "Time:     %dms\n", result.Duration.Milliseconds())

	if f.showLatency && result.Latency != nil && result.Latency.Total > 0 {
		s := result.Latency
		fmt.Fprintf(f.writer, "\n%s\n", bold("Latency"))
		fmt.Fprintf(f.writer, "  p50=%s p95=%s p99=%s min=%s max=%s mean=%s\n",
			formatLatency(s.P50), formatLatency(s.P95), formatLatency(s.P99),
			formatLatency(s.Min), formatLatency(s.Max), formatLatency(s.Mean))
		for _, name := range sortedSummaryNames(s) {
			pr := s.PerRequest[name]
			fmt.Fprintf(f.writer, "  %-24s n=%-5d p50=%s p95=%s p99=%s\n",
				name, pr.Count, formatLatency(pr.P50), formatLatency(pr.P95), formatLatency(pr.P99))
		}
	}
	fmt.Fprintf(f.writer, "\n")
}

func formatLatency(d time.Duration) string {
	return d.Round(10 * time.Microsecond).String()
}

func sortedSummaryNames(s *stats.Summary) []string {
	names := make([]string, 0, len(s.PerRequest))
	for name := range s.PerRequest {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("reqfile"), version)
}
