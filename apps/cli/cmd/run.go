package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/reqfile/reqfile/packages/core/config"
	"github.com/reqfile/reqfile/packages/core/runner"
	"github.com/reqfile/reqfile/packages/history"
	"github.com/reqfile/reqfile/packages/output"
)

var runCmd = &cobra.Command{
	Use:   "run <file|directory>...",
	Short: "Run requests from .http files",
	Long: `Run the requests defined in .http or .rest files, in chain-dependency
order, checking any declared expectations.

Examples:
  reqfile run api.http
  reqfile run api.http --env staging
  reqfile run ./requests/ --name "login*"
  reqfile run api.http --repeat 50 --rate 10
  reqfile run api.http --watch`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCommand,
}

// WatchDebounceDelay coalesces rapid write events in watch mode.
const WatchDebounceDelay = 300 * time.Millisecond

var (
	envFlag        string
	envFileFlag    string
	varFlags       []string
	nameFlag       string
	repeatFlag     int
	rateFlag       float64
	bailFlag       bool
	strictFlag     bool
	timeoutFlag    string
	verboseFlag    bool
	quietFlag      bool
	noColorFlag    bool
	outputFlag     string
	outputFileFlag string
	watchFlag      bool
	proxyFlag      string
	insecureFlag   bool
	configFlag     string
	noHistoryFlag  bool
)

func init() {
	runCmd.Flags().StringVarP(&envFlag, "env", "e", getEnvString("REQFILE_ENV", ""), "Environment block from reqfile.yaml (env: REQFILE_ENV)")
	runCmd.Flags().StringVar(&envFileFlag, "env-file", getEnvString("REQFILE_ENV_FILE", ""), "Path to a .env file layered over the environment (env: REQFILE_ENV_FILE)")
	runCmd.Flags().StringVar(&configFlag, "config", getEnvString("REQFILE_CONFIG", ""), "Path to config file (env: REQFILE_CONFIG)")
	runCmd.Flags().StringArrayVar(&varFlags, "var", nil, "Set a variable (name=value); wins over every other source, repeatable")
	runCmd.Flags().StringVarP(&nameFlag, "name", "n", "", "Run only requests matching the name pattern (* wildcard at either end)")

	runCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "Show resolved request and response detail")
	runCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", getEnvBool("REQFILE_QUIET", false), "Suppress color and decoration (env: REQFILE_QUIET)")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", getEnvBool("REQFILE_NO_COLOR", false), "Disable colored output (env: REQFILE_NO_COLOR)")
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", getEnvString("REQFILE_OUTPUT", ""), "Output format: console, json (env: REQFILE_OUTPUT)")
	runCmd.Flags().StringVar(&outputFileFlag, "output-file", getEnvString("REQFILE_OUTPUT_FILE", ""), "Write output to a file instead of stdout (env: REQFILE_OUTPUT_FILE)")

	runCmd.Flags().IntVar(&repeatFlag, "repeat", 0, "Repeat the request sequence N times")
	runCmd.Flags().Float64VarP(&rateFlag, "rate", "r", 0, "Cap request starts per second")
	runCmd.Flags().BoolVar(&bailFlag, "bail", getEnvBool("REQFILE_BAIL", false), "Stop on first failure (env: REQFILE_BAIL)")
	runCmd.Flags().BoolVar(&strictFlag, "strict", getEnvBool("REQFILE_STRICT", false), "Fail on validation findings before sending anything (env: REQFILE_STRICT)")
	runCmd.Flags().StringVar(&timeoutFlag, "timeout", getEnvString("REQFILE_TIMEOUT", ""), "Request timeout, e.g. 30s or 1m (env: REQFILE_TIMEOUT)")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch files for changes and re-run")

	runCmd.Flags().StringVar(&proxyFlag, "proxy", getEnvString("REQFILE_PROXY", ""), "Proxy URL for HTTP requests (env: REQFILE_PROXY)")
	runCmd.Flags().BoolVarP(&insecureFlag, "insecure", "k", getEnvBool("REQFILE_INSECURE", false), "Disable TLS certificate validation (env: REQFILE_INSECURE)")

	runCmd.Flags().BoolVar(&noHistoryFlag, "no-history", false, "Do not record this run in the history database")
}

func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// Formatter is what every output format implements.
type Formatter interface {
	FormatResult(result *runner.RunResult)
	FormatError(err error)
	FormatHeader(version string)
}

// Flushable marks formatters that accumulate results before writing.
type Flushable interface {
	Flush(totalDuration time.Duration) error
}

func runCommand(cmd *cobra.Command, args []string) error {
	fileConfig, _ := config.LoadConfig(configFlag)

	environment := envFlag
	if environment == "" {
		environment = fileConfig.DefaultEnvironment
	}

	overrides := make(map[string]string)
	for _, kv := range varFlags {
		name, value, found := strings.Cut(kv, "=")
		if !found || name == "" {
			return fmt.Errorf("invalid --var %q: expected name=value", kv)
		}
		overrides[name] = value
	}

	timeout := time.Duration(fileConfig.Timeout) * time.Millisecond
	if timeoutFlag != "" {
		d, err := time.ParseDuration(timeoutFlag)
		if err != nil {
			return fmt.Errorf("invalid timeout value %q: %w (use format like 30s, 1m, 500ms)", timeoutFlag, err)
		}
		timeout = d
	}

	proxy := fileConfig.Proxy
	if proxyFlag != "" {
		proxy = proxyFlag
	}

	repeat := fileConfig.Repeat
	if repeatFlag > 0 {
		repeat = repeatFlag
	}
	rate := fileConfig.Rate
	if rateFlag > 0 {
		rate = rateFlag
	}

	var outWriter *os.File
	if outputFileFlag != "" {
		var err error
		outWriter, err = os.Create(outputFileFlag)
		if err != nil {
			return fmt.Errorf("cannot create output file: %w", err)
		}
		defer outWriter.Close()
	}

	outputFormat := outputFlag
	if outputFormat == "" {
		outputFormat = fileConfig.Output
	}

	newFormatter := func() Formatter {
		switch strings.ToLower(outputFormat) {
		case "json":
			opts := []output.JSONOption{}
			if outWriter != nil {
				opts = append(opts, output.JSONWithWriter(outWriter))
			}
			return output.NewJSONFormatter(opts...)
		default: // console
			opts := []output.ConsoleOption{
				output.WithVerbose(verboseFlag || fileConfig.GetVerbose()),
				output.WithNoColor(noColorFlag || quietFlag || fileConfig.GetNoColor()),
				output.WithLatency(repeat > 1),
			}
			if outWriter != nil {
				opts = append(opts, output.WithWriter(outWriter))
			}
			return output.NewConsoleFormatter(opts...)
		}
	}

	formatter := newFormatter()
	formatter.FormatHeader(version)

	files, err := collectFiles(args)
	if err != nil {
		formatter.FormatError(err)
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .http or .rest files found")
	}

	var store *history.Store
	if fileConfig.GetHistory() && !noHistoryFlag {
		path := fileConfig.HistoryPath
		if path == "" {
			path = history.DefaultPath
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err == nil {
			if s, err := history.Open(path); err == nil {
				store = s
				defer store.Close()
			} else {
				fmt.Fprintf(os.Stderr, "warning: history disabled: %v\n", err)
			}
		}
	}

	cfg := &runner.Config{
		Environment:      environment,
		EnvFile:          envFileFlag,
		Overrides:        overrides,
		NameFilter:       nameFlag,
		Repeat:           repeat,
		Rate:             rate,
		Bail:             bailFlag || fileConfig.GetBail(),
		Strict:           strictFlag || fileConfig.GetStrict(),
		Timeout:          timeout,
		DisableRedirects: !fileConfig.GetFollowRedirects(),
		Insecure:         insecureFlag || !fileConfig.GetValidateSSL(),
		Proxy:            proxy,
		Warn: func(format string, args ...any) {
			if !quietFlag {
				fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
			}
		},
	}
	r := runner.NewRunner(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runAll := func(f Formatter) (failed int, duration time.Duration) {
		start := time.Now()
		for _, file := range files {
			result, err := r.RunFile(ctx, file)
			if err != nil {
				f.FormatError(err)
				failed++
				if cfg.Bail {
					break
				}
				continue
			}

			f.FormatResult(result)
			failed += result.Failed

			if store != nil {
				if _, err := store.RecordRun(ctx, result, environment); err != nil {
					fmt.Fprintf(os.Stderr, "warning: could not record run: %v\n", err)
				}
			}

			if cfg.Bail && result.Failed > 0 {
				break
			}
		}
		return failed, time.Since(start)
	}

	failed, duration := runAll(formatter)
	if flushable, ok := formatter.(Flushable); ok {
		if err := flushable.Flush(duration); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	}

	if !watchFlag {
		if failed > 0 {
			os.Exit(1)
		}
		return nil
	}

	return watchAndRerun(ctx, cmd, files, args, newFormatter, runAll)
}

// watchAndRerun re-runs the files whenever one of them changes, debouncing
// rapid successive writes.
func watchAndRerun(ctx context.Context, cmd *cobra.Command, files, args []string, newFormatter func() Formatter, runAll func(Formatter) (int, time.Duration)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer watcher.Close()

	watchedDirs := make(map[string]bool)
	addDir := func(dir string) {
		if !watchedDirs[dir] {
			if err := watcher.Add(dir); err != nil {
				fmt.Fprintf(os.Stderr, "warning: cannot watch %s: %v\n", dir, err)
			}
			watchedDirs[dir] = true
		}
	}

	for _, file := range files {
		addDir(filepath.Dir(file))
	}
	for _, arg := range args {
		if info, err := os.Stat(arg); err == nil && info.IsDir() {
			_ = filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
				if err == nil && info.IsDir() {
					addDir(path)
				}
				return err
			})
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")

	var debounceTimer *time.Timer
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) || !isRequestFile(event.Name) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "\nFile changed: %s\nRe-running...\n", event.Name)

				// Accumulating formatters need fresh state per cycle.
				f := newFormatter()
				_, duration := runAll(f)
				if flushable, ok := f.(Flushable); ok {
					_ = flushable.Flush(duration)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "warning: watcher error: %v\n", err)
		}
	}
}

func collectFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if info.IsDir() {
			err := filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if !info.IsDir() && isRequestFile(path) {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		} else if isRequestFile(arg) {
			files = append(files, arg)
		}
	}
	return files, nil
}

func isRequestFile(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".http" || ext == ".rest"
}
