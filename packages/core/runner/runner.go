package runner

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/reqfile/reqfile/packages/assertions"
	"github.com/reqfile/reqfile/packages/chain"
	"github.com/reqfile/reqfile/packages/core/env"
	"github.com/reqfile/reqfile/packages/core/parser"
	"github.com/reqfile/reqfile/packages/http"
	"github.com/reqfile/reqfile/packages/stats"
)

type Runner struct {
	client *http.Client
	config *Config
}

type Config struct {
	// Environment names the reqfile.yaml block to load.
	Environment string
	// EnvFile is an optional dotenv file merged over the environment.
	EnvFile string
	// Overrides are explicit name=value pairs that win over every other
	// variable source.
	Overrides map[string]string

	NameFilter string
	Repeat     int
	// Rate caps request starts per second; zero means unlimited.
	Rate float64
	Bail bool
	// Strict makes parse and validation findings fatal before any request
	// is sent.
	Strict bool

	Timeout          time.Duration
	DisableRedirects bool
	Insecure         bool
	Proxy            string

	// Warn receives unresolved-reference notices during resolution.
	Warn env.WarnFunc
}

func NewRunner(cfg *Config) *Runner {
	if cfg == nil {
		cfg = &Config{}
	}

	clientOpts := []http.ClientOption{}
	if cfg.Timeout > 0 {
		clientOpts = append(clientOpts, http.WithTimeout(cfg.Timeout))
	}
	if cfg.DisableRedirects {
		clientOpts = append(clientOpts, http.WithFollowRedirects(false))
	}
	if cfg.Insecure {
		clientOpts = append(clientOpts, http.WithValidateSSL(false))
	}
	if cfg.Proxy != "" {
		clientOpts = append(clientOpts, http.WithProxy(cfg.Proxy))
	}

	return &Runner{
		client: http.NewClient(clientOpts...),
		config: cfg,
	}
}

type RunResult struct {
	File     string
	Results  []*RequestResult
	Duration time.Duration
	Passed   int
	Failed   int
	Skipped  int
	Latency  *stats.Summary
}

type RequestResult struct {
	Name         string
	Method       string
	URL          string
	Passed       bool
	Skipped      bool
	SkipReason   string
	Duration     time.Duration
	Request      *http.Request
	Response     *http.Response
	Expectations []*assertions.Result
	Error        error
}

func (r *Runner) RunFile(ctx context.Context, path string) (*RunResult, error) {
	opts := parser.DefaultOptions()
	opts.Strict = r.config.Strict
	file, err := parser.ParseFileWithOptions(path, opts)
	if err != nil {
		return nil, fmt.Errorf("parsing file: %w", err)
	}
	return r.Run(ctx, file)
}

func (r *Runner) Run(ctx context.Context, file *parser.RequestFile) (*RunResult, error) {
	baseDir := filepath.Dir(file.Path)

	environment, err := r.loadEnvironment(baseDir)
	if err != nil {
		return nil, err
	}

	if r.config.Strict {
		if diags := env.ValidateFile(file, environment); len(diags) > 0 {
			return nil, fmt.Errorf("validation failed: %s", diags[0])
		}
	}

	resolver := env.NewResolver()
	resolver.SetFileVariables(file.Variables)
	resolver.SetEnvironment(environment)
	if r.config.Warn != nil {
		resolver.SetWarnFunc(r.config.Warn)
	}

	store := chain.NewStore()
	ordered := orderRequests(file.Requests)

	var limiter *rate.Limiter
	if r.config.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(r.config.Rate), 1)
	}

	repeat := r.config.Repeat
	if repeat < 1 {
		repeat = 1
	}

	collector := stats.NewCollector()
	start := time.Now()
	result := &RunResult{File: file.Path}

	for iteration := 0; iteration < repeat; iteration++ {
		bailed, err := r.runSequence(ctx, ordered, resolver, store, baseDir, limiter, collector, result)
		if err != nil {
			return nil, err
		}
		if bailed {
			break
		}
	}

	result.Duration = time.Since(start)
	result.Latency = collector.Summary()
	return result, nil
}

// loadEnvironment merges the variable sources outside the file itself.
// Later sources win: environment file, dotenv, prefixed process
// variables, explicit overrides.
func (r *Runner) loadEnvironment(baseDir string) (map[string]string, error) {
	environment, err := env.LoadEnvironment(baseDir, r.config.Environment)
	if err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	layers := []map[string]string{environment.Variables}

	if r.config.EnvFile != "" {
		dotenv, err := env.LoadDotEnv(r.config.EnvFile)
		if err != nil {
			return nil, err
		}
		layers = append(layers, dotenv)
	}

	layers = append(layers, env.LoadSystemEnv(env.SystemVarPrefix))

	if len(r.config.Overrides) > 0 {
		layers = append(layers, r.config.Overrides)
	}

	return env.MergeVariables(layers...), nil
}

func (r *Runner) runSequence(ctx context.Context, requests []*parser.Request, resolver *env.Resolver, store *chain.Store, baseDir string, limiter *rate.Limiter, collector *stats.Collector, result *RunResult) (bool, error) {
	for _, req := range requests {
		if !r.shouldRun(req) {
			result.Results = append(result.Results, &RequestResult{
				Name:       req.Name,
				Method:     req.Method,
				URL:        req.URL,
				Skipped:    true,
				SkipReason: "filtered out",
			})
			result.Skipped++
			continue
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return false, err
			}
		}

		reqResult := r.execute(ctx, req, resolver, store, baseDir)
		result.Results = append(result.Results, reqResult)
		collector.Record(req.Name, reqResult.Duration, reqResult.Passed)

		if reqResult.Passed {
			result.Passed++
		} else {
			result.Failed++
			if r.config.Bail {
				return true, nil
			}
		}

		if err := ctx.Err(); err != nil {
			return false, err
		}
	}
	return false, nil
}

func (r *Runner) execute(ctx context.Context, req *parser.Request, resolver *env.Resolver, store *chain.Store, baseDir string) *RequestResult {
	result := &RequestResult{
		Name:   req.Name,
		Method: req.Method,
		URL:    req.URL,
	}

	httpReq, err := http.BuildRequest(req, resolver, store, baseDir)
	if err != nil {
		result.Error = err
		return result
	}
	result.Request = httpReq
	result.URL = httpReq.URL

	start := time.Now()
	resp, err := r.client.Do(ctx, httpReq)
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = err
		return result
	}
	result.Response = resp

	record := resp.ToRecord(req.Name)
	store.Put(record)

	var expectations []*parser.Expectation
	if req.Metadata != nil {
		expectations = req.Metadata.Expectations
	}
	if len(expectations) > 0 {
		result.Expectations = assertions.EvaluateAll(record, expectations, assertions.WithBaseDir(baseDir))
		result.Passed = assertions.AllPassed(result.Expectations)
	} else {
		// Without expectations a 2xx response counts as a pass.
		result.Passed = resp.IsSuccess()
	}

	return result
}

func (r *Runner) shouldRun(req *parser.Request) bool {
	if r.config.NameFilter == "" {
		return true
	}
	return matchesPattern(req.Name, r.config.NameFilter)
}

// matchesPattern supports a leading and/or trailing * wildcard; anything
// else is an exact match.
func matchesPattern(name, pattern string) bool {
	switch {
	case pattern == "":
		return true
	case len(pattern) >= 2 && strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*"):
		return strings.Contains(name, pattern[1:len(pattern)-1])
	case strings.HasPrefix(pattern, "*"):
		return strings.HasSuffix(name, pattern[1:])
	case strings.HasSuffix(pattern, "*"):
		return strings.HasPrefix(name, pattern[:len(pattern)-1])
	default:
		return name == pattern
	}
}
