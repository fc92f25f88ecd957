// Package runner executes request files.
//
// It parses a file, layers the variable sources (environment file, dotenv,
// prefixed process variables, explicit overrides), orders requests so that
// response-reference dependencies run first, executes them sequentially
// while filling the response store, and evaluates each request's
// expectations. Runs can be filtered, repeated, rate limited, and bailed
// on first failure; latencies are aggregated for the summary.
package runner
