// Package stats aggregates request latencies into percentile summaries,
// backed by an HDR histogram. The run summary surfaces them when a file is
// executed repeatedly.
package stats
