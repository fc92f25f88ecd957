// Package output formats run results for people and machines.
//
// The console formatter writes colored per-request lines and a summary;
// the JSON formatter accumulates everything into a single document emitted
// on Flush. Both write to an injected io.Writer, defaulting to stdout.
package output
