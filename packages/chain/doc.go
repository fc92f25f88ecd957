// Package chain lets requests reference the responses of requests that ran
// before them, using the {{name.response.*}} syntax. Records live in a
// Store keyed by request name; resolution that cannot be satisfied keeps
// the literal reference text.
package chain
