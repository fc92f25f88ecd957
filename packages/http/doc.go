// Package http executes materialized requests.
//
// It wraps the standard library's http package with the behavior request
// files call for:
//   - Configurable timeouts, redirects, TLS validation and proxying
//   - A shared cookie jar, with per-request opt-out
//   - Request building from the parsed AST (variable and response-reference
//     substitution, file bodies with encoding support)
//   - Response capture into chainable records
package http
