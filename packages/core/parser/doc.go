// Package parser tokenizes and parses .http request definition files.
//
// A file holds any number of requests, each introduced by a `###` separator
// line or a `# @name` directive, plus file-scoped `@variable = value`
// declarations. The tokenizer classifies one line at a time, inferring the
// head/body boundary from line shape; the parser materializes the token
// stream into a RequestFile of ordered requests.
//
// The parser is lenient by design: unknown directives become custom
// metadata, malformed constructs degrade to body text, and only duplicate
// request names (and, with strict options, name format violations) fail the
// parse.
package parser
