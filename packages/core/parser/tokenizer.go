package parser

import (
	"regexp"
	"strings"
	"unicode"
)

// httpMethods is the fixed set of verbs recognized at the start of a request line.
var httpMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true, "PATCH": true,
	"HEAD": true, "OPTIONS": true, "CONNECT": true, "TRACE": true,
	"LOCK": true, "UNLOCK": true, "PROPFIND": true, "PROPPATCH": true,
	"COPY": true, "MOVE": true, "MKCOL": true, "MKCALENDAR": true,
	"ACL": true, "SEARCH": true,
}

var (
	fileVariableRe    = regexp.MustCompile(`^@([A-Za-z0-9_-]+)\s*=\s*(.*)$`)
	httpVersionSuffix = regexp.MustCompile(`\s+HTTP/[0-9.]+\s*$`)
)

// Tokenize scans text into a flat token stream. It never fails: every line
// receives a best-effort classification, and the stream always ends with an
// EndOfStream token.
//
// Classification is contextual. A single inBody flag tracks whether scanning
// has crossed from a request's head (request line, headers) into its body.
// Lines that can only belong to a head region (variable declarations,
// separators, metadata directives, request lines) reset the flag. The format
// has no explicit head/body delimiter, so on blank lines the tokenizer peeks
// ahead to the next non-blank line and enters body mode early when its shape
// reads as body content.
func Tokenize(input string) []Token {
	t := &tokenizer{lines: splitLines(input)}
	for i := range t.lines {
		t.scanLine(i)
	}
	t.emit(TokenEndOfStream, "", len(t.lines)+1, 1)
	return t.tokens
}

type tokenizer struct {
	lines  []string
	tokens []Token
	inBody bool
}

func (t *tokenizer) scanLine(i int) {
	line := t.lines[i]
	num := i + 1

	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		t.emit(TokenLineBreak, "", num, 1)
		if !t.inBody && looksLikeBody(t.nextNonBlank(i+1)) {
			t.inBody = true
		}
		return
	}

	col := leadingWidth(line) + 1

	if m := fileVariableRe.FindStringSubmatch(trimmed); m != nil {
		t.inBody = false
		t.emit(TokenFileVariableDecl, m[1]+"="+strings.TrimSpace(m[2]), num, col)
		return
	}

	if strings.HasPrefix(trimmed, "###") {
		t.inBody = false
		t.emit(TokenRequestSeparator, strings.TrimSpace(trimmed[3:]), num, col)
		return
	}

	if rest, ok := commentLine(trimmed); ok {
		if directive, ok := metadataDirective(rest); ok {
			t.inBody = false
			t.emit(TokenMetadataDirective, directive, num, col)
		} else {
			t.emit(TokenComment, strings.TrimSpace(rest), num, col)
		}
		return
	}

	if verb, rest, ok := methodLine(trimmed); ok {
		t.inBody = false
		t.emit(TokenMethod, verb, num, col)
		url := strings.TrimSpace(httpVersionSuffix.ReplaceAllString(rest, ""))
		urlPart := strings.TrimLeft(rest, " \t")
		t.emit(TokenURL, url, num, col+len(trimmed)-len(urlPart))
		return
	}

	if t.inBody {
		if kind, value, ok := fileBodyRef(trimmed); ok {
			t.emit(kind, value, num, col)
			return
		}
		t.emit(TokenBodyLine, line, num, 1)
		return
	}

	// An absolute URL always contains a colon, so the URL shape test has to
	// run before the header split.
	if looksLikeURL(trimmed) {
		t.emit(TokenURL, trimmed, num, col)
		return
	}

	if name, value, ok := headerLine(trimmed); ok {
		t.emit(TokenHeaderName, name, num, col)
		idx := strings.Index(trimmed, ":")
		valuePart := strings.TrimLeft(trimmed[idx+1:], " \t")
		t.emit(TokenHeaderValue, value, num, col+len(trimmed)-len(valuePart))
		return
	}

	t.emit(TokenBodyLine, line, num, 1)
	t.inBody = true
}

func (t *tokenizer) emit(kind TokenKind, value string, line, col int) {
	t.tokens = append(t.tokens, Token{Kind: kind, Value: value, Line: line, Column: col})
}

// nextNonBlank returns the trimmed content of the next non-blank line at or
// after index from, or "" when none remains.
func (t *tokenizer) nextNonBlank(from int) string {
	for i := from; i < len(t.lines); i++ {
		if s := strings.TrimSpace(t.lines[i]); s != "" {
			return s
		}
	}
	return ""
}

func splitLines(input string) []string {
	input = strings.ReplaceAll(input, "\r\n", "\n")
	input = strings.ReplaceAll(input, "\r", "\n")
	lines := strings.Split(input, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

func leadingWidth(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

// commentLine strips a `#` or `//` marker, returning the remainder.
// Separator lines (`###`) are handled before this is consulted.
func commentLine(s string) (string, bool) {
	switch {
	case strings.HasPrefix(s, "//"):
		return s[2:], true
	case strings.HasPrefix(s, "#"):
		return s[1:], true
	}
	return "", false
}

// metadataDirective recognizes `@key` or `@key value` after a comment marker,
// with optional whitespace between the marker and the `@`. The key must start
// immediately after the `@`.
func metadataDirective(rest string) (string, bool) {
	rest = strings.TrimLeft(rest, " \t")
	if len(rest) < 2 || rest[0] != '@' {
		return "", false
	}
	body := rest[1:]
	if body[0] == ' ' || body[0] == '\t' {
		return "", false
	}
	return strings.TrimSpace(body), true
}

// methodLine matches `<VERB> <rest>` where VERB is in the fixed method set,
// case-insensitively. A verb with nothing after it does not match.
func methodLine(s string) (verb, rest string, ok bool) {
	idx := strings.IndexFunc(s, unicode.IsSpace)
	if idx <= 0 {
		return "", "", false
	}
	if !httpMethods[strings.ToUpper(s[:idx])] {
		return "", "", false
	}
	return s[:idx], s[idx:], true
}

// fileBodyRef matches the three body-file shapes: `< path` (raw),
// `<@ path` (default encoding, variables processed) and `<@encoding path`.
// For the named-encoding shape the encoding and path are packed into a
// single `encoding|path` value.
func fileBodyRef(s string) (TokenKind, string, bool) {
	if !strings.HasPrefix(s, "<") {
		return 0, "", false
	}
	if strings.HasPrefix(s, "<@") {
		rest := s[2:]
		if rest == "" {
			return 0, "", false
		}
		if rest[0] == ' ' || rest[0] == '\t' {
			path := strings.TrimSpace(rest)
			if path == "" {
				return 0, "", false
			}
			return TokenFileBodyRefProcessed, path, true
		}
		idx := strings.IndexFunc(rest, unicode.IsSpace)
		if idx <= 0 {
			return 0, "", false
		}
		path := strings.TrimSpace(rest[idx:])
		if path == "" {
			return 0, "", false
		}
		return TokenFileBodyRefProcessed, rest[:idx] + "|" + path, true
	}
	rest := s[1:]
	if rest == "" || (rest[0] != ' ' && rest[0] != '\t') {
		return 0, "", false
	}
	path := strings.TrimSpace(rest)
	if path == "" {
		return 0, "", false
	}
	return TokenFileBodyRef, path, true
}

func looksLikeURL(s string) bool {
	return strings.HasPrefix(s, "http") || strings.HasPrefix(s, "/") || strings.HasPrefix(s, "{{")
}

// looksLikeBody is the blank-line lookahead shape test: body content starts
// with `{`, `[` or `<`, or is a line without any colon.
func looksLikeBody(s string) bool {
	if s == "" {
		return false
	}
	if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") || strings.HasPrefix(s, "<") {
		return true
	}
	return !strings.Contains(s, ":")
}

// headerLine splits `Name: Value` on the first colon; both sides must be
// non-empty after trimming.
func headerLine(s string) (name, value string, ok bool) {
	idx := strings.Index(s, ":")
	if idx <= 0 {
		return "", "", false
	}
	name = strings.TrimSpace(s[:idx])
	value = strings.TrimSpace(s[idx+1:])
	if name == "" || value == "" {
		return "", "", false
	}
	return name, value, true
}
