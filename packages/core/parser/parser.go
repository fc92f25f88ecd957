package parser

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// DefaultMaxNameLength bounds request names when strict checks are on.
const DefaultMaxNameLength = 64

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidName reports whether name satisfies the strict request-name rules:
// letters, digits, underscores, and hyphens only.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

// Options control the eager checks the parser performs while building the
// file. Everything not covered here is handled leniently.
type Options struct {
	// CheckDuplicates makes a second introduction of an already-used request
	// name fatal. Lookup on RequestFile is first-declared-wins either way.
	CheckDuplicates bool
	// Strict enforces the request name pattern and length at parse time.
	Strict        bool
	MaxNameLength int
}

func DefaultOptions() Options {
	return Options{CheckDuplicates: true, MaxNameLength: DefaultMaxNameLength}
}

func Parse(input string) (*RequestFile, error) {
	return ParseWithOptions(input, DefaultOptions())
}

func ParseWithOptions(input string, opts Options) (*RequestFile, error) {
	b := &fileBuilder{
		file: NewRequestFile(),
		opts: opts,
		seen: make(map[string]int),
	}
	for _, tok := range Tokenize(input) {
		if err := b.consume(tok); err != nil {
			return nil, err
		}
	}
	return b.file, nil
}

func ParseFile(path string) (*RequestFile, error) {
	return ParseFileWithOptions(path, DefaultOptions())
}

func ParseFileWithOptions(path string, opts Options) (*RequestFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	file, err := ParseWithOptions(string(data), opts)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			perr.File = path
		}
		return nil, err
	}
	file.Path = path
	return file, nil
}

// fileBuilder runs the request-boundary state machine over the token stream.
// A request opens on a `###` separator or a `name` directive; either event
// closes the one currently open. Tokens seen before the first opener are
// dropped, except file variable declarations, which always apply.
type fileBuilder struct {
	file *RequestFile
	opts Options

	currentName string
	nameLine    int
	pending     []Token
	meta        *Metadata
	isOpen      bool

	opened int
	seen   map[string]int
}

func (b *fileBuilder) consume(tok Token) error {
	switch tok.Kind {
	case TokenFileVariableDecl:
		name, value, _ := strings.Cut(tok.Value, "=")
		b.file.Variables.Set(name, value)
	case TokenRequestSeparator:
		b.close()
		b.opened++
		name := separatorName(tok.Value)
		if name == "" {
			name = "request-" + strconv.Itoa(b.opened)
		}
		return b.open(name, tok.Line)
	case TokenMetadataDirective:
		key, value := splitDirective(tok.Value)
		if strings.EqualFold(key, "name") {
			b.close()
			b.opened++
			return b.open(value, tok.Line)
		}
		if b.isOpen {
			b.applyDirective(key, value, tok.Line)
		}
	case TokenEndOfStream:
		b.close()
	default:
		if b.isOpen {
			b.pending = append(b.pending, tok)
		}
	}
	return nil
}

func (b *fileBuilder) open(name string, line int) error {
	b.isOpen = true
	b.currentName = name
	b.nameLine = line
	b.pending = nil
	b.meta = NewMetadata()
	if name == "" {
		// A name directive without an argument opens a request that will be
		// dropped at close.
		return nil
	}
	if b.opts.Strict {
		if !namePattern.MatchString(name) {
			return &ParseError{Line: line, Message: "invalid request name " + strconv.Quote(name) + ": only letters, digits, '_' and '-' are allowed"}
		}
		if max := b.opts.MaxNameLength; max > 0 && len(name) > max {
			return &ParseError{Line: line, Message: fmt.Sprintf("request name %q exceeds %d characters", name, max)}
		}
	}
	if b.opts.CheckDuplicates {
		if first, ok := b.seen[name]; ok {
			return &ParseError{Line: line, Message: fmt.Sprintf("duplicate request name %q: already declared at line %d", name, first)}
		}
		b.seen[name] = line
	}
	return nil
}

func (b *fileBuilder) close() {
	if !b.isOpen {
		return
	}
	name, line, tokens, meta := b.currentName, b.nameLine, b.pending, b.meta
	b.isOpen = false
	b.currentName = ""
	b.pending = nil
	b.meta = nil
	if name == "" {
		return
	}
	b.file.Add(materialize(name, line, tokens, meta))
}

// separatorName joins the free-form tokens after `###` with dashes.
func separatorName(value string) string {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return ""
	}
	return strings.Join(fields, "-")
}

func splitDirective(s string) (key, value string) {
	idx := strings.IndexFunc(s, unicode.IsSpace)
	if idx < 0 {
		return s, ""
	}
	return s[:idx], strings.TrimSpace(s[idx:])
}

// applyDirective dispatches one metadata directive into the pending metadata.
// Unknown keys are kept verbatim in the custom map rather than rejected.
func (b *fileBuilder) applyDirective(key, value string, line int) {
	switch strings.ToLower(key) {
	case "note":
		b.meta.Note = value
	case "no-redirect":
		b.meta.NoRedirect = true
	case "no-cookie-jar":
		b.meta.NoCookieJar = true
	case "expect":
		if exp, ok := parseExpect(value, line); ok {
			b.meta.Expectations = append(b.meta.Expectations, exp)
		} else {
			b.meta.Custom[key] = value
		}
	case "expect-status-code":
		b.addExpectation(ExpectStatusCode, value, line)
	case "expect-header":
		b.addExpectation(ExpectHeader, value, line)
	case "expect-body-contains":
		b.addExpectation(ExpectBodyContains, value, line)
	case "expect-body-path":
		b.addExpectation(ExpectBodyPath, value, line)
	case "expect-schema":
		b.addExpectation(ExpectSchema, value, line)
	case "expect-max-time":
		b.addExpectation(ExpectMaxTime, value, line)
	default:
		b.meta.Custom[key] = value
	}
}

func (b *fileBuilder) addExpectation(kind ExpectationKind, value string, line int) {
	b.meta.Expectations = append(b.meta.Expectations, newExpectation(kind, value, line))
}

var expectKeywords = map[string]ExpectationKind{
	"status":        ExpectStatusCode,
	"header":        ExpectHeader,
	"body-contains": ExpectBodyContains,
	"body-path":     ExpectBodyPath,
	"schema":        ExpectSchema,
	"max-time":      ExpectMaxTime,
}

// parseExpect splits an `expect` value into its kind keyword and operand.
// Both `status: 200` and `status 200` are accepted. The colon split is tried
// first; when its head is not a known keyword (a header operand usually
// contains the colon) the space split is tried before giving up.
func parseExpect(value string, line int) (*Expectation, bool) {
	if head, rest, ok := strings.Cut(value, ":"); ok {
		if kind, known := expectKeywords[strings.ToLower(strings.TrimSpace(head))]; known {
			return newExpectation(kind, strings.TrimSpace(rest), line), true
		}
	}
	if idx := strings.IndexFunc(value, unicode.IsSpace); idx > 0 {
		if kind, known := expectKeywords[strings.ToLower(value[:idx])]; known {
			return newExpectation(kind, strings.TrimSpace(value[idx:]), line), true
		}
	}
	return nil, false
}

// newExpectation builds an expectation, splitting the secondary operand into
// Context for the kinds that carry one.
func newExpectation(kind ExpectationKind, value string, line int) *Expectation {
	exp := &Expectation{Kind: kind, Value: value, Line: line}
	switch kind {
	case ExpectHeader:
		if name, rest, ok := strings.Cut(value, ":"); ok {
			exp.Context = strings.TrimSpace(name)
			exp.Value = strings.TrimSpace(rest)
		} else {
			exp.Context = strings.TrimSpace(value)
			exp.Value = ""
		}
	case ExpectBodyPath:
		if idx := strings.IndexFunc(value, unicode.IsSpace); idx > 0 {
			exp.Context = value[:idx]
			exp.Value = strings.TrimSpace(value[idx:])
		} else {
			exp.Context = value
			exp.Value = ""
		}
	}
	return exp
}

// materialize turns the pending tokens of a closed request into a Request.
// Body entry is re-derived from the token kinds: a BodyLine or body-file
// reference enters body mode directly, as does a blank line not followed by
// more head material. Once in body mode, head-shaped tokens are folded back
// into literal body text.
func materialize(name string, line int, tokens []Token, meta *Metadata) *Request {
	req := &Request{
		Name:     name,
		Headers:  NewHeaders(),
		Metadata: meta,
		Line:     line,
	}

	inBody := false
	var bodyLines []string

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch tok.Kind {
		case TokenComment:
			// comments never reach the request
		case TokenLineBreak:
			if inBody {
				bodyLines = append(bodyLines, "")
			} else if !headFollows(tokens, i+1) {
				inBody = true
			}
		case TokenMethod:
			if inBody {
				lineText := tok.Value
				if i+1 < len(tokens) && tokens[i+1].Kind == TokenURL {
					lineText += " " + tokens[i+1].Value
					i++
				}
				bodyLines = append(bodyLines, lineText)
			} else {
				req.Method = strings.ToUpper(tok.Value)
			}
		case TokenURL:
			if inBody {
				bodyLines = append(bodyLines, tok.Value)
			} else {
				req.URL = tok.Value
			}
		case TokenHeaderName:
			value := ""
			if i+1 < len(tokens) && tokens[i+1].Kind == TokenHeaderValue {
				value = tokens[i+1].Value
				i++
			}
			if inBody {
				bodyLines = append(bodyLines, tok.Value+": "+value)
			} else {
				req.Headers.Set(tok.Value, value)
			}
		case TokenHeaderValue:
			if inBody {
				bodyLines = append(bodyLines, tok.Value)
			}
		case TokenBodyLine:
			inBody = true
			bodyLines = append(bodyLines, tok.Value)
		case TokenFileBodyRef:
			inBody = true
			req.FileBody = &FileBodyReference{
				Path:     tok.Value,
				Encoding: EncodingUTF8,
				Line:     tok.Line,
			}
		case TokenFileBodyRefProcessed:
			inBody = true
			encoding, path := decodePackedRef(tok.Value)
			req.FileBody = &FileBodyReference{
				Path:             path,
				ProcessVariables: true,
				Encoding:         encoding,
				Line:             tok.Line,
			}
		}
	}

	// Body and FileBody are mutually exclusive; a body-file reference
	// displaces literal body lines.
	if req.FileBody == nil {
		if body := strings.TrimSpace(strings.Join(bodyLines, "\n")); body != "" {
			req.Body = body
		}
	}
	if req.Method == "" {
		req.Method = "GET"
	}
	return req
}

// headFollows reports whether the next significant token still belongs to a
// request head. LineBreak and Comment tokens are not significant.
func headFollows(tokens []Token, from int) bool {
	for i := from; i < len(tokens); i++ {
		switch tokens[i].Kind {
		case TokenLineBreak, TokenComment:
			continue
		case TokenMethod, TokenURL, TokenHeaderName:
			return true
		default:
			return false
		}
	}
	return false
}

var encodingAliases = map[string]string{
	"utf8":        EncodingUTF8,
	"utf-8":       EncodingUTF8,
	"utf16":       EncodingUTF16,
	"utf-16":      EncodingUTF16,
	"utf32":       EncodingUTF32,
	"utf-32":      EncodingUTF32,
	"ascii":       EncodingASCII,
	"us-ascii":    EncodingASCII,
	"latin1":      EncodingLatin1,
	"iso-8859-1":  EncodingLatin1,
	"windows1252": EncodingWindows1252,
	"cp1252":      EncodingWindows1252,
}

// decodePackedRef splits the tokenizer's `encoding|path` packing. A missing
// or unrecognized encoding falls back to UTF-8.
func decodePackedRef(value string) (encoding, path string) {
	enc, rest, ok := strings.Cut(value, "|")
	if !ok {
		return EncodingUTF8, value
	}
	if canonical, known := encodingAliases[strings.ToLower(enc)]; known {
		return canonical, rest
	}
	return EncodingUTF8, rest
}
