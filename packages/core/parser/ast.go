package parser

import (
	"strconv"
	"strings"
)

// RequestFile is the parsed form of one request definition file: the ordered
// request sequence plus the file-scoped variable declarations.
type RequestFile struct {
	Path      string
	Requests  []*Request
	Variables *Variables

	byName map[string]*Request
}

func NewRequestFile() *RequestFile {
	return &RequestFile{
		Variables: NewVariables(),
		byName:    make(map[string]*Request),
	}
}

// Add appends a request to the ordered sequence. The first request declared
// under a given name wins the name lookup; later duplicates stay in the
// sequence but do not displace it.
func (f *RequestFile) Add(r *Request) {
	f.Requests = append(f.Requests, r)
	if r.Name != "" {
		if _, exists := f.byName[r.Name]; !exists {
			f.byName[r.Name] = r
		}
	}
}

// Lookup returns the first-declared request with the given name.
func (f *RequestFile) Lookup(name string) (*Request, bool) {
	r, ok := f.byName[name]
	return r, ok
}

// Variables holds file-scoped variable declarations in declaration order.
// Re-declaring a name overwrites its value without changing its position.
type Variables struct {
	order  []string
	values map[string]string
}

func NewVariables() *Variables {
	return &Variables{values: make(map[string]string)}
}

func (v *Variables) Set(name, value string) {
	if _, exists := v.values[name]; !exists {
		v.order = append(v.order, name)
	}
	v.values[name] = value
}

func (v *Variables) Get(name string) (string, bool) {
	value, ok := v.values[name]
	return value, ok
}

func (v *Variables) Len() int {
	return len(v.order)
}

// Names returns the variable names in declaration order.
func (v *Variables) Names() []string {
	names := make([]string, len(v.order))
	copy(names, v.order)
	return names
}

// Map returns a fresh name→value copy.
func (v *Variables) Map() map[string]string {
	m := make(map[string]string, len(v.values))
	for k, val := range v.values {
		m[k] = val
	}
	return m
}

// Request is one materialized request block.
type Request struct {
	Name     string
	Method   string
	URL      string
	Headers  *Headers
	Body     string
	FileBody *FileBodyReference
	Metadata *Metadata
	Line     int
}

// HasBody reports whether the request carries either inline body text or a
// body-file reference. The two are mutually exclusive.
func (r *Request) HasBody() bool {
	return r.Body != "" || r.FileBody != nil
}

// Clone returns a deep copy. Resolution produces new instances instead of
// mutating parsed requests.
func (r *Request) Clone() *Request {
	c := *r
	c.Headers = r.Headers.Clone()
	if r.FileBody != nil {
		fb := *r.FileBody
		c.FileBody = &fb
	}
	if r.Metadata != nil {
		c.Metadata = r.Metadata.clone()
	}
	return &c
}

// Headers stores header fields with case-insensitive, last-write-wins
// semantics. The casing of the last assignment is preserved, and iteration
// follows first-assignment order.
type Headers struct {
	order   []string
	entries map[string]headerEntry
}

type headerEntry struct {
	name  string
	value string
}

func NewHeaders() *Headers {
	return &Headers{entries: make(map[string]headerEntry)}
}

func (h *Headers) Set(name, value string) {
	key := strings.ToLower(name)
	if _, exists := h.entries[key]; !exists {
		h.order = append(h.order, key)
	}
	h.entries[key] = headerEntry{name: name, value: value}
}

func (h *Headers) Get(name string) (string, bool) {
	if h == nil {
		return "", false
	}
	e, ok := h.entries[strings.ToLower(name)]
	return e.value, ok
}

func (h *Headers) Len() int {
	if h == nil {
		return 0
	}
	return len(h.order)
}

// Each visits headers in first-assignment order with last-assigned casing.
// Safe on a nil receiver.
func (h *Headers) Each(fn func(name, value string)) {
	if h == nil {
		return
	}
	for _, key := range h.order {
		e := h.entries[key]
		fn(e.name, e.value)
	}
}

// Map returns a fresh name→value copy keyed by the preserved casing.
func (h *Headers) Map() map[string]string {
	m := make(map[string]string, len(h.order))
	h.Each(func(name, value string) {
		m[name] = value
	})
	return m
}

func (h *Headers) Clone() *Headers {
	c := NewHeaders()
	h.Each(func(name, value string) {
		c.Set(name, value)
	})
	return c
}

// Encoding names a FileBodyReference may carry after alias normalization.
const (
	EncodingUTF8        = "UTF-8"
	EncodingUTF16       = "UTF-16"
	EncodingUTF32       = "UTF-32"
	EncodingASCII       = "US-ASCII"
	EncodingLatin1      = "ISO-8859-1"
	EncodingWindows1252 = "Windows-1252"
)

// FileBodyReference describes a body sourced from a file on disk. It is a
// descriptor only; the executor loads the content.
type FileBodyReference struct {
	Path             string
	ProcessVariables bool
	Encoding         string
	Line             int
}

// Metadata carries the directive-sourced attributes of a request.
type Metadata struct {
	Note         string
	NoRedirect   bool
	NoCookieJar  bool
	Custom       map[string]string
	Expectations []*Expectation
}

func NewMetadata() *Metadata {
	return &Metadata{Custom: make(map[string]string)}
}

func (m *Metadata) clone() *Metadata {
	c := NewMetadata()
	c.Note = m.Note
	c.NoRedirect = m.NoRedirect
	c.NoCookieJar = m.NoCookieJar
	for k, v := range m.Custom {
		c.Custom[k] = v
	}
	c.Expectations = make([]*Expectation, len(m.Expectations))
	for i, e := range m.Expectations {
		ec := *e
		c.Expectations[i] = &ec
	}
	return c
}

type ExpectationKind int

const (
	ExpectStatusCode ExpectationKind = iota
	ExpectHeader
	ExpectBodyContains
	ExpectBodyPath
	ExpectSchema
	ExpectMaxTime
)

func (k ExpectationKind) String() string {
	switch k {
	case ExpectStatusCode:
		return "status"
	case ExpectHeader:
		return "header"
	case ExpectBodyContains:
		return "body-contains"
	case ExpectBodyPath:
		return "body-path"
	case ExpectSchema:
		return "schema"
	case ExpectMaxTime:
		return "max-time"
	default:
		return "unknown"
	}
}

// Expectation is one declared post-execution assertion. Context carries the
// secondary operand for kinds that take one: the header name for a Header
// expectation, the JSONPath for a BodyPath expectation.
type Expectation struct {
	Kind    ExpectationKind
	Value   string
	Context string
	Line    int
}

type ParseError struct {
	File    string
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	if e.File != "" {
		return e.File + ":" + strconv.Itoa(e.Line) + ":" + strconv.Itoa(e.Column) + ": " + e.Message
	}
	return "line " + strconv.Itoa(e.Line) + ": " + e.Message
}
