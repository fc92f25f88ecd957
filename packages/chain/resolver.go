package chain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/oliveagle/jsonpath"

	"github.com/reqfile/reqfile/packages/core/parser"
)

var responseRefPattern = regexp.MustCompile(`\{\{([A-Za-z0-9_-]+)\.response\.([^{}]+)\}\}`)

// Resolve substitutes {{name.response.*}} references in text with values
// from the store. Supported trailers are body, body.$.<path>, header.<name>,
// status, contentType, and responseTime. A reference to a request that has
// not run, a header that is absent, or a path that does not match keeps its
// literal text.
func Resolve(text string, store *Store) string {
	return responseRefPattern.ReplaceAllStringFunc(text, func(match string) string {
		m := responseRefPattern.FindStringSubmatch(match)
		record, ok := store.Get(m[1])
		if !ok {
			return match
		}
		value, ok := record.lookup(m[2])
		if !ok {
			return match
		}
		return value
	})
}

func (r *ResponseRecord) lookup(trailer string) (string, bool) {
	switch {
	case trailer == "body":
		return r.BodyText, true
	case strings.HasPrefix(trailer, "body.$."):
		return r.jsonPath(strings.TrimPrefix(trailer, "body.$."))
	case strings.HasPrefix(trailer, "header."):
		return r.Header(strings.TrimPrefix(trailer, "header."))
	case trailer == "status":
		return strconv.Itoa(r.StatusCode), true
	case trailer == "contentType":
		return r.ContentType, true
	case trailer == "responseTime":
		return strconv.FormatFloat(r.ResponseTimeMs, 'f', 2, 64), true
	}
	return "", false
}

func (r *ResponseRecord) jsonPath(path string) (string, bool) {
	if r.ParsedBody == nil {
		return "", false
	}
	value, err := jsonpath.JsonPathLookup(r.ParsedBody, "$."+path)
	if err != nil {
		return "", false
	}
	return stringify(value), true
}

// stringify renders a path result the way it should read inside request
// text: strings bare, numbers without a float artifact when integral,
// composites re-marshaled as JSON.
func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	}
}

// ReferencedRequests returns the distinct request names text reaches for
// through {{name.response.*}} references, in first-appearance order.
func ReferencedRequests(text string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range responseRefPattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// RequestReferences collects the request names req depends on across its
// URL, header values, body, and file body path.
func RequestReferences(req *parser.Request) []string {
	parts := []string{req.URL}
	req.Headers.Each(func(_, value string) {
		parts = append(parts, value)
	})
	parts = append(parts, req.Body)
	if req.FileBody != nil {
		parts = append(parts, req.FileBody.Path)
	}
	return ReferencedRequests(strings.Join(parts, "\n"))
}
