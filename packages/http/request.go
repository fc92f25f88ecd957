package http

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"

	"github.com/reqfile/reqfile/packages/chain"
	"github.com/reqfile/reqfile/packages/core/env"
	"github.com/reqfile/reqfile/packages/core/parser"
)

// Request is a fully materialized HTTP request: every variable and response
// reference has been substituted and any file body has been loaded.
type Request struct {
	Name        string
	Method      string
	URL         string
	Headers     map[string]string
	Body        []byte
	Timeout     time.Duration
	NoRedirect  bool
	NoCookieJar bool
	Line        int
}

// BuildRequest materializes a parsed request. Variables resolve first, then
// response references against the store, then the file body (if any) is
// loaded from disk relative to baseDir.
func BuildRequest(req *parser.Request, resolver *env.Resolver, store *chain.Store, baseDir string) (*Request, error) {
	resolved := req
	if resolver != nil {
		resolved = resolver.ResolveRequest(req)
	}
	if store != nil {
		resolved = resolveChainRefs(resolved, store)
	}

	out := &Request{
		Name:    resolved.Name,
		Method:  resolved.Method,
		URL:     resolved.URL,
		Headers: resolved.Headers.Map(),
		Line:    resolved.Line,
	}

	if resolved.Metadata != nil {
		out.NoRedirect = resolved.Metadata.NoRedirect
		out.NoCookieJar = resolved.Metadata.NoCookieJar
		// A custom `#@timeout 5s` directive overrides the client timeout.
		if raw, ok := resolved.Metadata.Custom["timeout"]; ok {
			if d, err := time.ParseDuration(raw); err == nil && d > 0 {
				out.Timeout = d
			}
		}
	}

	switch {
	case resolved.FileBody != nil:
		body, err := loadFileBody(resolved.FileBody, resolver, store, baseDir)
		if err != nil {
			return nil, fmt.Errorf("request %s: %w", req.Name, err)
		}
		out.Body = body
	case resolved.Body != "":
		out.Body = []byte(resolved.Body)
	}

	return out, nil
}

// resolveChainRefs substitutes {{name.response.*}} references in the URL,
// headers, body and file body path.
func resolveChainRefs(req *parser.Request, store *chain.Store) *parser.Request {
	out := req.Clone()
	out.URL = chain.Resolve(out.URL, store)

	headers := parser.NewHeaders()
	out.Headers.Each(func(key, value string) {
		headers.Set(key, chain.Resolve(value, store))
	})
	out.Headers = headers

	if out.Body != "" {
		out.Body = chain.Resolve(out.Body, store)
	}
	if out.FileBody != nil {
		out.FileBody.Path = chain.Resolve(out.FileBody.Path, store)
	}
	return out
}

// loadFileBody reads a referenced body file, decodes it per the declared
// encoding, and (for `<@` references) resolves variables in the content.
func loadFileBody(fb *parser.FileBodyReference, resolver *env.Resolver, store *chain.Store, baseDir string) ([]byte, error) {
	path := fb.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	if err := pathWithinBase(baseDir, path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read body file: %w", err)
	}

	decoded, err := decodeBody(data, fb.Encoding)
	if err != nil {
		return nil, fmt.Errorf("cannot decode body file %s as %s: %w", fb.Path, fb.Encoding, err)
	}

	if !fb.ProcessVariables {
		return decoded, nil
	}

	text := string(decoded)
	if resolver != nil {
		text = resolver.Resolve(text)
	}
	if store != nil {
		text = chain.Resolve(text, store)
	}
	return []byte(text), nil
}

// decodeBody converts file bytes to UTF-8. UTF-8 and US-ASCII content passes
// through untouched; UTF-16 and UTF-32 honor a BOM and assume little-endian
// without one.
func decodeBody(data []byte, encodingName string) ([]byte, error) {
	var enc encoding.Encoding
	switch encodingName {
	case parser.EncodingUTF16:
		enc = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case parser.EncodingUTF32:
		enc = utf32.UTF32(utf32.LittleEndian, utf32.UseBOM)
	case parser.EncodingLatin1:
		enc = charmap.ISO8859_1
	case parser.EncodingWindows1252:
		enc = charmap.Windows1252
	default:
		return data, nil
	}
	return enc.NewDecoder().Bytes(data)
}

// pathWithinBase ensures a body file path does not escape the directory of
// the request file.
func pathWithinBase(baseDir, path string) error {
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	cleanBase := filepath.Clean(absBase)
	cleanPath := filepath.Clean(absPath)
	if cleanPath != cleanBase && !strings.HasPrefix(cleanPath, cleanBase+string(filepath.Separator)) {
		return fmt.Errorf("body file path escapes the request file directory: %s", path)
	}
	return nil
}
