package env

import (
	"fmt"
	"os"
	"strings"

	"github.com/reqfile/reqfile/packages/core/parser"
)

// Diagnostic is a non-fatal finding from ValidateFile. Line is 1-based and
// zero when the finding has no single source line, as with variable cycles.
type Diagnostic struct {
	Line    int
	Message string
}

func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("line %d: %s", d.Line, d.Message)
	}
	return d.Message
}

// ValidateFile runs the semantic checks that parsing leaves to a later
// pass: request name shape, circular file variables, and references that
// resolve against neither the file variables nor the environment. Findings
// are ordered variable cycles first, then requests in file order.
func ValidateFile(file *parser.RequestFile, environment map[string]string) []Diagnostic {
	var diags []Diagnostic

	for _, name := range CircularVariables(file.Variables) {
		diags = append(diags, Diagnostic{
			Message: fmt.Sprintf("file variable %q is part of a reference cycle", name),
		})
	}

	for _, req := range file.Requests {
		if !parser.ValidName(req.Name) {
			diags = append(diags, Diagnostic{
				Line:    req.Line,
				Message: fmt.Sprintf("request name %q: only letters, digits, '_' and '-' are allowed", req.Name),
			})
		} else if len(req.Name) > parser.DefaultMaxNameLength {
			diags = append(diags, Diagnostic{
				Line:    req.Line,
				Message: fmt.Sprintf("request name %q exceeds %d characters", req.Name, parser.DefaultMaxNameLength),
			})
		}

		for _, ref := range requestReferences(req) {
			if name, ok := strings.CutPrefix(ref, "${"); ok {
				name = strings.TrimSuffix(name, "}")
				if _, ok := environment[name]; ok {
					continue
				}
				if _, ok := os.LookupEnv(name); ok {
					continue
				}
				diags = append(diags, Diagnostic{
					Line:    req.Line,
					Message: fmt.Sprintf("request %q references %s, which is not set", req.Name, ref),
				})
				continue
			}
			if _, ok := environment[ref]; ok {
				continue
			}
			if _, ok := file.Variables.Get(ref); ok {
				continue
			}
			diags = append(diags, Diagnostic{
				Line:    req.Line,
				Message: fmt.Sprintf("request %q references {{%s}}, which is not defined", req.Name, ref),
			})
		}
	}

	return diags
}

// requestReferences collects the distinct references across every
// resolvable part of a request.
func requestReferences(req *parser.Request) []string {
	parts := []string{req.URL}
	req.Headers.Each(func(_, value string) {
		parts = append(parts, value)
	})
	parts = append(parts, req.Body)
	if req.FileBody != nil {
		parts = append(parts, req.FileBody.Path)
	}
	return ExtractReferences(strings.Join(parts, "\n"))
}
