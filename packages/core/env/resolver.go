package env

import (
	"os"
	"regexp"
	"strings"

	"github.com/reqfile/reqfile/packages/builtin"
	"github.com/reqfile/reqfile/packages/core/parser"
)

var (
	nameRefPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_-]+)\s*\}\}`)
	envRefPattern  = regexp.MustCompile(`\$\{([A-Za-z0-9_.-]+)\}`)
	funcRefPattern = regexp.MustCompile(`\{\{\$([^{}]*)\}\}`)
)

// WarnFunc is called when a reference stays unresolved.
type WarnFunc func(format string, args ...any)

// Resolver substitutes variable references in request text. Configure it
// before use; Resolve itself only reads, so concurrent calls are safe.
type Resolver struct {
	vars        *parser.Variables
	environment map[string]string
	funcs       *builtin.Registry
	warnFunc    WarnFunc
}

func NewResolver() *Resolver {
	return &Resolver{
		vars:        parser.NewVariables(),
		environment: make(map[string]string),
		funcs:       builtin.NewRegistry(),
	}
}

// SetFileVariables replaces the file-variable table, usually with
// RequestFile.Variables from the parsed file.
func (r *Resolver) SetFileVariables(vars *parser.Variables) {
	if vars == nil {
		vars = parser.NewVariables()
	}
	r.vars = vars
}

// SetEnvironment merges vars into the environment layer. Environment values
// win over file variables of the same name and are substituted literally.
func (r *Resolver) SetEnvironment(vars map[string]string) {
	for k, v := range vars {
		r.environment[k] = v
	}
}

func (r *Resolver) SetEnvironmentValue(name, value string) {
	r.environment[name] = value
}

func (r *Resolver) SetWarnFunc(fn WarnFunc) {
	r.warnFunc = fn
}

// Functions exposes the builtin registry so callers can add their own.
func (r *Resolver) Functions() *builtin.Registry {
	return r.funcs
}

func (r *Resolver) warn(format string, args ...any) {
	if r.warnFunc != nil {
		r.warnFunc(format, args...)
	}
}

// Resolve runs three ordered passes over text: {{name}} references against
// the environment and then the file variables, ${name} references against
// the environment and then the process environment, and finally {{$func args}}
// builtin calls. Whatever cannot be resolved keeps its literal text, which
// makes resolving already-resolved text a no-op.
func (r *Resolver) Resolve(text string) string {
	out := r.resolveNames(text, 0)
	out = r.resolveEnvRefs(out)
	return r.resolveFuncs(out)
}

// resolveNames substitutes {{name}} references. File-variable values may
// themselves contain references, so they are resolved recursively; the depth
// cap of one past the variable count keeps cyclic definitions from spinning.
func (r *Resolver) resolveNames(text string, depth int) string {
	if depth > r.vars.Len()+1 {
		return text
	}
	return nameRefPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := strings.TrimSpace(match[2 : len(match)-2])
		if value, ok := r.environment[name]; ok {
			return value
		}
		if value, ok := r.vars.Get(name); ok {
			return r.resolveNames(value, depth+1)
		}
		r.warn("unresolved variable {{%s}}", name)
		return match
	})
}

func (r *Resolver) resolveEnvRefs(text string) string {
	return envRefPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := match[2 : len(match)-1]
		if value, ok := r.environment[name]; ok {
			return value
		}
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		r.warn("unresolved environment variable ${%s}", name)
		return match
	})
}

func (r *Resolver) resolveFuncs(text string) string {
	return funcRefPattern.ReplaceAllStringFunc(text, func(match string) string {
		call := strings.TrimSpace(match[3 : len(match)-2])
		name := call
		rawArgs := ""
		if i := strings.IndexAny(call, " \t"); i >= 0 {
			name, rawArgs = call[:i], call[i+1:]
		}
		value, err := r.funcs.Call(name, rawArgs)
		if err != nil {
			r.warn("%s stays literal: %v", match, err)
			return match
		}
		return value
	})
}

// ResolveRequest returns a copy of req with variables substituted in the
// URL, header values, body text, and file body path. The input request is
// never mutated.
func (r *Resolver) ResolveRequest(req *parser.Request) *parser.Request {
	out := req.Clone()
	out.URL = r.Resolve(req.URL)
	headers := parser.NewHeaders()
	req.Headers.Each(func(name, value string) {
		headers.Set(name, r.Resolve(value))
	})
	out.Headers = headers
	if out.Body != "" {
		out.Body = r.Resolve(out.Body)
	}
	if out.FileBody != nil {
		out.FileBody.Path = r.Resolve(out.FileBody.Path)
	}
	return out
}

// Resolve substitutes references in text against vars and environment
// without keeping a resolver around.
func Resolve(text string, vars *parser.Variables, environment map[string]string) string {
	r := NewResolver()
	r.SetFileVariables(vars)
	r.SetEnvironment(environment)
	return r.Resolve(text)
}
