package env

import (
	"strings"

	"github.com/reqfile/reqfile/packages/core/parser"
)

// ExtractReferences returns the distinct references in text, in order of
// first appearance. Plain {{name}} references yield the bare name while
// ${name} references keep their wrapper, so the two namespaces stay
// distinguishable in the result.
func ExtractReferences(text string) []string {
	seen := make(map[string]bool)
	var refs []string

	for _, m := range nameRefPattern.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[1])
		if !seen[name] {
			seen[name] = true
			refs = append(refs, name)
		}
	}
	for _, m := range envRefPattern.FindAllStringSubmatch(text, -1) {
		ref := "${" + m[1] + "}"
		if !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}
	return refs
}

// CircularVariables reports every file variable whose definition eventually
// references itself. Each variable gets its own depth-first walk with a
// fresh visited set, so mutually recursive definitions are all named, not
// just the first one found.
func CircularVariables(vars *parser.Variables) []string {
	var circular []string
	for _, name := range vars.Names() {
		if reachesSelf(vars, name, name, make(map[string]bool)) {
			circular = append(circular, name)
		}
	}
	return circular
}

func reachesSelf(vars *parser.Variables, root, current string, visited map[string]bool) bool {
	if visited[current] {
		return false
	}
	visited[current] = true

	value, ok := vars.Get(current)
	if !ok {
		return false
	}
	for _, ref := range ExtractReferences(value) {
		if strings.HasPrefix(ref, "${") {
			continue
		}
		if ref == root {
			return true
		}
		if reachesSelf(vars, root, ref, visited) {
			return true
		}
	}
	return false
}
