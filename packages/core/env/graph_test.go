package env

import (
	"reflect"
	"testing"
)

func TestExtractReferences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "none",
			input:    "plain text",
			expected: nil,
		},
		{
			name:     "deduplicated in first-appearance order",
			input:    "{{a}} {{b}} {{a}}",
			expected: []string{"a", "b"},
		},
		{
			name:     "env refs keep their wrapper",
			input:    "${HOST} {{path}} ${HOST}",
			expected: []string{"path", "${HOST}"},
		},
		{
			name:     "function calls are not references",
			input:    "{{$guid}} {{$randomInt 1 2}}",
			expected: nil,
		},
		{
			name:     "response chains are not references",
			input:    "{{login.response.body.$.token}}",
			expected: nil,
		},
		{
			name:     "spaces inside braces",
			input:    "{{ host }}",
			expected: []string{"host"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractReferences(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("ExtractReferences(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCircularVariables(t *testing.T) {
	tests := []struct {
		name     string
		vars     []string
		expected []string
	}{
		{
			name:     "no variables",
			expected: nil,
		},
		{
			name:     "acyclic chain",
			vars:     []string{"a", "{{b}}", "b", "{{c}}", "c", "leaf"},
			expected: nil,
		},
		{
			name:     "self reference",
			vars:     []string{"a", "prefix {{a}}"},
			expected: []string{"a"},
		},
		{
			name:     "mutual cycle reports both",
			vars:     []string{"a", "{{b}}", "b", "{{a}}"},
			expected: []string{"a", "b"},
		},
		{
			name:     "three-way cycle reports all",
			vars:     []string{"a", "{{b}}", "b", "{{c}}", "c", "{{a}}"},
			expected: []string{"a", "b", "c"},
		},
		{
			name:     "cycle plus bystander",
			vars:     []string{"x", "safe", "a", "{{b}}", "b", "{{a}}"},
			expected: []string{"a", "b"},
		},
		{
			name:     "reference to undefined is not a cycle",
			vars:     []string{"a", "{{ghost}}"},
			expected: nil,
		},
		{
			name:     "diamond is not a cycle",
			vars:     []string{"a", "{{b}} {{c}}", "b", "{{d}}", "c", "{{d}}", "d", "leaf"},
			expected: nil,
		},
		{
			name:     "env ref to same name is not a cycle",
			vars:     []string{"a", "${a}"},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CircularVariables(varsOf(t, tt.vars...))
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("CircularVariables() = %v, want %v", got, tt.expected)
			}
		})
	}
}
