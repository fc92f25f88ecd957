package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reqfile/reqfile/packages/core/parser"
)

func orderOf(t *testing.T, content string) []string {
	t.Helper()
	file, err := parser.Parse(content)
	require.NoError(t, err)

	var names []string
	for _, req := range orderRequests(file.Requests) {
		names = append(names, req.Name)
	}
	return names
}

func TestOrderRequests_FileOrderWithoutReferences(t *testing.T) {
	names := orderOf(t, `### a
GET http://x/a

### b
GET http://x/b

### c
GET http://x/c
`)
	assert.Equal(t, []string{"a", "b", "c"}, names)
}

func TestOrderRequests_DependencyFirst(t *testing.T) {
	names := orderOf(t, `### consumer
GET http://x/items/{{producer.response.body.$.id}}

### producer
POST http://x/items
`)
	assert.Equal(t, []string{"producer", "consumer"}, names)
}

func TestOrderRequests_HeaderAndBodyReferences(t *testing.T) {
	names := orderOf(t, `### third
POST http://x/c

{"token": "{{second.response.body.$.token}}"}

### second
GET http://x/b
Authorization: {{first.response.header.X-Auth}}

### first
GET http://x/a
`)
	assert.Equal(t, []string{"first", "second", "third"}, names)
}

func TestOrderRequests_CycleFallsBackToFileOrder(t *testing.T) {
	names := orderOf(t, `### a
GET http://x/a/{{b.response.status}}

### b
GET http://x/b/{{a.response.status}}
`)
	assert.Equal(t, []string{"a", "b"}, names)
}

func TestOrderRequests_UnknownReferenceIgnored(t *testing.T) {
	names := orderOf(t, `### a
GET http://x/a/{{ghost.response.status}}

### b
GET http://x/b
`)
	assert.Equal(t, []string{"a", "b"}, names)
}

func TestOrderRequests_SelfReferenceIgnored(t *testing.T) {
	names := orderOf(t, `### poll
GET http://x/status/{{poll.response.body.$.cursor}}
`)
	assert.Equal(t, []string{"poll"}, names)
}
