package runner

import (
	"github.com/reqfile/reqfile/packages/chain"
	"github.com/reqfile/reqfile/packages/core/parser"
)

// orderRequests sorts requests so that any request referenced through
// {{name.response.*}} executes before its dependents. Among requests with
// no ordering constraint between them, file order is kept. A reference
// cycle falls back to plain file order; the unresolved references then
// stay literal at execution time.
func orderRequests(requests []*parser.Request) []*parser.Request {
	index := make(map[string]int, len(requests))
	for i, req := range requests {
		index[req.Name] = i
	}

	indegree := make([]int, len(requests))
	dependents := make([][]int, len(requests))
	for i, req := range requests {
		for _, name := range chain.RequestReferences(req) {
			j, ok := index[name]
			if !ok || j == i {
				// References to unknown requests, or to a previous run of
				// the request itself, do not constrain the order.
				continue
			}
			dependents[j] = append(dependents[j], i)
			indegree[i]++
		}
	}

	sorted := make([]*parser.Request, 0, len(requests))
	done := make([]bool, len(requests))
	for len(sorted) < len(requests) {
		picked := -1
		for i := range requests {
			if !done[i] && indegree[i] == 0 {
				picked = i
				break
			}
		}
		if picked < 0 {
			return requests
		}
		done[picked] = true
		sorted = append(sorted, requests[picked])
		for _, i := range dependents[picked] {
			indegree[i]--
		}
	}
	return sorted
}
