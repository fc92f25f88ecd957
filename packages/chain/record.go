package chain

import (
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// ResponseRecord is what a completed request leaves behind for later
// requests to reference. ParsedBody is set when BodyText held valid JSON.
type ResponseRecord struct {
	Name           string
	StatusCode     int
	Headers        map[string]string
	BodyText       string
	ParsedBody     any
	ContentType    string
	ResponseTimeMs float64
	Timestamp      time.Time
}

// Header returns the named header, matching case-insensitively.
func (r *ResponseRecord) Header(name string) (string, bool) {
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// Store holds response records by request name. It is the one shared
// mutable structure in a run, so access is guarded.
type Store struct {
	mu      sync.RWMutex
	records map[string]*ResponseRecord
}

func NewStore() *Store {
	return &Store{records: make(map[string]*ResponseRecord)}
}

// Put parses the body as JSON once, so every later path lookup reuses the
// result, and files the record under its request name. A second response
// for the same name replaces the first.
func (s *Store) Put(record *ResponseRecord) {
	if record.ParsedBody == nil && record.BodyText != "" {
		var parsed any
		if err := json.Unmarshal([]byte(record.BodyText), &parsed); err == nil {
			record.ParsedBody = parsed
		}
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.Name] = record
}

func (s *Store) Get(name string) (*ResponseRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[name]
	return record, ok
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
