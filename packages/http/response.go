package http

import (
	"strings"
	"time"

	"github.com/reqfile/reqfile/packages/chain"
)

type Response struct {
	StatusCode int
	Status     string
	Headers    map[string]string
	Body       []byte
	Duration   time.Duration
}

func (r *Response) BodyString() string {
	return string(r.Body)
}

// Header returns the value of a header, matching case-insensitively.
func (r *Response) Header(name string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsJSON reports whether the Content-Type declares a JSON body.
func (r *Response) IsJSON() bool {
	return strings.Contains(strings.ToLower(r.ContentType()), "application/json")
}

// ResponseTimeMs returns the round-trip time in milliseconds.
func (r *Response) ResponseTimeMs() float64 {
	return float64(r.Duration) / float64(time.Millisecond)
}

// ToRecord converts the response into the record that later requests
// reference and assertions evaluate. The store parses the body on insert.
func (r *Response) ToRecord(name string) *chain.ResponseRecord {
	return &chain.ResponseRecord{
		Name:           name,
		StatusCode:     r.StatusCode,
		Headers:        r.Headers,
		BodyText:       string(r.Body),
		ContentType:    r.ContentType(),
		ResponseTimeMs: r.ResponseTimeMs(),
		Timestamp:      time.Now(),
	}
}
