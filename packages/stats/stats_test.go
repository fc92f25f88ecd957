package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCollectorRecord(t *testing.T) {
	c := NewCollector()

	c.Record("login", 100*time.Millisecond, true)
	c.Record("login", 150*time.Millisecond, true)
	c.Record("profile", 200*time.Millisecond, true)
	c.Record("profile", 50*time.Millisecond, false)

	s := c.Summary()
	assert.Equal(t, int64(4), s.Total)
	assert.Equal(t, int64(1), s.Failed)
}

func TestCollectorPercentiles(t *testing.T) {
	c := NewCollector()

	for i := 0; i < 100; i++ {
		c.Record("get", time.Duration(i+1)*time.Millisecond, true)
	}

	s := c.Summary()
	assert.Equal(t, int64(100), s.Total)

	// Check percentiles land where uniform 1..100ms latencies put them.
	assert.True(t, s.P50 > 0)
	assert.True(t, s.P95 >= s.P50)
	assert.True(t, s.P99 >= s.P95)
	assert.True(t, s.Max >= s.P99)
	assert.InDelta(t, float64(50*time.Millisecond), float64(s.P50), float64(2*time.Millisecond))
	assert.InDelta(t, float64(1*time.Millisecond), float64(s.Min), float64(1*time.Millisecond))
	assert.InDelta(t, float64(100*time.Millisecond), float64(s.Max), float64(2*time.Millisecond))
	assert.InDelta(t, float64(50*time.Millisecond), float64(s.Mean), float64(3*time.Millisecond))
}

func TestCollectorPerRequest(t *testing.T) {
	c := NewCollector()

	c.Record("fast", 10*time.Millisecond, true)
	c.Record("fast", 12*time.Millisecond, true)
	c.Record("slow", 500*time.Millisecond, true)

	s := c.Summary()
	assert.Len(t, s.PerRequest, 2)
	assert.Equal(t, int64(2), s.PerRequest["fast"].Count)
	assert.Equal(t, int64(1), s.PerRequest["slow"].Count)
	assert.True(t, s.PerRequest["slow"].P50 > s.PerRequest["fast"].P50)
}

func TestCollectorClampsOutliers(t *testing.T) {
	c := NewCollector()

	c.Record("huge", 5*time.Minute, true)
	c.Record("tiny", 1*time.Nanosecond, true)

	s := c.Summary()
	assert.Equal(t, int64(2), s.Total)
	assert.True(t, s.Max <= 60*time.Second)
	assert.True(t, s.Min >= time.Microsecond)
}

func TestCollectorUnnamedRequests(t *testing.T) {
	c := NewCollector()

	c.Record("", 20*time.Millisecond, true)

	s := c.Summary()
	assert.Equal(t, int64(1), s.Total)
	assert.Empty(t, s.PerRequest)
}
