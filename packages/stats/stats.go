package stats

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	histogramMin = 1          // 1us
	histogramMax = 60_000_000 // 60s
	histogramSig = 3
)

// Collector aggregates request latencies for a run. Safe for concurrent use.
type Collector struct {
	mu        sync.Mutex
	histogram *hdrhistogram.Histogram
	perName   map[string]*hdrhistogram.Histogram
	total     int64
	failed    int64
	started   time.Time
}

func NewCollector() *Collector {
	return &Collector{
		histogram: hdrhistogram.New(histogramMin, histogramMax, histogramSig),
		perName:   make(map[string]*hdrhistogram.Histogram),
		started:   time.Now(),
	}
}

// Record adds one request latency. Values are clamped to the histogram
// range, so a pathological outlier never makes recording fail.
func (c *Collector) Record(name string, latency time.Duration, passed bool) {
	us := latency.Microseconds()
	if us < histogramMin {
		us = histogramMin
	}
	if us > histogramMax {
		us = histogramMax
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.total++
	if !passed {
		c.failed++
	}
	_ = c.histogram.RecordValue(us)

	if name != "" {
		h, ok := c.perName[name]
		if !ok {
			h = hdrhistogram.New(histogramMin, histogramMax, histogramSig)
			c.perName[name] = h
		}
		_ = h.RecordValue(us)
	}
}

// Summary is a point-in-time aggregate of the recorded latencies.
type Summary struct {
	Total    int64
	Failed   int64
	Duration time.Duration

	P50  time.Duration
	P95  time.Duration
	P99  time.Duration
	Min  time.Duration
	Max  time.Duration
	Mean time.Duration

	PerRequest map[string]*RequestSummary
}

// RequestSummary aggregates latencies for one named request.
type RequestSummary struct {
	Name  string
	Count int64
	P50   time.Duration
	P95   time.Duration
	P99   time.Duration
	Mean  time.Duration
}

func (c *Collector) Summary() *Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Min/Max report the extremes of the bucket a value landed in, which
	// at 3 significant figures can overshoot the recorded bounds.
	s := &Summary{
		Total:      c.total,
		Failed:     c.failed,
		Duration:   time.Since(c.started),
		P50:        usToDuration(c.histogram.ValueAtQuantile(50)),
		P95:        usToDuration(c.histogram.ValueAtQuantile(95)),
		P99:        usToDuration(c.histogram.ValueAtQuantile(99)),
		Min:        usToDuration(max(c.histogram.Min(), histogramMin)),
		Max:        usToDuration(min(c.histogram.Max(), histogramMax)),
		Mean:       time.Duration(c.histogram.Mean()) * time.Microsecond,
		PerRequest: make(map[string]*RequestSummary, len(c.perName)),
	}

	for name, h := range c.perName {
		s.PerRequest[name] = &RequestSummary{
			Name:  name,
			Count: h.TotalCount(),
			P50:   usToDuration(h.ValueAtQuantile(50)),
			P95:   usToDuration(h.ValueAtQuantile(95)),
			P99:   usToDuration(h.ValueAtQuantile(99)),
			Mean:  time.Duration(h.Mean()) * time.Microsecond,
		}
	}

	return s
}

func usToDuration(us int64) time.Duration {
	return time.Duration(us) * time.Microsecond
}
