package statsd

import (
	"sync"
	"time"
)

// Metric is one emission captured by Recorder.
type Metric struct {
	Name     string
	Count    int64
	Duration time.Duration
	Tags     map[string]string
}

// Recorder is an in-memory Sink for tests and the dev server.
type Recorder struct {
	mu      sync.Mutex
	metrics []Metric
}

var _ Sink = (*Recorder)(nil)

func (r *Recorder) Count(name string, value int64, tags map[string]string) {
	r.add(Metric{Name: name, Count: value, Tags: cleanTags(tags)})
}

func (r *Recorder) Timing(name string, value time.Duration, tags map[string]string) {
	r.add(Metric{Name: name, Duration: value, Tags: cleanTags(tags)})
}

// Metrics returns everything recorded so far.
func (r *Recorder) Metrics() []Metric {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Metric(nil), r.metrics...)
}

// Total sums counter values for name across all tag sets.
func (r *Recorder) Total(name string) int64 {
	var n int64
	for _, m := range r.Metrics() {
		if m.Name == name {
			n += m.Count
		}
	}
	return n
}

func (r *Recorder) add(m Metric) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = append(r.metrics, m)
}
