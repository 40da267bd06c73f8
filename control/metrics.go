// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// In-memory metrics sink. Counters accumulate, gauges keep the last value.
// Series are keyed by event name plus sorted tags.

package control

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/momentics/hioload-transport/api"
)

// MetricsRegistry holds recorded series.
type MetricsRegistry struct {
	mu      sync.RWMutex
	metrics map[string]float64
	updated time.Time
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		metrics: make(map[string]float64),
	}
}

// Record implements api.MetricsSink.
func (mr *MetricsRegistry) Record(event string, value float64, tags ...api.Tag) {
	key := SeriesKey(event, tags...)
	mr.mu.Lock()
	if api.IsGaugeMetric(event) {
		mr.metrics[key] = value
	} else {
		mr.metrics[key] += value
	}
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// Get returns the value of one series.
func (mr *MetricsRegistry) Get(event string, tags ...api.Tag) float64 {
	key := SeriesKey(event, tags...)
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	return mr.metrics[key]
}

// GetSnapshot returns a copy of all series.
func (mr *MetricsRegistry) GetSnapshot() map[string]float64 {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]float64, len(mr.metrics))
	for k, v := range mr.metrics {
		out[k] = v
	}
	return out
}

// Updated returns the time of the last Record.
func (mr *MetricsRegistry) Updated() time.Time {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	return mr.updated
}

// SeriesKey renders event{k=v,...} with tags sorted by key.
func SeriesKey(event string, tags ...api.Tag) string {
	if len(tags) == 0 {
		return event
	}
	sorted := append([]api.Tag(nil), tags...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
	var b strings.Builder
	b.WriteString(event)
	b.WriteByte('{')
	for i, t := range sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(t.Key)
		b.WriteByte('=')
		b.WriteString(t.Value)
	}
	b.WriteByte('}')
	return b.String()
}

// MultiSink fans events out to several sinks.
type MultiSink []api.MetricsSink

// Record forwards to every sink.
func (m MultiSink) Record(event string, value float64, tags ...api.Tag) {
	for _, s := range m {
		s.Record(event, value, tags...)
	}
}

var (
	_ api.MetricsSink = (*MetricsRegistry)(nil)
	_ api.MetricsSink = MultiSink(nil)
)
