// File: api/metrics.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Instrumentation capability injected into pools and connections.

package api

// Metric event names recorded by the memory pool.
const (
	MetricPoolRented            = "pool.rented"
	MetricPoolAllocated         = "pool.allocated"
	MetricPoolReturned          = "pool.returned"
	MetricPoolEvicted           = "pool.evicted"
	MetricPoolEvictedBytes      = "pool.evicted_bytes"
	MetricPoolEvictionScheduled = "pool.eviction_scheduled"
	MetricPoolPooledBytes       = "pool.pooled_bytes"    // gauge
	MetricPoolAllocatedBytes    = "pool.allocated_bytes" // gauge
	MetricPoolUsageRate         = "pool.usage_rate"      // gauge, rents per second
)

// IsGaugeMetric reports whether event carries an absolute value rather
// than a delta.
func IsGaugeMetric(event string) bool {
	switch event {
	case MetricPoolPooledBytes, MetricPoolAllocatedBytes, MetricPoolUsageRate:
		return true
	}
	return false
}

// CounterMetrics lists every counter event.
var CounterMetrics = []string{
	MetricPoolRented,
	MetricPoolAllocated,
	MetricPoolReturned,
	MetricPoolEvicted,
	MetricPoolEvictedBytes,
	MetricPoolEvictionScheduled,
}

// GaugeMetrics lists every gauge event.
var GaugeMetrics = []string{
	MetricPoolPooledBytes,
	MetricPoolAllocatedBytes,
	MetricPoolUsageRate,
}

// Tag is a metric dimension.
type Tag struct {
	Key   string
	Value string
}

// MetricsSink receives instrumentation events. Counters carry a delta,
// gauges carry the current value.
type MetricsSink interface {
	Record(event string, value float64, tags ...Tag)
}

// NopMetrics discards every event.
type NopMetrics struct{}

// Record does nothing.
func (NopMetrics) Record(string, float64, ...Tag) {}

var _ MetricsSink = NopMetrics{}
