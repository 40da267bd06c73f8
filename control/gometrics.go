// control/gometrics.go
// Author: momentics <momentics@gmail.com>
//
// hashicorp/go-metrics adapter for api.MetricsSink.

package control

import (
	"strings"

	"github.com/hashicorp/go-metrics"

	"github.com/momentics/hioload-transport/api"
)

// GoMetricsSink forwards events to a go-metrics instance. Event names are
// split on dots into the metric key.
type GoMetricsSink struct {
	m *metrics.Metrics
}

// NewGoMetricsSink wraps m.
func NewGoMetricsSink(m *metrics.Metrics) *GoMetricsSink {
	return &GoMetricsSink{m: m}
}

// Record implements api.MetricsSink.
func (s *GoMetricsSink) Record(event string, value float64, tags ...api.Tag) {
	key := strings.Split(event, ".")
	labels := make([]metrics.Label, 0, len(tags))
	for _, t := range tags {
		labels = append(labels, metrics.Label{Name: t.Key, Value: t.Value})
	}
	if api.IsGaugeMetric(event) {
		s.m.SetGaugeWithLabels(key, float32(value), labels)
		return
	}
	s.m.IncrCounterWithLabels(key, float32(value), labels)
}

var _ api.MetricsSink = (*GoMetricsSink)(nil)
