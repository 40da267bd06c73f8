// control/prometheus.go
// Author: momentics <momentics@gmail.com>
//
// Prometheus adapter for api.MetricsSink.

package control

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/momentics/hioload-transport/api"
)

// PrometheusSink maps pool events to Prometheus collectors. Label names are
// fixed at construction; tags with other keys are dropped and missing
// labels are recorded empty.
type PrometheusSink struct {
	labels   []string
	counters map[string]*prometheus.CounterVec
	gauges   map[string]*prometheus.GaugeVec
}

// NewPrometheusSink registers one collector per known event with reg.
func NewPrometheusSink(reg prometheus.Registerer, namespace string, labels ...string) (*PrometheusSink, error) {
	s := &PrometheusSink{
		labels:   labels,
		counters: make(map[string]*prometheus.CounterVec, len(api.CounterMetrics)),
		gauges:   make(map[string]*prometheus.GaugeVec, len(api.GaugeMetrics)),
	}
	for _, event := range api.CounterMetrics {
		subsystem, name := splitEvent(event)
		cv := prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name + "_total",
			Help:      "Total " + strings.ReplaceAll(name, "_", " ") + " events of the " + subsystem,
		}, labels)
		if err := reg.Register(cv); err != nil {
			return nil, err
		}
		s.counters[event] = cv
	}
	for _, event := range api.GaugeMetrics {
		subsystem, name := splitEvent(event)
		gv := prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      "Current " + strings.ReplaceAll(name, "_", " ") + " of the " + subsystem,
		}, labels)
		if err := reg.Register(gv); err != nil {
			return nil, err
		}
		s.gauges[event] = gv
	}
	return s, nil
}

func splitEvent(event string) (subsystem, name string) {
	subsystem, name, ok := strings.Cut(event, ".")
	if !ok {
		return "", event
	}
	return subsystem, name
}

// Record implements api.MetricsSink. Unknown events are ignored.
func (s *PrometheusSink) Record(event string, value float64, tags ...api.Tag) {
	values := s.labelValues(tags)
	if cv, ok := s.counters[event]; ok {
		if value > 0 {
			cv.WithLabelValues(values...).Add(value)
		}
		return
	}
	if gv, ok := s.gauges[event]; ok {
		gv.WithLabelValues(values...).Set(value)
	}
}

func (s *PrometheusSink) labelValues(tags []api.Tag) []string {
	values := make([]string, len(s.labels))
	for i, name := range s.labels {
		for _, t := range tags {
			if t.Key == name {
				values[i] = t.Value
				break
			}
		}
	}
	return values
}

var _ api.MetricsSink = (*PrometheusSink)(nil)
