// Package control
// Author: momentics <momentics@gmail.com>
//
// Metrics sinks and debug introspection for hioload-transport.
//
// Provides:
//   - an in-memory registry sink with snapshots
//   - Prometheus and go-metrics adapters for api.MetricsSink
//   - probe registration for pools, queues and connections
package control
