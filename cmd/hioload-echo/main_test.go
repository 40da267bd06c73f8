package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hashicorp/go-metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-transport/api"
	"github.com/momentics/hioload-transport/control"
	"github.com/momentics/hioload-transport/pool"
)

func TestDebugMux(t *testing.T) {
	reg := prometheus.NewRegistry()
	promSink, err := control.NewPrometheusSink(reg, "hioload", "pool")
	require.NoError(t, err)
	inm := metrics.NewInmemSink(time.Minute, time.Minute)
	cfg := metrics.DefaultConfig("hioload")
	cfg.EnableHostname = false
	cfg.EnableRuntimeMetrics = false
	gm, err := metrics.New(cfg, inm)
	require.NoError(t, err)

	mem := pool.NewPinnedBlockPool(pool.WithMetrics(
		control.MultiSink{promSink, control.NewGoMetricsSink(gm)},
		api.Tag{Key: "pool", Value: "listener"},
	))
	b, err := mem.Rent(1)
	require.NoError(t, err)
	require.NoError(t, b.Release())

	probes := control.NewDebugProbes()
	control.RegisterPlatformProbes(probes)
	probes.RegisterPool("pool.listener", mem)

	srv := httptest.NewServer(debugMux(reg, inm, probes))
	defer srv.Close()

	get := func(path string) string {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return string(body)
	}

	assert.Contains(t, get("/metrics"), `hioload_pool_allocated_total{pool="listener"} 1`)
	assert.Contains(t, get("/debug/metrics"), "hioload.pool.allocated")
	state := get("/debug/state")
	assert.Contains(t, state, `"pool.listener"`)
	assert.Contains(t, state, `"platform.cpus"`)
}
