// File: cmd/hioload-echo/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Echo server over the socket transport with Prometheus pool metrics.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/containerd/log"
	"github.com/hashicorp/go-metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/momentics/hioload-transport/api"
	"github.com/momentics/hioload-transport/control"
	"github.com/momentics/hioload-transport/pool"
	"github.com/momentics/hioload-transport/transport/socket"
)

type flags struct {
	addr        string
	metricsAddr string
	logLevel    string
	queues      int
	maxRead     int64
	maxWrite    int64
	finOnError  bool
	waitForData bool
	evictEvery  time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:          "hioload-echo",
		Short:        "TCP echo server on the hioload socket transport",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, f)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&f.addr, "addr", ":9001", "listen address")
	fs.StringVar(&f.metricsAddr, "metrics-addr", ":9090", "metrics and debug listen address, empty disables")
	fs.StringVar(&f.logLevel, "log-level", "info", "log level")
	fs.IntVar(&f.queues, "io-queues", 0, "number of IO queues, 0 selects the CPU count")
	fs.Int64Var(&f.maxRead, "max-read-buffer", socket.DefaultMaxReadBufferSize, "inbound pause threshold in bytes")
	fs.Int64Var(&f.maxWrite, "max-write-buffer", socket.DefaultMaxWriteBufferSize, "outbound pause threshold in bytes")
	fs.BoolVar(&f.finOnError, "fin-on-error", false, "send FIN instead of RST on error teardown")
	fs.BoolVar(&f.waitForData, "wait-for-data", true, "probe for data before renting receive buffers")
	fs.DurationVar(&f.evictEvery, "evict-interval", pool.DefaultEvictionInterval, "pool eviction sweep period")
	return cmd
}

func run(ctx context.Context, f *flags) error {
	if err := log.SetLevel(f.logLevel); err != nil {
		return err
	}
	logger := log.G(ctx)

	reg := prometheus.NewRegistry()
	promSink, err := control.NewPrometheusSink(reg, "hioload", "pool")
	if err != nil {
		return err
	}
	inm := metrics.NewInmemSink(10*time.Second, time.Minute)
	cfg := metrics.DefaultConfig("hioload")
	cfg.EnableHostname = false
	cfg.EnableRuntimeMetrics = false
	gm, err := metrics.New(cfg, inm)
	if err != nil {
		return err
	}
	sink := control.MultiSink{promSink, control.NewGoMetricsSink(gm)}
	factory := pool.NewFactory(
		pool.WithEvictionInterval(f.evictEvery),
		pool.WithFactoryMetrics(sink),
		pool.WithFactoryLogger(logger),
	)
	defer factory.Close()
	mem, err := factory.Create(pool.WithMetrics(sink, api.Tag{Key: "pool", Value: "listener"}))
	if err != nil {
		return err
	}

	ln, err := socket.Listen(ctx, "tcp", f.addr,
		socket.WithPool(mem),
		socket.WithLogger(logger),
		socket.WithIOQueueCount(f.queues),
		socket.WithMaxReadBufferSize(f.maxRead),
		socket.WithMaxWriteBufferSize(f.maxWrite),
		socket.WithFinOnError(f.finOnError),
		socket.WithWaitForData(f.waitForData),
	)
	if err != nil {
		return err
	}
	defer ln.Close()

	probes := control.NewDebugProbes()
	control.RegisterPlatformProbes(probes)
	probes.RegisterPool("pool.listener", mem)
	logger.WithField("addr", ln.Addr().String()).Info("echo server listening")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ln.Serve(ctx, echo) })
	if f.metricsAddr != "" {
		srv := &http.Server{
			Addr:              f.metricsAddr,
			Handler:           debugMux(reg, inm, probes),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	return g.Wait()
}

// debugMux serves Prometheus metrics, the go-metrics interval view and the
// debug probe dump.
func debugMux(reg *prometheus.Registry, inm *metrics.InmemSink, probes *control.DebugProbes) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/debug/state", probes)
	mux.HandleFunc("/debug/metrics", func(w http.ResponseWriter, r *http.Request) {
		summary, err := inm.DisplayMetrics(w, r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(summary)
	})
	return mux
}

// echo copies every received byte back until the peer finishes.
func echo(ctx context.Context, c *socket.Connection) {
	in, out := c.Transport().Input(), c.Transport().Output()
	entry := log.G(ctx).WithField("connection", c.ConnectionID())
	for {
		res, err := in.Read(ctx)
		if err != nil {
			if !errors.Is(err, api.ErrConnectionReset) && !errors.Is(err, api.ErrConnectionAborted) {
				entry.WithError(err).Warn("read")
			}
			return
		}
		for _, seg := range res.Buffer.Segments() {
			if _, err := out.Write(seg); err != nil {
				return
			}
		}
		if err := in.AdvanceTo(res.Buffer.Len(), res.Buffer.Len()); err != nil {
			return
		}
		if fr, err := out.Flush(ctx); err != nil || fr.Completed {
			return
		}
		if res.Completed || res.Canceled {
			out.Complete(nil)
			return
		}
	}
}
