package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "productdesk"

// Recorder publishes backend traffic and mutation outcomes to a private
// prometheus registry.
type Recorder struct {
	registry  *prometheus.Registry
	requests  *prometheus.CounterVec
	durations *prometheus.HistogramVec
	inFlight  prometheus.Gauge
	mutations *prometheus.CounterVec
	latency   *prometheus.HistogramVec
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "HTTP requests sent to the products backend.",
		}, []string{"code", "method"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Round-trip time of products backend requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "backend_in_flight_requests",
			Help:      "Requests to the products backend awaiting a response.",
		}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Product operations by action and outcome.",
		}, []string{"action", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of product operations including decoding.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),
	}
	r.registry.MustRegister(
		r.requests, r.durations, r.inFlight, r.mutations, r.latency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// InstrumentTransport wraps next so every backend request is counted and timed.
func (r *Recorder) InstrumentTransport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return promhttp.InstrumentRoundTripperInFlight(r.inFlight,
		promhttp.InstrumentRoundTripperCounter(r.requests,
			promhttp.InstrumentRoundTripperDuration(r.durations, next)))
}

// Observe records a product operation outcome.
func (r *Recorder) Observe(_ context.Context, action string, success bool, d time.Duration) {
	if action == "" {
		return
	}
	outcome := "error"
	if success {
		outcome = "ok"
	}
	r.mutations.WithLabelValues(action, outcome).Inc()
	r.latency.WithLabelValues(action).Observe(d.Seconds())
}

// Handler serves the registry in the prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (r *Recorder) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		<-errc
		return nil
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
