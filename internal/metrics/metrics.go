package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are no-ops until Register is
// called, so the CLI pays nothing when metrics are disabled.
var (
	regOK atomic.Bool

	packageStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zypin",
			Subsystem: "supervisor",
			Name:      "package_starts_total",
			Help:      "Number of successful provider package starts.",
		}, []string{"name"},
	)
	packageStartFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zypin",
			Subsystem: "supervisor",
			Name:      "package_start_failures_total",
			Help:      "Number of refused or failed start attempts.",
		}, []string{"name"},
	)
	staleRecordsPurged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "zypin",
			Subsystem: "supervisor",
			Name:      "stale_records_purged_total",
			Help:      "Number of state records removed because their pid was gone.",
		},
	)
	runningPackages = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "zypin",
			Subsystem: "supervisor",
			Name:      "running_packages",
			Help:      "Number of packages currently tracked by the supervisor.",
		},
	)
)

// Register registers collectors with the given registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		packageStarts, packageStartFailures, staleRecordsPurged, runningPackages,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// RegisterDefault registers collectors with the default registry.
func RegisterDefault() error { return Register(prometheus.DefaultRegisterer) }

// Serve exposes /metrics on addr; it blocks like http.ListenAndServe.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server.ListenAndServe()
}

func IncPackageStart(name string) {
	if regOK.Load() {
		packageStarts.WithLabelValues(name).Inc()
	}
}

func IncPackageStartFailure(name string) {
	if regOK.Load() {
		packageStartFailures.WithLabelValues(name).Inc()
	}
}

func IncStalePurged() {
	if regOK.Load() {
		staleRecordsPurged.Inc()
	}
}

func SetRunningPackages(n int) {
	if regOK.Load() {
		runningPackages.Set(float64(n))
	}
}
