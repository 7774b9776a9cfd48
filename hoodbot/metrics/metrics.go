// Package metrics exposes engine counters over a Prometheus endpoint.
package metrics

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hoodline/hoodbot/hoodbot/game/robbery"
)

type Monitor struct {
	robAttempts    *prometheus.CounterVec
	wealthStolen   prometheus.Counter
	commitDuration prometheus.Histogram
	premiumSweeps  prometheus.Counter
}

func NewMonitor(namespace string) *Monitor {
	m := &Monitor{
		robAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rob_attempts_total",
			Help:      "Robbery attempts by result",
		}, []string{"result"}),
		wealthStolen: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wealth_stolen_total",
			Help:      "Total wealth moved by successful robberies",
		}),
		commitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rob_commit_duration_seconds",
			Help:      "Robbery commit transaction latency",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		premiumSweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "premium_sweeps_total",
			Help:      "Completed insurance premium sweeps",
		}),
	}

	prometheus.MustRegister(
		m.robAttempts,
		m.wealthStolen,
		m.commitDuration,
		m.premiumSweeps,
	)

	return m
}

var _ robbery.Recorder = (*Monitor)(nil)

func (m *Monitor) ObserveAttempt(result string) {
	m.robAttempts.WithLabelValues(result).Inc()
}

func (m *Monitor) ObserveWealthStolen(amount int64) {
	m.wealthStolen.Add(float64(amount))
}

func (m *Monitor) ObserveCommitDuration(d time.Duration) {
	m.commitDuration.Observe(d.Seconds())
}

func (m *Monitor) IncPremiumSweeps() {
	m.premiumSweeps.Inc()
}

// StartServer serves /metrics on addr in the background. Binding happens
// before it returns so a bad address fails loudly at startup.
func (m *Monitor) StartServer(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.Serve(ln, mux); err != nil {
			slog.Error("Metrics server stopped",
				slog.String("type", "sys"),
				slog.Any("error", err))
		}
	}()
	return nil
}
