package sinks

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JakeFAU/patrol-crawler/internal/progress"
)

// PrometheusSink exports scheduler progress as Prometheus metrics. It owns
// the cycle and session collectors.
type PrometheusSink struct {
	cyclesTotal     *prometheus.CounterVec
	sessionsTotal   *prometheus.CounterVec
	fetchErrors     *prometheus.CounterVec
	fetchDuration   *prometheus.HistogramVec
	fetchesInFlight prometheus.Gauge
}

// NewPrometheusSink registers the collectors against the provided registry.
// A nil registry uses the default one.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		cyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "patrol_cycles_total",
			Help: "Scheduling cycles partitioned by outcome (skip, dispatch, error).",
		}, []string{"outcome"}),
		sessionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "patrol_sessions_completed_total",
			Help: "Completed sessions partitioned by site and status class.",
		}, []string{"site", "status_class"}),
		fetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "patrol_fetch_errors_total",
			Help: "Transport-level fetch failures partitioned by site.",
		}, []string{"site"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "patrol_fetch_duration_seconds",
			Help:    "Fetch duration partitioned by site and status class.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}, []string{"site", "status_class"}),
		fetchesInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "patrol_fetches_in_flight",
			Help: "Fetches dispatched but not yet completed.",
		}),
	}
	for _, collector := range []prometheus.Collector{
		s.cyclesTotal,
		s.sessionsTotal,
		s.fetchErrors,
		s.fetchDuration,
		s.fetchesInFlight,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the collectors from the batch.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.consumeEvent(evt)
	}
	return nil
}

func (s *PrometheusSink) consumeEvent(evt progress.Event) {
	switch evt.Stage {
	case progress.StageCycleSkip:
		s.cyclesTotal.WithLabelValues("skip").Inc()
	case progress.StageCycleDispatch:
		s.cyclesTotal.WithLabelValues("dispatch").Inc()
		s.fetchesInFlight.Inc()
	case progress.StageCycleError:
		s.cyclesTotal.WithLabelValues("error").Inc()
	case progress.StageFetchError:
		site := evt.Site
		if site == "" {
			site = "unknown"
		}
		s.fetchErrors.WithLabelValues(site).Inc()
		s.fetchesInFlight.Dec()
	case progress.StageSessionDone:
		site := evt.Site
		if site == "" {
			site = "unknown"
		}
		statusClass := string(evt.StatusClass)
		if statusClass == "" {
			statusClass = string(progress.StatusOther)
		}
		s.sessionsTotal.WithLabelValues(site, statusClass).Inc()
		if evt.Dur > 0 {
			s.fetchDuration.WithLabelValues(site, statusClass).Observe(evt.Dur.Seconds())
		}
		s.fetchesInFlight.Dec()
	}
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}
