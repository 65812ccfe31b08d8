package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const jobName = "hoyocodes"

// Run collects the gauges of one scraper run. The process exits after a
// single pass, so the values are pushed to a Pushgateway instead of scraped.
type Run struct {
	registry *prometheus.Registry

	CodesTotal     prometheus.Gauge
	CodesActive    prometheus.Gauge
	CodesNew       prometheus.Gauge
	EventsTotal    *prometheus.GaugeVec
	SoftErrors     prometheus.Gauge
	NotifyFailures prometheus.Gauge
	Duration       prometheus.Gauge
	LastSuccess    prometheus.Gauge
}

// NewRun creates a fresh set of gauges
func NewRun() *Run {
	r := &Run{
		registry: prometheus.NewRegistry(),
		CodesTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hoyocodes_codes_total",
			Help: "Codes parsed from the wiki in the last run",
		}),
		CodesActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hoyocodes_codes_active",
			Help: "Parsed codes that are not expired",
		}),
		CodesNew: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hoyocodes_codes_new",
			Help: "Codes not seen by any previous run",
		}),
		EventsTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hoyocodes_events_total",
			Help: "Events parsed from the wiki by status",
		}, []string{"status"}),
		SoftErrors: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hoyocodes_soft_errors",
			Help: "Rows skipped and other recoverable failures",
		}),
		NotifyFailures: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hoyocodes_notify_failures",
			Help: "Webhook messages that were not delivered",
		}),
		Duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hoyocodes_run_duration_seconds",
			Help: "Wall time of the last run",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hoyocodes_last_success_timestamp_seconds",
			Help: "Unix time of the last run without fatal errors",
		}),
	}
	r.registry.MustRegister(
		r.CodesTotal, r.CodesActive, r.CodesNew, r.EventsTotal,
		r.SoftErrors, r.NotifyFailures, r.Duration, r.LastSuccess,
	)
	return r
}

// Gatherer exposes the registry, mainly for tests
func (r *Run) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Finish records the run duration and, when ok, the success timestamp
func (r *Run) Finish(start time.Time, ok bool) {
	r.Duration.Set(time.Since(start).Seconds())
	if ok {
		r.LastSuccess.SetToCurrentTime()
	}
}

// Push sends the gauges to the Pushgateway at url, grouped by game
func (r *Run) Push(ctx context.Context, url, game string) error {
	err := push.New(url, jobName).
		Gatherer(r.registry).
		Grouping("game", game).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	return nil
}
