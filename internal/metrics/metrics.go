// Package metrics exposes job outcomes as Prometheus metrics.
//
// snapkeep runs as a one-shot command or a daemon without an HTTP listener,
// so metrics are published through the node_exporter textfile collector:
// after each job the registry is written atomically to a .prom file.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/event"
)

const namespace = "snapkeep"

// Collector holds the snapkeep metric families in its own registry.
type Collector struct {
	registry *prometheus.Registry

	entries     *prometheus.CounterVec
	lastRun     *prometheus.GaugeVec
	lastSuccess *prometheus.GaugeVec
	duration    *prometheus.GaugeVec
	status      *prometheus.GaugeVec
}

// NewCollector creates a Collector. If registry is nil a fresh one is used.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,
		entries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_total",
			Help:      "Filesystem entries processed, by operation and outcome.",
		}, []string{"op", "outcome"}),
		lastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "job_last_run_timestamp_seconds",
			Help:      "Unix time the job last finished.",
		}, []string{"job"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "job_last_success_timestamp_seconds",
			Help:      "Unix time the job last finished without errors.",
		}, []string{"job"}),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Duration of the job's last run.",
		}, []string{"job"}),
		status: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "job_status",
			Help:      "Status of the job's last run: 0 success, 1 completed with errors, 2 failed.",
		}, []string{"job"}),
	}

	registry.MustRegister(c.entries, c.lastRun, c.lastSuccess, c.duration, c.status)
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Sink returns an event sink counting every event by op and outcome.
func (c *Collector) Sink() event.Sink {
	return event.SinkFunc(func(ev event.Event) {
		c.entries.WithLabelValues(string(ev.Op), string(ev.Outcome)).Inc()
	})
}

// ObserveJob records the result of one job run.
func (c *Collector) ObserveJob(job string, status event.Status, started, finished time.Time) {
	c.lastRun.WithLabelValues(job).Set(float64(finished.Unix()))
	c.duration.WithLabelValues(job).Set(finished.Sub(started).Seconds())
	c.status.WithLabelValues(job).Set(float64(status))
	if status == event.StatusSuccess {
		c.lastSuccess.WithLabelValues(job).Set(float64(finished.Unix()))
	}
}

// WriteTextfile writes the registry in text exposition format to path,
// replacing the file atomically.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return errors.NewIOError("write", path, err)
	}
	return nil
}
