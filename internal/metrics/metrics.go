// Package metrics collects and exposes Prometheus metrics for the
// booking workflow and the live feed.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the recording interface used by services and the feed
// watcher. Tests use Nop.
type Recorder interface {
	RecordPublish()
	RecordReservation()
	RecordReservationConflict()
	RecordCancellation()
	RecordPurgedSlots(count int64)
	SetFeedSubscribers(n int)
}

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	publishes       prometheus.Counter
	reservations    prometheus.Counter
	conflicts       prometheus.Counter
	cancellations   prometheus.Counter
	purgedSlots     prometheus.Counter
	feedSubscribers prometheus.Gauge
}

// NewCollector creates a Collector and registers its metrics.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		publishes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "asesoria_publishes_total",
			Help: "Total availability slots published.",
		}),
		reservations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "asesoria_reservations_total",
			Help: "Total successful reservations.",
		}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "asesoria_reservation_conflicts_total",
			Help: "Reserve attempts that lost the open-slot guard.",
		}),
		cancellations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "asesoria_cancellations_total",
			Help: "Total reservations cancelled.",
		}),
		purgedSlots: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "asesoria_purged_slots_total",
			Help: "Expired availability slots deleted by purge sweeps.",
		}),
		feedSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "asesoria_feed_subscribers",
			Help: "Currently connected live feed subscribers.",
		}),
	}

	reg.MustRegister(
		c.publishes,
		c.reservations,
		c.conflicts,
		c.cancellations,
		c.purgedSlots,
		c.feedSubscribers,
	)

	return c
}

func (c *Collector) RecordPublish()             { c.publishes.Inc() }
func (c *Collector) RecordReservation()         { c.reservations.Inc() }
func (c *Collector) RecordReservationConflict() { c.conflicts.Inc() }
func (c *Collector) RecordCancellation()        { c.cancellations.Inc() }
func (c *Collector) RecordPurgedSlots(count int64) {
	c.purgedSlots.Add(float64(count))
}

func (c *Collector) SetFeedSubscribers(n int) {
	c.feedSubscribers.Set(float64(n))
}

// Handler returns the HTTP handler serving the given registry.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Nop discards every recording. Used in tests.
type Nop struct{}

func (Nop) RecordPublish()             {}
func (Nop) RecordReservation()         {}
func (Nop) RecordReservationConflict() {}
func (Nop) RecordCancellation()        {}
func (Nop) RecordPurgedSlots(int64)    {}
func (Nop) SetFeedSubscribers(int)     {}
