// Package metrics provides Prometheus metrics for fileflow mutations and
// listings.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder holds the collectors registered for one process. A nil
// *Recorder records nothing.
type Recorder struct {
	intentsTotal       *prometheus.CounterVec
	settlementsTotal   *prometheus.CounterVec
	settlementDuration *prometheus.HistogramVec
	pendingMutations   prometheus.Gauge
	listingsTotal      *prometheus.CounterVec
	listingDuration    prometheus.Histogram
}

// New registers the fileflow collectors with reg.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		intentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fileflow_intents_total",
				Help: "Total mutation intents by operation and validation result",
			},
			[]string{"op", "result"},
		),
		settlementsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fileflow_settlements_total",
				Help: "Total settled storage requests by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
		settlementDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fileflow_settlement_duration_seconds",
				Help:    "Time from issuing a mutation to its settlement",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		pendingMutations: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "fileflow_pending_mutations",
				Help: "Number of mutations waiting for the storage service",
			},
		),
		listingsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fileflow_listings_total",
				Help: "Total directory listings by status",
			},
			[]string{"status"},
		),
		listingDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fileflow_listing_duration_seconds",
				Help:    "Directory listing duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// Handler returns the metrics HTTP handler for the given gatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// ObserveIntent records an intent that was accepted or rejected.
func (r *Recorder) ObserveIntent(op, result string) {
	if r == nil {
		return
	}
	r.intentsTotal.WithLabelValues(op, result).Inc()
}

// ObserveSettlement records one settled request.
func (r *Recorder) ObserveSettlement(op, outcome string, duration time.Duration) {
	if r == nil {
		return
	}
	r.settlementsTotal.WithLabelValues(op, outcome).Inc()
	r.settlementDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// SetPending sets the number of in-flight mutations.
func (r *Recorder) SetPending(n int) {
	if r == nil {
		return
	}
	r.pendingMutations.Set(float64(n))
}

// RecordListing records a directory listing.
func (r *Recorder) RecordListing(duration time.Duration, success bool) {
	if r == nil {
		return
	}
	status := "success"
	if !success {
		status = "error"
	}
	r.listingsTotal.WithLabelValues(status).Inc()
	r.listingDuration.Observe(duration.Seconds())
}
