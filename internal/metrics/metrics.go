// Package metrics exposes prometheus counters for pipeline runs and the reference store.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mhdb"

// Institution outcomes.
const (
	OutcomeValid    = "valid"
	OutcomeRejected = "rejected"
	OutcomeSkipped  = "skipped"
)

// Recorder owns a registry and the collectors registered on it.
type Recorder struct {
	registry      *prometheus.Registry
	pages         *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	candidates    *prometheus.CounterVec
	resources     prometheus.Counter
	institutions  *prometheus.CounterVec
	storeRequests *prometheus.CounterVec
}

// NewRecorder creates a recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		pages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_fetched_total",
			Help:      "Page fetches by result.",
		}, []string{"result"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "page_fetch_duration_seconds",
			Help:      "Time spent fetching a page, retries included.",
			Buckets:   prometheus.DefBuckets,
		}),
		candidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_total",
			Help:      "Candidate resources by extraction strategy.",
		}, []string{"strategy"}),
		resources: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resources_kept_total",
			Help:      "Resources kept after deduplication.",
		}),
		institutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "institutions_total",
			Help:      "Institutions by validation outcome.",
		}, []string{"outcome"}),
		storeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_requests_total",
			Help:      "Store API requests by operation and status code.",
		}, []string{"op", "code"}),
	}

	r.registry.MustRegister(r.pages, r.fetchDuration, r.candidates, r.resources, r.institutions, r.storeRequests)

	return r
}

// Registry returns the recorder's registry, for exposition.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// PageFetched records one page fetch.
func (r *Recorder) PageFetched(ok bool, d time.Duration) {
	result := "ok"
	if !ok {
		result = "failed"
	}

	r.pages.WithLabelValues(result).Inc()
	r.fetchDuration.Observe(d.Seconds())
}

// CandidateBuilt records a candidate from the given strategy.
func (r *Recorder) CandidateBuilt(strategy string) {
	r.candidates.WithLabelValues(strategy).Inc()
}

// ResourcesKept adds n deduplicated resources.
func (r *Recorder) ResourcesKept(n int) {
	r.resources.Add(float64(n))
}

// InstitutionOutcome records a validation outcome.
func (r *Recorder) InstitutionOutcome(outcome string) {
	r.institutions.WithLabelValues(outcome).Inc()
}

// StoreRequest records a store API call.
func (r *Recorder) StoreRequest(op string, code int) {
	r.storeRequests.WithLabelValues(op, strconv.Itoa(code)).Inc()
}

// WriteTextfile writes the registry in text exposition format, for node_exporter's textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}

	return nil
}
