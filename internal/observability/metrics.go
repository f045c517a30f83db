// Package observability holds the Prometheus collectors shared by the
// server and the import tools.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nextrep",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route pattern, method and status code.",
	}, []string{"route", "method", "status"})
	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nextrep",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
	workoutsSaved = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nextrep",
		Subsystem: "workouts",
		Name:      "saved_total",
		Help:      "Workout save attempts by outcome (ok, invalid, error).",
	}, []string{"outcome"})
	lastWorkoutSaved = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "nextrep",
		Subsystem: "workouts",
		Name:      "last_saved_timestamp_seconds",
		Help:      "Unix timestamp of the most recent workout persisted to Postgres.",
	})
	importedRecords = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nextrep",
		Subsystem: "import",
		Name:      "records_total",
		Help:      "Records written by importers, by source.",
	}, []string{"source"})
	cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nextrep",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Exercise cache lookups by result (hit, miss).",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(httpRequests, httpDuration, workoutsSaved, lastWorkoutSaved, importedRecords, cacheLookups)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRequest records one served request.
func ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// Save outcomes.
const (
	SaveOK      = "ok"
	SaveInvalid = "invalid"
	SaveError   = "error"
)

// RecordWorkoutSave counts a save attempt. Successful saves also move the
// last-saved watermark.
func RecordWorkoutSave(outcome string, at time.Time) {
	workoutsSaved.WithLabelValues(outcome).Inc()
	if outcome == SaveOK && !at.IsZero() {
		lastWorkoutSaved.Set(float64(at.Unix()))
	}
}

// RecordImported adds n records written by the importer for source.
func RecordImported(source string, n int) {
	if n <= 0 {
		return
	}
	importedRecords.WithLabelValues(source).Add(float64(n))
}

// RecordCacheLookup counts an exercise cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	cacheLookups.WithLabelValues("miss").Inc()
}
