package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API and
// the scheduling engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	solveDuration   *prometheus.HistogramVec
	solveTotal      *prometheus.CounterVec
	sessionsPlaced  prometheus.Counter
	demandsDropped  prometheus.Counter
	conflictsFound  prometheus.Counter
	conflictScans   prometheus.Counter
	examsScheduled  prometheus.Counter
	exportsTotal    *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	solveDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timetable_solve_duration_seconds",
		Help:    "Wall time of timetable solve passes",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
	}, []string{"status"})

	solveTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_solves_total",
		Help: "Total solve passes by outcome status",
	}, []string{"status"})

	sessionsPlaced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_sessions_placed_total",
		Help: "Sessions placed across all solve passes",
	})

	demandsDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_demands_unresolved_total",
		Help: "Session demands left unresolved across all solve passes",
	})

	conflictsFound := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_conflicts_found_total",
		Help: "Conflicts reported by detection scans",
	})

	conflictScans := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_conflict_scans_total",
		Help: "Conflict detection scans run",
	})

	examsScheduled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "exams_scheduled_total",
		Help: "Exams placed on the exam grid",
	})

	exportsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "exports_total",
		Help: "Export jobs by kind and outcome",
	}, []string{"kind", "outcome"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	registry.MustRegister(
		requestDuration, requestTotal,
		solveDuration, solveTotal, sessionsPlaced, demandsDropped,
		conflictsFound, conflictScans, examsScheduled, exportsTotal,
		cacheHits, cacheMisses,
	)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		solveDuration:   solveDuration,
		solveTotal:      solveTotal,
		sessionsPlaced:  sessionsPlaced,
		demandsDropped:  demandsDropped,
		conflictsFound:  conflictsFound,
		conflictScans:   conflictScans,
		examsScheduled:  examsScheduled,
		exportsTotal:    exportsTotal,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}
}

// Handler exposes the scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one request's latency and count.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	s.requestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(method, path, code).Inc()
}

// ObserveSolve records one solve pass outcome.
func (s *MetricsService) ObserveSolve(status string, duration time.Duration, placed, unresolved int) {
	s.solveDuration.WithLabelValues(status).Observe(duration.Seconds())
	s.solveTotal.WithLabelValues(status).Inc()
	s.sessionsPlaced.Add(float64(placed))
	s.demandsDropped.Add(float64(unresolved))
}

// ObserveConflictScan records one detection pass.
func (s *MetricsService) ObserveConflictScan(found int) {
	s.conflictScans.Inc()
	s.conflictsFound.Add(float64(found))
}

// ObserveExamsScheduled records placed exams.
func (s *MetricsService) ObserveExamsScheduled(count int) {
	s.examsScheduled.Add(float64(count))
}

// ObserveExport records one export job outcome.
func (s *MetricsService) ObserveExport(kind, outcome string) {
	s.exportsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordCacheLookup tallies a cache hit or miss.
func (s *MetricsService) RecordCacheLookup(hit bool) {
	if hit {
		s.cacheHits.Inc()
		return
	}
	s.cacheMisses.Inc()
}
