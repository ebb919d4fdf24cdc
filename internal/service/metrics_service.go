package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appErrors "github.com/noah-isme/sis-registration-api/pkg/errors"
)

// Scheduling outcomes reported to Prometheus.
const (
	OutcomeScheduled = "scheduled"
	OutcomePartial   = "partial"
	OutcomeRejected  = "rejected"
	OutcomeError     = "error"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	schedulingTotal  *prometheus.CounterVec
	schedulingTime   *prometheus.HistogramVec
	entriesCommitted *prometheus.CounterVec
	seatRaces        prometheus.Counter
	rateLimited      prometheus.Counter
	periodsEnded     prometheus.Counter
}

// NewMetricsService registers HTTP and scheduling collectors on a private registry.
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

	schedulingTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduling_requests_total",
		Help: "Scheduling operations by operation, outcome and error code",
	}, []string{"operation", "outcome", "code"})

	schedulingTime := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scheduling_duration_seconds",
		Help:    "End-to-end duration of scheduling operations",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"operation"})

	entriesCommitted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_entries_committed_total",
		Help: "Schedule entries written, by session kind",
	}, []string{"session_kind"})

	seatRaces := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "schedule_seat_races_total",
		Help: "Planned slots that were full by commit time",
	})

	rateLimited := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "http_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})

	periodsEnded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "registration_periods_ended_total",
		Help: "Registration periods closed by the status sync job",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, schedulingTotal, schedulingTime, entriesCommitted, seatRaces, rateLimited, periodsEnded, goroutines)

	return &MetricsService{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		schedulingTotal:  schedulingTotal,
		schedulingTime:   schedulingTime,
		entriesCommitted: entriesCommitted,
		seatRaces:        seatRaces,
		rateLimited:      rateLimited,
		periodsEnded:     periodsEnded,
	}
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveScheduling records one scheduling operation; err picks the outcome and code labels.
func (m *MetricsService) ObserveScheduling(operation string, partial bool, err error, duration time.Duration) {
	if m == nil {
		return
	}
	outcome, code := OutcomeScheduled, ""
	switch {
	case err != nil:
		appErr := appErrors.FromError(err)
		code = appErr.Code
		outcome = OutcomeRejected
		if appErr.Status >= http.StatusInternalServerError {
			outcome = OutcomeError
		}
	case partial:
		outcome = OutcomePartial
	}
	m.schedulingTotal.WithLabelValues(operation, outcome, code).Inc()
	m.schedulingTime.WithLabelValues(operation).Observe(duration.Seconds())
}

// AddCommittedEntries counts written entries for a session kind.
func (m *MetricsService) AddCommittedEntries(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.entriesCommitted.WithLabelValues(kind).Add(float64(n))
}

// AddSeatRaces counts planned slots lost to concurrent enrollments.
func (m *MetricsService) AddSeatRaces(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.seatRaces.Add(float64(n))
}

// IncRateLimited counts a throttled request.
func (m *MetricsService) IncRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

// AddPeriodsEnded counts registration periods closed by the sync job.
func (m *MetricsService) AddPeriodsEnded(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.periodsEnded.Add(float64(n))
}
