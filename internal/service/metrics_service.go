package service

import (
	"context"
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/smart-student-api/internal/models"
	"github.com/noah-isme/smart-student-api/pkg/events"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry             *prometheus.Registry
	handler              http.Handler
	requestDuration      *prometheus.HistogramVec
	requestTotal         *prometheus.CounterVec
	storeDuration        *prometheus.HistogramVec
	notificationsCreated *prometheus.CounterVec
	repairMutations      *prometheus.CounterVec
	generations          *prometheus.CounterVec
	eventsTotal          *prometheus.CounterVec

	requestCount         uint64
	requestDurationTotal uint64
	storeOpCount         uint64
	storeFailureCount    uint64
	eventCount           uint64
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

	storeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "blob_store_operation_seconds",
		Help:    "Latency of blob store operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend", "op", "outcome"})

	notificationsCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_created_total",
		Help: "Notifications created by type",
	}, []string{"type"})

	repairMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "repair_mutations_total",
		Help: "Entities rewritten by repair runs",
	}, []string{"collection"})

	generations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ai_generations_total",
		Help: "AI generation jobs by kind and outcome",
	}, []string{"kind", "outcome"})

	eventsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "events_published_total",
		Help: "Domain events published on the in-process bus",
	}, []string{"event"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, storeDuration, notificationsCreated, repairMutations, generations, eventsTotal, goroutines)

	return &MetricsService{
		registry:             registry,
		handler:              promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:      requestDuration,
		requestTotal:         requestTotal,
		storeDuration:        storeDuration,
		notificationsCreated: notificationsCreated,
		repairMutations:      repairMutations,
		generations:          generations,
		eventsTotal:          eventsTotal,
	}
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

// Register counts every event published on bus.
func (m *MetricsService) Register(bus *events.Bus) {
	if m == nil || bus == nil {
		return
	}
	bus.SubscribeAll(func(_ context.Context, evt events.Event) error {
		m.eventsTotal.WithLabelValues(string(evt.Name)).Inc()
		atomic.AddUint64(&m.eventCount, 1)
		return nil
	})
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveStoreOperation records blob store latency.
func (m *MetricsService) ObserveStoreOperation(backend, op string, failed bool, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if failed {
		outcome = "error"
		atomic.AddUint64(&m.storeFailureCount, 1)
	}
	m.storeDuration.WithLabelValues(backend, op, outcome).Observe(duration.Seconds())
	atomic.AddUint64(&m.storeOpCount, 1)
}

// NotificationCreated counts a stored notification.
func (m *MetricsService) NotificationCreated(t models.NotificationType) {
	if m == nil {
		return
	}
	m.notificationsCreated.WithLabelValues(string(t)).Inc()
}

// RepairApplied counts entities rewritten by a repair run.
func (m *MetricsService) RepairApplied(collection string, mutated int) {
	if m == nil || mutated <= 0 {
		return
	}
	m.repairMutations.WithLabelValues(collection).Add(float64(mutated))
}

// GenerationFinished counts a finished AI job.
func (m *MetricsService) GenerationFinished(kind string, status models.GenerationStatus) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(kind, string(status)).Inc()
}

// Snapshot returns aggregated counters suitable for the admin API.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		StoreOperations:          atomic.LoadUint64(&m.storeOpCount),
		StoreFailures:            atomic.LoadUint64(&m.storeFailureCount),
		EventsPublished:          atomic.LoadUint64(&m.eventCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
