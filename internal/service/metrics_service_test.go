package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/smart-student-api/internal/models"
	"github.com/noah-isme/smart-student-api/pkg/events"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetricsService()
	bus := events.NewBus(nil)
	m.Register(bus)

	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/tasks", http.StatusOK, 20*time.Millisecond)
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/tasks", http.StatusOK, 40*time.Millisecond)
	m.ObserveStoreOperation("memory", "get", false, time.Millisecond)
	m.ObserveStoreOperation("redis", "put", true, time.Millisecond)
	bus.Publish(context.Background(), events.TaskCreated, nil)

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.RequestsTotal)
	assert.InDelta(t, 30.0, snap.AverageRequestDurationMs, 0.001)
	assert.Equal(t, uint64(2), snap.StoreOperations)
	assert.Equal(t, uint64(1), snap.StoreFailures)
	assert.Equal(t, uint64(1), snap.EventsPublished)
	assert.Positive(t, snap.Goroutines)
}

func TestMetricsHandlerExposesCollectors(t *testing.T) {
	m := NewMetricsService()
	m.NotificationCreated(models.NotificationNewTask)
	m.RepairApplied("comments", 3)
	m.GenerationFinished("quiz", models.GenerationFailed)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `notifications_created_total{type="new_task"} 1`)
	assert.Contains(t, body, `repair_mutations_total{collection="comments"} 3`)
	assert.Contains(t, body, `ai_generations_total{kind="quiz",outcome="failed"} 1`)
}

func TestMetricsNilSafe(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.ObserveHTTPRequest(http.MethodGet, "/", 200, time.Millisecond)
		m.NotificationCreated(models.NotificationNewTask)
		m.RepairApplied("users", 1)
		_ = m.Snapshot()
	})
}
