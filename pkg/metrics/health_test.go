package metrics

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthAllHealthy(t *testing.T) {
	h := NewHealthChecker("1.0.0", "storage")
	h.Set("storage", true, "")
	h.Set("api", true, "")

	health := h.Health()

	assert.Equal(t, "healthy", health.Status)
	assert.Len(t, health.Components, 2)
	assert.Equal(t, "1.0.0", health.Version)
	assert.Equal(t, http.StatusOK, HealthCode(health))
}

func TestHealthOneUnhealthy(t *testing.T) {
	h := NewHealthChecker("dev")
	h.Set("storage", false, "bolt file locked")
	h.Set("api", true, "")

	health := h.Health()

	assert.Equal(t, "unhealthy", health.Status)
	assert.Equal(t, "unhealthy: bolt file locked", health.Components["storage"])
	assert.Equal(t, http.StatusServiceUnavailable, HealthCode(health))
}

func TestReadinessWaitsForCriticalComponents(t *testing.T) {
	h := NewHealthChecker("dev", "api", "storage")

	ready := h.Readiness()
	assert.Equal(t, "not_ready", ready.Status)
	assert.Equal(t, "not registered", ready.Components["storage"])

	h.Set("storage", true, "")
	h.Set("api", false, "listener not bound")
	ready = h.Readiness()
	assert.Equal(t, "not_ready", ready.Status)
	assert.Equal(t, "waiting for api", ready.Message)

	h.Set("api", true, "")
	ready = h.Readiness()
	assert.Equal(t, "ready", ready.Status)
	assert.Empty(t, ready.Message)
	assert.Equal(t, http.StatusOK, HealthCode(ready))
}

func TestReadinessIgnoresNonCriticalComponents(t *testing.T) {
	h := NewHealthChecker("dev", "storage")
	h.Set("storage", true, "")
	h.Set("tracing", false, "exporter unreachable")

	assert.Equal(t, "ready", h.Readiness().Status)
	assert.Equal(t, "unhealthy", h.Health().Status)
}
