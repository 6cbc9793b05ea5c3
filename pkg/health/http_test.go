package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPChecker_HealthyEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer server.Close()

	result := NewHTTPChecker(server.URL).Check(context.Background())

	assert.True(t, result.Healthy, result.Message)
	assert.Equal(t, "HTTP 200 (healthy)", result.Message)
	assert.Positive(t, result.Duration)
}

func TestHTTPChecker_UnhealthyEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"not_ready"}`))
	}))
	defer server.Close()

	result := NewHTTPChecker(server.URL).Check(context.Background())

	assert.False(t, result.Healthy)
	assert.Equal(t, "HTTP 503 (not_ready)", result.Message)
}

func TestHTTPChecker_ReportedFailureWithOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"unhealthy"}`))
	}))
	defer server.Close()

	result := NewHTTPChecker(server.URL).Check(context.Background())
	assert.False(t, result.Healthy)
}

func TestHTTPChecker_Redirect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}))
	defer server.Close()

	result := NewHTTPChecker(server.URL).Check(context.Background())
	assert.False(t, result.Healthy)
	assert.Equal(t, "HTTP 304", result.Message)
}

func TestHTTPChecker_Token(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer t0k" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	result := NewHTTPChecker(server.URL).WithToken("t0k").Check(context.Background())
	assert.True(t, result.Healthy, result.Message)
}

func TestHTTPChecker_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	result := NewHTTPChecker(server.URL).WithTimeout(50 * time.Millisecond).Check(context.Background())
	assert.False(t, result.Healthy)
}

func TestHTTPChecker_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := NewHTTPChecker(server.URL).Check(ctx)
	assert.False(t, result.Healthy)
}

func TestTCPChecker(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := strings.TrimPrefix(server.URL, "http://")

	result := NewTCPChecker(addr).Check(context.Background())
	assert.True(t, result.Healthy, result.Message)
	assert.Equal(t, CheckTypeTCP, NewTCPChecker(addr).Type())

	server.Close()
	result = NewTCPChecker(addr).WithTimeout(100 * time.Millisecond).Check(context.Background())
	assert.False(t, result.Healthy)
}

func TestForBackend(t *testing.T) {
	checks, err := ForBackend("https://ci.example.com/api/v1")
	require.NoError(t, err)
	require.Len(t, checks, 2)

	assert.Equal(t, "ci.example.com:443", checks[0].(*TCPChecker).Address)
	assert.Equal(t, "https://ci.example.com/health", checks[1].(*HTTPChecker).URL)

	checks, err = ForBackend("http://localhost:8080/api/v1")
	require.NoError(t, err)
	assert.Equal(t, "localhost:8080", checks[0].(*TCPChecker).Address)

	_, err = ForBackend("/api/v1")
	assert.Error(t, err)
}

type flakyChecker struct {
	failures int
	calls    int
}

func (f *flakyChecker) Check(context.Context) Result {
	f.calls++
	return Result{Healthy: f.calls > f.failures, Message: "probe", CheckedAt: time.Now()}
}

func (f *flakyChecker) Type() CheckType { return CheckTypeHTTP }

func TestWaitRecoversBeforeRetriesRunOut(t *testing.T) {
	c := &flakyChecker{failures: 2}
	cfg := Config{Interval: time.Millisecond, Timeout: time.Second, Retries: 3}

	result, err := Wait(context.Background(), c, cfg)
	require.NoError(t, err)
	assert.True(t, result.Healthy)
	assert.Equal(t, 3, c.calls)
}

func TestWaitGivesUp(t *testing.T) {
	c := &flakyChecker{failures: 10}
	cfg := Config{Interval: time.Millisecond, Timeout: time.Second, Retries: 2}

	_, err := Wait(context.Background(), c, cfg)
	require.Error(t, err)
	assert.Equal(t, 2, c.calls)
}

func TestStatusUpdate(t *testing.T) {
	s := NewStatus()
	cfg := Config{Retries: 2}

	s.Update(Result{Healthy: false}, cfg)
	assert.True(t, s.Healthy, "one failure is tolerated")
	s.Update(Result{Healthy: false}, cfg)
	assert.False(t, s.Healthy)
	s.Update(Result{Healthy: true}, cfg)
	assert.True(t, s.Healthy)
	assert.Equal(t, 1, s.ConsecutiveSuccesses)
}
