package health

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"
)

// CheckType represents the type of health check
type CheckType string

const (
	CheckTypeHTTP CheckType = "http"
	CheckTypeTCP  CheckType = "tcp"
)

// Result represents the outcome of a health check
type Result struct {
	Healthy   bool
	Message   string
	CheckedAt time.Time
	Duration  time.Duration
}

// Checker is the interface that all health checkers must implement
type Checker interface {
	// Check performs the health check and returns the result
	Check(ctx context.Context) Result

	// Type returns the type of health check
	Type() CheckType
}

// Config controls how Wait polls a checker
type Config struct {
	// Interval is the time between health checks
	Interval time.Duration

	// Timeout bounds a single check
	Timeout time.Duration

	// Retries is the number of consecutive failures before giving up
	Retries int
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		Interval: 2 * time.Second,
		Timeout:  5 * time.Second,
		Retries:  3,
	}
}

// Status tracks consecutive results for one checker
type Status struct {
	ConsecutiveFailures  int
	ConsecutiveSuccesses int
	LastCheck            time.Time
	LastResult           Result

	// Healthy stays true until Retries consecutive failures are seen
	Healthy bool
}

// NewStatus creates a new Status with default values
func NewStatus() *Status {
	return &Status{Healthy: true}
}

// Update updates the status based on a new health check result
func (s *Status) Update(result Result, config Config) {
	s.LastCheck = result.CheckedAt
	s.LastResult = result

	if result.Healthy {
		s.ConsecutiveSuccesses++
		s.ConsecutiveFailures = 0
		s.Healthy = true
		return
	}

	s.ConsecutiveFailures++
	s.ConsecutiveSuccesses = 0
	if s.ConsecutiveFailures >= max(config.Retries, 1) {
		s.Healthy = false
	}
}

// Wait polls c until it reports healthy. It returns the last result and an
// error once Retries consecutive checks failed or ctx is done.
func Wait(ctx context.Context, c Checker, cfg Config) (Result, error) {
	status := NewStatus()
	for {
		checkCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		result := c.Check(checkCtx)
		cancel()

		status.Update(result, cfg)
		if result.Healthy {
			return result, nil
		}
		if !status.Healthy {
			return result, fmt.Errorf("%s check failed %d times: %s", c.Type(), status.ConsecutiveFailures, result.Message)
		}

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(cfg.Interval):
		}
	}
}

// ForBackend returns the probes for a backend API root: a TCP dial of its
// host followed by GET /health on the same origin.
func ForBackend(apiRoot string) ([]Checker, error) {
	u, err := url.Parse(apiRoot)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid API URL %q: missing host", apiRoot)
	}

	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}

	origin := url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/health"}
	return []Checker{
		NewTCPChecker(net.JoinHostPort(u.Hostname(), port)),
		NewHTTPChecker(origin.String()),
	}, nil
}
