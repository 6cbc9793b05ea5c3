package health

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Statuses a backend health body may report that mark it unhealthy even
// with a 2xx answer
var failingStatuses = map[string]bool{
	"unhealthy": true,
	"not_ready": true,
}

// HTTPChecker probes a backend health endpoint with GET
type HTTPChecker struct {
	URL string

	// Token, when set, is sent as a bearer token
	Token string

	Client *http.Client
}

// NewHTTPChecker creates a checker for url with a 10s client timeout
func NewHTTPChecker(url string) *HTTPChecker {
	return &HTTPChecker{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Check answers healthy for a 2xx response whose body does not report a
// failing status
func (h *HTTPChecker) Check(ctx context.Context) Result {
	start := time.Now()
	result := Result{CheckedAt: start}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		result.Message = fmt.Sprintf("build request: %v", err)
		result.Duration = time.Since(start)
		return result
	}
	req.Header.Set("Accept", "application/json")
	if h.Token != "" {
		req.Header.Set("Authorization", "Bearer "+h.Token)
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		result.Message = fmt.Sprintf("GET %s: %v", h.URL, err)
		result.Duration = time.Since(start)
		return result
	}
	defer resp.Body.Close()

	reported := reportedStatus(resp.Body)
	result.Duration = time.Since(start)
	result.Healthy = resp.StatusCode/100 == 2 && !failingStatuses[reported]

	result.Message = fmt.Sprintf("HTTP %d", resp.StatusCode)
	if reported != "" {
		result.Message += " (" + reported + ")"
	}
	return result
}

func (h *HTTPChecker) Type() CheckType {
	return CheckTypeHTTP
}

// WithToken sets the bearer token sent with each probe
func (h *HTTPChecker) WithToken(token string) *HTTPChecker {
	h.Token = token
	return h
}

// WithTimeout sets the HTTP client timeout
func (h *HTTPChecker) WithTimeout(timeout time.Duration) *HTTPChecker {
	h.Client.Timeout = timeout
	return h
}

// reportedStatus extracts the "status" field of a JSON health body, if any
func reportedStatus(body io.Reader) string {
	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 64<<10)).Decode(&payload); err != nil {
		return ""
	}
	return payload.Status
}
