package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cuemby/pipectl/pkg/dedupe"
	"github.com/cuemby/pipectl/pkg/events"
	"github.com/cuemby/pipectl/pkg/log"
	"github.com/cuemby/pipectl/pkg/metrics"
	"github.com/cuemby/pipectl/pkg/telemetry"
	"github.com/rs/zerolog"
)

// DefaultTimeout bounds a single backend call when Options.Timeout is unset
const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of an error response is kept in HTTPError.Body
const maxErrorBody = 64 << 10

// Options configures a Client
type Options struct {
	// BaseURL is the API root, for example http://localhost:8080/api/v1
	BaseURL string
	Token   string
	Timeout time.Duration

	// HTTPClient overrides the default client built from Timeout
	HTTPClient *http.Client

	// Cache de-duplicates path-keyed reads. A new cache is created when nil.
	Cache *dedupe.Cache

	// AgentCache de-duplicates agent lookups keyed by agent id
	AgentCache *dedupe.Cache

	// Broker receives an event after every successful write
	Broker *events.Broker
}

// Client talks to the platform backend over REST
type Client struct {
	base       *url.URL
	token      string
	httpClient *http.Client
	cache      *dedupe.Cache
	agentCache *dedupe.Cache
	broker     *events.Broker
	logger     zerolog.Logger
}

// New creates a Client. BaseURL must be an absolute http(s) URL.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL %q: %w", opts.BaseURL, err)
	}
	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("invalid API URL %q: must be an absolute http(s) URL", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	cache := opts.Cache
	if cache == nil {
		cache = dedupe.NewCache(dedupe.WithName("requests"))
	}
	agentCache := opts.AgentCache
	if agentCache == nil {
		agentCache = dedupe.NewCache(dedupe.WithName("agents-by-id"))
	}

	return &Client{
		base:       base,
		token:      opts.Token,
		httpClient: httpClient,
		cache:      cache,
		agentCache: agentCache,
		broker:     opts.Broker,
		logger:     log.WithComponent("client"),
	}, nil
}

// BaseURL returns the API root the client talks to
func (c *Client) BaseURL() string {
	return c.base.String()
}

// envelope is the wrapper the backend puts around most responses
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e envelope) ok() bool {
	return e.Code == 0 || (e.Code >= 200 && e.Code < 300)
}

// unwrap returns the envelope when body is one. A JSON object counts as an
// envelope when it has a "code" field next to "data" or "message".
func unwrap(body []byte) (envelope, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return envelope{}, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return envelope{}, false
	}
	if _, ok := fields["code"]; !ok {
		return envelope{}, false
	}
	_, hasData := fields["data"]
	_, hasMessage := fields["message"]
	if !hasData && !hasMessage {
		return envelope{}, false
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return envelope{}, false
	}
	return env, true
}

// do performs one HTTP call and decodes the (unwrapped) response into out.
// A nil out discards the response body.
func (c *Client) do(ctx context.Context, method, resource string, key dedupe.Key, body, out any) error {
	ctx, span := telemetry.StartRequestSpan(ctx, method, resource, key.String())
	timer := metrics.NewTimer()

	status, err := c.roundTrip(ctx, method, key, body, out)

	timer.ObserveDurationVec(metrics.APIRequestDuration, method, resource)
	metrics.APIRequestsTotal.WithLabelValues(method, resource, statusLabel(status)).Inc()
	telemetry.EndRequestSpan(span, status, err)

	logEvent := c.logger.Debug()
	if err != nil {
		logEvent = c.logger.Warn().Err(err)
	}
	logEvent.
		Str("method", method).
		Str("request_key", key.String()).
		Int("status", status).
		Dur("duration", timer.Duration()).
		Msg("Backend request")

	return err
}

func statusLabel(status int) string {
	if status == 0 {
		return "error"
	}
	return strconv.Itoa(status)
}

func (c *Client) roundTrip(ctx context.Context, method string, key dedupe.Key, body, out any) (int, error) {
	target := key.URL(c.base)

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, &TransportError{Method: method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, &TransportError{Method: method, URL: target, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, newHTTPError(resp.StatusCode, raw)
	}

	data := raw
	if env, ok := unwrap(raw); ok {
		if !env.ok() {
			return resp.StatusCode, &HTTPError{StatusCode: env.Code, Message: env.Message, Body: truncate(raw)}
		}
		data = env.Data
	}

	if out == nil {
		return resp.StatusCode, nil
	}
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return resp.StatusCode, &ShapeError{Path: key.Path, Reason: "empty response body"}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return resp.StatusCode, &ShapeError{Path: key.Path, Reason: err.Error()}
	}
	return resp.StatusCode, nil
}

func newHTTPError(status int, body []byte) *HTTPError {
	e := &HTTPError{StatusCode: status, Body: truncate(body)}
	if env, ok := unwrap(body); ok {
		e.Message = env.Message
		return e
	}

	var plain struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &plain); err == nil {
		e.Message = plain.Message
		if e.Message == "" {
			e.Message = plain.Error
		}
	}
	return e
}

func truncate(b []byte) []byte {
	if len(b) > maxErrorBody {
		return b[:maxErrorBody]
	}
	return b
}

// read runs a de-duplicated GET. Callers asking for the same cacheKey while
// a call is in flight share its result. check validates the decoded value.
func read[T any](ctx context.Context, c *Client, cache *dedupe.Cache, cacheKey, resource string, key dedupe.Key, check func(T) error) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	ctx, span := telemetry.StartReadSpan(ctx, resource, cacheKey)
	ch := dedupe.DoChan(ctx, cache, cacheKey, func(ctx context.Context) (T, error) {
		var out T
		if err := c.do(ctx, http.MethodGet, resource, key, nil, &out); err != nil {
			return zero, err
		}
		if check != nil {
			if err := check(out); err != nil {
				return zero, err
			}
		}
		return out, nil
	})

	select {
	case r := <-ch:
		telemetry.EndReadSpan(span, r.Shared, r.Err)
		return r.Value, r.Err
	case <-ctx.Done():
		telemetry.EndReadSpan(span, false, ctx.Err())
		return zero, ctx.Err()
	}
}

// write sends a mutation straight to the backend, bypassing every cache,
// and publishes evt when it succeeds.
func (c *Client) write(ctx context.Context, method, resource string, key dedupe.Key, body, out any, evt *events.Event) error {
	if err := c.do(ctx, method, resource, key, body, out); err != nil {
		return err
	}
	if c.broker != nil && evt != nil {
		c.broker.Publish(evt)
	}
	return nil
}

func (c *Client) publish(t events.EventType, id, message string) {
	if c.broker != nil {
		c.broker.Publish(&events.Event{Type: t, ResourceID: id, Message: message})
	}
}

// resourcePath joins escaped segments onto a resource root
func resourcePath(root string, segments ...string) string {
	p := root
	for _, s := range segments {
		p += "/" + url.PathEscape(s)
	}
	return p
}

func missing(path, field string) error {
	return &ShapeError{Path: path, Reason: "missing " + field}
}

func setPositive(params map[string]any, name string, v int) {
	if v > 0 {
		params[name] = v
	}
}

func setNonEmpty(params map[string]any, name, v string) {
	if v != "" {
		params[name] = v
	}
}
