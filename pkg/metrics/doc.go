/*
Package metrics defines the Prometheus metrics exported by pipectl.

Every metric is registered with the default registry at package init and
exposed through Handler, which the development backend mounts at /metrics.

# Metrics

API client (pkg/client):

	pipectl_api_requests_total{method,resource,status}      counter
	pipectl_api_request_duration_seconds{method,resource}   histogram

status is the HTTP status code, or "error" when no response arrived.

Request de-duplication (pkg/dedupe):

	pipectl_dedupe_calls_total{outcome}   counter, outcome is leader or shared
	pipectl_dedupe_inflight               gauge

List views (pkg/listview):

	pipectl_listview_fetches_total{view,mode}   counter, mode is server or client

Development backend (pkg/stubapi):

	pipectl_stub_resources_total{kind}     gauge, one per storage bucket
	pipectl_stub_agents_total{status}      gauge

The two stub gauges are refreshed by a Collector polling the store:

	collector := metrics.NewCollector(store, 15*time.Second)
	collector.Start()
	defer collector.Stop()

# Timing

Timer wraps time.Now for histogram observations:

	timer := metrics.NewTimer()
	resp, err := doRequest()
	timer.ObserveDurationVec(metrics.APIRequestDuration, method, resource)

# Health

HealthChecker aggregates per-component health for the /health and /ready
endpoints. Components named as critical must be registered and healthy
before the process reports ready; HealthCode maps a HealthStatus to the
HTTP status code to return.
*/
package metrics
