package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// API client metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipectl_api_requests_total",
			Help: "Total number of backend API requests by method, resource and status",
		},
		[]string{"method", "resource", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipectl_api_request_duration_seconds",
			Help:    "Backend API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "resource"},
	)

	// Request de-duplication metrics
	DedupeCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipectl_dedupe_calls_total",
			Help: "Total number of de-duplicated reads by outcome (leader or shared)",
		},
		[]string{"outcome"},
	)

	DedupeInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pipectl_dedupe_inflight",
			Help: "Number of reads currently in flight across all caches",
		},
	)

	// List view metrics
	ListFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipectl_listview_fetches_total",
			Help: "Total number of list view fetches by view and pagination mode",
		},
		[]string{"view", "mode"},
	)

	// Development backend metrics
	StubResourcesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pipectl_stub_resources_total",
			Help: "Number of records held by the development backend by kind",
		},
		[]string{"kind"},
	)

	StubAgentsByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pipectl_stub_agents_total",
			Help: "Number of agents held by the development backend by status",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
	prometheus.MustRegister(DedupeCallsTotal)
	prometheus.MustRegister(DedupeInFlight)
	prometheus.MustRegister(ListFetchesTotal)
	prometheus.MustRegister(StubResourcesTotal)
	prometheus.MustRegister(StubAgentsByStatus)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
