package metrics

import (
	"sync"
	"time"

	"github.com/cuemby/pipectl/pkg/log"
	"github.com/cuemby/pipectl/pkg/types"
	"github.com/rs/zerolog"
)

// DefaultCollectInterval is how often the collector refreshes its gauges
const DefaultCollectInterval = 15 * time.Second

// Source is the read side of the development backend's store
type Source interface {
	Counts() (map[string]int, error)
	ListAgents() ([]*types.Agent, error)
}

// Collector periodically publishes store gauges
type Collector struct {
	source   Source
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   zerolog.Logger
}

// NewCollector creates a new metrics collector. A non-positive interval
// falls back to DefaultCollectInterval.
func NewCollector(source Source, interval time.Duration) *Collector {
	if interval <= 0 {
		interval = DefaultCollectInterval
	}
	return &Collector{
		source:   source,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   log.WithComponent("metrics"),
	}
}

// Start begins collecting metrics
func (c *Collector) Start() {
	ticker := time.NewTicker(c.interval)
	go func() {
		c.Collect()

		for {
			select {
			case <-ticker.C:
				c.Collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector. It is safe to call more than once.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

// Collect refreshes every gauge once
func (c *Collector) Collect() {
	c.collectResourceCounts()
	c.collectAgentMetrics()
}

func (c *Collector) collectResourceCounts() {
	counts, err := c.source.Counts()
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to count stored resources")
		return
	}
	for kind, n := range counts {
		StubResourcesTotal.WithLabelValues(kind).Set(float64(n))
	}
}

func (c *Collector) collectAgentMetrics() {
	agents, err := c.source.ListAgents()
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to list agents")
		return
	}

	// Reset so statuses with no agents left drop back to zero
	StubAgentsByStatus.Reset()
	counts := make(map[types.AgentStatus]int)
	for _, a := range agents {
		counts[a.Status]++
	}
	for status, n := range counts {
		StubAgentsByStatus.WithLabelValues(status.String()).Set(float64(n))
	}
}
