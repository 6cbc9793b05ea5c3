package metrics

import (
	"errors"
	"testing"

	"github.com/cuemby/pipectl/pkg/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

type fakeSource struct {
	counts map[string]int
	agents []*types.Agent
	err    error
}

func (f *fakeSource) Counts() (map[string]int, error)    { return f.counts, f.err }
func (f *fakeSource) ListAgents() ([]*types.Agent, error) { return f.agents, f.err }

func TestCollectorPublishesGauges(t *testing.T) {
	src := &fakeSource{
		counts: map[string]int{"agents": 3, "roles": 5},
		agents: []*types.Agent{
			{AgentID: "a", Status: types.AgentStatusOnline},
			{AgentID: "b", Status: types.AgentStatusOnline},
			{AgentID: "c", Status: types.AgentStatusBusy},
		},
	}
	c := NewCollector(src, 0)
	c.Collect()

	assert.Equal(t, float64(3), testutil.ToFloat64(StubResourcesTotal.WithLabelValues("agents")))
	assert.Equal(t, float64(5), testutil.ToFloat64(StubResourcesTotal.WithLabelValues("roles")))
	assert.Equal(t, float64(2), testutil.ToFloat64(StubAgentsByStatus.WithLabelValues("online")))
	assert.Equal(t, float64(1), testutil.ToFloat64(StubAgentsByStatus.WithLabelValues("busy")))

	// Agents that went away no longer count
	src.agents = src.agents[:1]
	c.Collect()
	assert.Equal(t, float64(1), testutil.ToFloat64(StubAgentsByStatus.WithLabelValues("online")))
	assert.Equal(t, float64(0), testutil.ToFloat64(StubAgentsByStatus.WithLabelValues("busy")))
}

func TestCollectorKeepsGaugesOnError(t *testing.T) {
	src := &fakeSource{counts: map[string]int{"users": 7}}
	c := NewCollector(src, 0)
	c.Collect()

	src.err = errors.New("store closed")
	c.Collect()
	assert.Equal(t, float64(7), testutil.ToFloat64(StubResourcesTotal.WithLabelValues("users")))
}

func TestCollectorDefaultInterval(t *testing.T) {
	c := NewCollector(&fakeSource{}, -1)
	assert.Equal(t, DefaultCollectInterval, c.interval)
}
