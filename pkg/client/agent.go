package client

import (
	"context"
	"net/http"

	"github.com/cuemby/pipectl/pkg/dedupe"
	"github.com/cuemby/pipectl/pkg/events"
	"github.com/cuemby/pipectl/pkg/types"
)

const agentRoot = "/agent"

// ListAgents returns one page of agents
func (c *Client) ListAgents(ctx context.Context, params types.ListAgentsParams) (types.ListAgentsResponse, error) {
	q := map[string]any{}
	setPositive(q, "pageNum", params.PageNum)
	setPositive(q, "pageSize", params.PageSize)
	key := dedupe.BuildKey(agentRoot, q)

	return read(ctx, c, c.cache, key.String(), "agent", key, func(r types.ListAgentsResponse) error {
		if r.Agents == nil {
			return missing(agentRoot, "agents")
		}
		return nil
	})
}

// GetAgent returns one agent. Concurrent lookups of the same id share one
// request.
func (c *Client) GetAgent(ctx context.Context, agentID string) (types.Agent, error) {
	p := resourcePath(agentRoot, agentID)
	key := dedupe.BuildKey(p, nil)

	return read(ctx, c, c.agentCache, agentID, "agent", key, func(a types.Agent) error {
		if a.AgentID == "" {
			return missing(p, "agentId")
		}
		return nil
	})
}

// AgentStatistics returns agent availability totals
func (c *Client) AgentStatistics(ctx context.Context) (types.AgentStatistics, error) {
	key := dedupe.BuildKey(agentRoot+"/statistics", nil)
	return read[types.AgentStatistics](ctx, c, c.cache, key.String(), "agent", key, nil)
}

// CreateAgent registers an agent. The response carries the agent's token,
// which the backend shows only once.
func (c *Client) CreateAgent(ctx context.Context, req types.CreateAgentRequest) (types.CreateAgentResponse, error) {
	var out types.CreateAgentResponse
	err := c.write(ctx, http.MethodPost, "agent", dedupe.BuildKey(agentRoot, nil), req, &out, nil)
	if err != nil {
		return out, err
	}
	c.publish(events.EventAgentCreated, out.AgentID, "agent "+out.AgentName+" created")
	return out, nil
}

// UpdateAgent applies a partial update
func (c *Client) UpdateAgent(ctx context.Context, agentID string, req types.UpdateAgentRequest) (types.Agent, error) {
	var out types.Agent
	key := dedupe.BuildKey(resourcePath(agentRoot, agentID), nil)
	evt := &events.Event{Type: events.EventAgentUpdated, ResourceID: agentID}
	err := c.write(ctx, http.MethodPut, "agent", key, req, &out, evt)
	return out, err
}

// DeleteAgent removes an agent
func (c *Client) DeleteAgent(ctx context.Context, agentID string) error {
	key := dedupe.BuildKey(resourcePath(agentRoot, agentID), nil)
	evt := &events.Event{Type: events.EventAgentDeleted, ResourceID: agentID}
	return c.write(ctx, http.MethodDelete, "agent", key, nil, nil, evt)
}
