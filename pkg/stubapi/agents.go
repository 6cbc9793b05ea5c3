package stubapi

import (
	"sort"
	"strings"

	"github.com/cuemby/pipectl/pkg/types"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func (s *Server) agentRoutes(g *echo.Group) {
	g.GET("", s.listAgents)
	g.POST("", s.createAgent)
	g.GET("/statistics", s.agentStatistics)
	g.GET("/:id", s.getAgent)
	g.PUT("/:id", s.updateAgent)
	g.DELETE("/:id", s.deleteAgent)
}

func (s *Server) sortedAgents() ([]types.Agent, error) {
	stored, err := s.store.ListAgents()
	if err != nil {
		return nil, err
	}
	out := make([]types.Agent, len(stored))
	for i, a := range stored {
		out[i] = *a
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Server) listAgents(c echo.Context) error {
	p, err := pageParams(c, "pageNum")
	if err != nil {
		return err
	}
	agents, err := s.sortedAgents()
	if err != nil {
		return storeError("agents", "", err)
	}
	return ok(c, types.ListAgentsResponse{
		Agents:   slice(agents, p),
		Count:    len(agents),
		PageNum:  p.num,
		PageSize: p.size,
	})
}

func (s *Server) agentStatistics(c echo.Context) error {
	agents, err := s.store.ListAgents()
	if err != nil {
		return storeError("agents", "", err)
	}
	stats := types.AgentStatistics{Total: len(agents)}
	for _, a := range agents {
		switch a.Status {
		case types.AgentStatusOnline, types.AgentStatusBusy, types.AgentStatusIdle:
			stats.Online++
		default:
			stats.Offline++
		}
	}
	return ok(c, stats)
}

func (s *Server) getAgent(c echo.Context) error {
	id := param(c, "id")
	a, err := s.store.GetAgent(id)
	if err != nil {
		return storeError("agent", id, err)
	}
	return ok(c, a)
}

func (s *Server) createAgent(c echo.Context) error {
	var req types.CreateAgentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid agent body")
	}
	if strings.TrimSpace(req.AgentName) == "" {
		return badRequest("agentName is required")
	}

	s.writes.Lock()
	defer s.writes.Unlock()

	agents, err := s.sortedAgents()
	if err != nil {
		return storeError("agents", "", err)
	}
	var next int64 = 1
	if n := len(agents); n > 0 {
		next = agents[n-1].ID + 1
	}

	a := types.Agent{
		ID:        next,
		AgentID:   uuid.NewString(),
		AgentName: req.AgentName,
		Status:    types.AgentStatusOffline,
		Labels:    req.Labels,
		IsEnabled: types.FlagOn,
	}
	if req.Status != nil {
		a.Status = *req.Status
	}
	if err := s.store.CreateAgent(&a); err != nil {
		return storeError("agent", a.AgentID, err)
	}

	s.logger.Info().Str("agent_id", a.AgentID).Str("name", a.AgentName).Msg("Agent registered")
	return created(c, types.CreateAgentResponse{Agent: a, Token: newAgentToken()})
}

func (s *Server) updateAgent(c echo.Context) error {
	id := param(c, "id")
	var req types.UpdateAgentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid agent body")
	}

	s.writes.Lock()
	defer s.writes.Unlock()

	a, err := s.store.GetAgent(id)
	if err != nil {
		return storeError("agent", id, err)
	}
	if req.AgentName != nil {
		if strings.TrimSpace(*req.AgentName) == "" {
			return badRequest("agentName cannot be empty")
		}
		a.AgentName = *req.AgentName
	}
	setIf(&a.Address, req.Address)
	setIf(&a.Port, req.Port)
	setIf(&a.OS, req.OS)
	setIf(&a.Arch, req.Arch)
	setIf(&a.Version, req.Version)
	setIf(&a.Status, req.Status)
	setIf(&a.Metrics, req.Metrics)
	setIf(&a.IsEnabled, req.IsEnabled)
	if req.Labels != nil {
		a.Labels = req.Labels
	}

	if err := s.store.UpdateAgent(a); err != nil {
		return storeError("agent", id, err)
	}
	return ok(c, a)
}

func (s *Server) deleteAgent(c echo.Context) error {
	id := param(c, "id")
	if err := s.store.DeleteAgent(id); err != nil {
		return storeError("agent", id, err)
	}
	return ok(c, nil)
}

// newAgentToken returns the one-time communication token handed to a new
// agent
func newAgentToken() string {
	return "agt_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
