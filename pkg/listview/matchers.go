package listview

import (
	"github.com/cuemby/pipectl/pkg/types"
)

// Filter names understood by the matchers
const (
	FilterStatus   = "status"
	FilterScope    = "scope"
	FilterRole     = "role"
	FilterCategory = "category"
	FilterType     = "type"
)

func searchHit(text string, fields ...string) bool {
	if text == "" {
		return true
	}
	for _, f := range fields {
		if containsFold(f, text) {
			return true
		}
	}
	return false
}

// MatchAgent searches name, id and address. The status filter takes a
// status code or name.
func MatchAgent(a types.Agent, q Query) bool {
	if v := q.Filter(FilterStatus); v != FilterAll {
		status, err := types.ParseAgentStatus(v)
		if err != nil || a.Status != status {
			return false
		}
	}
	return searchHit(q.SearchText, a.AgentName, a.AgentID, a.Address)
}

// MatchRole searches name, display name and description. Filters: scope,
// and status as "enabled" or "disabled".
func MatchRole(r types.Role, q Query) bool {
	if v := q.Filter(FilterScope); v != FilterAll && string(r.Scope) != v {
		return false
	}
	switch q.Filter(FilterStatus) {
	case "enabled":
		if !r.IsEnabled.Bool() {
			return false
		}
	case "disabled":
		if r.IsEnabled.Bool() {
			return false
		}
	}
	return searchHit(q.SearchText, r.Name, r.DisplayName, r.Description)
}

// MatchUser searches username, email and full name. The status filter is
// "active" or "inactive"; the role filter is applied by the backend.
func MatchUser(u types.User, q Query) bool {
	switch q.Filter(FilterStatus) {
	case types.UserStatusActive:
		if !u.IsEnabled.Bool() {
			return false
		}
	case types.UserStatusInactive:
		if u.IsEnabled.Bool() {
			return false
		}
	}
	return searchHit(q.SearchText, u.Username, u.Email, u.FullName)
}

// MatchSettings searches display name, name and category
func MatchSettings(s types.GeneralSettings, q Query) bool {
	if v := q.Filter(FilterCategory); v != FilterAll && s.Category != v {
		return false
	}
	return searchHit(q.SearchText, s.DisplayName, s.Name, s.Category)
}

// MatchPlugin searches name, plugin id and description
func MatchPlugin(p types.Plugin, q Query) bool {
	if v := q.Filter(FilterType); v != FilterAll && string(p.PluginType) != v {
		return false
	}
	return searchHit(q.SearchText, p.Name, p.PluginID, p.Description)
}
