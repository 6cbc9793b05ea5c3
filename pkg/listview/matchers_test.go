package listview

import (
	"testing"

	"github.com/cuemby/pipectl/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestMatchAgent(t *testing.T) {
	a := types.Agent{AgentID: "ag-7", AgentName: "Linux-Builder", Address: "10.0.0.7", Status: types.AgentStatusBusy}

	assert.True(t, MatchAgent(a, Query{SearchText: "builder"}))
	assert.True(t, MatchAgent(a, Query{SearchText: "10.0.0"}))
	assert.True(t, MatchAgent(a, Query{SearchText: "AG-7"}))
	assert.False(t, MatchAgent(a, Query{SearchText: "windows"}))

	assert.True(t, MatchAgent(a, Query{Filters: map[string]string{FilterStatus: "3"}}))
	assert.True(t, MatchAgent(a, Query{Filters: map[string]string{FilterStatus: "busy"}}))
	assert.False(t, MatchAgent(a, Query{Filters: map[string]string{FilterStatus: "online"}}))
	assert.False(t, MatchAgent(a, Query{Filters: map[string]string{FilterStatus: "bogus"}}))
}

func TestMatchRole(t *testing.T) {
	r := types.Role{Name: "deployer", DisplayName: "Deployer", Description: "Can ship releases", Scope: types.RoleScopeTeam, IsEnabled: types.FlagOff}

	assert.True(t, MatchRole(r, Query{SearchText: "ship"}))
	assert.True(t, MatchRole(r, Query{Filters: map[string]string{FilterScope: "team", FilterStatus: "disabled"}}))
	assert.False(t, MatchRole(r, Query{Filters: map[string]string{FilterStatus: "enabled"}}))
	assert.False(t, MatchRole(r, Query{Filters: map[string]string{FilterScope: "org"}}))
}

func TestMatchUser(t *testing.T) {
	u := types.User{Username: "ann", Email: "ann@example.com", FullName: "Ann Lee", IsEnabled: types.FlagOn}

	assert.True(t, MatchUser(u, Query{SearchText: "lee"}))
	assert.True(t, MatchUser(u, Query{Filters: map[string]string{FilterStatus: types.UserStatusActive}}))
	assert.False(t, MatchUser(u, Query{Filters: map[string]string{FilterStatus: types.UserStatusInactive}}))
	assert.True(t, MatchUser(u, Query{Filters: map[string]string{FilterRole: "admin"}}), "role is filtered by the backend")
}

func TestMatchSettingsAndPlugins(t *testing.T) {
	s := types.GeneralSettings{Name: "smtp", DisplayName: "Mail Server", Category: "email"}
	assert.True(t, MatchSettings(s, Query{SearchText: "mail"}))
	assert.False(t, MatchSettings(s, Query{Filters: map[string]string{FilterCategory: "system"}}))

	p := types.Plugin{PluginID: "git-clone", Name: "Git Clone", Description: "Checks out sources", PluginType: types.PluginSource}
	assert.True(t, MatchPlugin(p, Query{SearchText: "checks"}))
	assert.True(t, MatchPlugin(p, Query{Filters: map[string]string{FilterType: "source"}}))
	assert.False(t, MatchPlugin(p, Query{Filters: map[string]string{FilterType: "deploy"}}))
}
