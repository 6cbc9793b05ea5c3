package listview

import (
	"context"

	"github.com/cuemby/pipectl/pkg/types"
)

// AgentLister is the part of the API client the agents view needs
type AgentLister interface {
	ListAgents(ctx context.Context, params types.ListAgentsParams) (types.ListAgentsResponse, error)
}

// RoleLister is the part of the API client the roles view needs
type RoleLister interface {
	ListRoles(ctx context.Context, params types.ListRolesParams) (types.ListRolesResponse, error)
}

// UserLister is the part of the API client the users view needs
type UserLister interface {
	ListUsers(ctx context.Context, params types.ListUsersParams) (types.ListUsersResponse, error)
	ListUsersByRole(ctx context.Context, roleID string, page, pageSize int) (types.ListUsersResponse, error)
}

// SettingsLister is the part of the API client the settings view needs
type SettingsLister interface {
	ListSettings(ctx context.Context, params types.ListSettingsParams) (types.ListSettingsResponse, error)
}

// PluginLister is the part of the API client the plugins view needs
type PluginLister interface {
	ListPlugins(ctx context.Context, pluginID string) (types.ListPluginsResponse, error)
}

// NewAgentsView creates the agents list. Filters: status.
func NewAgentsView(api AgentLister, pageSize int) *Controller[types.Agent] {
	return New(Config[types.Agent]{
		Name:     "agents",
		Noun:     "agents",
		Resource: "agent",
		PageSize: pageSize,
		Match:    MatchAgent,
		Fetch: func(ctx context.Context, req Request) (Page[types.Agent], error) {
			resp, err := api.ListAgents(ctx, types.ListAgentsParams{PageNum: req.PageNum, PageSize: req.PageSize})
			if err != nil {
				return Page[types.Agent]{}, err
			}
			return Page[types.Agent]{Items: resp.Agents, TotalCount: resp.Count}, nil
		},
	})
}

// NewRolesView creates the roles list. Filters: scope (also sent to the
// backend) and status.
func NewRolesView(api RoleLister, pageSize int) *Controller[types.Role] {
	return New(Config[types.Role]{
		Name:          "roles",
		Noun:          "roles",
		Resource:      "role",
		PageSize:      pageSize,
		ServerFilters: []string{FilterScope},
		Match:         MatchRole,
		Fetch: func(ctx context.Context, req Request) (Page[types.Role], error) {
			resp, err := api.ListRoles(ctx, types.ListRolesParams{
				PageNum:  req.PageNum,
				PageSize: req.PageSize,
				Scope:    types.RoleScope(req.Filter(FilterScope)),
			})
			if err != nil {
				return Page[types.Role]{}, err
			}
			return Page[types.Role]{Items: resp.Roles, TotalCount: resp.TotalCount()}, nil
		},
	})
}

// NewUsersView creates the users list. Filters: status (also sent to the
// backend) and role, which switches to the by-role endpoint.
func NewUsersView(api UserLister, pageSize int) *Controller[types.User] {
	return New(Config[types.User]{
		Name:          "users",
		Noun:          "users",
		Resource:      "user",
		PageSize:      pageSize,
		ServerFilters: []string{FilterStatus, FilterRole},
		Match:         MatchUser,
		Fetch: func(ctx context.Context, req Request) (Page[types.User], error) {
			var (
				resp types.ListUsersResponse
				err  error
			)
			if roleID := req.Filter(FilterRole); roleID != "" {
				resp, err = api.ListUsersByRole(ctx, roleID, req.PageNum, req.PageSize)
			} else {
				resp, err = api.ListUsers(ctx, types.ListUsersParams{
					Page:     req.PageNum,
					PageSize: req.PageSize,
					Status:   req.Filter(FilterStatus),
				})
			}
			if err != nil {
				return Page[types.User]{}, err
			}
			return Page[types.User]{Items: resp.Users, TotalCount: resp.Count}, nil
		},
	})
}

// NewSettingsView creates the general settings list. Filters: category
// (also sent to the backend).
func NewSettingsView(api SettingsLister, pageSize int) *Controller[types.GeneralSettings] {
	return New(Config[types.GeneralSettings]{
		Name:          "settings",
		Noun:          "settings",
		Resource:      "settings",
		PageSize:      pageSize,
		ServerFilters: []string{FilterCategory},
		Match:         MatchSettings,
		Fetch: func(ctx context.Context, req Request) (Page[types.GeneralSettings], error) {
			resp, err := api.ListSettings(ctx, types.ListSettingsParams{
				Category: req.Filter(FilterCategory),
				PageNum:  req.PageNum,
				PageSize: req.PageSize,
			})
			if err != nil {
				return Page[types.GeneralSettings]{}, err
			}
			return Page[types.GeneralSettings]{Items: resp.List, TotalCount: resp.Total}, nil
		},
	})
}

// NewPluginsView creates the plugins list. The plugin endpoint is not
// paginated, so the view always pages locally. Filters: type.
func NewPluginsView(api PluginLister, pageSize int) *Controller[types.Plugin] {
	return New(Config[types.Plugin]{
		Name:       "plugins",
		Noun:       "plugins",
		PageSize:   pageSize,
		ClientOnly: true,
		Match:      MatchPlugin,
		Fetch: func(ctx context.Context, req Request) (Page[types.Plugin], error) {
			resp, err := api.ListPlugins(ctx, "")
			if err != nil {
				return Page[types.Plugin]{}, err
			}
			return Page[types.Plugin]{Items: resp.Plugins, TotalCount: max(resp.Count, len(resp.Plugins))}, nil
		},
	})
}
