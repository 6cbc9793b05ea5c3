/*
Package client provides the REST client pipectl uses to talk to the
platform backend.

# Overview

One Client covers every resource the console manages. Methods are grouped by
resource in separate files:

	agent.go     ListAgents, GetAgent, AgentStatistics, Create/Update/DeleteAgent
	role.go      ListRoles, GetRole, RolePermissions, Create/Update/Delete/ToggleRole,
	             UpdateRolePermissions
	user.go      ListUsers, ListUsersByRole, UpdateUser, InviteUser,
	             ResetPassword, ResetUserPassword
	settings.go  ListSettings, SettingsCategories, GetSettings,
	             GetSettingsByName, UpdateSettings
	plugin.go    ListPlugins, PluginVersions, PluginVersion

# Reads and writes

Reads go through a dedupe.Cache. The cache key is built from the request
path and its query parameters, so concurrent callers asking for the same
page share one HTTP request:

	ListAgents(page 1) ─┐
	ListAgents(page 1) ─┼──▶ GET /agent?pageNum=1&pageSize=10
	ListAgents(page 1) ─┘

GetAgent uses a second cache keyed by agent id alone.

Writes never touch a cache. They go straight to the backend, and when a
write succeeds the client publishes an events.Event on the configured
broker so list views can reload.

# Responses

Most backend responses are wrapped in an envelope:

	{"code": 200, "message": "success", "data": {...}}

The client unwraps it when present and decodes the data. Every decoded
read is checked for the fields it must carry; a response that does not fit
is reported as a *ShapeError.

# Errors

	*TransportError  the request never got a response (DNS, refused, timeout)
	*HTTPError       non-2xx status, or an envelope carrying a failure code
	*ShapeError      2xx response with an unexpected body
	ErrNotFound      matches any 404 through errors.Is

Nothing is retried. Errors reach every caller that shared a read.

# Usage

	c, err := client.New(client.Options{
		BaseURL: "http://localhost:8080/api/v1",
		Token:   token,
	})
	if err != nil {
		return err
	}

	page, err := c.ListAgents(ctx, types.ListAgentsParams{PageNum: 1, PageSize: 10})
	if errors.Is(err, client.ErrNotFound) {
		...
	}

Every call records pipectl_api_requests_total and
pipectl_api_request_duration_seconds, and runs inside an OpenTelemetry
client span.
*/
package client
