package stubapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cuemby/pipectl/pkg/client"
	"github.com/cuemby/pipectl/pkg/listview"
	"github.com/cuemby/pipectl/pkg/settings"
	"github.com/cuemby/pipectl/pkg/storage"
	"github.com/cuemby/pipectl/pkg/stubapi"
	"github.com/cuemby/pipectl/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newBackend starts a seeded development backend and a client pointed at it
func newBackend(t *testing.T, opts stubapi.Options) (*httptest.Server, *client.Client) {
	t.Helper()
	store := storage.NewMemoryStore()
	require.NoError(t, stubapi.Seed(store))

	srv := httptest.NewServer(stubapi.New(store, opts).Handler())
	t.Cleanup(srv.Close)

	cl, err := client.New(client.Options{BaseURL: srv.URL + stubapi.DefaultAPIRoot, Token: opts.Token})
	require.NoError(t, err)
	return srv, cl
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var he *client.HTTPError
	require.ErrorAs(t, err, &he)
	return he.StatusCode
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newBackend(t, stubapi.Options{Version: "test"})

	for _, path := range []string{"/health", "/ready"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, "test", body["version"])
	}

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTokenRequired(t *testing.T) {
	srv, authed := newBackend(t, stubapi.Options{Token: "s3cret"})
	ctx := context.Background()

	_, err := authed.AgentStatistics(ctx)
	require.NoError(t, err)

	anon, err := client.New(client.Options{BaseURL: srv.URL + stubapi.DefaultAPIRoot})
	require.NoError(t, err)
	_, err = anon.AgentStatistics(ctx)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "health stays open")
}

func TestAgentLifecycle(t *testing.T) {
	_, cl := newBackend(t, stubapi.Options{})
	ctx := context.Background()

	page, err := cl.ListAgents(ctx, types.ListAgentsParams{PageNum: 2, PageSize: 5})
	require.NoError(t, err)
	assert.Equal(t, stubapi.SeedAgentCount, page.Count)
	require.Len(t, page.Agents, 5)
	assert.Equal(t, int64(6), page.Agents[0].ID)

	stats, err := cl.AgentStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, stubapi.SeedAgentCount, stats.Total)
	assert.Equal(t, stats.Total, stats.Online+stats.Offline)

	created, err := cl.CreateAgent(ctx, types.CreateAgentRequest{AgentName: "fresh"})
	require.NoError(t, err)
	assert.Equal(t, int64(stubapi.SeedAgentCount+1), created.ID)
	assert.True(t, strings.HasPrefix(created.Token, "agt_"))
	assert.Equal(t, types.AgentStatusOffline, created.Status)

	name := "renamed"
	updated, err := cl.UpdateAgent(ctx, created.AgentID, types.UpdateAgentRequest{AgentName: &name})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.AgentName)

	got, err := cl.GetAgent(ctx, created.AgentID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.AgentName)

	require.NoError(t, cl.DeleteAgent(ctx, created.AgentID))
	_, err = cl.GetAgent(ctx, created.AgentID)
	assert.True(t, client.IsNotFound(err))

	_, err = cl.CreateAgent(ctx, types.CreateAgentRequest{AgentName: "  "})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
}

func TestAgentsViewAgainstBackend(t *testing.T) {
	_, cl := newBackend(t, stubapi.Options{})
	ctx := context.Background()
	view := listview.NewAgentsView(cl, 10)

	snap := view.Refresh(ctx)
	require.NoError(t, snap.Err)
	assert.Equal(t, listview.ModeServer, snap.Mode)
	assert.Len(t, snap.Items, 10)
	assert.Equal(t, stubapi.SeedAgentCount, snap.TotalCount)

	snap = view.SetPage(ctx, 2)
	assert.Len(t, snap.Items, 2)
	assert.Equal(t, "Showing 11 to 12 of 12", snap.Pagination().Summary())

	snap = view.SetSearch(ctx, "builder-1")
	assert.Equal(t, listview.ModeClient, snap.Mode)
	assert.Equal(t, 1, snap.Query.PageNum)
	assert.Equal(t, 3, snap.TotalCount)
}

func TestRoles(t *testing.T) {
	_, cl := newBackend(t, stubapi.Options{})
	ctx := context.Background()

	project, err := cl.ListRoles(ctx, types.ListRolesParams{Scope: types.RoleScopeProject})
	require.NoError(t, err)
	assert.Equal(t, 2, project.TotalCount())
	require.Len(t, project.Roles, 2)
	assert.Equal(t, "user", project.Roles[0].RoleID, "higher priority first")

	_, err = cl.CreateRole(ctx, types.CreateRoleRequest{RoleID: "admin", Name: "dup"})
	assert.Equal(t, http.StatusConflict, statusOf(t, err))

	role, err := cl.CreateRole(ctx, types.CreateRoleRequest{RoleID: "release", Name: "Release Manager"})
	require.NoError(t, err)
	assert.True(t, role.IsEnabled.Bool())
	assert.Equal(t, types.RoleScopeProject, role.Scope)

	toggled, err := cl.ToggleRole(ctx, "release")
	require.NoError(t, err)
	assert.False(t, toggled.IsEnabled.Bool())

	_, err = cl.UpdateRolePermissions(ctx, "release", []string{"release:cut"})
	require.NoError(t, err)
	perms, err := cl.RolePermissions(ctx, "release")
	require.NoError(t, err)
	assert.Equal(t, []string{"release:cut"}, perms)

	assert.Equal(t, http.StatusForbidden, statusOf(t, cl.DeleteRole(ctx, "admin")))
	require.NoError(t, cl.DeleteRole(ctx, "release"))
	_, err = cl.GetRole(ctx, "release")
	assert.True(t, client.IsNotFound(err))
}

func TestUsers(t *testing.T) {
	_, cl := newBackend(t, stubapi.Options{})
	ctx := context.Background()

	found, err := cl.ListUsers(ctx, types.ListUsersParams{Search: "ALI"})
	require.NoError(t, err)
	require.Len(t, found.Users, 1)
	assert.Equal(t, "alice", found.Users[0].Username)

	inactive, err := cl.ListUsers(ctx, types.ListUsersParams{Status: types.UserStatusInactive})
	require.NoError(t, err)
	require.Len(t, inactive.Users, 1)
	assert.Equal(t, "dave", inactive.Users[0].Username)

	viewers, err := cl.ListUsersByRole(ctx, "viewer", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, viewers.Count)

	require.NoError(t, cl.InviteUser(ctx, types.InviteUserRequest{Email: "erin@example.com"}))
	invited, err := cl.ListUsers(ctx, types.ListUsersParams{Search: "erin"})
	require.NoError(t, err)
	require.Len(t, invited.Users, 1)
	assert.Equal(t, types.InvitationPending, invited.Users[0].InvitationStatus)

	err = cl.InviteUser(ctx, types.InviteUserRequest{Email: "ERIN@example.com"})
	assert.Equal(t, http.StatusConflict, statusOf(t, err))

	phone := "+1 555 0100"
	u, err := cl.UpdateUser(ctx, "u-bob", types.UpdateUserRequest{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, phone, u.Phone)
}

func TestPasswords(t *testing.T) {
	_, cl := newBackend(t, stubapi.Options{})
	ctx := context.Background()

	err := cl.ResetPassword(ctx, "wrong-password", "new-password-1")
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	require.NoError(t, cl.ResetPassword(ctx, stubapi.SeedAdminPassword, "new-password-1"))
	err = cl.ResetPassword(ctx, stubapi.SeedAdminPassword, "new-password-2")
	assert.Error(t, err, "the old password no longer works")

	err = cl.ResetUserPassword(ctx, "u-alice", "short")
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	require.NoError(t, cl.ResetUserPassword(ctx, "u-alice", "long-enough"))

	err = cl.ResetUserPassword(ctx, "u-nobody", "long-enough")
	assert.True(t, client.IsNotFound(err))
}

func TestSettings(t *testing.T) {
	srv, cl := newBackend(t, stubapi.Options{})
	ctx := context.Background()

	cats, err := cl.SettingsCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []types.Category{
		{Category: "notification", Count: 2},
		{Category: "build", Count: 1},
		{Category: "security", Count: 1},
	}, cats)

	smtp, err := cl.GetSettingsByName(ctx, "notification", "smtp")
	require.NoError(t, err)
	assert.True(t, smtp.Data["port"].Equal(settings.Int(587)))

	updated, err := cl.UpdateSettings(ctx, smtp.SettingsID, types.UpdateSettingsRequest{
		Data: settings.Object{"host": settings.String("mail.internal"), "port": settings.Int(25)},
	})
	require.NoError(t, err)
	assert.Equal(t, settings.String("mail.internal"), updated.Data["host"])

	// client validation stops bad data before it is sent
	_, err = cl.UpdateSettings(ctx, smtp.SettingsID, types.UpdateSettingsRequest{
		Data: settings.Object{"host": settings.String("x"), "port": settings.Int(0)},
	})
	var verrs settings.ValidationErrors
	require.ErrorAs(t, err, &verrs)

	// and the backend enforces the same schema
	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/v1/general-settings/"+smtp.SettingsID,
		strings.NewReader(`{"data":{"host":"x","port":0}}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	page, err := cl.ListSettings(ctx, types.ListSettingsParams{Category: "notification"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
}

func TestPlugins(t *testing.T) {
	_, cl := newBackend(t, stubapi.Options{})
	ctx := context.Background()

	versions, err := cl.PluginVersions(ctx, "git-checkout")
	require.NoError(t, err)
	assert.Equal(t, 2, versions.Count)

	v, err := cl.PluginVersion(ctx, "git-checkout", "1.1.0")
	require.NoError(t, err)
	assert.Equal(t, types.PluginSource, v.PluginType)

	_, err = cl.PluginVersion(ctx, "git-checkout", "9.9.9")
	assert.True(t, client.IsNotFound(err))

	one, err := cl.ListPlugins(ctx, "docker-build")
	require.NoError(t, err)
	assert.Equal(t, 1, one.Count)

	view := listview.NewPluginsView(cl, 5)
	snap := view.SetFilter(ctx, listview.FilterType, string(types.PluginSource))
	require.NoError(t, snap.Err)
	assert.Equal(t, 2, snap.TotalCount)
}

func TestErrorsUseEnvelope(t *testing.T) {
	srv, _ := newBackend(t, stubapi.Options{})

	resp, err := http.Get(srv.URL + "/api/v1/agent?pageNum=0")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body stubapi.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, http.StatusBadRequest, body.Code)
	assert.Equal(t, "pageNum must be a positive integer", body.Message)
}

func TestSeedIsIdempotentOnBoltStore(t *testing.T) {
	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, stubapi.Seed(store))
	before, err := store.Counts()
	require.NoError(t, err)
	require.NoError(t, stubapi.Seed(store))
	after, err := store.Counts()
	require.NoError(t, err)

	assert.Equal(t, before, after)
	assert.Equal(t, stubapi.SeedAgentCount, after[storage.BucketAgents])
}
