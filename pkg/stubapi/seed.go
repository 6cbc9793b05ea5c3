package stubapi

import (
	"fmt"

	"github.com/cuemby/pipectl/pkg/settings"
	"github.com/cuemby/pipectl/pkg/storage"
	"github.com/cuemby/pipectl/pkg/types"
	"golang.org/x/crypto/bcrypt"
)

// Seeded accounts
const (
	SeedAdminID       = "u-admin"
	SeedAdminPassword = "pipectl-admin"
)

// SeedAgentCount is how many agents Seed registers
const SeedAgentCount = 12

// Seed fills an empty store with sample data. A store that already holds
// records is left alone.
func Seed(store storage.Store) error {
	counts, err := store.Counts()
	if err != nil {
		return err
	}
	for _, n := range counts {
		if n > 0 {
			return nil
		}
	}

	steps := []func(storage.Store) error{seedAgents, seedRoles, seedUsers, seedSettings, seedPlugins}
	for _, step := range steps {
		if err := step(store); err != nil {
			return fmt.Errorf("failed to seed store: %w", err)
		}
	}
	return nil
}

func seedAgents(store storage.Store) error {
	statuses := []types.AgentStatus{
		types.AgentStatusOnline, types.AgentStatusBusy, types.AgentStatusIdle, types.AgentStatusOffline,
	}
	for i := 1; i <= SeedAgentCount; i++ {
		a := &types.Agent{
			ID:        int64(i),
			AgentID:   fmt.Sprintf("agent-%02d", i),
			AgentName: fmt.Sprintf("builder-%02d", i),
			Address:   fmt.Sprintf("10.0.0.%d", 10+i),
			Port:      "8090",
			OS:        "linux",
			Arch:      "amd64",
			Version:   "1.4.2",
			Status:    statuses[i%len(statuses)],
			Labels:    map[string]string{"pool": "default"},
			IsEnabled: types.FlagOn,
		}
		if i%3 == 0 {
			a.Arch = "arm64"
			a.Labels["pool"] = "arm"
		}
		if err := store.CreateAgent(a); err != nil {
			return err
		}
	}
	return nil
}

func seedRoles(store storage.Store) error {
	ts := "2024-01-01T00:00:00Z"
	roles := []types.Role{
		{RoleID: "admin", Name: "Administrator", Scope: types.RoleScopeOrg, Priority: 100,
			Permissions: []string{"*"}},
		{RoleID: "user", Name: "Developer", Scope: types.RoleScopeProject, Priority: 50,
			Permissions: []string{"pipeline:read", "pipeline:run", "agent:read"}},
		{RoleID: "viewer", Name: "Viewer", Scope: types.RoleScopeProject, Priority: 10,
			Permissions: []string{"pipeline:read"}},
		{RoleID: "team-lead", Name: "Team Lead", Scope: types.RoleScopeTeam, Priority: 70,
			Permissions: []string{"pipeline:read", "pipeline:run", "pipeline:edit", "member:invite"}},
	}
	for i := range roles {
		r := &roles[i]
		r.ID = int64(i + 1)
		r.IsBuiltin = types.FlagOf(r.RoleID != "team-lead")
		r.IsEnabled = types.FlagOn
		r.CreatedAt, r.UpdatedAt = ts, ts
		if err := store.CreateRole(r); err != nil {
			return err
		}
	}
	return nil
}

func seedUsers(store storage.Store) error {
	ts := "2024-01-01T00:00:00Z"
	users := []types.User{
		{UserID: SeedAdminID, Username: "admin", FullName: "Site Admin", Email: "admin@example.com",
			Role: types.UserRoleAdmin, RoleName: "Administrator", IsSuperAdmin: types.FlagOn},
		{UserID: "u-alice", Username: "alice", FullName: "Alice Moreno", Email: "alice@example.com",
			Role: types.UserRoleUser, RoleName: "Developer"},
		{UserID: "u-bob", Username: "bob", FullName: "Bob Okafor", Email: "bob@example.com",
			Role: types.UserRoleUser, RoleName: "Developer"},
		{UserID: "u-carol", Username: "carol", FullName: "Carol Lindqvist", Email: "carol@example.com",
			Role: types.UserRoleViewer, RoleName: "Viewer"},
		{UserID: "u-dave", Username: "dave", FullName: "Dave Ito", Email: "dave@example.com",
			Role: types.UserRoleViewer, RoleName: "Viewer"},
	}
	for i := range users {
		u := &users[i]
		u.IsEnabled = types.FlagOf(u.UserID != "u-dave")
		u.CreatedAt, u.UpdatedAt = ts, ts
		u.InvitationStatus = types.InvitationAccepted
		if err := store.CreateUser(u); err != nil {
			return err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(SeedAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return store.SetPassword(SeedAdminID, hash)
}

func seedSettings(store storage.Store) error {
	min1, max65535 := 1.0, 65535.0
	minTimeout := 1.0
	tls := settings.Bool(true)
	shell := settings.String("/bin/sh")

	entries := []types.GeneralSettings{
		{
			SettingsID: "0b9a6b8e-1d4c-4f5e-9a11-000000000001", Category: "notification", Name: "smtp",
			DisplayName: "SMTP server", Description: "Outgoing mail for pipeline notifications",
			Data: settings.Object{
				"host": settings.String("smtp.example.com"),
				"port": settings.Int(587),
				"tls":  settings.Bool(true),
			},
			Schema: &settings.Schema{
				Type: settings.TypeObject,
				Properties: map[string]settings.Property{
					"host": {Type: settings.TypeString, Title: "SMTP Host"},
					"port": {Type: settings.TypeInteger, Title: "Port", Minimum: &min1, Maximum: &max65535},
					"tls":  {Type: settings.TypeBoolean, Title: "Use TLS", Default: &tls},
				},
				Required: []string{"host", "port"},
			},
		},
		{
			SettingsID: "0b9a6b8e-1d4c-4f5e-9a11-000000000002", Category: "build", Name: "defaults",
			DisplayName: "Build defaults",
			Data: settings.Object{
				"timeoutMinutes": settings.Int(60),
				"shell":          settings.String("/bin/sh"),
				"cache":          settings.String("enabled"),
			},
			Schema: &settings.Schema{
				Type: settings.TypeObject,
				Properties: map[string]settings.Property{
					"timeoutMinutes": {Type: settings.TypeInteger, Title: "Timeout (minutes)", Minimum: &minTimeout},
					"shell":          {Type: settings.TypeString, Title: "Shell", Default: &shell},
					"cache": {Type: settings.TypeString, Title: "Cache",
						Enum: []settings.Value{settings.String("enabled"), settings.String("disabled")}},
				},
				Required: []string{"timeoutMinutes"},
			},
		},
		{
			SettingsID: "0b9a6b8e-1d4c-4f5e-9a11-000000000003", Category: "notification", Name: "webhook",
			DisplayName: "Webhook",
			Data: settings.Object{
				"url":     settings.String("https://hooks.example.com/ci"),
				"retries": settings.Int(3),
			},
		},
		{
			SettingsID: "0b9a6b8e-1d4c-4f5e-9a11-000000000004", Category: "security", Name: "session",
			DisplayName: "Session",
			Data: settings.Object{
				"idleMinutes": settings.Int(30),
				"mfa":         settings.Bool(false),
			},
		},
	}
	for i := range entries {
		if err := store.CreateSettings(&entries[i]); err != nil {
			return err
		}
	}
	return nil
}

func seedPlugins(store storage.Store) error {
	plugins := []types.Plugin{
		{PluginID: "git-checkout", Name: "Git Checkout", Version: "1.0.0", PluginType: types.PluginSource},
		{PluginID: "git-checkout", Name: "Git Checkout", Version: "1.1.0", PluginType: types.PluginSource},
		{PluginID: "docker-build", Name: "Docker Build", Version: "2.3.1", PluginType: types.PluginBuild},
		{PluginID: "go-test", Name: "Go Test", Version: "0.9.0", PluginType: types.PluginTest},
		{PluginID: "helm-deploy", Name: "Helm Deploy", Version: "3.0.0", PluginType: types.PluginDeploy},
		{PluginID: "trivy-scan", Name: "Trivy Scan", Version: "0.50.0", PluginType: types.PluginSecurity},
		{PluginID: "slack-notify", Name: "Slack Notify", Version: "1.2.0", PluginType: types.PluginNotify},
	}
	for i := range plugins {
		p := &plugins[i]
		p.ID = int64(i + 1)
		p.Author = "pipectl"
		if err := store.CreatePlugin(p); err != nil {
			return err
		}
	}
	return nil
}
