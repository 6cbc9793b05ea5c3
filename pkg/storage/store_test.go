package storage

import (
	"testing"

	"github.com/cuemby/pipectl/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	bolt, err := NewBoltStore(t.TempDir())
	require.NoError(t, err)

	out := map[string]Store{"memory": NewMemoryStore(), "bolt": bolt}
	t.Cleanup(func() {
		for _, s := range out {
			_ = s.Close()
		}
	})
	return out
}

func TestAgentLifecycle(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.CreateAgent(&types.Agent{ID: 2, AgentID: "b", AgentName: "second"}))
			require.NoError(t, s.CreateAgent(&types.Agent{ID: 1, AgentID: "a", AgentName: "first"}))

			got, err := s.GetAgent("a")
			require.NoError(t, err)
			assert.Equal(t, "first", got.AgentName)

			all, err := s.ListAgents()
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, "a", all[0].AgentID, "listed in key order")

			got.AgentName = "renamed"
			require.NoError(t, s.UpdateAgent(got))
			again, err := s.GetAgent("a")
			require.NoError(t, err)
			assert.Equal(t, "renamed", again.AgentName)

			require.NoError(t, s.DeleteAgent("a"))
			_, err = s.GetAgent("a")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, s.DeleteAgent("a"), ErrNotFound)
			assert.ErrorIs(t, s.UpdateAgent(&types.Agent{AgentID: "zzz"}), ErrNotFound)
		})
	}
}

func TestRecordsAreCopied(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			role := &types.Role{RoleID: "r1", Permissions: []string{"read"}}
			require.NoError(t, s.CreateRole(role))
			role.Permissions[0] = "write"

			got, err := s.GetRole("r1")
			require.NoError(t, err)
			assert.Equal(t, []string{"read"}, got.Permissions)
		})
	}
}

func TestEmptyKeyRejected(t *testing.T) {
	s := NewMemoryStore()
	assert.Error(t, s.CreateUser(&types.User{Username: "nokey"}))
}

func TestCredentialsAndCounts(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.GetPassword("u1")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.SetPassword("u1", []byte("hash")))
			hash, err := s.GetPassword("u1")
			require.NoError(t, err)
			assert.Equal(t, []byte("hash"), hash)

			require.NoError(t, s.CreatePlugin(&types.Plugin{PluginID: "git", Version: "1.0.0"}))
			require.NoError(t, s.CreatePlugin(&types.Plugin{PluginID: "git", Version: "1.1.0"}))
			require.NoError(t, s.CreateSettings(&types.GeneralSettings{SettingsID: "s1"}))

			counts, err := s.Counts()
			require.NoError(t, err)
			assert.Equal(t, 2, counts[BucketPlugins])
			assert.Equal(t, 1, counts[BucketSettings])
			assert.Equal(t, 1, counts[BucketCredentials])
			assert.Equal(t, 0, counts[BucketAgents])
		})
	}
}

func TestBoltStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := NewBoltStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.CreateUser(&types.User{UserID: "u1", Username: "ann"}))
	require.NoError(t, s.Close())

	s, err = NewBoltStore(dir)
	require.NoError(t, err)
	defer s.Close()

	u, err := s.GetUser("u1")
	require.NoError(t, err)
	assert.Equal(t, "ann", u.Username)
}
