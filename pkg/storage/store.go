package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cuemby/pipectl/pkg/types"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("record not found")

// Store holds the records served by the development backend
type Store interface {
	// Agents, keyed by AgentID
	CreateAgent(agent *types.Agent) error
	GetAgent(agentID string) (*types.Agent, error)
	ListAgents() ([]*types.Agent, error)
	UpdateAgent(agent *types.Agent) error
	DeleteAgent(agentID string) error

	// Roles, keyed by RoleID
	CreateRole(role *types.Role) error
	GetRole(roleID string) (*types.Role, error)
	ListRoles() ([]*types.Role, error)
	UpdateRole(role *types.Role) error
	DeleteRole(roleID string) error

	// Users, keyed by UserID
	CreateUser(user *types.User) error
	GetUser(userID string) (*types.User, error)
	ListUsers() ([]*types.User, error)
	UpdateUser(user *types.User) error

	// Credentials, keyed by UserID
	SetPassword(userID string, hash []byte) error
	GetPassword(userID string) ([]byte, error)

	// General settings, keyed by SettingsID
	CreateSettings(s *types.GeneralSettings) error
	GetSettings(settingsID string) (*types.GeneralSettings, error)
	ListSettings() ([]*types.GeneralSettings, error)
	UpdateSettings(s *types.GeneralSettings) error

	// Plugins, keyed by PluginID and Version
	CreatePlugin(p *types.Plugin) error
	ListPlugins() ([]*types.Plugin, error)

	// Counts returns the number of records per bucket
	Counts() (map[string]int, error)

	// Utility
	Close() error
}

// Bucket names, shared by every backend
const (
	BucketAgents      = "agents"
	BucketRoles       = "roles"
	BucketUsers       = "users"
	BucketCredentials = "credentials"
	BucketSettings    = "settings"
	BucketPlugins     = "plugins"
)

var buckets = []string{BucketAgents, BucketRoles, BucketUsers, BucketCredentials, BucketSettings, BucketPlugins}

// kv is the raw byte storage a Store is built on. list returns values in
// key order.
type kv interface {
	put(bucket, key string, value []byte) error
	get(bucket, key string) ([]byte, error)
	list(bucket string) ([][]byte, error)
	remove(bucket, key string) error
	count(bucket string) (int, error)
	close() error
}

// store implements Store on top of a kv by encoding records as JSON
type store struct {
	kv kv
}

func put[T any](s *store, bucket, key string, v *T) error {
	if key == "" {
		return fmt.Errorf("%s: empty key", bucket)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.kv.put(bucket, key, data)
}

func get[T any](s *store, bucket, key string) (*T, error) {
	data, err := s.kv.get(bucket, key)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("%s %s: %w", bucket, key, ErrNotFound)
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func list[T any](s *store, bucket string) ([]*T, error) {
	raw, err := s.kv.list(bucket)
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(raw))
	for _, data := range raw {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, nil
}

func (s *store) mustExist(bucket, key string) error {
	data, err := s.kv.get(bucket, key)
	if err != nil {
		return err
	}
	if data == nil {
		return fmt.Errorf("%s %s: %w", bucket, key, ErrNotFound)
	}
	return nil
}

func (s *store) delete(bucket, key string) error {
	if err := s.mustExist(bucket, key); err != nil {
		return err
	}
	return s.kv.remove(bucket, key)
}

func (s *store) CreateAgent(a *types.Agent) error { return put(s, BucketAgents, a.AgentID, a) }

func (s *store) GetAgent(id string) (*types.Agent, error) {
	return get[types.Agent](s, BucketAgents, id)
}

func (s *store) ListAgents() ([]*types.Agent, error) { return list[types.Agent](s, BucketAgents) }

func (s *store) UpdateAgent(a *types.Agent) error {
	if err := s.mustExist(BucketAgents, a.AgentID); err != nil {
		return err
	}
	return put(s, BucketAgents, a.AgentID, a)
}

func (s *store) DeleteAgent(id string) error { return s.delete(BucketAgents, id) }

func (s *store) CreateRole(r *types.Role) error { return put(s, BucketRoles, r.RoleID, r) }

func (s *store) GetRole(id string) (*types.Role, error) {
	return get[types.Role](s, BucketRoles, id)
}

func (s *store) ListRoles() ([]*types.Role, error) { return list[types.Role](s, BucketRoles) }

func (s *store) UpdateRole(r *types.Role) error {
	if err := s.mustExist(BucketRoles, r.RoleID); err != nil {
		return err
	}
	return put(s, BucketRoles, r.RoleID, r)
}

func (s *store) DeleteRole(id string) error { return s.delete(BucketRoles, id) }

func (s *store) CreateUser(u *types.User) error { return put(s, BucketUsers, u.UserID, u) }

func (s *store) GetUser(id string) (*types.User, error) {
	return get[types.User](s, BucketUsers, id)
}

func (s *store) ListUsers() ([]*types.User, error) { return list[types.User](s, BucketUsers) }

func (s *store) UpdateUser(u *types.User) error {
	if err := s.mustExist(BucketUsers, u.UserID); err != nil {
		return err
	}
	return put(s, BucketUsers, u.UserID, u)
}

func (s *store) SetPassword(userID string, hash []byte) error {
	return s.kv.put(BucketCredentials, userID, hash)
}

func (s *store) GetPassword(userID string) ([]byte, error) {
	hash, err := s.kv.get(BucketCredentials, userID)
	if err != nil {
		return nil, err
	}
	if hash == nil {
		return nil, fmt.Errorf("credentials %s: %w", userID, ErrNotFound)
	}
	return hash, nil
}

func (s *store) CreateSettings(g *types.GeneralSettings) error {
	return put(s, BucketSettings, g.SettingsID, g)
}

func (s *store) GetSettings(id string) (*types.GeneralSettings, error) {
	return get[types.GeneralSettings](s, BucketSettings, id)
}

func (s *store) ListSettings() ([]*types.GeneralSettings, error) {
	return list[types.GeneralSettings](s, BucketSettings)
}

func (s *store) UpdateSettings(g *types.GeneralSettings) error {
	if err := s.mustExist(BucketSettings, g.SettingsID); err != nil {
		return err
	}
	return put(s, BucketSettings, g.SettingsID, g)
}

// PluginKey is the storage key of one plugin version
func PluginKey(pluginID, version string) string {
	return pluginID + "@" + version
}

func (s *store) CreatePlugin(p *types.Plugin) error {
	return put(s, BucketPlugins, PluginKey(p.PluginID, p.Version), p)
}

func (s *store) ListPlugins() ([]*types.Plugin, error) { return list[types.Plugin](s, BucketPlugins) }

func (s *store) Counts() (map[string]int, error) {
	out := make(map[string]int, len(buckets))
	for _, b := range buckets {
		n, err := s.kv.count(b)
		if err != nil {
			return nil, err
		}
		out[b] = n
	}
	return out, nil
}

func (s *store) Close() error { return s.kv.close() }

