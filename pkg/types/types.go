package types

import (
	"fmt"
	"strconv"
)

// AgentStatus is the reported state of a build agent
type AgentStatus int

const (
	AgentStatusUnknown AgentStatus = 0
	AgentStatusOnline  AgentStatus = 1
	AgentStatusOffline AgentStatus = 2
	AgentStatusBusy    AgentStatus = 3
	AgentStatusIdle    AgentStatus = 4
)

var agentStatusNames = map[AgentStatus]string{
	AgentStatusUnknown: "unknown",
	AgentStatusOnline:  "online",
	AgentStatusOffline: "offline",
	AgentStatusBusy:    "busy",
	AgentStatusIdle:    "idle",
}

func (s AgentStatus) String() string {
	if name, ok := agentStatusNames[s]; ok {
		return name
	}
	return agentStatusNames[AgentStatusUnknown]
}

// ParseAgentStatus accepts either the numeric code or the status name
func ParseAgentStatus(s string) (AgentStatus, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if _, ok := agentStatusNames[AgentStatus(n)]; ok {
			return AgentStatus(n), nil
		}
		return 0, fmt.Errorf("unknown agent status code %d", n)
	}
	for status, name := range agentStatusNames {
		if name == s {
			return status, nil
		}
	}
	return 0, fmt.Errorf("unknown agent status %q", s)
}

// Flag is the 0/1 integer the backend uses for booleans
type Flag int

const (
	FlagOff Flag = 0
	FlagOn  Flag = 1
)

func (f Flag) Bool() bool { return f == FlagOn }

// FlagOf converts a bool into a Flag
func FlagOf(b bool) Flag {
	if b {
		return FlagOn
	}
	return FlagOff
}

// Agent is a registered build agent
type Agent struct {
	ID        int64             `json:"id"`
	AgentID   string            `json:"agentId"`
	AgentName string            `json:"agentName"`
	Address   string            `json:"address"`
	Port      string            `json:"port"`
	OS        string            `json:"os"`
	Arch      string            `json:"arch"`
	Version   string            `json:"version"`
	Status    AgentStatus       `json:"status"`
	Labels    map[string]string `json:"labels"`
	Metrics   string            `json:"metrics"`
	IsEnabled Flag              `json:"isEnabled"`
}

// CreateAgentRequest registers a new agent
type CreateAgentRequest struct {
	AgentName string            `json:"agentName" yaml:"agentName"`
	Status    *AgentStatus      `json:"status,omitempty" yaml:"status,omitempty"`
	Labels    map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// CreateAgentResponse carries the one-time communication token
type CreateAgentResponse struct {
	Agent
	Token string `json:"token"`
}

// UpdateAgentRequest is a partial update; nil fields are left untouched
type UpdateAgentRequest struct {
	AgentName *string           `json:"agentName,omitempty" yaml:"agentName,omitempty"`
	Address   *string           `json:"address,omitempty" yaml:"address,omitempty"`
	Port      *string           `json:"port,omitempty" yaml:"port,omitempty"`
	OS        *string           `json:"os,omitempty" yaml:"os,omitempty"`
	Arch      *string           `json:"arch,omitempty" yaml:"arch,omitempty"`
	Version   *string           `json:"version,omitempty" yaml:"version,omitempty"`
	Status    *AgentStatus      `json:"status,omitempty" yaml:"status,omitempty"`
	Labels    map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Metrics   *string           `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	IsEnabled *Flag             `json:"isEnabled,omitempty" yaml:"isEnabled,omitempty"`
}

// ListAgentsParams selects one page of agents
type ListAgentsParams struct {
	PageNum  int
	PageSize int
}

// ListAgentsResponse is one page of agents
type ListAgentsResponse struct {
	Agents   []Agent `json:"agents"`
	Count    int     `json:"count"`
	PageNum  int     `json:"pageNum"`
	PageSize int     `json:"pageSize"`
}

// AgentStatistics summarises agent availability
type AgentStatistics struct {
	Total   int `json:"total"`
	Online  int `json:"online"`
	Offline int `json:"offline"`
}

// RoleScope is the level a role applies to
type RoleScope string

const (
	RoleScopeProject RoleScope = "project"
	RoleScopeTeam    RoleScope = "team"
	RoleScopeOrg     RoleScope = "org"
)

// Role is a named permission set
type Role struct {
	ID          int64     `json:"id"`
	RoleID      string    `json:"roleId"`
	Name        string    `json:"name"`
	DisplayName string    `json:"displayName,omitempty"`
	Description string    `json:"description,omitempty"`
	Scope       RoleScope `json:"scope"`
	OrgID       string    `json:"orgId,omitempty"`
	IsBuiltin   Flag      `json:"isBuiltin"`
	IsEnabled   Flag      `json:"isEnabled"`
	Priority    int       `json:"priority"`
	Permissions []string  `json:"permissions,omitempty"`
	CreatedBy   string    `json:"createdBy,omitempty"`
	CreatedAt   string    `json:"createdAt"`
	UpdatedAt   string    `json:"updatedAt"`
}

// CreateRoleRequest creates a custom role
type CreateRoleRequest struct {
	RoleID      string    `json:"roleId" yaml:"roleId"`
	Name        string    `json:"name" yaml:"name"`
	DisplayName string    `json:"displayName,omitempty" yaml:"displayName,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Scope       RoleScope `json:"scope,omitempty" yaml:"scope,omitempty"`
	OrgID       string    `json:"orgId,omitempty" yaml:"orgId,omitempty"`
	Priority    *int      `json:"priority,omitempty" yaml:"priority,omitempty"`
	Permissions []string  `json:"permissions,omitempty" yaml:"permissions,omitempty"`
	IsEnabled   *Flag     `json:"isEnabled,omitempty" yaml:"isEnabled,omitempty"`
}

// UpdateRoleRequest is a partial update of a role
type UpdateRoleRequest struct {
	Name        *string    `json:"name,omitempty" yaml:"name,omitempty"`
	DisplayName *string    `json:"displayName,omitempty" yaml:"displayName,omitempty"`
	Description *string    `json:"description,omitempty" yaml:"description,omitempty"`
	Scope       *RoleScope `json:"scope,omitempty" yaml:"scope,omitempty"`
	Priority    *int       `json:"priority,omitempty" yaml:"priority,omitempty"`
	Permissions []string   `json:"permissions,omitempty" yaml:"permissions,omitempty"`
	IsEnabled   *Flag      `json:"isEnabled,omitempty" yaml:"isEnabled,omitempty"`
}

// ListRolesParams selects one page of roles
type ListRolesParams struct {
	PageNum  int
	PageSize int
	Scope    RoleScope
}

// ListRolesResponse is one page of roles. Older backends report the row
// count in Total, newer ones in Count.
type ListRolesResponse struct {
	Roles    []Role `json:"roles"`
	Count    *int   `json:"count,omitempty"`
	Total    int    `json:"total"`
	PageNum  int    `json:"pageNum"`
	PageSize int    `json:"pageSize"`
}

// TotalCount returns the number of roles matching the query
func (r ListRolesResponse) TotalCount() int {
	if r.Count != nil {
		return *r.Count
	}
	return r.Total
}

// UserRole is the coarse role label shown for a user
type UserRole string

const (
	UserRoleAdmin  UserRole = "admin"
	UserRoleUser   UserRole = "user"
	UserRoleViewer UserRole = "viewer"
)

// InvitationStatus tracks an invited user
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationExpired  InvitationStatus = "expired"
	InvitationRevoked  InvitationStatus = "revoked"
)

// User is a console user account
type User struct {
	UserID           string           `json:"userId"`
	Username         string           `json:"username"`
	FullName         string           `json:"fullName,omitempty"`
	Email            string           `json:"email"`
	Phone            string           `json:"phone,omitempty"`
	Avatar           string           `json:"avatar,omitempty"`
	Role             UserRole         `json:"role,omitempty"`
	RoleName         string           `json:"roleName,omitempty"`
	IsEnabled        Flag             `json:"isEnabled"`
	IsSuperAdmin     Flag             `json:"isSuperAdmin"`
	CreatedAt        string           `json:"createdAt,omitempty"`
	UpdatedAt        string           `json:"updatedAt,omitempty"`
	LastLoginAt      *string          `json:"lastLoginAt,omitempty"`
	InvitationStatus InvitationStatus `json:"invitationStatus,omitempty"`
}

// UpdateUserRequest is a partial update of a user
type UpdateUserRequest struct {
	Username  *string   `json:"username,omitempty"`
	Email     *string   `json:"email,omitempty"`
	FullName  *string   `json:"fullName,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Role      *UserRole `json:"role,omitempty"`
	IsEnabled *Flag     `json:"isEnabled,omitempty"`
}

// InviteUserRequest invites a user by email
type InviteUserRequest struct {
	Email string   `json:"email"`
	Role  UserRole `json:"role,omitempty"`
}

// User status filter values accepted by the backend
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// ListUsersParams selects one page of users
type ListUsersParams struct {
	Page     int
	PageSize int
	Search   string
	Status   string
}

// ListUsersResponse is one page of users
type ListUsersResponse struct {
	Users    []User `json:"users"`
	Count    int    `json:"count"`
	PageNum  int    `json:"pageNum"`
	PageSize int    `json:"pageSize"`
}

// PluginType classifies what a pipeline plugin does
type PluginType string

const (
	PluginSource      PluginType = "source"
	PluginBuild       PluginType = "build"
	PluginTest        PluginType = "test"
	PluginDeploy      PluginType = "deploy"
	PluginSecurity    PluginType = "security"
	PluginNotify      PluginType = "notify"
	PluginApproval    PluginType = "approval"
	PluginStorage     PluginType = "storage"
	PluginAnalytics   PluginType = "analytics"
	PluginIntegration PluginType = "integration"
	PluginCustom      PluginType = "custom"
)

// Plugin is one version of a pipeline plugin
type Plugin struct {
	ID          int64      `json:"id"`
	PluginID    string     `json:"pluginId"`
	Name        string     `json:"name"`
	Version     string     `json:"version"`
	Description string     `json:"description,omitempty"`
	Author      string     `json:"author,omitempty"`
	PluginType  PluginType `json:"pluginType"`
	Repository  string     `json:"repository,omitempty"`
}

// ListPluginsResponse lists plugins
type ListPluginsResponse struct {
	Plugins []Plugin `json:"plugins"`
	Count   int      `json:"count"`
}

// PluginVersionsResponse lists every version of one plugin
type PluginVersionsResponse struct {
	PluginID string   `json:"pluginId"`
	Versions []Plugin `json:"versions"`
	Count    int      `json:"count"`
}
