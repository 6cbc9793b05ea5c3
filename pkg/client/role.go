package client

import (
	"context"
	"net/http"

	"github.com/cuemby/pipectl/pkg/dedupe"
	"github.com/cuemby/pipectl/pkg/events"
	"github.com/cuemby/pipectl/pkg/types"
)

const roleRoot = "/role"

// ListRoles returns one page of roles, optionally limited to a scope
func (c *Client) ListRoles(ctx context.Context, params types.ListRolesParams) (types.ListRolesResponse, error) {
	q := map[string]any{}
	setPositive(q, "pageNum", params.PageNum)
	setPositive(q, "pageSize", params.PageSize)
	setNonEmpty(q, "scope", string(params.Scope))
	key := dedupe.BuildKey(roleRoot, q)

	return read(ctx, c, c.cache, key.String(), "role", key, func(r types.ListRolesResponse) error {
		if r.Roles == nil {
			return missing(roleRoot, "roles")
		}
		return nil
	})
}

// GetRole returns one role
func (c *Client) GetRole(ctx context.Context, roleID string) (types.Role, error) {
	p := resourcePath(roleRoot, roleID)
	key := dedupe.BuildKey(p, nil)

	return read(ctx, c, c.cache, key.String(), "role", key, func(r types.Role) error {
		if r.RoleID == "" {
			return missing(p, "roleId")
		}
		return nil
	})
}

// RolePermissions returns the permission identifiers granted by a role
func (c *Client) RolePermissions(ctx context.Context, roleID string) ([]string, error) {
	p := resourcePath(roleRoot, roleID, "permissions")
	key := dedupe.BuildKey(p, nil)
	return read[[]string](ctx, c, c.cache, key.String(), "role", key, nil)
}

// CreateRole creates a custom role
func (c *Client) CreateRole(ctx context.Context, req types.CreateRoleRequest) (types.Role, error) {
	var out types.Role
	err := c.write(ctx, http.MethodPost, "role", dedupe.BuildKey(roleRoot, nil), req, &out, nil)
	if err != nil {
		return out, err
	}
	c.publish(events.EventRoleCreated, out.RoleID, "role "+out.Name+" created")
	return out, nil
}

// UpdateRole applies a partial update
func (c *Client) UpdateRole(ctx context.Context, roleID string, req types.UpdateRoleRequest) (types.Role, error) {
	var out types.Role
	key := dedupe.BuildKey(resourcePath(roleRoot, roleID), nil)
	evt := &events.Event{Type: events.EventRoleUpdated, ResourceID: roleID}
	err := c.write(ctx, http.MethodPut, "role", key, req, &out, evt)
	return out, err
}

// DeleteRole removes a custom role
func (c *Client) DeleteRole(ctx context.Context, roleID string) error {
	key := dedupe.BuildKey(resourcePath(roleRoot, roleID), nil)
	evt := &events.Event{Type: events.EventRoleDeleted, ResourceID: roleID}
	return c.write(ctx, http.MethodDelete, "role", key, nil, nil, evt)
}

// ToggleRole flips a role between enabled and disabled
func (c *Client) ToggleRole(ctx context.Context, roleID string) (types.Role, error) {
	var out types.Role
	key := dedupe.BuildKey(resourcePath(roleRoot, roleID, "toggle"), nil)
	evt := &events.Event{Type: events.EventRoleUpdated, ResourceID: roleID, Message: "toggled"}
	err := c.write(ctx, http.MethodPut, "role", key, nil, &out, evt)
	return out, err
}

// UpdateRolePermissions replaces the permissions granted by a role
func (c *Client) UpdateRolePermissions(ctx context.Context, roleID string, permissions []string) (types.Role, error) {
	if permissions == nil {
		permissions = []string{}
	}
	key := dedupe.BuildKey(resourcePath(roleRoot, roleID, "permissions"), nil)
	body := map[string][]string{"permissions": permissions}
	evt := &events.Event{Type: events.EventRoleUpdated, ResourceID: roleID, Message: "permissions updated"}
	var out types.Role
	err := c.write(ctx, http.MethodPut, "role", key, body, &out, evt)
	return out, err
}
