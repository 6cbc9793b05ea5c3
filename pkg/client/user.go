package client

import (
	"context"
	"encoding/base64"
	"net/http"

	"github.com/cuemby/pipectl/pkg/dedupe"
	"github.com/cuemby/pipectl/pkg/events"
	"github.com/cuemby/pipectl/pkg/types"
)

const usersRoot = "/users"

func checkUsers(p string) func(types.ListUsersResponse) error {
	return func(r types.ListUsersResponse) error {
		if r.Users == nil {
			return missing(p, "users")
		}
		return nil
	}
}

// ListUsers returns one page of users. Search and Status are applied by the
// backend.
func (c *Client) ListUsers(ctx context.Context, params types.ListUsersParams) (types.ListUsersResponse, error) {
	q := map[string]any{}
	setPositive(q, "page", params.Page)
	setPositive(q, "pageSize", params.PageSize)
	setNonEmpty(q, "search", params.Search)
	setNonEmpty(q, "status", params.Status)
	key := dedupe.BuildKey(usersRoot, q)

	return read(ctx, c, c.cache, key.String(), "users", key, checkUsers(usersRoot))
}

// ListUsersByRole returns one page of the users holding a role
func (c *Client) ListUsersByRole(ctx context.Context, roleID string, page, pageSize int) (types.ListUsersResponse, error) {
	q := map[string]any{"roleId": roleID}
	setPositive(q, "page", page)
	setPositive(q, "pageSize", pageSize)
	p := usersRoot + "/by-role"
	key := dedupe.BuildKey(p, q)

	return read(ctx, c, c.cache, key.String(), "users", key, checkUsers(p))
}

// UpdateUser applies a partial update
func (c *Client) UpdateUser(ctx context.Context, userID string, req types.UpdateUserRequest) (types.User, error) {
	var out types.User
	key := dedupe.BuildKey(resourcePath(usersRoot, userID), nil)
	evt := &events.Event{Type: events.EventUserUpdated, ResourceID: userID}
	err := c.write(ctx, http.MethodPut, "users", key, req, &out, evt)
	return out, err
}

// InviteUser sends an invitation email
func (c *Client) InviteUser(ctx context.Context, req types.InviteUserRequest) error {
	key := dedupe.BuildKey(usersRoot+"/invite", nil)
	evt := &events.Event{Type: events.EventUserInvited, Message: req.Email}
	return c.write(ctx, http.MethodPost, "users", key, req, nil, evt)
}

// ResetPassword changes the signed-in user's password. Both passwords are
// sent base64 encoded.
func (c *Client) ResetPassword(ctx context.Context, oldPassword, newPassword string) error {
	key := dedupe.BuildKey(usersRoot+"/me/password", nil)
	body := map[string]string{
		"oldPassword": base64.StdEncoding.EncodeToString([]byte(oldPassword)),
		"newPassword": base64.StdEncoding.EncodeToString([]byte(newPassword)),
	}
	return c.write(ctx, http.MethodPut, "users", key, body, nil, nil)
}

// ResetUserPassword sets another user's password
func (c *Client) ResetUserPassword(ctx context.Context, userID, newPassword string) error {
	key := dedupe.BuildKey(resourcePath(usersRoot, userID, "password"), nil)
	body := map[string]string{
		"password": base64.StdEncoding.EncodeToString([]byte(newPassword)),
	}
	evt := &events.Event{Type: events.EventUserUpdated, ResourceID: userID, Message: "password reset"}
	return c.write(ctx, http.MethodPut, "users", key, body, nil, evt)
}
