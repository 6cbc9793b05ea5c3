package stubapi

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/cuemby/pipectl/pkg/storage"
	"github.com/cuemby/pipectl/pkg/types"
	"github.com/labstack/echo/v4"
)

func (s *Server) roleRoutes(g *echo.Group) {
	g.GET("", s.listRoles)
	g.POST("", s.createRole)
	g.GET("/:id", s.getRole)
	g.PUT("/:id", s.updateRole)
	g.DELETE("/:id", s.deleteRole)
	g.PUT("/:id/toggle", s.toggleRole)
	g.GET("/:id/permissions", s.rolePermissions)
	g.PUT("/:id/permissions", s.updateRolePermissions)
}

func validScope(scope types.RoleScope) bool {
	switch scope {
	case types.RoleScopeProject, types.RoleScopeTeam, types.RoleScopeOrg:
		return true
	}
	return false
}

func (s *Server) listRoles(c echo.Context) error {
	p, err := pageParams(c, "pageNum")
	if err != nil {
		return err
	}
	scope := types.RoleScope(c.QueryParam("scope"))
	if scope != "" && !validScope(scope) {
		return badRequest("unknown scope " + string(scope))
	}

	stored, err := s.store.ListRoles()
	if err != nil {
		return storeError("roles", "", err)
	}
	roles := make([]types.Role, 0, len(stored))
	for _, r := range stored {
		if scope == "" || r.Scope == scope {
			roles = append(roles, *r)
		}
	}
	// highest priority first, as the console lists them
	sort.SliceStable(roles, func(i, j int) bool {
		if roles[i].Priority != roles[j].Priority {
			return roles[i].Priority > roles[j].Priority
		}
		return roles[i].ID < roles[j].ID
	})

	total := len(roles)
	return ok(c, types.ListRolesResponse{
		Roles:    slice(roles, p),
		Count:    &total,
		Total:    total,
		PageNum:  p.num,
		PageSize: p.size,
	})
}

func (s *Server) getRole(c echo.Context) error {
	id := param(c, "id")
	r, err := s.store.GetRole(id)
	if err != nil {
		return storeError("role", id, err)
	}
	return ok(c, r)
}

func (s *Server) rolePermissions(c echo.Context) error {
	id := param(c, "id")
	r, err := s.store.GetRole(id)
	if err != nil {
		return storeError("role", id, err)
	}
	perms := r.Permissions
	if perms == nil {
		perms = []string{}
	}
	return ok(c, perms)
}

func (s *Server) createRole(c echo.Context) error {
	var req types.CreateRoleRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid role body")
	}
	req.RoleID = strings.TrimSpace(req.RoleID)
	if req.RoleID == "" || strings.TrimSpace(req.Name) == "" {
		return badRequest("roleId and name are required")
	}
	if req.Scope == "" {
		req.Scope = types.RoleScopeProject
	}
	if !validScope(req.Scope) {
		return badRequest("unknown scope " + string(req.Scope))
	}

	s.writes.Lock()
	defer s.writes.Unlock()

	if _, err := s.store.GetRole(req.RoleID); err == nil {
		return echo.NewHTTPError(http.StatusConflict, "role "+req.RoleID+" already exists")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return storeError("role", req.RoleID, err)
	}

	stored, err := s.store.ListRoles()
	if err != nil {
		return storeError("roles", "", err)
	}
	var next int64 = 1
	for _, r := range stored {
		next = max(next, r.ID+1)
	}

	ts := now()
	r := types.Role{
		ID:          next,
		RoleID:      req.RoleID,
		Name:        req.Name,
		DisplayName: req.DisplayName,
		Description: req.Description,
		Scope:       req.Scope,
		OrgID:       req.OrgID,
		IsBuiltin:   types.FlagOff,
		IsEnabled:   types.FlagOn,
		Permissions: req.Permissions,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	setIf(&r.Priority, req.Priority)
	setIf(&r.IsEnabled, req.IsEnabled)

	if err := s.store.CreateRole(&r); err != nil {
		return storeError("role", r.RoleID, err)
	}
	return created(c, r)
}

// modifyRole runs fn over a stored role and saves the result
func (s *Server) modifyRole(c echo.Context, fn func(r *types.Role) error) error {
	id := param(c, "id")

	s.writes.Lock()
	defer s.writes.Unlock()

	r, err := s.store.GetRole(id)
	if err != nil {
		return storeError("role", id, err)
	}
	if err := fn(r); err != nil {
		return err
	}
	r.UpdatedAt = now()
	if err := s.store.UpdateRole(r); err != nil {
		return storeError("role", id, err)
	}
	return ok(c, r)
}

func (s *Server) updateRole(c echo.Context) error {
	var req types.UpdateRoleRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid role body")
	}
	return s.modifyRole(c, func(r *types.Role) error {
		if req.Scope != nil && !validScope(*req.Scope) {
			return badRequest("unknown scope " + string(*req.Scope))
		}
		if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
			return badRequest("name cannot be empty")
		}
		setIf(&r.Name, req.Name)
		setIf(&r.DisplayName, req.DisplayName)
		setIf(&r.Description, req.Description)
		setIf(&r.Scope, req.Scope)
		setIf(&r.Priority, req.Priority)
		setIf(&r.IsEnabled, req.IsEnabled)
		if req.Permissions != nil {
			r.Permissions = req.Permissions
		}
		return nil
	})
}

func (s *Server) toggleRole(c echo.Context) error {
	return s.modifyRole(c, func(r *types.Role) error {
		r.IsEnabled = types.FlagOf(!r.IsEnabled.Bool())
		return nil
	})
}

func (s *Server) updateRolePermissions(c echo.Context) error {
	var req struct {
		Permissions []string `json:"permissions"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid permissions body")
	}
	return s.modifyRole(c, func(r *types.Role) error {
		if req.Permissions == nil {
			req.Permissions = []string{}
		}
		r.Permissions = req.Permissions
		return nil
	})
}

func (s *Server) deleteRole(c echo.Context) error {
	id := param(c, "id")

	s.writes.Lock()
	defer s.writes.Unlock()

	r, err := s.store.GetRole(id)
	if err != nil {
		return storeError("role", id, err)
	}
	if r.IsBuiltin.Bool() {
		return echo.NewHTTPError(http.StatusForbidden, "built-in role "+id+" cannot be deleted")
	}
	if err := s.store.DeleteRole(id); err != nil {
		return storeError("role", id, err)
	}
	return ok(c, nil)
}
