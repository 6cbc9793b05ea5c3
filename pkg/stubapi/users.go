package stubapi

import (
	"encoding/base64"
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/cuemby/pipectl/pkg/storage"
	"github.com/cuemby/pipectl/pkg/types"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password the backend accepts
const MinPasswordLength = 8

func (s *Server) userRoutes(g *echo.Group) {
	g.GET("", s.listUsers)
	g.GET("/by-role", s.listUsersByRole)
	g.POST("/invite", s.inviteUser)
	g.PUT("/me/password", s.resetOwnPassword)
	g.PUT("/:id", s.updateUser)
	g.PUT("/:id/password", s.resetUserPassword)
}

func (s *Server) usersWhere(keep func(u *types.User) bool) ([]types.User, error) {
	stored, err := s.store.ListUsers()
	if err != nil {
		return nil, err
	}
	out := make([]types.User, 0, len(stored))
	for _, u := range stored {
		if keep(u) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func userPage(c echo.Context, users []types.User, p page) error {
	return ok(c, types.ListUsersResponse{
		Users:    slice(users, p),
		Count:    len(users),
		PageNum:  p.num,
		PageSize: p.size,
	})
}

func (s *Server) listUsers(c echo.Context) error {
	p, err := pageParams(c, "page")
	if err != nil {
		return err
	}
	search := strings.ToLower(strings.TrimSpace(c.QueryParam("search")))
	status := c.QueryParam("status")
	switch status {
	case "", types.UserStatusActive, types.UserStatusInactive:
	default:
		return badRequest("unknown status " + status)
	}

	users, err := s.usersWhere(func(u *types.User) bool {
		if status == types.UserStatusActive && !u.IsEnabled.Bool() {
			return false
		}
		if status == types.UserStatusInactive && u.IsEnabled.Bool() {
			return false
		}
		if search == "" {
			return true
		}
		for _, field := range []string{u.Username, u.Email, u.FullName} {
			if strings.Contains(strings.ToLower(field), search) {
				return true
			}
		}
		return false
	})
	if err != nil {
		return storeError("users", "", err)
	}
	return userPage(c, users, p)
}

func (s *Server) listUsersByRole(c echo.Context) error {
	p, err := pageParams(c, "page")
	if err != nil {
		return err
	}
	roleID := c.QueryParam("roleId")
	if roleID == "" {
		return badRequest("roleId is required")
	}
	users, err := s.usersWhere(func(u *types.User) bool {
		return string(u.Role) == roleID
	})
	if err != nil {
		return storeError("users", "", err)
	}
	return userPage(c, users, p)
}

func (s *Server) updateUser(c echo.Context) error {
	id := param(c, "id")
	var req types.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid user body")
	}
	if req.Email != nil && !strings.Contains(*req.Email, "@") {
		return badRequest("invalid email " + *req.Email)
	}

	s.writes.Lock()
	defer s.writes.Unlock()

	u, err := s.store.GetUser(id)
	if err != nil {
		return storeError("user", id, err)
	}
	setIf(&u.Username, req.Username)
	setIf(&u.Email, req.Email)
	setIf(&u.FullName, req.FullName)
	setIf(&u.Phone, req.Phone)
	setIf(&u.Role, req.Role)
	setIf(&u.IsEnabled, req.IsEnabled)
	u.UpdatedAt = now()

	if err := s.store.UpdateUser(u); err != nil {
		return storeError("user", id, err)
	}
	return ok(c, u)
}

func (s *Server) inviteUser(c echo.Context) error {
	var req types.InviteUserRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid invitation body")
	}
	local, _, found := strings.Cut(req.Email, "@")
	if !found || local == "" {
		return badRequest("invalid email " + req.Email)
	}
	if req.Role == "" {
		req.Role = types.UserRoleUser
	}

	s.writes.Lock()
	defer s.writes.Unlock()

	existing, err := s.usersWhere(func(u *types.User) bool {
		return strings.EqualFold(u.Email, req.Email)
	})
	if err != nil {
		return storeError("users", "", err)
	}
	if len(existing) > 0 {
		return echo.NewHTTPError(http.StatusConflict, "user "+req.Email+" already exists")
	}

	ts := now()
	u := types.User{
		UserID:           uuid.NewString(),
		Username:         local,
		Email:            req.Email,
		Role:             req.Role,
		IsEnabled:        types.FlagOff,
		CreatedAt:        ts,
		UpdatedAt:        ts,
		InvitationStatus: types.InvitationPending,
	}
	if err := s.store.CreateUser(&u); err != nil {
		return storeError("user", u.UserID, err)
	}
	s.logger.Info().Str("email", req.Email).Msg("User invited")
	return ok(c, nil)
}

// decodePassword reverses the base64 encoding the console applies to
// passwords in transit
func decodePassword(field, encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", badRequest(field + " must be base64 encoded")
	}
	return string(raw), nil
}

func (s *Server) setPassword(userID, password string) error {
	if len(password) < MinPasswordLength {
		return badRequest("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to hash password").SetInternal(err)
	}
	if err := s.store.SetPassword(userID, hash); err != nil {
		return storeError("user", userID, err)
	}
	return nil
}

func (s *Server) resetOwnPassword(c echo.Context) error {
	var req struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid password body")
	}
	oldPassword, err := decodePassword("oldPassword", req.OldPassword)
	if err != nil {
		return err
	}
	newPassword, err := decodePassword("newPassword", req.NewPassword)
	if err != nil {
		return err
	}

	s.writes.Lock()
	defer s.writes.Unlock()

	id := s.opts.CurrentUserID
	hash, err := s.store.GetPassword(id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		// accounts without a password accept any old password
	case err != nil:
		return storeError("user", id, err)
	default:
		if bcrypt.CompareHashAndPassword(hash, []byte(oldPassword)) != nil {
			return badRequest("old password is incorrect")
		}
	}

	if err := s.setPassword(id, newPassword); err != nil {
		return err
	}
	return ok(c, nil)
}

func (s *Server) resetUserPassword(c echo.Context) error {
	id := param(c, "id")
	var req struct {
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid password body")
	}
	password, err := decodePassword("password", req.Password)
	if err != nil {
		return err
	}

	s.writes.Lock()
	defer s.writes.Unlock()

	if _, err := s.store.GetUser(id); err != nil {
		return storeError("user", id, err)
	}
	if err := s.setPassword(id, password); err != nil {
		return err
	}
	return ok(c, nil)
}
