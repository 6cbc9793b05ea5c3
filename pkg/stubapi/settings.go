package stubapi

import (
	"net/http"
	"sort"

	"github.com/cuemby/pipectl/pkg/settings"
	"github.com/cuemby/pipectl/pkg/types"
	"github.com/labstack/echo/v4"
)

func (s *Server) settingsRoutes(g *echo.Group) {
	g.GET("", s.listSettings)
	g.GET("/categories", s.settingsCategories)
	g.GET("/by-name/:category/:name", s.getSettingsByName)
	g.GET("/:id", s.getSettings)
	g.PUT("/:id", s.updateSettings)
}

func (s *Server) sortedSettings() ([]types.GeneralSettings, error) {
	stored, err := s.store.ListSettings()
	if err != nil {
		return nil, err
	}
	out := make([]types.GeneralSettings, len(stored))
	for i, g := range stored {
		out[i] = *g
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SettingsID < out[j].SettingsID })
	return out, nil
}

func (s *Server) listSettings(c echo.Context) error {
	p, err := pageParams(c, "pageNum")
	if err != nil {
		return err
	}
	all, err := s.sortedSettings()
	if err != nil {
		return storeError("settings", "", err)
	}

	category := c.QueryParam("category")
	list := all[:0:0]
	for _, g := range all {
		if category == "" || g.Category == category {
			list = append(list, g)
		}
	}
	return ok(c, types.ListSettingsResponse{
		List:     slice(list, p),
		Total:    len(list),
		PageNum:  p.num,
		PageSize: p.size,
	})
}

func (s *Server) settingsCategories(c echo.Context) error {
	all, err := s.sortedSettings()
	if err != nil {
		return storeError("settings", "", err)
	}
	return ok(c, types.Categories(all))
}

func (s *Server) getSettings(c echo.Context) error {
	id := param(c, "id")
	g, err := s.store.GetSettings(id)
	if err != nil {
		return storeError("settings", id, err)
	}
	return ok(c, g)
}

func (s *Server) getSettingsByName(c echo.Context) error {
	category, name := param(c, "category"), param(c, "name")
	all, err := s.sortedSettings()
	if err != nil {
		return storeError("settings", "", err)
	}
	for _, g := range all {
		if g.Category == category && g.Name == name {
			return ok(c, g)
		}
	}
	return notFound("settings", category+"/"+name)
}

func (s *Server) updateSettings(c echo.Context) error {
	id := param(c, "id")
	var req types.UpdateSettingsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid settings body")
	}

	s.writes.Lock()
	defer s.writes.Unlock()

	g, err := s.store.GetSettings(id)
	if err != nil {
		return storeError("settings", id, err)
	}
	if req.Schema != nil {
		g.Schema = req.Schema
	}
	if req.Data != nil {
		if err := g.Schema.Validate(req.Data); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		g.Data = req.Data
	} else if req.Schema != nil {
		// a new schema must still accept the stored data
		if err := g.Schema.Validate(g.Data); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	setIf(&g.DisplayName, req.DisplayName)
	setIf(&g.Description, req.Description)
	if g.Data == nil {
		g.Data = settings.Object{}
	}

	if err := s.store.UpdateSettings(g); err != nil {
		return storeError("settings", id, err)
	}
	return ok(c, g)
}
