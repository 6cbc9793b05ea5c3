package stubapi

import (
	"sort"

	"github.com/cuemby/pipectl/pkg/types"
	"github.com/labstack/echo/v4"
)

func (s *Server) pluginRoutes(g *echo.Group) {
	g.GET("", s.listPlugins)
	g.GET("/:id", s.pluginVersions)
	g.GET("/:id/versions/:version", s.pluginVersion)
}

func (s *Server) pluginsWhere(pluginID string) ([]types.Plugin, error) {
	stored, err := s.store.ListPlugins()
	if err != nil {
		return nil, err
	}
	out := make([]types.Plugin, 0, len(stored))
	for _, p := range stored {
		if pluginID == "" || p.PluginID == pluginID {
			out = append(out, *p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Server) listPlugins(c echo.Context) error {
	plugins, err := s.pluginsWhere(c.QueryParam("pluginId"))
	if err != nil {
		return storeError("plugins", "", err)
	}
	return ok(c, types.ListPluginsResponse{Plugins: plugins, Count: len(plugins)})
}

func (s *Server) pluginVersions(c echo.Context) error {
	id := param(c, "id")
	versions, err := s.pluginsWhere(id)
	if err != nil {
		return storeError("plugins", "", err)
	}
	if len(versions) == 0 {
		return notFound("plugin", id)
	}
	return ok(c, types.PluginVersionsResponse{PluginID: id, Versions: versions, Count: len(versions)})
}

func (s *Server) pluginVersion(c echo.Context) error {
	id, version := param(c, "id"), param(c, "version")
	versions, err := s.pluginsWhere(id)
	if err != nil {
		return storeError("plugins", "", err)
	}
	for _, p := range versions {
		if p.Version == version {
			return ok(c, p)
		}
	}
	return notFound("plugin", id+"@"+version)
}
