package client

import (
	"context"

	"github.com/cuemby/pipectl/pkg/dedupe"
	"github.com/cuemby/pipectl/pkg/types"
)

const pluginsRoot = "/plugins"

// ListPlugins lists plugins, optionally only the versions of one plugin id
func (c *Client) ListPlugins(ctx context.Context, pluginID string) (types.ListPluginsResponse, error) {
	q := map[string]any{}
	setNonEmpty(q, "pluginId", pluginID)
	key := dedupe.BuildKey(pluginsRoot, q)

	return read(ctx, c, c.cache, key.String(), "plugins", key, func(r types.ListPluginsResponse) error {
		if r.Plugins == nil {
			return missing(pluginsRoot, "plugins")
		}
		return nil
	})
}

// PluginVersions lists every version of a plugin
func (c *Client) PluginVersions(ctx context.Context, pluginID string) (types.PluginVersionsResponse, error) {
	p := resourcePath(pluginsRoot, pluginID)
	key := dedupe.BuildKey(p, nil)

	return read(ctx, c, c.cache, key.String(), "plugins", key, func(r types.PluginVersionsResponse) error {
		if r.Versions == nil {
			return missing(p, "versions")
		}
		return nil
	})
}

// PluginVersion returns one version of a plugin
func (c *Client) PluginVersion(ctx context.Context, pluginID, version string) (types.Plugin, error) {
	p := resourcePath(pluginsRoot, pluginID, "versions", version)
	key := dedupe.BuildKey(p, nil)

	return read(ctx, c, c.cache, key.String(), "plugins", key, func(pl types.Plugin) error {
		if pl.PluginID == "" {
			return missing(p, "pluginId")
		}
		return nil
	})
}
