package client

import (
	"context"
	"net/http"

	"github.com/cuemby/pipectl/pkg/dedupe"
	"github.com/cuemby/pipectl/pkg/events"
	"github.com/cuemby/pipectl/pkg/types"
)

const settingsRoot = "/general-settings"

func checkSettings(p string) func(types.GeneralSettings) error {
	return func(s types.GeneralSettings) error {
		if s.SettingsID == "" {
			return missing(p, "settingsId")
		}
		return nil
	}
}

// ListSettings returns one page of settings entries
func (c *Client) ListSettings(ctx context.Context, params types.ListSettingsParams) (types.ListSettingsResponse, error) {
	q := map[string]any{}
	setNonEmpty(q, "category", params.Category)
	setPositive(q, "pageNum", params.PageNum)
	setPositive(q, "pageSize", params.PageSize)
	key := dedupe.BuildKey(settingsRoot, q)

	return read(ctx, c, c.cache, key.String(), "general-settings", key, func(r types.ListSettingsResponse) error {
		if r.List == nil {
			return missing(settingsRoot, "list")
		}
		return nil
	})
}

// SettingsCategories returns every category with its entry count
func (c *Client) SettingsCategories(ctx context.Context) ([]types.Category, error) {
	key := dedupe.BuildKey(settingsRoot+"/categories", nil)
	return read[[]types.Category](ctx, c, c.cache, key.String(), "general-settings", key, nil)
}

// GetSettings returns one settings entry
func (c *Client) GetSettings(ctx context.Context, settingsID string) (types.GeneralSettings, error) {
	p := resourcePath(settingsRoot, settingsID)
	key := dedupe.BuildKey(p, nil)
	return read(ctx, c, c.cache, key.String(), "general-settings", key, checkSettings(p))
}

// GetSettingsByName looks an entry up by category and name
func (c *Client) GetSettingsByName(ctx context.Context, category, name string) (types.GeneralSettings, error) {
	p := resourcePath(settingsRoot, "by-name", category, name)
	key := dedupe.BuildKey(p, nil)
	return read(ctx, c, c.cache, key.String(), "general-settings", key, checkSettings(p))
}

// UpdateSettings applies a partial update. When the request carries data it
// is validated against the request's schema, or the schema the entry
// already has, before anything is sent.
func (c *Client) UpdateSettings(ctx context.Context, settingsID string, req types.UpdateSettingsRequest) (types.GeneralSettings, error) {
	var out types.GeneralSettings
	if req.Data != nil {
		schema := req.Schema
		if schema == nil {
			current, err := c.GetSettings(ctx, settingsID)
			if err != nil {
				return out, err
			}
			schema = current.Schema
		}
		if err := schema.Validate(req.Data); err != nil {
			return out, err
		}
	}

	key := dedupe.BuildKey(resourcePath(settingsRoot, settingsID), nil)
	evt := &events.Event{Type: events.EventSettingsUpdated, ResourceID: settingsID}
	err := c.write(ctx, http.MethodPut, "general-settings", key, req, &out, evt)
	return out, err
}
