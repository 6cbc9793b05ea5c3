package types

import (
	"sort"

	"github.com/cuemby/pipectl/pkg/settings"
)

// GeneralSettings is one named configuration entry. SettingsID is a UUID.
type GeneralSettings struct {
	SettingsID  string           `json:"settingsId"`
	Category    string           `json:"category"`
	Name        string           `json:"name"`
	DisplayName string           `json:"displayName"`
	Data        settings.Object  `json:"data"`
	Schema      *settings.Schema `json:"schema,omitempty"`
	Description string           `json:"description,omitempty"`
}

// UpdateSettingsRequest is a partial update of a settings entry
type UpdateSettingsRequest struct {
	DisplayName *string          `json:"displayName,omitempty"`
	Data        settings.Object  `json:"data,omitempty"`
	Schema      *settings.Schema `json:"schema,omitempty"`
	Description *string          `json:"description,omitempty"`
}

// ListSettingsParams selects settings entries
type ListSettingsParams struct {
	Category string
	PageNum  int
	PageSize int
}

// ListSettingsResponse is one page of settings entries
type ListSettingsResponse struct {
	List     []GeneralSettings `json:"list"`
	Total    int               `json:"total"`
	PageNum  int               `json:"pageNum"`
	PageSize int               `json:"pageSize"`
}

// Category counts the settings entries in one category
type Category struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// CategoryGroup is a category together with its entries
type CategoryGroup struct {
	Category string
	Items    []GeneralSettings
}

// GroupByCategory groups entries by category, keeping the input order
// inside each group. Groups are ordered by the settingsId of their first
// entry.
func GroupByCategory(list []GeneralSettings) []CategoryGroup {
	index := make(map[string]int)
	var groups []CategoryGroup
	for _, item := range list {
		i, ok := index[item.Category]
		if !ok {
			i = len(groups)
			index[item.Category] = i
			groups = append(groups, CategoryGroup{Category: item.Category})
		}
		groups[i].Items = append(groups[i].Items, item)
	}

	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].Items[0].SettingsID < groups[b].Items[0].SettingsID
	})
	return groups
}

// Categories derives category counts from a list of entries, in the same
// order as GroupByCategory.
func Categories(list []GeneralSettings) []Category {
	groups := GroupByCategory(list)
	out := make([]Category, len(groups))
	for i, g := range groups {
		out[i] = Category{Category: g.Category, Count: len(g.Items)}
	}
	return out
}
