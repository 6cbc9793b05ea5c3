package main

import (
	"fmt"
	"strings"

	"github.com/cuemby/pipectl/pkg/listview"
	"github.com/cuemby/pipectl/pkg/types"
	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:     "settings",
	Aliases: []string{"general-settings"},
	Short:   "Manage general settings",
}

var settingsListFlags *listFlags

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List settings entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		view := listview.NewSettingsView(c, settingsListFlags.pageSize)
		return runList(cmd, settingsListFlags, view, "settings",
			[]string{"SETTINGS ID", "CATEGORY", "NAME", "DISPLAY NAME", "KEYS"},
			func(g types.GeneralSettings) []string {
				return []string{g.SettingsID, g.Category, g.Name, g.DisplayName, fmt.Sprint(len(g.Data))}
			})
	},
}

var settingsCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List settings categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		cats, err := c.SettingsCategories(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), cats)
		}
		rows := make([][]string, len(cats))
		for i, cat := range cats {
			rows[i] = []string{cat.Category, fmt.Sprint(cat.Count)}
		}
		return printTable(cmd.OutOrStdout(), []string{"CATEGORY", "ENTRIES"}, rows)
	},
}

// lookupSettings accepts either a settings id or CATEGORY/NAME
func lookupSettings(cmd *cobra.Command, ref string) (types.GeneralSettings, error) {
	c, err := newClient()
	if err != nil {
		return types.GeneralSettings{}, err
	}
	if category, name, ok := cutRef(ref); ok {
		return c.GetSettingsByName(cmd.Context(), category, name)
	}
	return c.GetSettings(cmd.Context(), ref)
}

func cutRef(ref string) (string, string, bool) {
	category, name, ok := strings.Cut(ref, "/")
	return category, name, ok && category != "" && name != ""
}

func printSettings(cmd *cobra.Command, g types.GeneralSettings) error {
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), g)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Settings: %s (%s/%s)\n", g.DisplayName, g.Category, g.Name)
	fmt.Fprintf(out, "ID:       %s\n", g.SettingsID)
	if g.Description != "" {
		fmt.Fprintf(out, "About:    %s\n", g.Description)
	}
	rows := make([][]string, 0, len(g.Data))
	for _, key := range g.Data.Keys() {
		label := key
		if g.Schema != nil {
			if p, ok := g.Schema.Properties[key]; ok && p.Title != "" {
				label = p.Title
			}
		}
		rows = append(rows, []string{key, label, g.Data[key].String()})
	}
	fmt.Fprintln(out)
	return printTable(out, []string{"KEY", "LABEL", "VALUE"}, rows)
}

var settingsGetCmd = &cobra.Command{
	Use:   "get SETTINGS_ID|CATEGORY/NAME",
	Short: "Show one settings entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := lookupSettings(cmd, args[0])
		if err != nil {
			return err
		}
		return printSettings(cmd, g)
	},
}

var settingsUpdateCmd = &cobra.Command{
	Use:   "update SETTINGS_ID|CATEGORY/NAME --set key=value...",
	Short: "Change values of a settings entry",
	Long: `Change values of a settings entry.

Values are converted to the type the entry's schema declares, or to the
type of the current value when the entry has no schema. The merged data is
validated before it is sent.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sets, _ := cmd.Flags().GetStringArray("set")
		input, err := kv(sets)
		if err != nil {
			return err
		}
		if len(input) == 0 {
			return fmt.Errorf("nothing to change, use --set key=value")
		}

		current, err := lookupSettings(cmd, args[0])
		if err != nil {
			return err
		}
		data, err := current.Schema.ApplyInput(current.Data, input)
		if err != nil {
			return err
		}

		c, err := newClient()
		if err != nil {
			return err
		}
		updated, err := c.UpdateSettings(cmd.Context(), current.SettingsID, types.UpdateSettingsRequest{
			Data:   data,
			Schema: current.Schema,
		})
		if err != nil {
			return err
		}
		return printSettings(cmd, updated)
	},
}

func init() {
	settingsListFlags = addListFlags(settingsListCmd, "category=NAME")
	settingsUpdateCmd.Flags().StringArray("set", nil, "Value as key=value")

	settingsCmd.AddCommand(settingsListCmd, settingsCategoriesCmd, settingsGetCmd, settingsUpdateCmd)
}
