package main

import (
	"fmt"
	"strconv"

	"github.com/cuemby/pipectl/pkg/listview"
	"github.com/cuemby/pipectl/pkg/types"
	"github.com/spf13/cobra"
)

var pluginCmd = &cobra.Command{
	Use:   "plugin",
	Short: "Browse pipeline plugins",
}

var pluginHeader = []string{"ID", "PLUGIN ID", "NAME", "VERSION", "TYPE", "AUTHOR"}

func pluginRow(p types.Plugin) []string {
	return []string{strconv.FormatInt(p.ID, 10), p.PluginID, p.Name, p.Version, string(p.PluginType), p.Author}
}

var pluginListFlags *listFlags

var pluginListCmd = &cobra.Command{
	Use:   "list",
	Short: "List plugins",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		view := listview.NewPluginsView(c, pluginListFlags.pageSize)
		return runList(cmd, pluginListFlags, view, "plugins", pluginHeader, pluginRow)
	},
}

var pluginVersionsCmd = &cobra.Command{
	Use:   "versions PLUGIN_ID",
	Short: "List every version of a plugin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		resp, err := c.PluginVersions(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), resp)
		}
		rows := make([][]string, len(resp.Versions))
		for i, p := range resp.Versions {
			rows[i] = pluginRow(p)
		}
		return printTable(cmd.OutOrStdout(), pluginHeader, rows)
	},
}

var pluginVersionCmd = &cobra.Command{
	Use:   "version PLUGIN_ID VERSION",
	Short: "Show one plugin version",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		p, err := c.PluginVersion(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), p)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Plugin:      %s %s (%s)\n", p.Name, p.Version, p.PluginID)
		fmt.Fprintf(out, "Type:        %s\n", p.PluginType)
		fmt.Fprintf(out, "Author:      %s\n", p.Author)
		if p.Repository != "" {
			fmt.Fprintf(out, "Repository:  %s\n", p.Repository)
		}
		if p.Description != "" {
			fmt.Fprintf(out, "Description: %s\n", p.Description)
		}
		return nil
	},
}

func init() {
	pluginListFlags = addListFlags(pluginListCmd, "type=source|build|test|deploy|security|notify|...")
	pluginCmd.AddCommand(pluginListCmd, pluginVersionsCmd, pluginVersionCmd)
}
