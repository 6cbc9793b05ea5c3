package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cuemby/pipectl/pkg/listview"
	"github.com/cuemby/pipectl/pkg/types"
	"github.com/spf13/cobra"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Manage build agents",
}

var agentListFlags *listFlags

var agentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List agents",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		view := listview.NewAgentsView(c, agentListFlags.pageSize)
		return runList(cmd, agentListFlags, view, "agents",
			[]string{"ID", "AGENT ID", "NAME", "ADDRESS", "OS/ARCH", "STATUS", "ENABLED"},
			func(a types.Agent) []string {
				addr := a.Address
				if a.Port != "" {
					addr += ":" + a.Port
				}
				return []string{
					strconv.FormatInt(a.ID, 10), a.AgentID, a.AgentName, addr,
					a.OS + "/" + a.Arch, a.Status.String(), strconv.FormatBool(a.IsEnabled.Bool()),
				}
			})
	},
}

var agentGetCmd = &cobra.Command{
	Use:   "get AGENT_ID",
	Short: "Show one agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		a, err := c.GetAgent(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), a)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Agent:    %s (%s)\n", a.AgentName, a.AgentID)
		fmt.Fprintf(out, "Status:   %s\n", a.Status)
		fmt.Fprintf(out, "Address:  %s:%s\n", a.Address, a.Port)
		fmt.Fprintf(out, "Platform: %s/%s\n", a.OS, a.Arch)
		fmt.Fprintf(out, "Version:  %s\n", a.Version)
		fmt.Fprintf(out, "Enabled:  %t\n", a.IsEnabled.Bool())
		for _, label := range sortedLabels(a.Labels) {
			fmt.Fprintf(out, "Label:    %s\n", label)
		}
		return nil
	},
}

var agentStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show agent availability totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		stats, err := c.AgentStatistics(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), stats)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Total: %d  Online: %d  Offline: %d\n", stats.Total, stats.Online, stats.Offline)
		return nil
	},
}

var agentCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Register a new agent",
	Long: `Register a new agent and print its communication token.

The token is shown only once; store it before closing the terminal.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		labels, _ := cmd.Flags().GetStringArray("label")
		parsed, err := kv(labels)
		if err != nil {
			return err
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		req := types.CreateAgentRequest{AgentName: args[0]}
		if len(parsed) > 0 {
			req.Labels = parsed
		}
		resp, err := c.CreateAgent(cmd.Context(), req)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), resp)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Agent created: %s (ID: %s)\n", resp.AgentName, resp.AgentID)
		fmt.Fprintf(cmd.OutOrStdout(), "  Token: %s\n", resp.Token)
		return nil
	},
}

var agentUpdateCmd = &cobra.Command{
	Use:   "update AGENT_ID",
	Short: "Update an agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		var req types.UpdateAgentRequest
		if flags.Changed("name") {
			v, _ := flags.GetString("name")
			req.AgentName = &v
		}
		if flags.Changed("status") {
			v, _ := flags.GetString("status")
			status, err := types.ParseAgentStatus(v)
			if err != nil {
				return err
			}
			req.Status = &status
		}
		if flags.Changed("enabled") {
			v, _ := flags.GetBool("enabled")
			f := types.FlagOf(v)
			req.IsEnabled = &f
		}
		if flags.Changed("label") {
			labels, _ := flags.GetStringArray("label")
			parsed, err := kv(labels)
			if err != nil {
				return err
			}
			req.Labels = parsed
		}

		c, err := newClient()
		if err != nil {
			return err
		}
		a, err := c.UpdateAgent(cmd.Context(), args[0], req)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), a)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Agent updated: %s (%s)\n", a.AgentName, a.Status)
		return nil
	},
}

var agentDeleteCmd = &cobra.Command{
	Use:   "delete AGENT_ID...",
	Short: "Delete agents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		var failed []string
		for _, id := range args {
			if err := c.DeleteAgent(cmd.Context(), id); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "✗ %s: %v\n", id, err)
				failed = append(failed, id)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Agent deleted: %s\n", id)
		}
		if len(failed) > 0 {
			return fmt.Errorf("failed to delete %s", strings.Join(failed, ", "))
		}
		return nil
	},
}

func init() {
	agentListFlags = addListFlags(agentListCmd, "status=online|offline|busy|idle|unknown or a status code")

	agentCreateCmd.Flags().StringArray("label", nil, "Label as key=value")

	agentUpdateCmd.Flags().String("name", "", "New agent name")
	agentUpdateCmd.Flags().String("status", "", "Status name or code")
	agentUpdateCmd.Flags().Bool("enabled", true, "Enable or disable the agent")
	agentUpdateCmd.Flags().StringArray("label", nil, "Replace labels with key=value pairs")

	agentCmd.AddCommand(agentListCmd, agentGetCmd, agentStatsCmd, agentCreateCmd, agentUpdateCmd, agentDeleteCmd)
}
