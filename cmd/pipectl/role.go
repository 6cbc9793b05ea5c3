package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cuemby/pipectl/pkg/listview"
	"github.com/cuemby/pipectl/pkg/types"
	"github.com/spf13/cobra"
)

var roleCmd = &cobra.Command{
	Use:   "role",
	Short: "Manage roles and their permissions",
}

var roleListFlags *listFlags

var roleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List roles",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		view := listview.NewRolesView(c, roleListFlags.pageSize)
		return runList(cmd, roleListFlags, view, "roles",
			[]string{"ROLE ID", "NAME", "SCOPE", "PRIORITY", "BUILT-IN", "ENABLED"},
			func(r types.Role) []string {
				return []string{
					r.RoleID, r.Name, string(r.Scope), strconv.Itoa(r.Priority),
					strconv.FormatBool(r.IsBuiltin.Bool()), strconv.FormatBool(r.IsEnabled.Bool()),
				}
			})
	},
}

func printRole(cmd *cobra.Command, r types.Role) error {
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), r)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Role:        %s (%s)\n", r.Name, r.RoleID)
	fmt.Fprintf(out, "Scope:       %s\n", r.Scope)
	fmt.Fprintf(out, "Priority:    %d\n", r.Priority)
	fmt.Fprintf(out, "Built-in:    %t\n", r.IsBuiltin.Bool())
	fmt.Fprintf(out, "Enabled:     %t\n", r.IsEnabled.Bool())
	if r.Description != "" {
		fmt.Fprintf(out, "Description: %s\n", r.Description)
	}
	fmt.Fprintf(out, "Permissions: %s\n", strings.Join(r.Permissions, ", "))
	return nil
}

var roleGetCmd = &cobra.Command{
	Use:   "get ROLE_ID",
	Short: "Show one role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		r, err := c.GetRole(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printRole(cmd, r)
	},
}

var roleCreateCmd = &cobra.Command{
	Use:   "create ROLE_ID",
	Short: "Create a custom role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		name, _ := flags.GetString("name")
		description, _ := flags.GetString("description")
		scope, _ := flags.GetString("scope")
		perms, _ := flags.GetStringSlice("permission")

		req := types.CreateRoleRequest{
			RoleID:      args[0],
			Name:        name,
			Description: description,
			Scope:       types.RoleScope(scope),
			Permissions: perms,
		}
		if flags.Changed("priority") {
			p, _ := flags.GetInt("priority")
			req.Priority = &p
		}

		c, err := newClient()
		if err != nil {
			return err
		}
		r, err := c.CreateRole(cmd.Context(), req)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), r)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Role created: %s (%s)\n", r.Name, r.RoleID)
		return nil
	},
}

var roleUpdateCmd = &cobra.Command{
	Use:   "update ROLE_ID",
	Short: "Update a role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		var req types.UpdateRoleRequest
		if flags.Changed("name") {
			v, _ := flags.GetString("name")
			req.Name = &v
		}
		if flags.Changed("description") {
			v, _ := flags.GetString("description")
			req.Description = &v
		}
		if flags.Changed("scope") {
			v, _ := flags.GetString("scope")
			scope := types.RoleScope(v)
			req.Scope = &scope
		}
		if flags.Changed("priority") {
			v, _ := flags.GetInt("priority")
			req.Priority = &v
		}

		c, err := newClient()
		if err != nil {
			return err
		}
		r, err := c.UpdateRole(cmd.Context(), args[0], req)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), r)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Role updated: %s\n", r.RoleID)
		return nil
	},
}

var roleDeleteCmd = &cobra.Command{
	Use:   "delete ROLE_ID",
	Short: "Delete a custom role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		if err := c.DeleteRole(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Role deleted: %s\n", args[0])
		return nil
	},
}

var roleToggleCmd = &cobra.Command{
	Use:   "toggle ROLE_ID",
	Short: "Enable a disabled role or disable an enabled one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		r, err := c.ToggleRole(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		state := "disabled"
		if r.IsEnabled.Bool() {
			state = "enabled"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Role %s is now %s\n", r.RoleID, state)
		return nil
	},
}

var rolePermissionsCmd = &cobra.Command{
	Use:   "permissions ROLE_ID",
	Short: "Show or replace the permissions of a role",
	Long: `Show the permissions granted by a role.

With --set the permissions are replaced by the given list; --set "" clears them.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("set") {
			perms, _ := cmd.Flags().GetStringSlice("set")
			r, err := c.UpdateRolePermissions(cmd.Context(), args[0], perms)
			if err != nil {
				return err
			}
			return printRole(cmd, r)
		}

		perms, err := c.RolePermissions(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), perms)
		}
		for _, p := range perms {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		return nil
	},
}

func init() {
	roleListFlags = addListFlags(roleListCmd, "scope=project|team|org, status=enabled|disabled")

	roleCreateCmd.Flags().String("name", "", "Role name (required)")
	roleCreateCmd.Flags().String("description", "", "Role description")
	roleCreateCmd.Flags().String("scope", string(types.RoleScopeProject), "Scope: project, team or org")
	roleCreateCmd.Flags().Int("priority", 0, "Priority, higher sorts first")
	roleCreateCmd.Flags().StringSlice("permission", nil, "Granted permissions")
	_ = roleCreateCmd.MarkFlagRequired("name")

	roleUpdateCmd.Flags().String("name", "", "New role name")
	roleUpdateCmd.Flags().String("description", "", "New description")
	roleUpdateCmd.Flags().String("scope", "", "New scope")
	roleUpdateCmd.Flags().Int("priority", 0, "New priority")

	rolePermissionsCmd.Flags().StringSlice("set", nil, "Replace permissions with this list")

	roleCmd.AddCommand(roleListCmd, roleGetCmd, roleCreateCmd, roleUpdateCmd, roleDeleteCmd, roleToggleCmd, rolePermissionsCmd)
}
