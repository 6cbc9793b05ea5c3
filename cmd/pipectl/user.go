package main

import (
	"fmt"
	"strconv"

	"github.com/cuemby/pipectl/pkg/listview"
	"github.com/cuemby/pipectl/pkg/types"
	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage console users",
}

var userListFlags *listFlags

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		view := listview.NewUsersView(c, userListFlags.pageSize)
		return runList(cmd, userListFlags, view, "users",
			[]string{"USER ID", "USERNAME", "EMAIL", "ROLE", "ACTIVE", "INVITATION"},
			func(u types.User) []string {
				role := u.RoleName
				if role == "" {
					role = string(u.Role)
				}
				return []string{
					u.UserID, u.Username, u.Email, role,
					strconv.FormatBool(u.IsEnabled.Bool()), string(u.InvitationStatus),
				}
			})
	},
}

var userUpdateCmd = &cobra.Command{
	Use:   "update USER_ID",
	Short: "Update a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		var req types.UpdateUserRequest
		for flag, dst := range map[string]**string{
			"username":  &req.Username,
			"email":     &req.Email,
			"full-name": &req.FullName,
			"phone":     &req.Phone,
		} {
			if flags.Changed(flag) {
				v, _ := flags.GetString(flag)
				*dst = &v
			}
		}
		if flags.Changed("role") {
			v, _ := flags.GetString("role")
			role := types.UserRole(v)
			req.Role = &role
		}
		if flags.Changed("active") {
			v, _ := flags.GetBool("active")
			f := types.FlagOf(v)
			req.IsEnabled = &f
		}

		c, err := newClient()
		if err != nil {
			return err
		}
		u, err := c.UpdateUser(cmd.Context(), args[0], req)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), u)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ User updated: %s\n", u.Username)
		return nil
	},
}

var userInviteCmd = &cobra.Command{
	Use:   "invite EMAIL",
	Short: "Invite a user by email",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, _ := cmd.Flags().GetString("role")
		c, err := newClient()
		if err != nil {
			return err
		}
		if err := c.InviteUser(cmd.Context(), types.InviteUserRequest{Email: args[0], Role: types.UserRole(role)}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Invitation sent to %s\n", args[0])
		return nil
	},
}

var userResetPasswordCmd = &cobra.Command{
	Use:   "reset-password [USER_ID]",
	Short: "Change a password",
	Long: `Change the password of the signed-in user (--old and --new), or set the
password of another user when USER_ID is given (--new only).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		oldPassword, _ := cmd.Flags().GetString("old")
		newPassword, _ := cmd.Flags().GetString("new")
		if newPassword == "" {
			return fmt.Errorf("--new is required")
		}

		c, err := newClient()
		if err != nil {
			return err
		}
		if len(args) == 1 {
			if err := c.ResetUserPassword(cmd.Context(), args[0], newPassword); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Password reset for %s\n", args[0])
			return nil
		}

		if oldPassword == "" {
			return fmt.Errorf("--old is required when changing your own password")
		}
		if err := c.ResetPassword(cmd.Context(), oldPassword, newPassword); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Password changed")
		return nil
	},
}

func init() {
	userListFlags = addListFlags(userListCmd, "status=active|inactive, role=ROLE_ID")

	userUpdateCmd.Flags().String("username", "", "New username")
	userUpdateCmd.Flags().String("email", "", "New email")
	userUpdateCmd.Flags().String("full-name", "", "New full name")
	userUpdateCmd.Flags().String("phone", "", "New phone number")
	userUpdateCmd.Flags().String("role", "", "New role: admin, user or viewer")
	userUpdateCmd.Flags().Bool("active", true, "Activate or deactivate the user")

	userInviteCmd.Flags().String("role", string(types.UserRoleUser), "Role of the invited user")

	userResetPasswordCmd.Flags().String("old", "", "Current password")
	userResetPasswordCmd.Flags().String("new", "", "New password")

	userCmd.AddCommand(userListCmd, userUpdateCmd, userInviteCmd, userResetPasswordCmd)
}
