package main

import (
	"fmt"
	"time"

	"github.com/cuemby/pipectl/pkg/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage connection profiles",
	// profiles are edited before any of them has to be valid
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
}

func loadConfigFile(cmd *cobra.Command) (string, *config.File, error) {
	path, err := configPath(cmd)
	if err != nil {
		return "", nil, err
	}
	f, err := config.Load(path)
	if err != nil {
		return "", nil, err
	}
	return path, f, nil
}

var configSetProfileCmd = &cobra.Command{
	Use:   "set-profile NAME --api-url URL",
	Short: "Add or replace a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, f, err := loadConfigFile(cmd)
		if err != nil {
			return err
		}
		apiURL, _ := cmd.Flags().GetString("api-url")
		token, _ := cmd.Flags().GetString("token")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		if err := f.Set(args[0], &config.Profile{APIRoot: apiURL, Token: token, Timeout: timeout}); err != nil {
			return err
		}
		if err := f.Save(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Profile %s saved to %s\n", args[0], path)
		return nil
	},
}

var configUseCmd = &cobra.Command{
	Use:   "use NAME",
	Short: "Select the current profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, f, err := loadConfigFile(cmd)
		if err != nil {
			return err
		}
		if err := f.Use(args[0]); err != nil {
			return err
		}
		if err := f.Save(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Using profile %s\n", args[0])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, f, err := loadConfigFile(cmd)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(f.Profiles))
		for _, name := range f.Names() {
			p := f.Profiles[name]
			current := ""
			if name == f.Current {
				current = "*"
			}
			timeout := ""
			if p.Timeout > 0 {
				timeout = p.Timeout.String()
			}
			rows = append(rows, []string{current, name, p.APIRoot, timeout})
		}
		return printTable(cmd.OutOrStdout(), []string{"", "NAME", "API ROOT", "TIMEOUT"}, rows)
	},
}

func init() {
	configSetProfileCmd.Flags().String("api-url", "", "API root of the backend (required)")
	configSetProfileCmd.Flags().String("token", "", "API token")
	configSetProfileCmd.Flags().Duration("timeout", 10*time.Second, "Request timeout")
	_ = configSetProfileCmd.MarkFlagRequired("api-url")

	configCmd.AddCommand(configSetProfileCmd, configUseCmd, configListCmd)
}
