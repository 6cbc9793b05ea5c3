package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cuemby/pipectl/pkg/client"
	"github.com/cuemby/pipectl/pkg/config"
	"github.com/cuemby/pipectl/pkg/events"
	"github.com/cuemby/pipectl/pkg/log"
	"github.com/cuemby/pipectl/pkg/telemetry"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	err := rootCmd.Execute()
	if broker != nil {
		broker.Stop()
	}
	shutdownTracing()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pipectl",
	Short: "pipectl - command line console for the CI/CD server",
	Long: `pipectl manages build agents, roles, users, general settings and
plugins on a CI/CD server through its REST API.

Connection settings come from flags, PIPECTL_* environment variables
(a .env file in the working directory is loaded first), the current
profile in the config file, and built-in defaults, in that order.`,
	Version:           Version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// global state shared by subcommands, filled by setup
var (
	resolved      config.Settings
	jsonOutput    bool
	broker        *events.Broker
	traceShutdown func(context.Context) error
)

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"pipectl version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	pf := rootCmd.PersistentFlags()
	pf.String("api-url", "", "API root of the backend (env "+config.EnvAPIURL+")")
	pf.String("token", "", "API token (env "+config.EnvToken+")")
	pf.String("profile", "", "Profile from the config file (env "+config.EnvProfile+")")
	pf.String("config", "", "Path of the config file (default ~/.config/pipectl/config.yaml)")
	pf.String("log-level", "", "Log level: debug, info, warn, error (env "+config.EnvLogLevel+")")
	pf.Bool("log-json", false, "Write logs as JSON")
	pf.BoolVar(&jsonOutput, "json", false, "Print results as JSON")
	pf.String("trace-endpoint", "", "OTLP gRPC endpoint for request traces")

	rootCmd.AddCommand(agentCmd)
	rootCmd.AddCommand(roleCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(pluginCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(stubServerCmd)
	rootCmd.AddCommand(versionCmd)
}

func configPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		return p, nil
	}
	return config.DefaultPath()
}

// setup resolves configuration and starts logging and tracing
func setup(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	path, err := configPath(cmd)
	if err != nil {
		return err
	}
	file, err := config.Load(path)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	var o config.Overrides
	o.APIURL, _ = flags.GetString("api-url")
	o.Token, _ = flags.GetString("token")
	o.Profile, _ = flags.GetString("profile")
	o.LogLevel, _ = flags.GetString("log-level")

	resolved, err = config.Resolve(file, o, os.Getenv)
	if err != nil {
		return err
	}

	logJSON, _ := flags.GetBool("log-json")
	log.Init(log.Config{
		Level:      log.ParseLevel(resolved.LogLevel),
		JSONOutput: logJSON,
	})

	endpoint, _ := flags.GetString("trace-endpoint")
	traceShutdown, err = telemetry.InitTraceProvider(cmd.Context(), endpoint, Version)
	if err != nil {
		return fmt.Errorf("failed to start tracing: %w", err)
	}
	return nil
}

func shutdownTracing() {
	if traceShutdown == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := traceShutdown(ctx); err != nil {
		log.Errorf("Failed to flush traces", err)
	}
}

// newClient builds an API client from the resolved settings. Its writes
// publish change events on the shared broker, which apply follows to report
// the affected list totals.
func newClient() (*client.Client, error) {
	if broker == nil {
		broker = events.NewBroker()
		broker.Start()
	}
	return client.New(client.Options{
		BaseURL: resolved.APIURL,
		Token:   resolved.Token,
		Timeout: resolved.Timeout,
		Broker:  broker,
	})
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "pipectl version %s\nCommit: %s\nBuilt: %s\n", Version, Commit, BuildTime)
		return nil
	},
}
