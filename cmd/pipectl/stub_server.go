package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuemby/pipectl/pkg/storage"
	"github.com/cuemby/pipectl/pkg/stubapi"
	"github.com/spf13/cobra"
)

var stubServerCmd = &cobra.Command{
	Use:   "stub-server",
	Short: "Run a development backend",
	Long: `Run a development backend that serves the same REST API as the CI/CD
server, seeded with sample agents, roles, users, settings and plugins.

Records are kept in memory unless --data-dir is set, in which case they
are stored in a BoltDB file and survive restarts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		dataDir, _ := cmd.Flags().GetString("data-dir")
		token, _ := cmd.Flags().GetString("token")
		noSeed, _ := cmd.Flags().GetBool("no-seed")

		var (
			store storage.Store
			err   error
		)
		if dataDir != "" {
			store, err = storage.NewBoltStore(dataDir)
			if err != nil {
				return err
			}
		} else {
			store = storage.NewMemoryStore()
		}
		defer store.Close()

		if !noSeed {
			if err := stubapi.Seed(store); err != nil {
				return err
			}
		}

		srv := stubapi.New(store, stubapi.Options{Token: token, Version: Version})
		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start(addr)
		}()

		fmt.Printf("Development backend listening on http://%s%s\n", addr, stubapi.DefaultAPIRoot)
		if !noSeed {
			fmt.Printf("  Seeded admin password: %s\n", stubapi.SeedAdminPassword)
		}
		fmt.Println("Press Ctrl+C to stop.")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigCh:
			fmt.Println("\nShutting down...")
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server error: %v", err)
			}
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown: %v", err)
		}
		fmt.Println("✓ Shutdown complete")
		return nil
	},
}

func init() {
	stubServerCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address")
	stubServerCmd.Flags().String("data-dir", "", "Directory for the BoltDB file (in-memory when empty)")
	stubServerCmd.Flags().String("token", "", "Require this bearer token on API routes")
	stubServerCmd.Flags().Bool("no-seed", false, "Start with an empty store")
}
