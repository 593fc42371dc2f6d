package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/stackprobe/stackprobe/pkg/match"
	"github.com/stackprobe/stackprobe/pkg/objstore"
	"github.com/stackprobe/stackprobe/pkg/stores"
)

func newSnapshotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage snapshot references",
		Long: `Inspect and maintain the local snapshot reference store, and compare
live object content against recorded references.`,
	}

	cmd.AddCommand(newSnapshotListCommand())
	cmd.AddCommand(newSnapshotShowCommand())
	cmd.AddCommand(newSnapshotRemoveCommand())
	cmd.AddCommand(newSnapshotCheckCommand())
	return cmd
}

func newSnapshotListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded snapshot references",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openSnapshotStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			snaps, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, snap := range snaps {
				fmt.Printf("%s\t%s\n", snap.Name, snap.UpdatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

func newSnapshotShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print a snapshot reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openSnapshotStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			content, found, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("no snapshot reference named %q", args[0])
			}
			fmt.Print(content)
			return nil
		},
	}
}

func newSnapshotRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <name>",
		Short: "Remove a snapshot reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openSnapshotStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()
			return store.Delete(cmd.Context(), args[0])
		},
	}
}

func newSnapshotCheckCommand() *cobra.Command {
	var bucket, key, name string
	var update bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Compare a live object against its snapshot reference",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			clients, _, err := newAWSClients(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			store, err := openStoreAt(cmd.Context(), cfg.Snapshot.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			set := &match.Set{
				Objects:         objstore.FromClient(clients.s3, logger),
				Snapshots:       store,
				UpdateSnapshots: update || cfg.Snapshot.Update,
			}
			result, err := set.SnapshotMatchesDiff(cmd.Context(), bucket, key, name)
			if err != nil {
				return err
			}
			fmt.Println(result.Message)
			if !result.Pass {
				if result.Diff != "" {
					fmt.Fprintln(os.Stderr, result.Diff)
				}
				os.Exit(1)
			}
			return nil
		},
	}
	addObjectFlags(cmd, &bucket, &key)
	cmd.Flags().StringVarP(&name, "name", "n", "", "snapshot reference name")
	cmd.Flags().BoolVar(&update, "update", false, "overwrite the reference instead of comparing")
	cmd.MarkFlagRequired("name")
	return cmd
}

// openSnapshotStore opens and migrates the store at the configured path.
func openSnapshotStore(ctx context.Context) (*stores.SQLiteStore, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return openStoreAt(ctx, cfg.Snapshot.Path)
}

func openStoreAt(ctx context.Context, path string) (*stores.SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	store, err := stores.NewSQLiteStore(stores.Config{Path: path})
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}
