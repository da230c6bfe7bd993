package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot, list, restore, and prune backups",
}

var backupNowCmd = &cobra.Command{
	Use:   "now",
	Short: "Create a snapshot of the storage file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		manager, err := newBackupManager(cfg, store, nil)
		if err != nil {
			return err
		}
		snap, err := manager.Backup(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("✓ Backup created: %s (%d bytes)\n", snap.Filename, snap.Size)
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List retained snapshots, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		manager, err := newBackupManager(cfg, nil, nil)
		if err != nil {
			return err
		}
		snaps, err := manager.List()
		if err != nil {
			return err
		}
		if len(snaps) == 0 {
			fmt.Println("no backups found")
			return nil
		}
		for _, snap := range snaps {
			fmt.Printf("%s  %10d bytes  %s\n",
				snap.Filename, snap.Size, snap.ModTime.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <filename>",
	Short: "Replace the live storage file with a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		manager, err := newBackupManager(cfg, nil, nil)
		if err != nil {
			return err
		}
		if err := manager.Restore(args[0]); err != nil {
			return err
		}
		fmt.Printf("✓ Restored from %s\n", args[0])
		return nil
	},
}

var backupDeleteCmd = &cobra.Command{
	Use:   "delete <filename>",
	Short: "Delete a snapshot by filename",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		manager, err := newBackupManager(cfg, nil, nil)
		if err != nil {
			return err
		}
		if err := manager.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("✓ Deleted %s\n", args[0])
		return nil
	},
}

var backupPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Run the retention sweep against the configured policy",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		manager, err := newBackupManager(cfg, nil, nil)
		if err != nil {
			return err
		}
		removed, err := manager.Cleanup()
		if err != nil {
			return err
		}
		fmt.Printf("✓ Pruned %d snapshot(s)\n", removed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(backupNowCmd, backupListCmd, backupRestoreCmd, backupDeleteCmd, backupPruneCmd)
}
