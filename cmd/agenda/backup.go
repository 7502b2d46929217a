package main

import (
	"fmt"

	"agenda/internal/database"

	"github.com/spf13/cobra"
)

func newBackupCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Write one JSON-lines snapshot of every collection and prune old ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), rt.cfg, &rt.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			backups := database.NewBackupService(a.db, rt.cfg.Backup, &rt.logger)
			files, err := backups.PerformBackup(cmd.Context())
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			if removed := backups.CleanupOldBackups(); removed > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%d old snapshot(s) removed\n", removed)
			}
			return nil
		},
	}
}
