package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/meetingsync/internal/store"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the tracking table",
		Long: `Create the meeting tracking table, or add columns missing from an existing
one. Existing rows and columns are never dropped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			db, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close(db)

			if err := store.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tracking table is up to date (%s)\n", cfg.Database.Driver)
			return nil
		},
	}
}
