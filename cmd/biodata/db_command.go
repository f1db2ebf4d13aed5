package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/biodata-tracker/internal/server"
)

func newDBCommand(ctx *commandContext) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Profile store maintenance",
	}
	dbCmd.AddCommand(&cobra.Command{
		Use:   "ping",
		Short: "Check that the profile store is reachable and migrated",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := ctx.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()
			if err := server.PingDB(cmd.Context(), db, ctx.log(), time.Second); err != nil {
				return fmt.Errorf("DB health: FAIL (%w)", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "DB health: OK (%s)\n", db.Dialect)
			return nil
		},
	})
	return dbCmd
}
