package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/biodata-tracker/internal/export"
	"github.com/joseph-ayodele/biodata-tracker/internal/repository"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var (
		out    string
		status string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write stored profiles to an XLSX workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := ctx.log()
			db, closeDB, err := ctx.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			svc := export.NewService(repository.NewProfileRepository(db, logger), logger)
			xlsx, err := svc.ProfilesXLSX(cmd.Context(), status)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, xlsx, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported profiles to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "profiles.xlsx", "Output XLSX path")
	cmd.Flags().StringVar(&status, "status", "", "Only export profiles with this status")
	return cmd
}
