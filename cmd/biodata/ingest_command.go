package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/biodata-tracker/internal/export"
	"github.com/joseph-ayodele/biodata-tracker/internal/ingest"
	"github.com/joseph-ayodele/biodata-tracker/internal/repository"
	"github.com/joseph-ayodele/biodata-tracker/internal/storage"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var (
		report        string
		inMemory      bool
		includeHidden bool
		poll          time.Duration
	)
	cmd := &cobra.Command{
		Use:   "ingest <file-or-dir>...",
		Short: "Extract a batch of biodata documents in-process",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.config
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger := ctx.log()
			runCtx := cmd.Context()

			uploads, stats, err := ingest.Collect(args, !includeHidden)
			if err != nil {
				return err
			}
			logger.Info("documents collected", "scanned", stats.Scanned, "matched", stats.Matched, "skipped", stats.Skipped)

			var (
				repo  repository.ProfileRepository
				store storage.Store
			)
			if inMemory {
				repo = repository.NewMemoryProfileRepository()
				dir, err := os.MkdirTemp("", "biodata-ingest-")
				if err != nil {
					return err
				}
				defer func() { _ = os.RemoveAll(dir) }()
				if store, err = storage.NewLocal(dir, logger); err != nil {
					return err
				}
			} else {
				db, closeDB, err := ctx.openDB(runCtx)
				if err != nil {
					return err
				}
				defer closeDB()
				repo = repository.NewProfileRepository(db, logger)
				s, closeStore, err := ctx.newStore(runCtx)
				if err != nil {
					return err
				}
				defer closeStore()
				store = s
			}

			extractor, closeExtractor, err := ctx.newExtractor(runCtx)
			if err != nil {
				return err
			}
			defer closeExtractor()

			svcs, err := ctx.newServices(repo, store, extractor, prometheus.NewRegistry())
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				svcs.orchestrator.Shutdown(shutdownCtx)
			}()

			snap, err := svcs.orchestrator.Submit(runCtx, uploads)
			if err != nil {
				return err
			}
			ticker := time.NewTicker(poll)
			defer ticker.Stop()
			for snap.CompletedAt == nil {
				select {
				case <-runCtx.Done():
					return runCtx.Err()
				case <-ticker.C:
				}
				if snap, err = svcs.orchestrator.Status(snap.JobID); err != nil {
					return err
				}
			}

			fmt.Fprint(cmd.OutOrStdout(), renderJob(snap))
			if report != "" {
				xlsx, err := export.JobXLSX(snap)
				if err != nil {
					return err
				}
				if err := os.WriteFile(report, xlsx, 0o644); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", report)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&report, "report", "", "Write a per-file XLSX report to this path")
	cmd.Flags().BoolVar(&inMemory, "memory", false, "Keep profiles in memory only (dry run)")
	cmd.Flags().BoolVar(&includeHidden, "include-hidden", false, "Include hidden files when walking directories")
	cmd.Flags().DurationVar(&poll, "poll", 250*time.Millisecond, "Status polling interval")
	return cmd
}
