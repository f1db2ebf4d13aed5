package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/biodata-tracker/internal/server"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show a batch job on a running server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = ctx.config.Server.GRPCAddr
			}
			conn, err := server.Dial(addr)
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			callCtx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			snap, err := server.NewClient(conn).GetJobStatus(callCtx, args[0])
			if err != nil {
				return fmt.Errorf("get job status: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderJob(snap))
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Server address (defaults to GRPC_ADDR)")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Call timeout")
	return cmd
}
