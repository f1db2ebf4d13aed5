package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/joseph-ayodele/biodata-tracker/internal/repository"
	"github.com/joseph-ayodele/biodata-tracker/internal/server"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the gRPC service and the ops HTTP endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.config
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger := ctx.log()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			db, closeDB, err := ctx.openDB(runCtx)
			if err != nil {
				return err
			}
			defer closeDB()
			if err := server.PingDB(runCtx, db, logger, cfg.Database.DialTimeout); err != nil {
				return err
			}
			repo := repository.NewProfileRepository(db, logger)

			store, closeStore, err := ctx.newStore(runCtx)
			if err != nil {
				return err
			}
			defer closeStore()
			extractor, closeExtractor, err := ctx.newExtractor(runCtx)
			if err != nil {
				return err
			}
			defer closeExtractor()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			svcs, err := ctx.newServices(repo, store, extractor, reg)
			if err != nil {
				return err
			}

			recvLimit := cfg.Jobs.MaxBatchFiles*cfg.Extract.MaxFileSizeMB*(1<<20)*4/3 + (1 << 20)
			gs, hs := server.NewGRPCServer(svcs.grpcServer(), logger, grpc.MaxRecvMsgSize(recvLimit))
			lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", cfg.Server.GRPCAddr, err)
			}

			ops := &http.Server{
				Addr:              cfg.Server.OpsAddr,
				Handler:           server.NewOpsRouter(repo, reg, server.NewExportHandler(svcs.export, svcs.profiles, logger), logger),
				ReadHeaderTimeout: 10 * time.Second,
			}

			g, gctx := errgroup.WithContext(runCtx)
			g.Go(func() error {
				logger.Info("grpc serving", "addr", lis.Addr().String())
				return gs.Serve(lis)
			})
			g.Go(func() error {
				logger.Info("ops http serving", "addr", cfg.Server.OpsAddr)
				if err := ops.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				logger.Info("shutting down")
				hs.Shutdown()

				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := ops.Shutdown(shutdownCtx); err != nil {
					logger.Warn("ops http shutdown", "error", err)
				}
				stopped := make(chan struct{})
				go func() {
					gs.GracefulStop()
					close(stopped)
				}()
				select {
				case <-stopped:
				case <-shutdownCtx.Done():
					gs.Stop()
				}
				svcs.orchestrator.Shutdown(shutdownCtx)
				return nil
			})

			if err := g.Wait(); err != nil {
				return err
			}
			logger.Info("stopped")
			return nil
		},
	}
}
