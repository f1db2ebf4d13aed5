package main

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/joseph-ayodele/biodata-tracker/internal/export"
	"github.com/joseph-ayodele/biodata-tracker/internal/extract"
	"github.com/joseph-ayodele/biodata-tracker/internal/jobs"
	"github.com/joseph-ayodele/biodata-tracker/internal/matching"
	"github.com/joseph-ayodele/biodata-tracker/internal/metrics"
	"github.com/joseph-ayodele/biodata-tracker/internal/profiles"
	"github.com/joseph-ayodele/biodata-tracker/internal/repository"
	"github.com/joseph-ayodele/biodata-tracker/internal/server"
	"github.com/joseph-ayodele/biodata-tracker/internal/storage"
	"github.com/joseph-ayodele/biodata-tracker/internal/validation"
)

type services struct {
	orchestrator *jobs.Orchestrator
	profiles     *profiles.Service
	validation   *validation.Service
	matching     *matching.Service
	export       *export.Service
	logger       *slog.Logger
}

func (c *commandContext) newServices(
	repo repository.ProfileRepository,
	store storage.Store,
	extractor extract.Extractor,
	reg prometheus.Registerer,
) (*services, error) {
	cfg := c.config
	logger := c.log()

	matchCfg, err := matching.LoadConfig(cfg.Matching.ConfigFile)
	if err != nil {
		return nil, err
	}
	m := metrics.New(reg)

	proc := jobs.NewProcessor(logger, store, extractor, repo, m, cfg.Extract.ItemTimeout)
	orch := jobs.NewOrchestrator(proc, jobs.NewRegistry(cfg.Jobs.Retention, logger), logger,
		jobs.WithWorkers(cfg.Jobs.Workers),
		jobs.WithMaxBatchFiles(cfg.Jobs.MaxBatchFiles),
		jobs.WithMaxFileSizeMB(cfg.Extract.MaxFileSizeMB),
		jobs.WithJanitorInterval(cfg.Jobs.JanitorInterval),
		jobs.WithMetrics(m),
	)

	return &services{
		orchestrator: orch,
		profiles:     profiles.NewService(repo, store, logger),
		validation: validation.NewService(repo, store, extractor, validation.Config{
			ExtractTimeout: cfg.Extract.ItemTimeout,
			AutoApproveMin: &cfg.Validation.AutoApproveMin,
		}, m, logger),
		matching: matching.NewService(matching.NewEngine(matchCfg), repo, extractor,
			cfg.Extract.ItemTimeout, cfg.Extract.MaxFileSizeMB, logger),
		export: export.NewService(repo, logger),
		logger: logger,
	}, nil
}

func (s *services) grpcServer() server.BiodataServer {
	return server.NewServer(s.orchestrator, s.profiles, s.validation, s.matching, s.logger)
}
