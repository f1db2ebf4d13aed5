package main

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/biodata-tracker/internal/common"
	"github.com/joseph-ayodele/biodata-tracker/internal/extract"
	"github.com/joseph-ayodele/biodata-tracker/internal/repository"
	"github.com/joseph-ayodele/biodata-tracker/internal/server"
	"github.com/joseph-ayodele/biodata-tracker/internal/storage"
)

func TestGRPCServerUsesConfiguredLogger(t *testing.T) {
	dir := setStaticEnv(t)
	cfg, err := common.LoadConfig()
	require.NoError(t, err)

	var logs bytes.Buffer
	c := &commandContext{config: cfg, logger: slog.New(slog.NewJSONHandler(&logs, nil))}
	store, err := storage.NewLocal(dir, c.logger)
	require.NoError(t, err)

	svcs, err := c.newServices(repository.NewMemoryProfileRepository(), store, &extract.Static{}, prometheus.NewRegistry())
	require.NoError(t, err)
	defer svcs.orchestrator.Shutdown(context.Background())

	_, err = svcs.grpcServer().SubmitBatch(context.Background(), &server.SubmitBatchRequest{})
	require.Error(t, err)
	assert.Contains(t, logs.String(), "batch submit rejected")
}
