package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/biodata-tracker/constants"
	"github.com/joseph-ayodele/biodata-tracker/internal/entity"
	"github.com/joseph-ayodele/biodata-tracker/internal/extract"
	"github.com/joseph-ayodele/biodata-tracker/internal/metrics"
	"github.com/joseph-ayodele/biodata-tracker/internal/repository"
	"github.com/joseph-ayodele/biodata-tracker/internal/storage"
)

// Processor runs the per-item pipeline: store the document, extract fields,
// then create a pending profile.
type Processor struct {
	logger    *slog.Logger
	store     storage.Store
	extractor extract.Extractor
	profiles  repository.ProfileRepository
	metrics   *metrics.Metrics
	timeout   time.Duration
}

func NewProcessor(
	logger *slog.Logger,
	store storage.Store,
	extractor extract.Extractor,
	profiles repository.ProfileRepository,
	m *metrics.Metrics,
	timeout time.Duration,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Processor{
		logger:    logger,
		store:     store,
		extractor: extractor,
		profiles:  profiles,
		metrics:   m,
		timeout:   timeout,
	}
}

// Process returns the id of the created profile. On any failure the stored
// document is removed again and the error describes the failed step.
func (p *Processor) Process(ctx context.Context, filename string, content []byte) (string, error) {
	key, err := p.store.Put(ctx, filename, content)
	if err != nil {
		return "", fmt.Errorf("store document: %w", err)
	}

	res, err := p.Extract(ctx, filename, content)
	if err != nil {
		p.discard(key)
		return "", err
	}

	conf := res.Confidence
	prof := &entity.Profile{
		Fields:           res.Fields,
		OCRStatus:        constants.OCRStatusPending,
		OCRConfidence:    &conf,
		SourceFile:       key,
		OriginalFilename: filename,
		RawOCRText:       res.RawText,
	}
	if err := p.profiles.Create(ctx, prof); err != nil {
		p.discard(key)
		return "", fmt.Errorf("create profile: %w", err)
	}

	p.logger.Debug("jobs.item.profile_created",
		"profile_id", prof.ID, "source_file", key,
		"confidence", conf, "model", res.Model,
	)
	return prof.ID, nil
}

// Extract runs one bounded extraction call.
func (p *Processor) Extract(ctx context.Context, filename string, content []byte) (extract.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	res, err := p.extractor.Extract(ctx, extract.Document{
		Content:  content,
		MIMEHint: constants.MapExtToMIME(filepath.Ext(filename)),
		Filename: filename,
	})
	p.metrics.ObserveExtraction(time.Since(start))
	if err != nil {
		return extract.Result{}, extract.Classify(ctx, err)
	}
	return res, nil
}

func (p *Processor) discard(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.store.Delete(ctx, key); err != nil {
		p.logger.Warn("jobs.item.discard_failed", "source_file", key, "error", err)
	}
}
