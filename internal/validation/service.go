package validation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/joseph-ayodele/biodata-tracker/constants"
	"github.com/joseph-ayodele/biodata-tracker/internal/common"
	"github.com/joseph-ayodele/biodata-tracker/internal/entity"
	"github.com/joseph-ayodele/biodata-tracker/internal/extract"
	"github.com/joseph-ayodele/biodata-tracker/internal/metrics"
	"github.com/joseph-ayodele/biodata-tracker/internal/profiles"
	"github.com/joseph-ayodele/biodata-tracker/internal/repository"
	"github.com/joseph-ayodele/biodata-tracker/internal/storage"
)

const maxAttempts = 5

// Service applies validation transitions to stored profiles. Every write is a
// compare-and-swap on the profile version.
type Service struct {
	repo       repository.ProfileRepository
	store      storage.Store
	extractor  extract.Extractor
	logger     *slog.Logger
	metrics    *metrics.Metrics
	timeout    time.Duration
	defaultMin float64
	now        func() time.Time
	reocr      singleflight.Group
}

type Config struct {
	// ExtractTimeout bounds one re-OCR extraction call.
	ExtractTimeout time.Duration
	// AutoApproveMin is used when AutoApproveAll is called without a threshold.
	// Nil selects constants.DefaultAutoApproveConfidence.
	AutoApproveMin *float64
}

func NewService(
	repo repository.ProfileRepository,
	store storage.Store,
	extractor extract.Extractor,
	cfg Config,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ExtractTimeout <= 0 {
		cfg.ExtractTimeout = 2 * time.Minute
	}
	defaultMin := constants.DefaultAutoApproveConfidence
	if cfg.AutoApproveMin != nil && *cfg.AutoApproveMin >= 0 && *cfg.AutoApproveMin <= 1 {
		defaultMin = *cfg.AutoApproveMin
	}
	return &Service{
		repo:       repo,
		store:      store,
		extractor:  extractor,
		logger:     logger,
		metrics:    m,
		timeout:    cfg.ExtractTimeout,
		defaultMin: defaultMin,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Approve(ctx context.Context, id string) (*entity.Profile, error) {
	return s.transition(ctx, id, ActionApprove, nil)
}

func (s *Service) Reject(ctx context.Context, id string) (*entity.Profile, error) {
	return s.transition(ctx, id, ActionReject, nil)
}

// FlagForReview marks a pending profile as needing manual review.
func (s *Service) FlagForReview(ctx context.Context, id string) (*entity.Profile, error) {
	return s.transition(ctx, id, ActionFlagForReview, nil)
}

// EditAndApprove merges updates into the profile's fields and approves it.
// A nil value clears the field. Unknown field names and values that do not
// match the biodata schema are rejected without touching the profile.
func (s *Service) EditAndApprove(ctx context.Context, id string, updates map[string]any) (*entity.Profile, error) {
	return s.transition(ctx, id, ActionEditAndApprove, func(p *entity.Profile) error {
		fields, err := profiles.MergeFields(p.Fields, updates)
		if err != nil {
			return err
		}
		p.Fields = fields
		return nil
	})
}

// transition runs the read-check-write cycle for action, retrying when another
// writer bumped the version in between.
func (s *Service) transition(ctx context.Context, id string, action Action, mutate func(*entity.Profile) error) (*entity.Profile, error) {
	logger := common.LoggerFrom(ctx, s.logger)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		p, err := s.repo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		from := p.OCRStatus
		to, ok := Next(from, action)
		if !ok {
			return nil, common.InvalidStatef("cannot %s profile %s in status %s", action, id, from)
		}
		if mutate != nil {
			if err := mutate(p); err != nil {
				return nil, err
			}
		}
		p.OCRStatus = to

		err = s.repo.Update(ctx, p)
		if errors.Is(err, common.ErrConflict) {
			logger.Debug("validation.retry", "profile_id", id, "action", action, "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, err
		}
		s.metrics.IncTransition(string(action), 1)
		logger.Info("validation.transition", "profile_id", id, "action", action, "from", from, "to", to)
		return p, nil
	}
	return nil, common.Conflictf("profile %s kept changing during %s", id, action)
}

// ReOCR re-extracts the profile from its stored source document. On success
// the fields, confidence and raw text are replaced and the profile returns to
// pending. Concurrent calls for one profile share a single extraction.
func (s *Service) ReOCR(ctx context.Context, id string) (*entity.Profile, error) {
	v, err, _ := s.reocr.Do(id, func() (any, error) {
		return s.reOCR(context.WithoutCancel(ctx), id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*entity.Profile).Clone(), nil
}

func (s *Service) reOCR(ctx context.Context, id string) (*entity.Profile, error) {
	logger := common.LoggerFrom(ctx, s.logger).With("profile_id", id)
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	to, ok := Next(p.OCRStatus, ActionReOCR)
	if !ok {
		return nil, common.InvalidStatef("cannot %s profile %s in status %s", ActionReOCR, id, p.OCRStatus)
	}
	if p.SourceFile == "" {
		return nil, common.InvalidStatef("profile %s has no source document", id)
	}

	content, err := s.store.Get(ctx, p.SourceFile)
	if err != nil {
		return nil, fmt.Errorf("load source document: %w", err)
	}
	filename := p.OriginalFilename
	if filename == "" {
		filename = p.SourceFile
	}

	extractCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	start := time.Now()
	res, err := s.extractor.Extract(extractCtx, extract.Document{
		Content:  content,
		MIMEHint: constants.MapExtToMIME(filepath.Ext(filename)),
		Filename: filename,
	})
	s.metrics.ObserveExtraction(time.Since(start))
	if err != nil {
		err = extract.Classify(extractCtx, err)
		logger.Warn("validation.re_ocr.failed", "error", err)
		return nil, err
	}

	from := p.OCRStatus
	conf := res.Confidence
	p.Fields = res.Fields
	p.OCRConfidence = &conf
	p.RawOCRText = res.RawText
	p.OCRStatus = to
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.metrics.IncTransition(string(ActionReOCR), 1)
	logger.Info("validation.transition", "action", ActionReOCR, "from", from, "to", to, "confidence", conf)
	return p, nil
}

// AutoApproveAll approves every pending or needs_review profile whose
// confidence is at least minConfidence, in one store operation. A nil
// threshold uses the configured default.
func (s *Service) AutoApproveAll(ctx context.Context, minConfidence *float64) (int, error) {
	threshold := s.defaultMin
	if minConfidence != nil {
		threshold = *minConfidence
	}
	if err := common.NewValidator().Field("min_confidence", threshold, common.UnitInterval).Err(); err != nil {
		return 0, err
	}
	n, err := s.repo.ApproveByConfidence(ctx, sourceStatuses(ActionAutoApprove), threshold, s.now())
	if err != nil {
		return 0, err
	}
	s.metrics.IncTransition(string(ActionAutoApprove), n)
	common.LoggerFrom(ctx, s.logger).Info("validation.auto_approve", "min_confidence", threshold, "approved", n)
	return n, nil
}
