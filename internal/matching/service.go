package matching

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/biodata-tracker/constants"
	"github.com/joseph-ayodele/biodata-tracker/internal/common"
	"github.com/joseph-ayodele/biodata-tracker/internal/entity"
	"github.com/joseph-ayodele/biodata-tracker/internal/extract"
	"github.com/joseph-ayodele/biodata-tracker/internal/repository"
)

// Query selects candidates either by explicit preferences or by similarity to
// a reference profile, given by id or as an unsaved profile.
type Query struct {
	Preferences *entity.Preferences
	ReferenceID string
	Reference   *entity.Profile
}

// Service ranks stored approved profiles.
type Service struct {
	engine    *Engine
	repo      repository.ProfileRepository
	extractor extract.Extractor
	timeout   time.Duration
	maxBytes  int64
	logger    *slog.Logger
}

func NewService(engine *Engine, repo repository.ProfileRepository, extractor extract.Extractor, extractTimeout time.Duration, maxFileSizeMB int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if extractTimeout <= 0 {
		extractTimeout = 2 * time.Minute
	}
	if maxFileSizeMB <= 0 {
		maxFileSizeMB = constants.DefaultMaxFileSizeMB
	}
	return &Service{
		engine:    engine,
		repo:      repo,
		extractor: extractor,
		timeout:   extractTimeout,
		maxBytes:  int64(maxFileSizeMB) * 1024 * 1024,
		logger:    logger,
	}
}

func (s *Service) approved(ctx context.Context) ([]*entity.Profile, error) {
	return s.repo.ListAll(ctx, repository.ProfileFilter{Statuses: []constants.OCRStatus{constants.OCRStatusApproved}})
}

// RankMatches ranks approved profiles for q. A reference profile is never
// returned as its own match.
func (s *Service) RankMatches(ctx context.Context, q Query, limit int) ([]entity.MatchResult, error) {
	if q.Preferences != nil && (q.ReferenceID != "" || q.Reference != nil) {
		return nil, common.InvalidInputf("give either preferences or a reference profile, not both")
	}
	var prefs entity.Preferences
	if q.Preferences != nil {
		var err error
		if prefs, err = normalizePreferences(*q.Preferences); err != nil {
			return nil, err
		}
	}

	ref := q.Reference
	if q.ReferenceID != "" {
		p, err := s.repo.Get(ctx, q.ReferenceID)
		if err != nil {
			return nil, err
		}
		ref = p
	}

	var exclude string
	if ref != nil {
		prefs = s.engine.ReferencePreferences(ref)
		exclude = ref.ID
	}
	if prefs.Empty() {
		return []entity.MatchResult{}, nil
	}

	candidates, err := s.approved(ctx)
	if err != nil {
		return nil, err
	}
	results := s.engine.Rank(prefs, candidates, limit, exclude)
	common.LoggerFrom(ctx, s.logger).Debug("matching.ranked",
		"candidates", len(candidates), "results", len(results), "reference_id", exclude)
	return results, nil
}

// SearchByUpload extracts a temporary profile from an uploaded document and
// ranks approved profiles against it. Nothing is persisted.
func (s *Service) SearchByUpload(ctx context.Context, upload entity.Upload, limit int) (*entity.Profile, []entity.MatchResult, error) {
	err := common.NewValidator().
		Field("filename", upload.Filename, common.AllowedExtension).
		Field("content", upload.Content, common.NonEmpty, common.MaxBytes(s.maxBytes)).
		Err()
	if err != nil {
		return nil, nil, err
	}

	extractCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	res, err := s.extractor.Extract(extractCtx, extract.Document{
		Content:  upload.Content,
		MIMEHint: constants.MapExtToMIME(filepath.Ext(upload.Filename)),
		Filename: upload.Filename,
	})
	if err != nil {
		return nil, nil, extract.Classify(extractCtx, err)
	}

	conf := res.Confidence
	tmp := &entity.Profile{
		Fields:           res.Fields,
		OCRStatus:        constants.OCRStatusPending,
		OCRConfidence:    &conf,
		OriginalFilename: upload.Filename,
		RawOCRText:       res.RawText,
	}
	results, err := s.RankMatches(ctx, Query{Reference: tmp}, limit)
	if err != nil {
		return nil, nil, err
	}
	return tmp, results, nil
}

// Stats aggregates the approved profiles.
func (s *Service) Stats(ctx context.Context) (entity.SearchStats, error) {
	profiles, err := s.approved(ctx)
	if err != nil {
		return entity.SearchStats{}, err
	}
	return Stats(profiles), nil
}

// normalizePreferences checks the age range and maps enum synonyms to their canonical form.
func normalizePreferences(p entity.Preferences) (entity.Preferences, error) {
	if p.MinAge != nil && p.MaxAge != nil && *p.MinAge > *p.MaxAge {
		return p, common.InvalidInputf("min_age %d is greater than max_age %d", *p.MinAge, *p.MaxAge)
	}
	if p.Gender != nil {
		g, ok := constants.CanonicalGender(string(*p.Gender))
		if !ok {
			return p, common.InvalidInputf("unknown gender %q", *p.Gender)
		}
		p.Gender = &g
	}
	if p.MaritalStatus != nil {
		m, ok := constants.CanonicalMaritalStatus(string(*p.MaritalStatus))
		if !ok {
			return p, common.InvalidInputf("unknown marital_status %q", *p.MaritalStatus)
		}
		p.MaritalStatus = &m
	}
	return p, nil
}
