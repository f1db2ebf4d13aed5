package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/joseph-ayodele/biodata-tracker/constants"
	"github.com/joseph-ayodele/biodata-tracker/internal/common"
	"github.com/joseph-ayodele/biodata-tracker/internal/entity"
	"github.com/joseph-ayodele/biodata-tracker/internal/extract"
	"github.com/joseph-ayodele/biodata-tracker/internal/repository"
	"github.com/joseph-ayodele/biodata-tracker/internal/storage"
)

const maxUpdateAttempts = 5

// Service handles profile business logic outside the validation workflow.
type Service struct {
	profileRepo repository.ProfileRepository
	store       storage.Store
	logger      *slog.Logger
}

// NewService creates a new profile service.
func NewService(profileRepo repository.ProfileRepository, store storage.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		profileRepo: profileRepo,
		store:       store,
		logger:      logger,
	}
}

// CreateProfile stores an operator-entered profile. It is approved on
// creation and carries no extraction confidence.
func (s *Service) CreateProfile(ctx context.Context, fields entity.Fields) (*entity.Profile, error) {
	if fields.Filled() == 0 {
		return nil, common.InvalidInputf("at least one field is required")
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return nil, common.InvalidInputf("encode fields: %v", err)
	}
	if err := extract.ValidateFieldsJSON(b); err != nil {
		return nil, common.InvalidInputf("%v", err)
	}

	p := &entity.Profile{Fields: fields, OCRStatus: constants.OCRStatusApproved}
	if err := s.profileRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	common.LoggerFrom(ctx, s.logger).Info("profile created successfully", "profile_id", p.ID, "name", entity.Str(fields.Name))
	return p, nil
}

// UpdateProfile merges updates into the profile's fields without changing
// its status or confidence. The write is retried when another writer bumped
// the version in between.
func (s *Service) UpdateProfile(ctx context.Context, id string, updates map[string]any) (*entity.Profile, error) {
	if len(updates) == 0 {
		return nil, common.InvalidInputf("updates must not be empty")
	}
	logger := common.LoggerFrom(ctx, s.logger)
	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		p, err := s.profileRepo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		fields, err := MergeFields(p.Fields, updates)
		if err != nil {
			return nil, err
		}
		p.Fields = fields

		err = s.profileRepo.Update(ctx, p)
		if errors.Is(err, common.ErrConflict) {
			logger.Debug("profile update retry", "profile_id", id, "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, err
		}
		logger.Info("profile updated", "profile_id", id, "fields", len(updates), "version", p.Version)
		return p, nil
	}
	return nil, common.Conflictf("profile %s kept changing during update", id)
}

func (s *Service) GetProfile(ctx context.Context, id string) (*entity.Profile, error) {
	return s.profileRepo.Get(ctx, id)
}

// ListProfiles returns one page of profiles, newest first. An empty status
// lists every status.
func (s *Service) ListProfiles(ctx context.Context, status string, page, pageSize int) (entity.ProfilePage, error) {
	var filter repository.ProfileFilter
	if status != "" {
		st, ok := constants.ParseOCRStatus(status)
		if !ok {
			return entity.ProfilePage{}, common.InvalidInputf("unknown status %q", status)
		}
		filter.Statuses = []constants.OCRStatus{st}
	}
	out, err := s.profileRepo.List(ctx, filter, page, pageSize)
	if err != nil {
		return entity.ProfilePage{}, err
	}
	s.logger.Debug("profiles listed successfully", "count", len(out.Items), "total", out.Total, "page", out.Page)
	return out, nil
}

// DeleteProfile removes the profile and then, best effort, its source document.
func (s *Service) DeleteProfile(ctx context.Context, id string) error {
	p, err := s.profileRepo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.profileRepo.Delete(ctx, id); err != nil {
		return err
	}
	logger := common.LoggerFrom(ctx, s.logger)
	if p.SourceFile != "" {
		if err := s.store.Delete(ctx, p.SourceFile); err != nil && !errors.Is(err, common.ErrNotFound) {
			logger.Warn("source document not removed", "profile_id", id, "source_file", p.SourceFile, "error", err)
		}
	}
	logger.Info("profile deleted", "profile_id", id)
	return nil
}

// SourceDocument returns the stored upload behind a profile.
func (s *Service) SourceDocument(ctx context.Context, id string) ([]byte, string, error) {
	p, err := s.profileRepo.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if p.SourceFile == "" {
		return nil, "", common.NotFoundf("profile %s has no source document", id)
	}
	b, err := s.store.Get(ctx, p.SourceFile)
	if err != nil {
		return nil, "", err
	}
	name := p.OriginalFilename
	if name == "" {
		name = p.SourceFile
	}
	return b, name, nil
}
