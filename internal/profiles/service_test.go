package profiles

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/joseph-ayodele/biodata-tracker/constants"
	"github.com/joseph-ayodele/biodata-tracker/internal/common"
	"github.com/joseph-ayodele/biodata-tracker/internal/entity"
	"github.com/joseph-ayodele/biodata-tracker/internal/repository"
	"github.com/joseph-ayodele/biodata-tracker/internal/storage"
)

type ServiceTestSuite struct {
	suite.Suite
	ctx   context.Context
	repo  *repository.MemoryProfileRepository
	store storage.Store
	svc   *Service
}

func (s *ServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.repo = repository.NewMemoryProfileRepository()
	store, err := storage.NewLocal(s.T().TempDir(), logger)
	s.Require().NoError(err)
	s.store = store
	s.svc = NewService(s.repo, s.store, logger)
}

func (s *ServiceTestSuite) TestCreateProfileIsApprovedWithoutConfidence() {
	p, err := s.svc.CreateProfile(s.ctx, entity.Fields{Name: entity.Ptr("Kavya"), Age: entity.Ptr(25)})
	s.Require().NoError(err)
	s.Equal(constants.OCRStatusApproved, p.OCRStatus)
	s.Nil(p.OCRConfidence)

	got, err := s.svc.GetProfile(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("Kavya", entity.Str(got.Fields.Name))
}

func (s *ServiceTestSuite) TestCreateProfileValidates() {
	_, err := s.svc.CreateProfile(s.ctx, entity.Fields{})
	s.ErrorIs(err, common.ErrInvalidInput)

	_, err = s.svc.CreateProfile(s.ctx, entity.Fields{Age: entity.Ptr(7)})
	s.ErrorIs(err, common.ErrInvalidInput)
}

func (s *ServiceTestSuite) TestListProfilesFiltersAndPages() {
	for i := 0; i < 3; i++ {
		_, err := s.svc.CreateProfile(s.ctx, entity.Fields{Name: entity.Ptr("x")})
		s.Require().NoError(err)
	}
	s.Require().NoError(s.repo.Create(s.ctx, &entity.Profile{OCRStatus: constants.OCRStatusPending}))

	page, err := s.svc.ListProfiles(s.ctx, "approved", 1, 2)
	s.Require().NoError(err)
	s.Equal(3, page.Total)
	s.Len(page.Items, 2)
	s.Equal(2, page.PageSize)

	all, err := s.svc.ListProfiles(s.ctx, "", 0, 0)
	s.Require().NoError(err)
	s.Equal(4, all.Total)
	s.Equal(repository.DefaultPageSize, all.PageSize)

	_, err = s.svc.ListProfiles(s.ctx, "archived", 1, 10)
	s.ErrorIs(err, common.ErrInvalidInput)
}

func (s *ServiceTestSuite) TestDeleteProfileRemovesDocument() {
	key, err := s.store.Put(s.ctx, "asha.pdf", []byte("%PDF-1.4"))
	s.Require().NoError(err)
	p := &entity.Profile{OCRStatus: constants.OCRStatusPending, SourceFile: key, OriginalFilename: "asha.pdf"}
	s.Require().NoError(s.repo.Create(s.ctx, p))

	b, name, err := s.svc.SourceDocument(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("asha.pdf", name)
	s.Equal([]byte("%PDF-1.4"), b)

	s.Require().NoError(s.svc.DeleteProfile(s.ctx, p.ID))
	_, err = s.svc.GetProfile(s.ctx, p.ID)
	s.ErrorIs(err, common.ErrNotFound)
	_, err = s.store.Get(s.ctx, key)
	s.ErrorIs(err, common.ErrNotFound)

	s.ErrorIs(s.svc.DeleteProfile(s.ctx, p.ID), common.ErrNotFound)
}

func (s *ServiceTestSuite) TestSourceDocumentMissing() {
	p, err := s.svc.CreateProfile(s.ctx, entity.Fields{Name: entity.Ptr("Manual")})
	s.Require().NoError(err)
	_, _, err = s.svc.SourceDocument(s.ctx, p.ID)
	s.ErrorIs(err, common.ErrNotFound)
}

func (s *ServiceTestSuite) TestUpdateProfileKeepsStatusAndConfidence() {
	conf := 0.82
	p := &entity.Profile{
		OCRStatus:     constants.OCRStatusApproved,
		OCRConfidence: &conf,
		Fields:        entity.Fields{Name: entity.Ptr("Meera"), Age: entity.Ptr(29), Caste: entity.Ptr("Nair")},
	}
	s.Require().NoError(s.repo.Create(s.ctx, p))

	got, err := s.svc.UpdateProfile(s.ctx, p.ID, map[string]any{"current_city": "Kochi", "gender": "F", "caste": nil})
	s.Require().NoError(err)
	s.Equal(constants.OCRStatusApproved, got.OCRStatus)
	s.Require().NotNil(got.OCRConfidence)
	s.InDelta(conf, *got.OCRConfidence, 1e-9)
	s.Equal(p.Version+1, got.Version)

	stored, err := s.repo.Get(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("Meera", entity.Str(stored.Fields.Name))
	s.Equal("Kochi", entity.Str(stored.Fields.CurrentCity))
	s.Require().NotNil(stored.Fields.Gender)
	s.Equal(constants.GenderFemale, *stored.Fields.Gender)
	s.Nil(stored.Fields.Caste)
	s.Equal(constants.OCRStatusApproved, stored.OCRStatus)
}

func (s *ServiceTestSuite) TestUpdateProfileRejectsBadInput() {
	p, err := s.svc.CreateProfile(s.ctx, entity.Fields{Name: entity.Ptr("Manual")})
	s.Require().NoError(err)

	_, err = s.svc.UpdateProfile(s.ctx, p.ID, map[string]any{})
	s.ErrorIs(err, common.ErrInvalidInput)

	_, err = s.svc.UpdateProfile(s.ctx, p.ID, map[string]any{"height_cm": 170, "name": "X"})
	s.ErrorIs(err, common.ErrInvalidInput)
	s.ErrorContains(err, "height_cm")

	_, err = s.svc.UpdateProfile(s.ctx, p.ID, map[string]any{"age": 7})
	s.ErrorIs(err, common.ErrInvalidInput)

	stored, err := s.repo.Get(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(p.Version, stored.Version)
	s.Equal("Manual", entity.Str(stored.Fields.Name))

	_, err = s.svc.UpdateProfile(s.ctx, "missing", map[string]any{"name": "X"})
	s.ErrorIs(err, common.ErrNotFound)
}

func (s *ServiceTestSuite) TestUpdateProfileRetriesOnConflict() {
	p, err := s.svc.CreateProfile(s.ctx, entity.Fields{Name: entity.Ptr("Before")})
	s.Require().NoError(err)

	racy := &conflictOnceRepo{ProfileRepository: s.repo}
	svc := NewService(racy, s.store, nil)
	got, err := svc.UpdateProfile(s.ctx, p.ID, map[string]any{"occupation": "Teacher"})
	s.Require().NoError(err)
	s.Equal(2, racy.updates)
	s.Equal("Teacher", entity.Str(got.Fields.Occupation))
}

// conflictOnceRepo fails the first Update with a version conflict.
type conflictOnceRepo struct {
	repository.ProfileRepository
	updates int
}

func (r *conflictOnceRepo) Update(ctx context.Context, p *entity.Profile) error {
	r.updates++
	if r.updates == 1 {
		return common.Conflictf("profile %s changed", p.ID)
	}
	return r.ProfileRepository.Update(ctx, p)
}

func TestMergeFieldsCanonicalizesEnums(t *testing.T) {
	got, err := MergeFields(entity.Fields{}, map[string]any{"gender": "M", "marital_status": "unmarried"})
	require.NoError(t, err)
	require.NotNil(t, got.Gender)
	require.NotNil(t, got.Marital)
	assert.Equal(t, constants.GenderMale, *got.Gender)
	assert.Equal(t, constants.MaritalSingle, *got.Marital)
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}
