package repository

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/joseph-ayodele/biodata-tracker/constants"
	"github.com/joseph-ayodele/biodata-tracker/internal/common"
	"github.com/joseph-ayodele/biodata-tracker/internal/entity"
)

// stepClock hands out strictly increasing timestamps so ordering is deterministic.
type stepClock struct {
	mu  sync.Mutex
	cur time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(time.Second)
	return c.cur
}

type ProfileRepositoryTestSuite struct {
	suite.Suite
	ctx  context.Context
	repo ProfileRepository
	open func(t *testing.T, clock *stepClock) ProfileRepository
}

func (s *ProfileRepositoryTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.repo = s.open(s.T(), &stepClock{cur: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)})
}

func (s *ProfileRepositoryTestSuite) create(name string, status constants.OCRStatus, confidence *float64) *entity.Profile {
	p := &entity.Profile{
		Fields:        entity.Fields{Name: entity.Ptr(name), Age: entity.Ptr(27)},
		OCRStatus:     status,
		OCRConfidence: confidence,
	}
	s.Require().NoError(s.repo.Create(s.ctx, p))
	return p
}

func (s *ProfileRepositoryTestSuite) TestCreateAndGet() {
	p := s.create("Asha", constants.OCRStatusPending, entity.Ptr(0.8))
	s.NotEmpty(p.ID)
	s.Equal(int64(1), p.Version)

	got, err := s.repo.Get(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("Asha", entity.Str(got.Fields.Name))
	s.Equal(27, *got.Fields.Age)
	s.Equal(constants.OCRStatusPending, got.OCRStatus)
	s.Require().NotNil(got.OCRConfidence)
	s.InDelta(0.8, *got.OCRConfidence, 1e-9)
	s.True(p.CreatedAt.Equal(got.CreatedAt))
}

func (s *ProfileRepositoryTestSuite) TestCreateWithoutConfidence() {
	p := s.create("Ravi", constants.OCRStatusApproved, nil)
	got, err := s.repo.Get(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Nil(got.OCRConfidence)
}

func (s *ProfileRepositoryTestSuite) TestStoresFieldsVerbatim() {
	p := &entity.Profile{Fields: entity.Fields{Name: entity.Ptr("Asha"), Hobbies: entity.Ptr("  ")}}
	s.Require().NoError(s.repo.Create(s.ctx, p))

	got, err := s.repo.Get(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got.Fields.Hobbies)
	s.Equal("  ", *got.Fields.Hobbies)
}

func (s *ProfileRepositoryTestSuite) TestGetUnknown() {
	_, err := s.repo.Get(s.ctx, "00000000-0000-0000-0000-000000000000")
	s.ErrorIs(err, common.ErrNotFound)
}

func (s *ProfileRepositoryTestSuite) TestUpdateBumpsVersion() {
	p := s.create("Asha", constants.OCRStatusPending, nil)
	p.OCRStatus = constants.OCRStatusApproved
	s.Require().NoError(s.repo.Update(s.ctx, p))
	s.Equal(int64(2), p.Version)

	got, err := s.repo.Get(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(constants.OCRStatusApproved, got.OCRStatus)
	s.Equal(int64(2), got.Version)
}

func (s *ProfileRepositoryTestSuite) TestUpdateStaleVersionConflicts() {
	p := s.create("Asha", constants.OCRStatusPending, nil)
	stale := p.Clone()

	p.OCRStatus = constants.OCRStatusApproved
	s.Require().NoError(s.repo.Update(s.ctx, p))

	stale.OCRStatus = constants.OCRStatusRejected
	err := s.repo.Update(s.ctx, stale)
	s.ErrorIs(err, common.ErrConflict)

	got, err := s.repo.Get(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(constants.OCRStatusApproved, got.OCRStatus)
}

func (s *ProfileRepositoryTestSuite) TestUpdateMissing() {
	err := s.repo.Update(s.ctx, &entity.Profile{ID: "missing", Version: 1, OCRStatus: constants.OCRStatusApproved})
	s.ErrorIs(err, common.ErrNotFound)
}

func (s *ProfileRepositoryTestSuite) TestDelete() {
	p := s.create("Asha", constants.OCRStatusPending, nil)
	s.Require().NoError(s.repo.Delete(s.ctx, p.ID))
	_, err := s.repo.Get(s.ctx, p.ID)
	s.ErrorIs(err, common.ErrNotFound)
	s.ErrorIs(s.repo.Delete(s.ctx, p.ID), common.ErrNotFound)
}

func (s *ProfileRepositoryTestSuite) TestListPagesNewestFirst() {
	var ids []string
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		ids = append(ids, s.create(name, constants.OCRStatusApproved, nil).ID)
	}
	s.create("pending", constants.OCRStatusPending, nil)

	filter := ProfileFilter{Statuses: []constants.OCRStatus{constants.OCRStatusApproved}}
	page, err := s.repo.List(s.ctx, filter, 1, 2)
	s.Require().NoError(err)
	s.Equal(5, page.Total)
	s.Require().Len(page.Items, 2)
	s.Equal(ids[4], page.Items[0].ID)
	s.Equal(ids[3], page.Items[1].ID)

	last, err := s.repo.List(s.ctx, filter, 3, 2)
	s.Require().NoError(err)
	s.Require().Len(last.Items, 1)
	s.Equal(ids[0], last.Items[0].ID)

	beyond, err := s.repo.List(s.ctx, filter, 9, 2)
	s.Require().NoError(err)
	s.Empty(beyond.Items)
	s.Equal(5, beyond.Total)

	all, err := s.repo.ListAll(s.ctx, ProfileFilter{})
	s.Require().NoError(err)
	s.Len(all, 6)
}

func (s *ProfileRepositoryTestSuite) TestApproveByConfidence() {
	high := s.create("high", constants.OCRStatusPending, entity.Ptr(0.9))
	edge := s.create("edge", constants.OCRStatusNeedsReview, entity.Ptr(0.7))
	low := s.create("low", constants.OCRStatusPending, entity.Ptr(0.5))
	none := s.create("none", constants.OCRStatusPending, nil)
	rejected := s.create("rejected", constants.OCRStatusRejected, entity.Ptr(0.99))

	from := []constants.OCRStatus{constants.OCRStatusPending, constants.OCRStatusNeedsReview}
	n, err := s.repo.ApproveByConfidence(s.ctx, from, 0.7, time.Now().UTC())
	s.Require().NoError(err)
	s.Equal(2, n)

	want := map[string]constants.OCRStatus{
		high.ID:     constants.OCRStatusApproved,
		edge.ID:     constants.OCRStatusApproved,
		low.ID:      constants.OCRStatusPending,
		none.ID:     constants.OCRStatusPending,
		rejected.ID: constants.OCRStatusRejected,
	}
	for id, status := range want {
		got, err := s.repo.Get(s.ctx, id)
		s.Require().NoError(err)
		s.Equal(status, got.OCRStatus, id)
	}
	got, err := s.repo.Get(s.ctx, high.ID)
	s.Require().NoError(err)
	s.Equal(int64(2), got.Version)

	n, err = s.repo.ApproveByConfidence(s.ctx, from, 0.7, time.Now().UTC())
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *ProfileRepositoryTestSuite) TestPing() {
	s.NoError(s.repo.Ping(s.ctx))
}

func TestMemoryProfileRepository(t *testing.T) {
	suite.Run(t, &ProfileRepositoryTestSuite{
		open: func(_ *testing.T, clock *stepClock) ProfileRepository {
			r := NewMemoryProfileRepository()
			r.now = clock.Now
			return r
		},
	})
}

func TestSQLiteProfileRepository(t *testing.T) {
	suite.Run(t, &ProfileRepositoryTestSuite{
		open: func(t *testing.T, clock *stepClock) ProfileRepository {
			return openSQLiteRepo(t, clock)
		},
	})
}

func openSQLiteRepo(t *testing.T, clock *stepClock) ProfileRepository {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := Open(context.Background(), Config{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "biodata.db")}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(logger) })

	r := NewProfileRepository(db, logger).(*sqlProfileRepository)
	r.now = clock.Now
	return r
}

func TestMigrateIsIdempotent(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := Open(context.Background(), Config{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "biodata.db")}, logger)
	require.NoError(t, err)
	defer db.Close(logger)

	assert.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, HealthCheck(context.Background(), db, time.Second, logger))
}

func TestMigrateCreatesProfilesSchema(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := Open(context.Background(), Config{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "biodata.db")}, logger)
	require.NoError(t, err)
	defer db.Close(logger)

	rows, err := db.SQL.QueryContext(context.Background(), "SELECT name FROM pragma_table_info('profiles')")
	require.NoError(t, err)
	var columns []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		columns = append(columns, name)
	}
	require.NoError(t, rows.Err())
	require.NoError(t, rows.Close())
	assert.Equal(t, profileColumns, columns)

	var index string
	err = db.SQL.QueryRowContext(context.Background(),
		"SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = 'profiles' AND name = 'profiles_status_created_idx'").Scan(&index)
	require.NoError(t, err)
	assert.Equal(t, "profiles_status_created_idx", index)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestNormalizePage(t *testing.T) {
	page, size := NormalizePage(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, DefaultPageSize, size)

	_, size = NormalizePage(2, 1000)
	assert.Equal(t, MaxPageSize, size)
}
