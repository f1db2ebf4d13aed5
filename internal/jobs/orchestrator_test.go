package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/joseph-ayodele/biodata-tracker/constants"
	"github.com/joseph-ayodele/biodata-tracker/internal/common"
	"github.com/joseph-ayodele/biodata-tracker/internal/entity"
	"github.com/joseph-ayodele/biodata-tracker/internal/extract"
	"github.com/joseph-ayodele/biodata-tracker/internal/repository"
)

type memStore struct {
	mu   sync.Mutex
	seq  int
	objs map[string][]byte
}

func newMemStore() *memStore { return &memStore{objs: make(map[string][]byte)} }

func (m *memStore) Put(_ context.Context, filename string, content []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	key := fmt.Sprintf("%d-%s", m.seq, filename)
	m.objs[key] = content
	return key, nil
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objs[key]
	if !ok {
		return nil, common.NotFoundf("document %s", key)
	}
	return b, nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objs, key)
	return nil
}

func (m *memStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objs)
}

func okResult(doc extract.Document) extract.Result {
	f := entity.Fields{Name: entity.Ptr(strings.TrimSuffix(doc.Filename, ".pdf")), Age: entity.Ptr(28)}
	return extract.Result{Fields: f, Confidence: extract.Coverage(f), RawText: "raw " + doc.Filename, Model: "fake"}
}

var pdf = []byte("%PDF-1.4 fake")

type OrchestratorTestSuite struct {
	suite.Suite
	ctx      context.Context
	store    *memStore
	repo     *repository.MemoryProfileRepository
	registry *Registry
	orch     *Orchestrator
	now      time.Time
}

func (s *OrchestratorTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = newMemStore()
	s.repo = repository.NewMemoryProfileRepository()
	s.now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *OrchestratorTestSuite) TearDownTest() {
	if s.orch != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.orch.Shutdown(ctx)
		s.orch = nil
	}
}

func (s *OrchestratorTestSuite) start(ex extract.Extractor, timeout time.Duration, opts ...Option) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	proc := NewProcessor(logger, s.store, ex, s.repo, nil, timeout)
	s.registry = NewRegistry(24*time.Hour, logger)
	opts = append([]Option{withClock(func() time.Time { return s.now })}, opts...)
	s.orch = NewOrchestrator(proc, s.registry, logger, opts...)
}

func (s *OrchestratorTestSuite) waitTerminal(jobID string) entity.JobSnapshot {
	var snap entity.JobSnapshot
	s.Require().Eventually(func() bool {
		var err error
		snap, err = s.orch.Status(jobID)
		return err == nil && snap.Status.Terminal()
	}, 5*time.Second, 5*time.Millisecond)
	return snap
}

func (s *OrchestratorTestSuite) waitItem(jobID string, index int, status constants.ItemStatus) {
	s.Require().Eventually(func() bool {
		snap, err := s.orch.Status(jobID)
		return err == nil && snap.Items[index].Status == status
	}, 5*time.Second, 5*time.Millisecond)
}

func (s *OrchestratorTestSuite) TestPartialWhenOneOfThreeFails() {
	s.start(extract.ExtractorFunc(func(_ context.Context, doc extract.Document) (extract.Result, error) {
		if doc.Filename == "b.pdf" {
			return extract.Result{}, extract.Errorf(extract.KindProviderError, "provider returned 503")
		}
		return okResult(doc), nil
	}), time.Second)

	snap, err := s.orch.Submit(s.ctx, []entity.Upload{
		{Filename: "a.pdf", Content: pdf},
		{Filename: "b.pdf", Content: pdf},
		{Filename: "c.pdf", Content: pdf},
	})
	s.Require().NoError(err)
	s.Equal(3, snap.Total)

	final := s.waitTerminal(snap.JobID)
	s.Equal(constants.JobStatusPartial, final.Status)
	s.Equal(3, final.Processed)
	s.Equal(2, final.Successful)
	s.Equal(1, final.Failed)
	s.Equal(100.0, final.ProgressPercent)
	s.Require().Len(final.Errors, 1)
	s.Equal("b.pdf", final.Errors[0].Filename)
	s.Contains(final.Errors[0].Error, "503")
	s.NotNil(final.CompletedAt)

	ids, err := s.orch.Results(snap.JobID)
	s.Require().NoError(err)
	s.Require().Len(ids, 2)
	for _, id := range ids {
		p, err := s.repo.Get(s.ctx, id)
		s.Require().NoError(err)
		s.Equal(constants.OCRStatusPending, p.OCRStatus)
		s.Require().NotNil(p.OCRConfidence)
		s.NotEmpty(p.SourceFile)
	}
	s.Equal(2, s.store.Len(), "document of the failed item is discarded")
}

func (s *OrchestratorTestSuite) TestAllPrecheckFailuresFailJobImmediately() {
	s.start(extract.ExtractorFunc(func(context.Context, extract.Document) (extract.Result, error) {
		s.Fail("extractor must not be called")
		return extract.Result{}, nil
	}), time.Second, WithMaxFileSizeMB(1))

	snap, err := s.orch.Submit(s.ctx, []entity.Upload{
		{Filename: "notes.txt", Content: []byte("hello")},
		{Filename: "empty.pdf", Content: nil},
		{Filename: "huge.png", Content: make([]byte, 2*1024*1024)},
	})
	s.Require().NoError(err)
	s.Equal(constants.JobStatusFailed, snap.Status)
	s.Equal(3, snap.Processed)
	s.Equal(3, snap.Failed)
	s.Require().Len(snap.Errors, 3)
	s.Contains(snap.Errors[0].Error, "unsupported file type")
	s.Equal("file is empty", snap.Errors[1].Error)
	s.Contains(snap.Errors[2].Error, "1 MB limit")
	s.NotNil(snap.CompletedAt)
}

func (s *OrchestratorTestSuite) TestMixedPrecheckStillProcessesValidFiles() {
	s.start(extract.ExtractorFunc(func(_ context.Context, doc extract.Document) (extract.Result, error) {
		return okResult(doc), nil
	}), time.Second)

	snap, err := s.orch.Submit(s.ctx, []entity.Upload{
		{Filename: "notes.txt", Content: []byte("x")},
		{Filename: "ok.jpg", Content: pdf},
	})
	s.Require().NoError(err)
	final := s.waitTerminal(snap.JobID)
	s.Equal(constants.JobStatusPartial, final.Status)
	s.Equal(constants.ItemStatusFailed, final.Items[0].Status)
	s.Equal(constants.ItemStatusSucceeded, final.Items[1].Status)
}

func (s *OrchestratorTestSuite) TestRejectsEmptyAndOversizedBatches() {
	s.start(extract.ExtractorFunc(func(_ context.Context, doc extract.Document) (extract.Result, error) {
		return okResult(doc), nil
	}), time.Second)

	_, err := s.orch.Submit(s.ctx, nil)
	s.ErrorIs(err, common.ErrInvalidInput)

	files := make([]entity.Upload, constants.MaxBatchFiles+1)
	for i := range files {
		files[i] = entity.Upload{Filename: fmt.Sprintf("%d.pdf", i), Content: pdf}
	}
	_, err = s.orch.Submit(s.ctx, files)
	s.ErrorIs(err, common.ErrInvalidInput)
	s.Zero(s.registry.Len())
}

func (s *OrchestratorTestSuite) TestUnknownJob() {
	s.start(extract.Static{}, time.Second)
	_, err := s.orch.Status("nope")
	s.ErrorIs(err, common.ErrNotFound)
	_, err = s.orch.Results("nope")
	s.ErrorIs(err, common.ErrNotFound)
	_, err = s.orch.Cancel(s.ctx, "nope")
	s.ErrorIs(err, common.ErrNotFound)
}

func (s *OrchestratorTestSuite) TestExtractionTimeoutFailsItem() {
	s.start(extract.ExtractorFunc(func(ctx context.Context, _ extract.Document) (extract.Result, error) {
		<-ctx.Done()
		return extract.Result{}, ctx.Err()
	}), 30*time.Millisecond)

	snap, err := s.orch.Submit(s.ctx, []entity.Upload{{Filename: "slow.pdf", Content: pdf}})
	s.Require().NoError(err)
	final := s.waitTerminal(snap.JobID)
	s.Equal(constants.JobStatusFailed, final.Status)
	s.Require().Len(final.Errors, 1)
	s.Contains(final.Errors[0].Error, string(extract.KindTimeout))
	s.Zero(s.store.Len())
}

func (s *OrchestratorTestSuite) TestErrorMessagesAreTruncated() {
	long := strings.Repeat("x", 500)
	s.start(extract.ExtractorFunc(func(context.Context, extract.Document) (extract.Result, error) {
		return extract.Result{}, errors.New(long)
	}), time.Second)

	snap, err := s.orch.Submit(s.ctx, []entity.Upload{{Filename: "a.pdf", Content: pdf}})
	s.Require().NoError(err)
	final := s.waitTerminal(snap.JobID)
	s.Require().Len(final.Errors, 1)
	s.Len([]rune(final.Errors[0].Error), constants.MaxErrorLength)
}

func (s *OrchestratorTestSuite) TestCountersStayConsistentUnderLoad() {
	s.start(extract.ExtractorFunc(func(_ context.Context, doc extract.Document) (extract.Result, error) {
		time.Sleep(time.Millisecond)
		if strings.HasPrefix(doc.Filename, "bad") {
			return extract.Result{}, errors.New("unreadable")
		}
		return okResult(doc), nil
	}), time.Second, WithWorkers(3))

	var ids []string
	for j := 0; j < 4; j++ {
		files := make([]entity.Upload, 25)
		for i := range files {
			name := fmt.Sprintf("ok-%d-%d.pdf", j, i)
			if i%5 == 0 {
				name = fmt.Sprintf("bad-%d-%d.pdf", j, i)
			}
			files[i] = entity.Upload{Filename: name, Content: pdf}
		}
		snap, err := s.orch.Submit(s.ctx, files)
		s.Require().NoError(err)
		ids = append(ids, snap.JobID)
	}

	s.Require().Eventually(func() bool {
		all := true
		for _, id := range ids {
			snap, err := s.orch.Status(id)
			if !s.NoError(err) {
				return false
			}
			s.Equal(snap.Processed, snap.Successful+snap.Failed)
			s.Equal(snap.Total, len(snap.Items))
			s.LessOrEqual(snap.ProgressPercent, 100.0)
			all = all && snap.Status.Terminal()
		}
		return all
	}, 10*time.Second, 2*time.Millisecond)

	for _, id := range ids {
		snap, _ := s.orch.Status(id)
		s.Equal(constants.JobStatusPartial, snap.Status)
		s.Equal(20, snap.Successful)
		s.Equal(5, snap.Failed)
	}
}

func (s *OrchestratorTestSuite) TestCancelFailsOnlyQueuedItems() {
	gate := make(chan struct{})
	s.start(extract.ExtractorFunc(func(_ context.Context, doc extract.Document) (extract.Result, error) {
		<-gate
		return okResult(doc), nil
	}), 5*time.Second, WithWorkers(1))

	snap, err := s.orch.Submit(s.ctx, []entity.Upload{
		{Filename: "a.pdf", Content: pdf},
		{Filename: "b.pdf", Content: pdf},
		{Filename: "c.pdf", Content: pdf},
	})
	s.Require().NoError(err)
	s.waitItem(snap.JobID, 0, constants.ItemStatusProcessing)

	canceled, err := s.orch.Cancel(s.ctx, snap.JobID)
	s.Require().NoError(err)
	s.Equal(constants.JobStatusProcessing, canceled.Status)
	s.Equal(2, canceled.Failed)
	s.Equal(errCanceled, canceled.Items[1].Error)
	s.Equal(errCanceled, canceled.Items[2].Error)

	close(gate)
	final := s.waitTerminal(snap.JobID)
	s.Equal(constants.JobStatusPartial, final.Status)
	s.Equal(1, final.Successful)

	again, err := s.orch.Cancel(s.ctx, snap.JobID)
	s.Require().NoError(err)
	s.Equal(final.Failed, again.Failed)
}

func (s *OrchestratorTestSuite) TestEvictDropsExpiredTerminalJobs() {
	s.start(extract.ExtractorFunc(func(_ context.Context, doc extract.Document) (extract.Result, error) {
		return okResult(doc), nil
	}), time.Second)

	snap, err := s.orch.Submit(s.ctx, []entity.Upload{{Filename: "a.pdf", Content: pdf}})
	s.Require().NoError(err)
	s.waitTerminal(snap.JobID)

	s.Zero(s.registry.Evict(s.now.Add(time.Hour)))
	_, err = s.orch.Status(snap.JobID)
	s.NoError(err)

	s.Equal(1, s.registry.Evict(s.now.Add(25*time.Hour)))
	_, err = s.orch.Status(snap.JobID)
	s.ErrorIs(err, common.ErrNotFound)
}

func (s *OrchestratorTestSuite) TestShutdownFailsUndispatchedItems() {
	gate := make(chan struct{})
	s.start(extract.ExtractorFunc(func(_ context.Context, doc extract.Document) (extract.Result, error) {
		<-gate
		return okResult(doc), nil
	}), 5*time.Second, WithWorkers(1))

	snap, err := s.orch.Submit(s.ctx, []entity.Upload{
		{Filename: "a.pdf", Content: pdf},
		{Filename: "b.pdf", Content: pdf},
		{Filename: "c.pdf", Content: pdf},
	})
	s.Require().NoError(err)
	s.waitItem(snap.JobID, 0, constants.ItemStatusProcessing)

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		s.orch.Shutdown(context.Background())
	}()
	s.waitItem(snap.JobID, 2, constants.ItemStatusFailed)
	close(gate)
	<-stopped

	final, err := s.orch.Status(snap.JobID)
	s.Require().NoError(err)
	s.Equal(constants.JobStatusPartial, final.Status)
	s.Equal(constants.ItemStatusSucceeded, final.Items[0].Status)
	s.Equal(errDispatcherStopped, final.Items[1].Error)
	s.Equal(errDispatcherStopped, final.Items[2].Error)

	_, err = s.orch.Submit(s.ctx, []entity.Upload{{Filename: "late.pdf", Content: pdf}})
	s.ErrorIs(err, common.ErrInvalidState)
}

func TestOrchestratorTestSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorTestSuite))
}

func TestProgressRounding(t *testing.T) {
	assert.Equal(t, 33.3, progress(1, 3))
	assert.Equal(t, 66.7, progress(2, 3))
	assert.Equal(t, 100.0, progress(3, 3))
	assert.Equal(t, 0.0, progress(0, 0))
}

func TestJobStatusDerivation(t *testing.T) {
	now := time.Now()
	newItems := func(n int) []*item {
		out := make([]*item, n)
		for i := range out {
			out[i] = &item{filename: fmt.Sprintf("%d.pdf", i), status: constants.ItemStatusQueued}
		}
		return out
	}

	j := newJob("j1", now, newItems(2))
	require.Equal(t, constants.JobStatusProcessing, j.snapshot().Status)
	assert.False(t, j.succeed(0, "p1", now))
	assert.True(t, j.succeed(1, "p2", now))
	assert.Equal(t, constants.JobStatusCompleted, j.snapshot().Status)

	j = newJob("j2", now, newItems(2))
	j.fail(0, "boom", now)
	j.fail(1, "boom", now)
	assert.Equal(t, constants.JobStatusFailed, j.snapshot().Status)
}
