package jobs

import (
	"math"
	"sync"
	"time"

	"github.com/joseph-ayodele/biodata-tracker/constants"
	"github.com/joseph-ayodele/biodata-tracker/internal/entity"
)

type item struct {
	filename  string
	content   []byte
	status    constants.ItemStatus
	err       string
	profileID string
}

// job is one batch submission. items is fixed at creation; every other field
// is guarded by mu.
type job struct {
	id        string
	createdAt time.Time
	total     int

	mu          sync.Mutex
	items       []*item
	processed   int
	successful  int
	failed      int
	completedAt *time.Time
}

func newJob(id string, now time.Time, items []*item) *job {
	return &job{id: id, createdAt: now, total: len(items), items: items}
}

// claim moves a queued item to processing. It returns false when the item was
// already settled, e.g. by Cancel, so the worker must skip it.
func (j *job) claim(i int) (string, []byte, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	it := j.items[i]
	if it.status != constants.ItemStatusQueued {
		return "", nil, false
	}
	it.status = constants.ItemStatusProcessing
	return it.filename, it.content, true
}

func (j *job) queued(i int) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.items[i].status == constants.ItemStatusQueued
}

// succeed and fail settle one item and report whether it was the job's last.
func (j *job) succeed(i int, profileID string, now time.Time) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	it := j.items[i]
	it.status = constants.ItemStatusSucceeded
	it.profileID = profileID
	it.content = nil
	j.processed++
	j.successful++
	return j.settleLocked(now)
}

func (j *job) fail(i int, msg string, now time.Time) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.failLocked(j.items[i], msg, now)
}

func (j *job) failLocked(it *item, msg string, now time.Time) bool {
	it.status = constants.ItemStatusFailed
	it.err = truncate(msg, constants.MaxErrorLength)
	it.content = nil
	j.processed++
	j.failed++
	return j.settleLocked(now)
}

// failQueued fails every item not yet handed to a worker. It returns how many
// changed and whether that finished the job.
func (j *job) failQueued(msg string, now time.Time) (int, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	n, done := 0, false
	for _, it := range j.items {
		if it.status == constants.ItemStatusQueued {
			done = j.failLocked(it, msg, now)
			n++
		}
	}
	return n, done
}

func (j *job) settleLocked(now time.Time) bool {
	if j.processed == j.total && j.completedAt == nil {
		t := now
		j.completedAt = &t
		return true
	}
	return false
}

func (j *job) statusLocked() constants.JobStatus {
	switch {
	case j.processed < j.total:
		return constants.JobStatusProcessing
	case j.successful == 0:
		return constants.JobStatusFailed
	case j.failed == 0:
		return constants.JobStatusCompleted
	default:
		return constants.JobStatusPartial
	}
}

// terminalSince reports whether the job finished at or before cutoff.
func (j *job) terminalSince(cutoff time.Time) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.completedAt != nil && !j.completedAt.After(cutoff)
}

func (j *job) snapshot() entity.JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	s := entity.JobSnapshot{
		JobID:           j.id,
		Status:          j.statusLocked(),
		Total:           j.total,
		Processed:       j.processed,
		Successful:      j.successful,
		Failed:          j.failed,
		ProgressPercent: progress(j.processed, j.total),
		Errors:          []entity.ItemError{},
		Items:           make([]entity.ItemView, len(j.items)),
		CreatedAt:       j.createdAt,
	}
	if j.completedAt != nil {
		t := *j.completedAt
		s.CompletedAt = &t
	}
	for i, it := range j.items {
		s.Items[i] = entity.ItemView{
			Index:     i,
			Filename:  it.filename,
			Status:    it.status,
			Error:     it.err,
			ProfileID: it.profileID,
		}
		if it.status == constants.ItemStatusFailed {
			s.Errors = append(s.Errors, entity.ItemError{Filename: it.filename, Error: it.err})
		}
	}
	return s
}

func progress(processed, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(processed)/float64(total)*1000) / 10
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
