package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Registry maps job ids to live jobs. Its lock guards only the map; job state
// is guarded by each job's own mutex.
type Registry struct {
	mu        sync.RWMutex
	jobs      map[string]*job
	retention time.Duration
	logger    *slog.Logger
}

func NewRegistry(retention time.Duration, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{jobs: make(map[string]*job), retention: retention, logger: logger}
}

func (r *Registry) put(j *job) {
	r.mu.Lock()
	r.jobs[j.id] = j
	r.mu.Unlock()
}

func (r *Registry) get(id string) (*job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	return j, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

// Evict drops terminal jobs that completed at least retention before now and
// returns how many were removed.
func (r *Registry) Evict(now time.Time) int {
	cutoff := now.Add(-r.retention)

	r.mu.RLock()
	var stale []string
	for id, j := range r.jobs {
		if j.terminalSince(cutoff) {
			stale = append(stale, id)
		}
	}
	r.mu.RUnlock()

	if len(stale) == 0 {
		return 0
	}
	r.mu.Lock()
	for _, id := range stale {
		delete(r.jobs, id)
	}
	r.mu.Unlock()
	r.logger.Info("jobs.evicted", "count", len(stale), "retention", r.retention)
	return len(stale)
}

// RunJanitor calls Evict every interval until ctx is done.
func (r *Registry) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			r.Evict(now.UTC())
		}
	}
}
