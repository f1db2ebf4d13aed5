package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/joseph-ayodele/biodata-tracker/constants"
	"github.com/joseph-ayodele/biodata-tracker/internal/common"
	"github.com/joseph-ayodele/biodata-tracker/internal/entity"
)

// MemoryProfileRepository keeps profiles in a map. Records are cloned on the way in
// and out so callers never share state with the store.
type MemoryProfileRepository struct {
	mu       sync.RWMutex
	profiles map[string]*entity.Profile
	now      func() time.Time
}

func NewMemoryProfileRepository() *MemoryProfileRepository {
	return &MemoryProfileRepository{
		profiles: make(map[string]*entity.Profile),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryProfileRepository) Create(_ context.Context, p *entity.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	prepareCreate(p, r.now())
	if _, ok := r.profiles[p.ID]; ok {
		return common.Conflictf("profile %s already exists", p.ID)
	}
	r.profiles[p.ID] = p.Clone()
	return nil
}

func (r *MemoryProfileRepository) Get(_ context.Context, id string) (*entity.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, common.NotFoundf("profile %s", id)
	}
	return p.Clone(), nil
}

func (r *MemoryProfileRepository) Update(_ context.Context, p *entity.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.profiles[p.ID]
	if !ok {
		return common.NotFoundf("profile %s", p.ID)
	}
	if cur.Version != p.Version {
		return common.Conflictf("profile %s changed since version %d", p.ID, p.Version)
	}
	p.Version++
	p.CreatedAt = cur.CreatedAt
	p.UpdatedAt = r.now()
	r.profiles[p.ID] = p.Clone()
	return nil
}

func (r *MemoryProfileRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[id]; !ok {
		return common.NotFoundf("profile %s", id)
	}
	delete(r.profiles, id)
	return nil
}

func (r *MemoryProfileRepository) List(ctx context.Context, filter ProfileFilter, page, pageSize int) (entity.ProfilePage, error) {
	page, pageSize = NormalizePage(page, pageSize)
	all, _ := r.ListAll(ctx, filter)
	out := entity.ProfilePage{Items: []*entity.Profile{}, Total: len(all), Page: page, PageSize: pageSize}
	start := (page - 1) * pageSize
	if start >= len(all) {
		return out, nil
	}
	end := min(start+pageSize, len(all))
	out.Items = all[start:end]
	return out, nil
}

func (r *MemoryProfileRepository) ListAll(_ context.Context, filter ProfileFilter) ([]*entity.Profile, error) {
	r.mu.RLock()
	out := make([]*entity.Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		if filter.matches(p) {
			out = append(out, p.Clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryProfileRepository) ApproveByConfidence(_ context.Context, from []constants.OCRStatus, min float64, now time.Time) (int, error) {
	filter := ProfileFilter{Statuses: from}
	if len(from) == 0 {
		return 0, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.profiles {
		if !filter.matches(p) || p.OCRConfidence == nil || *p.OCRConfidence < min {
			continue
		}
		p.OCRStatus = constants.OCRStatusApproved
		p.Version++
		p.UpdatedAt = now
		n++
	}
	return n, nil
}

func (r *MemoryProfileRepository) Ping(context.Context) error { return nil }
