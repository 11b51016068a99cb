package analyses

import (
	"context"
	"sort"
	"sync"

	"sentiment-backend/internal/sentiment"
)

// MemoryRepo stores analyses in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu     sync.RWMutex
	byID   map[string]Analysis
	byUser map[string][]string
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:   make(map[string]Analysis),
		byUser: make(map[string][]string),
	}
}

// Create stores the analysis.
func (r *MemoryRepo) Create(ctx context.Context, analysis Analysis) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[analysis.ID] = cloneAnalysis(analysis)
	r.byUser[analysis.UserID] = append(r.byUser[analysis.UserID], analysis.ID)
	return nil
}

// GetByID returns an analysis by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, analysisID string) (Analysis, error) {
	if err := ctx.Err(); err != nil {
		return Analysis{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	analysis, ok := r.byID[analysisID]
	if !ok {
		return Analysis{}, ErrNotFound
	}
	return cloneAnalysis(analysis), nil
}

// UpdateStatus applies a status transition to an existing analysis.
func (r *MemoryRepo) UpdateStatus(ctx context.Context, analysisID string, update StatusUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	analysis, ok := r.byID[analysisID]
	if !ok {
		return ErrNotFound
	}
	analysis.Status = update.Status
	if update.Result != nil {
		res := cloneResult(*update.Result)
		analysis.Result = &res
	}
	if update.ErrorMessage != nil {
		msg := *update.ErrorMessage
		analysis.ErrorMessage = &msg
	}
	if update.DurationMs != nil {
		analysis.DurationMs = *update.DurationMs
	}
	if update.CompletedAt != nil {
		completedAt := *update.CompletedAt
		analysis.CompletedAt = &completedAt
	}
	analysis.UpdatedAt = update.UpdatedAt
	r.byID[analysisID] = analysis
	return nil
}

// ListByUser returns a user's analyses matching filter, newest first.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, filter Filter) ([]Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	filter = filter.normalized()

	r.mu.RLock()
	all := r.newestFirstLocked(userID)
	r.mu.RUnlock()

	matched := make([]Analysis, 0, len(all))
	for _, a := range all {
		if filter.matches(a) {
			matched = append(matched, a)
		}
	}
	if filter.Offset >= len(matched) {
		return []Analysis{}, nil
	}
	end := len(matched)
	if filter.Offset+filter.Limit < end {
		end = filter.Offset + filter.Limit
	}
	return matched[filter.Offset:end], nil
}

// SoftDelete removes an analysis owned by userID.
func (r *MemoryRepo) SoftDelete(ctx context.Context, userID, analysisID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	analysis, ok := r.byID[analysisID]
	if !ok || analysis.UserID != userID {
		return ErrNotFound
	}
	r.removeLocked(analysis)
	return nil
}

// TrimUser keeps the newest keep analyses of userID and removes the rest.
func (r *MemoryRepo) TrimUser(ctx context.Context, userID string, keep int) ([]Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if keep < 0 {
		keep = 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.newestFirstLocked(userID)
	if len(all) <= keep {
		return nil, nil
	}
	trimmed := all[keep:]
	for _, a := range trimmed {
		r.removeLocked(a)
	}
	return trimmed, nil
}

// newestFirstLocked orders by creation time, breaking ties by insertion order.
func (r *MemoryRepo) newestFirstLocked(userID string) []Analysis {
	ids := r.byUser[userID]
	out := make([]Analysis, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		out = append(out, cloneAnalysis(r.byID[ids[i]]))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *MemoryRepo) removeLocked(analysis Analysis) {
	delete(r.byID, analysis.ID)
	ids := r.byUser[analysis.UserID]
	for i, id := range ids {
		if id == analysis.ID {
			r.byUser[analysis.UserID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
}

func cloneAnalysis(a Analysis) Analysis {
	if a.Result != nil {
		res := cloneResult(*a.Result)
		a.Result = &res
	}
	if a.ErrorMessage != nil {
		msg := *a.ErrorMessage
		a.ErrorMessage = &msg
	}
	if a.CompletedAt != nil {
		completedAt := *a.CompletedAt
		a.CompletedAt = &completedAt
	}
	return a
}

func cloneResult(res sentiment.Result) sentiment.Result {
	res.KeyTopics = append([]string(nil), res.KeyTopics...)
	return res
}

var _ Repo = (*MemoryRepo)(nil)
