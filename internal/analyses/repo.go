package analyses

import "context"

// Repo defines persistence operations for analyses.
type Repo interface {
	Create(ctx context.Context, analysis Analysis) error
	GetByID(ctx context.Context, analysisID string) (Analysis, error)
	UpdateStatus(ctx context.Context, analysisID string, update StatusUpdate) error
	ListByUser(ctx context.Context, userID string, filter Filter) ([]Analysis, error)
	SoftDelete(ctx context.Context, userID, analysisID string) error
	// TrimUser removes all but the newest keep analyses of a user and returns the removed ones.
	TrimUser(ctx context.Context, userID string, keep int) ([]Analysis, error)
}
