package analyses

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrTextRequired          = errors.New("text or url is required")
	ErrKeywordNotFound       = errors.New("no sentence contains the keyword")
	ErrInvalidFilter         = errors.New("invalid history filter")
	ErrStoreNotConfigured    = errors.New("object store not configured")
	ErrAnalyzerNotConfigured = errors.New("analyzer not configured")
)
