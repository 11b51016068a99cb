package analyses

import (
	"fmt"
	"strings"

	"sentiment-backend/internal/sentiment"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Filter narrows a history listing. Zero values match everything.
type Filter struct {
	Sentiment sentiment.Label
	Mode      sentiment.Mode
	Search    string
	Limit     int
	Offset    int
}

// ParseFilter builds a Filter from history query values. kind is one of all, positive,
// negative, neutral or blockchain; blockchain selects consensus-mode analyses.
func ParseFilter(kind, search string, limit, offset int) (Filter, error) {
	f := Filter{
		Search: strings.TrimSpace(search),
		Limit:  limit,
		Offset: offset,
	}
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "all":
	case "positive":
		f.Sentiment = sentiment.Positive
	case "negative":
		f.Sentiment = sentiment.Negative
	case "neutral":
		f.Sentiment = sentiment.Neutral
	case string(sentiment.ModeBlockchain):
		f.Mode = sentiment.ModeBlockchain
	default:
		return Filter{}, fmt.Errorf("%w: sentiment %q", ErrInvalidFilter, kind)
	}
	return f.normalized(), nil
}

func (f Filter) normalized() Filter {
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

func (f Filter) matches(a Analysis) bool {
	if f.Sentiment != "" && (a.Result == nil || a.Result.Sentiment != f.Sentiment) {
		return false
	}
	if f.Mode != "" && a.Mode != f.Mode {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(a.TextPreview), strings.ToLower(f.Search)) {
		return false
	}
	return true
}
