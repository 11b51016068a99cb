package analyses

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentiment-backend/internal/sentiment"
)

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("", "", 0, -3)
	require.NoError(t, err)
	assert.Equal(t, Filter{Limit: defaultListLimit}, f)

	f, err = ParseFilter(" Positive ", " rocket ", 500, 2)
	require.NoError(t, err)
	assert.Equal(t, sentiment.Positive, f.Sentiment)
	assert.Equal(t, "rocket", f.Search)
	assert.Equal(t, maxListLimit, f.Limit)
	assert.Equal(t, 2, f.Offset)

	f, err = ParseFilter("blockchain", "", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, sentiment.ModeBlockchain, f.Mode)
	assert.Empty(t, f.Sentiment)

	_, err = ParseFilter("angry", "", 10, 0)
	assert.True(t, errors.Is(err, ErrInvalidFilter))
}

func TestFilterMatches(t *testing.T) {
	positive := Analysis{Mode: sentiment.ModeBasic, TextPreview: "A Great Day", Result: &sentiment.Result{Sentiment: sentiment.Positive}}
	pending := Analysis{Mode: sentiment.ModeBlockchain, TextPreview: "pending"}

	assert.True(t, Filter{}.matches(pending))
	assert.True(t, Filter{Sentiment: sentiment.Positive}.matches(positive))
	assert.False(t, Filter{Sentiment: sentiment.Positive}.matches(pending))
	assert.True(t, Filter{Mode: sentiment.ModeBlockchain}.matches(pending))
	assert.False(t, Filter{Mode: sentiment.ModeBlockchain}.matches(positive))
	assert.True(t, Filter{Search: "great"}.matches(positive))
	assert.False(t, Filter{Search: "awful"}.matches(positive))
}
