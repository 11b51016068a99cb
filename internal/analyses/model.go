package analyses

import (
	"time"
	"unicode/utf8"

	"sentiment-backend/internal/sentiment"
)

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

const previewRunes = 200

// Analysis is one sentiment analysis in a user's history.
type Analysis struct {
	ID           string            `json:"id"`
	UserID       string            `json:"userId"`
	Mode         sentiment.Mode    `json:"model"`
	Status       string            `json:"status"`
	TextPreview  string            `json:"textPreview"`
	TextKey      string            `json:"-"`
	Keyword      string            `json:"keyword,omitempty"`
	SourceURL    string            `json:"sourceUrl,omitempty"`
	Result       *sentiment.Result `json:"result,omitempty"`
	ErrorMessage *string           `json:"errorMessage,omitempty"`
	DurationMs   float64           `json:"durationMs"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
	CompletedAt  *time.Time        `json:"completedAt,omitempty"`
}

// StatusUpdate carries the fields changed by a status transition. Nil fields are left as they are.
type StatusUpdate struct {
	Status       string
	Result       *sentiment.Result
	ErrorMessage *string
	DurationMs   *float64
	CompletedAt  *time.Time
	UpdatedAt    time.Time
}

// Terminal reports whether the analysis will not change status again.
func (a Analysis) Terminal() bool {
	return a.Status == StatusCompleted || a.Status == StatusFailed
}

// previewFor keeps the first 200 characters and marks truncation with an ellipsis.
func previewFor(text string) string {
	if utf8.RuneCountInString(text) <= previewRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:previewRunes]) + "..."
}
