package analyses

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"sentiment-backend/internal/queue"
	"sentiment-backend/internal/sentiment"
	"sentiment-backend/internal/shared/cache"
	"sentiment-backend/internal/shared/metrics"
	"sentiment-backend/internal/shared/storage/object"
	"sentiment-backend/internal/shared/telemetry"
	"sentiment-backend/internal/shared/util"
	"sentiment-backend/internal/sources"
)

const (
	DefaultHistoryLimit = 20
	textFileName        = "text.txt"
	messageVersion      = 1
)

// Service contains business logic for analyses.
type Service struct {
	Repo     Repo
	Store    object.ObjectStore
	Analyzer *sentiment.Analyzer
	Fetcher  sources.Fetcher
	// Queue defers processing to a worker when set; otherwise analyses run inline.
	Queue        queue.Client
	Cache        cache.Cache
	CacheTTL     time.Duration
	Clock        clockwork.Clock
	HistoryLimit int
}

// CreateInput is the caller-supplied source of an analysis.
type CreateInput struct {
	Text    string
	URL     string
	Keyword string
	Mode    string
}

// Create validates the input, stores the text and either queues or runs the analysis.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (Analysis, error) {
	if userID == "" {
		return Analysis{}, errors.New("userID is required")
	}
	mode, err := sentiment.ParseMode(in.Mode)
	if err != nil {
		return Analysis{}, err
	}

	text := in.Text
	sourceURL := strings.TrimSpace(in.URL)
	if strings.TrimSpace(text) == "" && sourceURL != "" {
		text, err = s.fetch(ctx, sourceURL)
		if err != nil {
			return Analysis{}, err
		}
	}
	if strings.TrimSpace(text) == "" {
		return Analysis{}, ErrTextRequired
	}
	if !utf8.ValidString(text) {
		return Analysis{}, sentiment.ErrInvalidInput
	}

	keyword := strings.TrimSpace(in.Keyword)
	if keyword != "" {
		text = FilterByKeyword(text, keyword)
		if strings.TrimSpace(text) == "" {
			return Analysis{}, fmt.Errorf("%w: %q", ErrKeywordNotFound, keyword)
		}
	}

	return s.start(ctx, userID, mode, text, keyword, sourceURL)
}

// Reanalyze starts a new analysis over the stored text of an existing one. An empty
// mode reuses the original mode.
func (s *Service) Reanalyze(ctx context.Context, userID, analysisID, rawMode string) (Analysis, error) {
	original, err := s.Get(ctx, userID, analysisID)
	if err != nil {
		return Analysis{}, err
	}
	mode := original.Mode
	if strings.TrimSpace(rawMode) != "" {
		mode, err = sentiment.ParseMode(rawMode)
		if err != nil {
			return Analysis{}, err
		}
	}
	text, err := s.loadText(ctx, original.TextKey)
	if err != nil {
		return Analysis{}, fmt.Errorf("load text for analysis %s: %w", original.ID, err)
	}
	return s.start(ctx, userID, mode, text, original.Keyword, original.SourceURL)
}

// Get returns an analysis owned by userID.
func (s *Service) Get(ctx context.Context, userID, analysisID string) (Analysis, error) {
	if analysisID == "" {
		return Analysis{}, errors.New("analysisID is required")
	}
	analysis, err := s.Repo.GetByID(ctx, analysisID)
	if err != nil {
		return Analysis{}, err
	}
	if analysis.UserID != userID {
		return Analysis{}, ErrNotFound
	}
	return analysis, nil
}

// List returns a user's analyses matching filter, newest first.
func (s *Service) List(ctx context.Context, userID string, filter Filter) ([]Analysis, error) {
	if userID == "" {
		return nil, errors.New("userID is required")
	}
	return s.Repo.ListByUser(ctx, userID, filter.normalized())
}

// Delete removes an analysis and its stored text.
func (s *Service) Delete(ctx context.Context, userID, analysisID string) error {
	analysis, err := s.Get(ctx, userID, analysisID)
	if err != nil {
		return err
	}
	if err := s.Repo.SoftDelete(ctx, userID, analysisID); err != nil {
		return err
	}
	s.deleteText(ctx, analysis)
	telemetry.Info("analysis.deleted", map[string]any{
		"request_id":  requestIDFromContext(ctx),
		"user_id":     userID,
		"analysis_id": analysisID,
	})
	return nil
}

// AnalyzeText scores text without recording it in any history.
func (s *Service) AnalyzeText(ctx context.Context, text, rawMode, keyword string) (sentiment.Result, error) {
	mode, err := sentiment.ParseMode(rawMode)
	if err != nil {
		return sentiment.Result{}, err
	}
	keyword = strings.TrimSpace(keyword)
	if keyword != "" {
		text = FilterByKeyword(text, keyword)
		if strings.TrimSpace(text) == "" {
			return sentiment.Result{}, fmt.Errorf("%w: %q", ErrKeywordNotFound, keyword)
		}
	}
	return s.analyze(ctx, text, mode)
}

// Topics returns the configured topic categories in ranking tie-break order.
func (s *Service) Topics() []sentiment.Topic {
	if s.Analyzer == nil {
		return nil
	}
	return s.Analyzer.Lexicon().Topics
}

// ProcessAnalysis runs a queued analysis. Completed analyses are left untouched so
// redelivered queue messages are harmless.
func (s *Service) ProcessAnalysis(ctx context.Context, analysisID string) error {
	analysis, err := s.Repo.GetByID(ctx, analysisID)
	if err != nil {
		return fmt.Errorf("analysis lookup id=%s: %w", analysisID, err)
	}
	if analysis.Status == StatusCompleted {
		return nil
	}
	text, err := s.loadText(ctx, analysis.TextKey)
	if err != nil {
		err = fmt.Errorf("load text for analysis %s: %w", analysis.ID, err)
		s.failAnalysis(ctx, analysis, err, s.now())
		return err
	}
	return s.process(ctx, analysis, text)
}

func (s *Service) start(ctx context.Context, userID string, mode sentiment.Mode, text, keyword, sourceURL string) (Analysis, error) {
	if s.Store == nil {
		return Analysis{}, ErrStoreNotConfigured
	}
	textKey, _, _, err := s.Store.Save(ctx, userID, textFileName, strings.NewReader(text))
	if err != nil {
		return Analysis{}, fmt.Errorf("store text: %w", err)
	}

	now := s.now()
	analysis := Analysis{
		ID:          uuid.NewString(),
		UserID:      userID,
		Mode:        mode,
		Status:      StatusQueued,
		TextPreview: previewFor(text),
		TextKey:     textKey,
		Keyword:     keyword,
		SourceURL:   sourceURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Repo.Create(ctx, analysis); err != nil {
		return Analysis{}, err
	}
	s.enforceHistoryLimit(ctx, userID)

	if s.Queue != nil {
		msg := queue.Message{
			AnalysisID: analysis.ID,
			RequestID:  requestIDFromContext(ctx),
			EnqueuedAt: now.Format(time.RFC3339),
			Version:    messageVersion,
		}
		if err := s.Queue.Send(ctx, msg); err != nil {
			err = fmt.Errorf("enqueue analysis %s: %w", analysis.ID, err)
			s.failAnalysis(ctx, analysis, err, now)
			return Analysis{}, err
		}
		telemetry.Info("analysis.status", statusFields(ctx, analysis, StatusQueued))
		return analysis, nil
	}

	if err := s.process(ctx, analysis, text); err != nil {
		return Analysis{}, err
	}
	return s.Repo.GetByID(ctx, analysis.ID)
}

func (s *Service) process(ctx context.Context, analysis Analysis, text string) error {
	startedAt := s.now()
	if err := s.Repo.UpdateStatus(ctx, analysis.ID, StatusUpdate{Status: StatusProcessing, UpdatedAt: startedAt}); err != nil {
		err = fmt.Errorf("set processing: %w", err)
		s.failAnalysis(ctx, analysis, err, startedAt)
		return err
	}
	metrics.IncAnalysisStarted(string(analysis.Mode))
	telemetry.Info("analysis.status", statusFields(ctx, analysis, StatusProcessing))
	analysis.Status = StatusProcessing

	result, err := s.analyze(ctx, text, analysis.Mode)
	if err != nil {
		err = fmt.Errorf("analyze: %w", err)
		s.failAnalysis(ctx, analysis, err, startedAt)
		return err
	}

	completedAt := s.now()
	duration := durationMs(startedAt, completedAt)
	if err := s.Repo.UpdateStatus(ctx, analysis.ID, StatusUpdate{
		Status:      StatusCompleted,
		Result:      &result,
		DurationMs:  &duration,
		CompletedAt: &completedAt,
		UpdatedAt:   completedAt,
	}); err != nil {
		err = fmt.Errorf("set result: %w", err)
		s.failAnalysis(ctx, analysis, err, startedAt)
		return err
	}
	metrics.IncAnalysisCompleted(string(analysis.Mode), string(result.Sentiment))
	metrics.ObserveAnalysisDurationMs(string(analysis.Mode), duration)
	fields := statusFields(ctx, analysis, StatusCompleted)
	fields["sentiment"] = string(result.Sentiment)
	fields["duration_ms"] = duration
	telemetry.Info("analysis.status", fields)
	return nil
}

// analyze consults the result cache for basic mode, the only deterministic variant.
func (s *Service) analyze(ctx context.Context, text string, mode sentiment.Mode) (sentiment.Result, error) {
	if s.Analyzer == nil {
		return sentiment.Result{}, ErrAnalyzerNotConfigured
	}
	if mode != sentiment.ModeBasic || s.Cache == nil {
		return s.Analyzer.Analyze(ctx, text, mode)
	}

	key := "result:" + string(mode) + ":" + util.HashText(text)
	if cached, ok, err := s.Cache.Get(ctx, key); err != nil {
		telemetry.Warn("analysis.cache_get_failed", map[string]any{"error": err})
	} else if ok {
		var res sentiment.Result
		if err := json.Unmarshal(cached, &res); err == nil {
			metrics.IncCacheHit()
			return res, nil
		}
	}
	metrics.IncCacheMiss()

	res, err := s.Analyzer.Analyze(ctx, text, mode)
	if err != nil {
		return sentiment.Result{}, err
	}
	if payload, err := json.Marshal(res); err == nil {
		if err := s.Cache.Set(ctx, key, payload, s.CacheTTL); err != nil {
			telemetry.Warn("analysis.cache_set_failed", map[string]any{"error": err})
		}
	}
	return res, nil
}

func (s *Service) failAnalysis(ctx context.Context, analysis Analysis, err error, startedAt time.Time) {
	msg := sanitizeError(err)
	completedAt := s.now()
	duration := durationMs(startedAt, completedAt)
	// the caller's context may already be canceled; the failure must still be recorded
	if updateErr := s.Repo.UpdateStatus(context.WithoutCancel(ctx), analysis.ID, StatusUpdate{
		Status:       StatusFailed,
		ErrorMessage: &msg,
		DurationMs:   &duration,
		CompletedAt:  &completedAt,
		UpdatedAt:    completedAt,
	}); updateErr != nil {
		telemetry.Error("analysis.fail_update_failed", map[string]any{
			"analysis_id": analysis.ID,
			"error":       updateErr,
			"cause":       msg,
		})
	}
	metrics.IncAnalysisFailed(string(analysis.Mode))
	metrics.ObserveAnalysisDurationMs(string(analysis.Mode), duration)
	fields := statusFields(ctx, analysis, StatusFailed)
	fields["duration_ms"] = duration
	fields["error"] = msg
	telemetry.Info("analysis.status", fields)
}

// enforceHistoryLimit drops the oldest analyses beyond the per-user cap.
func (s *Service) enforceHistoryLimit(ctx context.Context, userID string) {
	limit := s.HistoryLimit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	trimmed, err := s.Repo.TrimUser(ctx, userID, limit)
	if err != nil {
		telemetry.Warn("analysis.trim_failed", map[string]any{
			"user_id": userID,
			"error":   err,
		})
		return
	}
	for _, a := range trimmed {
		s.deleteText(ctx, a)
	}
	if len(trimmed) > 0 {
		telemetry.Info("analysis.history_trimmed", map[string]any{
			"user_id": userID,
			"removed": len(trimmed),
		})
	}
}

func (s *Service) deleteText(ctx context.Context, analysis Analysis) {
	if s.Store == nil || analysis.TextKey == "" {
		return
	}
	if err := s.Store.Delete(ctx, analysis.TextKey); err != nil && !errors.Is(err, object.ErrNotFound) {
		telemetry.Warn("analysis.text_delete_failed", map[string]any{
			"analysis_id": analysis.ID,
			"error":       err,
		})
	}
}

func (s *Service) fetch(ctx context.Context, url string) (string, error) {
	if s.Fetcher == nil {
		return "", fmt.Errorf("%w: no fetcher configured", sources.ErrFetchFailed)
	}
	text, err := s.Fetcher.Fetch(ctx, url)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	return text, nil
}

func (s *Service) loadText(ctx context.Context, key string) (string, error) {
	if s.Store == nil {
		return "", ErrStoreNotConfigured
	}
	body, err := s.Store.Open(ctx, key)
	if err != nil {
		return "", err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func durationMs(startedAt, completedAt time.Time) float64 {
	if startedAt.IsZero() || completedAt.Before(startedAt) {
		return 0
	}
	return float64(completedAt.Sub(startedAt).Microseconds()) / 1000.0
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}
