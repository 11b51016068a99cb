package analyses

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"sentiment-backend/internal/sentiment"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const analysisColumns = `id, user_id, mode, status, text_preview, text_key, keyword, source_url,
       result, error_message, duration_ms, created_at, updated_at, completed_at`

// Create inserts a new analysis.
func (r *PGRepo) Create(ctx context.Context, analysis Analysis) error {
	const query = `
INSERT INTO analyses (
	id, user_id, mode, status, text_preview, text_key, keyword, source_url,
	result, error_message, duration_ms, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	resultPayload, err := marshalResult(analysis.Result)
	if err != nil {
		return err
	}
	updatedAt := analysis.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = analysis.CreatedAt
	}
	_, err = r.DB.ExecContext(ctx, query,
		analysis.ID,
		analysis.UserID,
		string(analysis.Mode),
		analysis.Status,
		analysis.TextPreview,
		analysis.TextKey,
		analysis.Keyword,
		analysis.SourceURL,
		resultPayload,
		analysis.ErrorMessage,
		analysis.DurationMs,
		analysis.CreatedAt,
		updatedAt,
	)
	return err
}

// GetByID returns a live analysis by ID.
func (r *PGRepo) GetByID(ctx context.Context, analysisID string) (Analysis, error) {
	if !validID(analysisID) {
		return Analysis{}, ErrNotFound
	}
	query := `
SELECT ` + analysisColumns + `
FROM analyses
WHERE id = $1::uuid AND deleted_at IS NULL
LIMIT 1`
	a, err := scanAnalysis(r.DB.QueryRowContext(ctx, query, analysisID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Analysis{}, ErrNotFound
		}
		return Analysis{}, err
	}
	return a, nil
}

// UpdateStatus applies a status transition; nil fields keep their stored values.
func (r *PGRepo) UpdateStatus(ctx context.Context, analysisID string, update StatusUpdate) error {
	const query = `
UPDATE analyses
SET status = $1,
    result = COALESCE($2::jsonb, result),
    error_message = COALESCE($3::text, error_message),
    duration_ms = COALESCE($4::double precision, duration_ms),
    completed_at = COALESCE($5::timestamptz, completed_at),
    updated_at = $6
WHERE id = $7::uuid AND deleted_at IS NULL`

	if !validID(analysisID) {
		return ErrNotFound
	}
	resultPayload, err := marshalResult(update.Result)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query,
		update.Status,
		resultPayload,
		update.ErrorMessage,
		update.DurationMs,
		update.CompletedAt,
		update.UpdatedAt,
		analysisID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUser lists a user's analyses matching filter, newest first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, filter Filter) ([]Analysis, error) {
	filter = filter.normalized()
	query := `
SELECT ` + analysisColumns + `
FROM analyses
WHERE user_id = $1 AND deleted_at IS NULL
  AND ($2 = '' OR result->>'sentiment' = $2)
  AND ($3 = '' OR mode = $3)
  AND ($4 = '' OR position(lower($4) in lower(text_preview)) > 0)
ORDER BY created_at DESC, seq DESC
LIMIT $5 OFFSET $6`

	rows, err := r.DB.QueryContext(ctx, query,
		userID,
		string(filter.Sentiment),
		string(filter.Mode),
		filter.Search,
		filter.Limit,
		filter.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Analysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SoftDelete marks an analysis owned by userID as deleted.
func (r *PGRepo) SoftDelete(ctx context.Context, userID, analysisID string) error {
	const query = `
UPDATE analyses
SET deleted_at = now(),
    updated_at = now()
WHERE id = $1::uuid AND user_id = $2 AND deleted_at IS NULL`

	if !validID(analysisID) {
		return ErrNotFound
	}
	res, err := r.DB.ExecContext(ctx, query, analysisID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// TrimUser soft-deletes every analysis of userID beyond the newest keep.
func (r *PGRepo) TrimUser(ctx context.Context, userID string, keep int) ([]Analysis, error) {
	if keep < 0 {
		keep = 0
	}
	const query = `
UPDATE analyses
SET deleted_at = now(),
    updated_at = now()
WHERE id IN (
    SELECT id FROM analyses
    WHERE user_id = $1 AND deleted_at IS NULL
    ORDER BY created_at DESC, seq DESC
    OFFSET $2
)
RETURNING id, text_key`

	rows, err := r.DB.QueryContext(ctx, query, userID, keep)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trimmed []Analysis
	for rows.Next() {
		a := Analysis{UserID: userID}
		if err := rows.Scan(&a.ID, &a.TextKey); err != nil {
			return nil, err
		}
		trimmed = append(trimmed, a)
	}
	return trimmed, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (Analysis, error) {
	var a Analysis
	var mode string
	var result []byte
	var errorMessage sql.NullString
	var completedAt sql.NullTime
	if err := row.Scan(
		&a.ID,
		&a.UserID,
		&mode,
		&a.Status,
		&a.TextPreview,
		&a.TextKey,
		&a.Keyword,
		&a.SourceURL,
		&result,
		&errorMessage,
		&a.DurationMs,
		&a.CreatedAt,
		&a.UpdatedAt,
		&completedAt,
	); err != nil {
		return Analysis{}, err
	}
	a.Mode = sentiment.Mode(mode)
	if len(result) > 0 {
		var res sentiment.Result
		if err := json.Unmarshal(result, &res); err != nil {
			return Analysis{}, fmt.Errorf("decode result for analysis %s: %w", a.ID, err)
		}
		a.Result = &res
	}
	if errorMessage.Valid {
		a.ErrorMessage = &errorMessage.String
	}
	if completedAt.Valid {
		a.CompletedAt = &completedAt.Time
	}
	return a, nil
}

func marshalResult(res *sentiment.Result) (any, error) {
	if res == nil {
		return nil, nil
	}
	payload, err := json.Marshal(res)
	if err != nil {
		return nil, err
	}
	return string(payload), nil
}

var _ Repo = (*PGRepo)(nil)

// validID reports whether id can name a row; the id column is a UUID.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
