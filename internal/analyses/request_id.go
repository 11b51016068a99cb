package analyses

import "context"

type requestIDKey struct{}

// WithRequestID attaches the originating HTTP request ID so queued and inline
// processing log under the same ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil || requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// statusFields builds the log fields for a lifecycle transition of analysis into to.
func statusFields(ctx context.Context, analysis Analysis, to string) map[string]any {
	fields := map[string]any{
		"user_id":     analysis.UserID,
		"analysis_id": analysis.ID,
		"mode":        string(analysis.Mode),
		"status":      to,
	}
	if id := requestIDFromContext(ctx); id != "" {
		fields["request_id"] = id
	}
	if analysis.Status != "" && analysis.Status != to {
		fields["status_transition"] = analysis.Status + "->" + to
	}
	return fields
}
