package analyses

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sentiment-backend/internal/extract"
	"sentiment-backend/internal/sentiment"
	"sentiment-backend/internal/shared/server/middleware"
	"sentiment-backend/internal/shared/server/respond"
	"sentiment-backend/internal/sources"
)

const maxUploadBytes = 5 << 20

// Handler wires HTTP handlers to the analyses service.
type Handler struct {
	Svc  *Service
	poll *pollLimiter
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc, poll: newPollLimiter(pollLimitWindow, nil)}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyze", h.analyzeText)
	rg.GET("/topics", h.listTopics)
	rg.POST("/analyses", h.createAnalysis)
	rg.POST("/analyses/upload", h.uploadAnalysis)
	rg.GET("/analyses", h.listAnalyses)
	rg.GET("/analyses/:id", h.getAnalysis)
	rg.POST("/analyses/:id/reanalyze", h.reanalyze)
	rg.DELETE("/analyses/:id", h.deleteAnalysis)
}

type analyzeRequest struct {
	Text    string `json:"text"`
	URL     string `json:"url"`
	Keyword string `json:"keyword"`
	Model   string `json:"model"`
}

func (h *Handler) analyzeText(c *gin.Context) {
	var req analyzeRequest
	if !bindJSON(c, &req) {
		return
	}
	c.Set(middleware.ModeKey, req.Model)

	result, err := h.Svc.AnalyzeText(requestContext(c), req.Text, req.Model, req.Keyword)
	if err != nil {
		writeServiceError(c, err, "failed to analyze text")
		return
	}
	respond.OK(c, result)
}

func (h *Handler) listTopics(c *gin.Context) {
	respond.OK(c, gin.H{
		"topics": h.Svc.Topics(),
		"models": sentiment.Modes(),
	})
}

func (h *Handler) createAnalysis(c *gin.Context) {
	var req analyzeRequest
	if !bindJSON(c, &req) {
		return
	}
	h.create(c, CreateInput{
		Text:    req.Text,
		URL:     req.URL,
		Keyword: req.Keyword,
		Mode:    req.Model,
	})
}

func (h *Handler) uploadAnalysis(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes+(1<<10))
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds the upload limit", gin.H{"maxBytes": maxUploadBytes})
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	if fileHeader.Size > maxUploadBytes {
		respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds the upload limit", gin.H{"maxBytes": maxUploadBytes})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file could not be read", nil)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file could not be read", nil)
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	text, err := extract.ExtractTextFromBytes(requestContext(c), data, mimeType, fileHeader.Filename)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupportedType) {
			respond.Error(c, http.StatusUnsupportedMediaType, "unsupported_media_type", "file type is not supported", gin.H{"mimeType": mimeType})
			return
		}
		respond.Error(c, http.StatusUnprocessableEntity, "extract_failed", "text could not be extracted from the file", nil)
		return
	}

	h.create(c, CreateInput{
		Text:    text,
		Keyword: c.PostForm("keyword"),
		Mode:    c.PostForm("model"),
	})
}

func (h *Handler) create(c *gin.Context, in CreateInput) {
	userID := middleware.UserIDFromContext(c)
	c.Set(middleware.ModeKey, in.Mode)

	analysis, err := h.Svc.Create(requestContext(c), userID, in)
	if err != nil {
		writeServiceError(c, err, "failed to create analysis")
		return
	}
	c.Set(middleware.AnalysisIDKey, analysis.ID)

	if analysis.Status == StatusQueued {
		respond.Accepted(c, analysis.ID, analysis.Status)
		return
	}
	respond.Created(c, analysis)
}

func (h *Handler) getAnalysis(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	analysisID := c.Param("id")
	c.Set(middleware.AnalysisIDKey, analysisID)

	analysis, err := h.Svc.Get(requestContext(c), userID, analysisID)
	if err != nil {
		writeServiceError(c, err, "failed to fetch analysis")
		return
	}
	if !analysis.Terminal() && !h.poll.Allow(userID, analysisID) {
		retryAfter := h.poll.RetryAfterSeconds()
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		respond.Error(c, http.StatusTooManyRequests, "rate_limited", "polling too frequently", gin.H{
			"retryAfterMs": retryAfter * 1000,
		})
		return
	}
	respond.OK(c, analysis)
}

func (h *Handler) listAnalyses(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	limit := defaultListLimit
	offset := 0
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "limit must be an integer", nil)
			return
		}
		limit = parsed
	}
	if v := c.Query("offset"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "offset must be an integer", nil)
			return
		}
		offset = parsed
	}

	filter, err := ParseFilter(c.Query("sentiment"), c.Query("q"), limit, offset)
	if err != nil {
		writeServiceError(c, err, "failed to list analyses")
		return
	}
	items, err := h.Svc.List(requestContext(c), userID, filter)
	if err != nil {
		writeServiceError(c, err, "failed to list analyses")
		return
	}
	respond.OK(c, items)
}

type reanalyzeRequest struct {
	Model string `json:"model"`
}

func (h *Handler) reanalyze(c *gin.Context) {
	var req reanalyzeRequest
	if c.Request.ContentLength != 0 {
		if !bindJSON(c, &req) {
			return
		}
	}
	userID := middleware.UserIDFromContext(c)
	analysisID := c.Param("id")
	c.Set(middleware.ModeKey, req.Model)

	analysis, err := h.Svc.Reanalyze(requestContext(c), userID, analysisID, req.Model)
	if err != nil {
		writeServiceError(c, err, "failed to reanalyze")
		return
	}
	c.Set(middleware.AnalysisIDKey, analysis.ID)
	if analysis.Status == StatusQueued {
		respond.Accepted(c, analysis.ID, analysis.Status)
		return
	}
	respond.Created(c, analysis)
}

func (h *Handler) deleteAnalysis(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	analysisID := c.Param("id")
	c.Set(middleware.AnalysisIDKey, analysisID)

	if err := h.Svc.Delete(requestContext(c), userID, analysisID); err != nil {
		writeServiceError(c, err, "failed to delete analysis")
		return
	}
	respond.NoContent(c)
}

// bindJSON decodes the body, answering 400 itself when it cannot.
func bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		respond.Error(c, http.StatusBadRequest, "invalid_input", "field must be a string", gin.H{"field": typeErr.Field})
		return false
	}
	respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
	return false
}

func writeServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, sentiment.ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "invalid_input", "text must be valid UTF-8 text", nil)
	case errors.Is(err, sentiment.ErrInvalidMode):
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown model", gin.H{"models": sentiment.Modes()})
	case errors.Is(err, ErrTextRequired):
		respond.Error(c, http.StatusBadRequest, "validation_error", "text or url is required", nil)
	case errors.Is(err, ErrInvalidFilter):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrKeywordNotFound):
		respond.Error(c, http.StatusUnprocessableEntity, "keyword_not_found", "no sentence contains the keyword", nil)
	case errors.Is(err, sources.ErrFetchFailed):
		respond.Error(c, http.StatusBadGateway, "fetch_failed", "could not fetch content from url", nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "analysis not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}

func requestContext(c *gin.Context) context.Context {
	return WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
}
