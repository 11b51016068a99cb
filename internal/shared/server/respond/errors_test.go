package respond

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorWritesEnvelopeWithRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		c.Set("requestId", "req-1")
		Error(c, http.StatusUnprocessableEntity, "keyword_not_found", "no sentence contains the keyword", gin.H{"keyword": "pricing"})
	})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/x", nil))

	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "keyword_not_found", body.Error.Code)
	assert.Equal(t, "req-1", body.Error.RequestID)
	assert.Equal(t, map[string]interface{}{"keyword": "pricing"}, body.Error.Details)
}

func TestAcceptedAndNoContent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/q", func(c *gin.Context) { Accepted(c, "a-1", "queued") })
	r.DELETE("/q", func(c *gin.Context) { NoContent(c) })

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/q", nil))
	assert.Equal(t, http.StatusAccepted, resp.Code)
	assert.JSONEq(t, `{"analysisId":"a-1","status":"queued"}`, resp.Body.String())

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodDelete, "/q", nil))
	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.Empty(t, resp.Body.String())
}
