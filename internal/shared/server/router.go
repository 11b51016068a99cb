// Package server assembles the HTTP engine: middleware, health, metrics and feature routes.
package server

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sentiment-backend/internal/analyses"
	"sentiment-backend/internal/shared/config"
	"sentiment-backend/internal/shared/metrics"
	"sentiment-backend/internal/shared/server/middleware"
	"sentiment-backend/internal/shared/server/respond"
	"sentiment-backend/internal/shared/storage/db"
	"sentiment-backend/internal/shared/telemetry"
)

const (
	readRateGroup    = "READ"
	defaultRateGroup = "DEFAULT"
	healthTimeout    = 2 * time.Second
)

// PublicPaths skip identity checks.
var PublicPaths = []string{
	"/api/v1/health",
	"/api/v1/analyze",
	"/api/v1/topics",
	"/metrics",
}

// RouterDeps holds the handlers and resources the router exposes.
type RouterDeps struct {
	Config          config.Config
	DB              *sql.DB
	AnalysisHandler *analyses.Handler
	RateLimiter     *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(PublicPaths...),
		middleware.RateLimit(rateLimitConfig(deps)),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", healthHandler(deps.DB))
	registerMeRoutes(api)
	if deps.AnalysisHandler != nil {
		deps.AnalysisHandler.RegisterRoutes(api)
	}

	return r
}

func rateLimitConfig(deps RouterDeps) middleware.RateLimitConfig {
	rps := deps.Config.RateLimitRPS
	burst := deps.Config.RateLimitBurst
	limiter := deps.RateLimiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(nil)
	}
	return middleware.RateLimitConfig{
		DefaultGroup: defaultRateGroup,
		Limiter:      limiter,
		GroupFor: func(c *gin.Context) string {
			switch c.FullPath() {
			case "/metrics", "/api/v1/health":
				return "UNLIMITED"
			}
			if c.Request.Method == http.MethodGet {
				return readRateGroup
			}
			return defaultRateGroup
		},
		Rules: map[string]middleware.RateLimitRule{
			defaultRateGroup: {Rate: rps, Burst: burst},
			readRateGroup:    {Rate: rps * 4, Burst: burst * 2},
		},
	}
}

func healthHandler(database *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := db.Check(c.Request.Context(), database, healthTimeout)
		switch {
		case errors.Is(err, db.ErrNoDatabase):
			respond.OK(c, gin.H{"ok": true, "db": "memory"})
		case err != nil:
			telemetry.Warn("health.db_unavailable", map[string]any{"error": err})
			respond.JSON(c, http.StatusServiceUnavailable, gin.H{"ok": false, "db": "unavailable"})
		default:
			respond.OK(c, gin.H{"ok": true, "db": "ok"})
		}
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
