// Package bootstrap wires configuration into the repositories, services and router
// shared by every entry point.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"

	"sentiment-backend/internal/analyses"
	"sentiment-backend/internal/queue"
	"sentiment-backend/internal/sentiment"
	"sentiment-backend/internal/shared/cache"
	"sentiment-backend/internal/shared/config"
	"sentiment-backend/internal/shared/metrics"
	"sentiment-backend/internal/shared/server"
	"sentiment-backend/internal/shared/server/middleware"
	"sentiment-backend/internal/shared/storage/db"
	"sentiment-backend/internal/shared/storage/object"
	localstore "sentiment-backend/internal/shared/storage/object/local"
	miniostore "sentiment-backend/internal/shared/storage/object/minio"
	s3store "sentiment-backend/internal/shared/storage/object/s3"
	"sentiment-backend/internal/shared/telemetry"
	"sentiment-backend/internal/sources"
)

// App holds shared dependencies.
type App struct {
	Config            config.Config
	Router            *gin.Engine
	DB                *sql.DB
	Store             object.ObjectStore
	Queue             queue.Client
	Cache             cache.Cache
	Analyzer          *sentiment.Analyzer
	AnalysesRepo      analyses.Repo
	AnalysesService   *analyses.Service
	AnalysisProcessor AnalysisProcessor
	AnalysisHandler   *analyses.Handler

	closers []func() error
}

// AnalysisProcessor allows callers to override analysis processing for tests.
type AnalysisProcessor interface {
	ProcessAnalysis(ctx context.Context, analysisID string) error
}

// Build prepares shared dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()
	app := &App{Config: cfg}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.DB = sqlDB
	if sqlDB != nil {
		if err := metrics.RegisterDBStats(sqlDB, "analyses"); err != nil {
			telemetry.Warn("bootstrap.db_metrics_failed", map[string]any{"error": err})
		}
	}

	if app.Store, err = buildStore(ctx, cfg); err != nil {
		return nil, err
	}
	if app.Queue, err = buildQueue(ctx, cfg); err != nil {
		return nil, err
	}
	if app.Cache, err = buildCache(ctx, app); err != nil {
		return nil, err
	}
	if app.Analyzer, err = buildAnalyzer(cfg); err != nil {
		return nil, err
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		DB:              app.DB,
		AnalysisHandler: app.AnalysisHandler,
		RateLimiter:     middleware.NewRateLimiter(nil),
	})

	return app, nil
}

// Close releases the cache connection. The database pool may be a process-wide
// singleton and is left open.
func (a *App) Close() error {
	var errs []error
	for _, closer := range a.closers {
		if err := closer(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if config.IsDevLike(cfg.Env) {
			telemetry.Info("bootstrap.memory_repositories", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	profile := db.RuntimeProfile()
	if profile == db.ProfileLambda {
		sqlDB, err = db.Shared(ctx, cfg.DatabaseURL, db.PoolOptions(profile))
	} else {
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, db.PoolOptions(profile))
	}
	if err != nil {
		if config.IsDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "database connect failed", "error": err})
			return nil, nil
		}
		return nil, err
	}

	if config.IsDevLike(cfg.Env) {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case "minio":
		return miniostore.New(ctx, miniostore.Options{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			Region:    cfg.AWSRegion,
			UseSSL:    cfg.MinioUseSSL,
		})
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.QueueURL) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.QueueURL, cfg.AWSRegion)
}

func buildCache(ctx context.Context, app *App) (cache.Cache, error) {
	cfg := app.Config
	if cfg.ResultCacheTTL <= 0 {
		return cache.Noop{}, nil
	}
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return cache.NewBoundedMemory(clockwork.NewRealClock(), cfg.ResultCacheMaxEntries), nil
	}
	rc, err := cache.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		if config.IsDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.redis_unavailable", map[string]any{"error": err})
			return cache.NewBoundedMemory(clockwork.NewRealClock(), cfg.ResultCacheMaxEntries), nil
		}
		return nil, err
	}
	app.closers = append(app.closers, rc.Close)
	return rc, nil
}

func buildAnalyzer(cfg config.Config) (*sentiment.Analyzer, error) {
	lex, err := sentiment.LoadLexicon(cfg.LexiconFile)
	if err != nil {
		return nil, err
	}
	analyzer, err := sentiment.NewAnalyzer(lex, nil)
	if err != nil {
		return nil, fmt.Errorf("lexicon %s: %w", cfg.LexiconFile, err)
	}
	if cfg.AnalysisPacing {
		analyzer.Pacing = sentiment.DefaultPacing()
	}
	return analyzer, nil
}

func buildServices(app *App) error {
	var analysisRepo analyses.Repo
	if app.DB != nil {
		analysisRepo = &analyses.PGRepo{DB: app.DB}
	} else {
		analysisRepo = analyses.NewMemoryRepo()
	}

	analysisSvc := &analyses.Service{
		Repo:         analysisRepo,
		Store:        app.Store,
		Analyzer:     app.Analyzer,
		Fetcher:      sources.NewSampleFetcher(app.Config.FetchDelay),
		Queue:        app.Queue,
		Cache:        app.Cache,
		CacheTTL:     app.Config.ResultCacheTTL,
		Clock:        clockwork.NewRealClock(),
		HistoryLimit: app.Config.HistoryLimit,
	}

	app.AnalysesRepo = analysisRepo
	app.AnalysesService = analysisSvc
	app.AnalysisProcessor = analysisSvc
	app.AnalysisHandler = analyses.NewHandler(analysisSvc)

	if app.AnalysisHandler == nil {
		return errors.New("failed to initialize handlers")
	}
	return nil
}
