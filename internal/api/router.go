// Package api exposes the HTTP surface: post management, bulk scheduling,
// engagement lookups, stats, and health.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ehtisham-sadiq/social-content-api/internal/database"
	"github.com/ehtisham-sadiq/social-content-api/internal/domain"
	"github.com/ehtisham-sadiq/social-content-api/internal/logger"
	"github.com/ehtisham-sadiq/social-content-api/internal/metrics"
	"github.com/ehtisham-sadiq/social-content-api/internal/tracker"
)

const (
	healthStatusHealthy  = "healthy"
	healthStatusDegraded = "degraded"
	healthCheckTimeout   = 2 * time.Second
	recentActivityLimit  = 10
	serviceVersion       = "1.0.0"
)

// PostStore is the persistence surface the handlers need for posts.
type PostStore interface {
	Create(ctx context.Context, post *domain.Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error)
	FilterOwned(ctx context.Context, accountID uuid.UUID, ids []uuid.UUID) ([]domain.Post, error)
	Schedule(ctx context.Context, id uuid.UUID, at time.Time) error
	CountByStatus(ctx context.Context) (map[domain.PostStatus]int64, error)
}

// MetricsStore reads per-post engagement records.
type MetricsStore interface {
	GetByPostID(ctx context.Context, postID uuid.UUID) (*domain.PostMetrics, error)
}

// ActivityReader reads worker activity for the stats endpoint.
type ActivityReader interface {
	Counters(ctx context.Context) (map[string]int64, error)
	RecentPublications(ctx context.Context, limit int) ([]tracker.RecentPublication, error)
}

var (
	_ PostStore      = (*database.PostRepository)(nil)
	_ MetricsStore   = (*database.MetricsRepository)(nil)
	_ ActivityReader = (*tracker.Tracker)(nil)
)

// HealthCheck probes one dependency. A nil check is skipped.
type HealthCheck func(ctx context.Context) error

// Router holds the API dependencies
type Router struct {
	posts       PostStore
	postMetrics MetricsStore
	activity    ActivityReader
	collector   *metrics.Collector
	logger      logger.Logger

	dbCheck    HealthCheck
	redisCheck HealthCheck

	now func() time.Time
}

// NewRouter creates a new API router
func NewRouter(
	posts PostStore,
	postMetrics MetricsStore,
	activity ActivityReader,
	collector *metrics.Collector,
	dbCheck, redisCheck HealthCheck,
	log logger.Logger,
) *Router {
	return &Router{
		posts:       posts,
		postMetrics: postMetrics,
		activity:    activity,
		collector:   collector,
		logger:      log,
		dbCheck:     dbCheck,
		redisCheck:  redisCheck,
		now:         time.Now,
	}
}

// RedisHealthCheck adapts a Redis client into a HealthCheck.
func RedisHealthCheck(client *redis.Client) HealthCheck {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

// Engine builds the gin engine with all routes registered.
func (r *Router) Engine(debug bool) *gin.Engine {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	engine.GET("/health", r.health)
	if r.collector != nil {
		engine.GET("/metrics", gin.WrapH(r.collector.Handler()))
	}

	v1 := engine.Group("/api/v1")
	{
		v1.POST("/posts", r.createPost)
		v1.GET("/posts/:id", r.getPost)
		v1.GET("/posts/:id/metrics", r.getPostMetrics)
		v1.POST("/posts/bulk-schedule", r.bulkSchedule)
		v1.GET("/stats", r.getStats)
	}

	return engine
}

// health reports dependency status
// GET /health
func (r *Router) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	status := healthStatusHealthy
	checks := gin.H{}

	runCheck := func(name string, check HealthCheck) {
		if check == nil {
			return
		}
		if err := check(ctx); err != nil {
			status = healthStatusDegraded
			checks[name] = err.Error()
			return
		}
		checks[name] = "ok"
	}

	runCheck("database", r.dbCheck)
	runCheck("redis", r.redisCheck)

	code := http.StatusOK
	if status != healthStatusHealthy {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":  status,
		"version": serviceVersion,
		"checks":  checks,
	})
}
