package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ehtisham-sadiq/social-content-api/internal/logger"
	"github.com/ehtisham-sadiq/social-content-api/internal/tracker"
)

// getStats returns post counts by status plus recent worker activity
// GET /api/v1/stats
func (r *Router) getStats(c *gin.Context) {
	ctx := c.Request.Context()

	counts, err := r.posts.CountByStatus(ctx)
	if err != nil {
		r.handleRepositoryError(c, err, "stats", "get")
		return
	}

	// Activity counters are best-effort: Redis being down degrades the
	// response instead of failing it.
	var activity map[string]int64
	var recent []tracker.RecentPublication
	if r.activity != nil {
		if activity, err = r.activity.Counters(ctx); err != nil {
			r.logger.Warn("failed to read activity counters", logger.Error(err))
			activity = nil
		}
		if recent, err = r.activity.RecentPublications(ctx, recentActivityLimit); err != nil {
			r.logger.Warn("failed to read recent publications", logger.Error(err))
			recent = nil
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"posts_by_status":     counts,
		"activity":            activity,
		"recent_publications": recent,
		"generated_at":        r.now().UTC(),
	})
}
