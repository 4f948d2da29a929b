package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ehtisham-sadiq/social-content-api/internal/logger"
	"github.com/ehtisham-sadiq/social-content-api/internal/scheduler"
)

type bulkScheduleRequest struct {
	AccountID uuid.UUID        `json:"account_id" binding:"required"`
	PostIDs   []uuid.UUID      `json:"post_ids"   binding:"required,min=1"`
	Strategy  string           `json:"strategy"   binding:"required"`
	Config    scheduler.Config `json:"config"`
}

// bulkSchedule assigns publish timestamps to a batch of posts
// POST /api/v1/posts/bulk-schedule
func (r *Router) bulkSchedule(c *gin.Context) {
	ctx := c.Request.Context()

	var req bulkScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request payload",
			"details": err.Error(),
		})
		return
	}

	// Every post in the batch must exist and belong to the requesting
	// account; a partial match rejects the whole request.
	owned, err := r.posts.FilterOwned(ctx, req.AccountID, req.PostIDs)
	if err != nil {
		r.handleRepositoryError(c, err, "posts", "load")
		return
	}
	if len(owned) != len(req.PostIDs) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "One or more posts do not exist or belong to another account",
			"requested": len(req.PostIDs),
			"found":     len(owned),
		})
		return
	}

	strategy, err := scheduler.StrategyFromConfig(req.Strategy, req.Config)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	assignments, err := scheduler.Allocate(r.now().UTC(), req.PostIDs, strategy)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	scheduled := make([]scheduler.Assignment, 0, len(assignments))
	for _, assignment := range assignments {
		if scheduleErr := r.posts.Schedule(ctx, assignment.PostID, assignment.ScheduledTime); scheduleErr != nil {
			// Already-published posts and races are skipped, not fatal.
			r.logger.Warn("failed to schedule post in batch",
				logger.String("post_id", assignment.PostID.String()),
				logger.Error(scheduleErr))
			continue
		}
		scheduled = append(scheduled, assignment)
	}

	c.JSON(http.StatusOK, gin.H{
		"strategy":        req.Strategy,
		"requested_count": len(req.PostIDs),
		"scheduled_count": len(scheduled),
		"assignments":     scheduled,
	})
}
