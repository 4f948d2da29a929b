package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ehtisham-sadiq/social-content-api/internal/domain"
)

type postCreateRequest struct {
	AccountID     uuid.UUID  `json:"account_id"     binding:"required"`
	Title         string     `json:"title"          binding:"required"`
	Body          string     `json:"body"           binding:"required"`
	ImageURL      *string    `json:"image_url"`
	ScheduledTime *time.Time `json:"scheduled_time"`
}

// createPost creates a new post, optionally scheduled at creation
// POST /api/v1/posts
func (r *Router) createPost(c *gin.Context) {
	ctx := c.Request.Context()

	var req postCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request payload",
			"details": err.Error(),
		})
		return
	}

	post, err := domain.NewPost(req.AccountID, req.Title, req.Body, req.ImageURL, req.ScheduledTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	if err := r.posts.Create(ctx, post); err != nil {
		r.handleRepositoryError(c, err, "post", "create")
		return
	}

	c.JSON(http.StatusCreated, post)
}

// getPost retrieves a post by ID
// GET /api/v1/posts/:id
func (r *Router) getPost(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := parseUUID(c, "id", "post")
	if !ok {
		return
	}

	post, err := r.posts.GetByID(ctx, id)
	if err != nil {
		r.handleRepositoryError(c, err, "post", "get")
		return
	}

	c.JSON(http.StatusOK, post)
}

// getPostMetrics retrieves the engagement record for a post
// GET /api/v1/posts/:id/metrics
func (r *Router) getPostMetrics(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := parseUUID(c, "id", "post")
	if !ok {
		return
	}

	record, err := r.postMetrics.GetByPostID(ctx, id)
	if err != nil {
		r.handleRepositoryError(c, err, "post metrics", "get")
		return
	}

	c.JSON(http.StatusOK, record)
}
