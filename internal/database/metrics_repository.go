package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ehtisham-sadiq/social-content-api/internal/domain"
)

const metricsSelectList = `id, post_id, account_id, impressions, clicks, likes,
			comments, shares, engagement_rate, last_synced,
			created_at, updated_at`

// MetricsRepository manages per-post engagement records in PostgreSQL
type MetricsRepository struct {
	db *sqlx.DB
}

// NewMetricsRepository creates a new repository instance
func NewMetricsRepository(db *sqlx.DB) *MetricsRepository {
	return &MetricsRepository{db: db}
}

// EnsureForPost lazily creates an empty metrics record for a post. The
// operation is idempotent: an existing record is left untouched.
func (r *MetricsRepository) EnsureForPost(ctx context.Context, postID, accountID uuid.UUID) error {
	query := `
		INSERT INTO post_metrics (id, post_id, account_id, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (post_id) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query, uuid.New(), postID, accountID)
	if err != nil {
		return fmt.Errorf("ensure metrics record: %w", err)
	}
	return nil
}

// GetByPostID retrieves the metrics record for a post
func (r *MetricsRepository) GetByPostID(ctx context.Context, postID uuid.UUID) (*domain.PostMetrics, error) {
	metrics := &domain.PostMetrics{}
	query := `SELECT ` + metricsSelectList + ` FROM post_metrics WHERE post_id = $1`

	err := r.db.GetContext(ctx, metrics, query, postID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get metrics: %w", err)
	}
	return metrics, nil
}

// UpdateEngagement stores freshly fetched engagement counters and stamps the
// sync time. Impressions and clicks arrive through a separate update path and
// are not touched here.
func (r *MetricsRepository) UpdateEngagement(ctx context.Context, postID uuid.UUID, likes, comments, shares int64, engagementRate float64, syncedAt time.Time) error {
	query := `
		UPDATE post_metrics
		SET likes = $2,
		    comments = $3,
		    shares = $4,
		    engagement_rate = $5,
		    last_synced = $6,
		    updated_at = NOW()
		WHERE post_id = $1`

	result, err := r.db.ExecContext(ctx, query, postID, likes, comments, shares, engagementRate, syncedAt)
	if err != nil {
		return fmt.Errorf("update engagement: %w", err)
	}
	rows, rowsErr := result.RowsAffected()
	if rowsErr != nil {
		return fmt.Errorf("get affected rows: %w", rowsErr)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
