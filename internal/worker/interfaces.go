// Package worker provides the recurring background loops that publish due
// posts and reconcile engagement metrics.
package worker

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ehtisham-sadiq/social-content-api/internal/domain"
	"github.com/ehtisham-sadiq/social-content-api/internal/linkedin"
	"github.com/ehtisham-sadiq/social-content-api/internal/tracker"
)

// PostStore is the persistence surface the workers need for posts.
type PostStore interface {
	FetchDue(ctx context.Context, now time.Time, window time.Duration) ([]domain.Post, error)
	FetchNeedingSync(ctx context.Context, now time.Time, limit int) ([]domain.Post, error)
	MarkPublished(ctx context.Context, id uuid.UUID, externalID, shareURL string, publishedAt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID) error
}

// AccountStore resolves account credentials.
type AccountStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
}

// MetricsStore is the persistence surface for per-post engagement records.
type MetricsStore interface {
	EnsureForPost(ctx context.Context, postID, accountID uuid.UUID) error
	GetByPostID(ctx context.Context, postID uuid.UUID) (*domain.PostMetrics, error)
	UpdateEngagement(ctx context.Context, postID uuid.UUID, likes, comments, shares int64, engagementRate float64, syncedAt time.Time) error
}

// Publisher performs external publish calls.
type Publisher interface {
	PublishText(ctx context.Context, accessToken, authorProfileID, text string) (*linkedin.PublishResult, error)
	PublishImage(ctx context.Context, accessToken, authorProfileID, text, imageURL string) (*linkedin.PublishResult, error)
}

// MetricsFetcher retrieves engagement counters from the platform.
type MetricsFetcher interface {
	GetPostMetrics(ctx context.Context, accessToken, externalPostID string) (*linkedin.EngagementCounts, error)
}

// TokenEnsurer guarantees an account credential is usable, refreshing it when
// expired.
type TokenEnsurer interface {
	EnsureValid(ctx context.Context, account *domain.Account) error
}

// ActivityTracker records worker outcomes for the stats endpoint.
// Implementations must be best-effort and never fail the caller.
type ActivityTracker interface {
	RecordPublished(ctx context.Context, post *domain.Post, publishedAt time.Time)
	RecordFailed(ctx context.Context, postID string)
	RecordSynced(ctx context.Context, postID string)
}

var _ ActivityTracker = (*tracker.Tracker)(nil)

// NopActivityTracker discards all activity records.
type NopActivityTracker struct{}

func (NopActivityTracker) RecordPublished(context.Context, *domain.Post, time.Time) {}
func (NopActivityTracker) RecordFailed(context.Context, string)                     {}
func (NopActivityTracker) RecordSynced(context.Context, string)                     {}
