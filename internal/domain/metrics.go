package domain

import (
	"time"

	"github.com/google/uuid"
)

// PostMetrics is the engagement record for a published post, one-to-one with
// the post. Created lazily on first publish or first sync.
type PostMetrics struct {
	ID             uuid.UUID  `db:"id"              json:"id"`
	PostID         uuid.UUID  `db:"post_id"         json:"post_id"`
	AccountID      uuid.UUID  `db:"account_id"      json:"account_id"`
	Impressions    int64      `db:"impressions"     json:"impressions"`
	Clicks         int64      `db:"clicks"          json:"clicks"`
	Likes          int64      `db:"likes"           json:"likes"`
	Comments       int64      `db:"comments"        json:"comments"`
	Shares         int64      `db:"shares"          json:"shares"`
	EngagementRate float64    `db:"engagement_rate" json:"engagement_rate"`
	LastSynced     *time.Time `db:"last_synced"     json:"last_synced,omitempty"`
	CreatedAt      time.Time  `db:"created_at"      json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"      json:"updated_at"`
}

// EngagementRate computes the engagement percentage for the given counters.
// Returns 0 when impressions is 0 so a fresh record never divides by zero.
func EngagementRate(likes, comments, shares, impressions int64) float64 {
	if impressions <= 0 {
		return 0
	}
	const percent = 100
	return float64(likes+comments+shares) / float64(impressions) * percent
}

// Recalculate refreshes the stored engagement rate from the current counters.
func (m *PostMetrics) Recalculate() {
	m.EngagementRate = EngagementRate(m.Likes, m.Comments, m.Shares, m.Impressions)
}
