// Package tracker records publish and sync activity in Redis for the stats
// endpoint. Tracking is best-effort: failures are logged, never propagated.
package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ehtisham-sadiq/social-content-api/internal/domain"
	"github.com/ehtisham-sadiq/social-content-api/internal/logger"
)

const (
	// KeyPublished is the counter of successfully published posts
	KeyPublished = "activity:published"
	// KeyFailed is the counter of failed publish attempts
	KeyFailed = "activity:failed"
	// KeySynced is the counter of completed metric refreshes
	KeySynced = "activity:synced"
	// KeyRecent is the list of recently published posts
	KeyRecent = "activity:recent"

	// MaxRecent is the maximum number of recent publications retained
	MaxRecent = 100
	// counterTTL bounds how long idle counters survive
	counterTTL = 30 * 24 * time.Hour
)

// RecentPublication is one entry in the recent-activity list.
type RecentPublication struct {
	PostID      string    `json:"post_id"`
	AccountID   string    `json:"account_id"`
	Title       string    `json:"title"`
	ExternalID  string    `json:"external_id"`
	PublishedAt time.Time `json:"published_at"`
}

// Tracker writes activity records to Redis.
type Tracker struct {
	client *redis.Client
	logger logger.Logger
}

// NewTracker creates a new activity tracker.
func NewTracker(client *redis.Client, log logger.Logger) *Tracker {
	return &Tracker{client: client, logger: log}
}

// RecordPublished increments the published counter and pushes the post onto
// the recent-activity list.
func (t *Tracker) RecordPublished(ctx context.Context, post *domain.Post, publishedAt time.Time) {
	entry := RecentPublication{
		PostID:      post.ID.String(),
		AccountID:   post.AccountID.String(),
		Title:       post.Title,
		PublishedAt: publishedAt,
	}
	if post.ExternalPostID != nil {
		entry.ExternalID = *post.ExternalPostID
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		t.logger.Warn("failed to marshal recent publication", logger.Error(err))
		return
	}

	pipe := t.client.Pipeline()
	pipe.Incr(ctx, KeyPublished)
	pipe.Expire(ctx, KeyPublished, counterTTL)
	pipe.LPush(ctx, KeyRecent, payload)
	pipe.LTrim(ctx, KeyRecent, 0, MaxRecent-1)

	if _, err := pipe.Exec(ctx); err != nil {
		t.logger.Warn("failed to record publication",
			logger.String("post_id", post.ID.String()),
			logger.Error(err),
		)
	}
}

// RecordFailed increments the failed-publish counter.
func (t *Tracker) RecordFailed(ctx context.Context, postID string) {
	t.incr(ctx, KeyFailed, postID)
}

// RecordSynced increments the metrics-sync counter.
func (t *Tracker) RecordSynced(ctx context.Context, postID string) {
	t.incr(ctx, KeySynced, postID)
}

func (t *Tracker) incr(ctx context.Context, key, postID string) {
	pipe := t.client.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, counterTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		t.logger.Warn("failed to increment activity counter",
			logger.String("redis_key", key),
			logger.String("post_id", postID),
			logger.Error(err),
		)
	}
}

// Counters returns the activity counter values.
func (t *Tracker) Counters(ctx context.Context) (map[string]int64, error) {
	keys := []string{KeyPublished, KeyFailed, KeySynced}
	values, err := t.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("read activity counters: %w", err)
	}

	counters := make(map[string]int64, len(keys))
	for i, key := range keys {
		counters[key] = 0
		if s, ok := values[i].(string); ok {
			var n int64
			if _, scanErr := fmt.Sscan(s, &n); scanErr == nil {
				counters[key] = n
			}
		}
	}
	return counters, nil
}

// RecentPublications returns up to limit recent entries, newest first.
func (t *Tracker) RecentPublications(ctx context.Context, limit int) ([]RecentPublication, error) {
	if limit <= 0 || limit > MaxRecent {
		limit = MaxRecent
	}

	raw, err := t.client.LRange(ctx, KeyRecent, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read recent publications: %w", err)
	}

	entries := make([]RecentPublication, 0, len(raw))
	for _, item := range raw {
		var entry RecentPublication
		if unmarshalErr := json.Unmarshal([]byte(item), &entry); unmarshalErr != nil {
			t.logger.Warn("skipping malformed recent publication entry", logger.Error(unmarshalErr))
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
