package tracker_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehtisham-sadiq/social-content-api/internal/domain"
	"github.com/ehtisham-sadiq/social-content-api/internal/logger"
	"github.com/ehtisham-sadiq/social-content-api/internal/tracker"
)

func newTestTracker(t *testing.T) *tracker.Tracker {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return tracker.NewTracker(client, logger.NewNopLogger())
}

func publishedPost(title string) *domain.Post {
	externalID := "urn:li:share:1"
	return &domain.Post{
		ID:             uuid.New(),
		AccountID:      uuid.New(),
		Title:          title,
		Status:         domain.PostStatusPublished,
		ExternalPostID: &externalID,
	}
}

func TestTracker_RecordAndReadBack(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()
	publishedAt := time.Date(2024, time.January, 3, 12, 0, 0, 0, time.UTC)

	tr.RecordPublished(ctx, publishedPost("first"), publishedAt)
	tr.RecordPublished(ctx, publishedPost("second"), publishedAt.Add(time.Minute))
	tr.RecordFailed(ctx, uuid.NewString())
	tr.RecordSynced(ctx, uuid.NewString())
	tr.RecordSynced(ctx, uuid.NewString())

	counters, err := tr.Counters(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counters[tracker.KeyPublished])
	assert.Equal(t, int64(1), counters[tracker.KeyFailed])
	assert.Equal(t, int64(2), counters[tracker.KeySynced])
}

func TestTracker_RecentPublicationsNewestFirst(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()
	base := time.Date(2024, time.January, 3, 12, 0, 0, 0, time.UTC)

	tr.RecordPublished(ctx, publishedPost("older"), base)
	tr.RecordPublished(ctx, publishedPost("newer"), base.Add(time.Hour))

	recent, err := tr.RecentPublications(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "newer", recent[0].Title)
	assert.Equal(t, "older", recent[1].Title)
}

func TestTracker_RecentPublicationsRespectsLimit(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()
	base := time.Date(2024, time.January, 3, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		tr.RecordPublished(ctx, publishedPost("post"), base)
	}

	recent, err := tr.RecentPublications(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, recent, 3)
}
