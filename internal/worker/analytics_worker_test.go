package worker

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehtisham-sadiq/social-content-api/internal/domain"
	"github.com/ehtisham-sadiq/social-content-api/internal/linkedin"
	"github.com/ehtisham-sadiq/social-content-api/internal/logger"
	"github.com/ehtisham-sadiq/social-content-api/internal/token"
)

func newPublishedPost(accountID uuid.UUID, externalID string, publishedAt time.Time) domain.Post {
	return domain.Post{
		ID:             uuid.New(),
		AccountID:      accountID,
		Title:          "t",
		Body:           "b",
		Status:         domain.PostStatusPublished,
		PublishedTime:  &publishedAt,
		ExternalPostID: &externalID,
	}
}

func newAnalyticsWorkerForTest(
	posts *fakePostStore,
	accounts *fakeAccountStore,
	metricsStore *fakeMetricsStore,
	fetcher *fakeMetricsFetcher,
	tokens *fakeTokenEnsurer,
	now time.Time,
) *AnalyticsSyncWorker {
	w := NewAnalyticsSyncWorker(
		posts, accounts, metricsStore, fetcher, tokens,
		NopActivityTracker{}, nil,
		DefaultAnalyticsSyncWorkerConfig(), logger.NewNopLogger(),
	)
	w.now = func() time.Time { return now }
	return w
}

func TestAnalyticsSyncWorker_StoresFetchedCounters(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	accountID := uuid.New()
	post := newPublishedPost(accountID, "urn:li:share:1", now.Add(-time.Hour))

	posts := &fakePostStore{needingSync: []domain.Post{post}}
	accounts := &fakeAccountStore{accounts: map[uuid.UUID]*domain.Account{
		accountID: newTestAccount(accountID, now.Add(time.Hour)),
	}}
	metricsStore := &fakeMetricsStore{records: map[uuid.UUID]*domain.PostMetrics{
		post.ID: {PostID: post.ID, Impressions: 200},
	}}
	fetcher := &fakeMetricsFetcher{counts: map[string]*linkedin.EngagementCounts{}}
	fetcher.counts["urn:li:share:1"] = &linkedin.EngagementCounts{Likes: 10, Comments: 6, Shares: 4}

	w := newAnalyticsWorkerForTest(posts, accounts, metricsStore, fetcher, &fakeTokenEnsurer{}, now)
	require.NoError(t, w.RunOnce(context.Background()))

	require.Len(t, metricsStore.updates, 1)
	update := metricsStore.updates[0]
	assert.Equal(t, post.ID, update.postID)
	assert.Equal(t, int64(10), update.likes)
	assert.Equal(t, int64(6), update.comments)
	assert.Equal(t, int64(4), update.shares)
	// (10+6+4)/200 * 100
	assert.InDelta(t, 10.0, update.rate, 1e-9)
}

func TestAnalyticsSyncWorker_ZeroImpressionsYieldZeroRate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	accountID := uuid.New()
	post := newPublishedPost(accountID, "urn:li:share:fresh", now.Add(-time.Hour))

	posts := &fakePostStore{needingSync: []domain.Post{post}}
	accounts := &fakeAccountStore{accounts: map[uuid.UUID]*domain.Account{
		accountID: newTestAccount(accountID, now.Add(time.Hour)),
	}}
	metricsStore := &fakeMetricsStore{records: map[uuid.UUID]*domain.PostMetrics{
		post.ID: {PostID: post.ID, Impressions: 0},
	}}
	fetcher := &fakeMetricsFetcher{counts: map[string]*linkedin.EngagementCounts{
		"urn:li:share:fresh": {Likes: 5, Comments: 2, Shares: 1},
	}}

	w := newAnalyticsWorkerForTest(posts, accounts, metricsStore, fetcher, &fakeTokenEnsurer{}, now)
	require.NoError(t, w.RunOnce(context.Background()))

	require.Len(t, metricsStore.updates, 1)
	assert.Zero(t, metricsStore.updates[0].rate)
}

func TestAnalyticsSyncWorker_RespectsBatchLimit(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	accountID := uuid.New()

	var backlog []domain.Post
	counts := map[string]*linkedin.EngagementCounts{}
	for i := 0; i < 35; i++ {
		externalID := "urn:li:share:" + uuid.NewString()
		backlog = append(backlog, newPublishedPost(accountID, externalID, now.Add(-time.Hour)))
		counts[externalID] = &linkedin.EngagementCounts{Likes: 1}
	}

	posts := &fakePostStore{needingSync: backlog}
	accounts := &fakeAccountStore{accounts: map[uuid.UUID]*domain.Account{
		accountID: newTestAccount(accountID, now.Add(time.Hour)),
	}}
	fetcher := &fakeMetricsFetcher{counts: counts}

	w := newAnalyticsWorkerForTest(posts, accounts, &fakeMetricsStore{}, fetcher, &fakeTokenEnsurer{}, now)
	require.NoError(t, w.RunOnce(context.Background()))

	assert.Len(t, fetcher.calls, defaultSyncBatchLimit,
		"a cycle must never sync more than the batch limit")
}

func TestAnalyticsSyncWorker_CredentialFailureSkipsWholeGroup(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	accountID := uuid.New()

	posts := &fakePostStore{needingSync: []domain.Post{
		newPublishedPost(accountID, "urn:li:share:1", now.Add(-time.Hour)),
		newPublishedPost(accountID, "urn:li:share:2", now.Add(-2*time.Hour)),
	}}
	accounts := &fakeAccountStore{accounts: map[uuid.UUID]*domain.Account{
		accountID: newTestAccount(accountID, now.Add(-time.Hour)),
	}}
	fetcher := &fakeMetricsFetcher{}
	metricsStore := &fakeMetricsStore{}
	tokens := &fakeTokenEnsurer{err: token.ErrNoRefreshToken}

	w := newAnalyticsWorkerForTest(posts, accounts, metricsStore, fetcher, tokens, now)
	require.NoError(t, w.RunOnce(context.Background()))

	assert.Equal(t, 1, tokens.calls, "credential checked once per account, not per post")
	assert.Empty(t, fetcher.calls)
	assert.Empty(t, metricsStore.updates)
	assert.Empty(t, posts.failed, "sync failures never change post status")
}

func TestAnalyticsSyncWorker_ValidatesEachAccountOnce(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	accountA := uuid.New()
	accountB := uuid.New()

	posts := &fakePostStore{needingSync: []domain.Post{
		newPublishedPost(accountA, "urn:li:share:a1", now.Add(-time.Hour)),
		newPublishedPost(accountA, "urn:li:share:a2", now.Add(-2*time.Hour)),
		newPublishedPost(accountB, "urn:li:share:b1", now.Add(-time.Hour)),
	}}
	accounts := &fakeAccountStore{accounts: map[uuid.UUID]*domain.Account{
		accountA: newTestAccount(accountA, now.Add(time.Hour)),
		accountB: newTestAccount(accountB, now.Add(time.Hour)),
	}}
	fetcher := &fakeMetricsFetcher{counts: map[string]*linkedin.EngagementCounts{
		"urn:li:share:a1": {}, "urn:li:share:a2": {}, "urn:li:share:b1": {},
	}}
	tokens := &fakeTokenEnsurer{}

	w := newAnalyticsWorkerForTest(posts, accounts, &fakeMetricsStore{}, fetcher, tokens, now)
	require.NoError(t, w.RunOnce(context.Background()))

	assert.Equal(t, 2, tokens.calls)
	assert.Equal(t, []string{"urn:li:share:a1", "urn:li:share:a2", "urn:li:share:b1"}, fetcher.calls)
}

func TestAnalyticsSyncWorker_FetchFailureDoesNotAbortCycle(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	accountID := uuid.New()

	posts := &fakePostStore{needingSync: []domain.Post{
		newPublishedPost(accountID, "urn:li:share:broken", now.Add(-time.Hour)),
		newPublishedPost(accountID, "urn:li:share:ok", now.Add(-2*time.Hour)),
	}}
	accounts := &fakeAccountStore{accounts: map[uuid.UUID]*domain.Account{
		accountID: newTestAccount(accountID, now.Add(time.Hour)),
	}}
	metricsStore := &fakeMetricsStore{}
	fetcher := &fakeMetricsFetcher{counts: map[string]*linkedin.EngagementCounts{
		"urn:li:share:ok": {Likes: 3},
	}}

	w := newAnalyticsWorkerForTest(posts, accounts, metricsStore, fetcher, &fakeTokenEnsurer{}, now)
	require.NoError(t, w.RunOnce(context.Background()))

	require.Len(t, metricsStore.updates, 1)
	assert.Equal(t, int64(3), metricsStore.updates[0].likes)
}

func TestAnalyticsSyncWorker_MissingRecordAssumesZeroImpressions(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	accountID := uuid.New()
	post := newPublishedPost(accountID, "urn:li:share:new", now.Add(-time.Hour))

	posts := &fakePostStore{needingSync: []domain.Post{post}}
	accounts := &fakeAccountStore{accounts: map[uuid.UUID]*domain.Account{
		accountID: newTestAccount(accountID, now.Add(time.Hour)),
	}}
	metricsStore := &fakeMetricsStore{} // no records at all
	fetcher := &fakeMetricsFetcher{counts: map[string]*linkedin.EngagementCounts{
		"urn:li:share:new": {Likes: 7},
	}}

	w := newAnalyticsWorkerForTest(posts, accounts, metricsStore, fetcher, &fakeTokenEnsurer{}, now)
	require.NoError(t, w.RunOnce(context.Background()))

	assert.Equal(t, []uuid.UUID{post.ID}, metricsStore.ensured)
	require.Len(t, metricsStore.updates, 1)
	assert.Zero(t, metricsStore.updates[0].rate)
}

func TestGroupByAccount_PreservesOrder(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	now := time.Now()

	batch := []domain.Post{
		newPublishedPost(a, "a1", now),
		newPublishedPost(b, "b1", now),
		newPublishedPost(a, "a2", now),
	}

	groups := groupByAccount(batch)
	require.Len(t, groups, 2)
	assert.Equal(t, a, groups[0].accountID)
	assert.Len(t, groups[0].posts, 2)
	assert.Equal(t, b, groups[1].accountID)
	assert.Len(t, groups[1].posts, 1)
}
