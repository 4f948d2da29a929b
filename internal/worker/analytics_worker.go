package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ehtisham-sadiq/social-content-api/internal/domain"
	"github.com/ehtisham-sadiq/social-content-api/internal/logger"
	"github.com/ehtisham-sadiq/social-content-api/internal/metrics"
)

const (
	defaultSyncInterval   = 5 * time.Minute
	defaultSyncBatchLimit = 20
)

// AnalyticsSyncWorkerConfig holds configuration options
type AnalyticsSyncWorkerConfig struct {
	Interval   time.Duration
	Backoff    time.Duration
	BatchLimit int
}

// DefaultAnalyticsSyncWorkerConfig returns sensible defaults
func DefaultAnalyticsSyncWorkerConfig() AnalyticsSyncWorkerConfig {
	return AnalyticsSyncWorkerConfig{
		Interval:   defaultSyncInterval,
		Backoff:    defaultCycleBackoff,
		BatchLimit: defaultSyncBatchLimit,
	}
}

// AnalyticsSyncWorker pulls engagement counters for recently published posts
// and stores the recomputed engagement rate. Posts published within the last
// day are refreshed every cycle; week-old posts only once per day.
type AnalyticsSyncWorker struct {
	posts       PostStore
	accounts    AccountStore
	postMetrics MetricsStore
	fetcher     MetricsFetcher
	tokens      TokenEnsurer
	activity    ActivityTracker
	collector   *metrics.Collector
	logger      logger.Logger

	interval   time.Duration
	backoff    time.Duration
	batchLimit int
	now        func() time.Time

	stopChan chan struct{}
	wg       sync.WaitGroup
	started  bool
	mu       sync.Mutex
}

// NewAnalyticsSyncWorker creates a new analytics sync worker
func NewAnalyticsSyncWorker(
	posts PostStore,
	accounts AccountStore,
	postMetrics MetricsStore,
	fetcher MetricsFetcher,
	tokens TokenEnsurer,
	activity ActivityTracker,
	collector *metrics.Collector,
	cfg AnalyticsSyncWorkerConfig,
	log logger.Logger,
) *AnalyticsSyncWorker {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultSyncInterval
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = defaultCycleBackoff
	}
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = defaultSyncBatchLimit
	}
	if activity == nil {
		activity = NopActivityTracker{}
	}

	return &AnalyticsSyncWorker{
		posts:       posts,
		accounts:    accounts,
		postMetrics: postMetrics,
		fetcher:     fetcher,
		tokens:      tokens,
		activity:    activity,
		collector:   collector,
		logger:      log,
		interval:    cfg.Interval,
		backoff:     cfg.Backoff,
		batchLimit:  cfg.BatchLimit,
		now:         time.Now,
		stopChan:    make(chan struct{}),
	}
}

// Start begins the sync polling loop
func (w *AnalyticsSyncWorker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.run(ctx)

	w.logger.Info("analytics sync worker started",
		logger.Duration("interval", w.interval),
		logger.Int("batch_limit", w.batchLimit))
}

// Stop gracefully stops the worker, letting the in-flight cycle finish
func (w *AnalyticsSyncWorker) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("analytics sync worker stopped")
}

// IsRunning returns whether the worker is currently running
func (w *AnalyticsSyncWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.started
}

func (w *AnalyticsSyncWorker) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.RunOnce(ctx); err != nil {
			w.logger.Error("analytics sync cycle failed", logger.Error(err))
			if !w.sleep(ctx, w.backoff) {
				return
			}
		}

		select {
		case <-ticker.C:
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *AnalyticsSyncWorker) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-w.stopChan:
		return false
	case <-ctx.Done():
		return false
	}
}

// RunOnce executes a single sync cycle: select posts needing a refresh,
// group them by account so each credential is validated once, and pull
// counters for each post. Leftover posts wait for the next cycle.
func (w *AnalyticsSyncWorker) RunOnce(ctx context.Context) error {
	now := w.now().UTC()

	posts, err := w.posts.FetchNeedingSync(ctx, now, w.batchLimit)
	if err != nil {
		return fmt.Errorf("fetch posts needing sync: %w", err)
	}
	if len(posts) > w.batchLimit {
		posts = posts[:w.batchLimit]
	}
	if len(posts) == 0 {
		w.logger.Debug("no posts need metrics sync")
		return nil
	}

	w.logger.Info("syncing post metrics", logger.Int("count", len(posts)))

	for _, group := range groupByAccount(posts) {
		w.syncAccountGroup(ctx, group, now)
	}
	return nil
}

// accountGroup is one account's slice of the sync batch.
type accountGroup struct {
	accountID uuid.UUID
	posts     []*domain.Post
}

// groupByAccount buckets posts by owning account, preserving the fetch
// order both across groups and within each group.
func groupByAccount(posts []domain.Post) []accountGroup {
	index := make(map[uuid.UUID]int, len(posts))
	groups := make([]accountGroup, 0, len(posts))

	for i := range posts {
		post := &posts[i]
		gi, ok := index[post.AccountID]
		if !ok {
			gi = len(groups)
			index[post.AccountID] = gi
			groups = append(groups, accountGroup{accountID: post.AccountID})
		}
		groups[gi].posts = append(groups[gi].posts, post)
	}
	return groups
}

// syncAccountGroup validates the account credential once, then syncs each
// post in the group. A credential failure skips the whole group for this
// cycle; the selection query will pick the posts up again next time.
func (w *AnalyticsSyncWorker) syncAccountGroup(ctx context.Context, group accountGroup, now time.Time) {
	groupLogger := w.logger.With(logger.String("account_id", group.accountID.String()))

	account, err := w.accounts.GetByID(ctx, group.accountID)
	if err != nil {
		groupLogger.Error("failed to resolve account, skipping group",
			logger.Int("posts", len(group.posts)),
			logger.Error(err))
		return
	}

	if err := w.tokens.EnsureValid(ctx, account); err != nil {
		groupLogger.Warn("account credential unusable, skipping group",
			logger.Int("posts", len(group.posts)),
			logger.Error(err))
		return
	}

	for _, post := range group.posts {
		w.syncOne(ctx, post, account, now)
	}
}

func (w *AnalyticsSyncWorker) syncOne(ctx context.Context, post *domain.Post, account *domain.Account, now time.Time) {
	itemLogger := w.logger.With(
		logger.String("post_id", post.ID.String()),
		logger.String("account_id", post.AccountID.String()),
	)

	if post.ExternalPostID == nil {
		itemLogger.Warn("published post has no external id, skipping sync")
		return
	}

	counts, err := w.fetcher.GetPostMetrics(ctx, *account.AccessToken, *post.ExternalPostID)
	if err != nil {
		itemLogger.Error("failed to fetch post metrics", logger.Error(err))
		if w.collector != nil {
			w.collector.SyncFailures.Inc()
		}
		return
	}

	if err := w.postMetrics.EnsureForPost(ctx, post.ID, post.AccountID); err != nil {
		itemLogger.Error("failed to create metrics record", logger.Error(err))
		if w.collector != nil {
			w.collector.SyncFailures.Inc()
		}
		return
	}

	// Impressions come from a separate ads endpoint the record already
	// carries; reuse the stored value when recomputing the rate.
	var impressions int64
	if record, err := w.postMetrics.GetByPostID(ctx, post.ID); err != nil {
		itemLogger.Warn("failed to load metrics record, assuming zero impressions",
			logger.Error(err))
	} else {
		impressions = record.Impressions
	}

	rate := domain.EngagementRate(counts.Likes, counts.Comments, counts.Shares, impressions)

	if err := w.postMetrics.UpdateEngagement(ctx, post.ID, counts.Likes, counts.Comments, counts.Shares, rate, now); err != nil {
		itemLogger.Error("failed to store engagement counters", logger.Error(err))
		if w.collector != nil {
			w.collector.SyncFailures.Inc()
		}
		return
	}

	if w.collector != nil {
		w.collector.MetricsSynced.Inc()
	}
	w.activity.RecordSynced(ctx, post.ID.String())

	itemLogger.Debug("post metrics synced",
		logger.Int64("likes", counts.Likes),
		logger.Int64("comments", counts.Comments),
		logger.Int64("shares", counts.Shares),
		logger.Float64("engagement_rate", rate))
}
