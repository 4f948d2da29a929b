package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ehtisham-sadiq/social-content-api/internal/domain"
	"github.com/ehtisham-sadiq/social-content-api/internal/logger"
	"github.com/ehtisham-sadiq/social-content-api/internal/metrics"
	"github.com/ehtisham-sadiq/social-content-api/internal/token"
)

const (
	defaultPublishInterval = 60 * time.Second
	defaultCycleBackoff    = 10 * time.Second
	defaultDueWindow       = 5 * time.Minute
)

// PublishWorkerConfig holds configuration options
type PublishWorkerConfig struct {
	Interval  time.Duration
	Backoff   time.Duration
	DueWindow time.Duration
}

// DefaultPublishWorkerConfig returns sensible defaults
func DefaultPublishWorkerConfig() PublishWorkerConfig {
	return PublishWorkerConfig{
		Interval:  defaultPublishInterval,
		Backoff:   defaultCycleBackoff,
		DueWindow: defaultDueWindow,
	}
}

// PublishWorker polls for due posts and publishes them to the platform.
// Items are processed strictly sequentially within a cycle so token refresh
// stays serialized per account and no post is created twice externally.
type PublishWorker struct {
	posts       PostStore
	accounts    AccountStore
	postMetrics MetricsStore
	publisher   Publisher
	tokens      TokenEnsurer
	activity    ActivityTracker
	collector   *metrics.Collector
	logger      logger.Logger

	interval  time.Duration
	backoff   time.Duration
	dueWindow time.Duration
	now       func() time.Time

	stopChan chan struct{}
	wg       sync.WaitGroup
	started  bool
	mu       sync.Mutex
}

// NewPublishWorker creates a new publish worker
func NewPublishWorker(
	posts PostStore,
	accounts AccountStore,
	postMetrics MetricsStore,
	publisher Publisher,
	tokens TokenEnsurer,
	activity ActivityTracker,
	collector *metrics.Collector,
	cfg PublishWorkerConfig,
	log logger.Logger,
) *PublishWorker {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultPublishInterval
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = defaultCycleBackoff
	}
	if cfg.DueWindow <= 0 {
		cfg.DueWindow = defaultDueWindow
	}
	if activity == nil {
		activity = NopActivityTracker{}
	}

	return &PublishWorker{
		posts:       posts,
		accounts:    accounts,
		postMetrics: postMetrics,
		publisher:   publisher,
		tokens:      tokens,
		activity:    activity,
		collector:   collector,
		logger:      log,
		interval:    cfg.Interval,
		backoff:     cfg.Backoff,
		dueWindow:   cfg.DueWindow,
		now:         time.Now,
		stopChan:    make(chan struct{}),
	}
}

// Start begins the publish polling loop
func (w *PublishWorker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.run(ctx)

	w.logger.Info("publish worker started",
		logger.Duration("interval", w.interval),
		logger.Duration("due_window", w.dueWindow))
}

// Stop gracefully stops the worker, letting the in-flight cycle finish
func (w *PublishWorker) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("publish worker stopped")
}

// IsRunning returns whether the worker is currently running
func (w *PublishWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.started
}

func (w *PublishWorker) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.RunOnce(ctx); err != nil {
			// One bad cycle never terminates the loop: log and back off
			// briefly before the next tick.
			w.logger.Error("publish cycle failed", logger.Error(err))
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

// sleep pauses for d, returning false when the worker is being stopped.
func (w *PublishWorker) sleep(ctx context.Context, d time.Duration) bool {
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

// RunOnce executes a single publish cycle: fetch posts due inside the window
// and publish them one at a time.
func (w *PublishWorker) RunOnce(ctx context.Context) error {
	now := w.now().UTC()

	due, err := w.posts.FetchDue(ctx, now, w.dueWindow)
	if err != nil {
		return fmt.Errorf("fetch due posts: %w", err)
	}
	if len(due) == 0 {
		w.logger.Debug("no posts due for publishing")
		return nil
	}

	w.logger.Info("publishing due posts", logger.Int("count", len(due)))

	for i := range due {
		w.publishOne(ctx, &due[i], now)
	}
	return nil
}

// publishOne drives the full per-item sequence. All failures are absorbed
// here so one bad post never aborts the rest of the cycle.
func (w *PublishWorker) publishOne(ctx context.Context, post *domain.Post, now time.Time) {
	itemLogger := w.logger.With(
		logger.String("post_id", post.ID.String()),
		logger.String("account_id", post.AccountID.String()),
	)

	account, err := w.accounts.GetByID(ctx, post.AccountID)
	if err != nil {
		// The owning account is gone or unreadable; leave the post
		// scheduled and let a later cycle retry.
		itemLogger.Error("failed to resolve account", logger.Error(err))
		return
	}

	tokenWasValid := account.TokenValid(now)
	if err := w.tokens.EnsureValid(ctx, account); err != nil {
		switch {
		case errors.Is(err, token.ErrNoAccessToken):
			itemLogger.Error("account has no access token")
		case errors.Is(err, token.ErrNoRefreshToken):
			itemLogger.Error("access token expired with no refresh token")
		default:
			itemLogger.Error("token refresh failed", logger.Error(err))
		}
		w.failPost(ctx, post, itemLogger)
		return
	}
	if w.collector != nil && !tokenWasValid {
		// EnsureValid succeeded on an expired credential, so it rotated.
		w.collector.TokenRefreshes.Inc()
	}

	result, err := w.publish(ctx, post, account)
	if err != nil {
		itemLogger.Error("publish call failed", logger.Error(err))
		w.failPost(ctx, post, itemLogger)
		return
	}

	if err := w.posts.MarkPublished(ctx, post.ID, result.ExternalID, result.ShareURL, now); err != nil {
		// The post exists externally; surface the inconsistency loudly
		// instead of failing the item and double-publishing later.
		itemLogger.Error("post published externally but status update failed",
			logger.String("external_post_id", result.ExternalID),
			logger.Error(err))
		return
	}
	post.Status = domain.PostStatusPublished
	post.PublishedTime = &now
	post.ExternalPostID = &result.ExternalID
	post.ExternalShareURL = &result.ShareURL

	// Lazy, idempotent creation of the engagement record.
	if err := w.postMetrics.EnsureForPost(ctx, post.ID, post.AccountID); err != nil {
		itemLogger.Warn("failed to create metrics record", logger.Error(err))
	}

	if w.collector != nil {
		w.collector.PostsPublished.Inc()
	}
	w.activity.RecordPublished(ctx, post, now)

	itemLogger.Info("post published",
		logger.String("external_post_id", result.ExternalID))
}

func (w *PublishWorker) publish(ctx context.Context, post *domain.Post, account *domain.Account) (result *publishResult, err error) {
	accessToken := *account.AccessToken
	profileID := account.ProfileID()

	if post.HasImage() {
		r, publishErr := w.publisher.PublishImage(ctx, accessToken, profileID, post.Body, *post.ImageURL)
		if publishErr != nil {
			return nil, publishErr
		}
		return &publishResult{ExternalID: r.ExternalID, ShareURL: r.ShareURL}, nil
	}

	r, publishErr := w.publisher.PublishText(ctx, accessToken, profileID, post.Body)
	if publishErr != nil {
		return nil, publishErr
	}
	return &publishResult{ExternalID: r.ExternalID, ShareURL: r.ShareURL}, nil
}

type publishResult struct {
	ExternalID string
	ShareURL   string
}

func (w *PublishWorker) failPost(ctx context.Context, post *domain.Post, itemLogger logger.Logger) {
	if err := w.posts.MarkFailed(ctx, post.ID); err != nil {
		itemLogger.Error("failed to mark post as failed", logger.Error(err))
		return
	}
	post.Status = domain.PostStatusFailed

	if w.collector != nil {
		w.collector.PublishFailures.Inc()
	}
	w.activity.RecordFailed(ctx, post.ID.String())
}
