package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ehtisham-sadiq/social-content-api/internal/domain"
)

// postSelectList is the column list for SELECT/RETURNING on posts (single
// source for schema changes)
const postSelectList = `id, account_id, title, body, image_url, status,
			scheduled_time, published_time, external_post_id,
			external_share_url, created_at, updated_at`

// PostRepository manages posts in PostgreSQL
type PostRepository struct {
	db *sqlx.DB
}

// NewPostRepository creates a new repository instance
func NewPostRepository(db *sqlx.DB) *PostRepository {
	return &PostRepository{db: db}
}

// Create inserts a new post
func (r *PostRepository) Create(ctx context.Context, post *domain.Post) error {
	query := `
		INSERT INTO posts (id, account_id, title, body, image_url, status,
			scheduled_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		post.ID, post.AccountID, post.Title, post.Body, post.ImageURL,
		post.Status, post.ScheduledTime, post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// GetByID retrieves a post by ID
func (r *PostRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	post := &domain.Post{}
	query := `SELECT ` + postSelectList + ` FROM posts WHERE id = $1`

	err := r.db.GetContext(ctx, post, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return post, nil
}

// FetchDue returns scheduled posts whose publish time falls inside the
// half-open window (now-window, now+window], ordered by scheduled time for
// deterministic processing.
func (r *PostRepository) FetchDue(ctx context.Context, now time.Time, window time.Duration) ([]domain.Post, error) {
	query := `
		SELECT ` + postSelectList + `
		FROM posts
		WHERE status = $1
		  AND scheduled_time > $2
		  AND scheduled_time <= $3
		ORDER BY scheduled_time ASC`

	posts := []domain.Post{}
	err := r.db.SelectContext(ctx, &posts, query,
		domain.PostStatusScheduled, now.Add(-window), now.Add(window))
	if err != nil {
		return nil, fmt.Errorf("fetch due posts: %w", err)
	}
	return posts, nil
}

// FetchNeedingSync returns published posts due for a metrics refresh, capped
// at limit. Fresh posts (published within a day) are always included; posts
// up to a week old qualify once their metrics are a day stale or have never
// been synced. Older posts are left alone. Results are grouped by account so
// token refresh happens at most once per account per cycle.
func (r *PostRepository) FetchNeedingSync(ctx context.Context, now time.Time, limit int) ([]domain.Post, error) {
	oneDayAgo := now.Add(-24 * time.Hour)
	oneWeekAgo := now.Add(-7 * 24 * time.Hour)

	query := `
		SELECT ` + prefixedPostSelectList("p") + `
		FROM posts p
		LEFT JOIN post_metrics m ON m.post_id = p.id
		WHERE p.status = $1
		  AND p.external_post_id IS NOT NULL
		  AND (
			p.published_time >= $2
			OR (
				p.published_time >= $3
				AND (m.last_synced IS NULL OR m.last_synced <= $2)
			)
		  )
		ORDER BY p.account_id, p.published_time DESC
		LIMIT $4`

	posts := []domain.Post{}
	err := r.db.SelectContext(ctx, &posts, query,
		domain.PostStatusPublished, oneDayAgo, oneWeekAgo, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch posts needing sync: %w", err)
	}
	return posts, nil
}

// FilterOwned returns the posts from ids that belong to the account, in the
// order the IDs were given. Callers use the length to validate ownership of
// the whole batch.
func (r *PostRepository) FilterOwned(ctx context.Context, accountID uuid.UUID, ids []uuid.UUID) ([]domain.Post, error) {
	if len(ids) == 0 {
		return []domain.Post{}, nil
	}

	idStrings := make([]string, len(ids))
	for i, id := range ids {
		idStrings[i] = id.String()
	}

	query := `
		SELECT ` + postSelectList + `
		FROM posts
		WHERE account_id = $1 AND id = ANY($2)`

	posts := []domain.Post{}
	err := r.db.SelectContext(ctx, &posts, query, accountID, pq.Array(idStrings))
	if err != nil {
		return nil, fmt.Errorf("filter owned posts: %w", err)
	}

	// Restore request order; the query returns rows in storage order.
	byID := make(map[uuid.UUID]domain.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}
	ordered := make([]domain.Post, 0, len(posts))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

// Schedule moves a post into the scheduled state at the given time. Draft and
// failed posts enter the schedule; an already scheduled post is re-timed.
// Published posts are terminal and never rescheduled.
func (r *PostRepository) Schedule(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE posts
		SET status = $2, scheduled_time = $3, updated_at = NOW()
		WHERE id = $1 AND status IN ($4, $5, $2)`

	err := r.execExpectOneRow(ctx, query, id,
		domain.PostStatusScheduled, at, domain.PostStatusDraft, domain.PostStatusFailed)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("schedule post: %w", err)
	}
	return nil
}

// MarkPublished records a successful publish. The status guard means a post
// can only become published from the scheduled state.
func (r *PostRepository) MarkPublished(ctx context.Context, id uuid.UUID, externalID, shareURL string, publishedAt time.Time) error {
	query := `
		UPDATE posts
		SET status = $2,
		    published_time = $3,
		    external_post_id = $4,
		    external_share_url = $5,
		    updated_at = NOW()
		WHERE id = $1 AND status = $6`

	err := r.execExpectOneRow(ctx, query, id,
		domain.PostStatusPublished, publishedAt, externalID, shareURL, domain.PostStatusScheduled)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("mark published: %w", err)
	}
	return nil
}

// MarkFailed records a failed publish attempt. Only scheduled posts can fail;
// a published post never transitions back.
func (r *PostRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE posts
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3`

	err := r.execExpectOneRow(ctx, query, id,
		domain.PostStatusFailed, domain.PostStatusScheduled)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("mark failed: %w", err)
	}
	return nil
}

// CountByStatus returns post counts per lifecycle state
func (r *PostRepository) CountByStatus(ctx context.Context) (map[domain.PostStatus]int64, error) {
	query := `SELECT status, COUNT(*) AS count FROM posts GROUP BY status`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count posts by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.PostStatus]int64)
	for rows.Next() {
		var status domain.PostStatus
		var count int64
		if scanErr := rows.Scan(&status, &count); scanErr != nil {
			return nil, fmt.Errorf("scan status count: %w", scanErr)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// execExpectOneRow runs an exec and returns domain.ErrNotFound when no row
// was affected
func (r *PostRepository) execExpectOneRow(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
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

// prefixedPostSelectList qualifies the post column list with a table alias
func prefixedPostSelectList(alias string) string {
	return alias + `.id, ` + alias + `.account_id, ` + alias + `.title, ` +
		alias + `.body, ` + alias + `.image_url, ` + alias + `.status, ` +
		alias + `.scheduled_time, ` + alias + `.published_time, ` +
		alias + `.external_post_id, ` + alias + `.external_share_url, ` +
		alias + `.created_at, ` + alias + `.updated_at`
}
