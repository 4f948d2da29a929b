package worker

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ehtisham-sadiq/social-content-api/internal/domain"
	"github.com/ehtisham-sadiq/social-content-api/internal/linkedin"
)

type fakePostStore struct {
	due         []domain.Post
	needingSync []domain.Post

	fetchDueErr      error
	markPublishedErr error

	published []uuid.UUID
	failed    []uuid.UUID
}

func (s *fakePostStore) FetchDue(_ context.Context, _ time.Time, _ time.Duration) ([]domain.Post, error) {
	if s.fetchDueErr != nil {
		return nil, s.fetchDueErr
	}
	return s.due, nil
}

func (s *fakePostStore) FetchNeedingSync(_ context.Context, _ time.Time, limit int) ([]domain.Post, error) {
	if len(s.needingSync) > limit {
		return s.needingSync[:limit], nil
	}
	return s.needingSync, nil
}

func (s *fakePostStore) MarkPublished(_ context.Context, id uuid.UUID, _, _ string, _ time.Time) error {
	if s.markPublishedErr != nil {
		return s.markPublishedErr
	}
	s.published = append(s.published, id)
	return nil
}

func (s *fakePostStore) MarkFailed(_ context.Context, id uuid.UUID) error {
	s.failed = append(s.failed, id)
	return nil
}

type fakeAccountStore struct {
	accounts map[uuid.UUID]*domain.Account
	err      error
}

func (s *fakeAccountStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	if s.err != nil {
		return nil, s.err
	}
	account, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return account, nil
}

type engagementUpdate struct {
	postID   uuid.UUID
	likes    int64
	comments int64
	shares   int64
	rate     float64
}

type fakeMetricsStore struct {
	records map[uuid.UUID]*domain.PostMetrics

	ensured []uuid.UUID
	updates []engagementUpdate
}

func (s *fakeMetricsStore) EnsureForPost(_ context.Context, postID, _ uuid.UUID) error {
	s.ensured = append(s.ensured, postID)
	return nil
}

func (s *fakeMetricsStore) GetByPostID(_ context.Context, postID uuid.UUID) (*domain.PostMetrics, error) {
	record, ok := s.records[postID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return record, nil
}

func (s *fakeMetricsStore) UpdateEngagement(_ context.Context, postID uuid.UUID, likes, comments, shares int64, rate float64, _ time.Time) error {
	s.updates = append(s.updates, engagementUpdate{
		postID:   postID,
		likes:    likes,
		comments: comments,
		shares:   shares,
		rate:     rate,
	})
	return nil
}

type fakePublisher struct {
	textCalls  int
	imageCalls int
	failBodies map[string]error
}

func (p *fakePublisher) PublishText(_ context.Context, _, _ string, text string) (*linkedin.PublishResult, error) {
	p.textCalls++
	if err := p.failBodies[text]; err != nil {
		return nil, err
	}
	return &linkedin.PublishResult{
		ExternalID: "urn:li:share:" + text,
		ShareURL:   "https://www.linkedin.com/feed/update/" + text,
	}, nil
}

func (p *fakePublisher) PublishImage(_ context.Context, _, _ string, text, _ string) (*linkedin.PublishResult, error) {
	p.imageCalls++
	if err := p.failBodies[text]; err != nil {
		return nil, err
	}
	return &linkedin.PublishResult{
		ExternalID: "urn:li:share:img-" + text,
		ShareURL:   "https://www.linkedin.com/feed/update/img-" + text,
	}, nil
}

type fakeMetricsFetcher struct {
	counts map[string]*linkedin.EngagementCounts
	calls  []string
}

func (f *fakeMetricsFetcher) GetPostMetrics(_ context.Context, _, externalPostID string) (*linkedin.EngagementCounts, error) {
	f.calls = append(f.calls, externalPostID)
	counts, ok := f.counts[externalPostID]
	if !ok {
		return nil, errors.New("unknown post")
	}
	return counts, nil
}

type fakeTokenEnsurer struct {
	err   error
	calls int
}

func (e *fakeTokenEnsurer) EnsureValid(_ context.Context, _ *domain.Account) error {
	e.calls++
	return e.err
}

func strPtr(s string) *string { return &s }
