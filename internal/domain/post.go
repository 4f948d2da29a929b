// Package domain contains the core domain models for the content service.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PostStatus represents the lifecycle state of a post
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusScheduled PostStatus = "scheduled"
	PostStatusPublished PostStatus = "published"
	PostStatusFailed    PostStatus = "failed"
)

// validTransitions is the exhaustive transition table for post statuses.
// Published is terminal; Failed can only be recovered by explicit re-scheduling.
var validTransitions = map[PostStatus][]PostStatus{
	PostStatusDraft:     {PostStatusScheduled},
	PostStatusScheduled: {PostStatusPublished, PostStatusFailed},
	PostStatusFailed:    {PostStatusScheduled},
	PostStatusPublished: {},
}

// Valid reports whether the status is a known lifecycle state.
func (s PostStatus) Valid() bool {
	_, ok := validTransitions[s]
	return ok
}

// CanTransitionTo reports whether the transition s -> to is allowed.
func (s PostStatus) CanTransitionTo(to PostStatus) bool {
	for _, next := range validTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Post represents a piece of content owned by a social account
type Post struct {
	ID               uuid.UUID  `db:"id"                 json:"id"`
	AccountID        uuid.UUID  `db:"account_id"         json:"account_id"`
	Title            string     `db:"title"              json:"title"`
	Body             string     `db:"body"               json:"body"`
	ImageURL         *string    `db:"image_url"          json:"image_url,omitempty"`
	Status           PostStatus `db:"status"             json:"status"`
	ScheduledTime    *time.Time `db:"scheduled_time"     json:"scheduled_time,omitempty"`
	PublishedTime    *time.Time `db:"published_time"     json:"published_time,omitempty"`
	ExternalPostID   *string    `db:"external_post_id"   json:"external_post_id,omitempty"`
	ExternalShareURL *string    `db:"external_share_url" json:"external_share_url,omitempty"`
	CreatedAt        time.Time  `db:"created_at"         json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"         json:"updated_at"`
}

// NewPost creates a draft post. If scheduledTime is non-nil the post is
// created directly in the scheduled state.
func NewPost(accountID uuid.UUID, title, body string, imageURL *string, scheduledTime *time.Time) (*Post, error) {
	if body == "" {
		return nil, &ValidationError{Msg: "post body is required"}
	}

	now := time.Now().UTC()
	post := &Post{
		ID:        uuid.New(),
		AccountID: accountID,
		Title:     title,
		Body:      body,
		ImageURL:  imageURL,
		Status:    PostStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if scheduledTime != nil {
		t := scheduledTime.UTC()
		post.Status = PostStatusScheduled
		post.ScheduledTime = &t
	}
	return post, nil
}

// HasImage reports whether the post carries a media reference.
func (p *Post) HasImage() bool {
	return p.ImageURL != nil && *p.ImageURL != ""
}

// MarkScheduled transitions the post into the scheduled state at the given
// time. Allowed from draft and failed (manual recovery path).
func (p *Post) MarkScheduled(at time.Time) error {
	if !p.Status.CanTransitionTo(PostStatusScheduled) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, PostStatusScheduled)
	}
	t := at.UTC()
	p.Status = PostStatusScheduled
	p.ScheduledTime = &t
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkPublished records a successful publish with the platform identifiers.
func (p *Post) MarkPublished(externalID, shareURL string, at time.Time) error {
	if !p.Status.CanTransitionTo(PostStatusPublished) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, PostStatusPublished)
	}
	t := at.UTC()
	p.Status = PostStatusPublished
	p.PublishedTime = &t
	p.ExternalPostID = &externalID
	p.ExternalShareURL = &shareURL
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkFailed transitions the post into the failed state.
func (p *Post) MarkFailed() error {
	if !p.Status.CanTransitionTo(PostStatusFailed) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, PostStatusFailed)
	}
	p.Status = PostStatusFailed
	p.UpdatedAt = time.Now().UTC()
	return nil
}
