// Package linkedin implements the platform API client used for publishing
// posts, fetching engagement metrics and exchanging OAuth tokens.
package linkedin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ehtisham-sadiq/social-content-api/internal/config"
	"github.com/ehtisham-sadiq/social-content-api/internal/logger"
)

const restliProtocolVersion = "2.0.0"

// Client talks to the LinkedIn REST and OAuth APIs. Access tokens are passed
// per call because one client serves many accounts.
type Client struct {
	apiBaseURL   string
	oauthBaseURL string
	clientID     string
	clientSecret string
	client       *http.Client
	logger       logger.Logger
}

// PublishResult carries the platform identifiers for a created post.
type PublishResult struct {
	ExternalID string
	ShareURL   string
}

// EngagementCounts holds the social action counters for one post.
type EngagementCounts struct {
	Likes    int64
	Comments int64
	Shares   int64
}

// TokenResponse is the result of a refresh-token exchange. RefreshToken is
// nil when the platform did not rotate it.
type TokenResponse struct {
	AccessToken  string
	RefreshToken *string
	ExpiresIn    int64
}

// NewClient creates a platform API client.
func NewClient(cfg config.LinkedInConfig, log logger.Logger) (*Client, error) {
	if cfg.APIBaseURL == "" {
		return nil, errors.New("linkedin API base URL is required")
	}
	if cfg.OAuthBaseURL == "" {
		return nil, errors.New("linkedin OAuth base URL is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultLinkedInTimeout
	}

	return &Client{
		apiBaseURL:   strings.TrimRight(cfg.APIBaseURL, "/"),
		oauthBaseURL: strings.TrimRight(cfg.OAuthBaseURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		client:       &http.Client{Timeout: timeout},
		logger:       log,
	}, nil
}

type shareCommentary struct {
	Text string `json:"text"`
}

type shareMedia struct {
	Status      string          `json:"status"`
	Description shareCommentary `json:"description"`
	Media       string          `json:"media"`
	Title       shareCommentary `json:"title"`
}

type shareContent struct {
	ShareCommentary    shareCommentary `json:"shareCommentary"`
	ShareMediaCategory string          `json:"shareMediaCategory"`
	Media              []shareMedia    `json:"media,omitempty"`
}

type ugcPost struct {
	Author          string                  `json:"author"`
	LifecycleState  string                  `json:"lifecycleState"`
	SpecificContent map[string]shareContent `json:"specificContent"`
	Visibility      map[string]string       `json:"visibility"`
}

type ugcPostResponse struct {
	ID       string `json:"id"`
	ShareURL string `json:"shareUrl"`
}

func newUGCPost(authorProfileID, text string) ugcPost {
	return ugcPost{
		Author:         "urn:li:person:" + authorProfileID,
		LifecycleState: "PUBLISHED",
		SpecificContent: map[string]shareContent{
			"com.linkedin.ugc.ShareContent": {
				ShareCommentary:    shareCommentary{Text: text},
				ShareMediaCategory: "NONE",
			},
		},
		Visibility: map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}
}

// PublishText creates a text-only post on behalf of the author profile.
func (c *Client) PublishText(ctx context.Context, accessToken, authorProfileID, text string) (*PublishResult, error) {
	return c.createUGCPost(ctx, accessToken, newUGCPost(authorProfileID, text))
}

// PublishImage creates an image post. The platform requires a three-step
// flow: register the upload, transfer the binary, then create the post
// referencing the uploaded asset.
func (c *Client) PublishImage(ctx context.Context, accessToken, authorProfileID, text, imageURL string) (*PublishResult, error) {
	asset, uploadURL, err := c.registerUpload(ctx, accessToken, authorProfileID)
	if err != nil {
		return nil, err
	}

	imageData, err := c.downloadImage(ctx, imageURL)
	if err != nil {
		return nil, err
	}

	if err := c.uploadImage(ctx, accessToken, uploadURL, imageData); err != nil {
		return nil, err
	}

	post := newUGCPost(authorProfileID, text)
	content := post.SpecificContent["com.linkedin.ugc.ShareContent"]
	content.ShareMediaCategory = "IMAGE"
	content.Media = []shareMedia{{
		Status:      "READY",
		Description: shareCommentary{Text: "Image"},
		Media:       asset,
		Title:       shareCommentary{Text: "Image"},
	}}
	post.SpecificContent["com.linkedin.ugc.ShareContent"] = content

	return c.createUGCPost(ctx, accessToken, post)
}

func (c *Client) createUGCPost(ctx context.Context, accessToken string, post ugcPost) (*PublishResult, error) {
	payload, err := json.Marshal(post)
	if err != nil {
		return nil, fmt.Errorf("marshal ugc post: %w", err)
	}

	endpoint := c.apiBaseURL + "/ugcPosts"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setAPIHeaders(req, accessToken)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, fmt.Errorf("read response: %w", readErr)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		c.logger.Error("UGC post creation rejected",
			logger.String("endpoint", endpoint),
			logger.Int("status_code", resp.StatusCode),
			logger.Duration("request_duration", time.Since(start)),
		)
		return nil, &PublishError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var ugcResp ugcPostResponse
	if decodeErr := json.Unmarshal(body, &ugcResp); decodeErr != nil {
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}

	c.logger.Debug("UGC post created",
		logger.String("external_post_id", ugcResp.ID),
		logger.Duration("request_duration", time.Since(start)),
	)

	return &PublishResult{ExternalID: ugcResp.ID, ShareURL: ugcResp.ShareURL}, nil
}

type registerUploadResponse struct {
	Value struct {
		Asset           string `json:"asset"`
		UploadMechanism struct {
			MediaUploadHTTPRequest struct {
				UploadURL string `json:"uploadUrl"`
			} `json:"com.linkedin.digitalmedia.uploading.MediaUploadHttpRequest"`
		} `json:"uploadMechanism"`
	} `json:"value"`
}

func (c *Client) registerUpload(ctx context.Context, accessToken, authorProfileID string) (asset, uploadURL string, err error) {
	payload := map[string]any{
		"registerUploadRequest": map[string]any{
			"recipes": []string{"urn:li:digitalmediaRecipe:feedshare-image"},
			"owner":   "urn:li:person:" + authorProfileID,
			"serviceRelationships": []map[string]string{
				{
					"relationshipType": "OWNER",
					"identifier":       "urn:li:userGeneratedContent",
				},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", "", fmt.Errorf("marshal register upload: %w", err)
	}

	endpoint := c.apiBaseURL + "/assets?action=registerUpload"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(body))
	if err != nil {
		return "", "", fmt.Errorf("create request: %w", err)
	}
	c.setAPIHeaders(req, accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return "", "", fmt.Errorf("read response: %w", readErr)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", "", &PublishError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var registered registerUploadResponse
	if decodeErr := json.Unmarshal(respBody, &registered); decodeErr != nil {
		return "", "", fmt.Errorf("decode register upload response: %w", decodeErr)
	}

	asset = registered.Value.Asset
	uploadURL = registered.Value.UploadMechanism.MediaUploadHTTPRequest.UploadURL
	if asset == "" || uploadURL == "" {
		return "", "", &PublishError{StatusCode: resp.StatusCode, Body: "register upload response missing asset or upload URL"}
	}
	return asset, uploadURL, nil
}

func (c *Client) downloadImage(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create image download request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &PublishError{StatusCode: resp.StatusCode, Body: "image download failed: " + imageURL}
	}

	data, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, fmt.Errorf("read image body: %w", readErr)
	}
	return data, nil
}

func (c *Client) uploadImage(ctx context.Context, accessToken, uploadURL string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("upload image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		return &PublishError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return nil
}

type socialActionsResponse struct {
	LikesSummary struct {
		TotalLikes int64 `json:"totalLikes"`
	} `json:"likesSummary"`
	CommentsSummary struct {
		TotalComments int64 `json:"totalComments"`
	} `json:"commentsSummary"`
	SharesSummary struct {
		TotalShares int64 `json:"totalShares"`
	} `json:"sharesSummary"`
}

// GetPostMetrics fetches like/comment/share counts for a published post.
func (c *Client) GetPostMetrics(ctx context.Context, accessToken, externalPostID string) (*EngagementCounts, error) {
	endpoint := c.apiBaseURL + "/socialActions/" + url.PathEscape(externalPostID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setAPIHeaders(req, accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, fmt.Errorf("read response: %w", readErr)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("social actions request failed: status %d: %s", resp.StatusCode, string(body))
	}

	var actions socialActionsResponse
	if decodeErr := json.Unmarshal(body, &actions); decodeErr != nil {
		return nil, fmt.Errorf("decode social actions response: %w", decodeErr)
	}

	return &EngagementCounts{
		Likes:    actions.LikesSummary.TotalLikes,
		Comments: actions.CommentsSummary.TotalComments,
		Shares:   actions.SharesSummary.TotalShares,
	}, nil
}

type tokenExchangeResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// RefreshAccessToken exchanges a refresh token for a new credential triple.
func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	endpoint := c.oauthBaseURL + "/accessToken"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &TokenRefreshError{Reason: "create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TokenRefreshError{Reason: "http request", Err: err}
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, &TokenRefreshError{Reason: "read response", Err: readErr}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &TokenRefreshError{Reason: fmt.Sprintf("status %d: %s", resp.StatusCode, string(body))}
	}

	var exchange tokenExchangeResponse
	if decodeErr := json.Unmarshal(body, &exchange); decodeErr != nil {
		return nil, &TokenRefreshError{Reason: "decode response", Err: decodeErr}
	}
	if exchange.AccessToken == "" {
		return nil, &TokenRefreshError{Reason: "response missing access_token"}
	}
	if exchange.ExpiresIn <= 0 {
		return nil, &TokenRefreshError{Reason: "response missing expires_in"}
	}

	result := &TokenResponse{
		AccessToken: exchange.AccessToken,
		ExpiresIn:   exchange.ExpiresIn,
	}
	if exchange.RefreshToken != "" {
		result.RefreshToken = &exchange.RefreshToken
	}
	return result, nil
}

func (c *Client) setAPIHeaders(req *http.Request, accessToken string) {
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", restliProtocolVersion)
}
