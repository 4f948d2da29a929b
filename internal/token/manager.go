// Package token manages the external access-credential lifecycle for
// connected accounts.
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ehtisham-sadiq/social-content-api/internal/domain"
	"github.com/ehtisham-sadiq/social-content-api/internal/linkedin"
	"github.com/ehtisham-sadiq/social-content-api/internal/logger"
)

// ErrNoAccessToken is returned when the account was never connected to the
// platform.
var ErrNoAccessToken = errors.New("account has no access token")

// ErrNoRefreshToken is returned when an expired credential cannot be renewed.
var ErrNoRefreshToken = errors.New("access token expired and no refresh token available")

// Exchanger performs the external refresh-token exchange.
type Exchanger interface {
	RefreshAccessToken(ctx context.Context, refreshToken string) (*linkedin.TokenResponse, error)
}

// AccountStore persists rotated credentials.
type AccountStore interface {
	UpdateTokens(ctx context.Context, id uuid.UUID, accessToken string, refreshToken *string, expiresAt time.Time) error
}

// Manager validates and refreshes account credentials. It decides no policy
// on failure; callers apply their own consequence.
type Manager struct {
	exchanger Exchanger
	accounts  AccountStore
	logger    logger.Logger
	now       func() time.Time
}

// NewManager creates a token manager.
func NewManager(exchanger Exchanger, accounts AccountStore, log logger.Logger) *Manager {
	return &Manager{
		exchanger: exchanger,
		accounts:  accounts,
		logger:    log,
		now:       time.Now,
	}
}

// EnsureValid guarantees the account carries a usable access token on return,
// refreshing and persisting the credential when it has expired. The account
// is mutated in place with the rotated tokens.
func (m *Manager) EnsureValid(ctx context.Context, account *domain.Account) error {
	now := m.now().UTC()

	if !account.HasAccessToken() {
		return ErrNoAccessToken
	}
	if account.TokenValid(now) {
		return nil
	}
	if !account.HasRefreshToken() {
		return ErrNoRefreshToken
	}

	refreshed, err := m.exchanger.RefreshAccessToken(ctx, *account.RefreshToken)
	if err != nil {
		return err
	}

	expiresAt := now.Add(time.Duration(refreshed.ExpiresIn) * time.Second)
	account.AccessToken = &refreshed.AccessToken
	if refreshed.RefreshToken != nil {
		account.RefreshToken = refreshed.RefreshToken
	}
	account.TokenExpiresAt = &expiresAt

	if err := m.accounts.UpdateTokens(ctx, account.ID, refreshed.AccessToken, refreshed.RefreshToken, expiresAt); err != nil {
		return fmt.Errorf("persist refreshed tokens: %w", err)
	}

	m.logger.Info("refreshed access token",
		logger.String("account_id", account.ID.String()),
		logger.Time("expires_at", expiresAt),
	)
	return nil
}

// WithClock overrides the time source. Intended for tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}
