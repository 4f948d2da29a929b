package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ehtisham-sadiq/social-content-api/internal/domain"
)

const accountSelectList = `id, email, external_profile_id, access_token,
			refresh_token, token_expires_at, created_at, updated_at`

// AccountRepository manages social account credentials in PostgreSQL
type AccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository creates a new repository instance
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// GetByID retrieves an account credential by ID
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	account := &domain.Account{}
	query := `SELECT ` + accountSelectList + ` FROM accounts WHERE id = $1`

	err := r.db.GetContext(ctx, account, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

// UpdateTokens persists a rotated credential after a successful refresh
func (r *AccountRepository) UpdateTokens(ctx context.Context, id uuid.UUID, accessToken string, refreshToken *string, expiresAt time.Time) error {
	query := `
		UPDATE accounts
		SET access_token = $2,
		    refresh_token = COALESCE($3, refresh_token),
		    token_expires_at = $4,
		    updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, accessToken, refreshToken, expiresAt)
	if err != nil {
		return fmt.Errorf("update tokens: %w", err)
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
