package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ehtisham-sadiq/social-content-api/internal/database"
	"github.com/ehtisham-sadiq/social-content-api/internal/domain"
)

func newMockMetricsRepo(t *testing.T) (*database.MetricsRepository, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	repo := database.NewMetricsRepository(sqlx.NewDb(db, "sqlmock"))
	return repo, mock, func() { db.Close() }
}

func TestMetricsRepository_EnsureForPost(t *testing.T) {
	repo, mock, cleanup := newMockMetricsRepo(t)
	defer cleanup()

	ctx := context.Background()
	postID := uuid.New()
	accountID := uuid.New()

	testCases := []struct {
		name         string
		rowsAffected int64
	}{
		{"creates record when none exists", 1},
		{"existing record is left untouched", 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mock.ExpectExec("INSERT INTO post_metrics").
				WithArgs(sqlmock.AnyArg(), postID, accountID).
				WillReturnResult(sqlmock.NewResult(0, tc.rowsAffected))

			if err := repo.EnsureForPost(ctx, postID, accountID); err != nil {
				t.Errorf("EnsureForPost() error = %v", err)
			}
			if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
				t.Errorf("unfulfilled expectations: %v", expectErr)
			}
		})
	}
}

func TestMetricsRepository_UpdateEngagement(t *testing.T) {
	repo, mock, cleanup := newMockMetricsRepo(t)
	defer cleanup()

	ctx := context.Background()
	postID := uuid.New()
	syncedAt := time.Now().UTC()

	mock.ExpectExec("UPDATE post_metrics").
		WithArgs(postID, int64(12), int64(3), int64(1), 1.6, syncedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateEngagement(ctx, postID, 12, 3, 1, 1.6, syncedAt); err != nil {
		t.Errorf("UpdateEngagement() error = %v", err)
	}
	if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
		t.Errorf("unfulfilled expectations: %v", expectErr)
	}
}

func TestMetricsRepository_UpdateEngagement_MissingRecord(t *testing.T) {
	repo, mock, cleanup := newMockMetricsRepo(t)
	defer cleanup()

	ctx := context.Background()
	postID := uuid.New()
	syncedAt := time.Now().UTC()

	mock.ExpectExec("UPDATE post_metrics").
		WithArgs(postID, int64(0), int64(0), int64(0), 0.0, syncedAt).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateEngagement(ctx, postID, 0, 0, 0, 0, syncedAt)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("UpdateEngagement() error = %v, want ErrNotFound", err)
	}
	if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
		t.Errorf("unfulfilled expectations: %v", expectErr)
	}
}
