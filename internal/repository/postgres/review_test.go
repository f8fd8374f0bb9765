package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veriwork/trustengine/internal/domain"
	"github.com/veriwork/trustengine/pkg/database"
	apperrors "github.com/veriwork/trustengine/pkg/errors"
)

func newReviewTestFixture(t *testing.T) (*ReviewRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return NewReviewRepository(mock), mock
}

func sampleReview() *domain.Review {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Review{
		ID:        "r1",
		CompanyID: "c1",
		UserID:    "author",
		Category:  domain.CategorySalary,
		Rating:    4.5,
		Body:      "The compensation package is competitive and reviewed twice a year without fail.",
		Status:    domain.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func reviewColumnNames() []string {
	return []string{
		"id", "company_id", "user_id", "category", "rating", "body", "document_ref", "is_verified",
		"status", "upvotes", "downvotes", "report_count", "edit_count", "toxicity_score",
		"moderation_notes", "created_at", "updated_at", "hidden_at",
	}
}

func reviewRow(r *domain.Review) *pgxmock.Rows {
	return pgxmock.NewRows(reviewColumnNames()).AddRow(
		r.ID, r.CompanyID, r.UserID, r.Category, r.Rating, r.Body, r.DocumentRef, r.IsVerified,
		r.Status, r.Upvotes, r.Downvotes, r.ReportCount, r.EditCount, r.ToxicityScore,
		r.ModerationNotes, r.CreatedAt, r.UpdatedAt, r.HiddenAt,
	)
}

func TestReviewRepository_Create(t *testing.T) {
	repo, mock := newReviewTestFixture(t)
	defer mock.Close()

	r := sampleReview()

	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(
			r.ID, r.CompanyID, r.UserID, r.Category, r.Rating, r.Body, r.DocumentRef, r.IsVerified,
			r.Status, r.Upvotes, r.Downvotes, r.ReportCount, r.EditCount, r.ToxicityScore,
			r.ModerationNotes, r.CreatedAt, r.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), r)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newReviewTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM reviews WHERE id =").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestReviewRepository_Update_StaleEditCountConflicts(t *testing.T) {
	repo, mock := newReviewTestFixture(t)
	defer mock.Close()

	r := sampleReview()

	mock.ExpectExec("UPDATE reviews").
		WithArgs(r.Rating, r.Body, r.Status, r.ToxicityScore, r.ModerationNotes, r.ID, 1).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), r, 1)
	assert.ErrorIs(t, err, apperrors.ErrConcurrencyConflict)
}

func TestReviewRepository_SetStatus_ValidTransition(t *testing.T) {
	repo, mock := newReviewTestFixture(t)
	defer mock.Close()

	current := sampleReview()
	current.Status = domain.StatusPendingModeration

	updated := sampleReview()
	updated.Status = domain.StatusActive

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM reviews WHERE id = (.+) FOR UPDATE").
		WithArgs("r1").
		WillReturnRows(reviewRow(current))
	mock.ExpectQuery("UPDATE reviews").
		WithArgs(domain.StatusActive, "r1").
		WillReturnRows(reviewRow(updated))
	mock.ExpectCommit()

	got, err := repo.SetStatus(context.Background(), "r1", domain.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, got.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_SetStatus_IllegalTransition(t *testing.T) {
	repo, mock := newReviewTestFixture(t)
	defer mock.Close()

	current := sampleReview()
	current.Status = domain.StatusPendingModeration

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM reviews WHERE id = (.+) FOR UPDATE").
		WithArgs("r1").
		WillReturnRows(reviewRow(current))
	mock.ExpectRollback()

	_, err := repo.SetStatus(context.Background(), "r1", domain.StatusHidden)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)
}

func TestReviewRepository_SetStatus_SameStateIsIdempotent(t *testing.T) {
	repo, mock := newReviewTestFixture(t)
	defer mock.Close()

	current := sampleReview()
	current.Status = domain.StatusHidden

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM reviews WHERE id = (.+) FOR UPDATE").
		WithArgs("r1").
		WillReturnRows(reviewRow(current))
	mock.ExpectCommit()

	got, err := repo.SetStatus(context.Background(), "r1", domain.StatusHidden)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusHidden, got.Status)
}

func TestReviewRepository_ListByCompany(t *testing.T) {
	repo, mock := newReviewTestFixture(t)
	defer mock.Close()

	r := sampleReview()
	rows := pgxmock.NewRows(append(reviewColumnNames(), "total_count")).AddRow(
		r.ID, r.CompanyID, r.UserID, r.Category, r.Rating, r.Body, r.DocumentRef, r.IsVerified,
		r.Status, r.Upvotes, r.Downvotes, r.ReportCount, r.EditCount, r.ToxicityScore,
		r.ModerationNotes, r.CreatedAt, r.UpdatedAt, r.HiddenAt, 7,
	)

	mock.ExpectQuery("SELECT (.+) FROM reviews").
		WithArgs("c1", 20, 0).
		WillReturnRows(rows)

	reviews, total, err := repo.ListByCompany(context.Background(), "c1", 20, 0)
	require.NoError(t, err)
	assert.Len(t, reviews, 1)
	assert.Equal(t, 7, total)
}
