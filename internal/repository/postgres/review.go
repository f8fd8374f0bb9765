package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/veriwork/trustengine/internal/domain"
	"github.com/veriwork/trustengine/pkg/database"
	apperrors "github.com/veriwork/trustengine/pkg/errors"
)

const reviewColumns = `id, company_id, user_id, category, rating, body, document_ref, is_verified,
	status, upvotes, downvotes, report_count, edit_count, toxicity_score, moderation_notes,
	created_at, updated_at, hidden_at`

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

func scanReview(row pgx.Row) (*domain.Review, error) {
	var r domain.Review
	err := row.Scan(
		&r.ID,
		&r.CompanyID,
		&r.UserID,
		&r.Category,
		&r.Rating,
		&r.Body,
		&r.DocumentRef,
		&r.IsVerified,
		&r.Status,
		&r.Upvotes,
		&r.Downvotes,
		&r.ReportCount,
		&r.EditCount,
		&r.ToxicityScore,
		&r.ModerationNotes,
		&r.CreatedAt,
		&r.UpdatedAt,
		&r.HiddenAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Create inserts a new review.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	query := `
		INSERT INTO reviews (id, company_id, user_id, category, rating, body, document_ref, is_verified,
			status, upvotes, downvotes, report_count, edit_count, toxicity_score, moderation_notes,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err := r.pool.Exec(ctx, query,
		review.ID,
		review.CompanyID,
		review.UserID,
		review.Category,
		review.Rating,
		review.Body,
		review.DocumentRef,
		review.IsVerified,
		review.Status,
		review.Upvotes,
		review.Downvotes,
		review.ReportCount,
		review.EditCount,
		review.ToxicityScore,
		review.ModerationNotes,
		review.CreatedAt,
		review.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create review: %w", mapConcurrencyError(err))
	}
	return nil
}

// GetByID retrieves a review by its unique identifier.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`

	review, err := scanReview(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return review, nil
}

// Update persists an edited review. The WHERE clause pins the edit counter
// the caller observed, so a concurrent edit loses cleanly instead of
// silently overwriting.
func (r *ReviewRepository) Update(ctx context.Context, review *domain.Review, expectedEditCount int) error {
	query := `
		UPDATE reviews
		SET rating = $1, body = $2, status = $3, toxicity_score = $4, moderation_notes = $5,
			edit_count = edit_count + 1, updated_at = NOW()
		WHERE id = $6 AND edit_count = $7`

	tag, err := r.pool.Exec(ctx, query,
		review.Rating,
		review.Body,
		review.Status,
		review.ToxicityScore,
		review.ModerationNotes,
		review.ID,
		expectedEditCount,
	)
	if err != nil {
		return fmt.Errorf("update review: %w", mapConcurrencyError(err))
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrConcurrencyConflict
	}
	return nil
}

// SetStatus transitions a review's visibility under a row lock, validating
// the transition against the state machine before applying it.
func (r *ReviewRepository) SetStatus(ctx context.Context, id, newStatus string) (*domain.Review, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin status transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	lockQuery := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1 FOR UPDATE`
	review, err := scanReview(tx.QueryRow(ctx, lockQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("lock review for status change: %w", mapConcurrencyError(err))
	}

	if review.Status == newStatus {
		// Idempotent: already in the requested state.
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("commit status transaction: %w", err)
		}
		return review, nil
	}

	if !review.CanTransitionTo(newStatus) {
		return nil, apperrors.InvalidStateTransition(
			fmt.Sprintf("review %s cannot move from %s to %s", id, review.Status, newStatus))
	}

	updateQuery := `
		UPDATE reviews
		SET status = $1,
			hidden_at = CASE WHEN $1 = 'hidden' THEN NOW() ELSE NULL END,
			updated_at = NOW()
		WHERE id = $2
		RETURNING ` + reviewColumns

	updated, err := scanReview(tx.QueryRow(ctx, updateQuery, newStatus, id))
	if err != nil {
		return nil, fmt.Errorf("update review status: %w", mapConcurrencyError(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit status transaction: %w", mapConcurrencyError(err))
	}
	return updated, nil
}

// ListActiveByCompany returns all active reviews for a company.
func (r *ReviewRepository) ListActiveByCompany(ctx context.Context, companyID string) ([]*domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE company_id = $1 AND status = 'active' ORDER BY id`

	rows, err := r.pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("list active reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*domain.Review
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}
	return reviews, nil
}

// ListByCompany returns a page of active reviews for a company, newest
// first, plus the total active count.
func (r *ReviewRepository) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*domain.Review, int, error) {
	query := `
		SELECT ` + reviewColumns + `, COUNT(*) OVER() AS total_count
		FROM reviews
		WHERE company_id = $1 AND status = 'active'
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, companyID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews by company: %w", err)
	}
	defer rows.Close()

	var (
		reviews    []*domain.Review
		totalCount int
	)
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(
			&rv.ID,
			&rv.CompanyID,
			&rv.UserID,
			&rv.Category,
			&rv.Rating,
			&rv.Body,
			&rv.DocumentRef,
			&rv.IsVerified,
			&rv.Status,
			&rv.Upvotes,
			&rv.Downvotes,
			&rv.ReportCount,
			&rv.EditCount,
			&rv.ToxicityScore,
			&rv.ModerationNotes,
			&rv.CreatedAt,
			&rv.UpdatedAt,
			&rv.HiddenAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, &rv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}

	if reviews == nil {
		reviews = []*domain.Review{}
	}
	return reviews, totalCount, nil
}
