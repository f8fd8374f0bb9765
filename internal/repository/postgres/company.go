package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/veriwork/trustengine/internal/domain"
	"github.com/veriwork/trustengine/pkg/database"
	apperrors "github.com/veriwork/trustengine/pkg/errors"
)

// CompanyRepository stores derived company rating summaries.
type CompanyRepository struct {
	pool database.DBTX
}

// NewCompanyRepository creates a PostgreSQL-backed company repository.
func NewCompanyRepository(pool database.DBTX) *CompanyRepository {
	return &CompanyRepository{pool: pool}
}

// UpsertSummary stores a freshly computed summary, replacing any previous
// one for the company.
func (r *CompanyRepository) UpsertSummary(ctx context.Context, summary *domain.RatingSummary) error {
	histogram, err := json.Marshal(summary.RatingHistogram)
	if err != nil {
		return fmt.Errorf("marshal rating histogram: %w", err)
	}
	categories, err := json.Marshal(summary.CategoryAverages)
	if err != nil {
		return fmt.Errorf("marshal category averages: %w", err)
	}

	query := `
		INSERT INTO company_rating_summaries
			(company_id, average_rating, total_reviews, verified_reviews, verified_percent,
			 rating_histogram, category_averages, computed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (company_id) DO UPDATE SET
			average_rating = EXCLUDED.average_rating,
			total_reviews = EXCLUDED.total_reviews,
			verified_reviews = EXCLUDED.verified_reviews,
			verified_percent = EXCLUDED.verified_percent,
			rating_histogram = EXCLUDED.rating_histogram,
			category_averages = EXCLUDED.category_averages,
			computed_at = EXCLUDED.computed_at`

	_, err = r.pool.Exec(ctx, query,
		summary.CompanyID,
		summary.AverageRating,
		summary.TotalReviews,
		summary.VerifiedReviews,
		summary.VerifiedPercent,
		histogram,
		categories,
		summary.ComputedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert rating summary: %w", mapConcurrencyError(err))
	}
	return nil
}

// GetSummary retrieves the stored summary for a company.
func (r *CompanyRepository) GetSummary(ctx context.Context, companyID string) (*domain.RatingSummary, error) {
	query := `
		SELECT company_id, average_rating, total_reviews, verified_reviews, verified_percent,
			rating_histogram, category_averages, computed_at
		FROM company_rating_summaries
		WHERE company_id = $1`

	var (
		s          domain.RatingSummary
		histogram  []byte
		categories []byte
	)
	err := r.pool.QueryRow(ctx, query, companyID).Scan(
		&s.CompanyID,
		&s.AverageRating,
		&s.TotalReviews,
		&s.VerifiedReviews,
		&s.VerifiedPercent,
		&histogram,
		&categories,
		&s.ComputedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get rating summary: %w", err)
	}

	if err := json.Unmarshal(histogram, &s.RatingHistogram); err != nil {
		return nil, fmt.Errorf("unmarshal rating histogram: %w", err)
	}
	if err := json.Unmarshal(categories, &s.CategoryAverages); err != nil {
		return nil, fmt.Errorf("unmarshal category averages: %w", err)
	}
	return &s, nil
}
