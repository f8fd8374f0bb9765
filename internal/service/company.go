package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/veriwork/trustengine/internal/domain"
	"github.com/veriwork/trustengine/internal/repository"
	apperrors "github.com/veriwork/trustengine/pkg/errors"
)

// CompanyService maintains derived company rating summaries.
type CompanyService struct {
	reviewRepo  repository.ReviewRepository
	companyRepo repository.CompanyRepository
	logger      *slog.Logger

	// Recomputation serializes per company so two overlapping triggers
	// cannot interleave their read-compute-write cycles. Different
	// companies recompute fully concurrently.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewCompanyService creates a company aggregation service.
func NewCompanyService(
	reviewRepo repository.ReviewRepository,
	companyRepo repository.CompanyRepository,
	logger *slog.Logger,
) *CompanyService {
	return &CompanyService{
		reviewRepo:  reviewRepo,
		companyRepo: companyRepo,
		logger:      logger,
		locks:       make(map[string]*sync.Mutex),
	}
}

func (s *CompanyService) companyLock(companyID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[companyID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[companyID] = lock
	}
	return lock
}

// Recompute rebuilds the company's rating summary from its active reviews.
// The computation is idempotent and order-independent; it is invoked
// whenever a review enters or leaves the active set or changes its rating,
// never for votes or reports that leave visibility untouched.
func (s *CompanyService) Recompute(ctx context.Context, companyID string) error {
	lock := s.companyLock(companyID)
	lock.Lock()
	defer lock.Unlock()

	reviews, err := s.reviewRepo.ListActiveByCompany(ctx, companyID)
	if err != nil {
		return fmt.Errorf("list active reviews for recompute: %w", err)
	}

	summary := domain.ComputeRatingSummary(companyID, reviews, time.Now().UTC())
	if existing, err := s.companyRepo.GetSummary(ctx, companyID); err == nil && summary.SameValues(existing) {
		// Keep the stored timestamp when nothing changed, so recomputing an
		// unchanged review set leaves the summary identical.
		summary.ComputedAt = existing.ComputedAt
	}
	if err := s.companyRepo.UpsertSummary(ctx, summary); err != nil {
		return fmt.Errorf("store rating summary: %w", err)
	}

	s.logger.InfoContext(ctx, "company rating summary recomputed",
		slog.String("company_id", companyID),
		slog.Int("total_reviews", summary.TotalReviews),
		slog.Float64("average_rating", summary.AverageRating),
	)
	return nil
}

// GetRatingSummary returns the stored summary for a company. A company with
// no stored summary yet gets an empty one rather than a 404; an unknown
// company is indistinguishable from one nobody reviewed.
func (s *CompanyService) GetRatingSummary(ctx context.Context, companyID string) (*domain.RatingSummary, error) {
	summary, err := s.companyRepo.GetSummary(ctx, companyID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.ComputeRatingSummary(companyID, nil, time.Now().UTC()), nil
		}
		return nil, fmt.Errorf("get rating summary: %w", err)
	}
	return summary, nil
}

// ListReviews returns a page of a company's active reviews plus the total
// active count.
func (s *CompanyService) ListReviews(ctx context.Context, companyID string, limit, offset int) ([]*domain.Review, int, error) {
	reviews, total, err := s.reviewRepo.ListByCompany(ctx, companyID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list company reviews: %w", err)
	}
	return reviews, total, nil
}
