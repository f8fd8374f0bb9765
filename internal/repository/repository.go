package repository

import (
	"context"
	"time"

	"github.com/veriwork/trustengine/internal/domain"
)

// ReviewRepository defines persistence for reviews.
type ReviewRepository interface {
	// Create inserts a new review.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// Update persists an edited review body/rating together with its
	// post-moderation status, bumping the edit counter atomically. It
	// fails if the stored edit count no longer matches expectedEditCount.
	Update(ctx context.Context, review *domain.Review, expectedEditCount int) error

	// SetStatus transitions a review's visibility after validating the
	// transition under a row lock. It returns the review in its new state.
	SetStatus(ctx context.Context, id, newStatus string) (*domain.Review, error)

	// ListActiveByCompany returns all active reviews for a company.
	ListActiveByCompany(ctx context.Context, companyID string) ([]*domain.Review, error)

	// ListByCompany returns a page of active reviews for a company plus
	// the total active count.
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*domain.Review, int, error)
}

// VoteRepository is the vote ledger. Counter updates and ledger writes
// happen in one transaction per call; review vote counters are a cache of
// the ledger, never drifting from it.
type VoteRepository interface {
	// Cast records or updates the user's vote and syncs the review's
	// counters. Same-direction repeats are no-ops. It returns the
	// post-operation tallies.
	Cast(ctx context.Context, reviewID, userID, direction, source string) (upvotes, downvotes int, err error)

	// Retract removes the user's vote and decrements the matching
	// counter; a missing vote is a no-op.
	Retract(ctx context.Context, reviewID, userID string) (upvotes, downvotes int, err error)

	// Get returns the user's current vote, or nil if none exists.
	Get(ctx context.Context, reviewID, userID string) (*domain.Vote, error)
}

// ReportRepository is the report ledger.
type ReportRepository interface {
	// File records a report, increments the review's report counter, and
	// detects threshold transitions, all under the review's row lock. The
	// outcome's AutoHidden and SpamEscalated fire only on the exact report
	// that crossed the threshold.
	File(ctx context.Context, report *domain.Report) (*domain.FileReportOutcome, error)

	// ListByReview returns all reports against a review, newest first.
	ListByReview(ctx context.Context, reviewID string) ([]*domain.Report, error)

	// CountByReporterSince returns how many reports a reporter filed since
	// the given time, regardless of target review or report status. Serves
	// the abuse-pattern window when the Redis tracker is unavailable.
	CountByReporterSince(ctx context.Context, reporterID string, since time.Time) (int, error)
}

// CompanyRepository persists derived company rating summaries.
type CompanyRepository interface {
	// UpsertSummary stores a freshly computed summary.
	UpsertSummary(ctx context.Context, summary *domain.RatingSummary) error

	// GetSummary retrieves the stored summary for a company.
	GetSummary(ctx context.Context, companyID string) (*domain.RatingSummary, error)
}

// ReporterActivity tracks per-reporter report frequency over a rolling
// window for the abuse-pattern policy.
type ReporterActivity interface {
	// RecordReport registers one report at the given time and returns how
	// many reports the reporter has filed inside the window ending then.
	RecordReport(ctx context.Context, reporterID string, at time.Time) (int, error)
}
