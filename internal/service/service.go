// Package service implements the trust engine's business logic: review
// submission through the moderation gate, the vote and report ledgers,
// threshold-driven visibility policies, scoring, and company aggregation.
package service

import (
	"context"
	"errors"

	"github.com/veriwork/trustengine/internal/domain"
	apperrors "github.com/veriwork/trustengine/pkg/errors"
)

// Notifier delivers notification-worthy facts about reviews and reporters.
// Delivery is fire-and-forget: a failure is logged by the caller and never
// rolls back the state change that produced the fact. *event.Producer
// satisfies this.
type Notifier interface {
	ReviewCreated(ctx context.Context, review *domain.Review) error
	ReviewStatusChanged(ctx context.Context, review *domain.Review, oldStatus, reason string) error
	ReviewAutoHidden(ctx context.Context, review *domain.Review) error
	ReviewSpamEscalated(ctx context.Context, review *domain.Review, spamCount int) error
	ReporterFlagged(ctx context.Context, reporterID string, reportCount int) error
}

// Recomputer refreshes a company's derived rating summary. *CompanyService
// satisfies this.
type Recomputer interface {
	Recompute(ctx context.Context, companyID string) error
}

// withRetry runs fn up to domain.ConcurrencyRetryAttempts times, retrying
// only on per-key optimistic-lock conflicts. fn re-reads fresh state on each
// attempt; any other error surfaces immediately.
func withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt < domain.ConcurrencyRetryAttempts; attempt++ {
		err = fn(ctx)
		if err == nil || !errors.Is(err, apperrors.ErrConcurrencyConflict) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return apperrors.ConcurrencyConflict("operation conflicted with concurrent updates, retry later")
}
