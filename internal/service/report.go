package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/veriwork/trustengine/internal/domain"
	"github.com/veriwork/trustengine/internal/repository"
	apperrors "github.com/veriwork/trustengine/pkg/errors"
)

// ReportService runs the report ledger and its auto-action policies. The
// ledger write and threshold detection happen atomically in the repository;
// this layer turns the detected transitions into side effects, none of
// which can roll back the recorded report.
type ReportService struct {
	reportRepo repository.ReportRepository
	reviewRepo repository.ReviewRepository
	activity   repository.ReporterActivity
	aggregator Recomputer
	notifier   Notifier
	logger     *slog.Logger
}

// NewReportService creates a report service.
func NewReportService(
	reportRepo repository.ReportRepository,
	reviewRepo repository.ReviewRepository,
	activity repository.ReporterActivity,
	aggregator Recomputer,
	notifier Notifier,
	logger *slog.Logger,
) *ReportService {
	return &ReportService{
		reportRepo: reportRepo,
		reviewRepo: reviewRepo,
		activity:   activity,
		aggregator: aggregator,
		notifier:   notifier,
		logger:     logger,
	}
}

// FileReportInput holds the parameters for filing a report.
type FileReportInput struct {
	ReviewID   string `json:"-"`
	ReporterID string `json:"reporter_id" validate:"required,uuid"`
	Reason     string `json:"reason" validate:"required"`
	Detail     string `json:"detail,omitempty" validate:"max=1000"`
}

// FileReportResult is what the caller sees after a report is accepted.
type FileReportResult struct {
	Report     *domain.Report `json:"report"`
	TotalCount int            `json:"total_count"`
	AutoHidden bool           `json:"auto_hidden"`
}

// File records a report and applies the auto-action policies. Self-reports
// and duplicate pending reports are rejected with no side effects. The
// report that crosses the auto-hide threshold triggers the hide exactly
// once; the spam-escalation and abuse-pattern policies emit their facts
// without touching visibility.
func (s *ReportService) File(ctx context.Context, input FileReportInput) (*FileReportResult, error) {
	if !domain.IsValidReportReason(input.Reason) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown report reason %q", input.Reason))
	}

	report := &domain.Report{
		ID:         uuid.New().String(),
		ReviewID:   input.ReviewID,
		ReporterID: input.ReporterID,
		Reason:     input.Reason,
		Detail:     input.Detail,
	}

	var outcome *domain.FileReportOutcome
	err := withRetry(ctx, func(ctx context.Context) error {
		var err error
		outcome, err = s.reportRepo.File(ctx, report)
		return err
	})
	if err != nil {
		return nil, err
	}

	if outcome.AutoHidden {
		s.onAutoHidden(ctx, input.ReviewID)
	}
	if outcome.SpamEscalated {
		s.onSpamEscalated(ctx, input.ReviewID, outcome.SpamPending)
	}
	s.trackReporter(ctx, input.ReporterID)

	s.logger.InfoContext(ctx, "report filed",
		slog.String("review_id", input.ReviewID),
		slog.String("reason", input.Reason),
		slog.Int("total_pending", outcome.TotalPending),
		slog.Bool("auto_hidden", outcome.AutoHidden),
	)

	return &FileReportResult{
		Report:     outcome.Report,
		TotalCount: outcome.TotalPending,
		AutoHidden: outcome.AutoHidden,
	}, nil
}

// ListByReview returns all reports against a review.
func (s *ReportService) ListByReview(ctx context.Context, reviewID string) ([]*domain.Report, error) {
	return s.reportRepo.ListByReview(ctx, reviewID)
}

func (s *ReportService) onAutoHidden(ctx context.Context, reviewID string) {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load auto-hidden review for notification",
			slog.String("review_id", reviewID),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := s.aggregator.Recompute(ctx, review.CompanyID); err != nil {
		s.logger.ErrorContext(ctx, "failed to recompute company rating after auto-hide",
			slog.String("company_id", review.CompanyID),
			slog.String("error", err.Error()),
		)
	}
	if err := s.notifier.ReviewAutoHidden(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.auto_hidden event",
			slog.String("review_id", reviewID),
			slog.String("error", err.Error()),
		)
	}
	if err := s.notifier.ReviewStatusChanged(ctx, review, domain.StatusActive, "auto_hide_threshold"); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.status_changed event",
			slog.String("review_id", reviewID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *ReportService) onSpamEscalated(ctx context.Context, reviewID string, spamCount int) {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load review for spam escalation",
			slog.String("review_id", reviewID),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := s.notifier.ReviewSpamEscalated(ctx, review, spamCount); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.spam_escalated event",
			slog.String("review_id", reviewID),
			slog.String("error", err.Error()),
		)
	}
}

// trackReporter records the report in the reporter's rolling window and
// flags the reporter the moment they exceed the excessive-report threshold.
// The flag is audit-only; reporting is never blocked.
func (s *ReportService) trackReporter(ctx context.Context, reporterID string) {
	now := time.Now().UTC()

	count, err := s.activity.RecordReport(ctx, reporterID, now)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to record reporter activity, falling back to ledger count",
			slog.String("reporter_id", reporterID),
			slog.String("error", err.Error()),
		)
		// The report is already persisted, so the ledger count includes it
		// and crosses the threshold on the same filing the tracker would.
		count, err = s.reportRepo.CountByReporterSince(ctx, reporterID, now.Add(-domain.ExcessiveReportWindow))
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to count reporter activity from ledger",
				slog.String("reporter_id", reporterID),
				slog.String("error", err.Error()),
			)
			return
		}
	}

	// Fires once, on the report that crosses the line.
	if count == domain.ExcessiveReportThreshold+1 {
		if err := s.notifier.ReporterFlagged(ctx, reporterID, count); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish reporter.flagged event",
				slog.String("reporter_id", reporterID),
				slog.String("error", err.Error()),
			)
		}
	}
}
