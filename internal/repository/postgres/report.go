package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/veriwork/trustengine/internal/domain"
	"github.com/veriwork/trustengine/pkg/database"
	apperrors "github.com/veriwork/trustengine/pkg/errors"
)

// ReportRepository implements the report ledger on PostgreSQL. Filing a
// report locks the review row, so threshold detection is race-free: of N
// concurrent reports crossing the auto-hide threshold, exactly one observes
// the transition.
type ReportRepository struct {
	pool database.DBTX
}

// NewReportRepository creates a PostgreSQL-backed report repository.
func NewReportRepository(pool database.DBTX) *ReportRepository {
	return &ReportRepository{pool: pool}
}

// File records a report and detects threshold transitions inside one
// row-locked transaction. Reports are accepted against active and hidden
// reviews (a hidden review keeps accumulating evidence); the auto-hide
// transition fires only on the report that moves an active review across
// the threshold.
func (r *ReportRepository) File(ctx context.Context, report *domain.Report) (*domain.FileReportOutcome, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin report transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var authorID, status string
	lockQuery := `SELECT user_id, status FROM reviews WHERE id = $1 FOR UPDATE`
	if err := tx.QueryRow(ctx, lockQuery, report.ReviewID).Scan(&authorID, &status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("lock review for report: %w", mapConcurrencyError(err))
	}

	if status != domain.StatusActive && status != domain.StatusHidden {
		return nil, apperrors.InvalidStateTransition(
			fmt.Sprintf("review %s is %s and cannot be reported", report.ReviewID, status))
	}
	if authorID == report.ReporterID {
		return nil, apperrors.SelfReport(report.ReviewID)
	}

	var hasPending bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM review_reports
			WHERE review_id = $1 AND reporter_id = $2 AND status = 'pending'
		)`,
		report.ReviewID, report.ReporterID,
	).Scan(&hasPending)
	if err != nil {
		return nil, fmt.Errorf("check pending report: %w", mapConcurrencyError(err))
	}
	if hasPending {
		return nil, apperrors.AlreadyReported(report.ReviewID)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO review_reports (id, review_id, reporter_id, reason, detail, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())`,
		report.ID, report.ReviewID, report.ReporterID, report.Reason, report.Detail, domain.ReportStatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("insert report: %w", mapConcurrencyError(err))
	}

	var totalPending, spamPending int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE reason = 'spam')
		 FROM review_reports
		 WHERE review_id = $1 AND status = 'pending'`,
		report.ReviewID,
	).Scan(&totalPending, &spamPending)
	if err != nil {
		return nil, fmt.Errorf("count pending reports: %w", mapConcurrencyError(err))
	}

	_, err = tx.Exec(ctx,
		`UPDATE reviews SET report_count = report_count + 1, updated_at = NOW() WHERE id = $1`,
		report.ReviewID,
	)
	if err != nil {
		return nil, fmt.Errorf("increment report counter: %w", mapConcurrencyError(err))
	}

	outcome := &domain.FileReportOutcome{
		Report:       report,
		TotalPending: totalPending,
		SpamPending:  spamPending,
	}

	// Trigger on transition, not on condition: the review is still active
	// here only for the report that crosses the line, so the hide fires
	// exactly once no matter how many reports follow.
	if status == domain.StatusActive && totalPending >= domain.AutoHideReportThreshold {
		_, err = tx.Exec(ctx,
			`UPDATE reviews SET status = 'hidden', hidden_at = NOW(), updated_at = NOW() WHERE id = $1`,
			report.ReviewID,
		)
		if err != nil {
			return nil, fmt.Errorf("auto-hide review: %w", mapConcurrencyError(err))
		}
		outcome.AutoHidden = true
	}

	if report.Reason == domain.ReportReasonSpam && spamPending == domain.SpamEscalationThreshold {
		outcome.SpamEscalated = true
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit report transaction: %w", mapConcurrencyError(err))
	}

	report.Status = domain.ReportStatusPending
	return outcome, nil
}

// ListByReview returns all reports against a review, newest first.
func (r *ReportRepository) ListByReview(ctx context.Context, reviewID string) ([]*domain.Report, error) {
	query := `
		SELECT id, review_id, reporter_id, reason, detail, status, created_at, updated_at
		FROM review_reports
		WHERE review_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, reviewID)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var reports []*domain.Report
	for rows.Next() {
		var rep domain.Report
		if err := rows.Scan(
			&rep.ID,
			&rep.ReviewID,
			&rep.ReporterID,
			&rep.Reason,
			&rep.Detail,
			&rep.Status,
			&rep.CreatedAt,
			&rep.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		reports = append(reports, &rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report rows: %w", err)
	}
	return reports, nil
}

// CountByReporterSince returns how many reports a reporter filed since the
// given time across all reviews.
func (r *ReportRepository) CountByReporterSince(ctx context.Context, reporterID string, since time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM review_reports WHERE reporter_id = $1 AND created_at >= $2`,
		reporterID, since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count reporter activity: %w", err)
	}
	return count, nil
}
