package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veriwork/trustengine/internal/domain"
	apperrors "github.com/veriwork/trustengine/pkg/errors"
)

func fileReport(e *engine, reviewID, reporter, reason string) (*FileReportResult, error) {
	return e.reports.File(context.Background(), FileReportInput{
		ReviewID:   reviewID,
		ReporterID: reporter,
		Reason:     reason,
	})
}

func TestFile_SelfReportRejected(t *testing.T) {
	e := newEngine(t)
	review, err := e.reviews.Submit(context.Background(), submitInput("c1", "author"))
	require.NoError(t, err)

	_, err = fileReport(e, review.ID, "author", domain.ReportReasonSpam)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)

	stored, err := e.reviews.GetByID(context.Background(), review.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.ReportCount)
}

func TestFile_DuplicatePendingReportRejected(t *testing.T) {
	e := newEngine(t)
	review, err := e.reviews.Submit(context.Background(), submitInput("c1", "author"))
	require.NoError(t, err)

	_, err = fileReport(e, review.ID, "u1", domain.ReportReasonFalseInfo)
	require.NoError(t, err)

	_, err = fileReport(e, review.ID, "u1", domain.ReportReasonHarassment)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyReported)

	stored, err := e.reviews.GetByID(context.Background(), review.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.ReportCount)
}

func TestFile_InvalidReasonRejected(t *testing.T) {
	e := newEngine(t)
	review, err := e.reviews.Submit(context.Background(), submitInput("c1", "author"))
	require.NoError(t, err)

	_, err = fileReport(e, review.ID, "u1", "dislike")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestFile_AutoHideFiresExactlyOnceUnderConcurrency(t *testing.T) {
	e := newEngine(t)
	review, err := e.reviews.Submit(context.Background(), submitInput("c1", "author"))
	require.NoError(t, err)

	const reporters = 20
	var wg sync.WaitGroup
	for i := 0; i < reporters; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := fileReport(e, review.ID, fmt.Sprintf("reporter-%02d", n), domain.ReportReasonOther)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	stored, err := e.reviews.GetByID(context.Background(), review.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusHidden, stored.Status)
	assert.Equal(t, reporters, stored.ReportCount, "every report past the threshold is still recorded")
	assert.Equal(t, 1, e.notifier.autoHidden, "hide notification emitted exactly once")

	summary, err := e.companies.GetRatingSummary(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalReviews, "hidden review left the aggregate")
}

func TestFile_SpamEscalationEmittedOnce(t *testing.T) {
	e := newEngine(t)
	review, err := e.reviews.Submit(context.Background(), submitInput("c1", "author"))
	require.NoError(t, err)

	for i := 0; i < domain.SpamEscalationThreshold+1; i++ {
		_, err := fileReport(e, review.ID, fmt.Sprintf("spam-reporter-%d", i), domain.ReportReasonSpam)
		require.NoError(t, err)
	}

	assert.Equal(t, 1, e.notifier.spamEscalated)
}

func TestFile_ExcessiveReporterFlaggedOnce(t *testing.T) {
	e := newEngine(t)

	// One reporter files against many distinct reviews.
	reviewIDs := make([]string, 0, domain.ExcessiveReportThreshold+2)
	for i := 0; i < domain.ExcessiveReportThreshold+2; i++ {
		review, err := e.reviews.Submit(context.Background(), submitInput(fmt.Sprintf("c-%d", i), "author"))
		require.NoError(t, err)
		reviewIDs = append(reviewIDs, review.ID)
	}

	for _, id := range reviewIDs {
		_, err := fileReport(e, id, "busy-reporter", domain.ReportReasonOther)
		require.NoError(t, err, "reporting is never blocked")
	}

	assert.Equal(t, 1, e.notifier.flagged, "abuse-pattern fact emitted once, on the crossing report")
}

// downActivity simulates an unreachable activity tracker.
type downActivity struct{}

func (downActivity) RecordReport(context.Context, string, time.Time) (int, error) {
	return 0, errors.New("activity tracker unavailable")
}

func TestFile_ExcessiveReporterFlaggedViaLedgerWhenTrackerDown(t *testing.T) {
	e := newEngine(t)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	e.reports = NewReportService(e.store, e.store, downActivity{}, e.companies, e.notifier, logger)

	reviewIDs := make([]string, 0, domain.ExcessiveReportThreshold+2)
	for i := 0; i < domain.ExcessiveReportThreshold+2; i++ {
		review, err := e.reviews.Submit(context.Background(), submitInput(fmt.Sprintf("c-%d", i), "author"))
		require.NoError(t, err)
		reviewIDs = append(reviewIDs, review.ID)
	}

	for _, id := range reviewIDs {
		_, err := fileReport(e, id, "busy-reporter", domain.ReportReasonOther)
		require.NoError(t, err, "reporting is never blocked by tracker outages")
	}

	assert.Equal(t, 1, e.notifier.flagged, "ledger fallback still fires the flag exactly once")
}

func TestFile_ReportsAccumulateOnHiddenReview(t *testing.T) {
	e := newEngine(t)
	review, err := e.reviews.Submit(context.Background(), submitInput("c1", "author"))
	require.NoError(t, err)

	_, err = e.reviews.AdminSetVisibility(context.Background(), review.ID, domain.StatusHidden, "manual")
	require.NoError(t, err)

	res, err := fileReport(e, review.ID, "u1", domain.ReportReasonOther)
	require.NoError(t, err)
	assert.False(t, res.AutoHidden)
}

func TestEndToEndLifecycle(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	// Submission goes straight to active and the company picks it up.
	review, err := e.reviews.Submit(ctx, submitInput("c1", "author"))
	require.NoError(t, err)
	require.Equal(t, domain.StatusActive, review.Status)

	summary, err := e.companies.GetRatingSummary(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 4.5, summary.AverageRating)
	assert.Equal(t, 1, summary.TotalReviews)

	// Four upvotes raise helpfulness monotonically.
	prev, err := e.reviews.GetScores(ctx, review.ID)
	require.NoError(t, err)
	for i := 1; i <= 4; i++ {
		_, _, err := e.votes.Cast(ctx, review.ID, fmt.Sprintf("voter-%d", i), domain.VoteUp, domain.VoteSourceWeb)
		require.NoError(t, err)

		scores, err := e.reviews.GetScores(ctx, review.ID)
		require.NoError(t, err)
		assert.Greater(t, scores.Helpfulness, prev.Helpfulness)
		prev = scores
	}

	// Five reports flip it to hidden on the fifth, and the company
	// aggregate reverts.
	for i := 1; i <= domain.AutoHideReportThreshold; i++ {
		res, err := fileReport(e, review.ID, fmt.Sprintf("reporter-%d", i), domain.ReportReasonOther)
		require.NoError(t, err)
		assert.Equal(t, i == domain.AutoHideReportThreshold, res.AutoHidden, "report %d", i)
	}

	stored, err := e.reviews.GetByID(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusHidden, stored.Status)

	summary, err = e.companies.GetRatingSummary(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalReviews)
	assert.Equal(t, 0.0, summary.AverageRating)
}
