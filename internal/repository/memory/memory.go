// Package memory provides in-memory implementations of the repository
// interfaces. They mirror the PostgreSQL implementations' semantics,
// including per-review serialization and threshold transition detection,
// and back the concurrency-sensitive tests that a mocked database cannot
// exercise.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/veriwork/trustengine/internal/domain"
	apperrors "github.com/veriwork/trustengine/pkg/errors"
)

// Store holds all in-memory state behind one mutex. Every operation is
// atomic with respect to the others, matching the row-lock serialization
// the PostgreSQL implementations get from the database.
type Store struct {
	mu        sync.Mutex
	reviews   map[string]*domain.Review
	votes     map[string]map[string]*domain.Vote   // reviewID -> userID -> vote
	reports   map[string][]*domain.Report          // reviewID -> reports
	summaries map[string]*domain.RatingSummary     // companyID -> summary
	activity  map[string][]time.Time               // reporterID -> report times
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		reviews:   make(map[string]*domain.Review),
		votes:     make(map[string]map[string]*domain.Vote),
		reports:   make(map[string][]*domain.Report),
		summaries: make(map[string]*domain.RatingSummary),
		activity:  make(map[string][]time.Time),
	}
}

func cloneReview(r *domain.Review) *domain.Review {
	c := *r
	if r.ModerationNotes != nil {
		c.ModerationNotes = append([]string(nil), r.ModerationNotes...)
	}
	if r.HiddenAt != nil {
		at := *r.HiddenAt
		c.HiddenAt = &at
	}
	return &c
}

// ---------------------------------------------------------------------------
// ReviewRepository
// ---------------------------------------------------------------------------

// Create inserts a new review.
func (s *Store) Create(_ context.Context, review *domain.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reviews[review.ID]; exists {
		return fmt.Errorf("review %s already exists", review.ID)
	}
	s.reviews[review.ID] = cloneReview(review)
	return nil
}

// GetByID retrieves a review by its unique identifier.
func (s *Store) GetByID(_ context.Context, id string) (*domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	review, ok := s.reviews[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return cloneReview(review), nil
}

// Update persists an edited review if the stored edit count still matches.
func (s *Store) Update(_ context.Context, review *domain.Review, expectedEditCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.reviews[review.ID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if stored.EditCount != expectedEditCount {
		return apperrors.ErrConcurrencyConflict
	}

	stored.Rating = review.Rating
	stored.Body = review.Body
	stored.Status = review.Status
	stored.ToxicityScore = review.ToxicityScore
	stored.ModerationNotes = append([]string(nil), review.ModerationNotes...)
	stored.EditCount++
	stored.UpdatedAt = time.Now()
	return nil
}

// SetStatus transitions a review's visibility, validating the transition.
func (s *Store) SetStatus(_ context.Context, id, newStatus string) (*domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	review, ok := s.reviews[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if review.Status == newStatus {
		return cloneReview(review), nil
	}
	if !review.CanTransitionTo(newStatus) {
		return nil, apperrors.InvalidStateTransition(
			fmt.Sprintf("review %s cannot move from %s to %s", id, review.Status, newStatus))
	}

	review.Status = newStatus
	if newStatus == domain.StatusHidden {
		now := time.Now()
		review.HiddenAt = &now
	} else {
		review.HiddenAt = nil
	}
	review.UpdatedAt = time.Now()
	return cloneReview(review), nil
}

// ListActiveByCompany returns all active reviews for a company.
func (s *Store) ListActiveByCompany(_ context.Context, companyID string) ([]*domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reviews []*domain.Review
	for _, r := range s.reviews {
		if r.CompanyID == companyID && r.IsActive() {
			reviews = append(reviews, cloneReview(r))
		}
	}
	sort.Slice(reviews, func(i, j int) bool { return reviews[i].ID < reviews[j].ID })
	return reviews, nil
}

// ListByCompany returns a page of active reviews, newest first.
func (s *Store) ListByCompany(_ context.Context, companyID string, limit, offset int) ([]*domain.Review, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []*domain.Review
	for _, r := range s.reviews {
		if r.CompanyID == companyID && r.IsActive() {
			all = append(all, cloneReview(r))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := len(all)
	if offset >= total {
		return []*domain.Review{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

// ---------------------------------------------------------------------------
// VoteRepository
// ---------------------------------------------------------------------------

// Cast records or updates the user's vote and syncs the review counters.
func (s *Store) Cast(_ context.Context, reviewID, userID, direction, source string) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	review, ok := s.reviews[reviewID]
	if !ok {
		return 0, 0, apperrors.ErrNotFound
	}
	if review.Status != domain.StatusActive {
		return 0, 0, apperrors.InvalidStateTransition(
			fmt.Sprintf("review %s is %s, votes require an active review", reviewID, review.Status))
	}

	votes := s.votes[reviewID]
	if votes == nil {
		votes = make(map[string]*domain.Vote)
		s.votes[reviewID] = votes
	}

	now := time.Now()
	existing, hasVote := votes[userID]
	switch {
	case !hasVote:
		votes[userID] = &domain.Vote{
			ReviewID:  reviewID,
			UserID:    userID,
			Direction: direction,
			Source:    source,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if direction == domain.VoteUp {
			review.Upvotes++
		} else {
			review.Downvotes++
		}

	case existing.Direction == direction:
		// Idempotent retry.

	default:
		existing.Direction = direction
		existing.Source = source
		existing.UpdatedAt = now
		if direction == domain.VoteUp {
			review.Upvotes++
			review.Downvotes--
		} else {
			review.Upvotes--
			review.Downvotes++
		}
	}

	return review.Upvotes, review.Downvotes, nil
}

// Retract removes the user's vote; a missing vote is a no-op.
func (s *Store) Retract(_ context.Context, reviewID, userID string) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	review, ok := s.reviews[reviewID]
	if !ok {
		return 0, 0, apperrors.ErrNotFound
	}
	if review.Status != domain.StatusActive {
		return 0, 0, apperrors.InvalidStateTransition(
			fmt.Sprintf("review %s is %s, votes require an active review", reviewID, review.Status))
	}

	if vote, hasVote := s.votes[reviewID][userID]; hasVote {
		if vote.Direction == domain.VoteUp {
			review.Upvotes--
		} else {
			review.Downvotes--
		}
		delete(s.votes[reviewID], userID)
	}
	return review.Upvotes, review.Downvotes, nil
}

// Get returns the user's current vote, or nil if none exists.
func (s *Store) Get(_ context.Context, reviewID, userID string) (*domain.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vote, ok := s.votes[reviewID][userID]
	if !ok {
		return nil, nil
	}
	c := *vote
	return &c, nil
}

// ---------------------------------------------------------------------------
// ReportRepository
// ---------------------------------------------------------------------------

// File records a report and detects threshold transitions.
func (s *Store) File(_ context.Context, report *domain.Report) (*domain.FileReportOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	review, ok := s.reviews[report.ReviewID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if review.Status != domain.StatusActive && review.Status != domain.StatusHidden {
		return nil, apperrors.InvalidStateTransition(
			fmt.Sprintf("review %s is %s and cannot be reported", report.ReviewID, review.Status))
	}
	if review.UserID == report.ReporterID {
		return nil, apperrors.SelfReport(report.ReviewID)
	}
	for _, existing := range s.reports[report.ReviewID] {
		if existing.ReporterID == report.ReporterID && existing.Status == domain.ReportStatusPending {
			return nil, apperrors.AlreadyReported(report.ReviewID)
		}
	}

	now := time.Now()
	stored := *report
	stored.Status = domain.ReportStatusPending
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.reports[report.ReviewID] = append(s.reports[report.ReviewID], &stored)
	review.ReportCount++

	totalPending, spamPending := 0, 0
	for _, rep := range s.reports[report.ReviewID] {
		if rep.Status != domain.ReportStatusPending {
			continue
		}
		totalPending++
		if rep.Reason == domain.ReportReasonSpam {
			spamPending++
		}
	}

	outcome := &domain.FileReportOutcome{
		Report:       &stored,
		TotalPending: totalPending,
		SpamPending:  spamPending,
	}

	if review.Status == domain.StatusActive && totalPending >= domain.AutoHideReportThreshold {
		review.Status = domain.StatusHidden
		review.HiddenAt = &now
		review.UpdatedAt = now
		outcome.AutoHidden = true
	}
	if report.Reason == domain.ReportReasonSpam && spamPending == domain.SpamEscalationThreshold {
		outcome.SpamEscalated = true
	}

	report.Status = domain.ReportStatusPending
	return outcome, nil
}

// ListByReview returns all reports against a review, newest first.
func (s *Store) ListByReview(_ context.Context, reviewID string) ([]*domain.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reports := make([]*domain.Report, 0, len(s.reports[reviewID]))
	for _, rep := range s.reports[reviewID] {
		c := *rep
		reports = append(reports, &c)
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].CreatedAt.After(reports[j].CreatedAt) })
	return reports, nil
}

// CountByReporterSince returns how many reports a reporter filed since the
// given time.
func (s *Store) CountByReporterSince(_ context.Context, reporterID string, since time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, reports := range s.reports {
		for _, rep := range reports {
			if rep.ReporterID == reporterID && !rep.CreatedAt.Before(since) {
				count++
			}
		}
	}
	return count, nil
}

// ---------------------------------------------------------------------------
// CompanyRepository
// ---------------------------------------------------------------------------

// UpsertSummary stores a freshly computed summary.
func (s *Store) UpsertSummary(_ context.Context, summary *domain.RatingSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *summary
	s.summaries[summary.CompanyID] = &c
	return nil
}

// GetSummary retrieves the stored summary for a company.
func (s *Store) GetSummary(_ context.Context, companyID string) (*domain.RatingSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary, ok := s.summaries[companyID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := *summary
	return &c, nil
}

// ---------------------------------------------------------------------------
// ReporterActivity
// ---------------------------------------------------------------------------

// RecordReport registers one report and returns the rolling-window count.
func (s *Store) RecordReport(_ context.Context, reporterID string, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := at.Add(-domain.ExcessiveReportWindow)
	kept := s.activity[reporterID][:0]
	for _, ts := range s.activity[reporterID] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	kept = append(kept, at)
	s.activity[reporterID] = kept
	return len(kept), nil
}
