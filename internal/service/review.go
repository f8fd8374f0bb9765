package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/veriwork/trustengine/internal/domain"
	"github.com/veriwork/trustengine/internal/identity"
	"github.com/veriwork/trustengine/internal/moderation"
	"github.com/veriwork/trustengine/internal/repository"
	"github.com/veriwork/trustengine/internal/scoring"
	apperrors "github.com/veriwork/trustengine/pkg/errors"
)

// ReviewService orchestrates the review lifecycle: submission through the
// moderation gate, edits with re-classification, admin visibility changes,
// and score reads.
type ReviewService struct {
	reviewRepo repository.ReviewRepository
	gate       *moderation.Gate
	authors    identity.AuthorLookup
	aggregator Recomputer
	notifier   Notifier
	logger     *slog.Logger
}

// NewReviewService creates a review lifecycle service.
func NewReviewService(
	reviewRepo repository.ReviewRepository,
	gate *moderation.Gate,
	authors identity.AuthorLookup,
	aggregator Recomputer,
	notifier Notifier,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviewRepo: reviewRepo,
		gate:       gate,
		authors:    authors,
		aggregator: aggregator,
		notifier:   notifier,
		logger:     logger,
	}
}

// SubmitReviewInput holds the parameters for submitting a review.
type SubmitReviewInput struct {
	CompanyID   string  `json:"company_id" validate:"required,uuid"`
	UserID      string  `json:"user_id" validate:"required,uuid"`
	Category    string  `json:"category" validate:"required"`
	Rating      float64 `json:"rating" validate:"required"`
	Body        string  `json:"body" validate:"required"`
	DocumentRef string  `json:"document_ref,omitempty"`
	Language    string  `json:"language,omitempty"`
}

func validateReviewContent(rating float64, body, category string) error {
	if !domain.IsValidRating(rating) {
		return apperrors.InvalidInput("rating must be between 1.0 and 5.0 in 0.5 steps")
	}
	if !domain.IsValidBody(body) {
		return apperrors.InvalidInput(fmt.Sprintf(
			"review body must be between %d and %d characters", domain.MinBodyLength, domain.MaxBodyLength))
	}
	if !domain.IsValidCategory(category) {
		return apperrors.InvalidInput(fmt.Sprintf("unknown review category %q", category))
	}
	return nil
}

// Submit runs a new review through the moderation gate and persists it with
// the resulting visibility. Only a clean classification makes it active; a
// classifier failure parks it for human review. Active reviews immediately
// count toward the company aggregate.
func (s *ReviewService) Submit(ctx context.Context, input SubmitReviewInput) (*domain.Review, error) {
	if err := validateReviewContent(input.Rating, input.Body, input.Category); err != nil {
		return nil, err
	}

	language := input.Language
	if language == "" {
		language = "en"
	}
	decision := s.gate.Evaluate(ctx, input.Body, language)

	now := time.Now().UTC()
	review := &domain.Review{
		ID:              uuid.New().String(),
		CompanyID:       input.CompanyID,
		UserID:          input.UserID,
		Category:        input.Category,
		Rating:          input.Rating,
		Body:            input.Body,
		DocumentRef:     input.DocumentRef,
		IsVerified:      input.DocumentRef != "",
		Status:          decision.Status,
		ToxicityScore:   decision.ToxicityScore,
		ModerationNotes: decision.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	if review.IsActive() {
		if err := s.aggregator.Recompute(ctx, review.CompanyID); err != nil {
			s.logger.ErrorContext(ctx, "failed to recompute company rating after submission",
				slog.String("company_id", review.CompanyID),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := s.notifier.ReviewCreated(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.created event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review submitted",
		slog.String("review_id", review.ID),
		slog.String("company_id", review.CompanyID),
		slog.String("status", review.Status),
	)
	return review, nil
}

// EditReviewInput holds the parameters for editing a review.
type EditReviewInput struct {
	ReviewID string  `json:"-"`
	UserID   string  `json:"user_id" validate:"required,uuid"`
	Rating   float64 `json:"rating" validate:"required"`
	Body     string  `json:"body" validate:"required"`
	Language string  `json:"language,omitempty"`
}

// Edit applies an edit to an active review. Edits are only allowed by the
// author, while active, within the edit window, and up to the edit cap.
// The edited text re-enters the moderation gate under the same policy as a
// fresh submission, so an edit can demote an active review to
// pending_moderation or rejected. A concurrent edit retries on fresh state.
func (s *ReviewService) Edit(ctx context.Context, input EditReviewInput) (*domain.Review, error) {
	var edited *domain.Review

	err := withRetry(ctx, func(ctx context.Context) error {
		review, err := s.reviewRepo.GetByID(ctx, input.ReviewID)
		if err != nil {
			return err
		}
		if review.UserID != input.UserID {
			return apperrors.InvalidStateTransition("only the review author can edit it")
		}
		if !review.CanEdit(time.Now()) {
			return apperrors.InvalidStateTransition(
				fmt.Sprintf("review %s can no longer be edited", review.ID))
		}
		if err := validateReviewContent(input.Rating, input.Body, review.Category); err != nil {
			return err
		}

		language := input.Language
		if language == "" {
			language = "en"
		}
		decision := s.gate.Evaluate(ctx, input.Body, language)

		oldStatus := review.Status
		oldRating := review.Rating

		review.Rating = input.Rating
		review.Body = input.Body
		review.Status = decision.Status
		review.ToxicityScore = decision.ToxicityScore
		review.ModerationNotes = decision.Notes

		if err := s.reviewRepo.Update(ctx, review, review.EditCount); err != nil {
			return err
		}
		review.EditCount++

		if review.Status != oldStatus || review.Rating != oldRating {
			if err := s.aggregator.Recompute(ctx, review.CompanyID); err != nil {
				s.logger.ErrorContext(ctx, "failed to recompute company rating after edit",
					slog.String("company_id", review.CompanyID),
					slog.String("error", err.Error()),
				)
			}
		}
		if review.Status != oldStatus {
			if err := s.notifier.ReviewStatusChanged(ctx, review, oldStatus, "edit_reclassified"); err != nil {
				s.logger.ErrorContext(ctx, "failed to publish review.status_changed event",
					slog.String("review_id", review.ID),
					slog.String("error", err.Error()),
				)
			}
		}

		edited = review
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "review edited",
		slog.String("review_id", edited.ID),
		slog.Int("edit_count", edited.EditCount),
		slog.String("status", edited.Status),
	)
	return edited, nil
}

// AdminSetVisibility applies an explicit admin visibility change: approving
// or rejecting a pending review, hiding an active one, or reactivating a
// hidden or rejected one. This is the only path that brings a review back
// to active.
func (s *ReviewService) AdminSetVisibility(ctx context.Context, reviewID, newStatus, reason string) (*domain.Review, error) {
	if !domain.IsValidStatus(newStatus) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown visibility state %q", newStatus))
	}

	before, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	oldStatus := before.Status

	review, err := s.reviewRepo.SetStatus(ctx, reviewID, newStatus)
	if err != nil {
		return nil, err
	}

	if oldStatus != review.Status {
		// Membership in the active set changed in either direction.
		if oldStatus == domain.StatusActive || review.Status == domain.StatusActive {
			if err := s.aggregator.Recompute(ctx, review.CompanyID); err != nil {
				s.logger.ErrorContext(ctx, "failed to recompute company rating after visibility change",
					slog.String("company_id", review.CompanyID),
					slog.String("error", err.Error()),
				)
			}
		}
		if err := s.notifier.ReviewStatusChanged(ctx, review, oldStatus, reason); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish review.status_changed event",
				slog.String("review_id", review.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "review visibility changed by admin",
		slog.String("review_id", review.ID),
		slog.String("old_status", oldStatus),
		slog.String("new_status", review.Status),
		slog.String("reason", reason),
	)
	return review, nil
}

// GetByID returns a review.
func (s *ReviewService) GetByID(ctx context.Context, reviewID string) (*domain.Review, error) {
	return s.reviewRepo.GetByID(ctx, reviewID)
}

// GetScores computes the current score snapshot for a review from its vote
// tallies, its content, and the author's profile. Scores are derived on
// read, so they are never stale relative to the counters.
func (s *ReviewService) GetScores(ctx context.Context, reviewID string) (*domain.ScoreSnapshot, error) {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	profile, err := s.authors.AuthorProfile(ctx, review.UserID)
	if err != nil {
		return nil, fmt.Errorf("lookup author profile: %w", err)
	}

	helpfulness := scoring.Helpfulness(review.Upvotes, review.Downvotes, review.IsVerified)
	quality := scoring.Quality(
		scoring.LengthScore(review.Body),
		scoring.DetailScore(review.Body),
		scoring.ObjectivityScore(review.Body),
		helpfulness,
	)

	return &domain.ScoreSnapshot{
		ReviewID:     review.ID,
		Helpfulness:  helpfulness,
		Credibility:  scoring.Credibility(profile),
		Quality:      quality,
		QualityLevel: scoring.QualityLevel(quality),
		ComputedAt:   time.Now().UTC(),
	}, nil
}
