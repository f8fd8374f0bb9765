package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/veriwork/trustengine/internal/domain"
	"github.com/veriwork/trustengine/internal/repository"
	apperrors "github.com/veriwork/trustengine/pkg/errors"
)

// VoteService exposes the vote ledger. Tallies returned to callers come
// from the same transaction that moved them, so a reader never observes a
// half-applied flip.
type VoteService struct {
	voteRepo repository.VoteRepository
	logger   *slog.Logger
}

// NewVoteService creates a vote service.
func NewVoteService(voteRepo repository.VoteRepository, logger *slog.Logger) *VoteService {
	return &VoteService{voteRepo: voteRepo, logger: logger}
}

// Cast records the user's vote on a review. Repeats in the same direction
// are idempotent; opposite-direction votes flip in place without double
// counting.
func (s *VoteService) Cast(ctx context.Context, reviewID, userID, direction, source string) (int, int, error) {
	if !domain.IsValidDirection(direction) {
		return 0, 0, apperrors.InvalidInput(fmt.Sprintf("unknown vote direction %q", direction))
	}
	if source == "" {
		source = domain.VoteSourceAPI
	}
	if !domain.IsValidVoteSource(source) {
		return 0, 0, apperrors.InvalidInput(fmt.Sprintf("unknown vote source %q", source))
	}

	var upvotes, downvotes int
	err := withRetry(ctx, func(ctx context.Context) error {
		var err error
		upvotes, downvotes, err = s.voteRepo.Cast(ctx, reviewID, userID, direction, source)
		return err
	})
	if err != nil {
		return 0, 0, err
	}

	s.logger.InfoContext(ctx, "vote cast",
		slog.String("review_id", reviewID),
		slog.String("direction", direction),
		slog.Int("upvotes", upvotes),
		slog.Int("downvotes", downvotes),
	)
	return upvotes, downvotes, nil
}

// Retract removes the user's vote; retracting a vote that does not exist
// is a no-op.
func (s *VoteService) Retract(ctx context.Context, reviewID, userID string) (int, int, error) {
	var upvotes, downvotes int
	err := withRetry(ctx, func(ctx context.Context) error {
		var err error
		upvotes, downvotes, err = s.voteRepo.Retract(ctx, reviewID, userID)
		return err
	})
	if err != nil {
		return 0, 0, err
	}

	s.logger.InfoContext(ctx, "vote retracted",
		slog.String("review_id", reviewID),
		slog.Int("upvotes", upvotes),
		slog.Int("downvotes", downvotes),
	)
	return upvotes, downvotes, nil
}

// GetUserVote returns the user's current vote on a review, or nil if none.
func (s *VoteService) GetUserVote(ctx context.Context, reviewID, userID string) (*domain.Vote, error) {
	return s.voteRepo.Get(ctx, reviewID, userID)
}
