package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/veriwork/trustengine/internal/domain"
	"github.com/veriwork/trustengine/pkg/database"
	apperrors "github.com/veriwork/trustengine/pkg/errors"
)

// VoteRepository implements the vote ledger on PostgreSQL. Every mutation
// locks the review row first, so two concurrent votes on one review
// serialize and the counters always equal the ledger.
type VoteRepository struct {
	pool database.DBTX
}

// NewVoteRepository creates a PostgreSQL-backed vote repository.
func NewVoteRepository(pool database.DBTX) *VoteRepository {
	return &VoteRepository{pool: pool}
}

// Cast records or updates the user's vote and syncs the review counters in
// the same transaction. Repeat votes in the same direction are no-ops;
// direction flips decrement the old counter and increment the new one.
func (r *VoteRepository) Cast(ctx context.Context, reviewID, userID, direction, source string) (int, int, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return 0, 0, fmt.Errorf("begin vote transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var status string
	var upvotes, downvotes int
	lockQuery := `SELECT status, upvotes, downvotes FROM reviews WHERE id = $1 FOR UPDATE`
	if err := tx.QueryRow(ctx, lockQuery, reviewID).Scan(&status, &upvotes, &downvotes); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, apperrors.ErrNotFound
		}
		return 0, 0, fmt.Errorf("lock review for vote: %w", mapConcurrencyError(err))
	}
	if status != domain.StatusActive {
		return 0, 0, apperrors.InvalidStateTransition(
			fmt.Sprintf("review %s is %s, votes require an active review", reviewID, status))
	}

	var existing string
	err = tx.QueryRow(ctx,
		`SELECT direction FROM review_votes WHERE review_id = $1 AND user_id = $2`,
		reviewID, userID,
	).Scan(&existing)

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// First vote from this user.
		_, err = tx.Exec(ctx,
			`INSERT INTO review_votes (review_id, user_id, direction, source, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, NOW(), NOW())`,
			reviewID, userID, direction, source,
		)
		if err != nil {
			return 0, 0, fmt.Errorf("insert vote: %w", mapConcurrencyError(err))
		}
		if direction == domain.VoteUp {
			upvotes++
		} else {
			downvotes++
		}

	case err != nil:
		return 0, 0, fmt.Errorf("get existing vote: %w", mapConcurrencyError(err))

	case existing == direction:
		// Idempotent retry: nothing to do.
		if err := tx.Commit(ctx); err != nil {
			return 0, 0, fmt.Errorf("commit vote transaction: %w", mapConcurrencyError(err))
		}
		return upvotes, downvotes, nil

	default:
		// Direction flip: overwrite in place, move one count across.
		_, err = tx.Exec(ctx,
			`UPDATE review_votes SET direction = $1, source = $2, updated_at = NOW()
			 WHERE review_id = $3 AND user_id = $4`,
			direction, source, reviewID, userID,
		)
		if err != nil {
			return 0, 0, fmt.Errorf("flip vote: %w", mapConcurrencyError(err))
		}
		if direction == domain.VoteUp {
			upvotes++
			downvotes--
		} else {
			upvotes--
			downvotes++
		}
	}

	if err := r.syncCounters(ctx, tx, reviewID, upvotes, downvotes); err != nil {
		return 0, 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("commit vote transaction: %w", mapConcurrencyError(err))
	}
	return upvotes, downvotes, nil
}

// Retract removes the user's vote and decrements the matching counter.
// A missing vote is a no-op returning the current tallies.
func (r *VoteRepository) Retract(ctx context.Context, reviewID, userID string) (int, int, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return 0, 0, fmt.Errorf("begin retract transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var status string
	var upvotes, downvotes int
	lockQuery := `SELECT status, upvotes, downvotes FROM reviews WHERE id = $1 FOR UPDATE`
	if err := tx.QueryRow(ctx, lockQuery, reviewID).Scan(&status, &upvotes, &downvotes); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, apperrors.ErrNotFound
		}
		return 0, 0, fmt.Errorf("lock review for retract: %w", mapConcurrencyError(err))
	}
	if status != domain.StatusActive {
		return 0, 0, apperrors.InvalidStateTransition(
			fmt.Sprintf("review %s is %s, votes require an active review", reviewID, status))
	}

	var existing string
	err = tx.QueryRow(ctx,
		`DELETE FROM review_votes WHERE review_id = $1 AND user_id = $2 RETURNING direction`,
		reviewID, userID,
	).Scan(&existing)
	if errors.Is(err, pgx.ErrNoRows) {
		if err := tx.Commit(ctx); err != nil {
			return 0, 0, fmt.Errorf("commit retract transaction: %w", mapConcurrencyError(err))
		}
		return upvotes, downvotes, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("delete vote: %w", mapConcurrencyError(err))
	}

	if existing == domain.VoteUp {
		upvotes--
	} else {
		downvotes--
	}

	if err := r.syncCounters(ctx, tx, reviewID, upvotes, downvotes); err != nil {
		return 0, 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("commit retract transaction: %w", mapConcurrencyError(err))
	}
	return upvotes, downvotes, nil
}

// Get returns the user's current vote, or nil if none exists.
func (r *VoteRepository) Get(ctx context.Context, reviewID, userID string) (*domain.Vote, error) {
	query := `
		SELECT review_id, user_id, direction, source, created_at, updated_at
		FROM review_votes
		WHERE review_id = $1 AND user_id = $2`

	var v domain.Vote
	err := r.pool.QueryRow(ctx, query, reviewID, userID).Scan(
		&v.ReviewID,
		&v.UserID,
		&v.Direction,
		&v.Source,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get vote: %w", err)
	}
	return &v, nil
}

func (r *VoteRepository) syncCounters(ctx context.Context, tx pgx.Tx, reviewID string, upvotes, downvotes int) error {
	_, err := tx.Exec(ctx,
		`UPDATE reviews SET upvotes = $1, downvotes = $2, updated_at = NOW() WHERE id = $3`,
		upvotes, downvotes, reviewID,
	)
	if err != nil {
		return fmt.Errorf("sync vote counters: %w", mapConcurrencyError(err))
	}
	return nil
}
