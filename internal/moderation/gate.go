package moderation

import (
	"context"
	"log/slog"

	"github.com/veriwork/trustengine/internal/domain"
)

// Decision is the gate's verdict on a submitted or edited review.
type Decision struct {
	Status        string
	ToxicityScore float64
	Notes         []string
}

// Gate applies visibility policy to classifier results. The classifier
// itself is a black box; the gate only decides what its output means for a
// review's initial state.
type Gate struct {
	classifier Classifier
	logger     *slog.Logger
}

// NewGate creates a moderation gate.
func NewGate(classifier Classifier, logger *slog.Logger) *Gate {
	return &Gate{classifier: classifier, logger: logger}
}

// Evaluate classifies the text and maps the result to a visibility state:
// rejection -> rejected, approval with toxicity above the review threshold
// -> pending_moderation, clean approval -> active. A classifier failure is
// never surfaced to the caller; the review is parked as pending_moderation
// and the error is logged. The fail-safe never resolves to active.
func (g *Gate) Evaluate(ctx context.Context, text, language string) Decision {
	result, err := g.classifier.Classify(ctx, text, language)
	if err != nil {
		g.logger.WarnContext(ctx, "classifier unavailable, parking review for human moderation",
			slog.String("error", err.Error()),
		)
		return Decision{
			Status: domain.StatusPendingModeration,
			Notes:  []string{"classifier_unavailable"},
		}
	}

	if !result.Approved {
		return Decision{
			Status:        domain.StatusRejected,
			ToxicityScore: result.ToxicityScore,
			Notes:         result.Reasons,
		}
	}

	if result.ToxicityScore > domain.ToxicityReviewThreshold {
		return Decision{
			Status:        domain.StatusPendingModeration,
			ToxicityScore: result.ToxicityScore,
			Notes:         append([]string{"toxicity_above_threshold"}, result.Reasons...),
		}
	}

	return Decision{
		Status:        domain.StatusActive,
		ToxicityScore: result.ToxicityScore,
	}
}
