package domain

import "time"

// Policy constants for moderation, reporting, and scoring thresholds. These
// are tunable knobs, not hard-wired business meaning; services read them from
// here so a threshold change never touches decision logic.
const (
	// AutoHideReportThreshold is the pending-report count at which a review
	// is hidden without human intervention.
	AutoHideReportThreshold = 5

	// SpamEscalationThreshold is the count of pending spam reports on one
	// review that triggers automated re-classification.
	SpamEscalationThreshold = 3

	// ExcessiveReportThreshold is the number of reports one reporter may
	// file inside ExcessiveReportWindow before an abuse-pattern audit fact
	// is emitted about them.
	ExcessiveReportThreshold = 10
	ExcessiveReportWindow    = 24 * time.Hour

	// ToxicityReviewThreshold is the classifier toxicity score above which
	// an otherwise approved review is parked for human review.
	ToxicityReviewThreshold = 0.7

	// ClassifierTimeout bounds the moderation classification call.
	ClassifierTimeout = 5 * time.Second

	// MaxEdits and EditWindow cap how often and for how long after creation
	// a review may be edited.
	MaxEdits   = 3
	EditWindow = 24 * time.Hour

	// VerifiedHelpfulnessBonus is the additive helpfulness bonus for
	// reviews backed by a verification document.
	VerifiedHelpfulnessBonus = 5.0
)

// Quality score blend weights. Each input is clamped to [0,100] before
// blending; the weights sum to 1.
const (
	QualityWeightLength      = 0.2
	QualityWeightDetail      = 0.3
	QualityWeightObjectivity = 0.3
	QualityWeightHelpfulness = 0.2
)

// Credibility blend weights (see scoring package for the formula).
const (
	CredibilityWeightVerified    = 0.4
	CredibilityWeightReviewCount = 0.3
	CredibilityWeightBaseline    = 0.3
)

// ConcurrencyRetryAttempts bounds internal retries on per-key
// optimistic-lock conflicts before the error is surfaced to the caller.
const ConcurrencyRetryAttempts = 3
