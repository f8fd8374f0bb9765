// Package scoring holds the pure score computations for reviews. Nothing
// here performs I/O or keeps state; services call these whenever a score
// input changes.
package scoring

import (
	"math"
	"strings"

	"github.com/veriwork/trustengine/internal/domain"
)

// Helpfulness scores community-perceived usefulness from vote tallies.
// The score is monotonic in upvotes, anti-monotonic in downvotes, and
// verified reviews receive a fixed additive bonus.
func Helpfulness(upvotes, downvotes int, isVerified bool) float64 {
	score := float64(upvotes - downvotes)
	if isVerified {
		score += domain.VerifiedHelpfulnessBonus
	}
	return score
}

// Credibility blends author verification, review history depth, and a fixed
// baseline into a [0,100] score. The review-count component saturates at 20
// authored reviews; extreme author averages do not reduce the score. Weights
// are policy constants (0.4 verified, 0.3 history, 0.3 baseline).
func Credibility(profile domain.AuthorProfile) float64 {
	verified := 0.0
	if profile.IsVerifiedAuthor {
		verified = 100.0
	}

	history := float64(profile.AuthorReviewCount) / 20.0 * 100.0
	if history > 100 {
		history = 100
	}

	score := domain.CredibilityWeightVerified*verified +
		domain.CredibilityWeightReviewCount*history +
		domain.CredibilityWeightBaseline*50.0

	return clamp(score)
}

// Quality blends the content sub-scores and helpfulness into a [0,100]
// score using the 0.2/0.3/0.3/0.2 weights. Each input is clamped to
// [0,100] before blending.
func Quality(lengthScore, detailScore, objectivityScore, helpfulnessScore float64) float64 {
	return domain.QualityWeightLength*clamp(lengthScore) +
		domain.QualityWeightDetail*clamp(detailScore) +
		domain.QualityWeightObjectivity*clamp(objectivityScore) +
		domain.QualityWeightHelpfulness*clamp(helpfulnessScore)
}

// QualityLevel maps a quality score to its label.
func QualityLevel(quality float64) string {
	switch {
	case quality >= 80:
		return domain.QualityExcellent
	case quality >= 60:
		return domain.QualityGood
	case quality >= 40:
		return domain.QualityFair
	case quality >= 20:
		return domain.QualityPoor
	default:
		return domain.QualityVeryPoor
	}
}

// LengthScore scores review body length. Scores rise linearly from the
// minimum accepted length up to 500 runes, then hold at 100.
func LengthScore(body string) float64 {
	n := len([]rune(body))
	if n <= domain.MinBodyLength {
		return 0
	}
	const fullAt = 500
	if n >= fullAt {
		return 100
	}
	return float64(n-domain.MinBodyLength) / float64(fullAt-domain.MinBodyLength) * 100
}

// DetailScore approximates how substantive a body is from its sentence and
// distinct-word structure.
func DetailScore(body string) float64 {
	words := strings.Fields(body)
	if len(words) == 0 {
		return 0
	}

	distinct := map[string]struct{}{}
	for _, w := range words {
		distinct[strings.ToLower(strings.Trim(w, ".,!?;:"))] = struct{}{}
	}

	sentences := 0
	for _, r := range body {
		if r == '.' || r == '!' || r == '?' {
			sentences++
		}
	}

	// Half the score from vocabulary breadth, half from sentence count;
	// each half saturates.
	vocab := float64(len(distinct)) / 60.0 * 50.0
	if vocab > 50 {
		vocab = 50
	}
	structure := float64(sentences) / 5.0 * 50.0
	if structure > 50 {
		structure = 50
	}
	return vocab + structure
}

// ObjectivityScore penalizes shouting and heavy punctuation as proxies for
// emotionally charged text.
func ObjectivityScore(body string) float64 {
	if body == "" {
		return 0
	}

	letters, uppers, exclaims := 0, 0, 0
	for _, r := range body {
		switch {
		case r >= 'A' && r <= 'Z':
			letters++
			uppers++
		case r >= 'a' && r <= 'z':
			letters++
		case r == '!':
			exclaims++
		}
	}

	score := 100.0
	if letters > 0 {
		upperRatio := float64(uppers) / float64(letters)
		if upperRatio > 0.3 {
			score -= (upperRatio - 0.3) * 200
		}
	}
	score -= float64(exclaims) * 5
	return clamp(score)
}

func clamp(v float64) float64 {
	return math.Min(100, math.Max(0, v))
}
