package domain

import (
	"maps"
	"math"
	"sort"
	"time"
)

// RatingSummary is a company's aggregate over its active reviews. It is
// derived state, recomputed whenever a review enters or leaves the active
// set or changes its rating; it is never edited directly.
type RatingSummary struct {
	CompanyID        string             `json:"company_id"`
	AverageRating    float64            `json:"average_rating"`
	TotalReviews     int                `json:"total_reviews"`
	VerifiedReviews  int                `json:"verified_reviews"`
	VerifiedPercent  float64            `json:"verified_percent"`
	RatingHistogram  map[int]int        `json:"rating_histogram"`
	CategoryAverages map[string]float64 `json:"category_averages"`
	ComputedAt       time.Time          `json:"computed_at"`
}

// SameValues reports whether two summaries carry the same derived values,
// ignoring ComputedAt. A recompute whose values match the stored summary
// keeps the stored timestamp, so repeated recomputes over an unchanged
// review set produce identical summaries.
func (s *RatingSummary) SameValues(other *RatingSummary) bool {
	return s.CompanyID == other.CompanyID &&
		s.AverageRating == other.AverageRating &&
		s.TotalReviews == other.TotalReviews &&
		s.VerifiedReviews == other.VerifiedReviews &&
		s.VerifiedPercent == other.VerifiedPercent &&
		maps.Equal(s.RatingHistogram, other.RatingHistogram) &&
		maps.Equal(s.CategoryAverages, other.CategoryAverages)
}

// round2 rounds to 2 decimal places, half away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeRatingSummary derives a company's rating summary from its active
// reviews. Inactive reviews in the input are ignored. The computation is
// deterministic and order-independent: two calls over the same review set,
// in any order, yield identical output (maps keyed identically, averages
// rounded to 2 decimals). Timestamps are supplied by the caller so replays
// can pin them.
func ComputeRatingSummary(companyID string, reviews []*Review, now time.Time) *RatingSummary {
	summary := &RatingSummary{
		CompanyID:        companyID,
		RatingHistogram:  map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
		CategoryAverages: map[string]float64{},
		ComputedAt:       now,
	}

	var sum float64
	categorySums := map[string]float64{}
	categoryCounts := map[string]int{}

	for _, r := range reviews {
		if !r.IsActive() {
			continue
		}
		summary.TotalReviews++
		sum += r.Rating
		if r.IsVerified {
			summary.VerifiedReviews++
		}

		bucket := int(math.Floor(r.Rating))
		if bucket > 5 {
			bucket = 5
		}
		if bucket < 1 {
			bucket = 1
		}
		summary.RatingHistogram[bucket]++

		categorySums[r.Category] += r.Rating
		categoryCounts[r.Category]++
	}

	if summary.TotalReviews > 0 {
		summary.AverageRating = round2(sum / float64(summary.TotalReviews))
		summary.VerifiedPercent = round2(float64(summary.VerifiedReviews) / float64(summary.TotalReviews) * 100)
	}

	categories := make([]string, 0, len(categorySums))
	for c := range categorySums {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, c := range categories {
		summary.CategoryAverages[c] = round2(categorySums[c] / float64(categoryCounts[c]))
	}

	return summary
}
