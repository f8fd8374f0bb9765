package domain

import "time"

// Quality level labels.
const (
	QualityExcellent = "excellent"
	QualityGood      = "good"
	QualityFair      = "fair"
	QualityPoor      = "poor"
	QualityVeryPoor  = "very_poor"
)

// ScoreSnapshot holds the derived scores for one review at a point in time.
// Quality and Credibility live in [0,100]; Helpfulness is unbounded.
type ScoreSnapshot struct {
	ReviewID     string    `json:"review_id"`
	Helpfulness  float64   `json:"helpfulness"`
	Credibility  float64   `json:"credibility"`
	Quality      float64   `json:"quality"`
	QualityLevel string    `json:"quality_level"`
	ComputedAt   time.Time `json:"computed_at"`
}

// AuthorProfile is the identity-service view of a review author used for
// credibility scoring.
type AuthorProfile struct {
	UserID              string  `json:"user_id"`
	IsVerifiedAuthor    bool    `json:"is_verified_author"`
	AuthorReviewCount   int     `json:"author_review_count"`
	AuthorAverageRating float64 `json:"author_average_rating"`
}
