package domain

import (
	"math"
	"time"
)

// Review visibility states.
const (
	StatusPendingModeration = "pending_moderation"
	StatusActive            = "active"
	StatusHidden            = "hidden"
	StatusRejected          = "rejected"
)

// Review categories.
const (
	CategoryWorkEnvironment = "work_environment"
	CategorySalary          = "salary"
	CategoryManagement      = "management"
	CategoryCareerGrowth    = "career_growth"
	CategoryWorkLifeBalance = "work_life_balance"
	CategoryBenefits        = "benefits"
)

// Review is one user's rating of one company for one category. The
// (CompanyID, UserID, Category) triple is immutable after creation.
type Review struct {
	ID              string     `json:"id"`
	CompanyID       string     `json:"company_id"`
	UserID          string     `json:"user_id"`
	Category        string     `json:"category"`
	Rating          float64    `json:"rating"`
	Body            string     `json:"body"`
	DocumentRef     string     `json:"document_ref,omitempty"`
	IsVerified      bool       `json:"is_verified"`
	Status          string     `json:"status"`
	Upvotes         int        `json:"upvotes"`
	Downvotes       int        `json:"downvotes"`
	ReportCount     int        `json:"report_count"`
	EditCount       int        `json:"edit_count"`
	ToxicityScore   float64    `json:"toxicity_score"`
	ModerationNotes []string   `json:"moderation_notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	HiddenAt        *time.Time `json:"hidden_at,omitempty"`
}

// ValidStatuses returns all valid review visibility states.
func ValidStatuses() []string {
	return []string{
		StatusPendingModeration,
		StatusActive,
		StatusHidden,
		StatusRejected,
	}
}

// IsValidStatus checks if a status string is valid.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// ValidCategories returns all valid review categories.
func ValidCategories() []string {
	return []string{
		CategoryWorkEnvironment,
		CategorySalary,
		CategoryManagement,
		CategoryCareerGrowth,
		CategoryWorkLifeBalance,
		CategoryBenefits,
	}
}

// IsValidCategory checks if a category string is valid.
func IsValidCategory(category string) bool {
	for _, c := range ValidCategories() {
		if c == category {
			return true
		}
	}
	return false
}

// AllowedTransitions defines which visibility transitions are valid.
// Hidden and Rejected reviews return to Active only through an explicit
// admin action; the engine never resurrects them on its own. Active reviews
// may re-enter moderation (or be rejected) when an edit is re-classified.
func AllowedTransitions() map[string][]string {
	return map[string][]string{
		StatusPendingModeration: {StatusActive, StatusRejected},
		StatusActive:            {StatusHidden, StatusPendingModeration, StatusRejected},
		StatusHidden:            {StatusActive},
		StatusRejected:          {StatusActive},
	}
}

// CanTransitionTo checks if the review can move to the target status.
func (r *Review) CanTransitionTo(target string) bool {
	allowed, ok := AllowedTransitions()[r.Status]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

// IsActive reports whether the review counts toward company aggregates.
func (r *Review) IsActive() bool {
	return r.Status == StatusActive
}

// CanEdit reports whether the review may still be edited at the given time.
// Edits require Active status, fewer than MaxEdits prior edits, and must
// fall within EditWindow of creation.
func (r *Review) CanEdit(now time.Time) bool {
	if r.Status != StatusActive {
		return false
	}
	if r.EditCount >= MaxEdits {
		return false
	}
	return now.Sub(r.CreatedAt) < EditWindow
}

// IsValidRating checks that a rating is between 1.0 and 5.0 in 0.5 steps.
func IsValidRating(rating float64) bool {
	if rating < 1.0 || rating > 5.0 {
		return false
	}
	scaled := rating * 2
	return scaled == math.Trunc(scaled)
}

// Review body length bounds in characters.
const (
	MinBodyLength = 50
	MaxBodyLength = 2000
)

// IsValidBody checks the review body length against the allowed range.
// Length is measured in runes so multi-byte text is not penalized.
func IsValidBody(body string) bool {
	n := len([]rune(body))
	return n >= MinBodyLength && n <= MaxBodyLength
}
