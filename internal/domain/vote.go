package domain

import "time"

// Vote directions.
const (
	VoteUp   = "up"
	VoteDown = "down"
)

// Vote source channels.
const (
	VoteSourceWeb    = "web"
	VoteSourceMobile = "mobile"
	VoteSourceAPI    = "api"
)

// Vote is one user's stance on one review. At most one vote exists per
// (ReviewID, UserID) pair; changing direction overwrites in place.
type Vote struct {
	ReviewID  string    `json:"review_id"`
	UserID    string    `json:"user_id"`
	Direction string    `json:"direction"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsValidDirection checks a vote direction string.
func IsValidDirection(direction string) bool {
	return direction == VoteUp || direction == VoteDown
}

// IsValidVoteSource checks a vote source channel string.
func IsValidVoteSource(source string) bool {
	switch source {
	case VoteSourceWeb, VoteSourceMobile, VoteSourceAPI:
		return true
	}
	return false
}
