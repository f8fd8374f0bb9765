package domain

import "time"

// Report reason codes.
const (
	ReportReasonSpam          = "spam"
	ReportReasonFalseInfo     = "false_info"
	ReportReasonHarassment    = "harassment"
	ReportReasonInappropriate = "inappropriate"
	ReportReasonConflict      = "conflict_of_interest"
	ReportReasonOther         = "other"
)

// Report statuses. Status changes past Pending come from admin actions or
// automatic dismissal when the review is removed.
const (
	ReportStatusPending     = "pending"
	ReportStatusReviewed    = "reviewed"
	ReportStatusActionTaken = "action_taken"
	ReportStatusDismissed   = "dismissed"
)

// Report is one user's complaint against one review. A user holds at most
// one pending report per review.
type Report struct {
	ID         string    `json:"id"`
	ReviewID   string    `json:"review_id"`
	ReporterID string    `json:"reporter_id"`
	Reason     string    `json:"reason"`
	Detail     string    `json:"detail,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ValidReportReasons returns all valid report reason codes.
func ValidReportReasons() []string {
	return []string{
		ReportReasonSpam,
		ReportReasonFalseInfo,
		ReportReasonHarassment,
		ReportReasonInappropriate,
		ReportReasonConflict,
		ReportReasonOther,
	}
}

// IsValidReportReason checks a report reason code.
func IsValidReportReason(reason string) bool {
	for _, r := range ValidReportReasons() {
		if r == reason {
			return true
		}
	}
	return false
}

// FileReportOutcome summarizes the state observed inside the transaction
// that recorded a report. The counts are pending-report tallies after the
// insert; the booleans mark threshold transitions that fired on this exact
// report, never on a retry or a later one.
type FileReportOutcome struct {
	Report        *Report
	TotalPending  int
	SpamPending   int
	AutoHidden    bool
	SpamEscalated bool
}
