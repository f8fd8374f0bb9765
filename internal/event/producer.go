package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/veriwork/trustengine/internal/domain"
	pkgkafka "github.com/veriwork/trustengine/pkg/kafka"
)

// Kafka topic constants for trust engine domain events.
const (
	TopicReviewCreated       = "trust.review.created"
	TopicReviewStatusChanged = "trust.review.status_changed"
	TopicReviewAutoHidden    = "trust.review.auto_hidden"
	TopicReviewSpamEscalated = "trust.review.spam_escalated"
	TopicReporterFlagged     = "trust.reporter.flagged"
)

// Aggregate type constants.
const (
	AggregateTypeReview   = "review"
	AggregateTypeReporter = "reporter"
)

// Source identifier for events originating from the trust engine.
const SourceTrustEngine = "trust-engine"

// ReviewCreatedData is the payload for a review.created event.
type ReviewCreatedData struct {
	ReviewID  string  `json:"review_id"`
	CompanyID string  `json:"company_id"`
	UserID    string  `json:"user_id"`
	Category  string  `json:"category"`
	Rating    float64 `json:"rating"`
	Status    string  `json:"status"`
}

// ReviewStatusChangedData is the payload for a review.status_changed event.
type ReviewStatusChangedData struct {
	ReviewID  string `json:"review_id"`
	CompanyID string `json:"company_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
	Reason    string `json:"reason,omitempty"`
}

// ReviewAutoHiddenData is the payload for a review.auto_hidden event. The
// notifier consuming this fans it out to the review author and admins.
type ReviewAutoHiddenData struct {
	ReviewID    string `json:"review_id"`
	CompanyID   string `json:"company_id"`
	AuthorID    string `json:"author_id"`
	ReportCount int    `json:"report_count"`
}

// ReviewSpamEscalatedData is the payload for a review.spam_escalated event.
type ReviewSpamEscalatedData struct {
	ReviewID  string `json:"review_id"`
	CompanyID string `json:"company_id"`
	SpamCount int    `json:"spam_count"`
}

// ReporterFlaggedData is the payload for a reporter.flagged audit event.
type ReporterFlaggedData struct {
	ReporterID  string `json:"reporter_id"`
	ReportCount int    `json:"report_count"`
	WindowHours int    `json:"window_hours"`
}

// Producer publishes trust engine domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates an event producer for the trust engine.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// ReviewCreated publishes a review.created event.
func (p *Producer) ReviewCreated(ctx context.Context, review *domain.Review) error {
	data := ReviewCreatedData{
		ReviewID:  review.ID,
		CompanyID: review.CompanyID,
		UserID:    review.UserID,
		Category:  review.Category,
		Rating:    review.Rating,
		Status:    review.Status,
	}

	event, err := pkgkafka.NewEvent(TopicReviewCreated, review.ID, AggregateTypeReview, SourceTrustEngine, data)
	if err != nil {
		return fmt.Errorf("create review.created event: %w", err)
	}
	if err := p.kafka.Publish(ctx, TopicReviewCreated, event); err != nil {
		return fmt.Errorf("publish review.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.created event",
		slog.String("review_id", review.ID),
		slog.String("status", review.Status),
	)
	return nil
}

// ReviewStatusChanged publishes a review.status_changed event.
func (p *Producer) ReviewStatusChanged(ctx context.Context, review *domain.Review, oldStatus, reason string) error {
	data := ReviewStatusChangedData{
		ReviewID:  review.ID,
		CompanyID: review.CompanyID,
		OldStatus: oldStatus,
		NewStatus: review.Status,
		Reason:    reason,
	}

	event, err := pkgkafka.NewEvent(TopicReviewStatusChanged, review.ID, AggregateTypeReview, SourceTrustEngine, data)
	if err != nil {
		return fmt.Errorf("create review.status_changed event: %w", err)
	}
	if err := p.kafka.Publish(ctx, TopicReviewStatusChanged, event); err != nil {
		return fmt.Errorf("publish review.status_changed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.status_changed event",
		slog.String("review_id", review.ID),
		slog.String("old_status", oldStatus),
		slog.String("new_status", review.Status),
	)
	return nil
}

// ReviewAutoHidden publishes a review.auto_hidden event.
func (p *Producer) ReviewAutoHidden(ctx context.Context, review *domain.Review) error {
	data := ReviewAutoHiddenData{
		ReviewID:    review.ID,
		CompanyID:   review.CompanyID,
		AuthorID:    review.UserID,
		ReportCount: review.ReportCount,
	}

	event, err := pkgkafka.NewEvent(TopicReviewAutoHidden, review.ID, AggregateTypeReview, SourceTrustEngine, data)
	if err != nil {
		return fmt.Errorf("create review.auto_hidden event: %w", err)
	}
	if err := p.kafka.Publish(ctx, TopicReviewAutoHidden, event); err != nil {
		return fmt.Errorf("publish review.auto_hidden event: %w", err)
	}

	p.logger.InfoContext(ctx, "published review.auto_hidden event",
		slog.String("review_id", review.ID),
		slog.Int("report_count", review.ReportCount),
	)
	return nil
}

// ReviewSpamEscalated publishes a review.spam_escalated event.
func (p *Producer) ReviewSpamEscalated(ctx context.Context, review *domain.Review, spamCount int) error {
	data := ReviewSpamEscalatedData{
		ReviewID:  review.ID,
		CompanyID: review.CompanyID,
		SpamCount: spamCount,
	}

	event, err := pkgkafka.NewEvent(TopicReviewSpamEscalated, review.ID, AggregateTypeReview, SourceTrustEngine, data)
	if err != nil {
		return fmt.Errorf("create review.spam_escalated event: %w", err)
	}
	if err := p.kafka.Publish(ctx, TopicReviewSpamEscalated, event); err != nil {
		return fmt.Errorf("publish review.spam_escalated event: %w", err)
	}

	p.logger.InfoContext(ctx, "published review.spam_escalated event",
		slog.String("review_id", review.ID),
		slog.Int("spam_count", spamCount),
	)
	return nil
}

// ReporterFlagged publishes a reporter.flagged audit event.
func (p *Producer) ReporterFlagged(ctx context.Context, reporterID string, reportCount int) error {
	data := ReporterFlaggedData{
		ReporterID:  reporterID,
		ReportCount: reportCount,
		WindowHours: int(domain.ExcessiveReportWindow.Hours()),
	}

	event, err := pkgkafka.NewEvent(TopicReporterFlagged, reporterID, AggregateTypeReporter, SourceTrustEngine, data)
	if err != nil {
		return fmt.Errorf("create reporter.flagged event: %w", err)
	}
	if err := p.kafka.Publish(ctx, TopicReporterFlagged, event); err != nil {
		return fmt.Errorf("publish reporter.flagged event: %w", err)
	}

	p.logger.InfoContext(ctx, "published reporter.flagged event",
		slog.String("reporter_id", reporterID),
		slog.Int("report_count", reportCount),
	)
	return nil
}
