package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/veriwork/trustengine/internal/service"
	"github.com/veriwork/trustengine/pkg/httputil"
	"github.com/veriwork/trustengine/pkg/validator"
)

// ReviewHandler handles HTTP requests for review endpoints.
type ReviewHandler struct {
	reviews *service.ReviewService
	votes   *service.VoteService
	reports *service.ReportService
	logger  *slog.Logger
}

// NewReviewHandler creates a review HTTP handler.
func NewReviewHandler(
	reviews *service.ReviewService,
	votes *service.VoteService,
	reports *service.ReportService,
	logger *slog.Logger,
) *ReviewHandler {
	return &ReviewHandler{
		reviews: reviews,
		votes:   votes,
		reports: reports,
		logger:  logger,
	}
}

// --- Request DTOs ---

// SubmitReviewRequest is the JSON request body for submitting a review.
type SubmitReviewRequest struct {
	CompanyID   string  `json:"company_id" validate:"required,uuid"`
	Category    string  `json:"category" validate:"required"`
	Rating      float64 `json:"rating" validate:"required"`
	Body        string  `json:"body" validate:"required"`
	DocumentRef string  `json:"document_ref,omitempty"`
	Language    string  `json:"language,omitempty"`
}

// EditReviewRequest is the JSON request body for editing a review.
type EditReviewRequest struct {
	Rating   float64 `json:"rating" validate:"required"`
	Body     string  `json:"body" validate:"required"`
	Language string  `json:"language,omitempty"`
}

// CastVoteRequest is the JSON request body for casting a vote.
type CastVoteRequest struct {
	Direction string `json:"direction" validate:"required,oneof=up down"`
	Source    string `json:"source,omitempty"`
}

// FileReportRequest is the JSON request body for reporting a review.
type FileReportRequest struct {
	Reason string `json:"reason" validate:"required"`
	Detail string `json:"detail,omitempty" validate:"omitempty,max=1000"`
}

// SetVisibilityRequest is the JSON request body for an admin visibility
// change.
type SetVisibilityRequest struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason" validate:"required"`
}

// VoteTallies is the response payload for vote operations.
type VoteTallies struct {
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
}

func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "X-User-ID header is required"},
		})
		return "", false
	}
	return userID, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return false
	}
	if err := validator.Validate(dst); err != nil {
		httputil.WriteValidationError(w, err)
		return false
	}
	return true
}

// --- Handlers ---

// Submit handles POST /api/v1/reviews
// @Summary Submit a company review
// @Description Submits a review for a company. The text passes through the moderation gate before becoming publicly visible. Requires X-User-ID header.
// @Tags reviews
// @Accept json
// @Produce json
// @Param X-User-ID header string true "Authenticated user UUID"
// @Param request body SubmitReviewRequest true "Review data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/reviews/ [post]
func (h *ReviewHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req SubmitReviewRequest
	if !decodeBody(w, r, &req) {
		return
	}

	review, err := h.reviews.Submit(r.Context(), service.SubmitReviewInput{
		CompanyID:   req.CompanyID,
		UserID:      userID,
		Category:    req.Category,
		Rating:      req.Rating,
		Body:        req.Body,
		DocumentRef: req.DocumentRef,
		Language:    req.Language,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: review})
}

// Get handles GET /api/v1/reviews/{id}
// @Summary Get a review by ID
// @Tags reviews
// @Produce json
// @Param id path string true "Review UUID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/reviews/{id} [get]
func (h *ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	review, err := h.reviews.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// Edit handles PATCH /api/v1/reviews/{id}
// @Summary Edit a review
// @Description Edits an active review. Only the author may edit, within the edit window and edit cap. The new text re-enters the moderation gate.
// @Tags reviews
// @Accept json
// @Produce json
// @Param X-User-ID header string true "Authenticated user UUID"
// @Param id path string true "Review UUID"
// @Param request body EditReviewRequest true "Updated review data"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/reviews/{id} [patch]
func (h *ReviewHandler) Edit(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req EditReviewRequest
	if !decodeBody(w, r, &req) {
		return
	}

	review, err := h.reviews.Edit(r.Context(), service.EditReviewInput{
		ReviewID: chi.URLParam(r, "id"),
		UserID:   userID,
		Rating:   req.Rating,
		Body:     req.Body,
		Language: req.Language,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// GetScores handles GET /api/v1/reviews/{id}/scores
// @Summary Get computed scores for a review
// @Description Returns the helpfulness, credibility and quality scores derived from the review's current votes and content.
// @Tags reviews
// @Produce json
// @Param id path string true "Review UUID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/reviews/{id}/scores [get]
func (h *ReviewHandler) GetScores(w http.ResponseWriter, r *http.Request) {
	scores, err := h.reviews.GetScores(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: scores})
}

// CastVote handles PUT /api/v1/reviews/{id}/vote
// @Summary Cast or change a vote on a review
// @Description Records an up or down vote for the authenticated user. Repeating the same vote is a no-op; voting the opposite direction moves the vote.
// @Tags votes
// @Accept json
// @Produce json
// @Param X-User-ID header string true "Authenticated user UUID"
// @Param id path string true "Review UUID"
// @Param request body CastVoteRequest true "Vote data"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/reviews/{id}/vote [put]
func (h *ReviewHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req CastVoteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	up, down, err := h.votes.Cast(r.Context(), chi.URLParam(r, "id"), userID, req.Direction, req.Source)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: VoteTallies{Upvotes: up, Downvotes: down}})
}

// RetractVote handles DELETE /api/v1/reviews/{id}/vote
// @Summary Retract a vote on a review
// @Tags votes
// @Produce json
// @Param X-User-ID header string true "Authenticated user UUID"
// @Param id path string true "Review UUID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/reviews/{id}/vote [delete]
func (h *ReviewHandler) RetractVote(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	up, down, err := h.votes.Retract(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: VoteTallies{Upvotes: up, Downvotes: down}})
}

// GetUserVote handles GET /api/v1/reviews/{id}/vote
// @Summary Get the authenticated user's vote on a review
// @Tags votes
// @Produce json
// @Param X-User-ID header string true "Authenticated user UUID"
// @Param id path string true "Review UUID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/reviews/{id}/vote [get]
func (h *ReviewHandler) GetUserVote(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	vote, err := h.votes.GetUserVote(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if vote == nil {
		httputil.WriteJSON(w, http.StatusNotFound, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "NOT_FOUND", Message: "no vote recorded for this user"},
		})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: vote})
}

// FileReport handles POST /api/v1/reviews/{id}/reports
// @Summary Report a review
// @Description Files a report against a review. A review accumulating enough pending reports is hidden automatically.
// @Tags reports
// @Accept json
// @Produce json
// @Param X-User-ID header string true "Authenticated user UUID"
// @Param id path string true "Review UUID"
// @Param request body FileReportRequest true "Report data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/reviews/{id}/reports [post]
func (h *ReviewHandler) FileReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req FileReportRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.reports.File(r.Context(), service.FileReportInput{
		ReviewID:   chi.URLParam(r, "id"),
		ReporterID: userID,
		Reason:     req.Reason,
		Detail:     req.Detail,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: result})
}

// ListReports handles GET /api/v1/reviews/{id}/reports
// @Summary List reports filed against a review
// @Tags reports
// @Produce json
// @Param id path string true "Review UUID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/reviews/{id}/reports [get]
func (h *ReviewHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.reports.ListByReview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: reports})
}

// SetVisibility handles PUT /api/v1/reviews/{id}/visibility
// @Summary Change a review's visibility (moderator)
// @Description Moves a review between moderation states, subject to the allowed state transitions.
// @Tags reviews
// @Accept json
// @Produce json
// @Param id path string true "Review UUID"
// @Param request body SetVisibilityRequest true "Target status and reason"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/reviews/{id}/visibility [put]
func (h *ReviewHandler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	var req SetVisibilityRequest
	if !decodeBody(w, r, &req) {
		return
	}

	review, err := h.reviews.AdminSetVisibility(r.Context(), chi.URLParam(r, "id"), req.Status, req.Reason)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}
