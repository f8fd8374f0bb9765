package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veriwork/trustengine/internal/domain"
	"github.com/veriwork/trustengine/internal/moderation"
	"github.com/veriwork/trustengine/internal/repository/memory"
	"github.com/veriwork/trustengine/internal/service"
)

const (
	testCompanyID  = "550e8400-e29b-41d4-a716-446655440001"
	testAuthorID   = "550e8400-e29b-41d4-a716-446655440002"
	testVoterID    = "550e8400-e29b-41d4-a716-446655440003"
	testReporterID = "550e8400-e29b-41d4-a716-446655440004"
)

// --- Test doubles ---

type stubClassifier struct {
	result *moderation.Result
}

func (s *stubClassifier) Classify(context.Context, string, string) (*moderation.Result, error) {
	return s.result, nil
}

type noopNotifier struct{}

func (noopNotifier) ReviewCreated(context.Context, *domain.Review) error { return nil }
func (noopNotifier) ReviewStatusChanged(context.Context, *domain.Review, string, string) error {
	return nil
}
func (noopNotifier) ReviewAutoHidden(context.Context, *domain.Review) error { return nil }
func (noopNotifier) ReviewSpamEscalated(context.Context, *domain.Review, int) error {
	return nil
}
func (noopNotifier) ReporterFlagged(context.Context, string, int) error { return nil }

type neutralAuthors struct{}

func (neutralAuthors) AuthorProfile(_ context.Context, userID string) (domain.AuthorProfile, error) {
	return domain.AuthorProfile{UserID: userID}, nil
}

// --- Test Helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupRouter wires the handlers over an in-memory store, matching the
// production route layout.
func setupRouter(t *testing.T) *chi.Mux {
	t.Helper()

	logger := testLogger()
	store := memory.NewStore()
	gate := moderation.NewGate(&stubClassifier{
		result: &moderation.Result{Approved: true, ToxicityScore: 0.1},
	}, logger)

	companySvc := service.NewCompanyService(store, store, logger)
	reviewSvc := service.NewReviewService(store, gate, neutralAuthors{}, companySvc, noopNotifier{}, logger)
	voteSvc := service.NewVoteService(store, logger)
	reportSvc := service.NewReportService(store, store, store, companySvc, noopNotifier{}, logger)

	reviewHandler := NewReviewHandler(reviewSvc, voteSvc, reportSvc, logger)
	companyHandler := NewCompanyHandler(companySvc, logger)

	r := chi.NewRouter()
	r.Route("/api/v1/reviews", func(r chi.Router) {
		r.Post("/", reviewHandler.Submit)
		r.Get("/{id}", reviewHandler.Get)
		r.Patch("/{id}", reviewHandler.Edit)
		r.Get("/{id}/scores", reviewHandler.GetScores)
		r.Put("/{id}/vote", reviewHandler.CastVote)
		r.Delete("/{id}/vote", reviewHandler.RetractVote)
		r.Get("/{id}/vote", reviewHandler.GetUserVote)
		r.Post("/{id}/reports", reviewHandler.FileReport)
		r.Get("/{id}/reports", reviewHandler.ListReports)
		r.Put("/{id}/visibility", reviewHandler.SetVisibility)
	})
	r.Route("/api/v1/companies", func(r chi.Router) {
		r.Get("/{id}/reviews", companyHandler.ListReviews)
		r.Get("/{id}/rating-summary", companyHandler.GetRatingSummary)
	})
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeReview(t *testing.T, rec *httptest.ResponseRecorder) *domain.Review {
	t.Helper()

	var envelope struct {
		Data *domain.Review `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Data)
	return envelope.Data
}

func validReviewBody() string {
	return "The engineering culture here rewards careful work and the on-call rotation is humane. " +
		"Compensation reviews happen twice a year and follow a published band."
}

func submitReview(t *testing.T, router http.Handler) *domain.Review {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/reviews", testAuthorID, SubmitReviewRequest{
		CompanyID: testCompanyID,
		Category:  domain.CategoryWorkEnvironment,
		Rating:    4.5,
		Body:      validReviewBody(),
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	return decodeReview(t, rec)
}

// --- Review endpoints ---

func TestSubmitReview_Created(t *testing.T) {
	router := setupRouter(t)

	review := submitReview(t, router)

	assert.NotEmpty(t, review.ID)
	assert.Equal(t, domain.StatusActive, review.Status)
	assert.Equal(t, testCompanyID, review.CompanyID)
	assert.Equal(t, testAuthorID, review.UserID)
	assert.False(t, review.IsVerified)
}

func TestSubmitReview_MissingUserHeader(t *testing.T) {
	router := setupRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/reviews", "", SubmitReviewRequest{
		CompanyID: testCompanyID,
		Category:  domain.CategorySalary,
		Rating:    4.0,
		Body:      validReviewBody(),
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "X-User-ID")
}

func TestSubmitReview_BodyTooShort(t *testing.T) {
	router := setupRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/reviews", testAuthorID, SubmitReviewRequest{
		CompanyID: testCompanyID,
		Category:  domain.CategorySalary,
		Rating:    4.0,
		Body:      "too short",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_INPUT")
}

func TestSubmitReview_MalformedJSON(t *testing.T) {
	router := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", testAuthorID)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetReview_NotFound(t *testing.T) {
	router := setupRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/reviews/550e8400-e29b-41d4-a716-446655449999", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestEditReview_OnlyAuthor(t *testing.T) {
	router := setupRouter(t)
	review := submitReview(t, router)

	rec := doJSON(t, router, http.MethodPatch, "/api/v1/reviews/"+review.ID, testVoterID, EditReviewRequest{
		Rating: 3.0,
		Body:   validReviewBody(),
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestEditReview_UpdatesRating(t *testing.T) {
	router := setupRouter(t)
	review := submitReview(t, router)

	rec := doJSON(t, router, http.MethodPatch, "/api/v1/reviews/"+review.ID, testAuthorID, EditReviewRequest{
		Rating: 3.0,
		Body:   validReviewBody(),
	})

	require.Equal(t, http.StatusOK, rec.Code)
	edited := decodeReview(t, rec)
	assert.Equal(t, 3.0, edited.Rating)
	assert.Equal(t, 1, edited.EditCount)
}

func TestGetScores(t *testing.T) {
	router := setupRouter(t)
	review := submitReview(t, router)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/reviews/"+review.ID+"/scores", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data *domain.ScoreSnapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Data)
	assert.Equal(t, review.ID, envelope.Data.ReviewID)
}

// --- Vote endpoints ---

func TestVote_CastRetractRoundTrip(t *testing.T) {
	router := setupRouter(t)
	review := submitReview(t, router)
	votePath := "/api/v1/reviews/" + review.ID + "/vote"

	rec := doJSON(t, router, http.MethodPut, votePath, testVoterID, CastVoteRequest{Direction: domain.VoteUp})
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data VoteTallies `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 1, envelope.Data.Upvotes)

	// Repeating the same vote does not change the tally.
	rec = doJSON(t, router, http.MethodPut, votePath, testVoterID, CastVoteRequest{Direction: domain.VoteUp})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 1, envelope.Data.Upvotes)

	rec = doJSON(t, router, http.MethodDelete, votePath, testVoterID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 0, envelope.Data.Upvotes)

	rec = doJSON(t, router, http.MethodGet, votePath, testVoterID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVote_InvalidDirection(t *testing.T) {
	router := setupRouter(t)
	review := submitReview(t, router)

	rec := doJSON(t, router, http.MethodPut, "/api/v1/reviews/"+review.ID+"/vote", testVoterID,
		CastVoteRequest{Direction: "sideways"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- Report endpoints ---

func TestFileReport_Created(t *testing.T) {
	router := setupRouter(t)
	review := submitReview(t, router)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/reviews/"+review.ID+"/reports", testReporterID,
		FileReportRequest{Reason: domain.ReportReasonSpam, Detail: "copy-pasted across companies"})

	require.Equal(t, http.StatusCreated, rec.Code)
	var envelope struct {
		Data *service.FileReportResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Data)
	assert.Equal(t, 1, envelope.Data.TotalCount)
	assert.False(t, envelope.Data.AutoHidden)
}

func TestFileReport_SelfReport(t *testing.T) {
	router := setupRouter(t)
	review := submitReview(t, router)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/reviews/"+review.ID+"/reports", testAuthorID,
		FileReportRequest{Reason: domain.ReportReasonSpam})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "SELF_REPORT")
}

func TestFileReport_DuplicatePending(t *testing.T) {
	router := setupRouter(t)
	review := submitReview(t, router)
	path := "/api/v1/reviews/" + review.ID + "/reports"

	rec := doJSON(t, router, http.MethodPost, path, testReporterID, FileReportRequest{Reason: domain.ReportReasonSpam})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, path, testReporterID, FileReportRequest{Reason: domain.ReportReasonSpam})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "ALREADY_REPORTED")
}

func TestListReports(t *testing.T) {
	router := setupRouter(t)
	review := submitReview(t, router)
	path := "/api/v1/reviews/" + review.ID + "/reports"

	rec := doJSON(t, router, http.MethodPost, path, testReporterID, FileReportRequest{Reason: domain.ReportReasonFalseInfo})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data []*domain.Report `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, domain.ReportReasonFalseInfo, envelope.Data[0].Reason)
}

// --- Visibility endpoint ---

func TestSetVisibility_HideAndReactivate(t *testing.T) {
	router := setupRouter(t)
	review := submitReview(t, router)
	path := "/api/v1/reviews/" + review.ID + "/visibility"

	rec := doJSON(t, router, http.MethodPut, path, "", SetVisibilityRequest{
		Status: domain.StatusHidden,
		Reason: "manual takedown pending investigation",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.StatusHidden, decodeReview(t, rec).Status)

	rec = doJSON(t, router, http.MethodPut, path, "", SetVisibilityRequest{
		Status: domain.StatusActive,
		Reason: "investigation cleared the review",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.StatusActive, decodeReview(t, rec).Status)
}

func TestSetVisibility_IllegalTransition(t *testing.T) {
	router := setupRouter(t)
	review := submitReview(t, router)
	path := "/api/v1/reviews/" + review.ID + "/visibility"

	rec := doJSON(t, router, http.MethodPut, path, "", SetVisibilityRequest{
		Status: domain.StatusHidden,
		Reason: "first hide",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// hidden -> rejected is not an allowed transition
	rec = doJSON(t, router, http.MethodPut, path, "", SetVisibilityRequest{
		Status: domain.StatusRejected,
		Reason: "cannot reject from hidden",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSetVisibility_UnknownStatus(t *testing.T) {
	router := setupRouter(t)
	review := submitReview(t, router)

	rec := doJSON(t, router, http.MethodPut, "/api/v1/reviews/"+review.ID+"/visibility", "",
		SetVisibilityRequest{Status: "vanished", Reason: "bad state"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- Company endpoints ---

func TestCompanyReviews_Pagination(t *testing.T) {
	router := setupRouter(t)
	submitReview(t, router)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/companies/"+testCompanyID+"/reviews?page=1&per_page=10", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data struct {
			Data       []*domain.Review `json:"data"`
			TotalCount int              `json:"total_count"`
			Page       int              `json:"page"`
			PerPage    int              `json:"per_page"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 1, envelope.Data.TotalCount)
	assert.Equal(t, 10, envelope.Data.PerPage)
	require.Len(t, envelope.Data.Data, 1)
}

func TestCompanyRatingSummary(t *testing.T) {
	router := setupRouter(t)
	submitReview(t, router)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/companies/"+testCompanyID+"/rating-summary", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data *domain.RatingSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Data)
	assert.Equal(t, 4.5, envelope.Data.AverageRating)
	assert.Equal(t, 1, envelope.Data.TotalReviews)
}
