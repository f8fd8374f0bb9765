package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/veriwork/trustengine/internal/domain"
	"github.com/veriwork/trustengine/internal/service"
	"github.com/veriwork/trustengine/pkg/httputil"
	"github.com/veriwork/trustengine/pkg/pagination"
)

// CompanyHandler handles HTTP requests for company-level endpoints.
type CompanyHandler struct {
	companies *service.CompanyService
	logger    *slog.Logger
}

// NewCompanyHandler creates a company HTTP handler.
func NewCompanyHandler(companies *service.CompanyService, logger *slog.Logger) *CompanyHandler {
	return &CompanyHandler{companies: companies, logger: logger}
}

// ListReviews handles GET /api/v1/companies/{id}/reviews
// @Summary List active reviews for a company
// @Tags companies
// @Produce json
// @Param id path string true "Company UUID"
// @Param page query int false "Page number"
// @Param per_page query int false "Page size (max 100)"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/companies/{id}/reviews [get]
func (h *CompanyHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	reviews, total, err := h.companies.ListReviews(r.Context(), chi.URLParam(r, "id"), params.PerPage, params.Offset)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	result := pagination.NewResult[*domain.Review](reviews, total, params)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// GetRatingSummary handles GET /api/v1/companies/{id}/rating-summary
// @Summary Get the aggregated rating summary for a company
// @Description Returns the average rating, histogram and per-category averages over the company's active reviews.
// @Tags companies
// @Produce json
// @Param id path string true "Company UUID"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/companies/{id}/rating-summary [get]
func (h *CompanyHandler) GetRatingSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.companies.GetRatingSummary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: summary})
}
