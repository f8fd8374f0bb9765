package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/veriwork/trustengine/internal/service"
	"github.com/veriwork/trustengine/pkg/health"
	"github.com/veriwork/trustengine/pkg/middleware"
)

// NewRouter creates a chi router with all trust-engine routes registered.
func NewRouter(
	reviewService *service.ReviewService,
	voteService *service.VoteService,
	reportService *service.ReportService,
	companyService *service.CompanyService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	pprofCIDRs []string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CORS)
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("trust-engine"))
	r.Use(middleware.Tracing("trust-engine"))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, pprofCIDRs, logger)

	reviewHandler := NewReviewHandler(reviewService, voteService, reportService, logger)
	companyHandler := NewCompanyHandler(companyService, logger)

	r.Route("/api/v1/reviews", func(r chi.Router) {
		r.Use(ContentTypeJSON)

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
