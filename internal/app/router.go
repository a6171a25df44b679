package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hedoomy/backoffice/internal/analytics"
	"github.com/hedoomy/backoffice/internal/audit"
	"github.com/hedoomy/backoffice/internal/auth"
	"github.com/hedoomy/backoffice/internal/catalog"
	"github.com/hedoomy/backoffice/internal/offers"
	"github.com/hedoomy/backoffice/internal/orders"
	"github.com/hedoomy/backoffice/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Guard            auth.Middleware
	AuthHandler      *auth.Handler
	CatalogHandler   *catalog.Handler
	OrdersHandler    *orders.Handler
	OffersHandler    *offers.Handler
	AnalyticsHandler *analytics.Handler
	AuditHandler     *audit.Handler
	JobHandler       *jobs.Handler
}

// NewRouter constructs the chi.Router with store defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Public storefront surface: login and checkout.
	r.Route("/api", func(r chi.Router) {
		params.AuthHandler.MountPublicRoutes(r)
		params.OrdersHandler.MountIntake(r)
	})

	// Back-office surface, bearer token required.
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(params.Guard.Authenticate)

		params.AuthHandler.MountRoutes(r, params.Guard)
		params.CatalogHandler.MountRoutes(r)
		params.OrdersHandler.MountRoutes(r)
		params.OffersHandler.MountRoutes(r)
		params.AnalyticsHandler.MountRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(params.Guard.RequireRole(auth.RoleAdmin))
			params.AuditHandler.MountRoutes(r)
			if params.JobHandler != nil {
				r.Route("/jobs", func(r chi.Router) {
					params.JobHandler.MountRoutes(r)
				})
			}
		})
	})

	return r
}
