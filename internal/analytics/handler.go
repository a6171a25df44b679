package analytics

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hedoomy/backoffice/internal/auth"
	"github.com/hedoomy/backoffice/internal/platform/httpx"
)

// Handler serves the dashboard endpoint.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   auth.Middleware
}

// NewHandler constructs the analytics handler.
func NewHandler(logger *slog.Logger, service *Service, guard auth.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers analytics routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(auth.RoleAdmin, auth.RoleEditor, auth.RoleViewer))
		r.Get("/analytics/dashboard", h.handleDashboard)
	})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	dashboard, err := h.service.Dashboard(r.Context(), days)
	if err != nil {
		h.logger.Error("dashboard failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, dashboard)
}
