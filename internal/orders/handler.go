package orders

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/hedoomy/backoffice/internal/auth"
	"github.com/hedoomy/backoffice/internal/catalog"
	"github.com/hedoomy/backoffice/internal/platform/httpx"
	"github.com/hedoomy/backoffice/internal/shared"
)

// Handler wires HTTP endpoints for the orders module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	guard    auth.Middleware
}

// NewHandler constructs the orders handler.
func NewHandler(logger *slog.Logger, service *Service, guard auth.Middleware) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
		guard:    guard,
	}
}

// MountRoutes registers the back-office order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(auth.RoleAdmin, auth.RoleEditor, auth.RoleViewer))
		r.Get("/orders", h.handleList)
		r.Get("/orders/{id}", h.handleGet)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(auth.RoleAdmin, auth.RoleEditor))
		r.Post("/orders/{id}/status", h.handleTransition)
		r.Post("/orders/{id}/confirm-payment", h.handleConfirmPayment)
	})
}

// MountIntake registers the public checkout endpoint. Mounted outside the
// authenticated group.
func (h *Handler) MountIntake(r chi.Router) {
	r.Post("/orders", h.handleCreate)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	order, err := h.service.Create(r.Context(), req, r.Header.Get("Idempotency-Key"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := ListFilters{
		Status: Status(q.Get("status")),
		Email:  q.Get("email"),
	}
	filters.Page, _ = strconv.Atoi(q.Get("page"))
	filters.PerPage, _ = strconv.Atoi(q.Get("per_page"))

	orders, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list orders failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if orders == nil {
		orders = []Order{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"orders": orders,
		"total":  total,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	var req TransitionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())
	order, err := h.service.Transition(r.Context(), chi.URLParam(r, "id"), req.Status, actor)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) handleConfirmPayment(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	order, err := h.service.ConfirmPayment(r.Context(), chi.URLParam(r, "id"), actor)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrOrderNotFound),
		errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, catalog.ErrVariantNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrEmptyOrder), errors.Is(err, ErrInvalidQuantity):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrInsufficientStock):
		httpx.Problem(w, http.StatusConflict, "Insufficient Stock", err.Error())
	case errors.Is(err, ErrInvalidTransition):
		httpx.Problem(w, http.StatusConflict, "Invalid Transition", err.Error())
	case errors.Is(err, shared.ErrLockHeld), errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		h.logger.Error("order request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
