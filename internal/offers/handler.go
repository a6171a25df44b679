package offers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/hedoomy/backoffice/internal/auth"
	"github.com/hedoomy/backoffice/internal/platform/httpx"
	"github.com/hedoomy/backoffice/internal/shared"
)

// Handler wires HTTP endpoints for the offers module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	guard    auth.Middleware
}

// NewHandler constructs the offers handler.
func NewHandler(logger *slog.Logger, service *Service, guard auth.Middleware) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
		guard:    guard,
	}
}

// MountRoutes registers offer routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(auth.RoleAdmin, auth.RoleEditor, auth.RoleViewer))
		r.Get("/offers", h.handleList)
		r.Get("/offers/{id}", h.handleGet)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(auth.RoleAdmin, auth.RoleEditor))
		r.Post("/offers", h.handleCreate)
		r.Delete("/offers/{id}", h.handleRemove)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	offers, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list offers failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if offers == nil {
		offers = []Offer{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"offers": offers})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	offer, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, offer)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateOfferRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())
	offer, err := h.service.Create(r.Context(), req, actor)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, offer)
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	if err := h.service.Remove(r.Context(), chi.URLParam(r, "id"), actor); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrOfferNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvalidDiscount), errors.Is(err, ErrMissingTarget):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("offer request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
