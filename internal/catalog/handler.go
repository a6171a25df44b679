package catalog

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/hedoomy/backoffice/internal/auth"
	"github.com/hedoomy/backoffice/internal/platform/httpx"
	"github.com/hedoomy/backoffice/internal/shared"
)

// Handler wires HTTP endpoints for the catalog module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	guard    auth.Middleware
}

// NewHandler constructs the catalog handler.
func NewHandler(logger *slog.Logger, service *Service, guard auth.Middleware) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
		guard:    guard,
	}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(auth.RoleAdmin, auth.RoleEditor, auth.RoleViewer))
		r.Get("/products", h.handleList)
		r.Get("/products/{id}", h.handleGet)
		r.Get("/categories", h.handleListCategories)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(auth.RoleAdmin, auth.RoleEditor))
		r.Post("/products", h.handleCreate)
		r.Put("/products/{id}", h.handleUpdate)
		r.Delete("/products/{id}", h.handleDelete)
		r.Post("/categories", h.handleCreateCategory)
		r.Delete("/categories/{id}", h.handleDeleteCategory)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := ListFilters{
		Category: q.Get("category"),
		Status:   ProductStatus(q.Get("status")),
		Search:   q.Get("search"),
	}
	filters.BestSellerOnly = q.Get("best_sellers") == "true"
	filters.Page, _ = strconv.Atoi(q.Get("page"))
	filters.PerPage, _ = strconv.Atoi(q.Get("per_page"))

	page, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list products failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())
	product, err := h.service.Create(r.Context(), req, actor)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, product)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req UpdateProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())
	product, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req, actor)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), actor); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		h.logger.Error("list categories failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func (h *Handler) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())
	category, err := h.service.CreateCategory(r.Context(), req, actor)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, category)
}

func (h *Handler) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	if err := h.service.DeleteCategory(r.Context(), chi.URLParam(r, "id"), actor); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrCategoryNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicateVariant):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("catalog request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
