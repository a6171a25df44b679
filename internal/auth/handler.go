package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/hedoomy/backoffice/internal/platform/httpx"
	"github.com/hedoomy/backoffice/internal/shared"
)

// Handler wires HTTP endpoints for authentication and user management.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the auth handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountPublicRoutes registers routes that do not require a token.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
}

// MountRoutes registers authenticated routes.
func (h *Handler) MountRoutes(r chi.Router, guard Middleware) {
	r.Post("/logout", h.handleLogout)
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireRole(RoleAdmin))
		r.Get("/users", h.handleListUsers)
		r.Post("/users", h.handleCreateUser)
		r.Post("/users/{id}/activate", h.handleSetActive(true))
		r.Post("/users/{id}/deactivate", h.handleSetActive(false))
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	token, user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials")
			return
		}
		h.logger.Error("login failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"token": token, "user": user})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token != "" {
		if err := h.service.Revoke(r.Context(), token); err != nil {
			h.logger.Warn("token revoke failed", slog.Any("error", err))
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("list users failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())
	user, err := h.service.CreateUser(r.Context(), req, actor)
	if err != nil {
		h.logger.Error("create user failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusCreated, user)
}

func (h *Handler) handleSetActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := shared.ActorFromContext(r.Context())
		err := h.service.SetUserActive(r.Context(), chi.URLParam(r, "id"), active, actor)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				httpx.Problem(w, http.StatusNotFound, "Not Found", "user not found")
				return
			}
			h.logger.Error("set user active failed", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
