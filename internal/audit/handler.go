package audit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hedoomy/backoffice/internal/platform/httpx"
)

// Handler exposes the activity timeline.
type Handler struct {
	logger *slog.Logger
	reader *Reader
}

// NewHandler constructs the audit handler.
func NewHandler(logger *slog.Logger, reader *Reader) *Handler {
	return &Handler{logger: logger, reader: reader}
}

// MountRoutes registers audit routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/activity", h.handleList)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := TimelineFilters{
		Action:     q.Get("action"),
		ActorEmail: q.Get("actor"),
	}
	filters.Page, _ = strconv.Atoi(q.Get("page"))
	filters.PerPage, _ = strconv.Atoi(q.Get("per_page"))
	if from := q.Get("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			filters.From = t
		}
	}
	if to := q.Get("to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			filters.To = t.Add(24*time.Hour - time.Nanosecond)
		}
	}

	timeline, err := h.reader.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list activity failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, timeline)
}
