package reports

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dentastock/dentastock/internal/export"
	"github.com/dentastock/dentastock/internal/platform/httpx"
)

// Handler manages reporting endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/monthly", h.monthly)
	r.Get("/range", h.rangeReport)
	r.Get("/range/export", h.exportRange)
}

func (h *Handler) monthly(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.MonthlySummary(r.Context())
	if err != nil {
		h.logger.Error("monthly summary failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) rangeReport(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseWindow(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.service.RangeReport(r.Context(), from, to)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) exportRange(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseWindow(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.service.RangeReport(r.Context(), from, to)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	data, err := export.Marshal(report.Products)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	export.WriteHTTP(w, "sales-report", data)
}

func parseWindow(r *http.Request) (time.Time, time.Time, error) {
	from, err := time.Parse("2006-01-02", r.URL.Query().Get("from"))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: from must be YYYY-MM-DD", httpx.ErrValidation)
	}
	to, err := time.Parse("2006-01-02", r.URL.Query().Get("to"))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: to must be YYYY-MM-DD", httpx.ErrValidation)
	}
	return from, to, nil
}
