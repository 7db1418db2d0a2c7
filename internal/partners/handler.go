package partners

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/dentastock/dentastock/internal/platform/httpx"
)

// Handler manages customer and supplier endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountCustomerRoutes registers the customer directory routes.
func (h *Handler) MountCustomerRoutes(r chi.Router) {
	h.mountKind(r, KindCustomer)
}

// MountSupplierRoutes registers the supplier directory routes.
func (h *Handler) MountSupplierRoutes(r chi.Router) {
	h.mountKind(r, KindSupplier)
}

func (h *Handler) mountKind(r chi.Router, kind Kind) {
	r.Get("/", h.list(kind))
	r.Post("/", h.create(kind))
	r.Get("/{id}", h.get(kind))
	r.Put("/{id}", h.update(kind))
	r.Delete("/{id}", h.remove(kind))
}

func (h *Handler) list(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := h.service.ListPartners(r.Context(), kind, r.URL.Query().Get("q"))
		if err != nil {
			h.logger.Error("list partners failed", slog.String("kind", string(kind)), slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		if list == nil {
			list = []Partner{}
		}
		httpx.JSON(w, http.StatusOK, list)
	}
}

func (h *Handler) get(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		partner, err := h.service.GetPartner(r.Context(), kind, chi.URLParam(r, "id"))
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, partner)
	}
}

func (h *Handler) create(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, ok := h.decodeInput(w, r)
		if !ok {
			return
		}
		partner, err := h.service.CreatePartner(r.Context(), kind, input)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusCreated, partner)
	}
}

func (h *Handler) update(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, ok := h.decodeInput(w, r)
		if !ok {
			return
		}
		partner, err := h.service.UpdatePartner(r.Context(), kind, chi.URLParam(r, "id"), input)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, partner)
	}
}

func (h *Handler) remove(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.service.DeletePartner(r.Context(), kind, chi.URLParam(r, "id")); err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func (h *Handler) decodeInput(w http.ResponseWriter, r *http.Request) (PartnerInput, bool) {
	var input PartnerInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid request body", httpx.ErrValidation))
		return input, false
	}
	if err := h.validator.Struct(input); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error()))
		return input, false
	}
	return input, true
}
