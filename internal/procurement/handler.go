package procurement

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/dentastock/dentastock/internal/export"
	"github.com/dentastock/dentastock/internal/platform/httpx"
	"github.com/dentastock/dentastock/internal/shared"
)

// Handler manages purchase order and purchase request endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountOrderRoutes registers purchase order routes.
func (h *Handler) MountOrderRoutes(r chi.Router) {
	r.Get("/", h.listOrders)
	r.Post("/", h.createOrder)
	r.Get("/export", h.exportOrders)
	r.Get("/{id}", h.getOrder)
	r.Put("/{id}", h.updateOrder)
	r.Delete("/{id}", h.deleteOrder)
	r.Post("/{id}/complete", h.completeOrder)
	r.Post("/{id}/reopen", h.reopenOrder)
	r.Post("/{id}/cancel", h.cancelOrder)
}

// MountRequestRoutes registers purchase request routes.
func (h *Handler) MountRequestRoutes(r chi.Router) {
	r.Get("/", h.listRequests)
	r.Post("/", h.createRequest)
	r.Get("/{id}", h.getRequest)
	r.Put("/{id}", h.updateRequest)
	r.Delete("/{id}", h.deleteRequest)
	r.Post("/{id}/approve", h.approveRequest)
	r.Post("/{id}/reject", h.rejectRequest)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListOrders(r.Context())
	if err != nil {
		h.logger.Error("list purchase orders failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []PurchaseOrder{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) exportOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListOrders(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	data, err := export.Marshal(list)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	export.WriteHTTP(w, "purchase-orders", data)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var input OrderInput
	if !h.decode(w, r, &input) {
		return
	}
	order, err := h.service.CreateOrder(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	var input OrderInput
	if !h.decode(w, r, &input) {
		return
	}
	order, err := h.service.UpdateOrder(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteOrder(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) completeOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.CompleteOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) reopenOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.ReopenOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.CancelOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) listRequests(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	list, err := h.service.ListRequests(r.Context(), actor)
	if err != nil {
		h.logger.Error("list purchase requests failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []PurchaseRequest{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) getRequest(w http.ResponseWriter, r *http.Request) {
	request, err := h.service.GetRequest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, request)
}

func (h *Handler) createRequest(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	var input RequestInput
	if !h.decode(w, r, &input) {
		return
	}
	request, err := h.service.CreateRequest(r.Context(), actor, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, request)
}

func (h *Handler) updateRequest(w http.ResponseWriter, r *http.Request) {
	var input RequestInput
	if !h.decode(w, r, &input) {
		return
	}
	request, err := h.service.UpdateRequest(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, request)
}

func (h *Handler) deleteRequest(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteRequest(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) approveRequest(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	request, err := h.service.ApproveRequest(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, request)
}

func (h *Handler) rejectRequest(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	request, err := h.service.RejectRequest(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, request)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid request body", httpx.ErrValidation))
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error()))
		return false
	}
	return true
}
