package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/oleandersen/pickup-orders/internal/adapter/logger"
	"github.com/oleandersen/pickup-orders/internal/domain"
	"github.com/oleandersen/pickup-orders/internal/interfaces"
)

type DashboardHandler struct {
	service interfaces.DashboardService
	logger  logger.Logger
}

func NewDashboardHandler(service interfaces.DashboardService, logger logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger,
	}
}

type AcceptRequest struct {
	EstimatedPrepMinutes int `json:"estimated_prep_minutes"`
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

// HandleOrders routes /orders/{id}[/accept|/reject|/complete|/history].
func (h *DashboardHandler) HandleOrders(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 2 || parts[0] != "orders" {
		respondError(w, "Invalid path", http.StatusBadRequest)
		return
	}

	orderID, err := uuid.Parse(parts[1])
	if err != nil {
		respondError(w, "Invalid order id", http.StatusBadRequest)
		return
	}

	switch {
	case len(parts) == 2 && r.Method == http.MethodGet:
		h.getOrderStatus(w, r, orderID)
	case len(parts) == 3 && parts[2] == "history" && r.Method == http.MethodGet:
		h.getOrderHistory(w, r, orderID)
	case len(parts) == 3 && parts[2] == "accept" && r.Method == http.MethodPost:
		h.acceptOrder(w, r, orderID)
	case len(parts) == 3 && parts[2] == "reject" && r.Method == http.MethodPost:
		h.rejectOrder(w, r, orderID)
	case len(parts) == 3 && parts[2] == "complete" && r.Method == http.MethodPost:
		h.completeOrder(w, r, orderID)
	default:
		respondError(w, "Not found", http.StatusNotFound)
	}
}

func (h *DashboardHandler) acceptOrder(w http.ResponseWriter, r *http.Request, orderID uuid.UUID) {
	var req AcceptRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	order, err := h.service.Accept(r.Context(), orderID, req.EstimatedPrepMinutes)
	if err != nil {
		h.respondTransitionError(w, orderID, err)
		return
	}

	h.respondOrder(w, order)
}

func (h *DashboardHandler) rejectOrder(w http.ResponseWriter, r *http.Request, orderID uuid.UUID) {
	var req RejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	order, err := h.service.Reject(r.Context(), orderID, req.Reason)
	if err != nil {
		h.respondTransitionError(w, orderID, err)
		return
	}

	h.respondOrder(w, order)
}

func (h *DashboardHandler) completeOrder(w http.ResponseWriter, r *http.Request, orderID uuid.UUID) {
	order, err := h.service.Complete(r.Context(), orderID)
	if err != nil {
		h.respondTransitionError(w, orderID, err)
		return
	}

	h.respondOrder(w, order)
}

func (h *DashboardHandler) getOrderStatus(w http.ResponseWriter, r *http.Request, orderID uuid.UUID) {
	status, err := h.service.OrderStatus(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			respondError(w, "Order not found", http.StatusNotFound)
			return
		}
		respondError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	resp := map[string]interface{}{
		"order_id":      status.OrderID,
		"customer_name": status.CustomerName,
		"pickup_mode":   status.PickupMode,
		"status":        status.Status,
		"ready":         status.Ready,
	}
	if status.RemainingSeconds != nil {
		resp["remaining_seconds"] = *status.RemainingSeconds
	}
	if status.AutoCancelDeadline != nil {
		resp["auto_cancel_deadline"] = status.AutoCancelDeadline
	}
	if status.PrepDeadline != nil {
		resp["prep_deadline"] = status.PrepDeadline
	}
	if status.RejectionReason != nil {
		resp["rejection_reason"] = *status.RejectionReason
	}

	respondJSON(w, http.StatusOK, resp)
}

func (h *DashboardHandler) getOrderHistory(w http.ResponseWriter, r *http.Request, orderID uuid.UUID) {
	history, err := h.service.OrderHistory(r.Context(), orderID)
	if err != nil {
		respondError(w, "Order not found", http.StatusNotFound)
		return
	}

	resp := make([]map[string]interface{}, len(history))
	for i, entry := range history {
		resp[i] = map[string]interface{}{
			"status":     entry.Status,
			"timestamp":  entry.ChangedAt,
			"changed_by": entry.ChangedBy,
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

func (h *DashboardHandler) respondOrder(w http.ResponseWriter, order *domain.Order) {
	resp := map[string]interface{}{
		"order_id": order.ID.String(),
		"status":   order.Status,
	}
	if order.PrepDeadline != nil {
		resp["prep_deadline"] = order.PrepDeadline
	}
	if order.RejectionReason != nil {
		resp["rejection_reason"] = *order.RejectionReason
	}

	respondJSON(w, http.StatusOK, resp)
}

func (h *DashboardHandler) respondTransitionError(w http.ResponseWriter, orderID uuid.UUID, err error) {
	switch {
	case errors.Is(err, domain.ErrMissingPrepEstimate), errors.Is(err, domain.ErrMissingReason):
		respondError(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, domain.ErrOrderNotFound):
		respondError(w, "Order not found", http.StatusNotFound)
	default:
		h.logger.Error("transition_failed", "Order transition failed", orderID.String(), nil, err)
		respondError(w, "Internal server error", http.StatusInternalServerError)
	}
}
