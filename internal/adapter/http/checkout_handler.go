package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/oleandersen/pickup-orders/internal/adapter/logger"
	"github.com/oleandersen/pickup-orders/internal/domain"
	"github.com/oleandersen/pickup-orders/internal/interfaces"
)

var validate = validator.New()

type CheckoutHandler struct {
	service interfaces.CheckoutService
	logger  logger.Logger
}

func NewCheckoutHandler(service interfaces.CheckoutService, logger logger.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		logger:  logger,
	}
}

type PlaceOrderRequest struct {
	CustomerName  string                  `json:"customer_name" validate:"required,min=1,max=100"`
	PickupMode    string                  `json:"pickup_mode" validate:"required,oneof=asap scheduled"`
	RequestedDate string                  `json:"requested_date,omitempty" validate:"required_if=PickupMode scheduled,omitempty,datetime=2006-01-02"`
	RequestedTime string                  `json:"requested_time,omitempty" validate:"required_if=PickupMode scheduled,omitempty,datetime=15:04"`
	Items         []PlaceOrderItemRequest `json:"items" validate:"required,min=1,max=20,dive"`
}

type PlaceOrderItemRequest struct {
	Name     string  `json:"name" validate:"required,min=1,max=50"`
	Quantity int     `json:"quantity" validate:"required,min=1,max=10"`
	Price    float64 `json:"price" validate:"required,gt=0"`
}

type PlaceOrderResponse struct {
	OrderID            string  `json:"order_id"`
	Status             string  `json:"status"`
	PickupMode         string  `json:"pickup_mode"`
	TotalAmount        float64 `json:"total_amount"`
	AutoCancelDeadline string  `json:"auto_cancel_deadline,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// PickupOptions serves GET /pickup/options?date=YYYY-MM-DD. Without a date
// it answers for today, ASAP availability included.
func (h *CheckoutHandler) PickupOptions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	options, err := h.service.PickupOptions(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := map[string]interface{}{
		"date":           options.Date,
		"asap_available": options.ASAPAvailable,
		"slots":          options.Slots,
	}
	if len(options.Slots) == 0 {
		resp["slots"] = []string{}
	}

	respondJSON(w, http.StatusOK, resp)
}

// PlaceOrder serves POST /orders.
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := validate.Struct(req); err != nil {
		h.logger.Debug("validation_failed", "Order request validation failed", "", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	items := make([]interfaces.PlaceOrderItemCommand, len(req.Items))
	for i, item := range req.Items {
		items[i] = interfaces.PlaceOrderItemCommand{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		}
	}

	cmd := interfaces.PlaceOrderCommand{
		CustomerName:  req.CustomerName,
		PickupMode:    req.PickupMode,
		RequestedDate: req.RequestedDate,
		RequestedTime: req.RequestedTime,
		Items:         items,
	}

	order, err := h.service.PlaceOrder(r.Context(), cmd)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, domain.ErrSlotUnavailable) {
			status = http.StatusConflict
		}
		h.logger.Error("order_creation_failed", "Failed to place order", "", nil, err)
		respondError(w, err.Error(), status)
		return
	}

	resp := PlaceOrderResponse{
		OrderID:     order.ID.String(),
		Status:      string(order.Status),
		PickupMode:  string(order.PickupMode),
		TotalAmount: order.TotalAmount,
	}
	if order.AutoCancelDeadline != nil {
		resp.AutoCancelDeadline = order.AutoCancelDeadline.UTC().Format("2006-01-02T15:04:05Z07:00")
	}

	respondJSON(w, http.StatusCreated, resp)
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, ErrorResponse{Error: message})
}
