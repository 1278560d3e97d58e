package amqp

import (
	"context"
	"encoding/json"

	"github.com/oleandersen/pickup-orders/internal/adapter/logger"
	"github.com/oleandersen/pickup-orders/internal/interfaces"
)

// OrderAnnouncementService is the dashboard side of an order announcement.
type OrderAnnouncementService interface {
	HandleOrderSubmitted(ctx context.Context, msg interfaces.OrderSubmittedMessage) error
}

type OrderHandler struct {
	service OrderAnnouncementService
	logger  logger.Logger
}

func NewOrderHandler(service OrderAnnouncementService, logger logger.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger,
	}
}

func (h *OrderHandler) HandleOrder(ctx context.Context, body []byte) error {
	var msg interfaces.OrderSubmittedMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse order announcement", "", nil, err)
		return err
	}

	return h.service.HandleOrderSubmitted(ctx, msg)
}
