package amqp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/oleandersen/pickup-orders/internal/adapter/logger"
	"github.com/oleandersen/pickup-orders/internal/interfaces"
)

// NotificationHandler consumes status-update events. Actual delivery to
// customers (email and the like) lives outside this service; here the event
// is surfaced to the console and the structured log.
type NotificationHandler struct {
	logger logger.Logger
}

func NewNotificationHandler(logger logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		logger: logger,
	}
}

func (h *NotificationHandler) HandleNotification(ctx context.Context, body []byte) error {
	var msg interfaces.StatusUpdateMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse notification", "", nil, err)
		return err
	}

	h.logger.Debug("notification_received", fmt.Sprintf("Status update for order %s", msg.OrderID),
		msg.OrderID, map[string]interface{}{
			"old_status": msg.OldStatus,
			"new_status": msg.NewStatus,
		})

	line := fmt.Sprintf("Order %s: status changed from '%s' to '%s' by %s",
		msg.OrderID, msg.OldStatus, msg.NewStatus, msg.ChangedBy)
	if msg.RejectionReason != nil {
		line += fmt.Sprintf(" (reason: %s)", *msg.RejectionReason)
	}
	fmt.Println(line)

	return nil
}
