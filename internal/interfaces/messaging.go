package interfaces

import (
	"context"
	"time"

	"github.com/oleandersen/pickup-orders/internal/domain"
)

// OrderSubmittedMessage announces a freshly placed order to the restaurant
// dashboard. Deadlines travel as absolute timestamps so a consumer started
// later can still recompute remaining time correctly.
type OrderSubmittedMessage struct {
	OrderID            string             `json:"order_id"`
	CustomerName       string             `json:"customer_name"`
	PickupMode         domain.PickupMode  `json:"pickup_mode"`
	RequestedDate      string             `json:"requested_date,omitempty"`
	RequestedTime      string             `json:"requested_time,omitempty"`
	Items              []domain.OrderItem `json:"items"`
	TotalAmount        float64            `json:"total_amount"`
	AutoCancelDeadline *time.Time         `json:"auto_cancel_deadline,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
}

// StatusUpdateMessage is fanned out after every lifecycle transition.
type StatusUpdateMessage struct {
	OrderID         string        `json:"order_id"`
	OldStatus       domain.Status `json:"old_status"`
	NewStatus       domain.Status `json:"new_status"`
	ChangedBy       string        `json:"changed_by"`
	RejectionReason *string       `json:"rejection_reason,omitempty"`
	PrepDeadline    *time.Time    `json:"prep_deadline,omitempty"`
	Timestamp       time.Time     `json:"timestamp"`
}

type MessagePublisher interface {
	PublishOrderSubmitted(ctx context.Context, msg OrderSubmittedMessage) error
	PublishStatusUpdate(ctx context.Context, msg StatusUpdateMessage) error
}

type MessageConsumer interface {
	ConsumeOrders(ctx context.Context, handler OrderMessageHandler) error
	ConsumeNotifications(ctx context.Context, handler NotificationHandler) error
}

type (
	OrderMessageHandler func(ctx context.Context, body []byte) error
	NotificationHandler func(ctx context.Context, body []byte) error
)
