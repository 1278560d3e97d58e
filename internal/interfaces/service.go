package interfaces

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/oleandersen/pickup-orders/internal/domain"
)

// Commands for the checkout side
type PlaceOrderCommand struct {
	CustomerName  string
	PickupMode    string
	RequestedDate string
	RequestedTime string
	Items         []PlaceOrderItemCommand
}

type PlaceOrderItemCommand struct {
	Name     string
	Quantity int
	Price    float64
}

// PickupOptions is what the checkout UI renders for a date.
type PickupOptions struct {
	Date          string
	ASAPAvailable bool
	Slots         []string
}

type CheckoutService interface {
	PickupOptions(ctx context.Context, date string) (*PickupOptions, error)
	PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (*domain.Order, error)
}

// OrderStatusResponse is the dashboard view of a single order, countdown
// included.
type OrderStatusResponse struct {
	OrderID            string
	CustomerName       string
	PickupMode         domain.PickupMode
	Status             domain.Status
	RemainingSeconds   *int64
	Ready              bool
	AutoCancelDeadline *time.Time
	PrepDeadline       *time.Time
	RejectionReason    *string
}

type DashboardService interface {
	Accept(ctx context.Context, orderID uuid.UUID, estimatedPrepMinutes int) (*domain.Order, error)
	Reject(ctx context.Context, orderID uuid.UUID, reason string) (*domain.Order, error)
	Complete(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
	OrderStatus(ctx context.Context, orderID uuid.UUID) (*OrderStatusResponse, error)
	OrderHistory(ctx context.Context, orderID uuid.UUID) ([]*domain.StatusLog, error)
}
