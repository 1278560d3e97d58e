package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AutoCancelWindow is the grace period a pending ASAP order waits for
// restaurant acknowledgement before it is cancelled automatically.
const AutoCancelWindow = 3 * time.Minute

var (
	ErrMissingPrepEstimate = errors.New("preparation estimate is required for asap orders")
	ErrMissingReason       = errors.New("rejection reason is required")
	ErrStaleTransition     = errors.New("order status no longer allows this transition")
	ErrOrderNotFound       = errors.New("order not found")
	ErrSlotUnavailable     = errors.New("requested pickup time is not available")
	ErrInvalidPickupMode   = errors.New("invalid pickup mode")
)

// Order represents a pickup order entity. All status-changing mutations go
// through the guarded transition methods below; callers that share an order
// between goroutines must serialize those calls (see lifecycle.Manager).
type Order struct {
	ID           uuid.UUID
	CustomerName string
	Items        []OrderItem
	TotalAmount  float64

	PickupMode    PickupMode
	RequestedDate string // "2006-01-02", scheduled orders only
	RequestedTime string // "15:04", scheduled orders only

	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time

	AcceptedAt           *time.Time
	AutoCancelDeadline   *time.Time // present iff pending ASAP
	EstimatedPrepMinutes *int
	PrepDeadline         *time.Time // present iff accepted ASAP with an estimate
	RejectionReason      *string
}

// OrderItem represents a line item in an order
type OrderItem struct {
	ID       int
	OrderID  uuid.UUID
	Name     string
	Quantity int
	Price    float64
}

// NewOrder creates a pending order. ASAP orders get an absolute auto-cancel
// deadline so countdowns survive process restarts.
func NewOrder(customerName string, mode PickupMode, requestedDate, requestedTime string, items []OrderItem, now time.Time) (*Order, error) {
	switch mode {
	case PickupModeASAP:
	case PickupModeScheduled:
		if requestedDate == "" || requestedTime == "" {
			return nil, errors.New("scheduled orders require a pickup date and time")
		}
	default:
		return nil, ErrInvalidPickupMode
	}

	order := &Order{
		ID:            uuid.New(),
		CustomerName:  customerName,
		Items:         items,
		PickupMode:    mode,
		RequestedDate: requestedDate,
		RequestedTime: requestedTime,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	order.CalculateTotal()

	if mode == PickupModeASAP {
		deadline := now.Add(AutoCancelWindow)
		order.AutoCancelDeadline = &deadline
	}

	return order, nil
}

// CalculateTotal recalculates the order total from its items.
func (o *Order) CalculateTotal() {
	total := 0.0
	for _, item := range o.Items {
		total += item.Price * float64(item.Quantity)
	}
	o.TotalAmount = total
}

// Accept transitions a pending order to accepted. ASAP orders require a
// positive preparation estimate, which fixes the prep deadline.
func (o *Order) Accept(now time.Time, estimatedPrepMinutes int) error {
	if o.PickupMode == PickupModeASAP && estimatedPrepMinutes <= 0 {
		return ErrMissingPrepEstimate
	}
	if o.Status != StatusPending {
		return ErrStaleTransition
	}

	o.Status = StatusAccepted
	acceptedAt := now
	o.AcceptedAt = &acceptedAt
	o.AutoCancelDeadline = nil
	if o.PickupMode == PickupModeASAP {
		o.EstimatedPrepMinutes = &estimatedPrepMinutes
		prepDeadline := now.Add(time.Duration(estimatedPrepMinutes) * time.Minute)
		o.PrepDeadline = &prepDeadline
	}
	o.UpdatedAt = now
	return nil
}

// Reject transitions a pending order to rejected.
func (o *Order) Reject(now time.Time, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrMissingReason
	}
	if o.Status != StatusPending {
		return ErrStaleTransition
	}

	o.Status = StatusRejected
	o.RejectionReason = &reason
	o.AutoCancelDeadline = nil
	o.UpdatedAt = now
	return nil
}

// Complete transitions an accepted order to completed.
func (o *Order) Complete(now time.Time) error {
	if o.Status != StatusAccepted {
		return ErrStaleTransition
	}

	o.Status = StatusCompleted
	o.PrepDeadline = nil
	o.UpdatedAt = now
	return nil
}

// AutoCancel is the system-triggered cancellation of an unacknowledged ASAP
// order. It applies only while the order is still pending and its deadline
// has passed; anything else is a stale attempt.
func (o *Order) AutoCancel(now time.Time) error {
	if o.Status != StatusPending {
		return ErrStaleTransition
	}
	if o.AutoCancelDeadline == nil || now.Before(*o.AutoCancelDeadline) {
		return ErrStaleTransition
	}

	o.Status = StatusAutoCancelled
	o.AutoCancelDeadline = nil
	o.UpdatedAt = now
	return nil
}
