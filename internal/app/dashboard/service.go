package dashboard

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/oleandersen/pickup-orders/internal/adapter/logger"
	"github.com/oleandersen/pickup-orders/internal/app/lifecycle"
	"github.com/oleandersen/pickup-orders/internal/app/timer"
	"github.com/oleandersen/pickup-orders/internal/domain"
	"github.com/oleandersen/pickup-orders/internal/interfaces"
)

// Service is the restaurant-facing side: it accepts, rejects and completes
// orders through the lifecycle manager and keeps the timer coordinator in
// step with every status change.
type Service struct {
	manager     *lifecycle.Manager
	coordinator *timer.Coordinator
	orders      interfaces.OrderRepository
	countdown   interfaces.CountdownCache
	log         logger.Logger
}

func NewService(
	manager *lifecycle.Manager,
	coordinator *timer.Coordinator,
	orders interfaces.OrderRepository,
	countdown interfaces.CountdownCache,
	log logger.Logger,
) *Service {
	return &Service{
		manager:     manager,
		coordinator: coordinator,
		orders:      orders,
		countdown:   countdown,
		log:         log,
	}
}

// Rehydrate re-registers countdowns for every active order after a restart.
// Deadlines are absolute timestamps on the orders themselves, so remaining
// time comes out right no matter how long the process was down.
func (s *Service) Rehydrate(ctx context.Context) error {
	orders, err := s.orders.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active orders: %w", err)
	}

	for _, order := range orders {
		s.manager.Track(order)
		s.coordinator.Register(order)
	}

	s.log.Info("timers_rehydrated", "Re-registered countdowns from persisted deadlines", "startup", map[string]interface{}{
		"orders": len(orders),
	})
	return nil
}

// HandleOrderSubmitted reacts to a new-order announcement from checkout.
// The database row is the source of truth; the message is only a nudge.
func (s *Service) HandleOrderSubmitted(ctx context.Context, msg interfaces.OrderSubmittedMessage) error {
	id, err := uuid.Parse(msg.OrderID)
	if err != nil {
		s.log.Error("order_message_invalid", "Order announcement carries a bad id", msg.OrderID, nil, err)
		return nil // not retryable
	}

	order, err := s.manager.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load announced order %s: %w", msg.OrderID, err)
	}

	s.coordinator.Register(order)
	s.log.Info("order_received", "New order on the dashboard", msg.OrderID, map[string]interface{}{
		"pickup_mode": string(order.PickupMode),
	})
	return nil
}

// Accept acknowledges a pending order. On success the auto-cancel countdown
// is torn down and, for ASAP orders, the preparation countdown starts.
func (s *Service) Accept(ctx context.Context, orderID uuid.UUID, estimatedPrepMinutes int) (*domain.Order, error) {
	order, err := s.manager.Accept(ctx, orderID, estimatedPrepMinutes)
	if err != nil {
		return order, err
	}

	s.coordinator.Deregister(orderID, timer.PurposeAutoCancel)
	if order.Status == domain.StatusAccepted {
		s.coordinator.Register(order)
	}
	return order, nil
}

// Reject declines a pending order and tears down its auto-cancel countdown.
func (s *Service) Reject(ctx context.Context, orderID uuid.UUID, reason string) (*domain.Order, error) {
	order, err := s.manager.Reject(ctx, orderID, reason)
	if err != nil {
		return order, err
	}

	s.coordinator.Deregister(orderID, timer.PurposeAutoCancel)
	return order, nil
}

// Complete hands the order over and clears its countdown state.
func (s *Service) Complete(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.manager.Complete(ctx, orderID)
	if err != nil {
		return order, err
	}

	s.coordinator.Deregister(orderID, timer.PurposePrepReady)
	if err := s.countdown.Clear(ctx, orderID.String()); err != nil {
		s.log.Debug("countdown_clear_failed", "Failed to clear countdown entries", orderID.String(), nil)
	}
	return order, nil
}

// OrderStatus returns the dashboard view of one order: current status plus
// the live countdown value and ready flag.
func (s *Service) OrderStatus(ctx context.Context, orderID uuid.UUID) (*interfaces.OrderStatusResponse, error) {
	order, err := s.manager.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	resp := &interfaces.OrderStatusResponse{
		OrderID:            order.ID.String(),
		CustomerName:       order.CustomerName,
		PickupMode:         order.PickupMode,
		Status:             order.Status,
		AutoCancelDeadline: order.AutoCancelDeadline,
		PrepDeadline:       order.PrepDeadline,
		RejectionReason:    order.RejectionReason,
	}

	purpose := ""
	switch {
	case order.Status == domain.StatusPending && order.AutoCancelDeadline != nil:
		purpose = string(timer.PurposeAutoCancel)
	case order.Status == domain.StatusAccepted && order.PrepDeadline != nil:
		purpose = string(timer.PurposePrepReady)
	}
	if purpose != "" {
		if remaining, ok, err := s.countdown.GetRemaining(ctx, orderID.String(), purpose); err == nil && ok {
			seconds := int64(remaining.Seconds())
			resp.RemainingSeconds = &seconds
		}
	}

	if order.Status == domain.StatusAccepted {
		if ready, err := s.countdown.IsReady(ctx, orderID.String()); err == nil {
			resp.Ready = ready
		}
	}

	return resp, nil
}

// OrderHistory returns the audit trail of status changes.
func (s *Service) OrderHistory(ctx context.Context, orderID uuid.UUID) ([]*domain.StatusLog, error) {
	return s.orders.GetStatusHistory(ctx, orderID)
}

// Shutdown tears down all countdowns; they rebuild from persisted deadlines
// on the next start.
func (s *Service) Shutdown() {
	s.coordinator.DeregisterAll()
}
