package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/oleandersen/pickup-orders/internal/adapter/logger"
	"github.com/oleandersen/pickup-orders/internal/domain"
	"github.com/oleandersen/pickup-orders/internal/interfaces"
)

// Service is the customer-facing side: it renders pickup choices from the
// operating schedule and turns a checkout submission into a pending order.
type Service struct {
	orders    interfaces.OrderRepository
	schedules interfaces.ScheduleRepository
	publisher interfaces.MessagePublisher
	log       logger.Logger

	leadTime     time.Duration
	slotInterval time.Duration
	now          func() time.Time
}

func NewService(
	orders interfaces.OrderRepository,
	schedules interfaces.ScheduleRepository,
	publisher interfaces.MessagePublisher,
	log logger.Logger,
	leadTime, slotInterval time.Duration,
) *Service {
	return &Service{
		orders:       orders,
		schedules:    schedules,
		publisher:    publisher,
		log:          log,
		leadTime:     leadTime,
		slotInterval: slotInterval,
		now:          time.Now,
	}
}

// PickupOptions computes ASAP eligibility and the slot list for a date.
// An empty date means today. Closed days come back as an empty option set,
// not an error.
func (s *Service) PickupOptions(ctx context.Context, date string) (*interfaces.PickupOptions, error) {
	now := s.now()

	day := now
	if date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", date, now.Location())
		if err != nil {
			return nil, fmt.Errorf("invalid pickup date %q: %w", date, err)
		}
		day = parsed
	}

	schedule, err := s.schedules.GetOperatingHours(ctx)
	if err != nil {
		return nil, fmt.Errorf("load operating hours: %w", err)
	}

	options := &interfaces.PickupOptions{
		Date:  day.Format("2006-01-02"),
		Slots: domain.GenerateSlots(schedule, day, now, s.slotInterval, s.leadTime),
	}
	if sameDate(day, now) {
		options.ASAPAvailable = domain.IsASAPAvailable(schedule, now, s.leadTime)
	}

	return options, nil
}

// PlaceOrder validates the pickup choice against the live schedule, creates
// the pending order, persists it and announces it to the dashboard.
func (s *Service) PlaceOrder(ctx context.Context, cmd interfaces.PlaceOrderCommand) (*domain.Order, error) {
	now := s.now()

	schedule, err := s.schedules.GetOperatingHours(ctx)
	if err != nil {
		return nil, fmt.Errorf("load operating hours: %w", err)
	}

	mode := domain.PickupMode(cmd.PickupMode)
	switch mode {
	case domain.PickupModeASAP:
		if !domain.IsASAPAvailable(schedule, now, s.leadTime) {
			return nil, domain.ErrSlotUnavailable
		}
	case domain.PickupModeScheduled:
		if err := s.validateSlot(schedule, cmd.RequestedDate, cmd.RequestedTime, now); err != nil {
			return nil, err
		}
	default:
		return nil, domain.ErrInvalidPickupMode
	}

	items := make([]domain.OrderItem, len(cmd.Items))
	for i, item := range cmd.Items {
		items[i] = domain.OrderItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		}
	}

	order, err := domain.NewOrder(cmd.CustomerName, mode, cmd.RequestedDate, cmd.RequestedTime, items, now)
	if err != nil {
		return nil, err
	}

	if err := s.orders.Create(ctx, order); err != nil {
		s.log.Error("order_create_failed", "Failed to persist order", order.ID.String(), nil, err)
		return nil, fmt.Errorf("create order: %w", err)
	}
	s.log.Info("order_placed", "Order created", order.ID.String(), map[string]interface{}{
		"pickup_mode": string(order.PickupMode),
	})

	msg := interfaces.OrderSubmittedMessage{
		OrderID:            order.ID.String(),
		CustomerName:       order.CustomerName,
		PickupMode:         order.PickupMode,
		RequestedDate:      order.RequestedDate,
		RequestedTime:      order.RequestedTime,
		Items:              order.Items,
		TotalAmount:        order.TotalAmount,
		AutoCancelDeadline: order.AutoCancelDeadline,
		CreatedAt:          order.CreatedAt,
	}
	if err := s.publisher.PublishOrderSubmitted(ctx, msg); err != nil {
		// The dashboard rehydrates from the database on startup, so a lost
		// announcement delays acknowledgement rather than losing the order.
		s.log.Error("order_publish_failed", "Failed to announce order", order.ID.String(), nil, err)
	}

	return order, nil
}

func (s *Service) validateSlot(schedule []domain.OperatingHours, date, clock string, now time.Time) error {
	if date == "" || clock == "" {
		return domain.ErrSlotUnavailable
	}

	day, err := time.ParseInLocation("2006-01-02", date, now.Location())
	if err != nil {
		return domain.ErrSlotUnavailable
	}
	if day.Before(time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())) {
		return domain.ErrSlotUnavailable
	}

	for _, slot := range domain.GenerateSlots(schedule, day, now, s.slotInterval, s.leadTime) {
		if slot == clock {
			return nil
		}
	}
	return domain.ErrSlotUnavailable
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
