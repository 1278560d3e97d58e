package interfaces

import (
	"context"

	"github.com/google/uuid"

	"github.com/oleandersen/pickup-orders/internal/domain"
)

// OrderRepository is the persistence contract for orders. The lifecycle
// manager writes through it after every successful transition.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	Update(ctx context.Context, order *domain.Order) error
	// ListActive returns orders that may still need a countdown: pending
	// orders and accepted orders with a prep deadline.
	ListActive(ctx context.Context) ([]*domain.Order, error)
	LogStatus(ctx context.Context, orderID uuid.UUID, status domain.Status, changedBy string) error
	GetStatusHistory(ctx context.Context, orderID uuid.UUID) ([]*domain.StatusLog, error)
}

// ScheduleRepository supplies the restaurant's weekly operating schedule.
type ScheduleRepository interface {
	GetOperatingHours(ctx context.Context) ([]domain.OperatingHours, error)
}
