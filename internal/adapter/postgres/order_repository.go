package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/oleandersen/pickup-orders/internal/domain"
	"github.com/oleandersen/pickup-orders/internal/interfaces"
)

type orderRepository struct {
	db DB
}

func NewOrderRepository(db DB) interfaces.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO orders (id, customer_name, pickup_mode, requested_date, requested_time,
		                    total_amount, status, created_at, updated_at, auto_cancel_deadline)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8, $9, $10)
	`
	_, err = tx.Exec(ctx, query,
		order.ID, order.CustomerName, order.PickupMode, order.RequestedDate, order.RequestedTime,
		order.TotalAmount, order.Status, order.CreatedAt, order.UpdatedAt, order.AutoCancelDeadline,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range order.Items {
		itemQuery := `
			INSERT INTO order_items (order_id, name, quantity, price)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`
		err = tx.QueryRow(ctx, itemQuery,
			order.ID, order.Items[i].Name, order.Items[i].Quantity, order.Items[i].Price,
		).Scan(&order.Items[i].ID)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
		order.Items[i].OrderID = order.ID
	}

	logQuery := `
		INSERT INTO order_status_log (order_id, status, changed_by, changed_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err = tx.Exec(ctx, logQuery, order.ID, order.Status, "checkout", time.Now()); err != nil {
		return fmt.Errorf("failed to log status: %w", err)
	}

	return tx.Commit(ctx)
}

const orderColumns = `
	id, customer_name, pickup_mode, COALESCE(requested_date, ''), COALESCE(requested_time, ''),
	total_amount, status, created_at, updated_at, accepted_at,
	auto_cancel_deadline, estimated_prep_minutes, prep_deadline, rejection_reason
`

func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	itemsQuery := `SELECT id, order_id, name, quantity, price FROM order_items WHERE order_id = $1`
	rows, err := r.db.Query(ctx, itemsQuery, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.Name, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}

	return order, nil
}

func (r *orderRepository) Update(ctx context.Context, order *domain.Order) error {
	query := `
		UPDATE orders
		SET status = $1, updated_at = $2, accepted_at = $3, auto_cancel_deadline = $4,
		    estimated_prep_minutes = $5, prep_deadline = $6, rejection_reason = $7
		WHERE id = $8
	`
	tag, err := r.db.Exec(ctx, query,
		order.Status, order.UpdatedAt, order.AcceptedAt, order.AutoCancelDeadline,
		order.EstimatedPrepMinutes, order.PrepDeadline, order.RejectionReason, order.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) ListActive(ctx context.Context) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE status IN ($1, $2) ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, domain.StatusPending, domain.StatusAccepted)
	if err != nil {
		return nil, fmt.Errorf("failed to list active orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	return orders, nil
}

func (r *orderRepository) LogStatus(ctx context.Context, orderID uuid.UUID, status domain.Status, changedBy string) error {
	query := `
		INSERT INTO order_status_log (order_id, status, changed_by, changed_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.Exec(ctx, query, orderID, status, changedBy, time.Now()); err != nil {
		return fmt.Errorf("failed to log status: %w", err)
	}
	return nil
}

func (r *orderRepository) GetStatusHistory(ctx context.Context, orderID uuid.UUID) ([]*domain.StatusLog, error) {
	query := `
		SELECT id, order_id, status, changed_by, changed_at, notes
		FROM order_status_log
		WHERE order_id = $1
		ORDER BY changed_at ASC
	`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	var logs []*domain.StatusLog
	for rows.Next() {
		var log domain.StatusLog
		if err := rows.Scan(&log.ID, &log.OrderID, &log.Status, &log.ChangedBy, &log.ChangedAt, &log.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan status log: %w", err)
		}
		logs = append(logs, &log)
	}

	return logs, nil
}

func scanOrder(row Row) (*domain.Order, error) {
	var order domain.Order
	err := row.Scan(
		&order.ID, &order.CustomerName, &order.PickupMode, &order.RequestedDate, &order.RequestedTime,
		&order.TotalAmount, &order.Status, &order.CreatedAt, &order.UpdatedAt, &order.AcceptedAt,
		&order.AutoCancelDeadline, &order.EstimatedPrepMinutes, &order.PrepDeadline, &order.RejectionReason,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}
