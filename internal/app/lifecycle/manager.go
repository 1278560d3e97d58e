package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oleandersen/pickup-orders/internal/adapter/logger"
	"github.com/oleandersen/pickup-orders/internal/domain"
	"github.com/oleandersen/pickup-orders/internal/interfaces"
)

// Manager is the single writer for order status. It keeps active orders in
// an in-memory registry and applies every transition as a compare-expected-
// status-then-mutate step under one lock, so a user-initiated accept/reject
// racing a timer-initiated auto-cancel resolves to exactly one winner; the
// loser's attempt degrades to a no-op.
//
// Persistence and notification happen after the swap: a persist failure is
// surfaced to the caller but never rolls the in-memory transition back, and
// notification failures are logged and dropped.
type Manager struct {
	mu     sync.Mutex
	active map[uuid.UUID]*domain.Order

	repo      interfaces.OrderRepository
	publisher interfaces.MessagePublisher
	log       logger.Logger
	now       func() time.Time
}

func NewManager(repo interfaces.OrderRepository, publisher interfaces.MessagePublisher, log logger.Logger) *Manager {
	return &Manager{
		active:    make(map[uuid.UUID]*domain.Order),
		repo:      repo,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// Track registers an order in the in-memory registry so later transitions
// operate on one shared instance. Terminal orders are ignored.
func (m *Manager) Track(order *domain.Order) {
	if order == nil || order.Status.Terminal() {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.active[order.ID]; !ok {
		m.active[order.ID] = order
	}
}

// Get returns a snapshot of the order's current state.
func (m *Manager) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, err := m.order(ctx, id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	snap := *order
	m.mu.Unlock()
	return &snap, nil
}

// Accept moves a pending order to accepted. For ASAP orders a positive
// preparation estimate is required and fixes the prep deadline. A non-pending
// order makes this an idempotent no-op returning the current state.
func (m *Manager) Accept(ctx context.Context, id uuid.UUID, estimatedPrepMinutes int) (*domain.Order, error) {
	return m.transition(ctx, id, "order_accepted", func(o *domain.Order) error {
		return o.Accept(m.now(), estimatedPrepMinutes)
	})
}

// Reject moves a pending order to rejected. The reason is mandatory.
func (m *Manager) Reject(ctx context.Context, id uuid.UUID, reason string) (*domain.Order, error) {
	return m.transition(ctx, id, "order_rejected", func(o *domain.Order) error {
		return o.Reject(m.now(), reason)
	})
}

// Complete moves an accepted order to completed.
func (m *Manager) Complete(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return m.transition(ctx, id, "order_completed", func(o *domain.Order) error {
		return o.Complete(m.now())
	})
}

// AutoCancel is invoked by the timer coordinator once an auto-cancel
// deadline has passed. The boolean reports whether the cancellation actually
// applied; a stale attempt (the order was accepted or rejected first) is a
// silent no-op.
func (m *Manager) AutoCancel(ctx context.Context, id uuid.UUID) (*domain.Order, bool, error) {
	order, err := m.order(ctx, id)
	if err != nil {
		return nil, false, err
	}

	m.mu.Lock()
	oldStatus := order.Status
	if err := order.AutoCancel(m.now()); err != nil {
		snap := *order
		m.mu.Unlock()
		m.log.Debug("stale_transition", "Auto-cancel skipped, order already settled", id.String(), map[string]interface{}{
			"status": string(snap.Status),
		})
		return &snap, false, nil
	}
	snap := *order
	m.mu.Unlock()

	err = m.finalize(ctx, &snap, oldStatus, "timer")
	m.retire(&snap, err)
	return &snap, true, err
}

func (m *Manager) transition(ctx context.Context, id uuid.UUID, event string, apply func(*domain.Order) error) (*domain.Order, error) {
	order, err := m.order(ctx, id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	oldStatus := order.Status
	if err := apply(order); err != nil {
		snap := *order
		m.mu.Unlock()
		if errors.Is(err, domain.ErrStaleTransition) {
			m.log.Debug("stale_transition", fmt.Sprintf("Transition %s skipped", event), id.String(), map[string]interface{}{
				"status": string(snap.Status),
			})
			return &snap, nil
		}
		return nil, err
	}
	snap := *order
	m.mu.Unlock()

	err = m.finalize(ctx, &snap, oldStatus, "restaurant")
	m.retire(&snap, err)
	if err != nil {
		return &snap, err
	}
	return &snap, nil
}

// retire drops a settled order from the registry, but only once its terminal
// state is persisted. Dropping earlier would open a window where a concurrent
// transition reloads the stale pending row from the database and applies a
// second status change.
func (m *Manager) retire(order *domain.Order, persistErr error) {
	if !order.Status.Terminal() || persistErr != nil {
		return
	}
	m.mu.Lock()
	delete(m.active, order.ID)
	m.mu.Unlock()
}

// finalize persists the already-applied transition, records the audit log
// entry, and fans out the status update. Only the persist error propagates.
func (m *Manager) finalize(ctx context.Context, order *domain.Order, oldStatus domain.Status, changedBy string) error {
	if err := m.repo.Update(ctx, order); err != nil {
		m.log.Error("persist_failed", "Failed to persist order transition", order.ID.String(), map[string]interface{}{
			"status": string(order.Status),
		}, err)
		return fmt.Errorf("persist order %s: %w", order.ID, err)
	}

	if err := m.repo.LogStatus(ctx, order.ID, order.Status, changedBy); err != nil {
		m.log.Error("status_log_failed", "Failed to record status log entry", order.ID.String(), nil, err)
	}

	msg := interfaces.StatusUpdateMessage{
		OrderID:         order.ID.String(),
		OldStatus:       oldStatus,
		NewStatus:       order.Status,
		ChangedBy:       changedBy,
		RejectionReason: order.RejectionReason,
		PrepDeadline:    order.PrepDeadline,
		Timestamp:       m.now(),
	}
	if err := m.publisher.PublishStatusUpdate(ctx, msg); err != nil {
		// Notification delivery is fire-and-forget; the transition stands.
		m.log.Error("publish_failed", "Failed to publish status update", order.ID.String(), nil, err)
	}

	return nil
}

// order fetches the shared instance from the registry, falling back to the
// repository for orders created before this process started.
func (m *Manager) order(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	m.mu.Lock()
	order, ok := m.active[id]
	m.mu.Unlock()
	if ok {
		return order, nil
	}

	loaded, err := m.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if loaded.Status.Terminal() {
		return loaded, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.active[id]; ok {
		return existing, nil
	}
	m.active[id] = loaded
	return loaded, nil
}
