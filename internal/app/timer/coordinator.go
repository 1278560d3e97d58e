package timer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oleandersen/pickup-orders/internal/adapter/logger"
	"github.com/oleandersen/pickup-orders/internal/domain"
	"github.com/oleandersen/pickup-orders/internal/interfaces"
)

// Purpose identifies what a countdown is for. An order has at most one live
// task per purpose.
type Purpose string

const (
	// PurposeAutoCancel counts down a pending ASAP order's acknowledgement
	// window and cancels the order when it elapses.
	PurposeAutoCancel Purpose = "auto_cancel"
	// PurposePrepReady counts down an accepted ASAP order's preparation
	// estimate. Elapsing only flips the visual ready flag, never the status.
	PurposePrepReady Purpose = "prep_ready"
)

// AutoCanceller is the slice of the lifecycle manager the coordinator needs.
type AutoCanceller interface {
	AutoCancel(ctx context.Context, orderID uuid.UUID) (*domain.Order, bool, error)
}

type taskKey struct {
	orderID uuid.UUID
	purpose Purpose
}

type task struct {
	key      taskKey
	deadline time.Time
	stop     chan struct{}
}

// Coordinator owns one goroutine per (order, purpose) countdown. Remaining
// time is always derived from the order's absolute deadline, so an instance
// built after a restart re-registers from persisted deadlines and stays
// correct without any handshake. Firing is keyed to now >= deadline and
// happens at most once per task: the task removes itself from the table
// before acting, making a duplicate fire impossible.
type Coordinator struct {
	mu    sync.Mutex
	tasks map[taskKey]*task
	wg    sync.WaitGroup

	lifecycle AutoCanceller
	countdown interfaces.CountdownCache
	log       logger.Logger
	now       func() time.Time
	tick      time.Duration
}

func NewCoordinator(lifecycle AutoCanceller, countdown interfaces.CountdownCache, log logger.Logger) *Coordinator {
	return &Coordinator{
		tasks:     make(map[taskKey]*task),
		lifecycle: lifecycle,
		countdown: countdown,
		log:       log,
		now:       time.Now,
		tick:      time.Second,
	}
}

// Register schedules whichever countdown the order currently needs, if any.
// Re-registering an order that already has a live task for the same purpose
// is a no-op, so message redelivery and startup rehydration are safe.
func (c *Coordinator) Register(order *domain.Order) {
	if order == nil {
		return
	}

	switch {
	case order.Status == domain.StatusPending && order.AutoCancelDeadline != nil:
		c.schedule(order.ID, PurposeAutoCancel, *order.AutoCancelDeadline)
	case order.Status == domain.StatusAccepted && order.PrepDeadline != nil:
		c.schedule(order.ID, PurposePrepReady, *order.PrepDeadline)
	}
}

// Deregister cancels the countdown for one (order, purpose) pair. Called on
// every status change so a stale timer can never fire late.
func (c *Coordinator) Deregister(orderID uuid.UUID, purpose Purpose) {
	key := taskKey{orderID: orderID, purpose: purpose}

	c.mu.Lock()
	t, ok := c.tasks[key]
	if ok {
		delete(c.tasks, key)
	}
	c.mu.Unlock()

	if ok {
		close(t.stop)
		c.log.Debug("timer_deregistered", "Countdown cancelled", orderID.String(), map[string]interface{}{
			"purpose": string(purpose),
		})
	}
}

// DeregisterAll tears down every live countdown and waits for the task
// goroutines to exit. Used on shutdown.
func (c *Coordinator) DeregisterAll() {
	c.mu.Lock()
	for key, t := range c.tasks {
		delete(c.tasks, key)
		close(t.stop)
	}
	c.mu.Unlock()

	c.wg.Wait()
}

// ActiveTasks reports the number of live countdowns.
func (c *Coordinator) ActiveTasks() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tasks)
}

func (c *Coordinator) schedule(orderID uuid.UUID, purpose Purpose, deadline time.Time) {
	key := taskKey{orderID: orderID, purpose: purpose}

	c.mu.Lock()
	if _, ok := c.tasks[key]; ok {
		c.mu.Unlock()
		return
	}
	t := &task{key: key, deadline: deadline, stop: make(chan struct{})}
	c.tasks[key] = t
	c.wg.Add(1)
	c.mu.Unlock()

	c.log.Debug("timer_registered", "Countdown started", orderID.String(), map[string]interface{}{
		"purpose":  string(purpose),
		"deadline": deadline.UTC().Format(time.RFC3339),
	})

	go c.run(t)
}

func (c *Coordinator) run(t *task) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	ctx := context.Background()
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			now := c.now()

			remaining := t.deadline.Sub(now)
			if remaining < 0 {
				remaining = 0
			}
			if err := c.countdown.SetRemaining(ctx, t.key.orderID.String(), string(t.key.purpose), remaining); err != nil {
				c.log.Debug("countdown_publish_failed", "Failed to publish remaining time", t.key.orderID.String(), nil)
			}

			if !now.Before(t.deadline) {
				// Claim the task before acting; whoever removes it from
				// the table is the only one allowed to fire.
				if c.remove(t) {
					c.fire(ctx, t)
				}
				return
			}
		}
	}
}

func (c *Coordinator) remove(t *task) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if current, ok := c.tasks[t.key]; ok && current == t {
		delete(c.tasks, t.key)
		return true
	}
	return false
}

func (c *Coordinator) fire(ctx context.Context, t *task) {
	orderID := t.key.orderID

	switch t.key.purpose {
	case PurposeAutoCancel:
		_, cancelled, err := c.lifecycle.AutoCancel(ctx, orderID)
		switch {
		case err != nil:
			c.log.Error("auto_cancel_failed", "Auto-cancel transition failed", orderID.String(), nil, err)
		case cancelled:
			c.log.Info("order_auto_cancelled", "Pending order was not acknowledged in time", orderID.String(), nil)
		default:
			c.log.Debug("auto_cancel_stale", "Order settled before the deadline fired", orderID.String(), nil)
		}

	case PurposePrepReady:
		if err := c.countdown.MarkReady(ctx, orderID.String()); err != nil {
			c.log.Error("mark_ready_failed", "Failed to flag order as ready", orderID.String(), nil, err)
			return
		}
		c.log.Info("order_ready", "Preparation countdown elapsed", orderID.String(), nil)
	}
}
