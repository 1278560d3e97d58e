package timer

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/oleandersen/pickup-orders/internal/domain"
)

// Mock AutoCanceller
type mockCanceller struct {
	mu        sync.Mutex
	cancelled map[uuid.UUID]int
	result    bool
}

func newMockCanceller(result bool) *mockCanceller {
	return &mockCanceller{cancelled: make(map[uuid.UUID]int), result: result}
}

func (m *mockCanceller) AutoCancel(ctx context.Context, orderID uuid.UUID) (*domain.Order, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelled[orderID]++
	return &domain.Order{ID: orderID}, m.result, nil
}

func (m *mockCanceller) calls(orderID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancelled[orderID]
}

// Mock CountdownCache
type mockCountdownCache struct {
	mu        sync.Mutex
	remaining map[string]time.Duration
	ready     map[string]bool
	sets      atomic.Int32
}

func newMockCountdownCache() *mockCountdownCache {
	return &mockCountdownCache{
		remaining: make(map[string]time.Duration),
		ready:     make(map[string]bool),
	}
}

func (m *mockCountdownCache) SetRemaining(ctx context.Context, orderID, purpose string, remaining time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remaining[orderID+":"+purpose] = remaining
	m.sets.Add(1)
	return nil
}

func (m *mockCountdownCache) GetRemaining(ctx context.Context, orderID, purpose string) (time.Duration, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.remaining[orderID+":"+purpose]
	return d, ok, nil
}

func (m *mockCountdownCache) MarkReady(ctx context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ready[orderID] = true
	return nil
}

func (m *mockCountdownCache) IsReady(ctx context.Context, orderID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready[orderID], nil
}

func (m *mockCountdownCache) Clear(ctx context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.ready, orderID)
	return nil
}

type nopLogger struct{}

func (nopLogger) Info(action, message, requestID string, details map[string]interface{})  {}
func (nopLogger) Debug(action, message, requestID string, details map[string]interface{}) {}
func (nopLogger) Error(action, message, requestID string, details map[string]interface{}, err error) {
}

func newTestCoordinator(lc AutoCanceller, cache *mockCountdownCache) *Coordinator {
	c := NewCoordinator(lc, cache, nopLogger{})
	c.tick = 5 * time.Millisecond
	return c
}

func pendingOrder(deadline time.Time) *domain.Order {
	return &domain.Order{
		ID:                 uuid.New(),
		Status:             domain.StatusPending,
		AutoCancelDeadline: &deadline,
	}
}

func acceptedOrder(deadline time.Time) *domain.Order {
	return &domain.Order{
		ID:           uuid.New(),
		Status:       domain.StatusAccepted,
		PrepDeadline: &deadline,
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestAutoCancel_FiresOnceAtDeadline(t *testing.T) {
	lc := newMockCanceller(true)
	cache := newMockCountdownCache()
	c := newTestCoordinator(lc, cache)
	defer c.DeregisterAll()

	order := pendingOrder(time.Now().Add(20 * time.Millisecond))
	c.Register(order)

	waitFor(t, time.Second, func() bool { return lc.calls(order.ID) > 0 })

	// The task removed itself before firing, so extra ticks cannot repeat it.
	time.Sleep(30 * time.Millisecond)
	if got := lc.calls(order.ID); got != 1 {
		t.Errorf("auto-cancel fired %d times, want 1", got)
	}
	if c.ActiveTasks() != 0 {
		t.Errorf("active tasks = %d, want 0", c.ActiveTasks())
	}
}

func TestDeregister_StopsCountdownBeforeDeadline(t *testing.T) {
	lc := newMockCanceller(true)
	cache := newMockCountdownCache()
	c := newTestCoordinator(lc, cache)
	defer c.DeregisterAll()

	order := pendingOrder(time.Now().Add(60 * time.Millisecond))
	c.Register(order)
	c.Deregister(order.ID, PurposeAutoCancel)

	time.Sleep(90 * time.Millisecond)
	if got := lc.calls(order.ID); got != 0 {
		t.Errorf("auto-cancel fired %d times after deregister, want 0", got)
	}
	if c.ActiveTasks() != 0 {
		t.Errorf("active tasks = %d, want 0", c.ActiveTasks())
	}
}

func TestRegister_DuplicateIsNoOp(t *testing.T) {
	lc := newMockCanceller(true)
	cache := newMockCountdownCache()
	c := newTestCoordinator(lc, cache)
	defer c.DeregisterAll()

	order := pendingOrder(time.Now().Add(time.Hour))
	c.Register(order)
	c.Register(order)
	c.Register(order)

	if got := c.ActiveTasks(); got != 1 {
		t.Errorf("active tasks = %d, want 1", got)
	}
}

func TestRegister_IgnoresSettledOrders(t *testing.T) {
	lc := newMockCanceller(true)
	cache := newMockCountdownCache()
	c := newTestCoordinator(lc, cache)
	defer c.DeregisterAll()

	deadline := time.Now().Add(time.Hour)
	rejected := &domain.Order{ID: uuid.New(), Status: domain.StatusRejected, AutoCancelDeadline: &deadline}
	scheduled := &domain.Order{ID: uuid.New(), Status: domain.StatusPending}

	c.Register(nil)
	c.Register(rejected)
	c.Register(scheduled) // no deadline, nothing to count down

	if got := c.ActiveTasks(); got != 0 {
		t.Errorf("active tasks = %d, want 0", got)
	}
}

func TestPrepReady_FlagsWithoutStatusChange(t *testing.T) {
	lc := newMockCanceller(true)
	cache := newMockCountdownCache()
	c := newTestCoordinator(lc, cache)
	defer c.DeregisterAll()

	order := acceptedOrder(time.Now().Add(20 * time.Millisecond))
	c.Register(order)

	waitFor(t, time.Second, func() bool {
		ready, _ := cache.IsReady(context.Background(), order.ID.String())
		return ready
	})

	if got := lc.calls(order.ID); got != 0 {
		t.Errorf("prep-ready elapsing triggered %d auto-cancels, want 0", got)
	}
}

func TestTick_PublishesRemainingTime(t *testing.T) {
	lc := newMockCanceller(true)
	cache := newMockCountdownCache()
	c := newTestCoordinator(lc, cache)
	defer c.DeregisterAll()

	order := pendingOrder(time.Now().Add(time.Hour))
	c.Register(order)

	waitFor(t, time.Second, func() bool { return cache.sets.Load() > 0 })

	remaining, ok, err := cache.GetRemaining(context.Background(), order.ID.String(), string(PurposeAutoCancel))
	if err != nil || !ok {
		t.Fatalf("expected a published remaining value, ok=%v err=%v", ok, err)
	}
	if remaining <= 0 || remaining > time.Hour {
		t.Errorf("remaining = %v, want within (0, 1h]", remaining)
	}
}

func TestRehydratedTask_KeepsAbsoluteDeadline(t *testing.T) {
	lc := newMockCanceller(true)
	cache := newMockCountdownCache()
	c := newTestCoordinator(lc, cache)
	defer c.DeregisterAll()

	// A deadline that already passed, as after a crash and restart. The
	// countdown must fire immediately instead of starting over.
	order := pendingOrder(time.Now().Add(-time.Minute))
	c.Register(order)

	waitFor(t, time.Second, func() bool { return lc.calls(order.ID) > 0 })

	remaining, ok, _ := cache.GetRemaining(context.Background(), order.ID.String(), string(PurposeAutoCancel))
	if ok && remaining != 0 {
		t.Errorf("remaining = %v, want clamped to 0", remaining)
	}
}

func TestDeregisterAll_StopsEverything(t *testing.T) {
	lc := newMockCanceller(true)
	cache := newMockCountdownCache()
	c := newTestCoordinator(lc, cache)

	for i := 0; i < 5; i++ {
		c.Register(pendingOrder(time.Now().Add(time.Hour)))
		c.Register(acceptedOrder(time.Now().Add(time.Hour)))
	}
	if got := c.ActiveTasks(); got != 10 {
		t.Fatalf("active tasks = %d, want 10", got)
	}

	c.DeregisterAll()
	if got := c.ActiveTasks(); got != 0 {
		t.Errorf("active tasks after shutdown = %d, want 0", got)
	}
}

func TestStaleFire_ReportedAsNoOp(t *testing.T) {
	// The lifecycle manager reports the cancellation did not apply; the
	// coordinator must still retire the task cleanly.
	lc := newMockCanceller(false)
	cache := newMockCountdownCache()
	c := newTestCoordinator(lc, cache)
	defer c.DeregisterAll()

	order := pendingOrder(time.Now().Add(20 * time.Millisecond))
	c.Register(order)

	waitFor(t, time.Second, func() bool { return lc.calls(order.ID) > 0 })
	waitFor(t, time.Second, func() bool { return c.ActiveTasks() == 0 })
}
