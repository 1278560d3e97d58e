package lifecycle

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/oleandersen/pickup-orders/internal/domain"
	"github.com/oleandersen/pickup-orders/internal/interfaces"
)

var noon = time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

// Mock OrderRepository
type mockOrderRepo struct {
	mu        sync.Mutex
	orders    map[uuid.UUID]*domain.Order
	updates   int
	updateErr error
	logs      []domain.StatusLog
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[uuid.UUID]*domain.Order)}
}

func (m *mockOrderRepo) Create(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := *order
	m.orders[order.ID] = &snap
	return nil
}

func (m *mockOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	snap := *order
	return &snap, nil
}

func (m *mockOrderRepo) Update(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	snap := *order
	m.orders[order.ID] = &snap
	m.updates++
	return nil
}

func (m *mockOrderRepo) ListActive(ctx context.Context) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var active []*domain.Order
	for _, order := range m.orders {
		if !order.Status.Terminal() {
			snap := *order
			active = append(active, &snap)
		}
	}
	return active, nil
}

func (m *mockOrderRepo) LogStatus(ctx context.Context, orderID uuid.UUID, status domain.Status, changedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, domain.StatusLog{OrderID: orderID.String(), Status: status, ChangedBy: changedBy})
	return nil
}

func (m *mockOrderRepo) GetStatusHistory(ctx context.Context, orderID uuid.UUID) ([]*domain.StatusLog, error) {
	return nil, nil
}

func (m *mockOrderRepo) updateCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updates
}

// Mock MessagePublisher
type mockPublisher struct {
	mu      sync.Mutex
	updates []interfaces.StatusUpdateMessage
}

func (m *mockPublisher) PublishOrderSubmitted(ctx context.Context, msg interfaces.OrderSubmittedMessage) error {
	return nil
}

func (m *mockPublisher) PublishStatusUpdate(ctx context.Context, msg interfaces.StatusUpdateMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, msg)
	return nil
}

func (m *mockPublisher) updateCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.updates)
}

type nopLogger struct{}

func (nopLogger) Info(action, message, requestID string, details map[string]interface{})  {}
func (nopLogger) Debug(action, message, requestID string, details map[string]interface{}) {}
func (nopLogger) Error(action, message, requestID string, details map[string]interface{}, err error) {
}

func newTestManager(repo *mockOrderRepo, pub *mockPublisher) *Manager {
	return NewManager(repo, pub, nopLogger{})
}

func trackedASAPOrder(t *testing.T, m *Manager, repo *mockOrderRepo) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder("Kari", domain.PickupModeASAP, "", "", nil, noon)
	if err != nil {
		t.Fatalf("NewOrder failed: %v", err)
	}
	if err := repo.Create(context.Background(), order); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	m.Track(order)
	return order
}

func TestAccept_BeforeDeadlineBeatsAutoCancel(t *testing.T) {
	repo := newMockOrderRepo()
	pub := &mockPublisher{}
	m := newTestManager(repo, pub)
	order := trackedASAPOrder(t, m, repo)

	// Accept one second before the auto-cancel deadline.
	m.now = func() time.Time { return noon.Add(2*time.Minute + 59*time.Second) }
	accepted, err := m.Accept(context.Background(), order.ID, 20)
	if err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	if accepted.Status != domain.StatusAccepted {
		t.Errorf("status = %s, want accepted", accepted.Status)
	}
	wantPrep := noon.Add(2*time.Minute + 59*time.Second).Add(20 * time.Minute)
	if accepted.PrepDeadline == nil || !accepted.PrepDeadline.Equal(wantPrep) {
		t.Errorf("prep deadline = %v, want %s", accepted.PrepDeadline, wantPrep)
	}

	// A timer tick after the old deadline must be a silent no-op.
	m.now = func() time.Time { return noon.Add(3*time.Minute + 5*time.Second) }
	after, cancelled, err := m.AutoCancel(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("AutoCancel failed: %v", err)
	}
	if cancelled {
		t.Error("auto-cancel must not apply after a successful accept")
	}
	if after.Status != domain.StatusAccepted {
		t.Errorf("status = %s, want accepted", after.Status)
	}
	if pub.updateCount() != 1 {
		t.Errorf("published %d status updates, want 1", pub.updateCount())
	}
}

func TestAutoCancel_FiresExactlyOnce(t *testing.T) {
	repo := newMockOrderRepo()
	pub := &mockPublisher{}
	m := newTestManager(repo, pub)
	order := trackedASAPOrder(t, m, repo)

	m.now = func() time.Time { return noon.Add(3*time.Minute + time.Second) }

	first, cancelled, err := m.AutoCancel(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("AutoCancel failed: %v", err)
	}
	if !cancelled || first.Status != domain.StatusAutoCancelled {
		t.Fatalf("expected the first attempt to cancel, got cancelled=%v status=%s", cancelled, first.Status)
	}

	// A duplicate tick is a no-op.
	second, cancelled, err := m.AutoCancel(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("duplicate AutoCancel failed: %v", err)
	}
	if cancelled {
		t.Error("duplicate auto-cancel must be a no-op")
	}
	if second.Status != domain.StatusAutoCancelled {
		t.Errorf("status = %s, want auto_cancelled", second.Status)
	}
	if repo.updateCount() != 1 {
		t.Errorf("persisted %d updates, want 1", repo.updateCount())
	}
	if pub.updateCount() != 1 {
		t.Errorf("published %d status updates, want 1", pub.updateCount())
	}
}

func TestReject_MissingReason(t *testing.T) {
	repo := newMockOrderRepo()
	pub := &mockPublisher{}
	m := newTestManager(repo, pub)
	order := trackedASAPOrder(t, m, repo)

	if _, err := m.Reject(context.Background(), order.ID, ""); !errors.Is(err, domain.ErrMissingReason) {
		t.Fatalf("expected ErrMissingReason, got %v", err)
	}

	current, err := m.Get(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if current.Status != domain.StatusPending {
		t.Errorf("status = %s, want pending", current.Status)
	}
	if repo.updateCount() != 0 {
		t.Errorf("a failed validation must not persist, got %d updates", repo.updateCount())
	}
}

func TestAccept_MissingPrepEstimate(t *testing.T) {
	repo := newMockOrderRepo()
	pub := &mockPublisher{}
	m := newTestManager(repo, pub)
	order := trackedASAPOrder(t, m, repo)

	if _, err := m.Accept(context.Background(), order.ID, 0); !errors.Is(err, domain.ErrMissingPrepEstimate) {
		t.Fatalf("expected ErrMissingPrepEstimate, got %v", err)
	}
}

func TestConcurrentTransitions_ExactlyOneWins(t *testing.T) {
	repo := newMockOrderRepo()
	pub := &mockPublisher{}
	m := newTestManager(repo, pub)
	order := trackedASAPOrder(t, m, repo)

	// Past the deadline, so accept, reject and auto-cancel all race as
	// eligible transitions.
	m.now = func() time.Time { return noon.Add(4 * time.Minute) }

	var wg sync.WaitGroup
	var applied atomic.Int32
	for i := 0; i < 10; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			if _, cancelled, err := m.AutoCancel(context.Background(), order.ID); err == nil && cancelled {
				applied.Add(1)
			}
		}()
		go func() {
			defer wg.Done()
			m.Accept(context.Background(), order.ID, 15)
		}()
		go func() {
			defer wg.Done()
			m.Reject(context.Background(), order.ID, "closing soon")
		}()
	}
	wg.Wait()

	if applied.Load() > 1 {
		t.Errorf("auto-cancel applied %d times, want at most 1", applied.Load())
	}
	if pub.updateCount() != 1 {
		t.Errorf("published %d status updates, want exactly 1", pub.updateCount())
	}
	if repo.updateCount() != 1 {
		t.Errorf("persisted %d updates, want exactly 1", repo.updateCount())
	}

	final, err := m.Get(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	switch final.Status {
	case domain.StatusAccepted, domain.StatusRejected, domain.StatusAutoCancelled:
	default:
		t.Errorf("final status = %s, want a settled status", final.Status)
	}
}

func TestTransition_RehydratesFromRepository(t *testing.T) {
	repo := newMockOrderRepo()
	pub := &mockPublisher{}

	order, err := domain.NewOrder("Kari", domain.PickupModeASAP, "", "", nil, noon)
	if err != nil {
		t.Fatalf("NewOrder failed: %v", err)
	}
	if err := repo.Create(context.Background(), order); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// A manager built after a restart has an empty registry.
	m := newTestManager(repo, pub)
	m.now = func() time.Time { return noon.Add(time.Minute) }

	accepted, err := m.Accept(context.Background(), order.ID, 10)
	if err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	if accepted.Status != domain.StatusAccepted {
		t.Errorf("status = %s, want accepted", accepted.Status)
	}
}

func TestPersistFailure_SurfacedButNotRolledBack(t *testing.T) {
	repo := newMockOrderRepo()
	pub := &mockPublisher{}
	m := newTestManager(repo, pub)
	order := trackedASAPOrder(t, m, repo)

	repo.mu.Lock()
	repo.updateErr = errors.New("connection reset")
	repo.mu.Unlock()

	m.now = func() time.Time { return noon.Add(time.Minute) }
	accepted, err := m.Accept(context.Background(), order.ID, 10)
	if err == nil {
		t.Fatal("expected the persist error to surface")
	}
	if accepted == nil || accepted.Status != domain.StatusAccepted {
		t.Fatal("in-memory transition must stand despite the persist failure")
	}

	current, err := m.Get(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if current.Status != domain.StatusAccepted {
		t.Errorf("status = %s, want accepted", current.Status)
	}
}

func TestGet_UnknownOrder(t *testing.T) {
	repo := newMockOrderRepo()
	m := newTestManager(repo, &mockPublisher{})

	if _, err := m.Get(context.Background(), uuid.New()); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound, got %v", err)
	}
}
