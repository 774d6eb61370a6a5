package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hoangnm/variant-sync/internal/core/domain"
	"github.com/hoangnm/variant-sync/internal/port"
)

// Mock DedupCache
type mockCache struct {
	mu       sync.Mutex
	marked   map[string]bool
	checkErr error
	markErr  error
}

func newMockCache() *mockCache {
	return &mockCache{marked: make(map[string]bool)}
}

func (m *mockCache) WasRecentlyUpdated(ctx context.Context, inventoryItemID string) (bool, error) {
	if m.checkErr != nil {
		return false, m.checkErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.marked[inventoryItemID], nil
}

func (m *mockCache) MarkUpdated(ctx context.Context, inventoryItemID string) error {
	if m.markErr != nil {
		return m.markErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marked[inventoryItemID] = true
	return nil
}

// Mock OutcomePublisher
type mockPublisher struct {
	mu      sync.Mutex
	reports []domain.SyncReport
	err     error
}

func (m *mockPublisher) PublishReport(ctx context.Context, report domain.SyncReport) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	m.reports = append(m.reports, report)
	m.mu.Unlock()
	return nil
}

func newSyncService(gw *mockGateway, cache *mockCache, pub *mockPublisher) *SyncService {
	logger := zap.NewNop()
	return NewSyncService(
		cache,
		NewResolver(gw),
		NewPropagator(gw, 2, time.Second, logger),
		pub,
		logger,
	)
}

func intPtr(v int) *int { return &v }

func validEvent() domain.InventoryUpdateEvent {
	return domain.InventoryUpdateEvent{
		InventoryItemID: "I1",
		LocationID:      "L1",
		Available:       intPtr(7),
	}
}

func threeVariantGateway() *mockGateway {
	return &mockGateway{
		productID: "p1",
		members: []domain.VariantRef{
			{VariantID: "v1", InventoryItemID: "I1"},
			{VariantID: "v2", InventoryItemID: "I2"},
			{VariantID: "v3", InventoryItemID: "I3"},
		},
	}
}

func TestHandleInventoryUpdate_MissingFieldsRejected(t *testing.T) {
	gw := threeVariantGateway()
	svc := newSyncService(gw, newMockCache(), &mockPublisher{})

	events := []domain.InventoryUpdateEvent{
		{LocationID: "L1", Available: intPtr(7)},
		{InventoryItemID: "I1", Available: intPtr(7)},
		{InventoryItemID: "I1", LocationID: "L1"},
	}

	for _, ev := range events {
		if _, err := svc.HandleInventoryUpdate(context.Background(), ev); !errors.Is(err, ErrInvalidEvent) {
			t.Errorf("expected ErrInvalidEvent for %+v, got: %v", ev, err)
		}
	}

	if len(gw.calls()) != 0 {
		t.Errorf("expected zero upstream calls, got %d", len(gw.calls()))
	}
}

func TestHandleInventoryUpdate_ZeroAvailableIsValid(t *testing.T) {
	gw := threeVariantGateway()
	svc := newSyncService(gw, newMockCache(), &mockPublisher{})

	ev := validEvent()
	ev.Available = intPtr(0)

	report, err := svc.HandleInventoryUpdate(context.Background(), ev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Attempted != 2 || report.Succeeded != 2 {
		t.Errorf("expected 2/2, got %d/%d", report.Succeeded, report.Attempted)
	}
	for _, c := range gw.calls() {
		if c.Quantity != 0 {
			t.Errorf("expected quantity 0 propagated, got %d", c.Quantity)
		}
	}
}

func TestHandleInventoryUpdate_SyncsSiblings(t *testing.T) {
	gw := threeVariantGateway()
	cache := newMockCache()
	pub := &mockPublisher{}
	svc := newSyncService(gw, cache, pub)

	report, err := svc.HandleInventoryUpdate(context.Background(), validEvent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Deduped {
		t.Error("expected a fresh sync, not a dedup hit")
	}
	if report.ProductID != "p1" {
		t.Errorf("expected product p1, got %s", report.ProductID)
	}
	if report.Attempted != 2 || report.Succeeded != 2 {
		t.Errorf("expected 2/2, got %d/%d", report.Succeeded, report.Attempted)
	}
	if report.SyncID == "" {
		t.Error("expected a sync id")
	}

	calls := gw.calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 set-quantity calls, got %d", len(calls))
	}
	for _, c := range calls {
		if c.ItemID == "I1" {
			t.Error("origin must not be targeted")
		}
		if c.LocationID != "L1" || c.Quantity != 7 {
			t.Errorf("unexpected call %+v", c)
		}
	}

	// origin and both succeeded siblings marked
	for _, id := range []string{"I1", "I2", "I3"} {
		if !cache.marked[id] {
			t.Errorf("expected %s marked in dedup cache", id)
		}
	}

	if len(pub.reports) != 1 {
		t.Fatalf("expected 1 published report, got %d", len(pub.reports))
	}
	if pub.reports[0].SyncID != report.SyncID {
		t.Error("published report does not match returned report")
	}
}

func TestHandleInventoryUpdate_DedupHitShortCircuits(t *testing.T) {
	gw := threeVariantGateway()
	cache := newMockCache()
	cache.marked["I1"] = true
	svc := newSyncService(gw, cache, &mockPublisher{})

	report, err := svc.HandleInventoryUpdate(context.Background(), validEvent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !report.Deduped {
		t.Error("expected dedup hit")
	}
	if len(gw.calls()) != 0 {
		t.Errorf("expected zero upstream calls on dedup hit, got %d", len(gw.calls()))
	}
}

func TestHandleInventoryUpdate_RepeatWithinWindow(t *testing.T) {
	gw := threeVariantGateway()
	cache := newMockCache()
	svc := newSyncService(gw, cache, &mockPublisher{})

	if _, err := svc.HandleInventoryUpdate(context.Background(), validEvent()); err != nil {
		t.Fatalf("first event failed: %v", err)
	}
	callsAfterFirst := len(gw.calls())

	report, err := svc.HandleInventoryUpdate(context.Background(), validEvent())
	if err != nil {
		t.Fatalf("second event failed: %v", err)
	}

	if !report.Deduped {
		t.Error("expected repeat event to be deduped")
	}
	if len(gw.calls()) != callsAfterFirst {
		t.Errorf("expected no additional upstream calls, got %d more", len(gw.calls())-callsAfterFirst)
	}
}

func TestHandleInventoryUpdate_PartialFailureStillSucceeds(t *testing.T) {
	gw := threeVariantGateway()
	gw.userErrors = map[domain.ID][]port.UserError{
		"I3": {{Field: []string{"quantities"}, Message: "invalid quantity"}},
	}
	cache := newMockCache()
	pub := &mockPublisher{}
	svc := newSyncService(gw, cache, pub)

	report, err := svc.HandleInventoryUpdate(context.Background(), validEvent())
	if err != nil {
		t.Fatalf("partial failure must not fail the request: %v", err)
	}

	if report.Attempted != 2 || report.Succeeded != 1 {
		t.Errorf("expected 1/2, got %d/%d", report.Succeeded, report.Attempted)
	}
	failed := report.Failed()
	if len(failed) != 1 || failed[0].InventoryItemID != "I3" {
		t.Fatalf("expected I3 recorded as failed, got %+v", failed)
	}
	if failed[0].ErrorKind != domain.ErrorKindUserError {
		t.Errorf("expected user_error kind, got %q", failed[0].ErrorKind)
	}

	// failed member must not be marked; its own corrective event should
	// not be suppressed
	if cache.marked["I3"] {
		t.Error("failed member must not be marked in dedup cache")
	}
	if !cache.marked["I1"] || !cache.marked["I2"] {
		t.Error("origin and succeeded member should be marked")
	}

	// failure is surfaced through the published report
	if len(pub.reports) != 1 || len(pub.reports[0].Failed()) != 1 {
		t.Error("expected published report carrying the failure")
	}
}

func TestHandleInventoryUpdate_ResolverFailureFatal(t *testing.T) {
	resolveErr := errors.New("upstream unavailable")
	gw := &mockGateway{resolveErr: resolveErr}
	cache := newMockCache()
	pub := &mockPublisher{}
	svc := newSyncService(gw, cache, pub)

	_, err := svc.HandleInventoryUpdate(context.Background(), validEvent())
	if !errors.Is(err, resolveErr) {
		t.Fatalf("expected resolver error, got: %v", err)
	}

	if len(gw.calls()) != 0 {
		t.Error("expected no propagation after resolver failure")
	}
	if len(cache.marked) != 0 {
		t.Error("expected no dedup marks after resolver failure")
	}
	if len(pub.reports) != 0 {
		t.Error("expected no published report after resolver failure")
	}
}

func TestHandleInventoryUpdate_CacheReadErrorTreatedAsMiss(t *testing.T) {
	gw := threeVariantGateway()
	cache := newMockCache()
	cache.checkErr = errors.New("redis down")
	svc := newSyncService(gw, cache, &mockPublisher{})

	report, err := svc.HandleInventoryUpdate(context.Background(), validEvent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Deduped {
		t.Error("cache failure must not look like a dedup hit")
	}
	if len(gw.calls()) != 2 {
		t.Errorf("expected sync to proceed, got %d calls", len(gw.calls()))
	}
}

func TestHandleInventoryUpdate_PublishFailureIsNonFatal(t *testing.T) {
	gw := threeVariantGateway()
	pub := &mockPublisher{err: errors.New("broker down")}
	svc := newSyncService(gw, newMockCache(), pub)

	report, err := svc.HandleInventoryUpdate(context.Background(), validEvent())
	if err != nil {
		t.Fatalf("expected publish failure to be swallowed, got: %v", err)
	}
	if report.Succeeded != 2 {
		t.Errorf("expected 2 successes, got %d", report.Succeeded)
	}
}
