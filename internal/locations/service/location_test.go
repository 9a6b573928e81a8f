package service

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"

	"lotkeeper/internal/locations/validator"
	"lotkeeper/pkg/config"
	mongotx "lotkeeper/pkg/db/mongo"
	apperrors "lotkeeper/pkg/errors"
	"lotkeeper/pkg/logger"
	"lotkeeper/pkg/model"
)

const testLocationID = "507f1f77bcf86cd799439012"

// ────────────────────────────────────────────────
// Mocks
// ────────────────────────────────────────────────

type mockLocationRepository struct {
	createFunc   func(ctx context.Context, l *model.Location) error
	findByIDFunc func(ctx context.Context, id string) (*model.Location, error)
	updateFunc   func(ctx context.Context, id string, l *model.Location) (*mongo.UpdateResult, error)
	deleted      []string
}

func (m *mockLocationRepository) Create(ctx context.Context, l *model.Location) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, l)
	}
	l.ID = testLocationID
	return nil
}

func (m *mockLocationRepository) FindByID(ctx context.Context, id string) (*model.Location, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return &model.Location{ID: id, Name: "Central Garage", Address: "12 Main St", TotalSlots: 5, IsActive: true}, nil
}

func (m *mockLocationRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Location, error) {
	return []*model.Location{}, nil
}

func (m *mockLocationRepository) Update(ctx context.Context, id string, l *model.Location) (*mongo.UpdateResult, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, l)
	}
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (m *mockLocationRepository) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockLocationRepository) Count(ctx context.Context) (int64, error) {
	return 0, nil
}

func (m *mockLocationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.NewSessionContext(ctx, nil))
}

type provisionCall struct {
	from, to int
}

type mockSlotService struct {
	provisioned []provisionCall
	retiredAt   []int
	busy        bool
}

func (m *mockSlotService) CreateSlot(ctx context.Context, slot *model.Slot) error { return nil }

func (m *mockSlotService) Lookup(ctx context.Context, id string) (*model.Slot, error) {
	return nil, nil
}

func (m *mockSlotService) GetByLocation(ctx context.Context, locationID string, limit int, offset int64) ([]*model.Slot, int64, error) {
	return nil, 0, nil
}

func (m *mockSlotService) Delete(ctx context.Context, id string) error { return nil }

func (m *mockSlotService) ProvisionSlots(ctx context.Context, locationID string, from, to int) error {
	m.provisioned = append(m.provisioned, provisionCall{from, to})
	return nil
}

func (m *mockSlotService) RetireUnusedSlots(ctx context.Context, locationID string, capacity int) (int, error) {
	m.retiredAt = append(m.retiredAt, capacity)
	return 0, nil
}

func (m *mockSlotService) HasBusySlots(ctx context.Context, locationID string) (bool, error) {
	return m.busy, nil
}

func (m *mockSlotService) DeleteByLocation(ctx context.Context, locationID string) (int64, error) {
	return 0, nil
}

func (m *mockSlotService) Snapshot(ctx context.Context, slotID string) (*model.SlotSnapshot, error) {
	return nil, nil
}

func (m *mockSlotService) Recompute(ctx context.Context, slotID string) error { return nil }

func (m *mockSlotService) AvailabilityByLocation(ctx context.Context, locationID string) (int, int, error) {
	return 0, 0, nil
}

func (m *mockSlotService) SlotIDsByLocation(ctx context.Context, locationID string) ([]string, error) {
	return []string{}, nil
}

func newLocationFixture(t *testing.T) (LocationService, *mockLocationRepository, *mockSlotService) {
	t.Helper()

	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	cfg := &config.Config{Log: log}

	repo := &mockLocationRepository{}
	slots := &mockSlotService{}
	svc := NewLocationService(repo, slots, validator.NewLocationValidator(log), cfg)

	return svc, repo, slots
}

// ────────────────────────────────────────────────
// Tests
// ────────────────────────────────────────────────

func TestCreate_ProvisionsFullRange(t *testing.T) {
	svc, _, slots := newLocationFixture(t)

	location := &model.Location{Name: "  Central   Garage ", Address: "12 Main St", TotalSlots: 25}
	if err := svc.Create(context.Background(), location); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if location.Name != "Central Garage" {
		t.Errorf("expected sanitized name, got %q", location.Name)
	}
	if !location.IsActive {
		t.Error("expected new location to be active")
	}
	if len(slots.provisioned) != 1 || slots.provisioned[0] != (provisionCall{1, 25}) {
		t.Errorf("expected provision 1..25, got %v", slots.provisioned)
	}
}

func TestUpdate_CapacityIncreaseProvisionsTail(t *testing.T) {
	svc, _, slots := newLocationFixture(t)

	capacity := 8
	err := svc.Update(context.Background(), testLocationID, &model.LocationUpdate{TotalSlots: &capacity})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(slots.provisioned) != 1 || slots.provisioned[0] != (provisionCall{6, 8}) {
		t.Errorf("expected provision 6..8, got %v", slots.provisioned)
	}
	if len(slots.retiredAt) != 0 {
		t.Errorf("expected no retirement, got %v", slots.retiredAt)
	}
}

func TestUpdate_CapacityDecreaseRetires(t *testing.T) {
	svc, _, slots := newLocationFixture(t)

	capacity := 3
	err := svc.Update(context.Background(), testLocationID, &model.LocationUpdate{TotalSlots: &capacity})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(slots.retiredAt) != 1 || slots.retiredAt[0] != 3 {
		t.Errorf("expected retirement at capacity 3, got %v", slots.retiredAt)
	}
	if len(slots.provisioned) != 0 {
		t.Errorf("expected no provisioning, got %v", slots.provisioned)
	}
}

func TestDelete_RefusedWhileBusy(t *testing.T) {
	svc, repo, slots := newLocationFixture(t)
	slots.busy = true

	err := svc.Delete(context.Background(), testLocationID)
	if err == nil {
		t.Fatal("expected conflict")
	}
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected conflict, got %v", err)
	}
	if len(repo.deleted) != 0 {
		t.Errorf("expected no deletion, got %v", repo.deleted)
	}
}

func TestDelete_Free(t *testing.T) {
	svc, repo, _ := newLocationFixture(t)

	if err := svc.Delete(context.Background(), testLocationID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != testLocationID {
		t.Errorf("expected location deleted, got %v", repo.deleted)
	}
}
