package service

import (
	"context"
	"testing"
	"time"

	"lotkeeper/internal/slots/validator"
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

type mockSlotRepository struct {
	findByIDFunc          func(ctx context.Context, id string) (*model.Slot, error)
	findAllByLocationFunc func(ctx context.Context, locationID string) ([]*model.Slot, error)
	createFunc            func(ctx context.Context, slot *model.Slot) error
	flags                 map[string][2]bool
	deletedIDs            []string
}

func (m *mockSlotRepository) Create(ctx context.Context, slot *model.Slot) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, slot)
	}
	slot.ID = "new-" + slot.Label
	return nil
}

func (m *mockSlotRepository) FindByID(ctx context.Context, id string) (*model.Slot, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return &model.Slot{ID: id, LocationID: testLocationID, Label: "001"}, nil
}

func (m *mockSlotRepository) FindByLocation(ctx context.Context, locationID string, limit int, offset int64) ([]*model.Slot, error) {
	return m.FindAllByLocation(ctx, locationID)
}

func (m *mockSlotRepository) FindAllByLocation(ctx context.Context, locationID string) ([]*model.Slot, error) {
	if m.findAllByLocationFunc != nil {
		return m.findAllByLocationFunc(ctx, locationID)
	}
	return []*model.Slot{}, nil
}

func (m *mockSlotRepository) CountByLocation(ctx context.Context, locationID string) (int64, error) {
	slots, err := m.FindAllByLocation(ctx, locationID)
	return int64(len(slots)), err
}

func (m *mockSlotRepository) UpdateFlags(ctx context.Context, id string, occupied, reserved bool) error {
	if m.flags == nil {
		m.flags = map[string][2]bool{}
	}
	m.flags[id] = [2]bool{occupied, reserved}
	return nil
}

func (m *mockSlotRepository) Delete(ctx context.Context, id string) error {
	m.deletedIDs = append(m.deletedIDs, id)
	return nil
}

func (m *mockSlotRepository) DeleteByLocation(ctx context.Context, locationID string) (int64, error) {
	return 0, nil
}

func (m *mockSlotRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return nil
}

type mockReservationSource struct {
	nextConfirmedFunc func(ctx context.Context, slotID string, now time.Time) (*model.Reservation, error)
	inProgressFunc    func(ctx context.Context, slotIDs []string, now time.Time) ([]string, error)
}

func (m *mockReservationSource) FindNextConfirmed(ctx context.Context, slotID string, now time.Time) (*model.Reservation, error) {
	if m.nextConfirmedFunc != nil {
		return m.nextConfirmedFunc(ctx, slotID, now)
	}
	return nil, nil
}

func (m *mockReservationSource) DistinctInProgressSlotIDs(ctx context.Context, slotIDs []string, now time.Time) ([]string, error) {
	if m.inProgressFunc != nil {
		return m.inProgressFunc(ctx, slotIDs, now)
	}
	return []string{}, nil
}

func newSlotFixture(t *testing.T) (*slotService, *mockSlotRepository, *mockReservationSource, time.Time) {
	t.Helper()

	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	cfg := &config.Config{Log: log}

	repo := &mockSlotRepository{}
	source := &mockReservationSource{}

	svc := NewSlotService(repo, source, validator.NewSlotValidator(log), cfg).(*slotService)
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	return svc, repo, source, now
}

// ────────────────────────────────────────────────
// Recompute
// ────────────────────────────────────────────────

func TestRecompute_Matrix(t *testing.T) {
	tests := []struct {
		name     string
		next     func(now time.Time) *model.Reservation
		occupied bool
	}{
		{
			name:     "no confirmed reservation leaves slot free",
			next:     func(now time.Time) *model.Reservation { return nil },
			occupied: false,
		},
		{
			name: "future confirmed reservation leaves slot free",
			next: func(now time.Time) *model.Reservation {
				return &model.Reservation{
					Status:    model.StatusConfirmed,
					StartTime: now.Add(time.Hour),
					EndTime:   now.Add(2 * time.Hour),
				}
			},
			occupied: false,
		},
		{
			name: "confirmed reservation covering now marks slot busy",
			next: func(now time.Time) *model.Reservation {
				return &model.Reservation{
					Status:    model.StatusConfirmed,
					StartTime: now.Add(-time.Hour),
					EndTime:   now.Add(time.Hour),
				}
			},
			occupied: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, source, now := newSlotFixture(t)
			source.nextConfirmedFunc = func(ctx context.Context, slotID string, n time.Time) (*model.Reservation, error) {
				return tt.next(now), nil
			}

			if err := svc.Recompute(context.Background(), "slot-1"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			flags, ok := repo.flags["slot-1"]
			if !ok {
				t.Fatal("expected flags to be written")
			}
			if flags[0] != tt.occupied || flags[1] != tt.occupied {
				t.Errorf("expected occupied=reserved=%v, got occupied=%v reserved=%v", tt.occupied, flags[0], flags[1])
			}
		})
	}
}

// ────────────────────────────────────────────────
// Provisioning and retirement
// ────────────────────────────────────────────────

func TestProvisionSlots_SequentialLabels(t *testing.T) {
	svc, repo, _, _ := newSlotFixture(t)

	var labels []string
	repo.createFunc = func(ctx context.Context, slot *model.Slot) error {
		labels = append(labels, slot.Label)
		return nil
	}

	if err := svc.ProvisionSlots(context.Background(), testLocationID, 1, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"001", "002", "003"}
	if len(labels) != len(want) {
		t.Fatalf("expected %d slots, got %d", len(want), len(labels))
	}
	for i, label := range want {
		if labels[i] != label {
			t.Errorf("slot %d: expected label %s, got %s", i, label, labels[i])
		}
	}
}

func TestRetireUnusedSlots_BusySlotsSurvive(t *testing.T) {
	svc, repo, _, _ := newSlotFixture(t)

	repo.findAllByLocationFunc = func(ctx context.Context, locationID string) ([]*model.Slot, error) {
		return []*model.Slot{
			{ID: "s1", Label: "001"},
			{ID: "s2", Label: "002"},
			{ID: "s3", Label: "003", Occupied: true, Reserved: true},
			{ID: "s4", Label: "004"},
		}, nil
	}

	retired, err := svc.RetireUnusedSlots(context.Background(), testLocationID, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Slot 003 is busy and survives although it is over capacity.
	if retired != 1 {
		t.Errorf("expected 1 retired slot, got %d", retired)
	}
	if len(repo.deletedIDs) != 1 || repo.deletedIDs[0] != "s4" {
		t.Errorf("expected only s4 deleted, got %v", repo.deletedIDs)
	}
}

// ────────────────────────────────────────────────
// Availability
// ────────────────────────────────────────────────

func TestAvailabilityByLocation(t *testing.T) {
	svc, repo, source, _ := newSlotFixture(t)

	repo.findAllByLocationFunc = func(ctx context.Context, locationID string) ([]*model.Slot, error) {
		return []*model.Slot{
			{ID: "s1", Label: "001"},
			{ID: "s2", Label: "002", Occupied: true, Reserved: true},
			{ID: "s3", Label: "003"},
		}, nil
	}
	// s3 has a confirmed reservation covering now even though its cached
	// flag has not been refreshed yet.
	source.inProgressFunc = func(ctx context.Context, slotIDs []string, now time.Time) ([]string, error) {
		return []string{"s3"}, nil
	}

	total, available, err := svc.AvailabilityByLocation(context.Background(), testLocationID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 3 {
		t.Errorf("expected total 3, got %d", total)
	}
	if available != 1 {
		t.Errorf("expected 1 available, got %d", available)
	}
}

func TestCreateSlot_InvalidLabel(t *testing.T) {
	svc, _, _, _ := newSlotFixture(t)

	err := svc.CreateSlot(context.Background(), &model.Slot{
		LocationID: testLocationID,
		Label:      "A1",
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected validation error, got %v", err)
	}
}
