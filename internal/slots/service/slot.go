package service

import (
	"context"
	"errors"
	"time"

	slotserrors "lotkeeper/internal/slots/errors"
	"lotkeeper/internal/slots/repository"
	"lotkeeper/internal/slots/validator"
	"lotkeeper/pkg/config"
	apperrors "lotkeeper/pkg/errors"
	"lotkeeper/pkg/model"
)

// ReservationSource is the read surface the synchronizer needs from the
// reservation store. The reservation repository satisfies it.
type ReservationSource interface {
	// FindNextConfirmed returns the earliest-starting CONFIRMED
	// reservation for the slot whose end is after now, or nil.
	FindNextConfirmed(ctx context.Context, slotID string, now time.Time) (*model.Reservation, error)
	// DistinctInProgressSlotIDs returns the subset of slotIDs that have a
	// CONFIRMED reservation covering now.
	DistinctInProgressSlotIDs(ctx context.Context, slotIDs []string, now time.Time) ([]string, error)
}

type SlotService interface {
	CreateSlot(ctx context.Context, slot *model.Slot) error
	Lookup(ctx context.Context, id string) (*model.Slot, error)
	GetByLocation(ctx context.Context, locationID string, limit int, offset int64) ([]*model.Slot, int64, error)
	Delete(ctx context.Context, id string) error

	ProvisionSlots(ctx context.Context, locationID string, from, to int) error
	RetireUnusedSlots(ctx context.Context, locationID string, capacity int) (int, error)
	HasBusySlots(ctx context.Context, locationID string) (bool, error)
	DeleteByLocation(ctx context.Context, locationID string) (int64, error)

	Snapshot(ctx context.Context, slotID string) (*model.SlotSnapshot, error)
	Recompute(ctx context.Context, slotID string) error
	AvailabilityByLocation(ctx context.Context, locationID string) (total, available int, err error)
	SlotIDsByLocation(ctx context.Context, locationID string) ([]string, error)
}

type slotService struct {
	repo         repository.SlotRepository
	reservations ReservationSource
	validator    *validator.SlotValidator
	cfg          *config.Config
	now          func() time.Time
}

func NewSlotService(
	repo repository.SlotRepository,
	reservations ReservationSource,
	validator *validator.SlotValidator,
	cfg *config.Config,
) SlotService {
	return &slotService{
		repo:         repo,
		reservations: reservations,
		validator:    validator,
		cfg:          cfg,
		now:          time.Now,
	}
}

func (s *slotService) CreateSlot(ctx context.Context, slot *model.Slot) error {
	slot.Occupied = false
	slot.Reserved = false
	if err := s.validator.Validate(slot); err != nil {
		s.cfg.Log.Warn("Slot validation failed", "error", err)
		return apperrors.Validation("Slot validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, slot); err != nil {
		if errors.Is(err, slotserrors.ErrDuplicateLabel) {
			return apperrors.DuplicateSlotLabel(slot.Label)
		}
		return apperrors.Internal("Failed to create slot", err)
	}

	s.cfg.Log.Info("Slot created", "id", slot.ID, "location_id", slot.LocationID, "label", slot.Label)
	return nil
}

func (s *slotService) Lookup(ctx context.Context, id string) (*model.Slot, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Slot ID cannot be empty")
	}

	slot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, slotserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Slot", id)
		}
		if errors.Is(err, slotserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid slot ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve slot", err)
	}

	return slot, nil
}

func (s *slotService) GetByLocation(ctx context.Context, locationID string, limit int, offset int64) ([]*model.Slot, int64, error) {
	if locationID == "" {
		return nil, 0, apperrors.InvalidInput("Location ID cannot be empty")
	}

	slots, err := s.repo.FindByLocation(ctx, locationID, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list slots", "location_id", locationID, "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve slots", err)
	}

	count, err := s.repo.CountByLocation(ctx, locationID)
	if err != nil {
		s.cfg.Log.Error("Failed to count slots", "location_id", locationID, "error", err)
		return nil, 0, apperrors.Internal("Failed to count slots", err)
	}

	return slots, count, nil
}

// Delete removes a single slot. Busy slots are protected.
func (s *slotService) Delete(ctx context.Context, id string) error {
	slot, err := s.Lookup(ctx, id)
	if err != nil {
		return err
	}

	if slot.Occupied || slot.Reserved {
		return apperrors.Conflict("Slot is in use and cannot be deleted")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, slotserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Slot", id)
		}
		return apperrors.Internal("Failed to delete slot", err)
	}

	s.cfg.Log.Info("Slot deleted", "id", id, "location_id", slot.LocationID)
	return nil
}

// ProvisionSlots creates slots labelled from..to for the location.
func (s *slotService) ProvisionSlots(ctx context.Context, locationID string, from, to int) error {
	if from < 1 || to < from {
		return apperrors.InvalidInput("Invalid slot provisioning range")
	}

	for n := from; n <= to; n++ {
		slot := &model.Slot{
			LocationID: locationID,
			Label:      model.SlotLabel(n),
		}
		if err := s.repo.Create(ctx, slot); err != nil {
			if errors.Is(err, slotserrors.ErrDuplicateLabel) {
				return apperrors.DuplicateSlotLabel(slot.Label)
			}
			return apperrors.Internal("Failed to provision slot", err)
		}
	}

	s.cfg.Log.Info("Slots provisioned", "location_id", locationID, "from", from, "to", to)
	return nil
}

// RetireUnusedSlots removes slots whose numeric label exceeds capacity and
// whose flags are both clear. Busy slots survive even when over capacity.
func (s *slotService) RetireUnusedSlots(ctx context.Context, locationID string, capacity int) (int, error) {
	slots, err := s.repo.FindAllByLocation(ctx, locationID)
	if err != nil {
		return 0, apperrors.Internal("Failed to load slots for retirement", err)
	}

	retired := 0
	for _, slot := range slots {
		n, err := model.LabelNumber(slot.Label)
		if err != nil {
			s.cfg.Log.Warn("Skipping slot with non-numeric label", "id", slot.ID, "label", slot.Label)
			continue
		}
		if n <= capacity || slot.Occupied || slot.Reserved {
			continue
		}
		if err := s.repo.Delete(ctx, slot.ID); err != nil {
			return retired, apperrors.Internal("Failed to retire slot", err)
		}
		retired++
	}

	s.cfg.Log.Info("Slots retired", "location_id", locationID, "capacity", capacity, "retired", retired)
	return retired, nil
}

func (s *slotService) HasBusySlots(ctx context.Context, locationID string) (bool, error) {
	slots, err := s.repo.FindAllByLocation(ctx, locationID)
	if err != nil {
		return false, apperrors.Internal("Failed to load slots", err)
	}
	for _, slot := range slots {
		if slot.Occupied || slot.Reserved {
			return true, nil
		}
	}
	return false, nil
}

func (s *slotService) DeleteByLocation(ctx context.Context, locationID string) (int64, error) {
	deleted, err := s.repo.DeleteByLocation(ctx, locationID)
	if err != nil {
		return 0, apperrors.Internal("Failed to delete location slots", err)
	}
	return deleted, nil
}

// Snapshot reads the cached flags and attaches the reservation covering
// now, when one exists.
func (s *slotService) Snapshot(ctx context.Context, slotID string) (*model.SlotSnapshot, error) {
	slot, err := s.Lookup(ctx, slotID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	next, err := s.reservations.FindNextConfirmed(ctx, slotID, now)
	if err != nil {
		return nil, apperrors.Internal("Failed to resolve current reservation", err)
	}

	snapshot := &model.SlotSnapshot{
		SlotID:   slot.ID,
		Label:    slot.Label,
		Occupied: slot.Occupied,
		Reserved: slot.Reserved,
	}
	if next != nil && next.InProgressAt(now) {
		snapshot.CurrentReservation = next
	}

	return snapshot, nil
}

// Recompute derives the occupancy flags from the reservation set. The
// earliest-starting CONFIRMED reservation ending in the future decides:
// none or future start leaves the slot free, a window covering now marks
// it occupied and reserved. PENDING never marks a slot busy. Idempotent.
func (s *slotService) Recompute(ctx context.Context, slotID string) error {
	now := s.now().UTC()

	next, err := s.reservations.FindNextConfirmed(ctx, slotID, now)
	if err != nil {
		return apperrors.Internal("Failed to resolve slot reservations", err)
	}

	occupied := next != nil && next.InProgressAt(now)
	reserved := occupied

	if err := s.repo.UpdateFlags(ctx, slotID, occupied, reserved); err != nil {
		if errors.Is(err, slotserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Slot", slotID)
		}
		return apperrors.Internal("Failed to update slot flags", err)
	}

	s.cfg.Log.Debug("Slot flags recomputed", "slot_id", slotID, "occupied", occupied, "reserved", reserved)
	return nil
}

func (s *slotService) SlotIDsByLocation(ctx context.Context, locationID string) ([]string, error) {
	slots, err := s.repo.FindAllByLocation(ctx, locationID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load slots", err)
	}

	ids := make([]string, 0, len(slots))
	for _, slot := range slots {
		ids = append(ids, slot.ID)
	}
	return ids, nil
}

// AvailabilityByLocation computes the live availability count. It is never
// stored: a slot counts as unavailable when its occupied flag is set or a
// CONFIRMED reservation covers now.
func (s *slotService) AvailabilityByLocation(ctx context.Context, locationID string) (int, int, error) {
	slots, err := s.repo.FindAllByLocation(ctx, locationID)
	if err != nil {
		return 0, 0, apperrors.Internal("Failed to load slots", err)
	}

	var freeIDs []string
	for _, slot := range slots {
		if !slot.Occupied {
			freeIDs = append(freeIDs, slot.ID)
		}
	}

	available := len(freeIDs)
	if available > 0 {
		busy, err := s.reservations.DistinctInProgressSlotIDs(ctx, freeIDs, s.now().UTC())
		if err != nil {
			return 0, 0, apperrors.Internal("Failed to resolve in-progress reservations", err)
		}
		available -= len(busy)
	}

	return len(slots), available, nil
}
