package service

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"

	locationserrors "lotkeeper/internal/locations/errors"
	"lotkeeper/internal/locations/repository"
	"lotkeeper/internal/locations/validator"
	slotservice "lotkeeper/internal/slots/service"
	"lotkeeper/pkg/config"
	apperrors "lotkeeper/pkg/errors"
	"lotkeeper/pkg/model"
	"lotkeeper/pkg/sanitizer"
)

// LocationWithAvailability decorates a location with its live free-slot
// count for listing responses.
type LocationWithAvailability struct {
	*model.Location
	AvailableSlots int `json:"available_slots"`
}

type LocationService interface {
	Create(ctx context.Context, location *model.Location) error
	GetByID(ctx context.Context, id string) (*model.Location, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*LocationWithAvailability, int64, error)
	Update(ctx context.Context, id string, updates *model.LocationUpdate) error
	Delete(ctx context.Context, id string) error
	Availability(ctx context.Context, id string) (*model.LocationAvailability, error)
}

type locationService struct {
	repo      repository.LocationRepository
	slots     slotservice.SlotService
	validator *validator.LocationValidator
	cfg       *config.Config
}

func NewLocationService(
	repo repository.LocationRepository,
	slots slotservice.SlotService,
	validator *validator.LocationValidator,
	cfg *config.Config,
) LocationService {
	return &locationService{
		repo:      repo,
		slots:     slots,
		validator: validator,
		cfg:       cfg,
	}
}

// Create persists the location and provisions slots 001..TotalSlots in the
// same transaction.
func (s *locationService) Create(ctx context.Context, location *model.Location) error {
	s.sanitize(location)
	location.IsActive = true
	if err := s.validate(location); err != nil {
		return err
	}

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Create(sessCtx, location); err != nil {
			return apperrors.Internal("Failed to create location", err)
		}
		return s.slots.ProvisionSlots(sessCtx, location.ID, 1, location.TotalSlots)
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create location", "error", err)
		return err
	}

	s.cfg.Log.Info("Location created",
		"id", location.ID,
		"name", location.Name,
		"total_slots", location.TotalSlots,
	)
	return nil
}

func (s *locationService) GetByID(ctx context.Context, id string) (*model.Location, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Location ID cannot be empty")
	}

	location, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, locationserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Location", id)
		}
		if errors.Is(err, locationserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid location ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve location", err)
	}

	return location, nil
}

func (s *locationService) GetAll(ctx context.Context, limit int, offset int64) ([]*LocationWithAvailability, int64, error) {
	locations, err := s.repo.FindAll(ctx, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list locations", "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve locations", err)
	}

	count, err := s.repo.Count(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to count locations", "error", err)
		return nil, 0, apperrors.Internal("Failed to count locations", err)
	}

	result := make([]*LocationWithAvailability, 0, len(locations))
	for _, location := range locations {
		_, available, err := s.slots.AvailabilityByLocation(ctx, location.ID)
		if err != nil {
			s.cfg.Log.Error("Failed to compute availability", "location_id", location.ID, "error", err)
			return nil, 0, err
		}
		result = append(result, &LocationWithAvailability{
			Location:       location,
			AvailableSlots: available,
		})
	}

	return result, count, nil
}

// Update merges the patch and reconciles the slot set when capacity
// changes: an increase provisions the new tail labels, a decrease retires
// free slots above the new capacity. Busy slots survive a decrease.
func (s *locationService) Update(ctx context.Context, id string, updates *model.LocationUpdate) error {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Location update validation failed", "id", id, "error", err)
		return apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	oldCapacity := existing.TotalSlots
	merged := s.mergeUpdates(existing, updates)
	s.sanitize(merged)
	if err := s.validate(merged); err != nil {
		return err
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if _, err := s.repo.Update(sessCtx, id, merged); err != nil {
			return apperrors.Internal("Failed to update location", err)
		}

		switch {
		case merged.TotalSlots > oldCapacity:
			return s.slots.ProvisionSlots(sessCtx, id, oldCapacity+1, merged.TotalSlots)
		case merged.TotalSlots < oldCapacity:
			_, err := s.slots.RetireUnusedSlots(sessCtx, id, merged.TotalSlots)
			return err
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to update location", "id", id, "error", err)
		return err
	}

	s.cfg.Log.Info("Location updated", "id", id, "total_slots", merged.TotalSlots)
	return nil
}

// Delete removes the location and its slots. Refused while any slot is
// busy.
func (s *locationService) Delete(ctx context.Context, id string) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	busy, err := s.slots.HasBusySlots(ctx, id)
	if err != nil {
		return err
	}
	if busy {
		return apperrors.Conflict("Location has occupied or reserved slots and cannot be deleted")
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if _, err := s.slots.DeleteByLocation(sessCtx, id); err != nil {
			return err
		}
		if err := s.repo.Delete(sessCtx, id); err != nil {
			if errors.Is(err, locationserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Location", id)
			}
			return apperrors.Internal("Failed to delete location", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cfg.Log.Info("Location deleted", "id", id)
	return nil
}

func (s *locationService) Availability(ctx context.Context, id string) (*model.LocationAvailability, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}

	total, available, err := s.slots.AvailabilityByLocation(ctx, id)
	if err != nil {
		return nil, err
	}

	return &model.LocationAvailability{
		LocationID:     id,
		TotalSlots:     total,
		AvailableSlots: available,
	}, nil
}

// --- Helpers ---

func (s *locationService) sanitize(l *model.Location) {
	l.Name = sanitizer.NormalizeName(l.Name)
	l.Address = sanitizer.NormalizeAddress(l.Address)
}

func (s *locationService) mergeUpdates(existing *model.Location, updates *model.LocationUpdate) *model.Location {
	merged := *existing

	if updates.Name != "" {
		merged.Name = updates.Name
	}
	if updates.Address != "" {
		merged.Address = updates.Address
	}
	if updates.TotalSlots != nil {
		merged.TotalSlots = *updates.TotalSlots
	}
	if updates.IsActive != nil {
		merged.IsActive = *updates.IsActive
	}

	return &merged
}

func (s *locationService) validate(location *model.Location) error {
	if err := s.validator.Validate(location); err != nil {
		s.cfg.Log.Warn("Location validation failed", "error", err)
		return apperrors.Validation("Location validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}
