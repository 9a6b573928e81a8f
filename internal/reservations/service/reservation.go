package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"

	reservationserrors "lotkeeper/internal/reservations/errors"
	"lotkeeper/internal/reservations/repository"
	"lotkeeper/internal/reservations/validator"
	slotservice "lotkeeper/internal/slots/service"
	"lotkeeper/pkg/config"
	apperrors "lotkeeper/pkg/errors"
	"lotkeeper/pkg/kafka"
	"lotkeeper/pkg/model"
	"lotkeeper/pkg/sanitizer"
)

// sweepBatchSize bounds how many stale reservations one sweep pass
// rewrites per rule.
const sweepBatchSize = 500

type ReservationService interface {
	Create(ctx context.Context, actor model.Actor, req *model.ReservationRequest) (*model.Reservation, error)
	GetByID(ctx context.Context, actor model.Actor, id string) (*model.Reservation, error)
	GetAll(ctx context.Context, actor model.Actor, filter *model.ReservationFilter, limit int, offset int64) ([]*model.Reservation, int64, error)
	UpdateStatus(ctx context.Context, actor model.Actor, id string, target model.ReservationStatus) (*model.Reservation, error)
	Cancel(ctx context.Context, actor model.Actor, id string) (*model.Reservation, error)
	CheckAvailable(ctx context.Context, slotID string, start, end time.Time, excludeID string) error
	Sweep(ctx context.Context) (expired, completed int, err error)
}

type reservationService struct {
	repo      repository.ReservationRepository
	lockRepo  repository.SlotLockRepository
	validator *validator.ReservationValidator
	slots     slotservice.SlotService
	publisher kafka.Publisher
	cfg       *config.Config
	now       func() time.Time
}

func NewReservationService(
	repo repository.ReservationRepository,
	lockRepo repository.SlotLockRepository,
	validator *validator.ReservationValidator,
	slots slotservice.SlotService,
	publisher kafka.Publisher,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		repo:      repo,
		lockRepo:  lockRepo,
		validator: validator,
		slots:     slots,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Create persists a new PENDING reservation. The availability check and
// the insert run under a per-slot advisory lock inside one transaction,
// so two concurrent requests for the same window cannot both succeed.
func (s *reservationService) Create(ctx context.Context, actor model.Actor, req *model.ReservationRequest) (*model.Reservation, error) {
	req.VehiclePlate = sanitizer.NormalizePlate(req.VehiclePlate)
	if err := s.validator.ValidateRequest(req); err != nil {
		s.cfg.Log.Warn("Reservation request validation failed", "error", err)
		return nil, apperrors.Validation("Reservation validation failed", map[string]any{"error": err.Error()})
	}

	now := s.now().UTC()
	if !req.StartTime.After(now) {
		return nil, apperrors.Validation("start_time must be in the future", nil)
	}

	slot, err := s.slots.Lookup(ctx, req.SlotID)
	if err != nil {
		return nil, err
	}
	if slot.Occupied {
		return nil, apperrors.Conflict("Slot is currently occupied")
	}

	lockID, err := s.acquireSlotLock(ctx, req.SlotID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := s.lockRepo.Delete(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release slot lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	reservation := &model.Reservation{
		Code:         uuid.NewString(),
		UserID:       actor.ID,
		SlotID:       req.SlotID,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		VehiclePlate: req.VehiclePlate,
		Status:       model.StatusPending,
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.CheckAvailable(sessCtx, req.SlotID, req.StartTime, req.EndTime, ""); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, reservation); err != nil {
			return apperrors.Internal("Failed to create reservation", err)
		}
		return s.slots.Recompute(sessCtx, req.SlotID)
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create reservation", "slot_id", req.SlotID, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Reservation created",
		"id", reservation.ID,
		"slot_id", reservation.SlotID,
		"user_id", reservation.UserID,
		"start_time", reservation.StartTime,
	)
	s.publish(ctx, reservation, "")
	return reservation, nil
}

func (s *reservationService) GetByID(ctx context.Context, actor model.Actor, id string) (*model.Reservation, error) {
	reservation, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && reservation.UserID != actor.ID {
		return nil, apperrors.Forbidden("Reservation belongs to another user")
	}

	if err := s.applyPassiveExpiry(ctx, reservation); err != nil {
		return nil, err
	}
	return reservation, nil
}

func (s *reservationService) GetAll(ctx context.Context, actor model.Actor, filter *model.ReservationFilter, limit int, offset int64) ([]*model.Reservation, int64, error) {
	q := repository.Query{
		UserID: filter.UserID,
		Status: filter.Status,
	}
	if !actor.IsAdmin() {
		q.UserID = actor.ID
	}
	switch {
	case filter.SlotID != "":
		q.SlotIDs = []string{filter.SlotID}
	case filter.LocationID != "":
		ids, err := s.slots.SlotIDsByLocation(ctx, filter.LocationID)
		if err != nil {
			return nil, 0, err
		}
		q.SlotIDs = ids
	}

	var count int64
	var reservations []*model.Reservation
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, q)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count reservations", "error", errCount)
			errCount = apperrors.Internal("Failed to count reservations", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		reservations, errFind = s.repo.FindAll(ctx, q, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list reservations", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve reservations", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	// Stale PENDING holds are rewritten before the page leaves the service.
	for _, reservation := range reservations {
		if err := s.applyPassiveExpiry(ctx, reservation); err != nil {
			s.cfg.Log.Error("Failed to expire stale reservation", "id", reservation.ID, "error", err)
		}
	}

	return reservations, count, nil
}

// UpdateStatus applies an explicit lifecycle transition. Passive rules run
// first: a stale PENDING reservation expires before the requested target
// is evaluated, and a CONFIRMED reservation past its end records COMPLETED
// instead of the requested target.
func (s *reservationService) UpdateStatus(ctx context.Context, actor model.Actor, id string, target model.ReservationStatus) (*model.Reservation, error) {
	if !target.Valid() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("Unknown reservation status %q", target))
	}

	reservation, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		if reservation.UserID != actor.ID {
			return nil, apperrors.Forbidden("Reservation belongs to another user")
		}
		if target != model.StatusCancelled {
			return nil, apperrors.Forbidden("Only cancellation may be requested")
		}
	}

	if err := s.applyPassiveExpiry(ctx, reservation); err != nil {
		return nil, err
	}

	now := s.now().UTC()

	if reservation.Status == model.StatusCompleted {
		return nil, apperrors.ImmutableTerminalState("Reservation", id)
	}
	if target == model.StatusCompleted {
		return nil, apperrors.InvalidInput("COMPLETED cannot be requested directly; it is recorded when a confirmed reservation ends")
	}

	if reservation.Status == model.StatusConfirmed && reservation.PastEnd(now) {
		if err := s.writeStatus(ctx, reservation, model.StatusCompleted); err != nil {
			return nil, err
		}
		return reservation, nil
	}

	if !reservation.Status.CanTransitionTo(target) {
		return nil, apperrors.Conflict(fmt.Sprintf("Illegal transition %s -> %s", reservation.Status, target))
	}

	if target == model.StatusCancelled && !actor.IsAdmin() && !reservation.CancellableAt(now, s.cfg.CancellationWindow) {
		return nil, apperrors.CancellationNotAllowed("Cancellation window has closed for this reservation")
	}

	if err := s.writeStatus(ctx, reservation, target); err != nil {
		return nil, err
	}
	return reservation, nil
}

// Cancel is the policy-gated cancellation path.
func (s *reservationService) Cancel(ctx context.Context, actor model.Actor, id string) (*model.Reservation, error) {
	reservation, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && reservation.UserID != actor.ID {
		return nil, apperrors.Forbidden("Reservation belongs to another user")
	}

	if err := s.applyPassiveExpiry(ctx, reservation); err != nil {
		return nil, err
	}

	if !reservation.CancellableAt(s.now().UTC(), s.cfg.CancellationWindow) {
		return nil, apperrors.CancellationNotAllowed(fmt.Sprintf(
			"Reservation can only be cancelled more than %s before its start",
			s.cfg.CancellationWindow,
		))
	}

	if err := s.writeStatus(ctx, reservation, model.StatusCancelled); err != nil {
		return nil, err
	}
	return reservation, nil
}

// CheckAvailable reports a conflict when an overlapping reservation in the
// blocking set exists for the slot. Overlap is half-open:
// existing.start < end AND existing.end > start. PENDING holds past their
// expiry window no longer block; the sweep rewrites them.
func (s *reservationService) CheckAvailable(ctx context.Context, slotID string, start, end time.Time, excludeID string) error {
	existing, err := s.repo.FindOverlapping(ctx, slotID, start, end, excludeID, model.BlockingStatuses())
	if err != nil {
		return apperrors.Internal("Failed to check existing reservations", err)
	}

	now := s.now().UTC()
	for _, r := range existing {
		if r.ExpiredBy(now, s.cfg.ExpiryWindow) {
			continue
		}
		return apperrors.Conflict(fmt.Sprintf(
			"Slot already reserved for an overlapping window (%s - %s)",
			r.StartTime.Format(time.RFC3339),
			r.EndTime.Format(time.RFC3339),
		))
	}
	return nil
}

// Sweep applies the passive rules in bulk: stale PENDING reservations
// expire and ended CONFIRMED reservations complete. Idempotent; the lazy
// access-path evaluation remains authoritative.
func (s *reservationService) Sweep(ctx context.Context) (int, int, error) {
	now := s.now().UTC()

	expired := 0
	stale, err := s.repo.FindStalePending(ctx, now.Add(-s.cfg.ExpiryWindow), sweepBatchSize)
	if err != nil {
		return 0, 0, apperrors.Internal("Failed to find stale pending reservations", err)
	}
	for _, reservation := range stale {
		if err := s.writeStatus(ctx, reservation, model.StatusExpired); err != nil {
			s.cfg.Log.Error("Failed to expire reservation", "id", reservation.ID, "error", err)
			continue
		}
		expired++
	}

	completed := 0
	ended, err := s.repo.FindConfirmedEnded(ctx, now, sweepBatchSize)
	if err != nil {
		return expired, 0, apperrors.Internal("Failed to find ended reservations", err)
	}
	for _, reservation := range ended {
		if err := s.writeStatus(ctx, reservation, model.StatusCompleted); err != nil {
			s.cfg.Log.Error("Failed to complete reservation", "id", reservation.ID, "error", err)
			continue
		}
		completed++
	}

	return expired, completed, nil
}

// --- Helpers ---

func (s *reservationService) findByID(ctx context.Context, id string) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Reservation", id)
		}
		if errors.Is(err, reservationserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid reservation ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve reservation", err)
	}

	return reservation, nil
}

// applyPassiveExpiry rewrites a stale PENDING reservation to EXPIRED in
// place before any caller acts on it.
func (s *reservationService) applyPassiveExpiry(ctx context.Context, reservation *model.Reservation) error {
	if !reservation.ExpiredBy(s.now().UTC(), s.cfg.ExpiryWindow) {
		return nil
	}
	return s.writeStatus(ctx, reservation, model.StatusExpired)
}

// writeStatus commits the transition and the slot recompute in one
// transaction, mutates the in-memory reservation, and publishes the
// lifecycle event.
func (s *reservationService) writeStatus(ctx context.Context, reservation *model.Reservation, target model.ReservationStatus) error {
	old := reservation.Status

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.UpdateStatus(sessCtx, reservation.ID, target); err != nil {
			if errors.Is(err, reservationserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Reservation", reservation.ID)
			}
			return apperrors.Internal("Failed to update reservation status", err)
		}
		return s.slots.Recompute(sessCtx, reservation.SlotID)
	})
	if err != nil {
		s.cfg.Log.Error("Failed to write reservation status",
			"id", reservation.ID,
			"from", old,
			"to", target,
			"error", err,
		)
		return err
	}

	reservation.Status = target
	s.cfg.Log.Info("Reservation status updated", "id", reservation.ID, "from", old, "to", target)
	s.publish(ctx, reservation, old)
	return nil
}

func (s *reservationService) publish(ctx context.Context, reservation *model.Reservation, old model.ReservationStatus) {
	event := kafka.NewReservationEvent(reservation, old)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.cfg.Log.Warn("Failed to publish reservation event",
			"event_type", event.EventType,
			"reservation_id", reservation.ID,
			"error", err,
		)
	}
}

// acquireSlotLock serializes creation per slot. Contention is retried a
// bounded number of times, clearing expired lock documents between
// attempts, before surfacing a conflict.
func (s *reservationService) acquireSlotLock(ctx context.Context, slotID string) (string, error) {
	lockID := fmt.Sprintf("slot_lock_%s", slotID)

	attempts := s.cfg.CreateRetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; ; attempt++ {
		lock := &model.SlotLock{
			ID:        lockID,
			SlotID:    slotID,
			ExpiresAt: s.now().Add(s.cfg.SlotLockTTL),
		}

		_, err := s.lockRepo.Create(ctx, lock)
		if err == nil {
			return lockID, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Internal("Failed to acquire slot lock", err)
		}

		if attempt >= attempts {
			return "", apperrors.Conflict("Slot is being reserved by another request. Please try again.")
		}

		if err := s.lockRepo.DeleteExpired(ctx, lockID, s.now()); err != nil {
			s.cfg.Log.Warn("Failed to clear expired slot lock", "lock_id", lockID, "error", err)
		}

		select {
		case <-ctx.Done():
			return "", apperrors.Internal("Lock acquisition aborted", ctx.Err())
		case <-time.After(s.cfg.CreateRetryBackoff):
		}
	}
}
