package model

import "time"

type ReservationStatus string

const (
	StatusPending   ReservationStatus = "PENDING"
	StatusConfirmed ReservationStatus = "CONFIRMED"
	StatusCancelled ReservationStatus = "CANCELLED"
	StatusCompleted ReservationStatus = "COMPLETED"
	StatusExpired   ReservationStatus = "EXPIRED"
)

// transitions is the single source of truth for legal status edges.
// CANCELLED, COMPLETED and EXPIRED are terminal: they have no outgoing
// edges. COMPLETED is additionally never a direct write target; it is only
// reached through passive completion of a CONFIRMED reservation past its
// end time.
var transitions = map[ReservationStatus][]ReservationStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled, StatusExpired},
	StatusConfirmed: {StatusCancelled, StatusCompleted},
}

type Reservation struct {
	ID           string            `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Code         string            `json:"code" bson:"code" validate:"omitempty,uuid4"`
	UserID       string            `json:"user_id" bson:"user_id" validate:"required"`
	SlotID       string            `json:"slot_id" bson:"slot_id" validate:"required,mongodb"`
	StartTime    time.Time         `json:"start_time" bson:"start_time" validate:"required"`
	EndTime      time.Time         `json:"end_time" bson:"end_time" validate:"required,gtfield=StartTime"`
	VehiclePlate string            `json:"vehicle_plate,omitempty" bson:"vehicle_plate,omitempty" validate:"omitempty,vehicle_plate"`
	Status       ReservationStatus `json:"status" bson:"status" validate:"required,reservation_status"`
	CreatedAt    time.Time         `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt    time.Time         `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted, StatusExpired:
		return true
	}
	return false
}

func (s ReservationStatus) IsTerminal() bool {
	return len(transitions[s]) == 0 && s.Valid()
}

// CanTransitionTo reports whether the edge s -> target exists in the
// lifecycle table.
func (s ReservationStatus) CanTransitionTo(target ReservationStatus) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// BlockingStatuses are the statuses that deny an overlapping creation
// request. PENDING blocks at creation time only, as an unconfirmed hold;
// snapshot occupancy counts CONFIRMED alone.
func BlockingStatuses() []ReservationStatus {
	return []ReservationStatus{StatusPending, StatusConfirmed}
}

// ExpiredBy reports whether a still-pending reservation has outlived the
// expiry window at instant now.
func (r *Reservation) ExpiredBy(now time.Time, expiryWindow time.Duration) bool {
	return r.Status == StatusPending && now.After(r.CreatedAt.Add(expiryWindow))
}

// PastEnd reports whether the reservation window has fully elapsed.
func (r *Reservation) PastEnd(now time.Time) bool {
	return now.After(r.EndTime)
}

// InProgressAt reports whether now falls within [start, end].
func (r *Reservation) InProgressAt(now time.Time) bool {
	return !now.Before(r.StartTime) && !now.After(r.EndTime)
}

// CancellableAt applies the cancellation policy: only PENDING or CONFIRMED
// reservations may be cancelled, and only strictly before
// start - cancellationWindow.
func (r *Reservation) CancellableAt(now time.Time, cancellationWindow time.Duration) bool {
	if r.Status != StatusPending && r.Status != StatusConfirmed {
		return false
	}
	deadline := r.StartTime.Add(-cancellationWindow)
	return now.Before(deadline)
}

// ReservationRequest is the creation payload.
type ReservationRequest struct {
	SlotID       string    `json:"slot_id" validate:"required,mongodb"`
	StartTime    time.Time `json:"start_time" validate:"required"`
	EndTime      time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	VehiclePlate string    `json:"vehicle_plate,omitempty" validate:"omitempty,vehicle_plate"`
}

// ReservationStatusUpdate is the lifecycle update payload.
type ReservationStatusUpdate struct {
	Status ReservationStatus `json:"status" validate:"required,reservation_status"`
}

// ReservationFilter narrows listing queries.
type ReservationFilter struct {
	UserID     string
	SlotID     string
	LocationID string
	Status     ReservationStatus
}
