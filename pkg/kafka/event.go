package kafka

import (
	"time"

	"github.com/google/uuid"

	"lotkeeper/pkg/model"
)

// Event type names follow "reservation.<new status, lowercased>".
const (
	EventReservationCreated   = "reservation.created"
	EventReservationConfirmed = "reservation.confirmed"
	EventReservationCancelled = "reservation.cancelled"
	EventReservationCompleted = "reservation.completed"
	EventReservationExpired   = "reservation.expired"
)

// Header keys attached to every published message.
const (
	HeaderEventID   = "event-id"
	HeaderEventType = "event-type"
	HeaderSource    = "source"
)

// ReservationEvent is the payload published on every successful lifecycle
// transition. Downstream consumers (notification senders, analytics) key
// on the reservation ID so per-reservation ordering is preserved.
type ReservationEvent struct {
	EventID       string                  `json:"event_id"`
	EventType     string                  `json:"event_type"`
	ReservationID string                  `json:"reservation_id"`
	SlotID        string                  `json:"slot_id"`
	UserID        string                  `json:"user_id"`
	OldStatus     model.ReservationStatus `json:"old_status,omitempty"`
	NewStatus     model.ReservationStatus `json:"new_status"`
	StartTime     time.Time               `json:"start_time"`
	EndTime       time.Time               `json:"end_time"`
	OccurredAt    time.Time               `json:"occurred_at"`
}

// NewReservationEvent builds the event for a transition old -> new on r.
// A zero-value old status marks creation.
func NewReservationEvent(r *model.Reservation, old model.ReservationStatus) ReservationEvent {
	return ReservationEvent{
		EventID:       uuid.NewString(),
		EventType:     eventTypeFor(r.Status, old),
		ReservationID: r.ID,
		SlotID:        r.SlotID,
		UserID:        r.UserID,
		OldStatus:     old,
		NewStatus:     r.Status,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		OccurredAt:    time.Now().UTC(),
	}
}

func eventTypeFor(status, old model.ReservationStatus) string {
	if old == "" {
		return EventReservationCreated
	}
	switch status {
	case model.StatusConfirmed:
		return EventReservationConfirmed
	case model.StatusCancelled:
		return EventReservationCancelled
	case model.StatusCompleted:
		return EventReservationCompleted
	case model.StatusExpired:
		return EventReservationExpired
	}
	return EventReservationCreated
}
