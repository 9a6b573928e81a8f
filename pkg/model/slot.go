package model

import (
	"fmt"
	"strconv"
	"time"
)

// Slot is an individually bookable parking space within a location. The
// occupied/reserved flags are a cached projection of the reservation set;
// only the slot synchronizer writes them.
type Slot struct {
	ID         string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	LocationID string    `json:"location_id" bson:"location_id" validate:"required,mongodb"`
	Label      string    `json:"label" bson:"label" validate:"required,slot_label"`
	Occupied   bool      `json:"occupied" bson:"occupied"`
	Reserved   bool      `json:"reserved" bson:"reserved"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

// SlotLabel formats the zero-padded sequential label for position n.
func SlotLabel(n int) string {
	return fmt.Sprintf("%03d", n)
}

// LabelNumber parses a sequential slot label back into its position.
func LabelNumber(label string) (int, error) {
	n, err := strconv.Atoi(label)
	if err != nil {
		return 0, fmt.Errorf("slot label %q is not numeric: %w", label, err)
	}
	return n, nil
}

// SlotSnapshot is the read-path view of a slot's occupancy state.
type SlotSnapshot struct {
	SlotID             string       `json:"slot_id"`
	Label              string       `json:"label"`
	Occupied           bool         `json:"occupied"`
	Reserved           bool         `json:"reserved"`
	CurrentReservation *Reservation `json:"current_reservation,omitempty"`
}
