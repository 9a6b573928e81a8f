package model

import "time"

type Location struct {
	ID         string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name       string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Address    string    `json:"address" bson:"address" validate:"required,min=2,max=300"`
	TotalSlots int       `json:"total_slots" bson:"total_slots" validate:"required,min=1,max=10000"`
	IsActive   bool      `json:"is_active" bson:"is_active"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

type LocationUpdate struct {
	Name       string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Address    string `json:"address,omitempty" validate:"omitempty,min=2,max=300"`
	TotalSlots *int   `json:"total_slots,omitempty" validate:"omitempty,min=1,max=10000"`
	IsActive   *bool  `json:"is_active,omitempty"`
}

// LocationAvailability is computed fresh per query and never stored.
type LocationAvailability struct {
	LocationID     string `json:"location_id"`
	TotalSlots     int    `json:"total_slots"`
	AvailableSlots int    `json:"available_slots"`
}
