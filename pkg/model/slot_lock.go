package model

import "time"

// SlotLock is an advisory lock serializing reservation creation against one
// slot. The unique _id makes a concurrent acquisition fail with a duplicate
// key error; ExpiresAt lets a TTL index reap locks abandoned by crashed
// requests.
type SlotLock struct {
	ID        string    `bson:"_id" json:"id"`
	SlotID    string    `bson:"slot_id" json:"slot_id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
