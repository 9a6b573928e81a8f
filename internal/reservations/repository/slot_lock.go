package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"lotkeeper/pkg/config"
	"lotkeeper/pkg/model"
)

const LockCollectionName = "Reservation_locks"

// SlotLockRepository provides operations for per-slot advisory locks used
// to serialize check-then-insert on reservation creation.
type SlotLockRepository interface {
	Create(ctx context.Context, lock *model.SlotLock) (*model.SlotLock, error)
	Delete(ctx context.Context, lockID string) error
	DeleteExpired(ctx context.Context, lockID string, now time.Time) error
}

type mongoSlotLockRepository struct {
	collection *mongo.Collection
}

func NewSlotLockRepository(cfg *config.Config) SlotLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSlotLockRepository{
		collection: db.Collection(LockCollectionName),
	}
}

// Create inserts the lock document. The unique _id makes concurrent
// acquisition surface as a duplicate key error.
func (r *mongoSlotLockRepository) Create(ctx context.Context, lock *model.SlotLock) (*model.SlotLock, error) {
	lock.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, lock)
	if err != nil {
		return nil, err
	}

	return lock, nil
}

func (r *mongoSlotLockRepository) Delete(ctx context.Context, lockID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID})
	return err
}

// DeleteExpired removes the lock only if its TTL has elapsed, so a crashed
// holder cannot wedge the slot.
func (r *mongoSlotLockRepository) DeleteExpired(ctx context.Context, lockID string, now time.Time) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{
		"_id":        lockID,
		"expires_at": bson.M{"$lt": now},
	})
	return err
}
