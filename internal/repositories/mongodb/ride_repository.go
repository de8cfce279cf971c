package mongodb

import (
	"context"
	"fmt"
	"time"

	"ridehive/internal/models"
	"ridehive/internal/repositories/interfaces"
	"ridehive/internal/utils"
	"ridehive/pkg/cache"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type rideRepository struct {
	collection *mongo.Collection
	cache      *cache.RedisCache
}

func NewRideRepository(db *mongo.Database, cache *cache.RedisCache) interfaces.RideRepository {
	return &rideRepository{
		collection: db.Collection("rides"),
		cache:      cache,
	}
}

// Basic operations
func (r *rideRepository) Create(ctx context.Context, ride *models.Ride) error {
	ride.ID = primitive.NewObjectID()
	now := time.Now()
	ride.CreatedAt = now
	ride.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, ride)
	if err != nil {
		return fmt.Errorf("failed to create ride: %w", err)
	}

	r.cacheRide(ctx, ride)
	return nil
}

func (r *rideRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ride, error) {
	if ride := r.getRideFromCache(ctx, id.Hex()); ride != nil {
		return ride, nil
	}

	var ride models.Ride
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&ride)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ride: %w", err)
	}

	r.cacheRide(ctx, &ride)
	return &ride, nil
}

// Driver claim operations. The filter carries the expected prior state, so of
// two concurrent claims at most one matches a row.
func (r *rideRepository) AcceptOpen(ctx context.Context, id, driverID primitive.ObjectID, newStatus models.RideStatus) (*models.Ride, error) {
	now := time.Now()
	filter := bson.M{
		"_id": id,
		"status": bson.M{"$in": []models.RideStatus{
			models.RideStatusPending,
			models.RideStatusScheduled,
			models.RideStatusNoDriversAvailable,
		}},
		"driver_id": nil,
	}
	update := bson.M{"$set": bson.M{
		"driver_id":  driverID,
		"status":     newStatus,
		"updated_at": now,
	}}
	if newStatus == models.RideStatusAccepted {
		update["$set"].(bson.M)["accepted_at"] = now
	}

	return r.findOneAndUpdate(ctx, filter, update, models.ErrRideUnavailable)
}

func (r *rideRepository) ConfirmAssigned(ctx context.Context, id, driverID primitive.ObjectID) (*models.Ride, error) {
	now := time.Now()
	filter := bson.M{
		"_id":       id,
		"driver_id": driverID,
		"status":    models.RideStatusScheduled,
	}
	update := bson.M{"$set": bson.M{
		"status":      models.RideStatusAccepted,
		"accepted_at": now,
		"updated_at":  now,
	}}

	return r.findOneAndUpdate(ctx, filter, update, models.ErrRideUnavailable)
}

func (r *rideRepository) TransitionByDriver(ctx context.Context, id, driverID primitive.ObjectID, from []models.RideStatus, to models.RideStatus) (*models.Ride, error) {
	now := time.Now()
	filter := bson.M{
		"_id":       id,
		"driver_id": driverID,
		"status":    bson.M{"$in": from},
	}
	set := bson.M{
		"status":     to,
		"updated_at": now,
	}
	switch to {
	case models.RideStatusArrived:
		set["arrived_at"] = now
	case models.RideStatusInProgress:
		set["started_at"] = now
	case models.RideStatusCompleted:
		set["completed_at"] = now
	}

	return r.findOneAndUpdate(ctx, filter, bson.M{"$set": set}, models.ErrForbidden)
}

func (r *rideRepository) CancelByPassenger(ctx context.Context, id, passengerID primitive.ObjectID, reason string) (*models.Ride, error) {
	now := time.Now()
	filter := bson.M{
		"_id":          id,
		"passenger_id": passengerID,
		"status": bson.M{"$in": []models.RideStatus{
			models.RideStatusPending,
			models.RideStatusScheduled,
			models.RideStatusAccepted,
			models.RideStatusArrived,
			models.RideStatusNoDriversAvailable,
		}},
	}
	update := bson.M{"$set": bson.M{
		"status":              models.RideStatusCancelled,
		"cancellation_reason": reason,
		"cancelled_at":        now,
		"updated_at":          now,
	}}

	return r.findOneAndUpdate(ctx, filter, update, models.ErrForbidden)
}

func (r *rideRepository) CancelNoShow(ctx context.Context, id, driverID primitive.ObjectID, fee float64) (*models.Ride, error) {
	now := time.Now()
	filter := bson.M{
		"_id":       id,
		"driver_id": driverID,
		"status":    models.RideStatusArrived,
	}
	update := bson.M{"$set": bson.M{
		"status":              models.RideStatusCancelled,
		"cancellation_reason": models.CancelReasonPassengerNoShow,
		"payment_status":      models.PaymentStatusPaid,
		"fare_estimate":       fee,
		"cancelled_at":        now,
		"updated_at":          now,
	}}

	return r.findOneAndUpdate(ctx, filter, update, models.ErrForbidden)
}

// Timer-driven operations
func (r *rideRepository) AdvanceDispatchWave(ctx context.Context, id primitive.ObjectID, fromBatch int) (*models.Ride, error) {
	batch := fromBatch + 1
	if batch > models.MaxDispatchBatch {
		batch = models.MaxDispatchBatch
	}
	filter := bson.M{
		"_id":            id,
		"status":         models.RideStatusPending,
		"dispatch_batch": fromBatch,
	}
	update := bson.M{"$set": bson.M{
		"dispatch_batch":   batch,
		"last_dispatch_at": time.Now(),
	}}

	return r.findOneAndUpdate(ctx, filter, update, models.ErrRideUnavailable)
}

func (r *rideRepository) MarkNoDrivers(ctx context.Context, id primitive.ObjectID, staleBefore time.Time) (*models.Ride, error) {
	filter := bson.M{
		"_id":        id,
		"status":     models.RideStatusPending,
		"updated_at": bson.M{"$lt": staleBefore},
	}
	update := bson.M{"$set": bson.M{
		"status":     models.RideStatusNoDriversAvailable,
		"updated_at": time.Now(),
	}}

	return r.findOneAndUpdate(ctx, filter, update, models.ErrRideUnavailable)
}

func (r *rideRepository) ReclaimFromDriver(ctx context.Context, id primitive.ObjectID, staleBefore time.Time) (*models.Ride, error) {
	now := time.Now()
	filter := bson.M{
		"_id":        id,
		"status":     models.RideStatusAccepted,
		"updated_at": bson.M{"$lt": staleBefore},
	}
	update := bson.M{"$set": bson.M{
		"driver_id":        nil,
		"status":           models.RideStatusPending,
		"dispatch_batch":   1,
		"last_dispatch_at": now,
		"note":             models.CancelReasonDriverTimeout,
		"accepted_at":      nil,
		"updated_at":       now,
	}}

	return r.findOneAndUpdate(ctx, filter, update, models.ErrRideUnavailable)
}

func (r *rideRepository) ActivateScheduled(ctx context.Context, id primitive.ObjectID) (*models.Ride, error) {
	now := time.Now()
	filter := bson.M{
		"_id":    id,
		"status": models.RideStatusScheduled,
	}
	update := bson.M{"$set": bson.M{
		"status":           models.RideStatusPending,
		"dispatch_batch":   1,
		"last_dispatch_at": now,
		"updated_at":       now,
	}}

	return r.findOneAndUpdate(ctx, filter, update, models.ErrRideUnavailable)
}

func (r *rideRepository) SetPaymentStatus(ctx context.Context, id primitive.ObjectID, status models.PaymentStatus) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"payment_status": status, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to set payment status: %w", err)
	}

	r.invalidateRideCache(ctx, id.Hex())
	return nil
}

// Range queries feeding the periodic processes
func (r *rideRepository) FindDispatchDue(ctx context.Context, offeredBefore time.Time, limit int64) ([]*models.Ride, error) {
	filter := bson.M{
		"status":           models.RideStatusPending,
		"last_dispatch_at": bson.M{"$lt": offeredBefore},
	}
	return r.findRides(ctx, filter, limit)
}

func (r *rideRepository) FindStalePending(ctx context.Context, staleBefore time.Time, limit int64) ([]*models.Ride, error) {
	filter := bson.M{
		"status":     models.RideStatusPending,
		"updated_at": bson.M{"$lt": staleBefore},
	}
	return r.findRides(ctx, filter, limit)
}

func (r *rideRepository) FindStaleAccepted(ctx context.Context, staleBefore time.Time, limit int64) ([]*models.Ride, error) {
	filter := bson.M{
		"status":     models.RideStatusAccepted,
		"updated_at": bson.M{"$lt": staleBefore},
	}
	return r.findRides(ctx, filter, limit)
}

func (r *rideRepository) FindDueScheduled(ctx context.Context, dueBefore time.Time, limit int64) ([]*models.Ride, error) {
	filter := bson.M{
		"status":         models.RideStatusScheduled,
		"scheduled_time": bson.M{"$lte": dueBefore},
	}
	return r.findRides(ctx, filter, limit)
}

func (r *rideRepository) HasPaymentFailed(ctx context.Context, passengerID primitive.ObjectID) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"passenger_id":   passengerID,
		"payment_status": models.PaymentStatusFailed,
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check payment debt: %w", err)
	}
	return count > 0, nil
}

func (r *rideRepository) GetByPassenger(ctx context.Context, passengerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	return r.findRidesWithFilter(ctx, bson.M{"passenger_id": passengerID}, params)
}

func (r *rideRepository) GetByDriver(ctx context.Context, driverID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	return r.findRidesWithFilter(ctx, bson.M{"driver_id": driverID}, params)
}

// Helper methods
func (r *rideRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M, raceErr error) (*models.Ride, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var ride models.Ride
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&ride)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			// Zero rows matched: the expected prior state is gone, which
			// means a concurrent conflicting attempt won.
			return nil, raceErr
		}
		return nil, fmt.Errorf("failed to update ride: %w", err)
	}

	r.invalidateRideCache(ctx, ride.ID.Hex())
	return &ride, nil
}

func (r *rideRepository) findRides(ctx context.Context, filter bson.M, limit int64) ([]*models.Ride, error) {
	opts := options.Find().
		SetLimit(limit).
		SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find rides: %w", err)
	}
	defer cursor.Close(ctx)

	var rides []*models.Ride
	if err := cursor.All(ctx, &rides); err != nil {
		return nil, fmt.Errorf("failed to decode rides: %w", err)
	}
	return rides, nil
}

func (r *rideRepository) findRidesWithFilter(ctx context.Context, filter bson.M, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count rides: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.FindOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find rides: %w", err)
	}
	defer cursor.Close(ctx)

	var rides []*models.Ride
	if err := cursor.All(ctx, &rides); err != nil {
		return nil, 0, fmt.Errorf("failed to decode rides: %w", err)
	}
	return rides, total, nil
}

// Cache helpers: active rides only, best effort.
func (r *rideRepository) cacheRide(ctx context.Context, ride *models.Ride) {
	if r.cache == nil || ride.Status.IsTerminal() {
		return
	}
	_ = r.cache.Set(ctx, "ride:"+ride.ID.Hex(), ride, 30*time.Minute)
}

func (r *rideRepository) getRideFromCache(ctx context.Context, rideID string) *models.Ride {
	if r.cache == nil {
		return nil
	}
	var ride models.Ride
	if err := r.cache.Get(ctx, "ride:"+rideID, &ride); err != nil {
		return nil
	}
	return &ride
}

func (r *rideRepository) invalidateRideCache(ctx context.Context, rideID string) {
	if r.cache == nil {
		return
	}
	_ = r.cache.Delete(ctx, "ride:"+rideID)
}
