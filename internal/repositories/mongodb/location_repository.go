package mongodb

import (
	"context"
	"fmt"
	"time"

	"ridehive/internal/models"
	"ridehive/internal/repositories/interfaces"
	"ridehive/pkg/cache"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const driverGeoKey = "drivers:geo"

type locationRepository struct {
	collection *mongo.Collection
	cache      *cache.RedisCache
}

func NewLocationRepository(db *mongo.Database, cache *cache.RedisCache) interfaces.LocationRepository {
	return &locationRepository{
		collection: db.Collection("driver_locations"),
		cache:      cache,
	}
}

func (r *locationRepository) Upsert(ctx context.Context, loc *models.DriverLocation) error {
	loc.UpdatedAt = time.Now()

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": loc.DriverID},
		bson.M{"$set": loc},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert driver location: %w", err)
	}

	// Mirror into the redis GEO set for radius lookups, best effort.
	if r.cache != nil {
		_ = r.cache.GeoAdd(ctx, driverGeoKey, loc.DriverID.Hex(), loc.Latitude, loc.Longitude)
	}
	return nil
}

func (r *locationRepository) GetByDriver(ctx context.Context, driverID primitive.ObjectID) (*models.DriverLocation, error) {
	var loc models.DriverLocation
	err := r.collection.FindOne(ctx, bson.M{"_id": driverID}).Decode(&loc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get driver location: %w", err)
	}
	return &loc, nil
}

func (r *locationRepository) Delete(ctx context.Context, driverID primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": driverID})
	if err != nil {
		return fmt.Errorf("failed to delete driver location: %w", err)
	}

	if r.cache != nil {
		_ = r.cache.GeoRemove(ctx, driverGeoKey, driverID.Hex())
	}
	return nil
}
