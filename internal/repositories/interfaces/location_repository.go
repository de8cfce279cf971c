package interfaces

import (
	"context"

	"ridehive/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type LocationRepository interface {
	Upsert(ctx context.Context, loc *models.DriverLocation) error
	GetByDriver(ctx context.Context, driverID primitive.ObjectID) (*models.DriverLocation, error)
	Delete(ctx context.Context, driverID primitive.ObjectID) error
}
