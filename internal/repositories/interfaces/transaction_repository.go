package interfaces

import (
	"context"

	"ridehive/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TransactionRepository interface {
	Create(ctx context.Context, tx *models.Transaction) error
	ListByRide(ctx context.Context, rideID primitive.ObjectID) ([]*models.Transaction, error)
}
