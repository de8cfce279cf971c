package interfaces

import (
	"context"

	"ridehive/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetDeviceTokens(ctx context.Context, userIDs []primitive.ObjectID) (map[primitive.ObjectID][]string, error)
}
