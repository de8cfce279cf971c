package interfaces

import (
	"context"

	"ridehive/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AccountRepository owns wallet balances. DecrementBalance is conditional on
// the balance covering the amount, so two concurrent debits cannot overdraw.
type AccountRepository interface {
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Account, error)
	CreateIfMissing(ctx context.Context, userID primitive.ObjectID, currency string) error
	DecrementBalance(ctx context.Context, userID primitive.ObjectID, amount float64) error
	IncrementBalance(ctx context.Context, userID primitive.ObjectID, amount float64) error
}
