package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Account holds a user's wallet balance. Mutated only through conditional
// increment/decrement operations on the repository.
type Account struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    primitive.ObjectID `json:"user_id" bson:"user_id" validate:"required"`
	Balance   float64            `json:"balance" bson:"balance"`
	Currency  string             `json:"currency" bson:"currency" default:"USD"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}
