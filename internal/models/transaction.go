package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TransactionType string

const (
	TransactionTypeCommission TransactionType = "commission"
	TransactionTypeTopUp      TransactionType = "top_up"
)

// Transaction is an append-only ledger line. It records that money moved, not
// the resulting balance; balances live in the accounts collection.
type Transaction struct {
	ID          primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	UserID      primitive.ObjectID  `json:"user_id" bson:"user_id" validate:"required"`
	RideID      *primitive.ObjectID `json:"ride_id" bson:"ride_id"`
	Type        TransactionType     `json:"type" bson:"type" validate:"required"`
	Amount      float64             `json:"amount" bson:"amount" validate:"required"`
	Currency    string              `json:"currency" bson:"currency" default:"USD"`
	Description string              `json:"description" bson:"description"`
	CreatedAt   time.Time           `json:"created_at" bson:"created_at"`
}
