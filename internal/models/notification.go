package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// Notification is an outbox document. State transitions append intents here;
// a separate dispatcher drains them, so delivery failures never fail the
// operation that produced them.
type Notification struct {
	ID          primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	UserID      primitive.ObjectID  `json:"user_id" bson:"user_id" validate:"required"`
	RideID      *primitive.ObjectID `json:"ride_id" bson:"ride_id"`
	Tokens      []string            `json:"tokens" bson:"tokens"`
	Title       string              `json:"title" bson:"title"`
	Body        string              `json:"body" bson:"body"`
	Data        map[string]string   `json:"data" bson:"data"`
	Status      NotificationStatus  `json:"status" bson:"status" default:"pending"`
	Attempts    int                 `json:"attempts" bson:"attempts"`
	LastError   string              `json:"last_error" bson:"last_error"`
	CreatedAt   time.Time           `json:"created_at" bson:"created_at"`
	DeliveredAt *time.Time          `json:"delivered_at" bson:"delivered_at"`
}
