package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RideStatus string
type PaymentMethod string
type PaymentStatus string

const (
	RideStatusPending            RideStatus = "pending"
	RideStatusScheduled          RideStatus = "scheduled"
	RideStatusAccepted           RideStatus = "accepted"
	RideStatusArrived            RideStatus = "arrived"
	RideStatusInProgress         RideStatus = "in_progress"
	RideStatusCompleted          RideStatus = "completed"
	RideStatusCancelled          RideStatus = "cancelled"
	RideStatusNoDriversAvailable RideStatus = "no_drivers_available"

	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodWallet PaymentMethod = "wallet"

	PaymentStatusUnpaid         PaymentStatus = "unpaid"
	PaymentStatusPaid           PaymentStatus = "paid"
	PaymentStatusFailed         PaymentStatus = "payment_failed"
	PaymentStatusCommissionOwed PaymentStatus = "commission_owed"

	// MaxDispatchBatch caps how wide the matching search escalates.
	MaxDispatchBatch = 3

	CancelReasonPassengerNoShow = "passenger_no_show"
	CancelReasonDriverTimeout   = "driver_response_timeout"
)

type Ride struct {
	ID                 primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	RideNumber         string              `json:"ride_number" bson:"ride_number"`
	PassengerID        primitive.ObjectID  `json:"passenger_id" bson:"passenger_id" validate:"required"`
	DriverID           *primitive.ObjectID `json:"driver_id" bson:"driver_id"`
	Status             RideStatus          `json:"status" bson:"status" default:"pending"`
	PickupLocation     Location            `json:"pickup_location" bson:"pickup_location" validate:"required"`
	DropoffLocation    Location            `json:"dropoff_location" bson:"dropoff_location" validate:"required"`
	SearchCells        []int64             `json:"search_cells" bson:"search_cells"`
	FareEstimate       float64             `json:"fare_estimate" bson:"fare_estimate"`
	Currency           string              `json:"currency" bson:"currency" default:"USD"`
	PaymentMethod      PaymentMethod       `json:"payment_method" bson:"payment_method" validate:"required"`
	PaymentStatus      PaymentStatus       `json:"payment_status" bson:"payment_status" default:"unpaid"`
	Note               string              `json:"note" bson:"note"`
	ScheduledTime      *time.Time          `json:"scheduled_time" bson:"scheduled_time"`
	DispatchBatch      int                 `json:"dispatch_batch" bson:"dispatch_batch" default:"1"`
	LastDispatchAt     time.Time           `json:"last_dispatch_at" bson:"last_dispatch_at"`
	AcceptedAt         *time.Time          `json:"accepted_at" bson:"accepted_at"`
	ArrivedAt          *time.Time          `json:"arrived_at" bson:"arrived_at"`
	StartedAt          *time.Time          `json:"started_at" bson:"started_at"`
	CompletedAt        *time.Time          `json:"completed_at" bson:"completed_at"`
	CancelledAt        *time.Time          `json:"cancelled_at" bson:"cancelled_at"`
	CancellationReason string              `json:"cancellation_reason" bson:"cancellation_reason"`
	CreatedAt          time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at" bson:"updated_at"`
}

// IsTerminal reports whether no further transitions are allowed.
func (s RideStatus) IsTerminal() bool {
	switch s {
	case RideStatusCompleted, RideStatusCancelled, RideStatusNoDriversAvailable:
		return true
	}
	return false
}

// IsOpen reports whether the ride can still be claimed by a driver.
func (s RideStatus) IsOpen() bool {
	switch s {
	case RideStatusPending, RideStatusScheduled, RideStatusNoDriversAvailable:
		return true
	}
	return false
}
