package interfaces

import (
	"context"
	"time"

	"ridehive/internal/models"
	"ridehive/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RideRepository persists rides. Every mutation is a conditional update: the
// filter names the expected prior state/owner alongside the id, and a zero-row
// match is reported as models.ErrRideUnavailable or models.ErrForbidden. This
// is the system's only concurrency-control primitive.
type RideRepository interface {
	Create(ctx context.Context, ride *models.Ride) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ride, error)

	// Driver claim operations
	AcceptOpen(ctx context.Context, id, driverID primitive.ObjectID, newStatus models.RideStatus) (*models.Ride, error)
	ConfirmAssigned(ctx context.Context, id, driverID primitive.ObjectID) (*models.Ride, error)

	// Driver progress operations; from constrains the prior status.
	TransitionByDriver(ctx context.Context, id, driverID primitive.ObjectID, from []models.RideStatus, to models.RideStatus) (*models.Ride, error)

	CancelByPassenger(ctx context.Context, id, passengerID primitive.ObjectID, reason string) (*models.Ride, error)
	CancelNoShow(ctx context.Context, id, driverID primitive.ObjectID, fee float64) (*models.Ride, error)

	// Timer-driven operations
	AdvanceDispatchWave(ctx context.Context, id primitive.ObjectID, fromBatch int) (*models.Ride, error)
	MarkNoDrivers(ctx context.Context, id primitive.ObjectID, staleBefore time.Time) (*models.Ride, error)
	ReclaimFromDriver(ctx context.Context, id primitive.ObjectID, staleBefore time.Time) (*models.Ride, error)
	ActivateScheduled(ctx context.Context, id primitive.ObjectID) (*models.Ride, error)

	SetPaymentStatus(ctx context.Context, id primitive.ObjectID, status models.PaymentStatus) error

	// Range queries feeding the periodic processes
	FindDispatchDue(ctx context.Context, offeredBefore time.Time, limit int64) ([]*models.Ride, error)
	FindStalePending(ctx context.Context, staleBefore time.Time, limit int64) ([]*models.Ride, error)
	FindStaleAccepted(ctx context.Context, staleBefore time.Time, limit int64) ([]*models.Ride, error)
	FindDueScheduled(ctx context.Context, dueBefore time.Time, limit int64) ([]*models.Ride, error)

	HasPaymentFailed(ctx context.Context, passengerID primitive.ObjectID) (bool, error)

	GetByPassenger(ctx context.Context, passengerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Ride, int64, error)
	GetByDriver(ctx context.Context, driverID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Ride, int64, error)
}
