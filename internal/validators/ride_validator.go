package validators

import (
	"fmt"
	"time"

	"ridehive/internal/models"
	"ridehive/internal/utils"
)

// Coordinate fields carry no required tag: 0 is a valid latitude and
// longitude, and binding would treat it as absent. Range checks happen in
// the Validate functions instead.
type LocationRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

type RideRequestRequest struct {
	PickupLocation  *LocationRequest `json:"pickup_location" binding:"required"`
	DropoffLocation *LocationRequest `json:"dropoff_location" binding:"required"`
	PaymentMethod   string          `json:"payment_method" binding:"required,oneof=cash wallet"`
	Note            string          `json:"note"`
	OfferedFare     float64         `json:"offered_fare"`
	ScheduledTime   *time.Time      `json:"scheduled_time"`
}

type RideStatusUpdateRequest struct {
	Status    string   `json:"status" binding:"required,oneof=arrived in_progress completed"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type RideCancelRequest struct {
	Reason string `json:"reason" binding:"required,max=255"`
}

type LocationUpdateRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Heading   float64 `json:"heading"`
}

type LocationBatchUpdateRequest struct {
	Locations []LocationUpdateRequest `json:"locations" binding:"required,min=1,max=50,dive"`
}

type TopUpRequest struct {
	Amount          float64 `json:"amount" binding:"required,gt=0"`
	PaymentMethodID string  `json:"payment_method_id" binding:"required"`
}

// ValidateRideRequest checks the geometry before any geo-index computation.
func ValidateRideRequest(req *RideRequestRequest) error {
	if err := validateLocation(req.PickupLocation, "pickup_location"); err != nil {
		return err
	}
	if err := validateLocation(req.DropoffLocation, "dropoff_location"); err != nil {
		return err
	}
	if req.ScheduledTime != nil && req.ScheduledTime.Before(time.Now().Add(-time.Minute)) {
		return fmt.Errorf("%w: scheduled_time is in the past", models.ErrInvalidInput)
	}
	return nil
}

func ValidateLocationUpdate(req *LocationUpdateRequest) error {
	if !utils.IsValidCoordinates(req.Latitude, req.Longitude) {
		return fmt.Errorf("%w: coordinates out of range", models.ErrInvalidInput)
	}
	return nil
}

func validateLocation(loc *LocationRequest, field string) error {
	if loc == nil {
		return fmt.Errorf("%w: %s is required", models.ErrInvalidInput, field)
	}
	if !utils.IsValidCoordinates(loc.Latitude, loc.Longitude) {
		return fmt.Errorf("%w: %s coordinates out of range", models.ErrInvalidInput, field)
	}
	return nil
}
