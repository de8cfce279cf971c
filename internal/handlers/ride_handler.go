package handlers

import (
	"ridehive/internal/models"
	"ridehive/internal/services"
	"ridehive/internal/utils"
	"ridehive/internal/validators"

	"github.com/gin-gonic/gin"
)

type RideHandler struct {
	rideService services.RideService
}

func NewRideHandler(rideService services.RideService) *RideHandler {
	return &RideHandler{
		rideService: rideService,
	}
}

// RequestRide creates a new ride request for the authenticated passenger
func (h *RideHandler) RequestRide(c *gin.Context) {
	var request validators.RideRequestRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	passengerID, ok := currentUserID(c)
	if !ok {
		return
	}

	ride, err := h.rideService.RequestRide(c.Request.Context(), passengerID, &request)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, "Ride requested successfully", ride)
}

// GetRide retrieves ride details
func (h *RideHandler) GetRide(c *gin.Context) {
	rideID, ok := rideIDParam(c)
	if !ok {
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ride, err := h.rideService.GetRide(c.Request.Context(), rideID)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	// Only the parties to a ride may read it.
	if ride.PassengerID != userID && (ride.DriverID == nil || *ride.DriverID != userID) {
		utils.ServiceErrorResponse(c, models.ErrForbidden)
		return
	}

	utils.SuccessResponse(c, "Ride retrieved successfully", ride)
}

// CancelRide cancels the passenger's own ride
func (h *RideHandler) CancelRide(c *gin.Context) {
	rideID, ok := rideIDParam(c)
	if !ok {
		return
	}

	passengerID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request validators.RideCancelRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	ride, err := h.rideService.CancelByPassenger(c.Request.Context(), rideID, passengerID, request.Reason)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Ride cancelled successfully", ride)
}

// GetRideHistory lists the authenticated passenger's past rides
func (h *RideHandler) GetRideHistory(c *gin.Context) {
	passengerID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	rides, total, err := h.rideService.GetPassengerRides(c.Request.Context(), passengerID, params)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Rides retrieved successfully", rides, &utils.Meta{
		Pagination: utils.NewPaginationMeta(params, total),
		Count:      len(rides),
	})
}
