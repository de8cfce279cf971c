package handlers

import (
	"ridehive/internal/models"
	"ridehive/internal/services"
	"ridehive/internal/utils"
	"ridehive/internal/validators"

	"github.com/gin-gonic/gin"
)

type DriverHandler struct {
	rideService     services.RideService
	locationService services.LocationService
}

func NewDriverHandler(rideService services.RideService, locationService services.LocationService) *DriverHandler {
	return &DriverHandler{
		rideService:     rideService,
		locationService: locationService,
	}
}

// AcceptRide claims an open ride for the authenticated driver
func (h *DriverHandler) AcceptRide(c *gin.Context) {
	rideID, ok := rideIDParam(c)
	if !ok {
		return
	}

	driverID, ok := currentUserID(c)
	if !ok {
		return
	}

	ride, err := h.rideService.AcceptRide(c.Request.Context(), rideID, driverID)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Ride accepted successfully", ride)
}

// UpdateRideStatus advances the ride through arrived, in_progress and completed
func (h *DriverHandler) UpdateRideStatus(c *gin.Context) {
	rideID, ok := rideIDParam(c)
	if !ok {
		return
	}

	driverID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request validators.RideStatusUpdateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	ride, err := h.rideService.UpdateStatus(c.Request.Context(), rideID, driverID,
		models.RideStatus(request.Status), request.Latitude, request.Longitude)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Ride status updated successfully", ride)
}

// ReportNoShow cancels an arrived ride because the passenger never showed up
func (h *DriverHandler) ReportNoShow(c *gin.Context) {
	rideID, ok := rideIDParam(c)
	if !ok {
		return
	}

	driverID, ok := currentUserID(c)
	if !ok {
		return
	}

	ride, err := h.rideService.ProcessNoShowFee(c.Request.Context(), rideID, driverID)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "No-show recorded successfully", ride)
}

// UpdateLocation records the driver's current position
func (h *DriverHandler) UpdateLocation(c *gin.Context) {
	driverID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request validators.LocationUpdateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if err := h.locationService.UpdateLocation(c.Request.Context(), driverID, &request); err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Location updated successfully", nil)
}

// UpdateLocationBatch records a burst of buffered position updates
func (h *DriverHandler) UpdateLocationBatch(c *gin.Context) {
	driverID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request validators.LocationBatchUpdateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if err := h.locationService.UpdateLocationBatch(c.Request.Context(), driverID, &request); err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Locations updated successfully", nil)
}

// GoOffline removes the driver from the live location index
func (h *DriverHandler) GoOffline(c *gin.Context) {
	driverID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.locationService.GoOffline(c.Request.Context(), driverID); err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Driver is now offline", nil)
}

// GetRideHistory lists the authenticated driver's past rides
func (h *DriverHandler) GetRideHistory(c *gin.Context) {
	driverID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	rides, total, err := h.rideService.GetDriverRides(c.Request.Context(), driverID, params)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Rides retrieved successfully", rides, &utils.Meta{
		Pagination: utils.NewPaginationMeta(params, total),
		Count:      len(rides),
	})
}
