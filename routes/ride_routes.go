package routes

import (
	"ridehive/internal/handlers"
	"ridehive/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRideRoutes wires the passenger-facing ride endpoints
func SetupRideRoutes(r *gin.RouterGroup, jwtSecret string, rideHandler *handlers.RideHandler) {
	rides := r.Group("/rides")
	rides.Use(middleware.AuthRequired(jwtSecret))
	{
		rides.POST("/", rideHandler.RequestRide)
		rides.GET("/history", rideHandler.GetRideHistory)
		rides.GET("/:id", rideHandler.GetRide)
		rides.PUT("/:id/cancel", rideHandler.CancelRide)
	}
}

// SetupDriverRoutes wires the driver-facing endpoints
func SetupDriverRoutes(r *gin.RouterGroup, jwtSecret string, driverHandler *handlers.DriverHandler) {
	driver := r.Group("/driver")
	driver.Use(middleware.AuthRequired(jwtSecret), middleware.DriverRequired())
	{
		driver.PUT("/rides/:id/accept", driverHandler.AcceptRide)
		driver.PUT("/rides/:id/status", driverHandler.UpdateRideStatus)
		driver.POST("/rides/:id/no-show", driverHandler.ReportNoShow)
		driver.GET("/rides/history", driverHandler.GetRideHistory)

		driver.PUT("/location", driverHandler.UpdateLocation)
		driver.PUT("/location/batch", driverHandler.UpdateLocationBatch)
		driver.POST("/offline", driverHandler.GoOffline)
	}
}

// SetupWalletRoutes wires the wallet endpoints shared by both user types
func SetupWalletRoutes(r *gin.RouterGroup, jwtSecret string, walletHandler *handlers.WalletHandler) {
	wallet := r.Group("/wallet")
	wallet.Use(middleware.AuthRequired(jwtSecret))
	{
		wallet.GET("/balance", walletHandler.GetBalance)
		wallet.POST("/top-up", walletHandler.TopUpWallet)
	}
}
