package utils

import "time"

// Application Constants
const (
	AppName    = "RideHive"
	AppVersion = "1.0.0"

	// Default values
	DefaultCurrency = "USD"
	DefaultTimeZone = "UTC"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100

	// Dispatch Constants
	DispatchTickInterval = 10 * time.Second
	DispatchWaveInterval = 20 * time.Second
	DispatchBatchLimit   = 50
	SearchRingDefault    = 1
	SearchRingScheduled  = 2

	// Reaper Constants
	PendingReapInterval  = 30 * time.Second
	PendingTimeout       = 3 * time.Minute
	HoardingReapInterval = 60 * time.Second
	HoardingTimeout      = 20 * time.Minute

	// Scheduled Ride Constants
	ActivatorInterval   = 60 * time.Second
	ActivationLookahead = 20 * time.Minute

	// Payment Constants
	CommissionRate = 0.12
	NoShowFee      = 5.0
	MinFare        = 2.0

	// Proximity
	ArrivalProximityMeters = 500.0

	// Notification
	OutboxDrainInterval = 2 * time.Second
	OutboxBatchLimit    = 50
	OutboxMaxAttempts   = 3
)

// Response status values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)
