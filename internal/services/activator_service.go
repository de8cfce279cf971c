package services

import (
	"context"
	"time"

	"ridehive/internal/config"
	"ridehive/internal/models"
	"ridehive/internal/repositories/interfaces"
	"ridehive/pkg/logger"
)

// ActivatorService promotes scheduled rides into the live dispatch flow once
// their pickup time comes within the activation window.
type ActivatorService interface {
	Run(ctx context.Context)
	TickOnce(ctx context.Context)
}

type activatorService struct {
	rideRepo   interfaces.RideRepository
	dispatcher RideDispatcher
	notifier   NotificationService
	config     *config.DispatchConfig
	logger     *logger.Logger
}

func NewActivatorService(
	rideRepo interfaces.RideRepository,
	dispatcher RideDispatcher,
	notifier NotificationService,
	config *config.DispatchConfig,
	logger *logger.Logger,
) ActivatorService {
	return &activatorService{
		rideRepo:   rideRepo,
		dispatcher: dispatcher,
		notifier:   notifier,
		config:     config,
		logger:     logger,
	}
}

func (s *activatorService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.config.ActivatorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.TickOnce(ctx)
		}
	}
}

// TickOnce activates every scheduled ride due within the lookahead window.
// Rides a driver already claimed get a reminder push only; unclaimed rides
// enter matching with a single dispatch attempt.
func (s *activatorService) TickOnce(ctx context.Context) {
	dueBefore := time.Now().Add(s.config.ActivationLookahead)
	rides, err := s.rideRepo.FindDueScheduled(ctx, dueBefore, int64(s.config.BatchLimit))
	if err != nil {
		s.logger.WithError(err).Error("due scheduled query failed")
		return
	}

	for _, ride := range rides {
		s.activate(ctx, ride)
	}
}

func (s *activatorService) activate(ctx context.Context, ride *models.Ride) {
	updated, err := s.rideRepo.ActivateScheduled(ctx, ride.ID)
	if err != nil {
		if err != models.ErrRideUnavailable {
			s.logger.WithError(err).WithRideID(ride.ID).Warn("failed to activate scheduled ride")
		}
		return
	}

	s.logger.LogRideEvent(updated.ID, "scheduled_ride_activated", map[string]interface{}{
		"pre_assigned": updated.DriverID != nil,
	})

	if updated.DriverID != nil {
		s.notifier.NotifyUser(ctx, *updated.DriverID, &updated.ID,
			"Scheduled ride starting soon",
			"Your scheduled pickup is coming up. Head to the pickup point.",
			map[string]string{"ride_id": updated.ID.Hex()})
		return
	}

	if err := s.dispatcher.DispatchRide(ctx, updated); err != nil {
		s.logger.WithError(err).WithRideID(updated.ID).Warn("initial dispatch for activated ride failed")
	}
}
