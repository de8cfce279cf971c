package services

import (
	"context"
	"time"

	"ridehive/internal/config"
	"ridehive/internal/models"
	"ridehive/internal/repositories/interfaces"
	"ridehive/pkg/logger"
	"ridehive/pkg/matching"
)

// ReaperService times out rides stuck in a non-terminal state: pending rides
// nobody accepted, and accepted rides hoarded by a driver who went dark.
type ReaperService interface {
	Run(ctx context.Context)
	ReapStalePending(ctx context.Context)
	ReapHoardedRides(ctx context.Context)
}

type reaperService struct {
	rideRepo interfaces.RideRepository
	matcher  matching.Matcher
	notifier NotificationService
	config   *config.DispatchConfig
	logger   *logger.Logger
}

func NewReaperService(
	rideRepo interfaces.RideRepository,
	matcher matching.Matcher,
	notifier NotificationService,
	config *config.DispatchConfig,
	logger *logger.Logger,
) ReaperService {
	return &reaperService{
		rideRepo: rideRepo,
		matcher:  matcher,
		notifier: notifier,
		config:   config,
		logger:   logger,
	}
}

func (s *reaperService) Run(ctx context.Context) {
	pendingTicker := time.NewTicker(s.config.PendingReapInterval)
	hoardTicker := time.NewTicker(s.config.HoardReapInterval)
	defer pendingTicker.Stop()
	defer hoardTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-pendingTicker.C:
			s.ReapStalePending(ctx)
		case <-hoardTicker.C:
			s.ReapHoardedRides(ctx)
		}
	}
}

// ReapStalePending moves pending rides nobody accepted within the timeout to
// no_drivers_available. Staleness is measured from updated_at, which dispatch
// waves do not touch, so a ride times out roughly PendingTimeout after it was
// created or reclaimed even while waves keep offering it.
func (s *reaperService) ReapStalePending(ctx context.Context) {
	cutoff := time.Now().Add(-s.config.PendingTimeout)
	rides, err := s.rideRepo.FindStalePending(ctx, cutoff, int64(s.config.BatchLimit))
	if err != nil {
		s.logger.WithError(err).Error("stale pending query failed")
		return
	}

	for _, ride := range rides {
		updated, err := s.rideRepo.MarkNoDrivers(ctx, ride.ID, cutoff)
		if err != nil {
			if err != models.ErrRideUnavailable {
				s.logger.WithError(err).WithRideID(ride.ID).Warn("failed to time out pending ride")
			}
			continue
		}

		s.logger.LogRideEvent(ride.ID, "no_drivers_available", nil)
		s.notifier.NotifyUser(ctx, updated.PassengerID, &updated.ID,
			"No drivers available",
			"We could not find a driver for your ride. Please try again.",
			map[string]string{"ride_id": updated.ID.Hex()})
	}

	if len(rides) > 0 {
		if err := s.matcher.CleanupExpiredOffers(ctx); err != nil {
			s.logger.WithError(err).Warn("expired offer cleanup failed")
		}
	}
}

// ReapHoardedRides reclaims accepted rides whose driver stopped responding,
// returning them to the open pool with fresh dispatch state.
func (s *reaperService) ReapHoardedRides(ctx context.Context) {
	cutoff := time.Now().Add(-s.config.HoardTimeout)
	rides, err := s.rideRepo.FindStaleAccepted(ctx, cutoff, int64(s.config.BatchLimit))
	if err != nil {
		s.logger.WithError(err).Error("hoarded ride query failed")
		return
	}

	for _, ride := range rides {
		releasedDriver := ride.DriverID

		updated, err := s.rideRepo.ReclaimFromDriver(ctx, ride.ID, cutoff)
		if err != nil {
			if err != models.ErrRideUnavailable {
				s.logger.WithError(err).WithRideID(ride.ID).Warn("failed to reclaim hoarded ride")
			}
			continue
		}

		details := map[string]interface{}{}
		if releasedDriver != nil {
			details["released_driver"] = releasedDriver.Hex()
		}
		s.logger.LogRideEvent(ride.ID, "ride_reclaimed", details)
		s.notifier.NotifyUser(ctx, updated.PassengerID, &updated.ID,
			"Finding you a new driver",
			"Your driver did not respond in time, so we are searching again.",
			map[string]string{"ride_id": updated.ID.Hex()})
		if releasedDriver != nil {
			s.notifier.NotifyUser(ctx, *releasedDriver, &updated.ID,
				"Ride released",
				"You were released from a ride after not responding.",
				map[string]string{"ride_id": updated.ID.Hex()})
		}
	}
}
