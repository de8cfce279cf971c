package services

import (
	"context"
	"sync"
	"time"

	"ridehive/internal/config"
	"ridehive/internal/models"
	"ridehive/internal/repositories/interfaces"
	"ridehive/pkg/logger"
	"ridehive/pkg/matching"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RideDispatcher is the slice of the dispatch service the state machine needs
// for the inline attempt right after ride creation.
type RideDispatcher interface {
	DispatchRide(ctx context.Context, ride *models.Ride) error
}

// DispatchService retries unmatched pending rides on a timer, widening the
// matching search one batch level per wave up to the cap.
type DispatchService interface {
	RideDispatcher
	Run(ctx context.Context)
	TickOnce(ctx context.Context)
}

type dispatchService struct {
	rideRepo interfaces.RideRepository
	matcher  matching.Matcher
	notifier NotificationService
	config   *config.DispatchConfig
	logger   *logger.Logger
}

func NewDispatchService(
	rideRepo interfaces.RideRepository,
	matcher matching.Matcher,
	notifier NotificationService,
	config *config.DispatchConfig,
	logger *logger.Logger,
) DispatchService {
	return &dispatchService{
		rideRepo: rideRepo,
		matcher:  matcher,
		notifier: notifier,
		config:   config,
		logger:   logger,
	}
}

func (s *dispatchService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.config.TickInterval)
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

// TickOnce processes one dispatch wave. Rides are handled concurrently and
// independently; one ride's failure never aborts its siblings.
func (s *dispatchService) TickOnce(ctx context.Context) {
	cutoff := time.Now().Add(-s.config.WaveInterval)
	rides, err := s.rideRepo.FindDispatchDue(ctx, cutoff, int64(s.config.BatchLimit))
	if err != nil {
		s.logger.WithError(err).Error("dispatch wave query failed")
		return
	}
	if len(rides) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, ride := range rides {
		wg.Add(1)
		go func(ride *models.Ride) {
			defer wg.Done()
			s.dispatchWave(ctx, ride)
		}(ride)
	}
	wg.Wait()
}

func (s *dispatchService) dispatchWave(ctx context.Context, ride *models.Ride) {
	// The conditional advance doubles as a claim: if another instance already
	// bumped this ride's wave, we lose the race and skip it.
	updated, err := s.rideRepo.AdvanceDispatchWave(ctx, ride.ID, ride.DispatchBatch)
	if err != nil {
		if err != models.ErrRideUnavailable {
			s.logger.WithError(err).WithRideID(ride.ID).Warn("failed to advance dispatch wave")
		}
		return
	}

	if err := s.DispatchRide(ctx, updated); err != nil {
		s.logger.WithError(err).WithRideID(ride.ID).Warn("dispatch wave attempt failed")
	}
}

// DispatchRide performs a single matching attempt at the ride's current batch
// level and push-notifies the offered drivers.
func (s *dispatchService) DispatchRide(ctx context.Context, ride *models.Ride) error {
	driverIDs, err := s.matcher.FindAndOfferRide(ctx, ride.ID.Hex(), ride.DispatchBatch)
	if err != nil {
		return err
	}
	if len(driverIDs) == 0 {
		s.logger.WithRideID(ride.ID).WithField("batch", ride.DispatchBatch).Debug("no drivers offered")
		return nil
	}

	ids := make([]primitive.ObjectID, 0, len(driverIDs))
	for _, raw := range driverIDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			s.logger.WithRideID(ride.ID).WithField("driver_id", raw).Warn("matcher returned malformed driver id")
			continue
		}
		ids = append(ids, id)
	}

	s.notifier.NotifyDrivers(ctx, ids, ride.ID,
		"New ride request",
		"A ride near you is paying "+formatFare(ride.FareEstimate, ride.Currency)+".",
		map[string]string{"ride_id": ride.ID.Hex(), "fare": formatFare(ride.FareEstimate, ride.Currency)})

	s.logger.LogRideEvent(ride.ID, "dispatch_offered", map[string]interface{}{
		"batch":   ride.DispatchBatch,
		"drivers": len(ids),
	})
	return nil
}
