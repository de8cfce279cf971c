package services

import (
	"context"
	"fmt"
	"time"

	"ridehive/internal/config"
	"ridehive/internal/models"
	"ridehive/internal/repositories/interfaces"
	"ridehive/internal/utils"
	"ridehive/internal/validators"
	"ridehive/pkg/fare"
	"ridehive/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RideService interface {
	RequestRide(ctx context.Context, passengerID primitive.ObjectID, req *validators.RideRequestRequest) (*models.Ride, error)
	AcceptRide(ctx context.Context, rideID, driverID primitive.ObjectID) (*models.Ride, error)
	UpdateStatus(ctx context.Context, rideID, driverID primitive.ObjectID, target models.RideStatus, driverLat, driverLng *float64) (*models.Ride, error)
	CancelByPassenger(ctx context.Context, rideID, passengerID primitive.ObjectID, reason string) (*models.Ride, error)
	ProcessNoShowFee(ctx context.Context, rideID, driverID primitive.ObjectID) (*models.Ride, error)
	GetRide(ctx context.Context, rideID primitive.ObjectID) (*models.Ride, error)
	GetPassengerRides(ctx context.Context, passengerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Ride, int64, error)
	GetDriverRides(ctx context.Context, driverID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Ride, int64, error)
}

type rideService struct {
	rideRepo     interfaces.RideRepository
	accountRepo  interfaces.AccountRepository
	locationRepo interfaces.LocationRepository
	fareEst      fare.Estimator
	dispatcher   RideDispatcher
	settlement   SettlementService
	notifier     NotificationService
	config       *config.Config
	logger       *logger.Logger
}

func NewRideService(
	rideRepo interfaces.RideRepository,
	accountRepo interfaces.AccountRepository,
	locationRepo interfaces.LocationRepository,
	fareEst fare.Estimator,
	dispatcher RideDispatcher,
	settlement SettlementService,
	notifier NotificationService,
	config *config.Config,
	logger *logger.Logger,
) RideService {
	return &rideService{
		rideRepo:     rideRepo,
		accountRepo:  accountRepo,
		locationRepo: locationRepo,
		fareEst:      fareEst,
		dispatcher:   dispatcher,
		settlement:   settlement,
		notifier:     notifier,
		config:       config,
		logger:       logger,
	}
}

func (s *rideService) RequestRide(ctx context.Context, passengerID primitive.ObjectID, req *validators.RideRequestRequest) (*models.Ride, error) {
	if err := validators.ValidateRideRequest(req); err != nil {
		return nil, err
	}

	// Debtors are blocked until their failed wallet debit is settled.
	hasDebt, err := s.rideRepo.HasPaymentFailed(ctx, passengerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check outstanding debt: %w", err)
	}
	if hasDebt {
		return nil, models.ErrOutstandingDebt
	}

	pickup := utils.Point{Lat: req.PickupLocation.Latitude, Lng: req.PickupLocation.Longitude}
	dropoff := utils.Point{Lat: req.DropoffLocation.Latitude, Lng: req.DropoffLocation.Longitude}

	floorPrice, err := s.fareEst.EstimateFloorPrice(ctx, pickup, dropoff)
	if err != nil {
		return nil, err
	}
	finalFare := ResolvePrice(floorPrice, req.OfferedFare)

	if models.PaymentMethod(req.PaymentMethod) == models.PaymentMethodWallet {
		account, err := s.accountRepo.GetByUserID(ctx, passengerID)
		if err != nil && err != models.ErrNotFound {
			return nil, fmt.Errorf("failed to load wallet: %w", err)
		}
		if account == nil || account.Balance < finalFare {
			return nil, models.ErrInsufficientBalance
		}
	}

	// Scheduled rides get a wider search area up front since supply has to be
	// arranged ahead of time.
	ring := utils.SearchRingDefault
	status := models.RideStatusPending
	if req.ScheduledTime != nil {
		ring = utils.SearchRingScheduled
		status = models.RideStatusScheduled
	}

	ride := &models.Ride{
		RideNumber:      utils.GenerateRideNumber(),
		PassengerID:     passengerID,
		Status:          status,
		PickupLocation:  models.NewLocation(pickup.Lat, pickup.Lng, req.PickupLocation.Address),
		DropoffLocation: models.NewLocation(dropoff.Lat, dropoff.Lng, req.DropoffLocation.Address),
		SearchCells:     utils.SurroundingCells(pickup.Lat, pickup.Lng, ring),
		FareEstimate:    finalFare,
		Currency:        s.config.App.Currency,
		PaymentMethod:   models.PaymentMethod(req.PaymentMethod),
		PaymentStatus:   models.PaymentStatusUnpaid,
		Note:            req.Note,
		ScheduledTime:   req.ScheduledTime,
		DispatchBatch:   1,
		LastDispatchAt:  time.Now(),
	}

	if err := s.rideRepo.Create(ctx, ride); err != nil {
		return nil, err
	}
	s.logger.LogRideEvent(ride.ID, "ride_created", map[string]interface{}{
		"status": ride.Status,
		"fare":   ride.FareEstimate,
	})

	// First dispatch attempt happens inline; the wave scheduler owns retries,
	// so a failure here is logged and left to the next wave.
	if ride.Status == models.RideStatusPending {
		if err := s.dispatcher.DispatchRide(ctx, ride); err != nil {
			s.logger.WithError(err).WithRideID(ride.ID).Warn("initial dispatch attempt failed")
		}
	}

	return ride, nil
}

func (s *rideService) AcceptRide(ctx context.Context, rideID, driverID primitive.ObjectID) (*models.Ride, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}

	// Idempotent re-accept from the same driver.
	if ride.Status == models.RideStatusAccepted && ride.DriverID != nil && *ride.DriverID == driverID {
		return ride, nil
	}

	var updated *models.Ride
	switch {
	case ride.DriverID != nil && *ride.DriverID == driverID && ride.Status == models.RideStatusScheduled:
		// Pre-assigned scheduled ride: the driver confirms.
		updated, err = s.rideRepo.ConfirmAssigned(ctx, rideID, driverID)
	case ride.Status.IsOpen():
		newStatus := models.RideStatusAccepted
		if ride.Status == models.RideStatusScheduled && ride.ScheduledTime != nil &&
			time.Until(*ride.ScheduledTime) > s.config.Dispatch.ActivationLookahead {
			// Claimed well ahead of time: the ride keeps waiting for the
			// activator with the driver attached.
			newStatus = models.RideStatusScheduled
		}
		updated, err = s.rideRepo.AcceptOpen(ctx, rideID, driverID, newStatus)
	default:
		return nil, models.ErrRideUnavailable
	}
	if err != nil {
		return nil, err
	}

	s.logger.LogRideEvent(rideID, "ride_accepted", map[string]interface{}{"driver_id": driverID.Hex()})
	s.notifier.NotifyUser(ctx, updated.PassengerID, &updated.ID,
		"Driver found", "A driver accepted your ride and is on the way.",
		map[string]string{"ride_id": updated.ID.Hex(), "status": string(updated.Status)})

	return updated, nil
}

var progressTransitions = map[models.RideStatus][]models.RideStatus{
	models.RideStatusArrived:    {models.RideStatusAccepted},
	models.RideStatusInProgress: {models.RideStatusArrived},
	models.RideStatusCompleted:  {models.RideStatusInProgress},
}

var progressMessages = map[models.RideStatus]string{
	models.RideStatusArrived:    "Your driver has arrived at the pickup point.",
	models.RideStatusInProgress: "Your trip has started.",
	models.RideStatusCompleted:  "Your trip is complete. Thanks for riding with us.",
}

func (s *rideService) UpdateStatus(ctx context.Context, rideID, driverID primitive.ObjectID, target models.RideStatus, driverLat, driverLng *float64) (*models.Ride, error) {
	from, ok := progressTransitions[target]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported target status %s", models.ErrInvalidInput, target)
	}

	if target == models.RideStatusArrived {
		if err := s.checkArrivalProximity(ctx, rideID, driverID, driverLat, driverLng); err != nil {
			return nil, err
		}
	}

	ride, err := s.rideRepo.TransitionByDriver(ctx, rideID, driverID, from, target)
	if err != nil {
		return nil, err
	}

	s.logger.LogRideEvent(rideID, "status_changed", map[string]interface{}{"status": target})
	s.notifier.NotifyUser(ctx, ride.PassengerID, &ride.ID,
		"Ride update", progressMessages[target],
		map[string]string{"ride_id": ride.ID.Hex(), "status": string(target)})

	if target == models.RideStatusCompleted {
		if err := s.settlement.SettleRide(ctx, ride); err != nil {
			// Settlement records its own durable debt markers; the completed
			// transition stands either way.
			s.logger.WithError(err).WithRideID(rideID).Error("settlement failed")
		}
	}

	return ride, nil
}

// checkArrivalProximity blocks an ARRIVED claim made too far from the pickup
// point. Location is best-known: the client-supplied fix wins, otherwise the
// last live-location ping. No location available means no check; we never
// block ride progress on missing telemetry.
func (s *rideService) checkArrivalProximity(ctx context.Context, rideID, driverID primitive.ObjectID, driverLat, driverLng *float64) error {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return err
	}

	var lat, lng float64
	switch {
	case driverLat != nil && driverLng != nil:
		lat, lng = *driverLat, *driverLng
	default:
		loc, err := s.locationRepo.GetByDriver(ctx, driverID)
		if err != nil {
			return nil
		}
		lat, lng = loc.Latitude, loc.Longitude
	}

	distance := utils.DistanceMeters(lat, lng,
		ride.PickupLocation.Latitude(), ride.PickupLocation.Longitude())
	if distance > utils.ArrivalProximityMeters {
		return fmt.Errorf("%w: %.0fm from pickup", models.ErrTooFarFromPickup, distance)
	}
	return nil
}

func (s *rideService) CancelByPassenger(ctx context.Context, rideID, passengerID primitive.ObjectID, reason string) (*models.Ride, error) {
	ride, err := s.rideRepo.CancelByPassenger(ctx, rideID, passengerID, reason)
	if err != nil {
		return nil, err
	}

	s.logger.LogRideEvent(rideID, "ride_cancelled", map[string]interface{}{"reason": reason})
	if ride.DriverID != nil {
		s.notifier.NotifyUser(ctx, *ride.DriverID, &ride.ID,
			"Ride cancelled", "The passenger cancelled this ride.",
			map[string]string{"ride_id": ride.ID.Hex()})
	}

	return ride, nil
}

func (s *rideService) ProcessNoShowFee(ctx context.Context, rideID, driverID primitive.ObjectID) (*models.Ride, error) {
	fee := s.config.Payment.NoShowFee
	ride, err := s.rideRepo.CancelNoShow(ctx, rideID, driverID, fee)
	if err != nil {
		return nil, err
	}

	// Fee transfers are best effort: the cancellation already stands, and a
	// missed fee is cheaper than blocking the driver.
	if err := s.accountRepo.DecrementBalance(ctx, ride.PassengerID, fee); err != nil {
		s.logger.WithError(err).WithRideID(rideID).Warn("no-show fee charge failed")
	}
	driverShare := fee * (1 - s.config.Payment.CommissionRate)
	if err := s.accountRepo.IncrementBalance(ctx, driverID, driverShare); err != nil {
		s.logger.WithError(err).WithRideID(rideID).Warn("no-show fee credit failed")
	}

	s.logger.LogRideEvent(rideID, "no_show_charged", map[string]interface{}{"fee": fee})
	s.notifier.NotifyUser(ctx, ride.PassengerID, &ride.ID,
		"No-show fee", fmt.Sprintf("You were charged a %.2f %s no-show fee.", fee, ride.Currency),
		map[string]string{"ride_id": ride.ID.Hex()})

	return ride, nil
}

func (s *rideService) GetRide(ctx context.Context, rideID primitive.ObjectID) (*models.Ride, error) {
	return s.rideRepo.GetByID(ctx, rideID)
}

func (s *rideService) GetPassengerRides(ctx context.Context, passengerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	return s.rideRepo.GetByPassenger(ctx, passengerID, params)
}

func (s *rideService) GetDriverRides(ctx context.Context, driverID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	return s.rideRepo.GetByDriver(ctx, driverID, params)
}
