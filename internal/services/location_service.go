package services

import (
	"context"
	"time"

	"ridehive/internal/models"
	"ridehive/internal/repositories/interfaces"
	"ridehive/internal/utils"
	"ridehive/internal/validators"
	"ridehive/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LocationService tracks live driver positions for the arrival proximity
// check and the nearby-driver index.
type LocationService interface {
	UpdateLocation(ctx context.Context, driverID primitive.ObjectID, req *validators.LocationUpdateRequest) error
	UpdateLocationBatch(ctx context.Context, driverID primitive.ObjectID, req *validators.LocationBatchUpdateRequest) error
	GoOffline(ctx context.Context, driverID primitive.ObjectID) error
}

type locationService struct {
	locationRepo interfaces.LocationRepository
	logger       *logger.Logger
}

func NewLocationService(locationRepo interfaces.LocationRepository, logger *logger.Logger) LocationService {
	return &locationService{
		locationRepo: locationRepo,
		logger:       logger,
	}
}

func (s *locationService) UpdateLocation(ctx context.Context, driverID primitive.ObjectID, req *validators.LocationUpdateRequest) error {
	if err := validators.ValidateLocationUpdate(req); err != nil {
		return err
	}

	return s.locationRepo.Upsert(ctx, &models.DriverLocation{
		DriverID:  driverID,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Heading:   req.Heading,
		Cell:      utils.LocalityCell(req.Latitude, req.Longitude),
		UpdatedAt: time.Now(),
	})
}

// UpdateLocationBatch applies a burst of buffered pings in order. Only the
// last one matters for the live index, but each is validated so one bad fix
// does not poison the rest.
func (s *locationService) UpdateLocationBatch(ctx context.Context, driverID primitive.ObjectID, req *validators.LocationBatchUpdateRequest) error {
	for i := range req.Locations {
		if err := s.UpdateLocation(ctx, driverID, &req.Locations[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *locationService) GoOffline(ctx context.Context, driverID primitive.ObjectID) error {
	if err := s.locationRepo.Delete(ctx, driverID); err != nil {
		return err
	}
	s.logger.WithUserID(driverID).Info("driver went offline")
	return nil
}
