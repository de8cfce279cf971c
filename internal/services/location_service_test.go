package services

import (
	"context"
	"errors"
	"testing"

	"ridehive/internal/models"
	"ridehive/internal/validators"
	"ridehive/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestUpdateLocationStoresPosition(t *testing.T) {
	ctx := context.Background()
	repo := newFakeLocationRepo()
	svc := NewLocationService(repo, logger.NewNopLogger())
	driverID := primitive.NewObjectID()

	err := svc.UpdateLocation(ctx, driverID, &validators.LocationUpdateRequest{
		Latitude:  40.7128,
		Longitude: -74.0060,
		Heading:   90,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	loc, err := repo.GetByDriver(ctx, driverID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loc.Latitude != 40.7128 || loc.Longitude != -74.0060 {
		t.Fatalf("unexpected stored position: %.4f,%.4f", loc.Latitude, loc.Longitude)
	}
	if loc.Cell == 0 {
		t.Fatal("expected a locality cell to be computed")
	}
}

func TestUpdateLocationRejectsBadCoordinates(t *testing.T) {
	ctx := context.Background()
	svc := NewLocationService(newFakeLocationRepo(), logger.NewNopLogger())

	err := svc.UpdateLocation(ctx, primitive.NewObjectID(), &validators.LocationUpdateRequest{
		Latitude:  120,
		Longitude: 0,
	})
	if !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUpdateLocationBatchLastWins(t *testing.T) {
	ctx := context.Background()
	repo := newFakeLocationRepo()
	svc := NewLocationService(repo, logger.NewNopLogger())
	driverID := primitive.NewObjectID()

	err := svc.UpdateLocationBatch(ctx, driverID, &validators.LocationBatchUpdateRequest{
		Locations: []validators.LocationUpdateRequest{
			{Latitude: 40.0, Longitude: -74.0},
			{Latitude: 40.1, Longitude: -74.1},
			{Latitude: 40.2, Longitude: -74.2},
		},
	})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}

	loc, _ := repo.GetByDriver(ctx, driverID)
	if loc.Latitude != 40.2 {
		t.Fatalf("expected the last fix to win, got %.2f", loc.Latitude)
	}
}

func TestGoOfflineRemovesDriver(t *testing.T) {
	ctx := context.Background()
	repo := newFakeLocationRepo()
	svc := NewLocationService(repo, logger.NewNopLogger())
	driverID := primitive.NewObjectID()

	if err := svc.UpdateLocation(ctx, driverID, &validators.LocationUpdateRequest{Latitude: 40, Longitude: -74}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := svc.GoOffline(ctx, driverID); err != nil {
		t.Fatalf("offline: %v", err)
	}

	if _, err := repo.GetByDriver(ctx, driverID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected driver removed, got %v", err)
	}
}
