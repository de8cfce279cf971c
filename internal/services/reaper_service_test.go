package services

import (
	"context"
	"testing"
	"time"

	"ridehive/internal/models"
	"ridehive/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newReaperTestEnv() (*fakeRideRepo, *fakeMatcher, *fakeNotificationRepo, *fakeUserRepo, ReaperService) {
	rideRepo := newFakeRideRepo()
	matcher := &fakeMatcher{}
	outbox := newFakeNotificationRepo()
	userRepo := newFakeUserRepo()
	cfg := newTestConfig()
	log := logger.NewNopLogger()
	notifier := NewNotificationService(outbox, userRepo, &fakePushProvider{}, log)
	return rideRepo, matcher, outbox, userRepo, NewReaperService(rideRepo, matcher, notifier, cfg.Dispatch, log)
}

func TestReapStalePendingTimesOutOldRides(t *testing.T) {
	ctx := context.Background()
	repo, matcher, _, _, reaper := newReaperTestEnv()

	stale := repo.seed(&models.Ride{
		PassengerID: primitive.NewObjectID(),
		Status:      models.RideStatusPending,
		UpdatedAt:   time.Now().Add(-10 * time.Minute),
	})
	fresh := repo.seed(&models.Ride{
		PassengerID: primitive.NewObjectID(),
		Status:      models.RideStatusPending,
		UpdatedAt:   time.Now(),
	})

	reaper.ReapStalePending(ctx)

	timedOut, _ := repo.GetByID(ctx, stale.ID)
	if timedOut.Status != models.RideStatusNoDriversAvailable {
		t.Fatalf("expected no_drivers_available, got %s", timedOut.Status)
	}
	untouched, _ := repo.GetByID(ctx, fresh.ID)
	if untouched.Status != models.RideStatusPending {
		t.Fatalf("fresh ride must survive the reaper, got %s", untouched.Status)
	}
	if matcher.cleanups != 1 {
		t.Fatalf("expected offer cleanup after reaping, got %d", matcher.cleanups)
	}
}

func TestReapStalePendingIgnoresDispatchActivity(t *testing.T) {
	ctx := context.Background()
	repo, _, _, _, reaper := newReaperTestEnv()

	ride := repo.seed(&models.Ride{
		PassengerID: primitive.NewObjectID(),
		Status:      models.RideStatusPending,
		UpdatedAt:   time.Now().Add(-10 * time.Minute),
	})

	// Dispatch waves stamp dispatch_batch and last_dispatch_at only; they
	// must not push the unmatched timeout out.
	if _, err := repo.AdvanceDispatchWave(ctx, ride.ID, 0); err != nil {
		t.Fatalf("advance wave: %v", err)
	}

	reaper.ReapStalePending(ctx)

	timedOut, _ := repo.GetByID(ctx, ride.ID)
	if timedOut.Status != models.RideStatusNoDriversAvailable {
		t.Fatalf("expected timeout despite a recent wave, got %s", timedOut.Status)
	}
}

func TestReapStalePendingStillClaimable(t *testing.T) {
	ctx := context.Background()
	repo, _, _, _, reaper := newReaperTestEnv()

	ride := repo.seed(&models.Ride{
		PassengerID: primitive.NewObjectID(),
		Status:      models.RideStatusPending,
		UpdatedAt:   time.Now().Add(-10 * time.Minute),
	})

	reaper.ReapStalePending(ctx)

	// A timed-out ride is terminal for the timers but still open for a late
	// driver claim.
	timedOut, _ := repo.GetByID(ctx, ride.ID)
	if !timedOut.Status.IsOpen() {
		t.Fatalf("expected %s to remain claimable", timedOut.Status)
	}
}

func TestReapHoardedRidesResetsDispatchState(t *testing.T) {
	ctx := context.Background()
	repo, _, outbox, userRepo, reaper := newReaperTestEnv()

	passengerID := primitive.NewObjectID()
	driverID := primitive.NewObjectID()
	userRepo.setTokens(passengerID, "p-token")
	userRepo.setTokens(driverID, "d-token")

	accepted := time.Now().Add(-30 * time.Minute)
	ride := repo.seed(&models.Ride{
		PassengerID:   passengerID,
		DriverID:      &driverID,
		Status:        models.RideStatusAccepted,
		DispatchBatch: 3,
		AcceptedAt:    &accepted,
		UpdatedAt:     accepted,
	})

	before := time.Now()
	reaper.ReapHoardedRides(ctx)

	reclaimed, _ := repo.GetByID(ctx, ride.ID)
	if reclaimed.Status != models.RideStatusPending {
		t.Fatalf("expected pending after reclaim, got %s", reclaimed.Status)
	}
	if reclaimed.DriverID != nil {
		t.Fatal("expected driver cleared")
	}
	if reclaimed.DispatchBatch != 1 {
		t.Fatalf("expected batch reset to 1, got %d", reclaimed.DispatchBatch)
	}
	if reclaimed.LastDispatchAt.Before(before) {
		t.Fatal("expected last dispatch time refreshed")
	}
	if reclaimed.Note != models.CancelReasonDriverTimeout {
		t.Fatalf("expected timeout note, got %q", reclaimed.Note)
	}

	// Both parties are told.
	outbox.mu.Lock()
	defer outbox.mu.Unlock()
	if len(outbox.pending) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(outbox.pending))
	}
}

func TestReapHoardedRidesLeavesActiveDriversAlone(t *testing.T) {
	ctx := context.Background()
	repo, _, _, _, reaper := newReaperTestEnv()

	driverID := primitive.NewObjectID()
	ride := repo.seed(&models.Ride{
		PassengerID: primitive.NewObjectID(),
		DriverID:    &driverID,
		Status:      models.RideStatusAccepted,
		UpdatedAt:   time.Now(),
	})

	reaper.ReapHoardedRides(ctx)

	untouched, _ := repo.GetByID(ctx, ride.ID)
	if untouched.Status != models.RideStatusAccepted || untouched.DriverID == nil {
		t.Fatalf("recently active driver must keep the ride, got %s", untouched.Status)
	}
}
