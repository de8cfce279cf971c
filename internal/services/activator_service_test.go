package services

import (
	"context"
	"testing"
	"time"

	"ridehive/internal/models"
	"ridehive/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newActivatorTestEnv() (*fakeRideRepo, *fakeMatcher, *fakeNotificationRepo, *fakeUserRepo, ActivatorService) {
	rideRepo := newFakeRideRepo()
	matcher := &fakeMatcher{}
	outbox := newFakeNotificationRepo()
	userRepo := newFakeUserRepo()
	cfg := newTestConfig()
	log := logger.NewNopLogger()
	notifier := NewNotificationService(outbox, userRepo, &fakePushProvider{}, log)
	dispatcher := NewDispatchService(rideRepo, matcher, notifier, cfg.Dispatch, log)
	return rideRepo, matcher, outbox, userRepo, NewActivatorService(rideRepo, dispatcher, notifier, cfg.Dispatch, log)
}

func seedScheduledRide(repo *fakeRideRepo, driverID *primitive.ObjectID, when time.Time) *models.Ride {
	return repo.seed(&models.Ride{
		PassengerID:   primitive.NewObjectID(),
		DriverID:      driverID,
		Status:        models.RideStatusScheduled,
		ScheduledTime: &when,
		DispatchBatch: 1,
		UpdatedAt:     time.Now().Add(-time.Hour),
	})
}

func TestActivatorPromotesDueUnassignedRide(t *testing.T) {
	ctx := context.Background()
	repo, matcher, _, _, activator := newActivatorTestEnv()

	ride := seedScheduledRide(repo, nil, time.Now().Add(10*time.Minute))

	activator.TickOnce(ctx)

	activated, _ := repo.GetByID(ctx, ride.ID)
	if activated.Status != models.RideStatusPending {
		t.Fatalf("expected pending after activation, got %s", activated.Status)
	}
	if activated.DispatchBatch != 1 {
		t.Fatalf("expected fresh dispatch state, got batch %d", activated.DispatchBatch)
	}
	if matcher.callCount() != 1 {
		t.Fatalf("expected exactly one matching attempt, got %d", matcher.callCount())
	}
}

func TestActivatorPreAssignedRideSkipsMatching(t *testing.T) {
	ctx := context.Background()
	repo, matcher, outbox, userRepo, activator := newActivatorTestEnv()

	driverID := primitive.NewObjectID()
	userRepo.setTokens(driverID, "d-token")
	ride := seedScheduledRide(repo, &driverID, time.Now().Add(10*time.Minute))

	activator.TickOnce(ctx)

	activated, _ := repo.GetByID(ctx, ride.ID)
	if activated.Status != models.RideStatusPending {
		t.Fatalf("expected pending after activation, got %s", activated.Status)
	}
	if activated.DriverID == nil || *activated.DriverID != driverID {
		t.Fatal("expected pre-assigned driver preserved")
	}
	if matcher.callCount() != 0 {
		t.Fatalf("pre-assigned ride must not enter matching, got %d calls", matcher.callCount())
	}

	outbox.mu.Lock()
	defer outbox.mu.Unlock()
	if len(outbox.pending) != 1 {
		t.Fatalf("expected one driver reminder, got %d", len(outbox.pending))
	}
	if outbox.pending[0].UserID != driverID {
		t.Fatal("expected the reminder to target the assigned driver")
	}
}

func TestActivatorIgnoresDistantRides(t *testing.T) {
	ctx := context.Background()
	repo, matcher, _, _, activator := newActivatorTestEnv()

	ride := seedScheduledRide(repo, nil, time.Now().Add(2*time.Hour))

	activator.TickOnce(ctx)

	untouched, _ := repo.GetByID(ctx, ride.ID)
	if untouched.Status != models.RideStatusScheduled {
		t.Fatalf("ride outside the lookahead must stay scheduled, got %s", untouched.Status)
	}
	if matcher.callCount() != 0 {
		t.Fatalf("expected no matching attempts, got %d", matcher.callCount())
	}
}

func TestActivationBeatsHoardingReaper(t *testing.T) {
	ctx := context.Background()
	repo, _, _, _, activator := newActivatorTestEnv()

	// Driver claimed the scheduled ride long before pickup. Activation flows
	// through the scheduled status, not accepted, so the hoarding reaper never
	// sees a stale accepted ride while it waits.
	driverID := primitive.NewObjectID()
	ride := seedScheduledRide(repo, &driverID, time.Now().Add(5*time.Minute))

	cfg := newTestConfig()
	log := logger.NewNopLogger()
	notifier := NewNotificationService(newFakeNotificationRepo(), newFakeUserRepo(), &fakePushProvider{}, log)
	reaper := NewReaperService(repo, &fakeMatcher{}, notifier, cfg.Dispatch, log)

	reaper.ReapHoardedRides(ctx)
	activator.TickOnce(ctx)

	activated, _ := repo.GetByID(ctx, ride.ID)
	if activated.DriverID == nil || *activated.DriverID != driverID {
		t.Fatal("expected the claim to survive until activation")
	}
	if activated.Status != models.RideStatusPending {
		t.Fatalf("expected activation to promote the ride, got %s", activated.Status)
	}
}
