package services

import (
	"context"
	"sync"
	"time"

	"ridehive/internal/config"
	"ridehive/internal/models"
	"ridehive/internal/utils"
	"ridehive/pkg/push"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory fakes mirroring the conditional-update semantics of the mongodb
// repositories: a mutation whose expected prior state does not match reports
// the same race error the real repository would.

type fakeRideRepo struct {
	mu    sync.Mutex
	rides map[primitive.ObjectID]*models.Ride
}

func newFakeRideRepo() *fakeRideRepo {
	return &fakeRideRepo{rides: make(map[primitive.ObjectID]*models.Ride)}
}

func (r *fakeRideRepo) copyOf(ride *models.Ride) *models.Ride {
	c := *ride
	if ride.DriverID != nil {
		d := *ride.DriverID
		c.DriverID = &d
	}
	return &c
}

func (r *fakeRideRepo) Create(ctx context.Context, ride *models.Ride) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride.ID = primitive.NewObjectID()
	now := time.Now()
	ride.CreatedAt = now
	ride.UpdatedAt = now
	r.rides[ride.ID] = r.copyOf(ride)
	return nil
}

func (r *fakeRideRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return r.copyOf(ride), nil
}

func (r *fakeRideRepo) AcceptOpen(ctx context.Context, id, driverID primitive.ObjectID, newStatus models.RideStatus) (*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[id]
	if !ok || !ride.Status.IsOpen() || ride.DriverID != nil {
		return nil, models.ErrRideUnavailable
	}
	now := time.Now()
	d := driverID
	ride.DriverID = &d
	ride.Status = newStatus
	ride.UpdatedAt = now
	if newStatus == models.RideStatusAccepted {
		ride.AcceptedAt = &now
	}
	return r.copyOf(ride), nil
}

func (r *fakeRideRepo) ConfirmAssigned(ctx context.Context, id, driverID primitive.ObjectID) (*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[id]
	if !ok || ride.Status != models.RideStatusScheduled || ride.DriverID == nil || *ride.DriverID != driverID {
		return nil, models.ErrRideUnavailable
	}
	now := time.Now()
	ride.Status = models.RideStatusAccepted
	ride.AcceptedAt = &now
	ride.UpdatedAt = now
	return r.copyOf(ride), nil
}

func (r *fakeRideRepo) TransitionByDriver(ctx context.Context, id, driverID primitive.ObjectID, from []models.RideStatus, to models.RideStatus) (*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[id]
	if !ok || ride.DriverID == nil || *ride.DriverID != driverID {
		return nil, models.ErrForbidden
	}
	matched := false
	for _, s := range from {
		if ride.Status == s {
			matched = true
			break
		}
	}
	if !matched {
		return nil, models.ErrForbidden
	}
	now := time.Now()
	ride.Status = to
	ride.UpdatedAt = now
	switch to {
	case models.RideStatusArrived:
		ride.ArrivedAt = &now
	case models.RideStatusInProgress:
		ride.StartedAt = &now
	case models.RideStatusCompleted:
		ride.CompletedAt = &now
	}
	return r.copyOf(ride), nil
}

func (r *fakeRideRepo) CancelByPassenger(ctx context.Context, id, passengerID primitive.ObjectID, reason string) (*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[id]
	if !ok || ride.PassengerID != passengerID {
		return nil, models.ErrForbidden
	}
	switch ride.Status {
	case models.RideStatusPending, models.RideStatusScheduled, models.RideStatusAccepted,
		models.RideStatusArrived, models.RideStatusNoDriversAvailable:
	default:
		return nil, models.ErrForbidden
	}
	now := time.Now()
	ride.Status = models.RideStatusCancelled
	ride.CancellationReason = reason
	ride.CancelledAt = &now
	ride.UpdatedAt = now
	return r.copyOf(ride), nil
}

func (r *fakeRideRepo) CancelNoShow(ctx context.Context, id, driverID primitive.ObjectID, fee float64) (*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[id]
	if !ok || ride.Status != models.RideStatusArrived || ride.DriverID == nil || *ride.DriverID != driverID {
		return nil, models.ErrForbidden
	}
	now := time.Now()
	ride.Status = models.RideStatusCancelled
	ride.CancellationReason = models.CancelReasonPassengerNoShow
	ride.PaymentStatus = models.PaymentStatusPaid
	ride.FareEstimate = fee
	ride.CancelledAt = &now
	ride.UpdatedAt = now
	return r.copyOf(ride), nil
}

func (r *fakeRideRepo) AdvanceDispatchWave(ctx context.Context, id primitive.ObjectID, fromBatch int) (*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[id]
	if !ok || ride.Status != models.RideStatusPending || ride.DispatchBatch != fromBatch {
		return nil, models.ErrRideUnavailable
	}
	batch := fromBatch + 1
	if batch > models.MaxDispatchBatch {
		batch = models.MaxDispatchBatch
	}
	ride.DispatchBatch = batch
	ride.LastDispatchAt = time.Now()
	return r.copyOf(ride), nil
}

func (r *fakeRideRepo) MarkNoDrivers(ctx context.Context, id primitive.ObjectID, staleBefore time.Time) (*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[id]
	if !ok || ride.Status != models.RideStatusPending || !ride.UpdatedAt.Before(staleBefore) {
		return nil, models.ErrRideUnavailable
	}
	ride.Status = models.RideStatusNoDriversAvailable
	ride.UpdatedAt = time.Now()
	return r.copyOf(ride), nil
}

func (r *fakeRideRepo) ReclaimFromDriver(ctx context.Context, id primitive.ObjectID, staleBefore time.Time) (*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[id]
	if !ok || ride.Status != models.RideStatusAccepted || !ride.UpdatedAt.Before(staleBefore) {
		return nil, models.ErrRideUnavailable
	}
	now := time.Now()
	ride.DriverID = nil
	ride.Status = models.RideStatusPending
	ride.DispatchBatch = 1
	ride.LastDispatchAt = now
	ride.Note = models.CancelReasonDriverTimeout
	ride.AcceptedAt = nil
	ride.UpdatedAt = now
	return r.copyOf(ride), nil
}

func (r *fakeRideRepo) ActivateScheduled(ctx context.Context, id primitive.ObjectID) (*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[id]
	if !ok || ride.Status != models.RideStatusScheduled {
		return nil, models.ErrRideUnavailable
	}
	now := time.Now()
	ride.Status = models.RideStatusPending
	ride.DispatchBatch = 1
	ride.LastDispatchAt = now
	ride.UpdatedAt = now
	return r.copyOf(ride), nil
}

func (r *fakeRideRepo) SetPaymentStatus(ctx context.Context, id primitive.ObjectID, status models.PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[id]
	if !ok {
		return models.ErrNotFound
	}
	ride.PaymentStatus = status
	ride.UpdatedAt = time.Now()
	return nil
}

func (r *fakeRideRepo) FindDispatchDue(ctx context.Context, offeredBefore time.Time, limit int64) ([]*models.Ride, error) {
	return r.findWhere(limit, func(ride *models.Ride) bool {
		return ride.Status == models.RideStatusPending && ride.LastDispatchAt.Before(offeredBefore)
	})
}

func (r *fakeRideRepo) FindStalePending(ctx context.Context, staleBefore time.Time, limit int64) ([]*models.Ride, error) {
	return r.findWhere(limit, func(ride *models.Ride) bool {
		return ride.Status == models.RideStatusPending && ride.UpdatedAt.Before(staleBefore)
	})
}

func (r *fakeRideRepo) FindStaleAccepted(ctx context.Context, staleBefore time.Time, limit int64) ([]*models.Ride, error) {
	return r.findWhere(limit, func(ride *models.Ride) bool {
		return ride.Status == models.RideStatusAccepted && ride.UpdatedAt.Before(staleBefore)
	})
}

func (r *fakeRideRepo) FindDueScheduled(ctx context.Context, dueBefore time.Time, limit int64) ([]*models.Ride, error) {
	return r.findWhere(limit, func(ride *models.Ride) bool {
		return ride.Status == models.RideStatusScheduled &&
			ride.ScheduledTime != nil && !ride.ScheduledTime.After(dueBefore)
	})
}

func (r *fakeRideRepo) findWhere(limit int64, match func(*models.Ride) bool) ([]*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Ride
	for _, ride := range r.rides {
		if match(ride) {
			out = append(out, r.copyOf(ride))
			if int64(len(out)) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (r *fakeRideRepo) HasPaymentFailed(ctx context.Context, passengerID primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ride := range r.rides {
		if ride.PassengerID == passengerID && ride.PaymentStatus == models.PaymentStatusFailed {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRideRepo) GetByPassenger(ctx context.Context, passengerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	rides, _ := r.findWhere(params.Limit(), func(ride *models.Ride) bool {
		return ride.PassengerID == passengerID
	})
	return rides, int64(len(rides)), nil
}

func (r *fakeRideRepo) GetByDriver(ctx context.Context, driverID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	rides, _ := r.findWhere(params.Limit(), func(ride *models.Ride) bool {
		return ride.DriverID != nil && *ride.DriverID == driverID
	})
	return rides, int64(len(rides)), nil
}

// seed inserts a ride directly, bypassing Create's field stamping.
func (r *fakeRideRepo) seed(ride *models.Ride) *models.Ride {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ride.ID.IsZero() {
		ride.ID = primitive.NewObjectID()
	}
	r.rides[ride.ID] = r.copyOf(ride)
	return ride
}

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[primitive.ObjectID]*models.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[primitive.ObjectID]*models.Account)}
}

func (r *fakeAccountRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[userID]
	if !ok {
		return nil, models.ErrNotFound
	}
	c := *account
	return &c, nil
}

func (r *fakeAccountRepo) CreateIfMissing(ctx context.Context, userID primitive.ObjectID, currency string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[userID]; !ok {
		r.accounts[userID] = &models.Account{UserID: userID, Currency: currency}
	}
	return nil
}

func (r *fakeAccountRepo) DecrementBalance(ctx context.Context, userID primitive.ObjectID, amount float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[userID]
	if !ok || account.Balance < amount {
		return models.ErrInsufficientBalance
	}
	account.Balance -= amount
	return nil
}

func (r *fakeAccountRepo) IncrementBalance(ctx context.Context, userID primitive.ObjectID, amount float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[userID]
	if !ok {
		account = &models.Account{UserID: userID}
		r.accounts[userID] = account
	}
	account.Balance += amount
	return nil
}

func (r *fakeAccountRepo) setBalance(userID primitive.ObjectID, balance float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[userID] = &models.Account{UserID: userID, Balance: balance}
}

func (r *fakeAccountRepo) balance(userID primitive.ObjectID) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if account, ok := r.accounts[userID]; ok {
		return account.Balance
	}
	return 0
}

type fakeTransactionRepo struct {
	mu  sync.Mutex
	txs []*models.Transaction
}

func (r *fakeTransactionRepo) Create(ctx context.Context, tx *models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx.ID = primitive.NewObjectID()
	r.txs = append(r.txs, tx)
	return nil
}

func (r *fakeTransactionRepo) ListByRide(ctx context.Context, rideID primitive.ObjectID) ([]*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Transaction
	for _, tx := range r.txs {
		if tx.RideID != nil && *tx.RideID == rideID {
			out = append(out, tx)
		}
	}
	return out, nil
}

type fakeLocationRepo struct {
	mu        sync.Mutex
	locations map[primitive.ObjectID]*models.DriverLocation
}

func newFakeLocationRepo() *fakeLocationRepo {
	return &fakeLocationRepo{locations: make(map[primitive.ObjectID]*models.DriverLocation)}
}

func (r *fakeLocationRepo) Upsert(ctx context.Context, loc *models.DriverLocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *loc
	r.locations[loc.DriverID] = &c
	return nil
}

func (r *fakeLocationRepo) GetByDriver(ctx context.Context, driverID primitive.ObjectID) (*models.DriverLocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	loc, ok := r.locations[driverID]
	if !ok {
		return nil, models.ErrNotFound
	}
	c := *loc
	return &c, nil
}

func (r *fakeLocationRepo) Delete(ctx context.Context, driverID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.locations, driverID)
	return nil
}

type fakeUserRepo struct {
	mu     sync.Mutex
	tokens map[primitive.ObjectID][]string
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{tokens: make(map[primitive.ObjectID][]string)}
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return &models.User{ID: id}, nil
}

func (r *fakeUserRepo) GetDeviceTokens(ctx context.Context, userIDs []primitive.ObjectID) (map[primitive.ObjectID][]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[primitive.ObjectID][]string, len(userIDs))
	for _, id := range userIDs {
		if tokens, ok := r.tokens[id]; ok {
			out[id] = tokens
		}
	}
	return out, nil
}

func (r *fakeUserRepo) setTokens(userID primitive.ObjectID, tokens ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[userID] = tokens
}

type fakeNotificationRepo struct {
	mu      sync.Mutex
	pending []*models.Notification
	sent    []primitive.ObjectID
	failed  map[primitive.ObjectID]string
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{failed: make(map[primitive.ObjectID]string)}
}

func (r *fakeNotificationRepo) Enqueue(ctx context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n.ID = primitive.NewObjectID()
	n.Status = models.NotificationStatusPending
	n.CreatedAt = time.Now()
	r.pending = append(r.pending, n)
	return nil
}

func (r *fakeNotificationRepo) ClaimPending(ctx context.Context, limit int64) ([]*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Notification
	for _, n := range r.pending {
		if n.Status == models.NotificationStatusPending &&
			n.Attempts < utils.OutboxMaxAttempts && int64(len(out)) < limit {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) MarkSent(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.pending {
		if n.ID == id {
			n.Status = models.NotificationStatusSent
		}
	}
	r.sent = append(r.sent, id)
	return nil
}

// MarkFailed leaves the entry pending so the next drain retries it; the
// attempt counter is what eventually stops redelivery.
func (r *fakeNotificationRepo) MarkFailed(ctx context.Context, id primitive.ObjectID, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.pending {
		if n.ID == id {
			n.Attempts++
			n.LastError = reason
		}
	}
	r.failed[id] = reason
	return nil
}

// Collaborator fakes

type fakeMatcher struct {
	mu         sync.Mutex
	calls      []int // batch level of each FindAndOfferRide call
	driverIDs  []string
	err        error
	cleanups   int
	cleanupErr error
}

func (m *fakeMatcher) FindAndOfferRide(ctx context.Context, rideID string, batch int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, batch)
	if m.err != nil {
		return nil, m.err
	}
	return m.driverIDs, nil
}

func (m *fakeMatcher) CleanupExpiredOffers(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanups++
	return m.cleanupErr
}

func (m *fakeMatcher) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type fakeEstimator struct {
	floor float64
	err   error
}

func (e *fakeEstimator) EstimateFloorPrice(ctx context.Context, pickup, dropoff utils.Point) (float64, error) {
	if e.err != nil {
		return 0, e.err
	}
	return e.floor, nil
}

type fakePushProvider struct {
	mu   sync.Mutex
	sent []*push.NotificationRequest
	err  error
}

func (p *fakePushProvider) SendNotification(ctx context.Context, request *push.NotificationRequest) (*push.NotificationResponse, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, request)
	return &push.NotificationResponse{Success: true, Token: request.Token}, nil
}

func (p *fakePushProvider) SendBulkNotifications(ctx context.Context, requests []*push.NotificationRequest) ([]*push.NotificationResponse, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, requests...)
	responses := make([]*push.NotificationResponse, len(requests))
	for i, req := range requests {
		responses[i] = &push.NotificationResponse{Success: true, Token: req.Token}
	}
	return responses, nil
}

func newTestConfig() *config.Config {
	return &config.Config{
		App: &config.AppConfig{Currency: "USD"},
		Payment: &config.PaymentConfig{
			CommissionRate: 0.12,
			NoShowFee:      5.0,
		},
		Dispatch: &config.DispatchConfig{
			TickInterval:        10 * time.Second,
			WaveInterval:        20 * time.Second,
			BatchLimit:          50,
			PendingReapInterval: 30 * time.Second,
			PendingTimeout:      3 * time.Minute,
			HoardReapInterval:   60 * time.Second,
			HoardTimeout:        20 * time.Minute,
			ActivatorInterval:   60 * time.Second,
			ActivationLookahead: 20 * time.Minute,
		},
	}
}
