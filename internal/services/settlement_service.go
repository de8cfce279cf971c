package services

import (
	"context"
	"fmt"
	"time"

	"ridehive/internal/config"
	"ridehive/internal/models"
	"ridehive/internal/repositories/interfaces"
	"ridehive/pkg/logger"
)

// SettlementService moves the money for a completed ride and records the
// outcome on the ride itself. A failed collection never reopens the ride;
// it leaves a durable payment marker that blocks the debtor's next request.
type SettlementService interface {
	SettleRide(ctx context.Context, ride *models.Ride) error
}

type settlementService struct {
	rideRepo    interfaces.RideRepository
	accountRepo interfaces.AccountRepository
	txRepo      interfaces.TransactionRepository
	config      *config.PaymentConfig
	logger      *logger.Logger
}

func NewSettlementService(
	rideRepo interfaces.RideRepository,
	accountRepo interfaces.AccountRepository,
	txRepo interfaces.TransactionRepository,
	config *config.PaymentConfig,
	logger *logger.Logger,
) SettlementService {
	return &settlementService{
		rideRepo:    rideRepo,
		accountRepo: accountRepo,
		txRepo:      txRepo,
		config:      config,
		logger:      logger,
	}
}

func (s *settlementService) SettleRide(ctx context.Context, ride *models.Ride) error {
	if ride.DriverID == nil {
		return fmt.Errorf("cannot settle ride %s: no driver assigned", ride.ID.Hex())
	}

	commission := ride.FareEstimate * s.config.CommissionRate

	switch ride.PaymentMethod {
	case models.PaymentMethodWallet:
		return s.settleWallet(ctx, ride, commission)
	case models.PaymentMethodCash:
		return s.settleCash(ctx, ride, commission)
	default:
		return fmt.Errorf("unknown payment method %q on ride %s", ride.PaymentMethod, ride.ID.Hex())
	}
}

// settleWallet debits the passenger for the full fare and credits the driver
// with the fare net of commission. The driver is paid whether or not the
// passenger could cover the fare; a short passenger ends the ride as
// payment_failed and is blocked from new requests until the debt clears,
// with the platform carrying the shortfall in the meantime.
func (s *settlementService) settleWallet(ctx context.Context, ride *models.Ride, commission float64) error {
	passengerShort := false
	if err := s.accountRepo.DecrementBalance(ctx, ride.PassengerID, ride.FareEstimate); err != nil {
		if err != models.ErrInsufficientBalance {
			return fmt.Errorf("failed to debit passenger: %w", err)
		}
		passengerShort = true
	}

	driverShare := ride.FareEstimate - commission
	if err := s.accountRepo.IncrementBalance(ctx, *ride.DriverID, driverShare); err != nil {
		// If the passenger was debited the money is now in limbo. Flag
		// loudly for manual reconciliation rather than failing the ride.
		s.logger.WithError(err).WithRideID(ride.ID).WithFields(map[string]interface{}{
			"driver_id":       ride.DriverID.Hex(),
			"driver_share":    driverShare,
			"passenger_short": passengerShort,
			"reconcile":       true,
		}).Error("driver credit failed during wallet settlement")
	}

	if passengerShort {
		if markErr := s.rideRepo.SetPaymentStatus(ctx, ride.ID, models.PaymentStatusFailed); markErr != nil {
			return fmt.Errorf("failed to mark ride payment failed: %w", markErr)
		}
		s.logger.LogPaymentEvent(ride.ID, "payment_failed", ride.FareEstimate, ride.Currency)
		return nil
	}

	s.recordCommission(ctx, ride, commission)

	if err := s.rideRepo.SetPaymentStatus(ctx, ride.ID, models.PaymentStatusPaid); err != nil {
		return fmt.Errorf("failed to mark ride paid: %w", err)
	}
	s.logger.LogPaymentEvent(ride.ID, "wallet_payment_settled", ride.FareEstimate, ride.Currency)
	return nil
}

// settleCash collects the platform commission from the driver's wallet; the
// driver already holds the full fare in cash. A driver who cannot cover the
// commission ends the ride as commission_owed.
func (s *settlementService) settleCash(ctx context.Context, ride *models.Ride, commission float64) error {
	if err := s.accountRepo.DecrementBalance(ctx, *ride.DriverID, commission); err != nil {
		if err == models.ErrInsufficientBalance {
			if markErr := s.rideRepo.SetPaymentStatus(ctx, ride.ID, models.PaymentStatusCommissionOwed); markErr != nil {
				return fmt.Errorf("failed to mark ride commission owed: %w", markErr)
			}
			s.logger.LogPaymentEvent(ride.ID, "commission_owed", commission, ride.Currency)
			return nil
		}
		return fmt.Errorf("failed to collect commission: %w", err)
	}

	s.recordCommission(ctx, ride, commission)

	if err := s.rideRepo.SetPaymentStatus(ctx, ride.ID, models.PaymentStatusPaid); err != nil {
		return fmt.Errorf("failed to mark ride paid: %w", err)
	}
	s.logger.LogPaymentEvent(ride.ID, "cash_payment_settled", ride.FareEstimate, ride.Currency)
	return nil
}

func (s *settlementService) recordCommission(ctx context.Context, ride *models.Ride, commission float64) {
	tx := &models.Transaction{
		UserID:      *ride.DriverID,
		RideID:      &ride.ID,
		Type:        models.TransactionTypeCommission,
		Amount:      commission,
		Currency:    ride.Currency,
		Description: fmt.Sprintf("Platform commission for ride %s", ride.RideNumber),
		CreatedAt:   time.Now(),
	}
	if err := s.txRepo.Create(ctx, tx); err != nil {
		// Balances already moved. The ledger line is for audit, so log for
		// reconciliation instead of unwinding the transfer.
		s.logger.WithError(err).WithRideID(ride.ID).WithField("reconcile", true).
			Error("failed to record commission ledger line")
	}
}
