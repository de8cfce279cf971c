package services

import (
	"context"
	"fmt"
	"time"

	"ridehive/internal/config"
	"ridehive/internal/models"
	"ridehive/internal/repositories/interfaces"
	"ridehive/internal/validators"
	"ridehive/pkg/logger"
	"ridehive/pkg/payment"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AccountService interface {
	GetBalance(ctx context.Context, userID primitive.ObjectID) (*models.Account, error)
	TopUpWallet(ctx context.Context, userID primitive.ObjectID, req *validators.TopUpRequest) (*models.Account, error)
	GetRideTransactions(ctx context.Context, rideID primitive.ObjectID) ([]*models.Transaction, error)
}

type accountService struct {
	accountRepo interfaces.AccountRepository
	txRepo      interfaces.TransactionRepository
	provider    payment.Provider
	config      *config.Config
	logger      *logger.Logger
}

func NewAccountService(
	accountRepo interfaces.AccountRepository,
	txRepo interfaces.TransactionRepository,
	provider payment.Provider,
	config *config.Config,
	logger *logger.Logger,
) AccountService {
	return &accountService{
		accountRepo: accountRepo,
		txRepo:      txRepo,
		provider:    provider,
		config:      config,
		logger:      logger,
	}
}

func (s *accountService) GetBalance(ctx context.Context, userID primitive.ObjectID) (*models.Account, error) {
	if err := s.accountRepo.CreateIfMissing(ctx, userID, s.config.App.Currency); err != nil {
		return nil, fmt.Errorf("failed to ensure account: %w", err)
	}
	return s.accountRepo.GetByUserID(ctx, userID)
}

// TopUpWallet charges an external payment method and credits the wallet only
// after the charge succeeds.
func (s *accountService) TopUpWallet(ctx context.Context, userID primitive.ObjectID, req *validators.TopUpRequest) (*models.Account, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: top-up amount must be positive", models.ErrInvalidInput)
	}

	if err := s.accountRepo.CreateIfMissing(ctx, userID, s.config.App.Currency); err != nil {
		return nil, fmt.Errorf("failed to ensure account: %w", err)
	}

	resp, err := s.provider.ProcessPayment(ctx, &payment.PaymentRequest{
		Amount:          req.Amount,
		Currency:        s.config.App.Currency,
		PaymentMethodID: req.PaymentMethodID,
		Description:     "Wallet top-up",
		Metadata:        map[string]string{"user_id": userID.Hex()},
	})
	if err != nil {
		return nil, fmt.Errorf("top-up charge failed: %w", err)
	}

	if err := s.accountRepo.IncrementBalance(ctx, userID, req.Amount); err != nil {
		// Charge succeeded but the credit did not land. Flag for manual
		// reconciliation with the external transaction reference.
		s.logger.WithError(err).WithUserID(userID).WithFields(map[string]interface{}{
			"transaction_id": resp.TransactionID,
			"amount":         req.Amount,
			"reconcile":      true,
		}).Error("charged top-up but wallet credit failed")
		return nil, fmt.Errorf("failed to credit wallet: %w", err)
	}

	tx := &models.Transaction{
		UserID:      userID,
		Type:        models.TransactionTypeTopUp,
		Amount:      req.Amount,
		Currency:    s.config.App.Currency,
		Description: fmt.Sprintf("Wallet top-up via %s", resp.TransactionID),
		CreatedAt:   time.Now(),
	}
	if err := s.txRepo.Create(ctx, tx); err != nil {
		s.logger.WithError(err).WithUserID(userID).Warn("failed to record top-up ledger line")
	}

	s.logger.WithUserID(userID).WithField("amount", req.Amount).Info("wallet topped up")
	return s.accountRepo.GetByUserID(ctx, userID)
}

func (s *accountService) GetRideTransactions(ctx context.Context, rideID primitive.ObjectID) ([]*models.Transaction, error) {
	return s.txRepo.ListByRide(ctx, rideID)
}
