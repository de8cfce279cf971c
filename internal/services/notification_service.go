package services

import (
	"context"
	"time"

	"ridehive/internal/models"
	"ridehive/internal/repositories/interfaces"
	"ridehive/internal/utils"
	"ridehive/pkg/logger"
	"ridehive/pkg/push"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationService is the outbox boundary. Notify* calls append intents
// and never fail the calling operation; Run drains the outbox through the
// push provider.
type NotificationService interface {
	NotifyUser(ctx context.Context, userID primitive.ObjectID, rideID *primitive.ObjectID, title, body string, data map[string]string)
	NotifyDrivers(ctx context.Context, driverIDs []primitive.ObjectID, rideID primitive.ObjectID, title, body string, data map[string]string)
	Run(ctx context.Context)
	DrainOnce(ctx context.Context) error
}

type notificationService struct {
	notificationRepo interfaces.NotificationRepository
	userRepo         interfaces.UserRepository
	pushProvider     push.PushProvider
	logger           *logger.Logger
	drainInterval    time.Duration
}

func NewNotificationService(
	notificationRepo interfaces.NotificationRepository,
	userRepo interfaces.UserRepository,
	pushProvider push.PushProvider,
	logger *logger.Logger,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		pushProvider:     pushProvider,
		logger:           logger,
		drainInterval:    utils.OutboxDrainInterval,
	}
}

func (s *notificationService) NotifyUser(ctx context.Context, userID primitive.ObjectID, rideID *primitive.ObjectID, title, body string, data map[string]string) {
	tokens, err := s.userRepo.GetDeviceTokens(ctx, []primitive.ObjectID{userID})
	if err != nil {
		s.logger.WithError(err).WithUserID(userID).Warn("failed to resolve device tokens")
		return
	}
	s.enqueue(ctx, userID, rideID, tokens[userID], title, body, data)
}

func (s *notificationService) NotifyDrivers(ctx context.Context, driverIDs []primitive.ObjectID, rideID primitive.ObjectID, title, body string, data map[string]string) {
	if len(driverIDs) == 0 {
		return
	}
	tokens, err := s.userRepo.GetDeviceTokens(ctx, driverIDs)
	if err != nil {
		s.logger.WithError(err).WithRideID(rideID).Warn("failed to resolve driver device tokens")
		return
	}
	for _, driverID := range driverIDs {
		s.enqueue(ctx, driverID, &rideID, tokens[driverID], title, body, data)
	}
}

func (s *notificationService) enqueue(ctx context.Context, userID primitive.ObjectID, rideID *primitive.ObjectID, tokens []string, title, body string, data map[string]string) {
	if len(tokens) == 0 {
		return
	}
	n := &models.Notification{
		UserID: userID,
		RideID: rideID,
		Tokens: tokens,
		Title:  title,
		Body:   body,
		Data:   data,
	}
	if err := s.notificationRepo.Enqueue(ctx, n); err != nil {
		s.logger.WithError(err).WithUserID(userID).Warn("failed to enqueue notification")
	}
}

func (s *notificationService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.drainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.DrainOnce(ctx); err != nil {
				s.logger.WithError(err).Error("notification outbox drain failed")
			}
		}
	}
}

func (s *notificationService) DrainOnce(ctx context.Context) error {
	pending, err := s.notificationRepo.ClaimPending(ctx, utils.OutboxBatchLimit)
	if err != nil {
		return err
	}

	for _, n := range pending {
		requests := make([]*push.NotificationRequest, 0, len(n.Tokens))
		for _, token := range n.Tokens {
			requests = append(requests, &push.NotificationRequest{
				Token: token,
				Title: n.Title,
				Body:  n.Body,
				Data:  n.Data,
			})
		}

		if _, err := s.pushProvider.SendBulkNotifications(ctx, requests); err != nil {
			s.logger.WithError(err).WithField("notification_id", n.ID.Hex()).Warn("push delivery failed")
			if markErr := s.notificationRepo.MarkFailed(ctx, n.ID, err.Error()); markErr != nil {
				s.logger.WithError(markErr).Warn("failed to record notification failure")
			}
			continue
		}
		if err := s.notificationRepo.MarkSent(ctx, n.ID); err != nil {
			s.logger.WithError(err).Warn("failed to mark notification sent")
		}
	}
	return nil
}
