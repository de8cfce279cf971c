package interfaces

import (
	"context"

	"ridehive/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationRepository is the outbox. Enqueue is called inside state
// transitions; ClaimPending/MarkSent/MarkFailed are used by the dispatcher.
type NotificationRepository interface {
	Enqueue(ctx context.Context, n *models.Notification) error
	ClaimPending(ctx context.Context, limit int64) ([]*models.Notification, error)
	MarkSent(ctx context.Context, id primitive.ObjectID) error
	MarkFailed(ctx context.Context, id primitive.ObjectID, reason string) error
}
