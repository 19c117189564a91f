package repositories

import (
	"context"

	"github.com/videotube/backend/internal/models"
)

// SubscriptionRepository defines the data access contract for subscriber to
// channel edges.
type SubscriptionRepository interface {
	Create(ctx context.Context, subscription models.Subscription) error
	Delete(ctx context.Context, subscriberID, channelID string) error
}
