package repositories

import (
	"context"

	"github.com/videotube/backend/internal/models"
)

// VideoRepository defines the data access contract for published videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	IncrementViews(ctx context.Context, id string) error
}
