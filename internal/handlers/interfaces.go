package handlers

import (
	"context"
	"time"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/models"
)

// UserStore captures the persistence operations required by the user-facing
// handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (models.User, error)
	SetRefreshToken(ctx context.Context, userID, token string) error
	RotateRefreshToken(ctx context.Context, userID, current, next string) error
	ClearRefreshToken(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	UpdateAccount(ctx context.Context, userID, fullName, email string) (models.User, error)
	UpdateAvatar(ctx context.Context, userID, avatarURL string) (models.User, error)
	UpdateCoverImage(ctx context.Context, userID, coverImageURL string) (models.User, error)
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID string) ([]models.WatchEntry, error)
	AppendWatchHistory(ctx context.Context, userID, videoID string, watchedAt time.Time) error
}

// SubscriptionStore captures persistence for subscriber to channel edges.
type SubscriptionStore interface {
	Create(ctx context.Context, subscription models.Subscription) error
	Delete(ctx context.Context, subscriberID, channelID string) error
}

// VideoStore captures persistence for published videos.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	IncrementViews(ctx context.Context, id string) error
}

// TokenIssuer creates and verifies the access and refresh token pair.
type TokenIssuer interface {
	IssuePair(user models.User) (models.TokenPair, error)
	VerifyAccess(token string) (auth.AccessClaims, error)
	VerifyRefresh(token string) (string, error)
}

// MediaStorage uploads locally staged files to the external media host and
// returns their public location.
type MediaStorage interface {
	UploadFile(ctx context.Context, name, localPath string) (string, error)
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users         UserStore
	Subscriptions SubscriptionStore
	Videos        VideoStore
	Tokens        TokenIssuer
	Media         MediaStorage
	AuthLimiter   RateLimiter
	UploadDir     string
}
