package app

import (
	"time"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/config"
	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/handlers"
	"github.com/videotube/backend/internal/middleware"
	"github.com/videotube/backend/internal/repositories"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(pool db.Pool, cfg config.Config, media handlers.MediaStorage, tokens *auth.TokenIssuer) handlers.Dependencies {
	return handlers.Dependencies{
		Users:         repositories.NewPostgresUserRepository(pool),
		Subscriptions: repositories.NewPostgresSubscriptionRepository(pool),
		Videos:        repositories.NewPostgresVideoRepository(pool),
		Tokens:        tokens,
		Media:         media,
		AuthLimiter:   middleware.NewIPRateLimiter(10, time.Minute, 5, 10*time.Minute),
		UploadDir:     cfg.UploadDir,
	}
}
