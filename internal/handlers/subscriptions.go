package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

// SubscriptionHandler manages subscriber to channel edges.
type SubscriptionHandler struct {
	Subscriptions SubscriptionStore
	NowFunc       func() time.Time
}

// Handle serves POST and DELETE /api/v1/subscriptions/{channelId}.
func (h SubscriptionHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := CurrentUser(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return
	}

	channelID := strings.TrimSpace(r.PathValue("channelId"))
	if channelID == "" {
		respondError(ctx, w, http.StatusBadRequest, "channel id is required")
		return
	}

	switch r.Method {
	case http.MethodPost:
		if channelID == user.ID {
			respondError(ctx, w, http.StatusBadRequest, "cannot subscribe to your own channel")
			return
		}

		subscription := models.Subscription{
			ID:           uuid.NewString(),
			SubscriberID: user.ID,
			ChannelID:    channelID,
			CreatedAt:    h.now(),
		}

		if err := h.Subscriptions.Create(ctx, subscription); err != nil {
			switch {
			case errors.Is(err, repositories.ErrConflict):
				respondError(ctx, w, http.StatusConflict, "already subscribed")
			case errors.Is(err, repositories.ErrNotFound):
				respondError(ctx, w, http.StatusNotFound, "channel does not exist")
			default:
				logger.Error("create subscription failed", "channelId", channelID, "error", err)
				respondError(ctx, w, http.StatusInternalServerError, "failed to subscribe")
			}
			return
		}

		respondData(ctx, w, http.StatusCreated, struct{}{}, "subscribed successfully")
	case http.MethodDelete:
		if err := h.Subscriptions.Delete(ctx, user.ID, channelID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				respondError(ctx, w, http.StatusNotFound, "subscription does not exist")
				return
			}
			logger.Error("delete subscription failed", "channelId", channelID, "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "failed to unsubscribe")
			return
		}

		respondData(ctx, w, http.StatusOK, struct{}{}, "unsubscribed successfully")
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h SubscriptionHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
