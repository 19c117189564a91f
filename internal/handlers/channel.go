package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

// ChannelHandler serves the derived channel profile and watch history views.
type ChannelHandler struct {
	Users UserStore
}

// Profile handles GET /api/v1/users/c/{username} requests.
func (h ChannelHandler) Profile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	viewer, ok := CurrentUser(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return
	}

	username := strings.ToLower(strings.TrimSpace(r.PathValue("username")))
	if username == "" {
		respondError(ctx, w, http.StatusBadRequest, "username is required")
		return
	}

	ctx, span := logging.StartSpan(ctx, "channel_profile")
	profile, err := h.Users.ChannelProfile(ctx, username, viewer.ID)
	span.End()
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "channel does not exist")
			return
		}
		logger.Error("channel profile query failed", "username", username, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to fetch channel profile")
		return
	}

	respondData(ctx, w, http.StatusOK, newChannelProfileView(profile), "channel profile fetched successfully")
}

// History handles GET /api/v1/users/history requests.
func (h ChannelHandler) History(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := CurrentUser(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return
	}

	ctx, span := logging.StartSpan(ctx, "watch_history")
	entries, err := h.Users.WatchHistory(ctx, user.ID)
	span.End()
	if err != nil {
		logger.Error("watch history query failed", "userId", user.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to fetch watch history")
		return
	}

	views := make([]watchEntryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, newWatchEntryView(entry))
	}

	respondData(ctx, w, http.StatusOK, views, "watch history fetched successfully")
}

type channelProfileView struct {
	FullName                 string `json:"fullName"`
	Username                 string `json:"username"`
	SubscriberCount          int64  `json:"subscriberCount"`
	ChannelSubscribedToCount int64  `json:"channelSubscribedToCount"`
	IsSubscribed             bool   `json:"isSubscribed"`
	Avatar                   string `json:"avatar"`
	CoverImage               string `json:"coverImage"`
	Email                    string `json:"email"`
}

func newChannelProfileView(profile models.ChannelProfile) channelProfileView {
	return channelProfileView{
		FullName:                 profile.FullName,
		Username:                 profile.Username,
		SubscriberCount:          profile.SubscriberCount,
		ChannelSubscribedToCount: profile.ChannelSubscribedToCount,
		IsSubscribed:             profile.IsSubscribed,
		Avatar:                   profile.AvatarURL,
		CoverImage:               profile.CoverImage,
		Email:                    profile.Email,
	}
}

type ownerView struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

type watchEntryView struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	VideoFile   string     `json:"videoFile"`
	Thumbnail   string     `json:"thumbnail"`
	Duration    int64      `json:"duration"`
	Views       int64      `json:"views"`
	CreatedAt   time.Time  `json:"createdAt"`
	Owner       *ownerView `json:"owner,omitempty"`
}

func newWatchEntryView(entry models.WatchEntry) watchEntryView {
	view := watchEntryView{
		ID:          entry.Video.ID,
		Title:       entry.Video.Title,
		Description: entry.Video.Description,
		VideoFile:   entry.Video.VideoURL,
		Thumbnail:   entry.Video.ThumbnailURL,
		Duration:    entry.Video.Duration,
		Views:       entry.Video.Views,
		CreatedAt:   entry.Video.CreatedAt,
	}
	if entry.Owner != nil {
		view.Owner = &ownerView{
			FullName: entry.Owner.FullName,
			Username: entry.Owner.Username,
			Avatar:   entry.Owner.AvatarURL,
		}
	}
	return view
}
