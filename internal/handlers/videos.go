package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

// VideoHandler provides endpoints for publishing and watching videos.
type VideoHandler struct {
	Videos    VideoStore
	Users     UserStore
	Media     MediaStorage
	UploadDir string
	NowFunc   func() time.Time
}

// Create handles POST /api/v1/videos requests. The request is a multipart
// form carrying title/description fields plus the video and thumbnail files.
func (h VideoHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
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

	if h.Media == nil {
		logger.Error("media storage unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "media services unavailable")
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		logger.Warn("invalid video upload payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	if title == "" {
		respondError(ctx, w, http.StatusBadRequest, "title is required")
		return
	}

	duration, _ := strconv.ParseInt(strings.TrimSpace(r.FormValue("duration")), 10, 64)

	videoPath, err := stageFormFile(r, "videoFile", h.UploadDir)
	if err != nil {
		if errors.Is(err, errMissingFile) {
			respondError(ctx, w, http.StatusBadRequest, "video file is required")
			return
		}
		logger.Error("stage video failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to read video file")
		return
	}
	defer removeStaged(videoPath)

	thumbnailPath, err := stageFormFile(r, "thumbnail", h.UploadDir)
	if err != nil {
		if errors.Is(err, errMissingFile) {
			respondError(ctx, w, http.StatusBadRequest, "thumbnail file is required")
			return
		}
		logger.Error("stage thumbnail failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to read thumbnail file")
		return
	}
	defer removeStaged(thumbnailPath)

	ctx, span := logging.StartSpan(ctx, "media_upload")
	videoURL, err := h.Media.UploadFile(ctx, mediaKey("videos", videoPath), videoPath)
	if err != nil {
		span.End()
		logger.Error("video upload failed", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "video upload failed")
		return
	}

	thumbnailURL, err := h.Media.UploadFile(ctx, mediaKey("thumbnails", thumbnailPath), thumbnailPath)
	span.End()
	if err != nil {
		logger.Error("thumbnail upload failed", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "thumbnail upload failed")
		return
	}

	video := models.Video{
		ID:           uuid.NewString(),
		OwnerID:      user.ID,
		Title:        title,
		Description:  description,
		VideoURL:     videoURL,
		ThumbnailURL: thumbnailURL,
		Duration:     duration,
		Published:    true,
		CreatedAt:    h.now(),
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		logger.Error("create video failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to publish video")
		return
	}

	respondData(ctx, w, http.StatusCreated, newVideoView(video), "video published successfully")
}

// Get handles GET /api/v1/videos/{videoId} requests. A successful fetch
// counts as a view and appends the video to the caller's watch history.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	videoID := strings.TrimSpace(r.PathValue("videoId"))
	if videoID == "" {
		respondError(ctx, w, http.StatusBadRequest, "video id is required")
		return
	}

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video does not exist")
			return
		}
		logger.Error("video lookup failed", "videoId", videoID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to fetch video")
		return
	}

	if !video.Published && video.OwnerID != user.ID {
		respondError(ctx, w, http.StatusNotFound, "video does not exist")
		return
	}

	// View counting and the watch history append are side effects of a
	// successful fetch; their failures are logged, not surfaced.
	if err := h.Videos.IncrementViews(ctx, video.ID); err != nil {
		logger.Warn("increment views failed", "videoId", video.ID, "error", err)
	} else {
		video.Views++
	}

	if err := h.Users.AppendWatchHistory(ctx, user.ID, video.ID, h.now()); err != nil {
		logger.Warn("append watch history failed", "videoId", video.ID, "userId", user.ID, "error", err)
	}

	respondData(ctx, w, http.StatusOK, newVideoView(video), "video fetched successfully")
}

type videoView struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	VideoFile   string    `json:"videoFile"`
	Thumbnail   string    `json:"thumbnail"`
	Duration    int64     `json:"duration"`
	Views       int64     `json:"views"`
	CreatedAt   time.Time `json:"createdAt"`
}

func newVideoView(video models.Video) videoView {
	return videoView{
		ID:          video.ID,
		OwnerID:     video.OwnerID,
		Title:       video.Title,
		Description: video.Description,
		VideoFile:   video.VideoURL,
		Thumbnail:   video.ThumbnailURL,
		Duration:    video.Duration,
		Views:       video.Views,
		CreatedAt:   video.CreatedAt,
	}
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
