package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

// AuthHandler implements registration and the session lifecycle endpoints.
type AuthHandler struct {
	Users     UserStore
	Tokens    TokenIssuer
	Media     MediaStorage
	Limiter   RateLimiter
	UploadDir string
	NowFunc   func() time.Time
}

// Register handles POST /api/v1/users/register requests. The request is a
// multipart form carrying the profile fields plus a required avatar file and
// an optional cover image file.
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Users == nil || h.Tokens == nil || h.Media == nil {
		logger.Error("registration dependencies unavailable", "hasUsers", h.Users != nil, "hasTokens", h.Tokens != nil, "hasMedia", h.Media != nil)
		respondError(ctx, w, http.StatusInternalServerError, "registration services unavailable")
		return
	}

	if !allowRequest(h.Limiter, r, "register") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many registration attempts")
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		logger.Warn("invalid registration payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	username := strings.ToLower(strings.TrimSpace(r.FormValue("username")))
	email := strings.TrimSpace(strings.ToLower(r.FormValue("email")))
	fullName := strings.TrimSpace(r.FormValue("fullName"))
	password := r.FormValue("password")

	if username == "" || email == "" || fullName == "" || strings.TrimSpace(password) == "" {
		respondError(ctx, w, http.StatusBadRequest, "all fields are required",
			"username, email, fullName and password must be non-empty")
		return
	}

	if _, err := mail.ParseAddress(email); err != nil {
		logger.Warn("registration invalid email", "email", email, "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid email address")
		return
	}

	if _, err := h.Users.FindByUsernameOrEmail(ctx, username, email); err == nil {
		respondError(ctx, w, http.StatusConflict, "user with email or username already exists")
		return
	} else if !errors.Is(err, repositories.ErrNotFound) {
		logger.Error("registration user lookup failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to verify existing accounts")
		return
	}

	avatarPath, err := stageFormFile(r, "avatar", h.UploadDir)
	if err != nil {
		if errors.Is(err, errMissingFile) {
			respondError(ctx, w, http.StatusBadRequest, "avatar file is required")
			return
		}
		logger.Error("stage avatar failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to read avatar file")
		return
	}
	defer removeStaged(avatarPath)

	coverPath, err := stageFormFile(r, "coverImage", h.UploadDir)
	if err != nil && !errors.Is(err, errMissingFile) {
		logger.Error("stage cover image failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to read cover image file")
		return
	}
	defer removeStaged(coverPath)

	avatarURL, err := h.Media.UploadFile(ctx, mediaKey("avatars", avatarPath), avatarPath)
	if err != nil {
		logger.Error("avatar upload failed", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "avatar upload failed")
		return
	}

	coverURL := ""
	if coverPath != "" {
		coverURL, err = h.Media.UploadFile(ctx, mediaKey("covers", coverPath), coverPath)
		if err != nil {
			// The cover image is optional, so a failed upload degrades to an
			// empty cover rather than aborting registration.
			logger.Warn("cover image upload failed", "error", err)
			coverURL = ""
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("registration failed to hash password", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	now := h.now()
	user := models.User{
		ID:         uuid.NewString(),
		Username:   username,
		Email:      email,
		FullName:   fullName,
		Password:   string(hashed),
		AvatarURL:  avatarURL,
		CoverImage: coverURL,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusConflict, "user with email or username already exists")
			return
		}
		logger.Error("registration failed to create user", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to register user")
		return
	}

	created, err := h.Users.FindByID(ctx, user.ID)
	if err != nil {
		logger.Error("registration failed to load created user", "userId", user.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to register user")
		return
	}

	respondData(ctx, w, http.StatusCreated, newUserView(created), "user registered successfully")
}

// Login handles POST /api/v1/users/login requests.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Users == nil || h.Tokens == nil {
		logger.Error("authentication dependencies unavailable", "hasUsers", h.Users != nil, "hasTokens", h.Tokens != nil)
		respondError(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
		return
	}

	if !allowRequest(h.Limiter, r, "login") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if req.Username == "" && req.Email == "" {
		respondError(ctx, w, http.StatusBadRequest, "username or email is required")
		return
	}
	if req.Password == "" {
		respondError(ctx, w, http.StatusBadRequest, "password is required")
		return
	}

	user, err := h.Users.FindByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "user does not exist")
			return
		}
		logger.Error("login user lookup failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to verify credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		logger.Warn("login password mismatch", "userId", user.ID)
		respondError(ctx, w, http.StatusUnauthorized, "invalid user credentials")
		return
	}

	pair, err := h.Tokens.IssuePair(user)
	if err != nil {
		logger.Error("failed to issue token pair", "userId", user.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	if err := h.Users.SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		logger.Error("failed to persist refresh token", "userId", user.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	setAuthCookies(w, pair)
	respondData(ctx, w, http.StatusOK, sessionData{
		User:         newUserView(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "user logged in successfully")
}

// Logout handles POST /api/v1/users/logout requests. The persisted refresh
// token is cleared, not merely expired.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
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

	if err := h.Users.ClearRefreshToken(ctx, user.ID); err != nil {
		logger.Error("failed to clear refresh token", "userId", user.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to log out")
		return
	}

	clearAuthCookies(w)
	respondData(ctx, w, http.StatusOK, struct{}{}, "user logged out")
}

// Refresh handles POST /api/v1/users/refresh-token requests. Rotation is a
// compare-and-swap against the persisted token, so only the most recently
// issued refresh token can be exchanged.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Users == nil || h.Tokens == nil {
		logger.Error("authentication dependencies unavailable", "hasUsers", h.Users != nil, "hasTokens", h.Tokens != nil)
		respondError(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
		return
	}

	incoming := refreshTokenFromRequest(r)
	if incoming == "" {
		respondError(ctx, w, http.StatusUnauthorized, "refresh token is required")
		return
	}

	userID, err := h.Tokens.VerifyRefresh(incoming)
	if err != nil {
		logger.Warn("refresh token rejected", "error", err)
		respondError(ctx, w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	user, err := h.Users.FindByID(ctx, userID)
	if err != nil {
		logger.Warn("refresh user lookup failed", "userId", userID, "error", err)
		respondError(ctx, w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	pair, err := h.Tokens.IssuePair(user)
	if err != nil {
		logger.Error("failed to issue token pair", "userId", user.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to refresh session")
		return
	}

	if err := h.Users.RotateRefreshToken(ctx, user.ID, incoming, pair.RefreshToken); err != nil {
		logger.Warn("refresh token rotation rejected", "userId", user.ID, "error", err)
		respondError(ctx, w, http.StatusUnauthorized, "refresh token is expired or has been used")
		return
	}

	setAuthCookies(w, pair)
	respondData(ctx, w, http.StatusOK, tokenData{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "session refreshed")
}

func refreshTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return ""
	}
	return strings.TrimSpace(req.RefreshToken)
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type sessionData struct {
	User         userView `json:"user"`
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
}

type tokenData struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (h AuthHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
