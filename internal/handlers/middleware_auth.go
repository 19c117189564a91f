package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/models"
)

type currentUserKey struct{}

func withCurrentUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, currentUserKey{}, user)
}

// CurrentUser returns the authenticated user stored on the context by the
// auth guard.
func CurrentUser(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(currentUserKey{}).(models.User)
	return user, ok
}

// authGuard verifies the access token on protected routes and resolves the
// calling user before the wrapped handler runs.
type authGuard struct {
	Users  UserStore
	Tokens TokenIssuer
}

func (g authGuard) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := logging.FromContext(ctx)

		if g.Users == nil || g.Tokens == nil {
			logger.Error("auth guard dependencies unavailable", "hasUsers", g.Users != nil, "hasTokens", g.Tokens != nil)
			respondError(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
			return
		}

		token := accessTokenFromRequest(r)
		if token == "" {
			respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
			return
		}

		claims, err := g.Tokens.VerifyAccess(token)
		if err != nil {
			logger.Warn("access token rejected", "error", err)
			respondError(ctx, w, http.StatusUnauthorized, "invalid access token")
			return
		}

		user, err := g.Users.FindByID(ctx, claims.Subject)
		if err != nil {
			logger.Warn("access token user lookup failed", "userId", claims.Subject, "error", err)
			respondError(ctx, w, http.StatusUnauthorized, "invalid access token")
			return
		}

		next(w, r.WithContext(withCurrentUser(ctx, user)))
	}
}

// accessTokenFromRequest extracts the bearer credential from the accessToken
// cookie or the Authorization header.
func accessTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(accessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if rest, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(rest)
	}
	return ""
}
