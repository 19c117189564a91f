package handlers

import "net/http"

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	guard := authGuard{Users: deps.Users, Tokens: deps.Tokens}

	health := HealthHandler{}
	auth := AuthHandler{
		Users:     deps.Users,
		Tokens:    deps.Tokens,
		Media:     deps.Media,
		Limiter:   deps.AuthLimiter,
		UploadDir: deps.UploadDir,
	}
	account := AccountHandler{Users: deps.Users, Media: deps.Media, UploadDir: deps.UploadDir}
	channel := ChannelHandler{Users: deps.Users}
	subscriptions := SubscriptionHandler{Subscriptions: deps.Subscriptions}
	videos := VideoHandler{Videos: deps.Videos, Users: deps.Users, Media: deps.Media, UploadDir: deps.UploadDir}

	mux.HandleFunc("/healthz", health.Handle)
	mux.HandleFunc("/api/v1/users/register", auth.Register)
	mux.HandleFunc("/api/v1/users/login", auth.Login)
	mux.HandleFunc("/api/v1/users/logout", guard.wrap(auth.Logout))
	mux.HandleFunc("/api/v1/users/refresh-token", auth.Refresh)
	mux.HandleFunc("/api/v1/users/change-password", guard.wrap(account.ChangePassword))
	mux.HandleFunc("/api/v1/users/current-user", guard.wrap(account.CurrentUser))
	mux.HandleFunc("/api/v1/users/update-account", guard.wrap(account.UpdateAccount))
	mux.HandleFunc("/api/v1/users/avatar", guard.wrap(account.UpdateAvatar))
	mux.HandleFunc("/api/v1/users/cover-image", guard.wrap(account.UpdateCoverImage))
	mux.HandleFunc("/api/v1/users/c/{username}", guard.wrap(channel.Profile))
	mux.HandleFunc("/api/v1/users/history", guard.wrap(channel.History))
	mux.HandleFunc("/api/v1/videos", guard.wrap(videos.Create))
	mux.HandleFunc("/api/v1/videos/{videoId}", guard.wrap(videos.Get))
	mux.HandleFunc("/api/v1/subscriptions/{channelId}", guard.wrap(subscriptions.Handle))
}
