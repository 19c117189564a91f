package models

import "time"

// User represents an account within the VideoTube platform. Every user is
// also a channel that other users can subscribe to.
type User struct {
	ID           string
	Username     string
	Email        string
	FullName     string
	Password     string
	AvatarURL    string
	CoverImage   string
	RefreshToken string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Subscription is a directed edge from a subscriber to a channel.
type Subscription struct {
	ID           string
	SubscriberID string
	ChannelID    string
	CreatedAt    time.Time
}

// Video stores a published video and its media locations.
type Video struct {
	ID           string
	OwnerID      string
	Title        string
	Description  string
	VideoURL     string
	ThumbnailURL string
	Duration     int64
	Views        int64
	Published    bool
	CreatedAt    time.Time
}

// ChannelProfile is the derived channel view: profile fields plus
// subscription counts relative to the viewing user.
type ChannelProfile struct {
	ID                       string
	Username                 string
	FullName                 string
	Email                    string
	AvatarURL                string
	CoverImage               string
	SubscriberCount          int64
	ChannelSubscribedToCount int64
	IsSubscribed             bool
}

// VideoOwner is the reduced owner projection embedded in watch history rows.
type VideoOwner struct {
	FullName  string
	Username  string
	AvatarURL string
}

// WatchEntry is one resolved watch history item. Owner is nil when the
// video's owner no longer resolves.
type WatchEntry struct {
	Video Video
	Owner *VideoOwner
}

// TokenPair groups the bearer credentials issued to authenticated users.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}
