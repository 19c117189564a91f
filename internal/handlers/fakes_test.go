package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

type inMemoryUserStore struct {
	users   map[string]models.User
	edges   []models.Subscription
	history map[string][]string
	videos  map[string]models.Video
}

func newInMemoryUserStore() *inMemoryUserStore {
	return &inMemoryUserStore{
		users:   make(map[string]models.User),
		history: make(map[string][]string),
		videos:  make(map[string]models.Video),
	}
}

func (s *inMemoryUserStore) Create(_ context.Context, user models.User) error {
	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *inMemoryUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *inMemoryUserStore) FindByUsernameOrEmail(_ context.Context, username, email string) (models.User, error) {
	for _, user := range s.users {
		if (username != "" && user.Username == username) || (email != "" && user.Email == email) {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *inMemoryUserStore) SetRefreshToken(_ context.Context, userID, token string) error {
	user, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	user.RefreshToken = token
	s.users[userID] = user
	return nil
}

func (s *inMemoryUserStore) RotateRefreshToken(_ context.Context, userID, current, next string) error {
	user, ok := s.users[userID]
	if !ok || user.RefreshToken != current {
		return repositories.ErrNotFound
	}
	user.RefreshToken = next
	s.users[userID] = user
	return nil
}

func (s *inMemoryUserStore) ClearRefreshToken(_ context.Context, userID string) error {
	user, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	user.RefreshToken = ""
	s.users[userID] = user
	return nil
}

func (s *inMemoryUserStore) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	user, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	user.Password = passwordHash
	s.users[userID] = user
	return nil
}

func (s *inMemoryUserStore) UpdateAccount(_ context.Context, userID, fullName, email string) (models.User, error) {
	user, ok := s.users[userID]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	for id, existing := range s.users {
		if id != userID && existing.Email == email {
			return models.User{}, repositories.ErrConflict
		}
	}
	user.FullName = fullName
	user.Email = email
	s.users[userID] = user
	return user, nil
}

func (s *inMemoryUserStore) UpdateAvatar(_ context.Context, userID, avatarURL string) (models.User, error) {
	user, ok := s.users[userID]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	user.AvatarURL = avatarURL
	s.users[userID] = user
	return user, nil
}

func (s *inMemoryUserStore) UpdateCoverImage(_ context.Context, userID, coverImageURL string) (models.User, error) {
	user, ok := s.users[userID]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	user.CoverImage = coverImageURL
	s.users[userID] = user
	return user, nil
}

func (s *inMemoryUserStore) ChannelProfile(_ context.Context, username, viewerID string) (models.ChannelProfile, error) {
	var channel models.User
	found := false
	for _, user := range s.users {
		if user.Username == username {
			channel = user
			found = true
			break
		}
	}
	if !found {
		return models.ChannelProfile{}, repositories.ErrNotFound
	}

	profile := models.ChannelProfile{
		ID:         channel.ID,
		Username:   channel.Username,
		FullName:   channel.FullName,
		Email:      channel.Email,
		AvatarURL:  channel.AvatarURL,
		CoverImage: channel.CoverImage,
	}
	for _, edge := range s.edges {
		if edge.ChannelID == channel.ID {
			profile.SubscriberCount++
			if edge.SubscriberID == viewerID {
				profile.IsSubscribed = true
			}
		}
		if edge.SubscriberID == channel.ID {
			profile.ChannelSubscribedToCount++
		}
	}
	return profile, nil
}

func (s *inMemoryUserStore) WatchHistory(_ context.Context, userID string) ([]models.WatchEntry, error) {
	var entries []models.WatchEntry
	for _, videoID := range s.history[userID] {
		video, ok := s.videos[videoID]
		if !ok {
			continue
		}
		entry := models.WatchEntry{Video: video}
		if owner, ok := s.users[video.OwnerID]; ok {
			entry.Owner = &models.VideoOwner{
				FullName:  owner.FullName,
				Username:  owner.Username,
				AvatarURL: owner.AvatarURL,
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *inMemoryUserStore) AppendWatchHistory(_ context.Context, userID, videoID string, _ time.Time) error {
	s.history[userID] = append(s.history[userID], videoID)
	return nil
}

type inMemorySubscriptionStore struct {
	edges []models.Subscription
}

func (s *inMemorySubscriptionStore) Create(_ context.Context, subscription models.Subscription) error {
	for _, edge := range s.edges {
		if edge.SubscriberID == subscription.SubscriberID && edge.ChannelID == subscription.ChannelID {
			return repositories.ErrConflict
		}
	}
	s.edges = append(s.edges, subscription)
	return nil
}

func (s *inMemorySubscriptionStore) Delete(_ context.Context, subscriberID, channelID string) error {
	for i, edge := range s.edges {
		if edge.SubscriberID == subscriberID && edge.ChannelID == channelID {
			s.edges = append(s.edges[:i], s.edges[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

type inMemoryVideoStore struct {
	videos map[string]models.Video
}

func newInMemoryVideoStore() *inMemoryVideoStore {
	return &inMemoryVideoStore{videos: make(map[string]models.Video)}
}

func (s *inMemoryVideoStore) Create(_ context.Context, video models.Video) error {
	if _, exists := s.videos[video.ID]; exists {
		return repositories.ErrConflict
	}
	s.videos[video.ID] = video
	return nil
}

func (s *inMemoryVideoStore) FindByID(_ context.Context, id string) (models.Video, error) {
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

func (s *inMemoryVideoStore) IncrementViews(_ context.Context, id string) error {
	video, ok := s.videos[id]
	if !ok {
		return repositories.ErrNotFound
	}
	video.Views++
	s.videos[id] = video
	return nil
}

type fakeMediaStorage struct {
	uploads []string
	err     error
}

func (f *fakeMediaStorage) UploadFile(_ context.Context, name, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.uploads = append(f.uploads, name)
	return fmt.Sprintf("https://media.local/%s", name), nil
}

var errMediaDown = errors.New("media host unavailable")
