package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/videotube/backend/internal/models"
)

func TestChannelHandlerProfile(t *testing.T) {
	store := newInMemoryUserStore()
	viewer := seedUser(t, store, "secret1")
	store.users["user-2"] = seedSecondUser()
	store.users["user-3"] = models.User{ID: "user-3", Username: "rafi", Email: "r@x.com"}

	// viewer and rafi follow amina; amina follows rafi.
	store.edges = []models.Subscription{
		{ID: "sub-1", SubscriberID: viewer.ID, ChannelID: "user-2"},
		{ID: "sub-2", SubscriberID: "user-3", ChannelID: "user-2"},
		{ID: "sub-3", SubscriberID: "user-2", ChannelID: "user-3"},
	}

	handler := ChannelHandler{Users: store}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/c/Amina", nil)
	req.SetPathValue("username", "Amina")
	req = req.WithContext(withCurrentUser(req.Context(), viewer))
	rec := httptest.NewRecorder()

	handler.Profile(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d: %s", rec.Code, rec.Body.String())
	}

	env := decodeEnvelope(t, rec)
	var view channelProfileView
	if err := json.Unmarshal(env.Data, &view); err != nil {
		t.Fatalf("decode data: %v", err)
	}

	if view.Username != "amina" {
		t.Fatalf("expected username amina got %q", view.Username)
	}
	if view.SubscriberCount != 2 {
		t.Fatalf("expected 2 subscribers got %d", view.SubscriberCount)
	}
	if view.ChannelSubscribedToCount != 1 {
		t.Fatalf("expected 1 channel subscription got %d", view.ChannelSubscribedToCount)
	}
	if !view.IsSubscribed {
		t.Fatal("expected isSubscribed true for a subscribed viewer")
	}
}

func TestChannelHandlerProfileNotSubscribed(t *testing.T) {
	store := newInMemoryUserStore()
	viewer := seedUser(t, store, "secret1")
	store.users["user-2"] = seedSecondUser()
	handler := ChannelHandler{Users: store}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/c/amina", nil)
	req.SetPathValue("username", "amina")
	req = req.WithContext(withCurrentUser(req.Context(), viewer))
	rec := httptest.NewRecorder()

	handler.Profile(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}

	env := decodeEnvelope(t, rec)
	var view channelProfileView
	if err := json.Unmarshal(env.Data, &view); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if view.IsSubscribed {
		t.Fatal("expected isSubscribed false for an unsubscribed viewer")
	}
	if view.SubscriberCount != 0 {
		t.Fatalf("expected 0 subscribers got %d", view.SubscriberCount)
	}
}

func TestChannelHandlerProfileUnknownChannel(t *testing.T) {
	store := newInMemoryUserStore()
	viewer := seedUser(t, store, "secret1")
	handler := ChannelHandler{Users: store}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/c/ghost", nil)
	req.SetPathValue("username", "ghost")
	req = req.WithContext(withCurrentUser(req.Context(), viewer))
	rec := httptest.NewRecorder()

	handler.Profile(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 got %d", rec.Code)
	}
}

func TestChannelHandlerHistory(t *testing.T) {
	store := newInMemoryUserStore()
	user := seedUser(t, store, "secret1")
	owner := seedSecondUser()
	owner.AvatarURL = "https://media.local/avatars/amina.png"
	store.users[owner.ID] = owner

	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store.videos["video-1"] = models.Video{ID: "video-1", OwnerID: owner.ID, Title: "First", VideoURL: "https://media.local/videos/1.mp4", CreatedAt: created}
	store.videos["video-2"] = models.Video{ID: "video-2", OwnerID: "ghost", Title: "Orphan", VideoURL: "https://media.local/videos/2.mp4", CreatedAt: created}

	if err := store.AppendWatchHistory(context.Background(), user.ID, "video-2", created); err != nil {
		t.Fatalf("append history: %v", err)
	}
	if err := store.AppendWatchHistory(context.Background(), user.ID, "video-1", created); err != nil {
		t.Fatalf("append history: %v", err)
	}

	handler := ChannelHandler{Users: store}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/history", nil)
	req = req.WithContext(withCurrentUser(req.Context(), user))
	rec := httptest.NewRecorder()

	handler.History(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d: %s", rec.Code, rec.Body.String())
	}

	env := decodeEnvelope(t, rec)
	var entries []watchEntryView
	if err := json.Unmarshal(env.Data, &entries); err != nil {
		t.Fatalf("decode data: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries got %d", len(entries))
	}
	// Entries come back in watch order.
	if entries[0].ID != "video-2" || entries[1].ID != "video-1" {
		t.Fatalf("unexpected entry order: %s, %s", entries[0].ID, entries[1].ID)
	}

	// The orphaned video has no owner projection at all.
	if entries[0].Owner != nil {
		t.Fatal("expected nil owner for a video whose owner is gone")
	}

	withOwner := entries[1]
	if withOwner.Owner == nil {
		t.Fatal("expected owner projection on the second entry")
	}
	if withOwner.Owner.Username != "amina" || withOwner.Owner.FullName != "Amina R" {
		t.Fatalf("unexpected owner projection %+v", withOwner.Owner)
	}
	if withOwner.Owner.Avatar != "https://media.local/avatars/amina.png" {
		t.Fatalf("unexpected owner avatar %q", withOwner.Owner.Avatar)
	}
}

func TestChannelHandlerHistoryEmpty(t *testing.T) {
	store := newInMemoryUserStore()
	user := seedUser(t, store, "secret1")
	handler := ChannelHandler{Users: store}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/history", nil)
	req = req.WithContext(withCurrentUser(req.Context(), user))
	rec := httptest.NewRecorder()

	handler.History(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}

	env := decodeEnvelope(t, rec)
	var entries []watchEntryView
	if err := json.Unmarshal(env.Data, &entries); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty history got %d entries", len(entries))
	}
}
