package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/videotube/backend/internal/models"
)

func authedRequest(t *testing.T, store *inMemoryUserStore, method, target string, body []byte) *http.Request {
	t.Helper()

	user, ok := store.users["user-1"]
	if !ok {
		t.Fatal("seed user-1 before building an authed request")
	}

	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return req.WithContext(withCurrentUser(req.Context(), user))
}

func TestAccountHandlerChangePassword(t *testing.T) {
	store := newInMemoryUserStore()
	seedUser(t, store, "secret1")
	handler := AccountHandler{Users: store}

	body, err := json.Marshal(changePasswordRequest{OldPassword: "secret1", NewPassword: "secret2"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := authedRequest(t, store, http.MethodPost, "/api/v1/users/change-password", body)
	rec := httptest.NewRecorder()

	handler.ChangePassword(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if bcrypt.CompareHashAndPassword([]byte(store.users["user-1"].Password), []byte("secret2")) != nil {
		t.Fatal("stored password was not rehashed to the new value")
	}
}

func TestAccountHandlerChangePasswordWrongOld(t *testing.T) {
	store := newInMemoryUserStore()
	user := seedUser(t, store, "secret1")
	handler := AccountHandler{Users: store}

	body, err := json.Marshal(changePasswordRequest{OldPassword: "wrong", NewPassword: "secret2"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := authedRequest(t, store, http.MethodPost, "/api/v1/users/change-password", body)
	rec := httptest.NewRecorder()

	handler.ChangePassword(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 got %d", rec.Code)
	}
	if store.users[user.ID].Password != user.Password {
		t.Fatal("stored password must be untouched after a failed change")
	}
}

func TestAccountHandlerCurrentUser(t *testing.T) {
	store := newInMemoryUserStore()
	seedUser(t, store, "secret1")
	handler := AccountHandler{Users: store}

	req := authedRequest(t, store, http.MethodGet, "/api/v1/users/current-user", nil)
	rec := httptest.NewRecorder()

	handler.CurrentUser(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}

	env := decodeEnvelope(t, rec)
	var data map[string]any
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data["username"] != "nasir" {
		t.Fatalf("expected username nasir got %v", data["username"])
	}
	if _, ok := data["password"]; ok {
		t.Fatal("response must not carry a password field")
	}
}

func TestAccountHandlerUpdateAccount(t *testing.T) {
	store := newInMemoryUserStore()
	seedUser(t, store, "secret1")
	handler := AccountHandler{Users: store}

	body, err := json.Marshal(updateAccountRequest{FullName: "Nasir Khan", Email: "NK@x.com"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := authedRequest(t, store, http.MethodPatch, "/api/v1/users/update-account", body)
	rec := httptest.NewRecorder()

	handler.UpdateAccount(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d: %s", rec.Code, rec.Body.String())
	}
	updated := store.users["user-1"]
	if updated.FullName != "Nasir Khan" {
		t.Fatalf("expected full name to update, got %q", updated.FullName)
	}
	if updated.Email != "nk@x.com" {
		t.Fatalf("expected email to be lowercased and stored, got %q", updated.Email)
	}
}

func TestAccountHandlerUpdateAccountConflict(t *testing.T) {
	store := newInMemoryUserStore()
	seedUser(t, store, "secret1")
	store.users["user-2"] = seedSecondUser()
	handler := AccountHandler{Users: store}

	body, err := json.Marshal(updateAccountRequest{FullName: "Nasir K", Email: "a@x.com"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := authedRequest(t, store, http.MethodPatch, "/api/v1/users/update-account", body)
	rec := httptest.NewRecorder()

	handler.UpdateAccount(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409 got %d", rec.Code)
	}
}

func TestAccountHandlerUpdateAccountValidation(t *testing.T) {
	store := newInMemoryUserStore()
	seedUser(t, store, "secret1")
	handler := AccountHandler{Users: store}

	cases := []struct {
		name string
		req  updateAccountRequest
	}{
		{"missing full name", updateAccountRequest{Email: "n@x.com"}},
		{"missing email", updateAccountRequest{FullName: "Nasir K"}},
		{"malformed email", updateAccountRequest{FullName: "Nasir K", Email: "not-an-email"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, err := json.Marshal(tc.req)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}

			req := authedRequest(t, store, http.MethodPatch, "/api/v1/users/update-account", body)
			rec := httptest.NewRecorder()

			handler.UpdateAccount(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400 got %d", rec.Code)
			}
		})
	}
}

func TestAccountHandlerUpdateAvatar(t *testing.T) {
	store := newInMemoryUserStore()
	user := seedUser(t, store, "secret1")
	media := &fakeMediaStorage{}
	handler := AccountHandler{Users: store, Media: media, UploadDir: t.TempDir()}

	req := newMultipartRequest(t, "/api/v1/users/avatar", nil, map[string]string{"avatar": "new.png"})
	req.Method = http.MethodPatch
	req = req.WithContext(withCurrentUser(req.Context(), user))
	rec := httptest.NewRecorder()

	handler.UpdateAvatar(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if len(media.uploads) != 1 {
		t.Fatalf("expected one upload got %d", len(media.uploads))
	}
	if got := store.users[user.ID].AvatarURL; got == user.AvatarURL {
		t.Fatal("expected avatar url to change")
	}
}

func TestAccountHandlerUpdateAvatarMissingFile(t *testing.T) {
	store := newInMemoryUserStore()
	user := seedUser(t, store, "secret1")
	handler := AccountHandler{Users: store, Media: &fakeMediaStorage{}, UploadDir: t.TempDir()}

	req := newMultipartRequest(t, "/api/v1/users/avatar", map[string]string{"unused": "x"}, nil)
	req.Method = http.MethodPatch
	req = req.WithContext(withCurrentUser(req.Context(), user))
	rec := httptest.NewRecorder()

	handler.UpdateAvatar(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 got %d", rec.Code)
	}
}

func TestAccountHandlerUpdateCoverImageUploadFailure(t *testing.T) {
	store := newInMemoryUserStore()
	user := seedUser(t, store, "secret1")
	handler := AccountHandler{Users: store, Media: &fakeMediaStorage{err: errMediaDown}, UploadDir: t.TempDir()}

	req := newMultipartRequest(t, "/api/v1/users/cover-image", nil, map[string]string{"coverImage": "c.png"})
	req.Method = http.MethodPatch
	req = req.WithContext(withCurrentUser(req.Context(), user))
	rec := httptest.NewRecorder()

	handler.UpdateCoverImage(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 got %d", rec.Code)
	}
	if store.users[user.ID].CoverImage != user.CoverImage {
		t.Fatal("cover image must be untouched after a failed upload")
	}
}

func seedSecondUser() models.User {
	return models.User{
		ID:       "user-2",
		Username: "amina",
		Email:    "a@x.com",
		FullName: "Amina R",
	}
}
