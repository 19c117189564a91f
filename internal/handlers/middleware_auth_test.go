package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthGuard(t *testing.T) {
	store := newInMemoryUserStore()
	issuer := newTestIssuer()
	user := seedUser(t, store, "secret1")
	guard := authGuard{Users: store, Tokens: issuer}

	pair, err := issuer.IssuePair(user)
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	var captured string
	next := func(w http.ResponseWriter, r *http.Request) {
		current, ok := CurrentUser(r.Context())
		if !ok {
			t.Fatal("expected current user on the request context")
		}
		captured = current.ID
		w.WriteHeader(http.StatusNoContent)
	}

	t.Run("cookie credential", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
		req.AddCookie(&http.Cookie{Name: "accessToken", Value: pair.AccessToken})
		rec := httptest.NewRecorder()

		guard.wrap(next)(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected status 204 got %d: %s", rec.Code, rec.Body.String())
		}
		if captured != user.ID {
			t.Fatalf("expected user %s got %s", user.ID, captured)
		}
	})

	t.Run("bearer credential", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		rec := httptest.NewRecorder()

		guard.wrap(next)(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected status 204 got %d", rec.Code)
		}
	})

	t.Run("missing credential", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
		rec := httptest.NewRecorder()

		guard.wrap(next)(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected status 401 got %d", rec.Code)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()

		guard.wrap(next)(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected status 401 got %d", rec.Code)
		}
	})

	t.Run("refresh token is not an access credential", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
		req.Header.Set("Authorization", "Bearer "+pair.RefreshToken)
		rec := httptest.NewRecorder()

		guard.wrap(next)(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected status 401 got %d", rec.Code)
		}
	})

	t.Run("deleted user", func(t *testing.T) {
		delete(store.users, user.ID)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
		req.AddCookie(&http.Cookie{Name: "accessToken", Value: pair.AccessToken})
		rec := httptest.NewRecorder()

		guard.wrap(next)(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected status 401 got %d", rec.Code)
		}
	})
}
