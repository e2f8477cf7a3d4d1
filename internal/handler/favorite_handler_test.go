package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/feinime/feinime/internal/model"
)

// TestFavoriteHandler_AddFavorite_NormalisesStringID は文字列のanime_idが数値に正規化されることを検証する。
func TestFavoriteHandler_AddFavorite_NormalisesStringID(t *testing.T) {
	var got addFavoriteRequest
	svc := &mockFavoriteService{
		addFn: func(ctx context.Context, req addFavoriteRequest) error {
			got = req
			return nil
		},
	}

	w := httptest.NewRecorder()
	NewFavoriteHandler(svc).AddFavorite(w, jsonRequest(http.MethodPost, "/api/favorites",
		`{"google_id":"u1","anime_id":"20","title":"Naruto","image_url":"https://example.com/l.jpg"}`))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body=%s)", w.Code, w.Body.String())
	}
	if got.AnimeID != 20 {
		t.Errorf("AnimeID = %d, want 20", got.AnimeID)
	}
	if !strings.Contains(w.Body.String(), `"message"`) {
		t.Errorf("body = %s, want message", w.Body.String())
	}
}

// TestFavoriteHandler_Mutations_MissingIdentity はidentity欠落時にストアへ届かないことを検証する。
func TestFavoriteHandler_Mutations_MissingIdentity(t *testing.T) {
	svc := &mockFavoriteService{
		addFn: func(ctx context.Context, req addFavoriteRequest) error {
			t.Error("AddFavorite should not be called")
			return nil
		},
		removeFn: func(ctx context.Context, googleID string, animeID model.AnimeID) error {
			t.Error("RemoveFavorite should not be called")
			return nil
		},
	}
	h := NewFavoriteHandler(svc)

	w := httptest.NewRecorder()
	h.AddFavorite(w, jsonRequest(http.MethodPost, "/api/favorites", `{"anime_id":20,"title":"Naruto"}`))
	assertErrorCode(t, w, http.StatusBadRequest, model.ErrCodeIdentityRequired)

	w = httptest.NewRecorder()
	h.RemoveFavorite(w, jsonRequest(http.MethodDelete, "/api/favorites", `{"google_id":"","anime_id":20}`))
	assertErrorCode(t, w, http.StatusBadRequest, model.ErrCodeIdentityRequired)
}

func TestFavoriteHandler_AddFavorite_InvalidAnimeID(t *testing.T) {
	svc := &mockFavoriteService{}
	h := NewFavoriteHandler(svc)

	w := httptest.NewRecorder()
	h.AddFavorite(w, jsonRequest(http.MethodPost, "/api/favorites", `{"google_id":"u1"}`))
	assertErrorCode(t, w, http.StatusBadRequest, model.ErrCodeInvalidAnimeID)

	w = httptest.NewRecorder()
	h.AddFavorite(w, jsonRequest(http.MethodPost, "/api/favorites", `{"google_id":"u1","anime_id":"naruto"}`))
	assertErrorCode(t, w, http.StatusBadRequest, model.ErrCodeInvalidRequest)
}

func TestFavoriteHandler_AddFavorite_PersistenceFailure(t *testing.T) {
	svc := &mockFavoriteService{
		addFn: func(ctx context.Context, req addFavoriteRequest) error {
			return model.PersistenceError("add", errors.New("deadlock detected"))
		},
	}

	w := httptest.NewRecorder()
	NewFavoriteHandler(svc).AddFavorite(w, jsonRequest(http.MethodPost, "/api/favorites", `{"google_id":"u1","anime_id":20}`))

	assertErrorCode(t, w, http.StatusInternalServerError, model.ErrCodePersistence)
	if strings.Contains(w.Body.String(), "deadlock") {
		t.Error("store error detail leaked into response")
	}
}

func TestFavoriteHandler_RemoveFavorite(t *testing.T) {
	svc := &mockFavoriteService{
		removeFn: func(ctx context.Context, googleID string, animeID model.AnimeID) error {
			if googleID != "u1" || animeID != 20 {
				t.Errorf("got (%q, %d), want (u1, 20)", googleID, animeID)
			}
			return nil
		},
	}

	w := httptest.NewRecorder()
	NewFavoriteHandler(svc).RemoveFavorite(w, jsonRequest(http.MethodDelete, "/api/favorites", `{"google_id":"u1","anime_id":20}`))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

// TestFavoriteHandler_ListFavorites_EmptyIsArray は未登録ユーザーで[]が返ることを検証する。
func TestFavoriteHandler_ListFavorites_EmptyIsArray(t *testing.T) {
	svc := &mockFavoriteService{
		listFn: func(ctx context.Context, googleID string) ([]favoriteResponse, error) {
			if googleID != "nobody" {
				t.Errorf("googleID = %q, want nobody", googleID)
			}
			return []favoriteResponse{}, nil
		},
	}

	w := httptest.NewRecorder()
	req := withChiURLParam(httptest.NewRequest(http.MethodGet, "/api/favorites/nobody", nil), "google_id", "nobody")
	NewFavoriteHandler(svc).ListFavorites(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("body = %s, want []", got)
	}
}

func TestFavoriteHandler_ListFavorites_AnimeIDIsNumber(t *testing.T) {
	svc := &mockFavoriteService{
		listFn: func(ctx context.Context, googleID string) ([]favoriteResponse, error) {
			return []favoriteResponse{{GoogleID: "u1", AnimeID: 20, Title: "Naruto"}}, nil
		},
	}

	w := httptest.NewRecorder()
	req := withChiURLParam(httptest.NewRequest(http.MethodGet, "/api/favorites/u1", nil), "google_id", "u1")
	NewFavoriteHandler(svc).ListFavorites(w, req)

	if !strings.Contains(w.Body.String(), `"anime_id":20`) {
		t.Errorf("body = %s, want numeric anime_id", w.Body.String())
	}
}
