package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/feinime/feinime/internal/middleware"
	"github.com/feinime/feinime/internal/model"
)

// --- モック ---

type mockAnimeService struct {
	topAnimeFn func(ctx context.Context, rankingType string, limit int) ([]byte, error)
	detailFn   func(ctx context.Context, id model.AnimeID) ([]byte, error)
}

func (m *mockAnimeService) TopAnime(ctx context.Context, rankingType string, limit int) ([]byte, error) {
	return m.topAnimeFn(ctx, rankingType, limit)
}

func (m *mockAnimeService) Detail(ctx context.Context, id model.AnimeID) ([]byte, error) {
	return m.detailFn(ctx, id)
}

type mockUserService struct {
	saveUserFn  func(ctx context.Context, req saveUserRequest) (*userResponse, error)
	listUsersFn func(ctx context.Context) ([]userResponse, error)
}

func (m *mockUserService) SaveUser(ctx context.Context, req saveUserRequest) (*userResponse, error) {
	return m.saveUserFn(ctx, req)
}

func (m *mockUserService) ListUsers(ctx context.Context) ([]userResponse, error) {
	return m.listUsersFn(ctx)
}

type mockFavoriteService struct {
	addFn    func(ctx context.Context, req addFavoriteRequest) error
	removeFn func(ctx context.Context, googleID string, animeID model.AnimeID) error
	listFn   func(ctx context.Context, googleID string) ([]favoriteResponse, error)
}

func (m *mockFavoriteService) AddFavorite(ctx context.Context, req addFavoriteRequest) error {
	return m.addFn(ctx, req)
}

func (m *mockFavoriteService) RemoveFavorite(ctx context.Context, googleID string, animeID model.AnimeID) error {
	return m.removeFn(ctx, googleID, animeID)
}

func (m *mockFavoriteService) ListFavorites(ctx context.Context, googleID string) ([]favoriteResponse, error) {
	return m.listFn(ctx, googleID)
}

// --- ヘルパー ---

// withChiURLParam はchiのURLパラメータをリクエストコンテキストに設定する。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeErrorResponse(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorResponseBody {
	t.Helper()
	var result middleware.ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

func assertErrorCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if w.Code != status {
		t.Errorf("status = %d, want %d (body=%s)", w.Code, status, strings.TrimSpace(w.Body.String()))
		return
	}
	if got := decodeErrorResponse(t, w); got.Code != code {
		t.Errorf("code = %q, want %q", got.Code, code)
	}
}
