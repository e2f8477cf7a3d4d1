package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"golang.org/x/time/rate"

	"github.com/feinime/feinime/internal/favorite"
	"github.com/feinime/feinime/internal/middleware"
	"github.com/feinime/feinime/internal/model"
	"github.com/feinime/feinime/internal/repository"
	"github.com/feinime/feinime/internal/security"
	"github.com/feinime/feinime/internal/user"
)

type stubHealthChecker struct{ err error }

func (s stubHealthChecker) PingContext(ctx context.Context) error { return s.err }

// newTestRouter はインメモリストアを使う実サービスでルーターを組み立てる。
func newTestRouter(t *testing.T, mutate func(*RouterDeps)) http.Handler {
	t.Helper()

	store := repository.NewMemoryStore()
	sanitizer := security.NewContentSanitizer()

	deps := &RouterDeps{
		AnimeService: &mockAnimeService{
			topAnimeFn: func(ctx context.Context, rankingType string, limit int) ([]byte, error) {
				return []byte(`{"data":[]}`), nil
			},
			detailFn: func(ctx context.Context, id model.AnimeID) ([]byte, error) {
				return []byte(`{"id":` + id.String() + `,"title":"Naruto"}`), nil
			},
		},
		UserService:     NewUserServiceAdapter(user.NewService(store.Users(), sanitizer, nil)),
		FavoriteService: NewFavoriteServiceAdapter(favorite.NewService(store.Favorites(), sanitizer, nil)),
		HealthChecker:   stubHealthChecker{},
	}
	if mutate != nil {
		mutate(deps)
	}
	return NewRouter(deps)
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = jsonRequest(method, target, body)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// TestRouter_NarutoScenario は追加→一覧→削除→一覧の一連の流れを検証する。
func TestRouter_NarutoScenario(t *testing.T) {
	r := newTestRouter(t, nil)

	w := serve(r, http.MethodPost, "/api/save-user", `{"google_id":"u1","name":"Alice"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("save-user status = %d, want 200", w.Code)
	}

	w = serve(r, http.MethodPost, "/api/favorites",
		`{"google_id":"u1","anime_id":20,"title":"Naruto","image_url":"https://cdn.example.com/l.jpg"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("add status = %d, want 200 (body=%s)", w.Code, w.Body.String())
	}

	w = serve(r, http.MethodGet, "/api/favorites/u1", "")
	var favs []favoriteResponse
	if err := json.NewDecoder(w.Body).Decode(&favs); err != nil {
		t.Fatalf("failed to decode favorites: %v", err)
	}
	if len(favs) != 1 || favs[0].AnimeID != 20 || favs[0].Title != "Naruto" {
		t.Fatalf("favorites = %+v, want one Naruto row", favs)
	}

	w = serve(r, http.MethodDelete, "/api/favorites", `{"google_id":"u1","anime_id":"20"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("remove status = %d, want 200", w.Code)
	}

	w = serve(r, http.MethodGet, "/api/favorites/u1", "")
	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("favorites after remove = %s, want []", got)
	}
}

func TestRouter_AddFavoriteTwiceKeepsOneRow(t *testing.T) {
	r := newTestRouter(t, nil)

	for _, id := range []string{`20`, `"20"`} {
		w := serve(r, http.MethodPost, "/api/favorites", `{"google_id":"u1","anime_id":`+id+`,"title":"Naruto"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("add status = %d, want 200", w.Code)
		}
	}

	w := serve(r, http.MethodGet, "/api/favorites/u1", "")
	var favs []favoriteResponse
	json.NewDecoder(w.Body).Decode(&favs)
	if len(favs) != 1 {
		t.Errorf("len(favorites) = %d, want 1", len(favs))
	}
}

// TestRouter_ListFavoritesEscapedGoogleID はパーセントを含むgoogle_idが二重にデコードされないことを検証する。
func TestRouter_ListFavoritesEscapedGoogleID(t *testing.T) {
	r := newTestRouter(t, nil)

	w := serve(r, http.MethodPost, "/api/favorites", `{"google_id":"a%41","anime_id":20,"title":"Naruto"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("add status = %d, want 200", w.Code)
	}

	for _, target := range []string{"/api/favorites/a%2541", "/api/favorites/a%25%34%31"} {
		w = serve(r, http.MethodGet, target, "")
		if w.Code != http.StatusOK {
			t.Fatalf("%s status = %d, want 200", target, w.Code)
		}
		var favs []favoriteResponse
		json.NewDecoder(w.Body).Decode(&favs)
		if len(favs) != 1 {
			t.Errorf("%s len(favorites) = %d, want 1", target, len(favs))
		}
	}

	w = serve(r, http.MethodGet, "/api/favorites/aA", "")
	var favs []favoriteResponse
	json.NewDecoder(w.Body).Decode(&favs)
	if len(favs) != 0 {
		t.Errorf("aA len(favorites) = %d, want 0", len(favs))
	}
}

func TestRouter_AnimeDetail(t *testing.T) {
	r := newTestRouter(t, nil)

	w := serve(r, http.MethodGet, "/api/anime/20", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"id":20`) {
		t.Errorf("body = %s", w.Body.String())
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", cc)
	}
	if w.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("expected a request ID header")
	}
}

func TestRouter_Health(t *testing.T) {
	r := newTestRouter(t, nil)
	if w := serve(r, http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	r = newTestRouter(t, func(d *RouterDeps) {
		d.HealthChecker = stubHealthChecker{err: errors.New("connection refused")}
	})
	w := serve(r, http.MethodGet, "/health", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"unavailable"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestRouter_SignOut(t *testing.T) {
	r := newTestRouter(t, nil)

	if w := serve(r, http.MethodPost, "/api/sign-out", `{"google_id":"u1"}`); w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	w := serve(r, http.MethodPost, "/api/sign-out", `{}`)
	assertErrorCode(t, w, http.StatusBadRequest, model.ErrCodeIdentityRequired)
}

func TestRouter_RateLimitAppliesToMutationsOnly(t *testing.T) {
	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		WriteRate:       rate.Every(time.Hour),
		WriteBurst:      1,
		CleanupInterval: time.Hour,
	})
	t.Cleanup(rl.Stop)

	r := newTestRouter(t, func(d *RouterDeps) { d.RateLimiter = rl })

	body := `{"google_id":"u1","anime_id":1}`
	if w := serve(r, http.MethodPost, "/api/favorites", body); w.Code != http.StatusOK {
		t.Fatalf("first add status = %d, want 200", w.Code)
	}
	w := serve(r, http.MethodPost, "/api/favorites", body)
	assertErrorCode(t, w, http.StatusTooManyRequests, model.ErrCodeRateLimited)

	for i := 0; i < 3; i++ {
		if w := serve(r, http.MethodGet, "/api/favorites/u1", ""); w.Code != http.StatusOK {
			t.Errorf("read status = %d, want 200", w.Code)
		}
	}
}

// TestRouter_RateLimitIgnoresForwardedForFromUntrustedPeer はX-Forwarded-Forを変えても
// 同じ接続元からの更新が制限されることを検証する。
func TestRouter_RateLimitIgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		WriteRate:       rate.Every(time.Hour),
		WriteBurst:      1,
		CleanupInterval: time.Hour,
	})
	t.Cleanup(rl.Stop)

	r := newTestRouter(t, func(d *RouterDeps) { d.RateLimiter = rl })

	body := `{"google_id":"u1","anime_id":1}`
	for i, xff := range []string{"203.0.113.1", "203.0.113.2", "203.0.113.3"} {
		req := jsonRequest(http.MethodPost, "/api/favorites", body)
		req.RemoteAddr = "198.51.100.7:4000"
		req.Header.Set("X-Forwarded-For", xff)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if i == 0 {
			if w.Code != http.StatusOK {
				t.Fatalf("first add status = %d, want 200", w.Code)
			}
			continue
		}
		assertErrorCode(t, w, http.StatusTooManyRequests, model.ErrCodeRateLimited)
	}
	if n := rl.LimiterCount(); n != 1 {
		t.Errorf("LimiterCount() = %d, want 1", n)
	}
}

// TestRouter_RateLimitUsesForwardedForFromTrustedProxy は信頼済みプロキシ経由なら
// 転送元クライアントごとに制限されることを検証する。
func TestRouter_RateLimitUsesForwardedForFromTrustedProxy(t *testing.T) {
	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		WriteRate:       rate.Every(time.Hour),
		WriteBurst:      1,
		CleanupInterval: time.Hour,
	})
	t.Cleanup(rl.Stop)

	r := newTestRouter(t, func(d *RouterDeps) {
		d.RateLimiter = rl
		d.TrustedProxies = []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}
	})

	body := `{"google_id":"u1","anime_id":1}`
	for _, xff := range []string{"203.0.113.1", "203.0.113.2"} {
		req := jsonRequest(http.MethodPost, "/api/favorites", body)
		req.RemoteAddr = "10.0.0.5:4000"
		req.Header.Set("X-Forwarded-For", xff)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("add via proxy for %s status = %d, want 200", xff, w.Code)
		}
	}
	if n := rl.LimiterCount(); n != 2 {
		t.Errorf("LimiterCount() = %d, want 2", n)
	}
}

func TestRouter_StaticFallback(t *testing.T) {
	static := NewSPAHandler(fstest.MapFS{
		"index.html":    {Data: []byte("<html>feinime</html>")},
		"assets/app.js": {Data: []byte("console.log(1)")},
	})
	r := newTestRouter(t, func(d *RouterDeps) { d.Static = static })

	w := serve(r, http.MethodGet, "/favorites", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "feinime") {
		t.Errorf("SPA fallback status = %d body = %q", w.Code, w.Body.String())
	}

	w = serve(r, http.MethodGet, "/assets/app.js", "")
	if !strings.Contains(w.Body.String(), "console.log") {
		t.Errorf("asset body = %q", w.Body.String())
	}

	w = serve(r, http.MethodGet, "/api/nope", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown api status = %d, want 404", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("unknown api Content-Type = %q, want application/json", ct)
	}
}

func TestRouter_MetricsRoute(t *testing.T) {
	r := newTestRouter(t, func(d *RouterDeps) {
		d.MetricsHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("# metrics"))
		})
	})

	w := serve(r, http.MethodGet, "/metrics", "")
	if w.Body.String() != "# metrics" {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	r := newTestRouter(t, nil)

	w := serve(r, http.MethodOptions, "/api/favorites", "")
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}
