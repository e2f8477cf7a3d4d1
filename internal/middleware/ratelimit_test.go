package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/feinime/feinime/internal/model"
)

func newTestRateLimiter(t *testing.T, burst int) *RateLimiter {
	t.Helper()
	rl := NewRateLimiter(RateLimiterConfig{
		WriteRate:       rate.Limit(float64(burst) / 60.0),
		WriteBurst:      burst,
		CleanupInterval: time.Hour,
	})
	t.Cleanup(rl.Stop)
	return rl
}

func doPost(handler http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/favorites", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_AllowsWithinLimit(t *testing.T) {
	rl := newTestRateLimiter(t, 3)
	handler := rl.WriteMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for i := 0; i < 3; i++ {
		if w := doPost(handler, "203.0.113.1:5000"); w.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want 200", i+1, w.Code)
		}
	}
}

func TestRateLimiter_Returns429WithRetryAfter(t *testing.T) {
	rl := newTestRateLimiter(t, 2)
	handler := rl.WriteMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	doPost(handler, "203.0.113.1:5000")
	doPost(handler, "203.0.113.1:5001")
	w := doPost(handler, "203.0.113.1:5002")

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Code != model.ErrCodeRateLimited {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeRateLimited)
	}
}

// TestRateLimiter_IsolatesClients はクライアントIPごとに独立して数えることを検証する。
func TestRateLimiter_IsolatesClients(t *testing.T) {
	rl := newTestRateLimiter(t, 1)
	handler := rl.WriteMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	doPost(handler, "203.0.113.1:1")
	if w := doPost(handler, "203.0.113.2:1"); w.Code != http.StatusOK {
		t.Errorf("second client status = %d, want 200", w.Code)
	}
	if rl.LimiterCount() != 2 {
		t.Errorf("LimiterCount = %d, want 2", rl.LimiterCount())
	}
}

func TestRateLimiter_CleanupRemovesExpiredEntries(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		WriteRate:       1,
		WriteBurst:      1,
		CleanupInterval: time.Millisecond,
	})
	defer rl.Stop()

	rl.limiterFor("203.0.113.9")
	time.Sleep(10 * time.Millisecond)
	rl.cleanup()

	if rl.LimiterCount() != 0 {
		t.Errorf("LimiterCount = %d, want 0", rl.LimiterCount())
	}
}

func TestNewRateLimiterConfig(t *testing.T) {
	cfg := NewRateLimiterConfig(120)
	if cfg.WriteBurst != 120 {
		t.Errorf("WriteBurst = %d, want 120", cfg.WriteBurst)
	}
	if cfg.WriteRate != rate.Limit(2) {
		t.Errorf("WriteRate = %v, want 2", cfg.WriteRate)
	}

	if def := NewRateLimiterConfig(0); def.WriteBurst != 60 {
		t.Errorf("default WriteBurst = %d, want 60", def.WriteBurst)
	}
}
