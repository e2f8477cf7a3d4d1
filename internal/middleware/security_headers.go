package middleware

import (
	"net/http"
	"strings"
)

// staticCSP はフロントエンド配信時のContent-Security-Policy。
// アニメ画像はプロバイダーのCDNから直接読み込むため、img-srcはhttpsを許可する。
const staticCSP = "default-src 'self'; img-src 'self' https: data:; style-src 'self' 'unsafe-inline'; connect-src 'self' https://api.jikan.moe; frame-ancestors 'none'"

// NewSecurityHeadersMiddleware はセキュリティ関連のHTTPレスポンスヘッダーを付与するミドルウェアを返す。
// /api配下はキャッシュさせず、それ以外にはCSPを付ける。
func NewSecurityHeadersMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if strings.HasPrefix(r.URL.Path, "/api/") {
				h.Set("Cache-Control", "no-store")
			} else {
				h.Set("Content-Security-Policy", staticCSP)
			}
			next.ServeHTTP(w, r)
		})
	}
}
