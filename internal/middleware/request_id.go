package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// contextKey はコンテキストキーの型。
type contextKey string

const (
	requestIDContextKey contextKey = "request_id"
	// RequestIDHeader はリクエストIDを運ぶヘッダー名。
	RequestIDHeader = "X-Request-ID"
	// maxRequestIDLength はクライアント指定のリクエストIDとして受け付ける最大長。
	maxRequestIDLength = 128
)

// NewRequestIDMiddleware はリクエストごとにIDを割り当てるミドルウェアを返す。
// クライアントがX-Request-IDを付けていればそれを引き継ぎ、無ければUUIDv4を生成する。
// IDはレスポンスヘッダーとリクエストコンテキストの両方に載せる。
func NewRequestIDMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" || len(id) > maxRequestIDLength {
				id = uuid.NewString()
			}

			w.Header().Set(RequestIDHeader, id)
			ctx := context.WithValue(r.Context(), requestIDContextKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFromContext はコンテキストからリクエストIDを取り出す。
// 設定されていない場合は空文字列を返す。
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}
