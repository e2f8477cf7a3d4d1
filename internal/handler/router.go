package handler

import (
	"log/slog"
	"net/http"
	"net/netip"

	"github.com/go-chi/chi/v5"

	"github.com/feinime/feinime/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	TrustedProxies    []netip.Prefix // 転送ヘッダーを信用する接続元
	RateLimiter       *middleware.RateLimiter
	Metrics           middleware.HTTPRecorder
	MetricsHandler    http.Handler

	// ヘルスチェック
	HealthChecker HealthChecker

	// アニメ読み取りプロキシ
	AnimeService AnimeServiceInterface

	// ユーザー
	UserService UserServiceInterface

	// お気に入り
	FavoriteService FavoriteServiceInterface

	// 静的フロントエンド（nilなら配信しない）
	Static http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	TrustedRealIP → RequestID → Recovery → Logging → Metrics → SecurityHeaders → CORS
//
// 更新系エンドポイントにはさらにクライアントIPごとのレート制限を掛ける。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewTrustedRealIPMiddleware(deps.TrustedProxies))
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	animeHandler := NewAnimeHandler(deps.AnimeService)
	userHandler := NewUserHandler(deps.UserService)
	favoriteHandler := NewFavoriteHandler(deps.FavoriteService)

	// --- 運用系 ---
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		// --- 読み取り系 ---
		r.Get("/anime", animeHandler.ListTop)
		r.Get("/anime/{id}", animeHandler.GetDetail)
		r.Get("/users", userHandler.ListUsers)
		r.Get("/favorites/{google_id}", favoriteHandler.ListFavorites)

		// --- 更新系（レート制限あり） ---
		r.Group(func(r chi.Router) {
			if deps.RateLimiter != nil {
				r.Use(deps.RateLimiter.WriteMiddleware())
			}
			r.Post("/save-user", userHandler.SaveUser)
			r.Post("/favorites", favoriteHandler.AddFavorite)
			r.Delete("/favorites", favoriteHandler.RemoveFavorite)
			r.Post("/sign-out", SignOut)
		})
	})

	if deps.Static != nil {
		r.NotFound(deps.Static.ServeHTTP)
	}

	return r
}
