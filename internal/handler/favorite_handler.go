package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/feinime/feinime/internal/middleware"
	"github.com/feinime/feinime/internal/model"
)

// FavoriteServiceInterface はお気に入りハンドラーが必要とするサービスインターフェース。
type FavoriteServiceInterface interface {
	AddFavorite(ctx context.Context, req addFavoriteRequest) error
	RemoveFavorite(ctx context.Context, googleID string, animeID model.AnimeID) error
	ListFavorites(ctx context.Context, googleID string) ([]favoriteResponse, error)
}

// addFavoriteRequest はPOST /api/favorites のリクエストボディ。
// anime_idは数値と数値文字列の両方を受け付ける。
type addFavoriteRequest struct {
	GoogleID string        `json:"google_id" validate:"required,max=255"`
	AnimeID  model.AnimeID `json:"anime_id" validate:"required,gt=0"`
	Title    string        `json:"title" validate:"max=512"`
	ImageURL string        `json:"image_url" validate:"max=2048"`
}

// removeFavoriteRequest はDELETE /api/favorites のリクエストボディ。
type removeFavoriteRequest struct {
	GoogleID string        `json:"google_id" validate:"required,max=255"`
	AnimeID  model.AnimeID `json:"anime_id" validate:"required,gt=0"`
}

// favoriteResponse はAPIで返すお気に入り。anime_idは常に数値。
type favoriteResponse struct {
	GoogleID  string        `json:"google_id"`
	AnimeID   model.AnimeID `json:"anime_id"`
	Title     string        `json:"title"`
	ImageURL  string        `json:"image_url"`
	CreatedAt time.Time     `json:"created_at"`
}

// FavoriteHandler はお気に入り管理のHTTPハンドラー。
// 1リクエストは RECEIVED → VALIDATED → PERSISTED → RESPONDED の順に進み、
// 検証失敗は400、ストア失敗は500で終わる。リトライはしない。
type FavoriteHandler struct {
	service FavoriteServiceInterface
}

// NewFavoriteHandler はFavoriteHandlerを生成する。
func NewFavoriteHandler(service FavoriteServiceInterface) *FavoriteHandler {
	return &FavoriteHandler{service: service}
}

// AddFavorite はお気に入りを追加する。同じ組の再追加は上書きになる。
// POST /api/favorites
func (h *FavoriteHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	logger := requestLogger(r, "add")
	logger.Debug("favorite request received")

	var req addFavoriteRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		logger.Debug("favorite request rejected", slog.String("code", apiErr.Code))
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}
	logger.Debug("favorite request validated", slog.Int64("anime_id", int64(req.AnimeID)))

	if err := h.service.AddFavorite(r.Context(), req); err != nil {
		logger.Debug("favorite request failed", slog.String("error", err.Error()))
		handleServiceError(w, r, err)
		return
	}
	logger.Debug("favorite persisted")

	writeJSON(w, http.StatusOK, messageResponse{Message: "お気に入りに追加しました。"})
}

// RemoveFavorite はお気に入りを削除する。存在しない組でも200を返す。
// DELETE /api/favorites
func (h *FavoriteHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	logger := requestLogger(r, "remove")
	logger.Debug("favorite request received")

	var req removeFavoriteRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		logger.Debug("favorite request rejected", slog.String("code", apiErr.Code))
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}
	logger.Debug("favorite request validated", slog.Int64("anime_id", int64(req.AnimeID)))

	if err := h.service.RemoveFavorite(r.Context(), req.GoogleID, req.AnimeID); err != nil {
		logger.Debug("favorite request failed", slog.String("error", err.Error()))
		handleServiceError(w, r, err)
		return
	}
	logger.Debug("favorite persisted")

	writeJSON(w, http.StatusOK, messageResponse{Message: "お気に入りから削除しました。"})
}

// ListFavorites はユーザーのお気に入り一覧を返す。該当が無い場合は[]。
// GET /api/favorites/{google_id}
func (h *FavoriteHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	googleID := chi.URLParam(r, "google_id")
	// chiはRawPathがあればそれでルーティングするため、その場合だけエスケープが残る
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(googleID)
		if err != nil {
			middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("google_idが不正です"))
			return
		}
		googleID = unescaped
	}

	favs, err := h.service.ListFavorites(r.Context(), googleID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, favs)
}

// requestLogger はお気に入りリクエストの状態遷移ログ用のロガーを返す。
func requestLogger(r *http.Request, op string) *slog.Logger {
	return slog.Default().With(
		slog.String("op", op),
		slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
	)
}
