package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/feinime/feinime/internal/mal"
	"github.com/feinime/feinime/internal/middleware"
	"github.com/feinime/feinime/internal/model"
)

// AnimeServiceInterface はアニメハンドラーが必要とする上流プロバイダーのインターフェース。
// mal.Clientが満たす。戻り値は上流のJSONそのまま。
type AnimeServiceInterface interface {
	TopAnime(ctx context.Context, rankingType string, limit int) ([]byte, error)
	Detail(ctx context.Context, id model.AnimeID) ([]byte, error)
}

// AnimeHandler はアニメ情報の読み取りプロキシ。
// 上流のクレデンシャルはサーバー側だけが持ち、ブラウザには渡らない。
type AnimeHandler struct {
	service AnimeServiceInterface
}

// NewAnimeHandler はAnimeHandlerを生成する。
func NewAnimeHandler(service AnimeServiceInterface) *AnimeHandler {
	return &AnimeHandler{service: service}
}

// ListTop はランキング上位のアニメ一覧を返す。
// GET /api/anime?limit=50&ranking_type=all
func (h *AnimeHandler) ListTop(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := mal.DefaultRankingLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > mal.MaxRankingLimit {
			middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidQueryError("limit", raw))
			return
		}
		limit = n
	}

	rankingType := mal.DefaultRankingType
	if raw := q.Get("ranking_type"); raw != "" {
		if !mal.ValidRankingType(raw) {
			middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidQueryError("ranking_type", raw))
			return
		}
		rankingType = raw
	}

	body, err := h.service.TopAnime(r.Context(), rankingType, limit)
	if err != nil {
		handleUpstreamError(w, r, err)
		return
	}

	writeRawJSON(w, body)
}

// GetDetail は単一アニメの詳細を返す。
// GET /api/anime/{id}
func (h *AnimeHandler) GetDetail(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := model.ParseAnimeID(raw)
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidAnimeIDError(raw))
		return
	}

	body, err := h.service.Detail(r.Context(), id)
	if err != nil {
		handleUpstreamError(w, r, err)
		return
	}

	writeRawJSON(w, body)
}
