package handler

import (
	"log/slog"
	"net/http"

	"github.com/feinime/feinime/internal/middleware"
)

// signOutRequest はPOST /api/sign-out のリクエストボディ。
type signOutRequest struct {
	GoogleID string `json:"google_id" validate:"required,max=255"`
}

// SignOut はクライアントのサインアウト通知を受け付ける。
// サーバー側にセッションは無いため、記録のみ行いデータは削除しない。
// POST /api/sign-out
func SignOut(w http.ResponseWriter, r *http.Request) {
	var req signOutRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	slog.Info("ユーザーがサインアウトしました",
		slog.String("google_id", req.GoogleID),
		slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
	)

	writeJSON(w, http.StatusOK, messageResponse{Message: "サインアウトしました。"})
}
