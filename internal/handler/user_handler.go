package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/feinime/feinime/internal/middleware"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// SaveUser はプロフィールをUPSERTし、保存後のユーザーを返す。
	SaveUser(ctx context.Context, req saveUserRequest) (*userResponse, error)
	// ListUsers は登録済みの全ユーザーを返す。
	ListUsers(ctx context.Context) ([]userResponse, error)
}

// saveUserRequest はPOST /api/save-user のリクエストボディ。
type saveUserRequest struct {
	GoogleID string `json:"google_id" validate:"required,max=255"`
	Name     string `json:"name" validate:"max=255"`
	Email    string `json:"email" validate:"omitempty,max=320"`
	Picture  string `json:"picture" validate:"max=2048"`
}

// userResponse はAPIで返すユーザー。
type userResponse struct {
	GoogleID  string    `json:"google_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Picture   string    `json:"picture"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// saveUserResponse はPOST /api/save-user の成功レスポンス。
type saveUserResponse struct {
	Message string        `json:"message"`
	User    *userResponse `json:"user"`
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// SaveUser はサインインしたユーザーのプロフィールを保存する。
// POST /api/save-user
func (h *UserHandler) SaveUser(w http.ResponseWriter, r *http.Request) {
	var req saveUserRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	user, err := h.service.SaveUser(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, saveUserResponse{
		Message: "ユーザーを保存しました。",
		User:    user,
	})
}

// ListUsers は登録済みの全ユーザーを返す。
// GET /api/users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}
